package config

import (
	"os"
	"strconv"
	"time"

	"aitaflow/internal/errors"

	"gopkg.in/yaml.v3"
)

// Config represents the complete application configuration
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Reddit    RedditConfig    `yaml:"reddit"`
	Pushshift PushshiftConfig `yaml:"pushshift"`
	Flow      FlowConfig      `yaml:"flow"`
	Server    ServerConfig    `yaml:"server"`
	LogLevel  string          `yaml:"log_level"`
}

// DatabaseConfig holds database connection settings. An empty URL disables persistence.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// RedisConfig selects the shared response cache. An empty Addr keeps the file cache.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// RedditConfig holds the application credentials for the comment API
type RedditConfig struct {
	ClientID     string        `yaml:"client_id"`
	ClientSecret string        `yaml:"client_secret"`
	UserAgent    string        `yaml:"user_agent"`
	BaseURL      string        `yaml:"base_url"`
	AuthURL      string        `yaml:"auth_url"`
	Timeout      time.Duration `yaml:"timeout"`
	// RequestsPerMinute caps API calls; zero disables the limit
	RequestsPerMinute int `yaml:"requests_per_minute"`
}

// PushshiftConfig holds search API settings
type PushshiftConfig struct {
	BaseURL     string        `yaml:"base_url"`
	Timeout     time.Duration `yaml:"timeout"`
	Limit       int           `yaml:"limit"`
	MinComments int           `yaml:"min_comments"`
	// RequestsPerMinute caps API calls; zero disables the limit
	RequestsPerMinute int `yaml:"requests_per_minute"`
}

// FlowConfig holds the scrape and labelling parameters
type FlowConfig struct {
	Subreddit    string  `yaml:"subreddit"`
	StartDate    string  `yaml:"start_date"`
	EndDate      string  `yaml:"end_date"`
	DayIncrement int     `yaml:"day_increment"`
	DataDir      string  `yaml:"data_dir"`
	MinWeight    int     `yaml:"min_weight"`
	Threshold    float64 `yaml:"threshold"`
	Workers      int     `yaml:"workers"`
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port string `yaml:"port"`
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Database:  loadDatabaseConfig(),
		Redis:     loadRedisConfig(),
		Reddit:    loadRedditConfig(),
		Pushshift: loadPushshiftConfig(),
		Flow:      loadFlowConfig(),
		Server:    loadServerConfig(),
		LogLevel:  getEnvOrDefault("LOG_LEVEL", "INFO"),
	}

	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

// LoadFile loads the environment configuration and overlays the YAML file at path.
// Keys missing from the file keep their environment or default values.
func LoadFile(path string) (*Config, error) {
	config, err := Load()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", path)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, errors.Wrap(errors.ConfigInvalid(err.Error()), "failed to parse config file")
	}

	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		URL: getEnvOrDefault("DATABASE_URL", ""),
	}
}

func loadRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:     getEnvOrDefault("REDIS_ADDR", ""),
		Password: getEnvOrDefault("REDIS_PASSWORD", ""),
		DB:       getEnvIntOrDefault("REDIS_DB", 0),
		TTL:      getEnvDurationOrDefault("REDIS_TTL", 0),
	}
}

func loadRedditConfig() RedditConfig {
	return RedditConfig{
		ClientID:     getEnvOrDefault("REDDIT_CLIENT_ID", ""),
		ClientSecret: getEnvOrDefault("REDDIT_CLIENT_SECRET", ""),
		UserAgent:    getEnvOrDefault("REDDIT_USER_AGENT", "aitaflow/1.0"),
		BaseURL:      getEnvOrDefault("REDDIT_BASE_URL", "https://oauth.reddit.com"),
		AuthURL:      getEnvOrDefault("REDDIT_AUTH_URL", "https://www.reddit.com/api/v1/access_token"),
		Timeout:      getEnvDurationOrDefault("REDDIT_TIMEOUT", 30*time.Second),

		RequestsPerMinute: getEnvIntOrDefault("REDDIT_REQUESTS_PER_MINUTE", 60),
	}
}

func loadPushshiftConfig() PushshiftConfig {
	return PushshiftConfig{
		BaseURL:     getEnvOrDefault("PUSHSHIFT_BASE_URL", "https://api.pushshift.io"),
		Timeout:     getEnvDurationOrDefault("PUSHSHIFT_TIMEOUT", 60*time.Second),
		Limit:       getEnvIntOrDefault("PUSHSHIFT_LIMIT", 500),
		MinComments: getEnvIntOrDefault("PUSHSHIFT_MIN_COMMENTS", 100),

		RequestsPerMinute: getEnvIntOrDefault("PUSHSHIFT_REQUESTS_PER_MINUTE", 60),
	}
}

func loadFlowConfig() FlowConfig {
	return FlowConfig{
		Subreddit:    getEnvOrDefault("SUBREDDIT", "amitheasshole"),
		StartDate:    getEnvOrDefault("START_DATE", "2019-01-01"),
		EndDate:      getEnvOrDefault("END_DATE", ""),
		DayIncrement: getEnvIntOrDefault("DAY_INCREMENT", 3),
		DataDir:      getEnvOrDefault("DATA_DIR", "./.reddit/top_level_comments"),
		MinWeight:    getEnvIntOrDefault("MIN_WEIGHT", 25),
		Threshold:    getEnvFloatOrDefault("LABEL_THRESHOLD", 0.2),
		Workers:      getEnvIntOrDefault("WORKERS", 8),
	}
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Port: getEnvOrDefault("PORT", "8080"),
	}
}

// Validate checks value ranges; credentials are checked where they are used
func (c *Config) Validate() error {
	if c.Flow.Subreddit == "" {
		return errors.ConfigInvalid("subreddit is required")
	}
	if c.Flow.DayIncrement <= 0 {
		return errors.ConfigInvalid("day increment must be positive")
	}
	if c.Flow.Threshold < 0 || c.Flow.Threshold > 1 {
		return errors.ConfigInvalid("label threshold must be within [0, 1]")
	}
	if c.Flow.Workers <= 0 {
		return errors.ConfigInvalid("workers must be positive")
	}
	if c.Pushshift.Limit <= 0 {
		return errors.ConfigInvalid("pushshift limit must be positive")
	}
	return nil
}

// ValidateReddit checks that comment API credentials are present
func (c RedditConfig) ValidateReddit() error {
	if c.ClientID == "" || c.ClientSecret == "" {
		return errors.ConfigInvalid("REDDIT_CLIENT_ID and REDDIT_CLIENT_SECRET are required")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
