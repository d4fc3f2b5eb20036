package main

import (
	"os/signal"
	"syscall"

	"aitaflow/adapters/postgres"
	"aitaflow/app"
	"aitaflow/internal/api"
	"aitaflow/internal/errors"
	"aitaflow/internal/migration"
	"aitaflow/ports"
	"aitaflow/ui"

	"github.com/spf13/cobra"
)

func newServeCmd(globals *globalFlags) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the report pages and the JSON API",
		Long: `Serve the browsable report at / and the JSON API under /api.

Stored posts need DATABASE_URL. Starting runs through POST /api/runs needs
REDDIT_CLIENT_ID and REDDIT_CLIENT_SECRET; without them the run routes answer 503.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(globals)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			hub := api.NewRunHub(logger)
			defer hub.Close()

			apiOpts := []api.Option{api.WithLogger(logger)}
			var res *resources

			if err := cfg.Reddit.ValidateReddit(); err == nil {
				var pipeline *app.Pipeline
				pipeline, res, err = buildPipeline(ctx, cfg, logger, app.WithObserver(hub.ObserveStage))
				if err != nil {
					return err
				}
				defer res.Close()
				apiOpts = append(apiOpts, api.WithRunner(pipeline, app.OptionsFromConfig(cfg.Flow), hub))
			} else {
				logger.Warn("pipeline disabled: %v", err)
				db, err := initDatabase(ctx, cfg, logger)
				if err != nil {
					return err
				}
				res = &resources{db: db}
				defer res.Close()
			}

			var repo ports.LabelRepository
			if res.db != nil {
				repo = postgres.NewLabelRepository(res.db)
				apiOpts = append(apiOpts, api.WithRepository(repo))
			}

			server := api.NewServer(ctx, apiOpts...)
			application, err := ui.NewApp(repo, server.Handler(), logger)
			if err != nil {
				return err
			}
			return application.Start(ctx, ui.Config{Port: cfg.Server.Port})
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "Listen port (default PORT or 8080)")
	return cmd
}

func newMigrateCmd(globals *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the label tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(globals)
			if err != nil {
				return err
			}
			if cfg.Database.URL == "" {
				return errors.ConfigInvalid("DATABASE_URL is required")
			}
			db, err := initDatabase(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer db.Close()
			logger.Info("schema is at version %s", migration.NewRunner().Version())
			return nil
		},
	}
}
