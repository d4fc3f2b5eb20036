package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"aitaflow/domain/core"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRedis struct {
	mock.Mock
}

func (m *MockRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	args := m.Called(ctx, key)
	return redis.NewStringResult(args.String(0), args.Error(1))
}

func (m *MockRedis) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd {
	args := m.Called(ctx, key, value, expiration)
	return redis.NewBoolResult(args.Bool(0), args.Error(1))
}

func TestRedisCacheMiss(t *testing.T) {
	ctx := context.Background()
	client := new(MockRedis)
	client.On("Get", ctx, "aita:responses:p1").Return("", redis.Nil)

	_, err := NewRedisCache(client, 0).Get(ctx, "p1")
	assert.ErrorIs(t, err, core.ErrCacheMiss)
	client.AssertExpectations(t)
}

func TestRedisCachePutThenGet(t *testing.T) {
	ctx := context.Background()
	client := new(MockRedis)
	var stored []byte
	client.On("SetNX", ctx, "aita:responses:p1", mock.Anything, time.Hour).
		Run(func(args mock.Arguments) { stored = args.Get(2).([]byte) }).
		Return(true, nil).Once()

	c := NewRedisCache(client, time.Hour)
	require.NoError(t, c.Put(ctx, "p1", sampleResponses()))

	client.On("Get", ctx, "aita:responses:p1").Return(string(stored), nil)
	got, err := c.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, sampleResponses(), got)
	client.AssertExpectations(t)
}

func TestRedisCacheSecondWriteRejected(t *testing.T) {
	ctx := context.Background()
	client := new(MockRedis)
	client.On("SetNX", ctx, "aita:responses:p1", mock.Anything, time.Duration(0)).Return(false, nil)

	err := NewRedisCache(client, 0).Put(ctx, "p1", sampleResponses())
	assert.ErrorIs(t, err, core.ErrAlreadyCached)
}

func TestRedisCacheErrors(t *testing.T) {
	ctx := context.Background()
	client := new(MockRedis)
	client.On("Get", ctx, "aita:responses:p1").Return("", errors.New("connection refused"))
	client.On("Get", ctx, "aita:responses:p2").Return("not json", nil)
	client.On("SetNX", ctx, "aita:responses:p3", mock.Anything, time.Duration(0)).Return(false, errors.New("timeout"))

	c := NewRedisCache(client, 0)
	_, err := c.Get(ctx, "p1")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, core.ErrCacheMiss)

	_, err = c.Get(ctx, "p2")
	assert.Error(t, err)

	err = c.Put(ctx, "p3", nil)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, core.ErrAlreadyCached)
}
