package storage

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-intake/internal/config"
)

func TestNewStorage_NothingConfigured(t *testing.T) {
	s, err := NewStorage(&config.Config{})
	require.NoError(t, err, "未配置任何组件时不应报错")
	require.NotNil(t, s)
	assert.Nil(t, s.MySQL)
	assert.Nil(t, s.Redis)
	s.Close()
}

func TestNewStorage_AllConfiguredFail(t *testing.T) {
	cfg := &config.Config{}
	cfg.Redis.Address = "127.0.0.1:1"
	cfg.Redis.DialTimeoutSeconds = 1

	s, err := NewStorage(cfg)
	assert.Error(t, err, "所有已配置组件都失败时应返回错误")
	assert.Nil(t, s)
}

func TestNewStorage_NilConfig(t *testing.T) {
	_, err := NewStorage(nil)
	assert.Error(t, err)
}

func TestNewStorage_RedisOnly(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &config.Config{}
	cfg.Redis.Address = mr.Addr()

	s, err := NewStorage(cfg)
	require.NoError(t, err)
	require.NotNil(t, s.Redis, "Redis 可用时应初始化")
	assert.Nil(t, s.MinIO)
	assert.Nil(t, s.RabbitMQ)

	require.NoError(t, s.Redis.Client.Set(context.Background(), "k", "v", 0).Err())
	assert.True(t, mr.Exists("k"))
	s.Close()
}

func TestNewRedisAdapter_EmptyAddress(t *testing.T) {
	_, err := NewRedisAdapter(&config.RedisConfig{})
	assert.Error(t, err)
	_, err = NewRedisAdapter(nil)
	assert.Error(t, err)
}
