package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTempConfig 把 YAML 内容写入临时目录并返回路径
func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir, err := os.MkdirTemp("", "config-test")
	require.NoError(t, err, "无法创建临时目录")
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644), "无法写入临时配置文件")
	return configPath
}

// TestLoadConfigOverlaysDefaults 验证 YAML 只覆盖显式给出的字段，其余保留默认值
func TestLoadConfigOverlaysDefaults(t *testing.T) {
	configPath := writeTempConfig(t, `
backend:
  base_url: "http://backend.local:9000/"
  timeout: "15s"
upload:
  progress_interval: "50ms"
session:
  registry: redis
redis:
  address: "localhost:6379"
`)

	cfg, err := LoadConfigFromFileOnly(configPath)
	require.NoError(t, err, "加载配置不应返回错误")
	require.NotNil(t, cfg)

	assert.Equal(t, "http://backend.local:9000", cfg.Backend.BaseURL, "BaseURL 末尾的斜杠应被去掉")
	assert.Equal(t, 15*time.Second, cfg.BackendTimeout())
	assert.Equal(t, 50*time.Millisecond, cfg.ProgressInterval())
	assert.Equal(t, "redis", cfg.Session.Registry)
	assert.Equal(t, "localhost:6379", cfg.Redis.Address)

	// 未配置的字段保持默认
	assert.Equal(t, "files", cfg.Upload.FieldName)
	assert.Equal(t, []string{"pdf", "doc", "docx"}, cfg.Upload.AllowedExtensions)
	assert.Len(t, cfg.Upload.AllowedMIMETypes, 3)
	assert.Equal(t, 15.0, cfg.Upload.ProgressMaxIncrement)
	assert.Equal(t, 90.0, cfg.Upload.ProgressCeiling)
	assert.Equal(t, 10, cfg.Redis.PoolSize)
}

// TestLoadConfigRestoresClearedFields 验证被显式清空的关键字段会恢复默认
func TestLoadConfigRestoresClearedFields(t *testing.T) {
	configPath := writeTempConfig(t, `
upload:
  field_name: ""
  allowed_extensions: []
  progress_ceiling: 150
session:
  registry: ""
`)

	cfg, err := LoadConfigFromFileOnly(configPath)
	require.NoError(t, err)

	assert.Equal(t, "files", cfg.Upload.FieldName)
	assert.Equal(t, DefaultAllowedExtensions(), cfg.Upload.AllowedExtensions)
	assert.Equal(t, 90.0, cfg.Upload.ProgressCeiling, "超过100的上限应回退为默认值")
	assert.Equal(t, "memory", cfg.Session.Registry)
}

// TestLoadConfigEnvOverrides 验证环境变量优先于文件
func TestLoadConfigEnvOverrides(t *testing.T) {
	configPath := writeTempConfig(t, `
backend:
  base_url: "http://from-file"
`)
	t.Setenv("INTAKE_BACKEND_URL", "http://from-env/")
	t.Setenv("INTAKE_TRACING_ENABLED", "true")

	cfg, err := LoadConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, "http://from-env", cfg.Backend.BaseURL)
	assert.True(t, cfg.Tracing.Enabled)
}

// TestLoadConfigMissingExplicitFile 显式指定但不存在的文件应报错
func TestLoadConfigMissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

// TestLoadConfigInvalidYAML 语法错误的 YAML 应报错
func TestLoadConfigInvalidYAML(t *testing.T) {
	configPath := writeTempConfig(t, "backend: [unclosed")
	_, err := LoadConfigFromFileOnly(configPath)
	require.Error(t, err)
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, time.Second, GetDuration("", time.Second))
	assert.Equal(t, time.Second, GetDuration("bogus", time.Second))
	assert.Equal(t, time.Second, GetDuration("-5s", time.Second))
	assert.Equal(t, 3*time.Minute, GetDuration("3m", time.Second))
}

func TestCreateSampleConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.yaml")
	require.NoError(t, CreateSampleConfig(path))

	cfg, err := LoadConfigFromFileOnly(path)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", cfg.Backend.BaseURL)

	require.Error(t, CreateSampleConfig(path), "已存在的文件不应被覆盖")
}
