package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, BackendMemory, cfg.KVBackend)
	assert.Equal(t, BackendMemory, cfg.OrdersBackend)
	assert.Equal(t, NotifierSimulated, cfg.NotifierMode)
	assert.Equal(t, ":memory:", cfg.CatalogDSN)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "seller-notifications", cfg.NotificationTopic)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Brokers())
	assert.Equal(t, 10*time.Second, cfg.MongoConnectTimeout)
	assert.Equal(t, uint64(100), cfg.MongoMaxPool)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("KV_BACKEND", "redis")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("REQUEST_TIMEOUT", "5s")
	t.Setenv("MONGO_MAX_POOL", "20")
	t.Setenv("MONGO_MIN_POOL", "2")
	t.Setenv("MONGO_SELECT_TIMEOUT", "1s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, uint64(20), cfg.MongoMaxPool)
	assert.Equal(t, uint64(2), cfg.MongoMinPool)
	assert.Equal(t, time.Second, cfg.MongoSelectTimeout)

	assert.Equal(t, "9000", cfg.HTTPPort)
	assert.Equal(t, BackendRedis, cfg.KVBackend)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Brokers())
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("GRPC_PORT=6000\nLOG_FORMAT=console\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("GRPC_PORT")
		os.Unsetenv("LOG_FORMAT")
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "6000", cfg.GRPCPort)
	assert.Equal(t, "console", cfg.LogFormat)
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown kv backend", map[string]string{"KV_BACKEND": "etcd"}},
		{"unknown notifier", map[string]string{"NOTIFIER_MODE": "sms"}},
		{"postgres without secret", map[string]string{"USERS_BACKEND": "postgres"}},
		{"zero rate", map[string]string{"LOGIN_RATE_PER_SECOND": "0"}},
		{"mongo min pool above max", map[string]string{"MONGO_MAX_POOL": "5", "MONGO_MIN_POOL": "10"}},
		{"bad duration", map[string]string{"REQUEST_TIMEOUT": "soon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
