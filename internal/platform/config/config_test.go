package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 256, cfg.VoteQueueCapacity)
	assert.Equal(t, 100, cfg.VoteBatchSize)
	assert.Equal(t, 300*time.Millisecond, cfg.VoteBatchWindow)
	assert.Equal(t, 128, cfg.StreamBuffer)
	assert.Equal(t, 10000, cfg.MaxConnections)
	assert.Equal(t, 32, cfg.MaxConnectionsPerIP)
}

func TestLoad_CustomValues(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("VOTE_QUEUE_CAPACITY", "512")
	t.Setenv("VOTE_BATCH_SIZE", "25")
	t.Setenv("VOTE_BATCH_WINDOW", "2s")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 512, cfg.VoteQueueCapacity)
	assert.Equal(t, 25, cfg.VoteBatchSize)
	assert.Equal(t, 2*time.Second, cfg.VoteBatchWindow)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoad_RejectsNonPositiveLimits(t *testing.T) {
	tests := []struct {
		name    string
		envVar  string
		value   string
		wantErr string
	}{
		{"zero queue capacity", "VOTE_QUEUE_CAPACITY", "0", "VOTE_QUEUE_CAPACITY must be at least 1"},
		{"negative batch size", "VOTE_BATCH_SIZE", "-5", "VOTE_BATCH_SIZE must be at least 1"},
		{"zero stream buffer", "STREAM_BUFFER", "0", "STREAM_BUFFER must be at least 1"},
		{"zero max connections", "MAX_CONNECTIONS", "0", "MAX_CONNECTIONS must be at least 1"},
		{"zero per-ip connections", "MAX_CONNECTIONS_PER_IP", "0", "MAX_CONNECTIONS_PER_IP must be at least 1"},
		{"zero connect burst", "CONNECT_BURST_PER_IP", "0", "CONNECT_BURST_PER_IP must be at least 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.envVar, tt.value)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_RejectsNonPositiveWindow(t *testing.T) {
	t.Setenv("VOTE_BATCH_WINDOW", "0s")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "VOTE_BATCH_WINDOW must be positive")
}

func TestLoad_RejectsBatchLargerThanQueue(t *testing.T) {
	t.Setenv("VOTE_QUEUE_CAPACITY", "50")
	t.Setenv("VOTE_BATCH_SIZE", "100")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must not exceed VOTE_QUEUE_CAPACITY")
}

func TestLoad_RejectsNonPositiveConnectRate(t *testing.T) {
	t.Setenv("CONNECT_RATE_PER_IP", "0")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CONNECT_RATE_PER_IP must be positive")
}

func TestLoad_RejectsUnknownLogFormat(t *testing.T) {
	t.Setenv("LOG_FORMAT", "xml")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOG_FORMAT must be text or json")
}

func TestLoad_ProductionRequiresAllowedOrigins(t *testing.T) {
	t.Setenv("APP_ENV", "production")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ALLOWED_ORIGINS is required")
}

func TestLoad_ProductionWithAllowedOrigins(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("ALLOWED_ORIGINS", "https://slides.example.com")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://slides.example.com", cfg.AllowedOrigins)
}

func TestLoad_DevelopmentAllowsEmptyOrigins(t *testing.T) {
	t.Setenv("APP_ENV", "development")

	_, err := Load()
	require.NoError(t, err)
}
