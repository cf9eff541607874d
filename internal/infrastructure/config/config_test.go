package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("DB_USER", "creator")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "creatorpulse")
	t.Setenv("SUPABASE_JWT_SECRET", "jwt-secret")
}

func TestFromEnv_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, int32(10), cfg.Database.MaxConns)
	assert.Equal(t, 100, cfg.AI.EmbeddingBatchSize)
	assert.Equal(t, 15*time.Minute, cfg.Trends.DetectionInterval)
	assert.Equal(t, 10*time.Minute, cfg.Trends.FetchCacheTTL)
	assert.Equal(t, 4, cfg.Trends.FetchConcurrency)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.False(t, cfg.AI.Enabled())
}

func TestFromEnv_MissingRequired(t *testing.T) {
	tests := []struct {
		name    string
		unset   string
		message string
	}{
		{"db_user", "DB_USER", "DB_USER is required"},
		{"db_password", "DB_PASSWORD", "DB_PASSWORD is required"},
		{"db_name", "DB_NAME", "DB_NAME is required"},
		{"jwt_secret", "SUPABASE_JWT_SECRET", "SUPABASE_JWT_SECRET is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tt.unset, "")

			_, err := FromEnv()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("TREND_DETECTION_INTERVAL", "5m")
	t.Setenv("EMBEDDING_BATCH_SIZE", "25")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 5*time.Minute, cfg.Trends.DetectionInterval)
	assert.Equal(t, 25, cfg.AI.EmbeddingBatchSize)
	assert.True(t, cfg.AI.Enabled())
}

func TestFromEnv_InvalidNumbers(t *testing.T) {
	setRequired(t)
	t.Setenv("FETCH_CONCURRENCY", "many")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FETCH_CONCURRENCY")
}

func TestConnectionString(t *testing.T) {
	c := DatabaseConfig{
		Host: "db", Port: "5432", User: "u", Password: "p",
		Name: "n", SSLMode: "disable",
	}

	assert.Equal(t, "postgres://u:p@db:5432/n?sslmode=disable&search_path=creatorpulse", c.ConnectionString())
}

func TestLoadIndexer(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("ELASTICSEARCH_ADDR", "http://es:9200")
	_, err := LoadIndexer()
	assert.ErrorContains(t, err, "KAFKA_BROKERS")

	t.Setenv("KAFKA_BROKERS", "kafka:9092")
	cfg, err := LoadIndexer()
	require.NoError(t, err)
	assert.Equal(t, []string{"kafka:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "creatorpulse-indexer", cfg.Kafka.GroupID)
	assert.Equal(t, []string{"http://es:9200"}, cfg.Elasticsearch.Addresses)

	t.Setenv("ELASTICSEARCH_ADDR", "")
	_, err = LoadIndexer()
	assert.ErrorContains(t, err, "ELASTICSEARCH_ADDR")
}

func TestLoadDatabase_IgnoresOtherSettings(t *testing.T) {
	t.Setenv("DB_USER", "creator")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "creatorpulse")
	t.Setenv("SUPABASE_JWT_SECRET", "")

	cfg, err := LoadDatabase()

	require.NoError(t, err)
	assert.Equal(t, "creatorpulse", cfg.Name)
}
