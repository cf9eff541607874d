package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
// loaded from environment variables, no magic defaults for required fields.
// optional integrations are disabled when their url or key is empty.
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Auth          AuthConfig
	Redis         RedisConfig
	NATS          NATSConfig
	Kafka         KafkaConfig
	Elasticsearch ElasticsearchConfig
	AI            AIConfig
	Sources       SourcesConfig
	Trends        TrendsConfig
	LogLevel      string
}

// ServerConfig contains http server parameters.
type ServerConfig struct {
	Port           string
	AllowedOrigins []string
}

// DatabaseConfig contains database connection parameters.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
}

// DatabaseSchema holds every table; migrations and queries are written against it.
const DatabaseSchema = "creatorpulse"

// AuthConfig contains authentication configuration.
type AuthConfig struct {
	// JWTSecret is the supabase jwt secret for token validation
	JWTSecret string
}

// RedisConfig contains the leaderboard cache location.
type RedisConfig struct {
	URL string
}

// NATSConfig contains the trend event bus location.
type NATSConfig struct {
	URL     string
	Subject string
}

// KafkaConfig contains the content archive stream settings.
type KafkaConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

// ElasticsearchConfig contains the content search cluster settings.
type ElasticsearchConfig struct {
	Addresses []string
	Index     string
}

// AIConfig contains the openai-compatible api settings.
type AIConfig struct {
	APIKey             string
	BaseURL            string
	ChatModel          string
	ImageModel         string
	EmbeddingModel     string
	EmbeddingBatchSize int
	RequestsPerMinute  int
}

// SourcesConfig contains the credentials of the upstream content apis.
type SourcesConfig struct {
	TwitterBearerToken string
	YouTubeAPIKey      string
	YouTubeBaseURL     string
	FirecrawlAPIKey    string
	FirecrawlBaseURL   string
	MaxItemsPerSource  int
}

// TrendsConfig tunes the detection pipeline.
type TrendsConfig struct {
	DetectionInterval time.Duration
	FetchCacheTTL     time.Duration
	FetchConcurrency  int
}

// ConnectionString returns the postgres connection string.
func (c DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&search_path=%s",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Name,
		c.SSLMode,
		DatabaseSchema,
	)
}

// Enabled reports whether an api key was configured.
func (c AIConfig) Enabled() bool {
	return c.APIKey != ""
}

// Load reads configuration from environment variables.
// loads .env file if present, but doesn't fail if it's missing.
func Load() (*Config, error) {
	// try to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	return FromEnv()
}

// FromEnv builds the config from the current environment only.
func FromEnv() (*Config, error) {
	dbConfig, err := loadDatabaseConfig()
	if err != nil {
		return nil, fmt.Errorf("database config: %w", err)
	}

	authConfig, err := loadAuthConfig()
	if err != nil {
		return nil, fmt.Errorf("auth config: %w", err)
	}

	aiConfig, err := loadAIConfig()
	if err != nil {
		return nil, fmt.Errorf("ai config: %w", err)
	}

	sourcesConfig, err := loadSourcesConfig()
	if err != nil {
		return nil, fmt.Errorf("sources config: %w", err)
	}

	trendsConfig, err := loadTrendsConfig()
	if err != nil {
		return nil, fmt.Errorf("trends config: %w", err)
	}

	return &Config{
		Server: ServerConfig{
			Port:           getEnvOrDefault("PORT", "8080"),
			AllowedOrigins: splitList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "*")),
		},
		Database: dbConfig,
		Auth:     authConfig,
		Redis:    RedisConfig{URL: os.Getenv("REDIS_URL")},
		NATS: NATSConfig{
			URL:     os.Getenv("NATS_URL"),
			Subject: getEnvOrDefault("NATS_TRENDS_SUBJECT", "creatorpulse.trends"),
		},
		Kafka:         loadKafkaConfig(),
		Elasticsearch: loadElasticsearchConfig(),
		AI:       aiConfig,
		Sources:  sourcesConfig,
		Trends:   trendsConfig,
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
	}, nil
}

// IndexerConfig is the subset of settings the search indexer needs.
type IndexerConfig struct {
	Kafka         KafkaConfig
	Elasticsearch ElasticsearchConfig
	LogLevel      string
}

// LoadDatabase reads only the database settings, for the migrate command.
func LoadDatabase() (DatabaseConfig, error) {
	_ = godotenv.Load()

	return loadDatabaseConfig()
}

// LoadIndexer reads the settings of the search indexer.
// both kafka and elasticsearch are required here.
func LoadIndexer() (*IndexerConfig, error) {
	_ = godotenv.Load()

	cfg := &IndexerConfig{
		Kafka:         loadKafkaConfig(),
		Elasticsearch: loadElasticsearchConfig(),
		LogLevel:      getEnvOrDefault("LOG_LEVEL", "info"),
	}
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if len(cfg.Elasticsearch.Addresses) == 0 {
		return nil, errors.New("ELASTICSEARCH_ADDR is required")
	}
	return cfg, nil
}

func loadKafkaConfig() KafkaConfig {
	return KafkaConfig{
		Brokers: splitList(os.Getenv("KAFKA_BROKERS")),
		Topic:   getEnvOrDefault("KAFKA_CONTENT_TOPIC", "creatorpulse.content"),
		GroupID: getEnvOrDefault("KAFKA_GROUP_ID", "creatorpulse-indexer"),
	}
}

func loadElasticsearchConfig() ElasticsearchConfig {
	return ElasticsearchConfig{
		Addresses: splitList(os.Getenv("ELASTICSEARCH_ADDR")),
		Index:     getEnvOrDefault("ELASTICSEARCH_INDEX", "creatorpulse-content"),
	}
}

func loadAuthConfig() (AuthConfig, error) {
	config := AuthConfig{
		JWTSecret: os.Getenv("SUPABASE_JWT_SECRET"),
	}

	if config.JWTSecret == "" {
		return config, errors.New("SUPABASE_JWT_SECRET is required")
	}

	return config, nil
}

func loadDatabaseConfig() (DatabaseConfig, error) {
	config := DatabaseConfig{
		Host:     getEnvOrDefault("DB_HOST", "localhost"),
		Port:     getEnvOrDefault("DB_PORT", "5432"),
		User:     os.Getenv("DB_USER"),
		Password: os.Getenv("DB_PASSWORD"),
		Name:     os.Getenv("DB_NAME"),
		SSLMode:  getEnvOrDefault("DB_SSL_MODE", "require"),
	}

	maxConns, err := getIntOrDefault("DB_MAX_CONNS", 10)
	if err != nil {
		return config, err
	}
	if maxConns <= 0 {
		return config, errors.New("DB_MAX_CONNS must be positive")
	}
	config.MaxConns = int32(maxConns)

	// required fields must be set
	if config.User == "" {
		return config, errors.New("DB_USER is required")
	}
	if config.Password == "" {
		return config, errors.New("DB_PASSWORD is required")
	}
	if config.Name == "" {
		return config, errors.New("DB_NAME is required")
	}

	return config, nil
}

func loadAIConfig() (AIConfig, error) {
	batch, err := getIntOrDefault("EMBEDDING_BATCH_SIZE", 100)
	if err != nil {
		return AIConfig{}, err
	}
	rpm, err := getIntOrDefault("AI_REQUESTS_PER_MINUTE", 60)
	if err != nil {
		return AIConfig{}, err
	}
	if batch <= 0 {
		return AIConfig{}, errors.New("EMBEDDING_BATCH_SIZE must be positive")
	}

	return AIConfig{
		APIKey:             os.Getenv("OPENAI_API_KEY"),
		BaseURL:            os.Getenv("OPENAI_BASE_URL"),
		ChatModel:          getEnvOrDefault("OPENAI_CHAT_MODEL", "gpt-4o-mini"),
		ImageModel:         getEnvOrDefault("OPENAI_IMAGE_MODEL", "dall-e-3"),
		EmbeddingModel:     getEnvOrDefault("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
		EmbeddingBatchSize: batch,
		RequestsPerMinute:  rpm,
	}, nil
}

func loadSourcesConfig() (SourcesConfig, error) {
	maxItems, err := getIntOrDefault("MAX_ITEMS_PER_SOURCE", 20)
	if err != nil {
		return SourcesConfig{}, err
	}

	return SourcesConfig{
		TwitterBearerToken: os.Getenv("TWITTER_BEARER_TOKEN"),
		YouTubeAPIKey:      os.Getenv("YOUTUBE_API_KEY"),
		YouTubeBaseURL:     getEnvOrDefault("YOUTUBE_BASE_URL", "https://www.googleapis.com/youtube/v3"),
		FirecrawlAPIKey:    os.Getenv("FIRECRAWL_API_KEY"),
		FirecrawlBaseURL:   getEnvOrDefault("FIRECRAWL_BASE_URL", "https://api.firecrawl.dev"),
		MaxItemsPerSource:  maxItems,
	}, nil
}

func loadTrendsConfig() (TrendsConfig, error) {
	interval, err := getDurationOrDefault("TREND_DETECTION_INTERVAL", 15*time.Minute)
	if err != nil {
		return TrendsConfig{}, err
	}
	ttl, err := getDurationOrDefault("FETCH_CACHE_TTL", 10*time.Minute)
	if err != nil {
		return TrendsConfig{}, err
	}
	concurrency, err := getIntOrDefault("FETCH_CONCURRENCY", 4)
	if err != nil {
		return TrendsConfig{}, err
	}
	if concurrency <= 0 {
		return TrendsConfig{}, errors.New("FETCH_CONCURRENCY must be positive")
	}

	return TrendsConfig{
		DetectionInterval: interval,
		FetchCacheTTL:     ttl,
		FetchConcurrency:  concurrency,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return v, nil
}

func getDurationOrDefault(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return v, nil
}

// splitList splits a comma separated value, dropping blanks.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
