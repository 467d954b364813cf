// Package config loads and validates application configuration from YAML (or
// TOML) files with environment-variable overrides. It provides typed structs
// for every subsystem (Server, Postgres, SQLite, Kafka, Redis, Engine, etc.).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	SQLite    SQLiteConfig    `yaml:"sqlite"`
	Corpus    CorpusConfig    `yaml:"corpus"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Redis     RedisConfig     `yaml:"redis"`
	Engine    EngineConfig    `yaml:"engine"`
	RateLimit RateLimitConfig `yaml:"rateLimit"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	MaxBodyBytes    int64         `yaml:"maxBodyBytes"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// SQLiteConfig points at the file-backed corpus used by the CLI.
type SQLiteConfig struct {
	Path        string        `yaml:"path"`
	LockTimeout time.Duration `yaml:"lockTimeout"`
}

// CorpusConfig selects where reference documents are persisted.
type CorpusConfig struct {
	// Driver is "postgres", "sqlite" or "memory".
	Driver       string        `yaml:"driver"`
	LoadAttempts int           `yaml:"loadAttempts"`
	LoadTimeout  time.Duration `yaml:"loadTimeout"`
}

// KafkaConfig holds Kafka broker and topic settings.
type KafkaConfig struct {
	Enabled       bool        `yaml:"enabled"`
	Brokers       []string    `yaml:"brokers"`
	ConsumerGroup string      `yaml:"consumerGroup"`
	Topics        KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	ReferenceDocuments string `yaml:"referenceDocuments"`
	AnalysisEvents     string `yaml:"analysisEvents"`
}

// RedisConfig holds Redis connection and caching parameters.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// WeightsConfig are the combined-score weights. They must sum to 1.
type WeightsConfig struct {
	Jaccard float64 `yaml:"jaccard"`
	Cosine  float64 `yaml:"cosine"`
}

// EngineConfig carries the similarity engine defaults. Values are validated
// when a query runs, not here, so a bad file fails the first request loudly
// instead of being clamped.
type EngineConfig struct {
	NGramSize           int           `yaml:"nGramSize"`
	MinSegmentLength    int           `yaml:"minSegmentLength"`
	Weights             WeightsConfig `yaml:"weights"`
	SimilarityThreshold float64       `yaml:"similarityThreshold"`
	TemplateThreshold   float64       `yaml:"templateThreshold"`
	MaxSegmentsPerMatch int           `yaml:"maxSegmentsPerMatch"`
	MaxSegmentChars     int           `yaml:"maxSegmentChars"`
	MaxRankedMatches    int           `yaml:"maxRankedMatches"`
	Workers             int           `yaml:"workers"`
	QueryTimeout        time.Duration `yaml:"queryTimeout"`
}

// RateLimitConfig controls the per-client token bucket.
type RateLimitConfig struct {
	Enabled           bool    `yaml:"enabled"`
	RequestsPerSecond float64 `yaml:"requestsPerSecond"`
	Burst             int     `yaml:"burst"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML or TOML config file (if provided) and applies
// environment-variable overrides. Missing values keep their defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := decode(path, data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

// decode unmarshals YAML directly. TOML is decoded into a generic tree and
// re-encoded as YAML so both formats share one set of keys and yaml.v3's
// duration parsing ("30s").
func decode(path string, data []byte, cfg *Config) error {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		var tree map[string]any
		if err := toml.Unmarshal(data, &tree); err != nil {
			return fmt.Errorf("decoding toml: %w", err)
		}
		converted, err := yaml.Marshal(tree)
		if err != nil {
			return fmt.Errorf("converting toml: %w", err)
		}
		data = converted
	}
	return yaml.Unmarshal(data, cfg)
}

// Default returns a Config with defaults suitable for local development.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			MaxBodyBytes:    4 << 20,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "similarity",
			User:            "similarity",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		SQLite: SQLiteConfig{
			Path:        "corpus.db",
			LockTimeout: 10 * time.Second,
		},
		Corpus: CorpusConfig{
			Driver:       "postgres",
			LoadAttempts: 5,
			LoadTimeout:  time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "similarity-engine",
			Topics: KafkaTopics{
				ReferenceDocuments: "reference-documents",
				AnalysisEvents:     "analysis-events",
			},
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
			CacheTTL: 5 * time.Minute,
		},
		Engine: EngineConfig{
			NGramSize:           3,
			MinSegmentLength:    10,
			Weights:             WeightsConfig{Jaccard: 0.6, Cosine: 0.4},
			SimilarityThreshold: 0.70,
			TemplateThreshold:   0.85,
			MaxSegmentsPerMatch: 3,
			MaxSegmentChars:     200,
			MaxRankedMatches:    10,
			Workers:             runtime.NumCPU(),
			QueryTimeout:        10 * time.Second,
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerSecond: 20,
			Burst:             40,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

// applyEnvOverrides reads DSE_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	setInt("DSE_SERVER_PORT", &cfg.Server.Port)
	setString("DSE_POSTGRES_HOST", &cfg.Postgres.Host)
	setInt("DSE_POSTGRES_PORT", &cfg.Postgres.Port)
	setString("DSE_POSTGRES_DATABASE", &cfg.Postgres.Database)
	setString("DSE_POSTGRES_USER", &cfg.Postgres.User)
	setString("DSE_POSTGRES_PASSWORD", &cfg.Postgres.Password)
	setString("DSE_POSTGRES_SSLMODE", &cfg.Postgres.SSLMode)
	setString("DSE_SQLITE_PATH", &cfg.SQLite.Path)
	setString("DSE_CORPUS_DRIVER", &cfg.Corpus.Driver)
	setBool("DSE_KAFKA_ENABLED", &cfg.Kafka.Enabled)
	if v := os.Getenv("DSE_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	setBool("DSE_REDIS_ENABLED", &cfg.Redis.Enabled)
	setString("DSE_REDIS_ADDR", &cfg.Redis.Addr)
	setString("DSE_REDIS_PASSWORD", &cfg.Redis.Password)
	setInt("DSE_ENGINE_NGRAM_SIZE", &cfg.Engine.NGramSize)
	setInt("DSE_ENGINE_MIN_SEGMENT_LENGTH", &cfg.Engine.MinSegmentLength)
	setFloat("DSE_ENGINE_SIMILARITY_THRESHOLD", &cfg.Engine.SimilarityThreshold)
	setFloat("DSE_ENGINE_TEMPLATE_THRESHOLD", &cfg.Engine.TemplateThreshold)
	setInt("DSE_ENGINE_WORKERS", &cfg.Engine.Workers)
	setString("DSE_LOGGING_LEVEL", &cfg.Logging.Level)
	setString("DSE_LOGGING_FORMAT", &cfg.Logging.Format)
	setBool("DSE_METRICS_ENABLED", &cfg.Metrics.Enabled)
	setInt("DSE_METRICS_PORT", &cfg.Metrics.Port)
}

func setString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat(key string, dst *float64) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(key string, dst *bool) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
