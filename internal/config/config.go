package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Config is the application's total configuration.
type Config struct {
	Server      *ServerConfig      `yaml:"server" json:"server"`
	Session     *SessionConfig     `yaml:"session" json:"session"`
	Catalog     *CatalogConfig     `yaml:"catalog" json:"catalog"`
	Cache       *CacheConfig       `yaml:"cache" json:"cache"`
	Retrieval   *RetrievalConfig   `yaml:"retrieval" json:"retrieval"`
	Enrichment  *EnrichmentConfig  `yaml:"enrichment" json:"enrichment"`
	Surprise    *SurpriseConfig    `yaml:"surprise" json:"surprise"`
	Refinement  *RefinementConfig  `yaml:"refinement" json:"refinement"`
	Models      []ModelConfig      `yaml:"models" json:"models"`
	Analytics   *AnalyticsConfig   `yaml:"analytics" json:"analytics"`
}

// ServerConfig is the HTTP server configuration.
type ServerConfig struct {
	Port            int           `yaml:"port" json:"port"`
	Host            string        `yaml:"host" json:"host"`
	LogPath         string        `yaml:"log_path" json:"log_path"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout" default:"30s"`
}

// RedisConfig is the shared Redis connection shape used by every cachekv
// store (session, embedding cache, result cache, enrichment cache).
type RedisConfig struct {
	Address  string `yaml:"address" json:"address"`
	Password string `yaml:"password" json:"password"`
	DB       int    `yaml:"db" json:"db"`
}

// SessionConfig configures the Session Store (C3).
type SessionConfig struct {
	Backend string        `yaml:"backend" json:"backend"` // "memory" or "redis"
	Redis   RedisConfig   `yaml:"redis" json:"redis"`
	Prefix  string        `yaml:"prefix" json:"prefix"`
	TTL     time.Duration `yaml:"ttl" json:"ttl"` //  default 1h
}

// CatalogConfig configures the Question Catalog (C1).
type CatalogConfig struct {
	Postgres PostgresConfig `yaml:"postgres" json:"postgres"`
	Backend  string         `yaml:"backend" json:"backend"` // "postgres" or "builtin"
	WarmTTL  time.Duration  `yaml:"warm_ttl" json:"warm_ttl"`
}

// PostgresConfig is the shared Postgres connection shape used by the
// catalog store and the pgvector retrieval backend.
type PostgresConfig struct {
	DSN string `yaml:"dsn" json:"dsn"`
}

// CacheConfig configures the Embedding Cache (C5) and Result Cache (C7),
// both backed by the same cachekv.Store abstraction with different TTLs.
type CacheConfig struct {
	Backend           string        `yaml:"backend" json:"backend"`
	Redis             RedisConfig   `yaml:"redis" json:"redis"`
	EmbeddingTTL      time.Duration `yaml:"embedding_ttl" json:"embedding_ttl"`
	ResultTTL         time.Duration `yaml:"result_ttl" json:"result_ttl"`
	EnrichmentTTL     time.Duration `yaml:"enrichment_ttl" json:"enrichment_ttl"`
}

// RetrievalConfig selects and configures the Retrieval Client (C6) backend.
type RetrievalConfig struct {
	Engine        string              `yaml:"engine" json:"engine"` // "pgvector" or "elasticsearch"
	Postgres      PostgresConfig      `yaml:"postgres" json:"postgres"`
	Elasticsearch ElasticsearchConfig `yaml:"elasticsearch" json:"elasticsearch"`
	TopK          int                 `yaml:"top_k" json:"top_k"`
}

// ElasticsearchConfig selects between the v7 and v8 client via a
// dual-client registry.
type ElasticsearchConfig struct {
	Addresses  []string `yaml:"addresses" json:"addresses"`
	APIVersion string   `yaml:"api_version" json:"api_version"` // "v7" or "v8"
	Index      string   `yaml:"index" json:"index"`
}

// EnrichmentConfig configures the Enricher (C8).
type EnrichmentConfig struct {
	Concurrency int         `yaml:"concurrency" json:"concurrency"` //  bound of 8
	MinIO       MinIOConfig `yaml:"minio" json:"minio"`
}

// MinIOConfig configures the best-effort poster/backdrop asset mirror.
type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint" json:"endpoint"`
	AccessKey string `yaml:"access_key" json:"access_key"`
	SecretKey string `yaml:"secret_key" json:"secret_key"`
	Bucket    string `yaml:"bucket" json:"bucket"`
	UseSSL    bool   `yaml:"use_ssl" json:"use_ssl"`
}

// SurpriseConfig configures the Surprise Engine (C9), including its graph
// adjacency backend.
type SurpriseConfig struct {
	SerendipityFactor float64    `yaml:"serendipity_factor" json:"serendipity_factor" default:"0.10"`
	Neo4j             Neo4jConfig `yaml:"neo4j" json:"neo4j"`
}

// Neo4jConfig configures the genre-adjacency graph backend.
type Neo4jConfig struct {
	URI      string `yaml:"uri" json:"uri"`
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// RefinementConfig configures the Refinement Engine (C11).
type RefinementConfig struct {
	MinReactionsForPattern int `yaml:"min_reactions_for_pattern" json:"min_reactions_for_pattern"`
}

// ModelConfig describes one embedding or chat model collaborator, in a
// model registry shape.
type ModelConfig struct {
	Type       string                 `yaml:"type" json:"type"` // "embedding" or "chat"
	Source     string                 `yaml:"source" json:"source"` // "ollama" or "openai"
	ModelName  string                 `yaml:"model_name" json:"model_name"`
	BaseURL    string                 `yaml:"base_url" json:"base_url"`
	APIKey     string                 `yaml:"api_key" json:"api_key"`
	Parameters map[string]interface{} `yaml:"parameters" json:"parameters"`
}

// AnalyticsConfig configures the Analytics Writer (C14), including the
// asynq task queue it fires events onto and the periodic parquet export.
type AnalyticsConfig struct {
	Addr         string        `yaml:"addr" json:"addr"`
	Username     string        `yaml:"username" json:"username"`
	Password     string        `yaml:"password" json:"password"`
	ReadTimeout  time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout"`
	Concurrency  int           `yaml:"concurrency" json:"concurrency"`
	ExportEvery  time.Duration `yaml:"export_every" json:"export_every"`
	ExportDir    string        `yaml:"export_dir" json:"export_dir"`
}

// LoadConfig loads configuration from config.yaml (or config/config.yaml),
// interpolating ${ENV_VAR} references before parsing.
func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("$HOME/.moment")
	viper.AddConfigPath("/etc/moment/")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	configFileContent, err := os.ReadFile(viper.ConfigFileUsed())
	if err != nil {
		return nil, fmt.Errorf("error reading config file content: %w", err)
	}

	re := regexp.MustCompile(`\${([^}]+)}`)
	result := re.ReplaceAllStringFunc(string(configFileContent), func(match string) string {
		envVar := match[2 : len(match)-1]
		if value := os.Getenv(envVar); value != "" {
			return value
		}
		return match
	})

	if err := viper.ReadConfig(strings.NewReader(result)); err != nil {
		return nil, fmt.Errorf("error re-reading interpolated config: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "yaml"
	}); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	fmt.Printf("using configuration file: %s\n", viper.ConfigFileUsed())
	return &cfg, nil
}
