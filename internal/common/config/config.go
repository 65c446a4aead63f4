// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App       AppConfig               `mapstructure:"app"`
	Camunda   CamundaConfig           `mapstructure:"camunda"`
	Database  DatabaseConfig          `mapstructure:"database"`
	Matching  MatchingConfig          `mapstructure:"matching"`
	Reasoning ReasoningConfig         `mapstructure:"reasoning"`
	Workers   map[string]WorkerConfig `mapstructure:"workers"`
	Logging   LoggingConfig           `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses  []string `mapstructure:"addresses"`
	Username   string   `mapstructure:"username"`
	Password   string   `mapstructure:"password"`
	SSLEnabled bool     `mapstructure:"ssl_enabled"`
	URL        string   `mapstructure:"url"` // Single URL for backwards compatibility
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// MatchingConfig holds pipeline-stage caps and cache settings.
type MatchingConfig struct {
	RelevanceLimit int `mapstructure:"relevance_limit"` // candidates kept after relevance filter
	ScoringLimit   int `mapstructure:"scoring_limit"`   // candidates handed to the reasoner
	FinalLimit     int `mapstructure:"final_limit"`     // matches returned to the caller
	CacheTTL       int `mapstructure:"cache_ttl"`       // seconds; program cache in redis
}

// ReasoningConfig holds settings for the external reasoning service.
type ReasoningConfig struct {
	BaseURL             string  `mapstructure:"base_url"`
	APIKey              string  `mapstructure:"api_key"`
	Model               string  `mapstructure:"model"`
	CorpusIndex         string  `mapstructure:"corpus_index"`
	Timeout             int     `mapstructure:"timeout"`               // milliseconds, per call
	MaxRetries          int     `mapstructure:"max_retries"`
	BatchSize           int     `mapstructure:"batch_size"`            // tier-2 batch size
	BatchDelay          int     `mapstructure:"batch_delay"`           // milliseconds between tier-2 batches
	ConfidenceThreshold float64 `mapstructure:"confidence_threshold"`  // judgments at or below fall back to rules
	ReadyTimeout        int     `mapstructure:"ready_timeout"`         // seconds; corpus readiness wait
	ReadyPollInterval   int     `mapstructure:"ready_poll_interval"`   // seconds
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
