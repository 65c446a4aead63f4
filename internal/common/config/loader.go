// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	// Base config
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like DATABASE_POSTGRES_HOST
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment-specific overlay, e.g. config.production.yaml
	viper.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = viper.MergeInConfig() // ignore error if not found

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if cfg.Database.Elasticsearch.URL == "" && len(cfg.Database.Elasticsearch.Addresses) > 0 {
		cfg.Database.Elasticsearch.URL = cfg.Database.Elasticsearch.Addresses[0]
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile tries .env in the working directory and at the project root.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up directories looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// expandEnvVars resolves ${VAR} placeholders in string config values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		val := v.Get(key)

		if strVal, ok := val.(string); ok {
			if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
				expanded := os.ExpandEnv(strVal)
				if expanded != strVal && expanded != "" {
					v.Set(key, expanded)
				}
			}
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "govmatch"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}
	if cfg.Camunda.BrokerAddress == "" {
		cfg.Camunda.BrokerAddress = "localhost:26500"
	}
	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 20
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Redis.Address == "" {
		cfg.Database.Redis.Address = "localhost:6379"
	}
	if len(cfg.Database.Elasticsearch.Addresses) == 0 && cfg.Database.Elasticsearch.URL == "" {
		cfg.Database.Elasticsearch.Addresses = []string{"http://localhost:9200"}
	}
	if cfg.Matching.RelevanceLimit == 0 {
		cfg.Matching.RelevanceLimit = 50
	}
	if cfg.Matching.ScoringLimit == 0 {
		cfg.Matching.ScoringLimit = 20
	}
	if cfg.Matching.FinalLimit == 0 {
		cfg.Matching.FinalLimit = 10
	}
	if cfg.Matching.CacheTTL == 0 {
		cfg.Matching.CacheTTL = 600
	}
	if cfg.Reasoning.Timeout == 0 {
		cfg.Reasoning.Timeout = 30000
	}
	if cfg.Reasoning.MaxRetries == 0 {
		cfg.Reasoning.MaxRetries = 2
	}
	if cfg.Reasoning.BatchSize == 0 {
		cfg.Reasoning.BatchSize = 5
	}
	if cfg.Reasoning.BatchDelay == 0 {
		cfg.Reasoning.BatchDelay = 200
	}
	if cfg.Reasoning.ConfidenceThreshold == 0 {
		cfg.Reasoning.ConfidenceThreshold = 0.5
	}
	if cfg.Reasoning.CorpusIndex == "" {
		cfg.Reasoning.CorpusIndex = "support-programs"
	}
	if cfg.Reasoning.ReadyTimeout == 0 {
		cfg.Reasoning.ReadyTimeout = 120
	}
	if cfg.Reasoning.ReadyPollInterval == 0 {
		cfg.Reasoning.ReadyPollInterval = 3
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Database.Postgres.Host == "" {
		return fmt.Errorf("database.postgres.host is required")
	}
	if cfg.Database.Postgres.Database == "" {
		return fmt.Errorf("database.postgres.database is required")
	}
	if cfg.Matching.FinalLimit > cfg.Matching.ScoringLimit {
		return fmt.Errorf("matching.final_limit cannot exceed matching.scoring_limit")
	}
	if cfg.Reasoning.ConfidenceThreshold < 0 || cfg.Reasoning.ConfidenceThreshold > 1 {
		return fmt.Errorf("reasoning.confidence_threshold must be within [0,1]")
	}
	return nil
}
