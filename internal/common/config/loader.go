// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
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

	// Enable ENV override like DATABASE_REDIS_ADDRESS
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

	// Environment overlay, e.g. config.production.yaml
	viper.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = viper.MergeInConfig() // ignore error if not found

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile tries .env from the locations we get launched from
// (repo root, cmd/botserver, package test dirs).
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}
	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "itbot"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}
	if cfg.HTTP.ListenAddress == "" {
		cfg.HTTP.ListenAddress = ":8080"
	}
	if cfg.HTTP.MetricsPath == "" {
		cfg.HTTP.MetricsPath = "/metrics"
	}
	if cfg.Database.Redis.Address == "" {
		cfg.Database.Redis.Address = "localhost:6379"
	}
	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 10
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if len(cfg.Database.Elasticsearch.Addresses) == 0 {
		cfg.Database.Elasticsearch.Addresses = []string{"http://localhost:9200"}
	}
	if cfg.ServiceNow.TimeoutMS == 0 {
		cfg.ServiceNow.TimeoutMS = 15000
	}
	if cfg.Knowledge.Index == "" {
		cfg.Knowledge.Index = "kb_articles"
	}
	if cfg.Knowledge.TopK == 0 {
		cfg.Knowledge.TopK = 3
	}
	if cfg.Knowledge.TimeoutMS == 0 {
		cfg.Knowledge.TimeoutMS = 15000
	}
	if cfg.Knowledge.LLM.Model == "" {
		cfg.Knowledge.LLM.Model = "gpt-4o-mini"
	}
	if cfg.Dialogue.StateTTLSeconds == 0 {
		cfg.Dialogue.StateTTLSeconds = 900
	}
	if cfg.Dialogue.DedupWindowSeconds == 0 {
		cfg.Dialogue.DedupWindowSeconds = 900
	}
	if cfg.Dialogue.MinConfidence == 0 {
		cfg.Dialogue.MinConfidence = 0.35
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	// Secrets come from the environment, never from config files.
	if v := os.Getenv("SERVICENOW_PASSWORD"); v != "" {
		cfg.ServiceNow.Password = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.Knowledge.LLM.APIKey = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Database.Redis.Password = v
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Dialogue.StateTTLSeconds < 0 {
		return fmt.Errorf("dialogue.state_ttl_seconds must be >= 0")
	}
	if cfg.Dialogue.MinConfidence < 0 || cfg.Dialogue.MinConfidence > 1 {
		return fmt.Errorf("dialogue.min_confidence must be within [0,1]")
	}
	if cfg.ServiceNow.InstanceURL == "" && cfg.App.Environment == "production" {
		return fmt.Errorf("servicenow.instance_url is required in production")
	}
	return nil
}
