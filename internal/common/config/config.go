// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig          `mapstructure:"app"`
	HTTP          HTTPConfig         `mapstructure:"http"`
	Database      DatabaseConfig     `mapstructure:"database"`
	ServiceNow    ServiceNowConfig   `mapstructure:"servicenow"`
	Knowledge     KnowledgeConfig    `mapstructure:"knowledge"`
	Dialogue      DialogueConfig     `mapstructure:"dialogue"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Logging       LoggingConfig      `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type HTTPConfig struct {
	ListenAddress string `mapstructure:"listen_address"`
	MetricsPath   string `mapstructure:"metrics_path"`
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

// GetDSN returns the PostgreSQL connection string.
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// --- Workflow Integrations ---

// ServiceNowConfig covers the ticketing Table API.
type ServiceNowConfig struct {
	InstanceURL string `mapstructure:"instance_url"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	TimeoutMS   int    `mapstructure:"timeout_ms"`
}

// KnowledgeConfig covers KB retrieval and answer generation.
type KnowledgeConfig struct {
	Index     string    `mapstructure:"index"`
	TopK      int       `mapstructure:"top_k"`
	LLM       LLMConfig `mapstructure:"llm"`
	TimeoutMS int       `mapstructure:"timeout_ms"`
}

// LLMConfig points at an OpenAI-compatible chat completions endpoint.
type LLMConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
}

// DialogueConfig holds engine and orchestration tunables.
type DialogueConfig struct {
	StateTTLSeconds    int     `mapstructure:"state_ttl_seconds"`
	DedupWindowSeconds int     `mapstructure:"dedup_window_seconds"`
	MinConfidence      float64 `mapstructure:"min_confidence"`
}

// NotificationConfig covers the SES/SNS side channels.
type NotificationConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	AWSRegion   string `mapstructure:"aws_region"`
	FromAddress string `mapstructure:"from_address"`
	DeskAddress string `mapstructure:"desk_address"`
	PageTopic   string `mapstructure:"page_topic_arn"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
