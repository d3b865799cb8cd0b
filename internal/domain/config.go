package domain

import (
	"time"
)

// Config represents the main application configuration
type Config struct {
	Environment string            `mapstructure:"environment"`
	Server      ServerConfig      `mapstructure:"server"`
	Interpreter InterpreterConfig `mapstructure:"interpreter"`
	CBioPortal  CBioPortalConfig  `mapstructure:"cbioportal"`
	Catalog     CatalogConfig     `mapstructure:"catalog"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Query       QueryConfig       `mapstructure:"query"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	MCP         MCPConfig         `mapstructure:"mcp"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	RateLimit       float64       `mapstructure:"rate_limit"`
	RateBurst       int           `mapstructure:"rate_burst"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

// Interpreter provider names.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"
	ProviderGroq      = "groq"
	ProviderOllama    = "ollama"
	ProviderNone      = "none"
)

// InterpreterConfig selects and configures the interpreter backend
type InterpreterConfig struct {
	Provider       string               `mapstructure:"provider"`
	Model          string               `mapstructure:"model"`
	Timeout        time.Duration        `mapstructure:"timeout"`
	RateLimit      int                  `mapstructure:"rate_limit"`
	Anthropic      ProviderConfig       `mapstructure:"anthropic"`
	OpenAI         ProviderConfig       `mapstructure:"openai"`
	Gemini         ProviderConfig       `mapstructure:"gemini"`
	Groq           ProviderConfig       `mapstructure:"groq"`
	Ollama         ProviderConfig       `mapstructure:"ollama"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
}

// ProviderConfig holds the endpoint and credential of one provider
type ProviderConfig struct {
	APIKey    string `mapstructure:"api_key"`
	BaseURL   string `mapstructure:"base_url"`
	Model     string `mapstructure:"model"`
	MaxTokens int    `mapstructure:"max_tokens"`
}

// CircuitBreakerConfig configures gobreaker settings
type CircuitBreakerConfig struct {
	MaxRequests  uint32        `mapstructure:"max_requests"`
	Interval     time.Duration `mapstructure:"interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxFailures  uint32        `mapstructure:"max_failures"`
	FailureRatio float64       `mapstructure:"failure_ratio"`
}

// CBioPortalConfig represents cBioPortal API configuration
type CBioPortalConfig struct {
	BaseURL        string               `mapstructure:"base_url"`
	Timeout        time.Duration        `mapstructure:"timeout"`
	StatusTimeout  time.Duration        `mapstructure:"status_timeout"`
	RateLimit      int                  `mapstructure:"rate_limit"`
	DefaultStudy   string               `mapstructure:"default_study"`
	UserAgent      string               `mapstructure:"user_agent"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
}

// Catalog snapshot store kinds.
const (
	StoreFile     = "file"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreNone     = "none"
)

// CatalogConfig configures the gene catalog and its snapshot store
type CatalogConfig struct {
	Store          string `mapstructure:"store"`
	SnapshotPath   string `mapstructure:"snapshot_path"`
	SQLitePath     string `mapstructure:"sqlite_path"`
	MaxGenes       int    `mapstructure:"max_genes"`
	RefreshOnStart bool   `mapstructure:"refresh_on_start"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Database        string        `mapstructure:"database"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsPath  string        `mapstructure:"migrations_path"`
}

// CacheConfig represents cache configuration
type CacheConfig struct {
	RedisURL    string        `mapstructure:"redis_url"`
	DefaultTTL  time.Duration `mapstructure:"default_ttl"`
	MaxItems    int           `mapstructure:"max_items"`
	MaxRetries  int           `mapstructure:"max_retries"`
	PoolSize    int           `mapstructure:"pool_size"`
	PoolTimeout time.Duration `mapstructure:"pool_timeout"`
}

// QueryConfig bounds query resolution
type QueryConfig struct {
	DisplayLimit      int           `mapstructure:"display_limit"`
	InterpretTimeout  time.Duration `mapstructure:"interpret_timeout"`
	FetchTimeout      time.Duration `mapstructure:"fetch_timeout"`
	MinConfidence     float64       `mapstructure:"min_confidence"`
	EnforceConfidence bool          `mapstructure:"enforce_confidence"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"`
	Filename string `mapstructure:"filename"`
}

// MCPConfig represents MCP server configuration
type MCPConfig struct {
	ServerName    string `mapstructure:"server_name"`
	ServerVersion string `mapstructure:"server_version"`
}
