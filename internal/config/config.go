package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/cbioportal-query-assistant/internal/domain"
)

// Manager implements the ConfigManager interface using Viper
type Manager struct {
	v          *viper.Viper
	config     *domain.Config
	configFile string
	envFiles   []string
}

// Option configures a Manager
type Option func(*Manager)

// WithConfigFile reads configuration from an explicit file instead of searching.
func WithConfigFile(path string) Option {
	return func(m *Manager) {
		m.configFile = path
	}
}

// WithEnvFiles replaces the list of .env files loaded before reading the environment.
func WithEnvFiles(paths ...string) Option {
	return func(m *Manager) {
		m.envFiles = paths
	}
}

// legacyEnv maps config keys to the environment names used by earlier
// deployments of the assistant.
var legacyEnv = map[string]string{
	"interpreter.provider":          "LLM_PROVIDER",
	"interpreter.model":             "LLM_MODEL",
	"interpreter.anthropic.api_key": "ANTHROPIC_API_KEY",
	"interpreter.openai.api_key":    "OPENAI_API_KEY",
	"interpreter.gemini.api_key":    "GEMINI_API_KEY",
	"interpreter.groq.api_key":      "GROQ_API_KEY",
	"interpreter.ollama.base_url":   "OLLAMA_BASE_URL",
	"cbioportal.base_url":           "CBIOPORTAL_API_URL",
	"cache.redis_url":               "REDIS_URL",
	"database.url":                  "DATABASE_URL",
}

const envPrefix = "CBIO_QUERY"

// NewManager creates a new configuration manager
func NewManager(opts ...Option) (*Manager, error) {
	m := &Manager{
		envFiles: []string{".env", "config/.env"},
	}
	for _, opt := range opts {
		opt(m)
	}
	if err := m.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return m, nil
}

// loadEnvFiles populates the process environment from .env files.
// Variables already set are left untouched.
func (m *Manager) loadEnvFiles() {
	for _, path := range m.envFiles {
		_ = godotenv.Load(path)
	}
}

// loadConfig loads configuration from various sources
func (m *Manager) loadConfig() error {
	m.loadEnvFiles()

	v := viper.New()
	if m.configFile != "" {
		v.SetConfigFile(m.configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("$HOME/.cbio-query")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, legacy := range legacyEnv {
		prefixed := envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return fmt.Errorf("binding %s: %w", key, err)
		}
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || m.configFile != "" {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &domain.Config{}
	if err := v.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	m.v = v
	m.config = config
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.rate_limit", 10.0)
	v.SetDefault("server.rate_burst", 20)
	v.SetDefault("server.allowed_origins", []string{"*"})

	// Interpreter defaults
	v.SetDefault("interpreter.provider", domain.ProviderAnthropic)
	v.SetDefault("interpreter.model", "")
	v.SetDefault("interpreter.timeout", "30s")
	v.SetDefault("interpreter.rate_limit", 5)
	v.SetDefault("interpreter.anthropic.base_url", "https://api.anthropic.com")
	v.SetDefault("interpreter.anthropic.model", "claude-3-5-sonnet-20241022")
	v.SetDefault("interpreter.anthropic.max_tokens", 1024)
	v.SetDefault("interpreter.openai.base_url", "https://api.openai.com")
	v.SetDefault("interpreter.openai.model", "gpt-4o-mini")
	v.SetDefault("interpreter.openai.max_tokens", 1024)
	v.SetDefault("interpreter.gemini.base_url", "https://generativelanguage.googleapis.com")
	v.SetDefault("interpreter.gemini.model", "gemini-1.5-flash")
	v.SetDefault("interpreter.groq.base_url", "https://api.groq.com/openai")
	v.SetDefault("interpreter.groq.model", "llama-3.1-8b-instant")
	v.SetDefault("interpreter.groq.max_tokens", 500)
	v.SetDefault("interpreter.ollama.base_url", "http://localhost:11434")
	v.SetDefault("interpreter.ollama.model", "llama3.1:8b")
	v.SetDefault("interpreter.circuit_breaker.max_requests", 1)
	v.SetDefault("interpreter.circuit_breaker.interval", "60s")
	v.SetDefault("interpreter.circuit_breaker.timeout", "30s")
	v.SetDefault("interpreter.circuit_breaker.max_failures", 3)

	// cBioPortal defaults
	v.SetDefault("cbioportal.base_url", "https://www.cbioportal.org/api")
	v.SetDefault("cbioportal.timeout", "30s")
	v.SetDefault("cbioportal.status_timeout", "5s")
	v.SetDefault("cbioportal.rate_limit", 10)
	v.SetDefault("cbioportal.default_study", "msk_impact_2017")
	v.SetDefault("cbioportal.user_agent", "cbioportal-query-assistant/1.0")
	v.SetDefault("cbioportal.circuit_breaker.max_requests", 3)
	v.SetDefault("cbioportal.circuit_breaker.interval", "60s")
	v.SetDefault("cbioportal.circuit_breaker.timeout", "30s")
	v.SetDefault("cbioportal.circuit_breaker.failure_ratio", 0.6)

	// Catalog defaults
	v.SetDefault("catalog.store", domain.StoreFile)
	v.SetDefault("catalog.snapshot_path", "data/known_genes.json")
	v.SetDefault("catalog.sqlite_path", "data/catalog.db")
	v.SetDefault("catalog.max_genes", 5000)
	v.SetDefault("catalog.refresh_on_start", false)

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.database", "cbio_query")
	v.SetDefault("database.username", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.migrations_path", "migrations")

	// Cache defaults
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.default_ttl", "1h")
	v.SetDefault("cache.max_items", 1000)
	v.SetDefault("cache.max_retries", 3)
	v.SetDefault("cache.pool_size", 10)
	v.SetDefault("cache.pool_timeout", "4s")

	// Query defaults
	v.SetDefault("query.display_limit", 30)
	v.SetDefault("query.interpret_timeout", "30s")
	v.SetDefault("query.fetch_timeout", "30s")
	v.SetDefault("query.min_confidence", 5.0)
	v.SetDefault("query.enforce_confidence", false)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")

	// MCP defaults
	v.SetDefault("mcp.server_name", "cbioportal-query-assistant")
	v.SetDefault("mcp.server_version", "1.0.0")
}

// GetConfig returns the complete configuration
func (m *Manager) GetConfig() *domain.Config {
	return m.config
}

// GetServerConfig returns server configuration
func (m *Manager) GetServerConfig() *domain.ServerConfig {
	return &m.config.Server
}

// GetInterpreterConfig returns interpreter configuration
func (m *Manager) GetInterpreterConfig() *domain.InterpreterConfig {
	return &m.config.Interpreter
}

// Reload reloads the configuration
func (m *Manager) Reload() error {
	return m.loadConfig()
}

var validProviders = map[string]bool{
	domain.ProviderAnthropic: true,
	domain.ProviderOpenAI:    true,
	domain.ProviderGemini:    true,
	domain.ProviderGroq:      true,
	domain.ProviderOllama:    true,
	domain.ProviderNone:      true,
}

var validStores = map[string]bool{
	domain.StoreFile:     true,
	domain.StoreSQLite:   true,
	domain.StorePostgres: true,
	domain.StoreNone:     true,
}

// Validate validates the configuration
func (m *Manager) Validate() error {
	return Validate(m.config)
}

// Validate checks a configuration for values the services cannot run with.
func Validate(config *domain.Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	provider := strings.ToLower(config.Interpreter.Provider)
	if !validProviders[provider] {
		return fmt.Errorf("unknown interpreter provider: %s", config.Interpreter.Provider)
	}
	if config.Interpreter.Timeout <= 0 {
		return fmt.Errorf("interpreter timeout must be positive")
	}

	if config.CBioPortal.BaseURL == "" {
		return fmt.Errorf("cBioPortal base URL is required")
	}
	if config.CBioPortal.Timeout <= 0 {
		return fmt.Errorf("cBioPortal timeout must be positive")
	}
	if config.CBioPortal.DefaultStudy == "" {
		return fmt.Errorf("default study is required")
	}

	store := strings.ToLower(config.Catalog.Store)
	if !validStores[store] {
		return fmt.Errorf("unknown catalog store: %s", config.Catalog.Store)
	}
	if config.Catalog.MaxGenes <= 0 {
		return fmt.Errorf("catalog max_genes must be positive")
	}
	if store == domain.StorePostgres && config.Database.URL == "" && config.Database.Host == "" {
		return fmt.Errorf("postgres catalog store requires a database URL or host")
	}

	if config.Query.DisplayLimit <= 0 {
		return fmt.Errorf("query display_limit must be positive")
	}
	if config.Query.InterpretTimeout <= 0 || config.Query.FetchTimeout <= 0 {
		return fmt.Errorf("query timeouts must be positive")
	}
	if config.Query.MinConfidence < domain.MinConfidence || config.Query.MinConfidence > domain.MaxConfidence {
		return fmt.Errorf("query min_confidence must be within [0,10]: %v", config.Query.MinConfidence)
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}

	return nil
}

// GetDatabaseConnectionString returns a postgres connection URL
func (m *Manager) GetDatabaseConnectionString() string {
	db := m.config.Database
	if db.URL != "" {
		return db.URL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		db.Username, db.Password, db.Host, db.Port, db.Database, db.SSLMode)
}

// GetRedisConnectionString returns the Redis connection string
func (m *Manager) GetRedisConnectionString() string {
	return m.config.Cache.RedisURL
}

// IsProduction returns true if running in production mode
func (m *Manager) IsProduction() bool {
	return strings.ToLower(m.config.Environment) == "production"
}

// IsDevelopment returns true if running in development mode
func (m *Manager) IsDevelopment() bool {
	env := strings.ToLower(m.config.Environment)
	return env == "development" || env == "dev" || env == ""
}
