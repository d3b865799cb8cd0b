package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbioportal-query-assistant/internal/domain"
)

func TestNewManager_Defaults(t *testing.T) {
	m, err := NewManager(WithEnvFiles())
	require.NoError(t, err)

	cfg := m.GetConfig()
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, domain.ProviderAnthropic, cfg.Interpreter.Provider)
	assert.Equal(t, "claude-3-5-sonnet-20241022", cfg.Interpreter.Anthropic.Model)
	assert.Equal(t, "llama3.1:8b", cfg.Interpreter.Ollama.Model)
	assert.Equal(t, "http://localhost:11434", cfg.Interpreter.Ollama.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Interpreter.Timeout)
	assert.Equal(t, "https://www.cbioportal.org/api", cfg.CBioPortal.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.CBioPortal.StatusTimeout)
	assert.Equal(t, "msk_impact_2017", cfg.CBioPortal.DefaultStudy)
	assert.Equal(t, 5000, cfg.Catalog.MaxGenes)
	assert.Equal(t, domain.StoreFile, cfg.Catalog.Store)
	assert.Equal(t, 30, cfg.Query.DisplayLimit)
	assert.Equal(t, 5.0, cfg.Query.MinConfidence)
	assert.False(t, cfg.Query.EnforceConfidence)

	assert.NoError(t, m.Validate())
	assert.True(t, m.IsDevelopment())
	assert.False(t, m.IsProduction())
}

func TestNewManager_LegacyEnvironment(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "ollama")
	t.Setenv("LLM_MODEL", "mistral")
	t.Setenv("OLLAMA_BASE_URL", "http://gpu-box:11434")
	t.Setenv("GROQ_API_KEY", "gsk-test")
	t.Setenv("CBIOPORTAL_API_URL", "http://portal.local/api")

	m, err := NewManager(WithEnvFiles())
	require.NoError(t, err)

	cfg := m.GetInterpreterConfig()
	assert.Equal(t, "ollama", cfg.Provider)
	assert.Equal(t, "mistral", cfg.Model)
	assert.Equal(t, "http://gpu-box:11434", cfg.Ollama.BaseURL)
	assert.Equal(t, "gsk-test", cfg.Groq.APIKey)
	assert.Equal(t, "http://portal.local/api", m.GetConfig().CBioPortal.BaseURL)
}

func TestNewManager_PrefixedEnvironmentWins(t *testing.T) {
	t.Setenv("CBIO_QUERY_INTERPRETER_PROVIDER", "gemini")
	t.Setenv("CBIO_QUERY_QUERY_DISPLAY_LIMIT", "10")

	m, err := NewManager(WithEnvFiles())
	require.NoError(t, err)

	assert.Equal(t, "gemini", m.GetConfig().Interpreter.Provider)
	assert.Equal(t, 10, m.GetConfig().Query.DisplayLimit)
}

func TestNewManager_EnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("OPENAI_API_KEY=sk-from-dotenv\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("OPENAI_API_KEY") })

	m, err := NewManager(WithEnvFiles(envFile))
	require.NoError(t, err)

	assert.Equal(t, "sk-from-dotenv", m.GetConfig().Interpreter.OpenAI.APIKey)
}

func TestNewManager_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
environment: production
server:
  port: 9090
catalog:
  store: sqlite
  sqlite_path: /tmp/catalog.db
query:
  fetch_timeout: 5s
  enforce_confidence: true
  min_confidence: 6.5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	m, err := NewManager(WithConfigFile(path), WithEnvFiles())
	require.NoError(t, err)

	cfg := m.GetConfig()
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, domain.StoreSQLite, cfg.Catalog.Store)
	assert.Equal(t, 5*time.Second, cfg.Query.FetchTimeout)
	assert.True(t, cfg.Query.EnforceConfidence)
	assert.Equal(t, 6.5, cfg.Query.MinConfidence)
	assert.True(t, m.IsProduction())
	assert.NoError(t, m.Validate())
}

func TestNewManager_MissingExplicitFile(t *testing.T) {
	_, err := NewManager(WithConfigFile(filepath.Join(t.TempDir(), "absent.yaml")), WithEnvFiles())
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*domain.Config)
		wantErr string
	}{
		{"valid defaults", func(*domain.Config) {}, ""},
		{"bad port", func(c *domain.Config) { c.Server.Port = 70000 }, "invalid server port"},
		{"unknown provider", func(c *domain.Config) { c.Interpreter.Provider = "llamafile" }, "unknown interpreter provider"},
		{"unknown store", func(c *domain.Config) { c.Catalog.Store = "mongo" }, "unknown catalog store"},
		{"postgres without database", func(c *domain.Config) {
			c.Catalog.Store = domain.StorePostgres
			c.Database.URL = ""
			c.Database.Host = ""
		}, "postgres catalog store"},
		{"zero display limit", func(c *domain.Config) { c.Query.DisplayLimit = 0 }, "display_limit"},
		{"confidence out of range", func(c *domain.Config) { c.Query.MinConfidence = 11 }, "min_confidence"},
		{"bad log level", func(c *domain.Config) { c.Logging.Level = "verbose" }, "invalid log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewManager(WithEnvFiles())
			require.NoError(t, err)
			cfg := *m.GetConfig()
			tt.mutate(&cfg)

			err = Validate(&cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGetDatabaseConnectionString(t *testing.T) {
	m, err := NewManager(WithEnvFiles())
	require.NoError(t, err)

	assert.Equal(t, "postgres://postgres:@localhost:5432/cbio_query?sslmode=disable", m.GetDatabaseConnectionString())

	m.GetConfig().Database.URL = "postgres://u:p@db:5432/x"
	assert.Equal(t, "postgres://u:p@db:5432/x", m.GetDatabaseConnectionString())
}
