package setup

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeBinary(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), BinaryName)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"), 0o755))
	return path
}

func TestLoadClaudeDesktopConfig_Missing(t *testing.T) {
	config, err := LoadClaudeDesktopConfig(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Empty(t, config.MCPServers)
}

func TestLoadClaudeDesktopConfig_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := LoadClaudeDesktopConfig(path)
	assert.Error(t, err)
}

func TestConfigureClaudeDesktop(t *testing.T) {
	dir := t.TempDir()
	desktop := filepath.Join(dir, "Claude", "claude_desktop_config.json")
	binary := fakeBinary(t)

	written, err := ConfigureClaudeDesktop(Options{
		BinaryPath:    binary,
		ConfigFile:    "/etc/cbio/config.yaml",
		Provider:      "ollama",
		DesktopConfig: desktop,
	})
	require.NoError(t, err)
	assert.Equal(t, desktop, written)

	config, err := LoadClaudeDesktopConfig(desktop)
	require.NoError(t, err)
	server, ok := config.MCPServers[ServerName]
	require.True(t, ok)
	assert.Equal(t, binary, server.Command)
	assert.Equal(t, []string{"mcp", "--config", "/etc/cbio/config.yaml"}, server.Args)
	assert.Equal(t, "ollama", server.Env["LLM_PROVIDER"])
}

func TestConfigureClaudeDesktop_PreservesOtherEntries(t *testing.T) {
	desktop := filepath.Join(t.TempDir(), "claude_desktop_config.json")
	existing := `{
  "globalShortcut": "Ctrl+Space",
  "mcpServers": {
    "filesystem": {"command": "npx", "args": ["-y", "@modelcontextprotocol/server-filesystem"]}
  }
}`
	require.NoError(t, os.WriteFile(desktop, []byte(existing), 0o644))

	_, err := ConfigureClaudeDesktop(Options{BinaryPath: fakeBinary(t), DesktopConfig: desktop})
	require.NoError(t, err)

	raw, err := os.ReadFile(desktop)
	require.NoError(t, err)
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "Ctrl+Space", doc["globalShortcut"])

	servers := doc["mcpServers"].(map[string]interface{})
	assert.Contains(t, servers, "filesystem")
	assert.Contains(t, servers, ServerName)
	assert.NotContains(t, servers[ServerName], "env")
}

func TestGetStatus(t *testing.T) {
	desktop := filepath.Join(t.TempDir(), "claude_desktop_config.json")

	status, err := GetStatus(desktop)
	require.NoError(t, err)
	assert.False(t, status.ServerConfigured)
	require.Len(t, status.Issues, 1)

	binary := fakeBinary(t)
	_, err = ConfigureClaudeDesktop(Options{BinaryPath: binary, DesktopConfig: desktop})
	require.NoError(t, err)

	status, err = GetStatus(desktop)
	require.NoError(t, err)
	assert.True(t, status.ServerConfigured)
	assert.Equal(t, binary, status.ServerPath)
	assert.Equal(t, []string{"mcp"}, status.Args)
	assert.Empty(t, status.Issues)

	require.NoError(t, os.Remove(binary))
	status, err = GetStatus(desktop)
	require.NoError(t, err)
	require.Len(t, status.Issues, 1)
	assert.Contains(t, status.Issues[0], "not found")
}

func TestGetClaudeDesktopConfigPath_XDG(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_CONFIG_HOME only applies on linux")
	}
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	path, err := GetClaudeDesktopConfigPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Claude", "claude_desktop_config.json"), path)
}
