// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/invoice-recon/internal/logging"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(t *testing.T) string
		want   map[string]string
		errMsg string
	}{
		{
			name: "reads key files and trims whitespace",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, "anthropic-api-key", "  sk-ant-abc123  \n")
				writeFile(t, dir, "openai-api-key", "sk-xyz789")
				writeFile(t, dir, "redis-password", "hunter2\n")
				return dir
			},
			want: map[string]string{
				"anthropic-api-key": "sk-ant-abc123",
				"openai-api-key":    "sk-xyz789",
				"redis-password":    "hunter2",
			},
		},
		{
			name: "returns empty map for nonexistent directory",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "does-not-exist")
			},
			want: map[string]string{},
		},
		{
			name: "skips empty files",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, "anthropic-api-key", "valid-key")
				writeFile(t, dir, "empty-key", "")
				writeFile(t, dir, "whitespace-only", "   \n\t  ")
				return dir
			},
			want: map[string]string{
				"anthropic-api-key": "valid-key",
			},
		},
		{
			name: "skips dotfiles",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, ".gitkeep", "")
				writeFile(t, dir, ".hidden-key", "secret")
				writeFile(t, dir, "openai-api-key", "sk-real")
				return dir
			},
			want: map[string]string{
				"openai-api-key": "sk-real",
			},
		},
		{
			name: "skips subdirectories",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, "anthropic-api-key", "ak_123")
				require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0o755))
				return dir
			},
			want: map[string]string{
				"anthropic-api-key": "ak_123",
			},
		},
		{
			name: "returns empty map for empty directory",
			setup: func(t *testing.T) string {
				return t.TempDir()
			},
			want: map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := tt.setup(t)
			got, err := Load(dir)
			if tt.errMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadUnreadableFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "good-key", "value123")

	// Create a file then remove read permission.
	badPath := filepath.Join(dir, "bad-key")
	require.NoError(t, os.WriteFile(badPath, []byte("secret"), 0o000))
	t.Cleanup(func() { os.Chmod(badPath, 0o644) })

	got, err := Load(dir)
	require.NoError(t, err)
	// The good file should still be returned; the bad file is skipped with a warning.
	assert.Equal(t, "value123", got["good-key"])
	_, hasBad := got["bad-key"]
	assert.False(t, hasBad, "unreadable file should not appear in result")
}

func TestLoadDanglingLinkLogsWarning(t *testing.T) {
	var buf bytes.Buffer
	logging.Init("warn", "json", &buf)
	t.Cleanup(func() { logging.Init("warn", "text", nil) })

	dir := t.TempDir()
	writeFile(t, dir, "anthropic-api-key", "sk-ant-1")
	require.NoError(t, os.Symlink(filepath.Join(dir, "missing-target"), filepath.Join(dir, "openai-api-key")))

	got, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"anthropic-api-key": "sk-ant-1"}, got)

	out := buf.String()
	assert.Contains(t, out, `"component":"secrets"`)
	assert.Contains(t, out, `"secret":"openai-api-key"`)
	assert.Contains(t, out, "could not read secret")
}

func TestGet(t *testing.T) {
	loaded := map[string]string{AnthropicAPIKey: "from-file"}

	t.Setenv("ANTHROPIC_API_KEY", "from-env")
	t.Setenv("OPENAI_API_KEY", " sk-env \n")
	t.Setenv("REDIS_PASSWORD", "")

	assert.Equal(t, "from-file", Get(loaded, AnthropicAPIKey), "file wins over environment")
	assert.Equal(t, "sk-env", Get(loaded, OpenAIAPIKey), "environment is trimmed")
	assert.Equal(t, "", Get(loaded, RedisPassword))
	assert.Equal(t, "", Get(loaded, "unknown-key"))
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}
