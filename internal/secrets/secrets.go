// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys and credentials from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key name and the
// file contents (trimmed) are the value.
//
// Supported key files: anthropic-api-key, openai-api-key, redis-password.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/invoice-recon/internal/logging"
)

// Key file names.
const (
	AnthropicAPIKey = "anthropic-api-key"
	OpenAIAPIKey    = "openai-api-key"
	RedisPassword   = "redis-password"
)

// envVars maps each key to the environment variable consulted when no
// secret file provides it.
var envVars = map[string]string{
	AnthropicAPIKey: "ANTHROPIC_API_KEY",
	OpenAIAPIKey:    "OPENAI_API_KEY",
	RedisPassword:   "REDIS_PASSWORD",
}

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files are logged as warnings but do not abort.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	logger := logging.New("secrets")
	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			logger.Warn().Err(err).Str("secret", name).Msg("could not read secret")
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// Get returns the value for key from loaded, falling back to the key's
// environment variable. Unknown keys without a file yield "".
func Get(loaded map[string]string, key string) string {
	if v, ok := loaded[key]; ok {
		return v
	}
	if env, ok := envVars[key]; ok {
		return strings.TrimSpace(os.Getenv(env))
	}
	return ""
}
