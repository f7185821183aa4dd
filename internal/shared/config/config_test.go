package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearAPIKey removes the key for the duration of the test; t.Setenv restores it.
func clearAPIKey(t *testing.T) {
	t.Helper()
	for _, name := range []string{"OPENAI_API_KEY", "openai_api_key"} {
		t.Setenv(name, "")
		require.NoError(t, os.Unsetenv(name))
	}
}

func TestLoadMissingAPIKey(t *testing.T) {
	chdir(t, t.TempDir())
	clearAPIKey(t)

	_, err := Load()
	require.Error(t, err)

	var cfgErr *Error
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "openai_api_key", cfgErr.Key)
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	clearAPIKey(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.OpenAIAPIKey)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "https://api.openai.com/v1", cfg.OpenAIBaseURL)
	assert.Equal(t, 120*time.Second, cfg.OpenAITimeout)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.False(t, cfg.TracingEnabled)
	assert.Equal(t, 1.0, cfg.TraceSampleRatio)
}

func TestLoadLowercaseAndMixedCaseKey(t *testing.T) {
	chdir(t, t.TempDir())
	clearAPIKey(t)

	t.Setenv("openai_api_key", "sk-lower")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sk-lower", cfg.OpenAIAPIKey)

	require.NoError(t, os.Unsetenv("openai_api_key"))
	t.Setenv("OpenAI_Api_Key", "sk-mixed")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "sk-mixed", cfg.OpenAIAPIKey)
}

func TestLoadFromDotEnvIgnoresUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	clearAPIKey(t)
	t.Setenv("SOME_UNKNOWN_SETTING", "")

	content := "OPENAI_API_KEY=sk-dotenv\nSOME_UNKNOWN_SETTING=whatever\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0o600))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sk-dotenv", cfg.OpenAIAPIKey)
}

func TestLoadEnvOverridesConfigFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	clearAPIKey(t)

	yaml := "port: \"9000\"\nlog_level: debug\nopenai_api_key: sk-file\ntrace_sample_ratio: 5\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))
	t.Setenv("PORT", "9100")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9100", cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "sk-file", cfg.OpenAIAPIKey)
	assert.Equal(t, 1.0, cfg.TraceSampleRatio)
}

func TestNormalizeEnv(t *testing.T) {
	tests := map[string]string{
		"prod":       "production",
		"PRODUCTION": "production",
		"staging":    "staging",
		"local":      "local",
		"":           "dev",
		"whatever":   "dev",
	}
	for in, want := range tests {
		assert.Equal(t, want, normalizeEnv(in), "normalizeEnv(%q)", in)
	}
}
