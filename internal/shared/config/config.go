package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrMissingAPIKey is returned when no OpenAI API key is configured.
var ErrMissingAPIKey = errors.New("required setting missing")

// Error reports a configuration problem. It is fatal at startup.
type Error struct {
	Key string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("config %s: %v", e.Key, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Config holds application configuration.
type Config struct {
	Port             string
	Env              string
	CORSAllowOrigin  []string
	LogLevel         string
	LogFormat        string
	OpenAIAPIKey     string
	OpenAIBaseURL    string
	OpenAITimeout    time.Duration
	PromptsFile      string
	TracingEnabled   bool
	TraceSampleRatio float64
	ShutdownTimeout  time.Duration
}

var defaultEnvFiles = []string{".env", "cmd/.env"}

// Load reads configuration from the environment, an optional .env file and an
// optional config.yaml. Environment variables win over file values.
func Load() (Config, error) {
	loadEnvFiles(defaultEnvFiles...)

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, &Error{Key: "config.yaml", Err: err}
		}
	}

	_ = v.BindEnv("openai_api_key", "OPENAI_API_KEY", "openai_api_key")
	apiKey := strings.TrimSpace(v.GetString("openai_api_key"))
	if apiKey == "" {
		apiKey = strings.TrimSpace(lookupEnvFold("openai_api_key"))
	}
	if apiKey == "" {
		return Config{}, &Error{Key: "openai_api_key", Err: ErrMissingAPIKey}
	}

	return Config{
		Port:             v.GetString("port"),
		Env:              normalizeEnv(v.GetString("env")),
		CORSAllowOrigin:  splitAndTrim(v.GetString("cors_allow_origins")),
		LogLevel:         strings.ToLower(strings.TrimSpace(v.GetString("log_level"))),
		LogFormat:        strings.ToLower(strings.TrimSpace(v.GetString("log_format"))),
		OpenAIAPIKey:     apiKey,
		OpenAIBaseURL:    strings.TrimRight(strings.TrimSpace(v.GetString("openai_base_url")), "/"),
		OpenAITimeout:    seconds(v.GetInt("openai_timeout_seconds"), 120),
		PromptsFile:      strings.TrimSpace(v.GetString("prompts_file")),
		TracingEnabled:   v.GetBool("tracing_enabled"),
		TraceSampleRatio: clampRatio(v.GetFloat64("trace_sample_ratio")),
		ShutdownTimeout:  seconds(v.GetInt("shutdown_timeout_seconds"), 10),
	}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("env", "dev")
	v.SetDefault("cors_allow_origins", "http://localhost:3000")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("openai_base_url", "https://api.openai.com/v1")
	v.SetDefault("openai_timeout_seconds", 120)
	v.SetDefault("prompts_file", "")
	v.SetDefault("tracing_enabled", false)
	v.SetDefault("trace_sample_ratio", 1.0)
	v.SetDefault("shutdown_timeout_seconds", 10)
}

// loadEnvFiles loads the first existing env file. Real environment variables
// are never overridden.
func loadEnvFiles(paths ...string) {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err == nil {
			return
		}
	}
}

// lookupEnvFold finds an environment variable ignoring the case of its name.
func lookupEnvFold(key string) string {
	for _, kv := range os.Environ() {
		name, val, ok := strings.Cut(kv, "=")
		if ok && strings.EqualFold(name, key) {
			return val
		}
	}
	return ""
}

func seconds(n, def int) time.Duration {
	if n <= 0 {
		n = def
	}
	return time.Duration(n) * time.Second
}

func clampRatio(r float64) float64 {
	switch {
	case r < 0:
		return 0
	case r > 1:
		return 1
	default:
		return r
	}
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}
