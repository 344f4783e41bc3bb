package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	BackendSQL      = "sql"
	BackendSupabase = "supabase"
)

// Config represents the application configuration
type Config struct {
	Server struct {
		Addr        string `koanf:"addr"`
		StaticDir   string `koanf:"static_dir"`
		PublicURL   string `koanf:"public_url"`
		Storyboards bool   `koanf:"storyboards"`
	} `koanf:"server"`

	Log struct {
		Level  string `koanf:"level"`
		Pretty bool   `koanf:"pretty"`
	} `koanf:"log"`

	Backend struct {
		Kind string `koanf:"kind"`
	} `koanf:"backend"`

	Database struct {
		Driver string `koanf:"driver"`
		DSN    string `koanf:"dsn"`
	} `koanf:"database"`

	Supabase struct {
		URL     string `koanf:"url"`
		AnonKey string `koanf:"anon_key"`
	} `koanf:"supabase"`

	Auth struct {
		TokenSecret string        `koanf:"token_secret"`
		TokenTTL    time.Duration `koanf:"token_ttl"`
	} `koanf:"auth"`

	SMTP struct {
		Host     string `koanf:"host"`
		Port     string `koanf:"port"`
		Username string `koanf:"username"`
		Password string `koanf:"password"`
		From     string `koanf:"from"`
	} `koanf:"smtp"`

	Assistant struct {
		URL         string        `koanf:"url"`
		APIKey      string        `koanf:"api_key"`
		Model       string        `koanf:"model"`
		MaxTokens   int           `koanf:"max_tokens"`
		Temperature float64       `koanf:"temperature"`
		Timeout     time.Duration `koanf:"timeout"`
		RatePerMin  int           `koanf:"rate_per_minute"`
	} `koanf:"assistant"`

	Chat struct {
		ReplyDelay time.Duration `koanf:"reply_delay"`
	} `koanf:"chat"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"server.addr":               ":8080",
		"server.static_dir":         "static",
		"server.public_url":         "http://localhost:8080",
		"server.storyboards":        false,
		"log.level":                 "info",
		"backend.kind":              BackendSQL,
		"database.driver":           "sqlite3",
		"database.dsn":              "instamunicipal.db",
		"auth.token_ttl":            "24h",
		"assistant.url":             "https://api.deepseek.com/v1/chat/completions",
		"assistant.model":           "deepseek-chat",
		"assistant.max_tokens":      1000,
		"assistant.temperature":     0.7,
		"assistant.timeout":         "60s",
		"assistant.rate_per_minute": 20,
		"chat.reply_delay":          "2s",
	}
}

// legacyEnv maps the variable names used by the browser client build.
var legacyEnv = map[string]string{
	"VITE_SUPABASE_URL":      "supabase.url",
	"VITE_SUPABASE_ANON_KEY": "supabase.anon_key",
	"VITE_DEEPSEEK_API_KEY":  "assistant.api_key",
	"VITE_TEMPO":             "server.storyboards",
}

// LoadConfig loads the configuration from defaults, a TOML file and the environment.
func LoadConfig(configPath string) (*Config, error) {
	var k = koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("error loading defaults: %w", err)
	}

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
				return nil, fmt.Errorf("error loading config: %w", err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
	}

	legacy := map[string]interface{}{}
	for name, key := range legacyEnv {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			legacy[key] = v
		}
	}
	if len(legacy) > 0 {
		if err := k.Load(confmap.Provider(legacy, "."), nil); err != nil {
			return nil, fmt.Errorf("error loading environment: %w", err)
		}
	}

	// INSTAMUNICIPAL_ASSISTANT__API_KEY -> assistant.api_key
	if err := k.Load(env.Provider("INSTAMUNICIPAL_", ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, "INSTAMUNICIPAL_"))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("error loading environment: %w", err)
	}

	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	return &config, nil
}

// InitConfig writes a sample configuration file
func InitConfig(configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists at %s", configPath)
	}

	sampleConfig := `# InstaMunicipal configuration

[server]
addr = ":8080"
public_url = "http://localhost:8080"
storyboards = false

[log]
level = "info"
pretty = true

[backend]
# "sql" keeps accounts and rows in the local database, "supabase" delegates to a hosted project
kind = "sql"

[database]
driver = "sqlite3"
dsn = "instamunicipal.db"

[supabase]
url = "https://your-project.supabase.co"
anon_key = "your-anon-key"

[auth]
token_secret = "change-me"
token_ttl = "24h"

[assistant]
api_key = ""
model = "deepseek-chat"
max_tokens = 1000
temperature = 0.7

[chat]
reply_delay = "2s"
`

	return os.WriteFile(configPath, []byte(sampleConfig), 0644)
}

// Validate validates the configuration
func Validate(config *Config) error {
	switch config.Backend.Kind {
	case BackendSQL:
		if config.Database.Driver == "" || config.Database.DSN == "" {
			return fmt.Errorf("database driver and dsn are required for the sql backend")
		}
		switch config.Database.Driver {
		case "sqlite3", "postgres", "pgx":
		default:
			return fmt.Errorf("unsupported database driver %q", config.Database.Driver)
		}
		if config.Auth.TokenSecret == "" {
			return fmt.Errorf("auth token_secret is required for the sql backend")
		}
	case BackendSupabase:
		if config.Supabase.URL == "" || config.Supabase.AnonKey == "" {
			return fmt.Errorf("supabase url and anon_key are required")
		}
		// the local database still holds departments, posts and messages
		if config.Database.Driver == "" || config.Database.DSN == "" {
			return fmt.Errorf("database driver and dsn are required")
		}
	default:
		return fmt.Errorf("unknown backend %q", config.Backend.Kind)
	}

	if config.Assistant.MaxTokens <= 0 {
		return fmt.Errorf("assistant max_tokens must be positive")
	}
	// a missing assistant api_key is allowed: the assistant answers with its unavailable message

	return nil
}
