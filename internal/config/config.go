package config

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

var (
	cfg *Config
	mu  sync.RWMutex
)

// Config represents the application configuration.
type Config struct {
	App     AppConfig     `mapstructure:"app"`
	Server  ServerConfig  `mapstructure:"server"`
	Store   StoreConfig   `mapstructure:"store"`
	Redis   RedisConfig   `mapstructure:"redis"`
	AI      AIConfig      `mapstructure:"ai"`
	Ticket  TicketConfig  `mapstructure:"ticket"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type AppConfig struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
	Env     string `mapstructure:"env"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORS            CORSConfig    `mapstructure:"cors"`
}

type CORSConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Origins []string `mapstructure:"origins"`
	Methods []string `mapstructure:"methods"`
	Headers []string `mapstructure:"headers"`
}

// StoreConfig describes the ticket/message store adapter. Driver is
// "dynamodb" or "memory"; Endpoint overrides the DynamoDB endpoint for
// local development.
type StoreConfig struct {
	Driver        string        `mapstructure:"driver"`
	Region        string        `mapstructure:"region"`
	Endpoint      string        `mapstructure:"endpoint"`
	TicketsTable  string        `mapstructure:"tickets_table"`
	MessagesTable string        `mapstructure:"messages_table"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Session  struct {
		Prefix string        `mapstructure:"prefix"`
		TTL    time.Duration `mapstructure:"ttl"`
	} `mapstructure:"session"`
}

// AIConfig configures the completion client and the session manager.
// SessionBackend is "memory" or "redis". Prices are USD per 1000 tokens.
type AIConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	APIKey         string        `mapstructure:"api_key"`
	Model          string        `mapstructure:"model"`
	Temperature    float64       `mapstructure:"temperature"`
	MaxTokens      int           `mapstructure:"max_tokens"`
	Timeout        time.Duration `mapstructure:"timeout"`
	SessionBackend string        `mapstructure:"session_backend"`
	PriceInPer1K   float64       `mapstructure:"price_in_per_1k"`
	PriceOutPer1K  float64       `mapstructure:"price_out_per_1k"`
}

// TicketConfig holds lifecycle-engine policy switches. StrictStatus
// rejects status values outside the four-state enum; turning it off
// preserves the permissive behavior of accepting any upper-cased string.
type TicketConfig struct {
	StrictStatus bool `mapstructure:"strict_status"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "amail")
	v.SetDefault("app.version", "dev")
	v.SetDefault("app.env", "development")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.cors.enabled", true)
	v.SetDefault("server.cors.origins", []string{"*"})
	v.SetDefault("server.cors.methods", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"})
	v.SetDefault("server.cors.headers", []string{"Content-Type", "Authorization", "X-Request-ID"})

	v.SetDefault("store.driver", "dynamodb")
	v.SetDefault("store.region", "eu-west-2")
	// Keys without a meaningful default still need registering so
	// environment overrides reach Unmarshal.
	v.SetDefault("store.endpoint", "")
	v.SetDefault("store.tickets_table", "Tickets")
	v.SetDefault("store.messages_table", "TicketMessages")
	v.SetDefault("store.timeout", 10*time.Second)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.session.prefix", "amail:session:")
	v.SetDefault("redis.session.ttl", 24*time.Hour)

	v.SetDefault("ai.base_url", "")
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.model", "gpt-4o-mini")
	v.SetDefault("ai.temperature", 0.7)
	v.SetDefault("ai.max_tokens", 500)
	v.SetDefault("ai.timeout", 30*time.Second)
	v.SetDefault("ai.session_backend", "memory")
	v.SetDefault("ai.price_in_per_1k", 0.00015)
	v.SetDefault("ai.price_out_per_1k", 0.0006)

	v.SetDefault("ticket.strict_status", true)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Load reads configuration from the given YAML file, with AMAIL_*
// environment variables taking precedence (e.g. AMAIL_AI_API_KEY). A
// missing file is not an error; defaults and environment apply.
func Load(path string) error {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("AMAIL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			// A missing file falls back to defaults and environment; a
			// malformed one is a hard error.
			if _, statErr := os.Stat(path); statErr == nil {
				return fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	var loaded Config
	if err := v.Unmarshal(&loaded); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}

	mu.Lock()
	cfg = &loaded
	mu.Unlock()
	return nil
}

// Get returns the loaded configuration, or nil when Load has not run.
func Get() *Config {
	mu.RLock()
	defer mu.RUnlock()
	return cfg
}
