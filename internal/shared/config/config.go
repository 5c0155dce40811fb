package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ConfigFileEnv names an optional YAML file layered under the environment.
const ConfigFileEnv = "FINTRAX_CONFIG"

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	TLS       TLSConfig
	Telemetry TelemetryConfig
	Log       LogConfig
	AMQP      AMQPConfig
	LLM       LLMConfig
}

type ServerConfig struct {
	Port            string
	Host            string
	AllowedHosts    []string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	MigrateOnStart  bool
}

type TLSConfig struct {
	Enabled      bool
	CertPath     string
	KeyPath      string
	RedirectHTTP bool
}

type TelemetryConfig struct {
	Enabled      bool
	ServiceName  string
	Environment  string
	OTLPEndpoint string
	MetricsPort  string
}

type LogConfig struct {
	Level  string
	Format string
}

// AMQPConfig enables event forwarding to a broker when URL is set.
type AMQPConfig struct {
	URL      string
	Exchange string
}

func (c AMQPConfig) Enabled() bool { return c.URL != "" }

// LLMConfig enables the chatbot when APIKey is set. LLM_API_KEY wins over
// OPENAI_API_KEY.
type LLMConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

func (c LLMConfig) Enabled() bool { return c.APIKey != "" }

// setting ties a config key to its environment variable and default.
type setting struct {
	key, env, def string
}

// envAliases are fallback variable names checked after the primary one.
var envAliases = map[string][]string{
	"llm.api_key": {"OPENAI_API_KEY"},
}

var settings = []setting{
	{"server.port", "PORT", "8080"},
	{"server.host", "HOST", "0.0.0.0"},
	{"server.allowed_hosts", "ALLOWED_HOSTS", ""},
	{"server.read_timeout", "SERVER_READ_TIMEOUT", "15s"},
	{"server.write_timeout", "SERVER_WRITE_TIMEOUT", "30s"},
	{"server.idle_timeout", "SERVER_IDLE_TIMEOUT", "60s"},
	{"server.shutdown_timeout", "SERVER_SHUTDOWN_TIMEOUT", "30s"},

	{"database.host", "DB_HOST", "localhost"},
	{"database.port", "DB_PORT", "5432"},
	{"database.user", "DB_USER", "fintrax"},
	{"database.password", "DB_PASSWORD", ""},
	{"database.name", "DB_NAME", "fintrax"},
	{"database.sslmode", "DB_SSLMODE", "disable"},
	{"database.max_open_conns", "DB_MAX_OPEN_CONNS", "25"},
	{"database.max_idle_conns", "DB_MAX_IDLE_CONNS", "5"},
	{"database.conn_max_lifetime", "DB_CONN_MAX_LIFETIME", "5m"},
	{"database.migrate_on_start", "DB_MIGRATE_ON_START", "true"},

	{"tls.enabled", "TLS_ENABLED", "false"},
	{"tls.cert_path", "TLS_CERT_PATH", ""},
	{"tls.key_path", "TLS_KEY_PATH", ""},
	{"tls.redirect_http", "TLS_REDIRECT_HTTP", "false"},

	{"telemetry.enabled", "OTEL_ENABLED", "false"},
	{"telemetry.service_name", "OTEL_SERVICE_NAME", "fintrax-api"},
	{"telemetry.environment", "OTEL_ENVIRONMENT", "development"},
	{"telemetry.otlp_endpoint", "OTEL_EXPORTER_ENDPOINT", "localhost:4317"},
	{"telemetry.metrics_port", "METRICS_PORT", "9464"},

	{"log.level", "LOG_LEVEL", "info"},
	{"log.format", "LOG_FORMAT", "json"},

	{"amqp.url", "AMQP_URL", ""},
	{"amqp.exchange", "AMQP_EXCHANGE", "fintrax.ledger"},

	{"llm.api_key", "LLM_API_KEY", ""},
	{"llm.base_url", "LLM_BASE_URL", "https://api.openai.com/v1"},
	{"llm.model", "LLM_MODEL", "gpt-4o-mini"},
	{"llm.timeout", "LLM_TIMEOUT", "30s"},
}

// Load reads configuration from defaults, an optional YAML file named by
// FINTRAX_CONFIG, a .env file and the environment, in increasing priority.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	for _, s := range settings {
		v.SetDefault(s.key, s.def)
		names := append([]string{s.key, s.env}, envAliases[s.key]...)
		if err := v.BindEnv(names...); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", s.env, err)
		}
	}

	if path := os.Getenv(ConfigFileEnv); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	r := reader{v: v}
	cfg := &Config{
		Server: ServerConfig{
			Port:            r.str("server.port"),
			Host:            r.str("server.host"),
			AllowedHosts:    r.list("server.allowed_hosts"),
			ReadTimeout:     r.duration("server.read_timeout", "SERVER_READ_TIMEOUT"),
			WriteTimeout:    r.duration("server.write_timeout", "SERVER_WRITE_TIMEOUT"),
			IdleTimeout:     r.duration("server.idle_timeout", "SERVER_IDLE_TIMEOUT"),
			ShutdownTimeout: r.duration("server.shutdown_timeout", "SERVER_SHUTDOWN_TIMEOUT"),
		},
		Database: DatabaseConfig{
			Host:            r.str("database.host"),
			Port:            r.int("database.port", "DB_PORT"),
			User:            r.str("database.user"),
			Password:        r.str("database.password"),
			DBName:          r.str("database.name"),
			SSLMode:         r.str("database.sslmode"),
			MaxOpenConns:    r.int("database.max_open_conns", "DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    r.int("database.max_idle_conns", "DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: r.duration("database.conn_max_lifetime", "DB_CONN_MAX_LIFETIME"),
			MigrateOnStart:  r.bool("database.migrate_on_start", true),
		},
		TLS: TLSConfig{
			Enabled:      r.bool("tls.enabled", false),
			CertPath:     r.str("tls.cert_path"),
			KeyPath:      r.str("tls.key_path"),
			RedirectHTTP: r.bool("tls.redirect_http", false),
		},
		Telemetry: TelemetryConfig{
			Enabled:      r.bool("telemetry.enabled", false),
			ServiceName:  r.str("telemetry.service_name"),
			Environment:  r.str("telemetry.environment"),
			OTLPEndpoint: r.str("telemetry.otlp_endpoint"),
			MetricsPort:  r.str("telemetry.metrics_port"),
		},
		Log: LogConfig{
			Level:  strings.ToLower(r.str("log.level")),
			Format: strings.ToLower(r.str("log.format")),
		},
		AMQP: AMQPConfig{
			URL:      r.str("amqp.url"),
			Exchange: r.str("amqp.exchange"),
		},
		LLM: LLMConfig{
			APIKey:  r.str("llm.api_key"),
			BaseURL: r.str("llm.base_url"),
			Model:   r.str("llm.model"),
			Timeout: r.duration("llm.timeout", "LLM_TIMEOUT"),
		},
	}
	if r.err != nil {
		return nil, r.err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field requirements.
func (c *Config) Validate() error {
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		return fmt.Errorf("DB_PORT must be between 1 and 65535")
	}

	if c.TLS.Enabled {
		if c.TLS.CertPath == "" {
			return fmt.Errorf("TLS_CERT_PATH is required when TLS_ENABLED=true")
		}
		if c.TLS.KeyPath == "" {
			return fmt.Errorf("TLS_KEY_PATH is required when TLS_ENABLED=true")
		}
	}

	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Log.Format)
	}

	if c.AMQP.Enabled() && c.AMQP.Exchange == "" {
		return fmt.Errorf("AMQP_EXCHANGE is required when AMQP_URL is set")
	}
	if c.Telemetry.Enabled && c.Telemetry.MetricsPort == c.Server.Port {
		return fmt.Errorf("METRICS_PORT must differ from PORT")
	}
	return nil
}

func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// reader pulls typed values out of viper and keeps the first parse error.
type reader struct {
	v   *viper.Viper
	err error
}

func (r *reader) str(key string) string {
	return strings.TrimSpace(r.v.GetString(key))
}

func (r *reader) list(key string) []string {
	var out []string
	for _, item := range strings.Split(r.v.GetString(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func (r *reader) int(key, env string) int {
	n, err := strconv.Atoi(r.str(key))
	if err != nil && r.err == nil {
		r.err = fmt.Errorf("invalid %s: %w", env, err)
	}
	return n
}

func (r *reader) duration(key, env string) time.Duration {
	d, err := time.ParseDuration(r.str(key))
	if err != nil && r.err == nil {
		r.err = fmt.Errorf("invalid %s: %w", env, err)
	}
	return d
}

func (r *reader) bool(key string, defaultValue bool) bool {
	return parseBool(r.str(key), defaultValue)
}

// parseBool accepts true, false, 1, 0, yes, no (case-insensitive) and falls
// back to defaultValue for anything else.
func parseBool(value string, defaultValue bool) bool {
	switch strings.ToLower(value) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	default:
		return defaultValue
	}
}
