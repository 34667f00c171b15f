package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config mirrors config/config.yaml.
type Config struct {
	Server        ServerConfig           `mapstructure:"server"`         // HTTP server
	Database      DatabaseConfig         `mapstructure:"database"`       // match store
	Sync          SyncConfig             `mapstructure:"sync"`           // periodic ingestion
	Sports        map[string]SportConfig `mapstructure:"sports"`         // per-sport source pages
	Redis         RedisConfig            `mapstructure:"redis"`          // query cache
	API           APIConfig              `mapstructure:"api"`            // API surface
	Metrics       MetricsConfig          `mapstructure:"metrics"`        // prometheus
	FallbackSport string                 `mapstructure:"fallback_sport"` // pipeline used for unknown sports; empty rejects them
}

// ServerConfig HTTP server settings
type ServerConfig struct {
	Port int    `mapstructure:"port"` // listen port
	Mode string `mapstructure:"mode"` // gin mode: debug/release/test
}

// DatabaseConfig match store settings
type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`            // postgres or memory
	DSN             string `mapstructure:"dsn"`               // postgres DSN
	MaxOpenConns    int    `mapstructure:"max_open_conns"`    // pool size
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`    // idle connections kept
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // seconds
	CommitTimeout   int    `mapstructure:"commit_timeout"`    // seconds allowed for one reconciliation batch
	LogSQL          bool   `mapstructure:"log_sql"`           // gorm statement logging
}

// SyncConfig periodic ingestion settings
type SyncConfig struct {
	Interval      string   `mapstructure:"interval"`       // Go duration, empty disables the scheduler
	EnabledSports []string `mapstructure:"enabled_sports"` // sports ingested on every tick
}

// SportConfig source settings for one sport
type SportConfig struct {
	BaseURL   string          `mapstructure:"base_url"`   // listing page, also the base for relative detail links
	Timeout   int             `mapstructure:"timeout"`    // fetch timeout (seconds)
	Proxy     string          `mapstructure:"proxy"`      // optional HTTP proxy
	FetchMode string          `mapstructure:"fetch_mode"` // http or browser
	UserAgent string          `mapstructure:"user_agent"` // User-Agent header sent to the source
	Selectors SelectorsConfig `mapstructure:"selectors"`  // overrides of the built-in CSS selectors
}

// SelectorsConfig CSS selector overrides; empty fields keep the sport's defaults
type SelectorsConfig struct {
	Container    string `mapstructure:"container"`
	Competition  string `mapstructure:"competition"`
	Participants string `mapstructure:"participants"`
	Metrics      string `mapstructure:"metrics"`
	Time         string `mapstructure:"time"`
	Link         string `mapstructure:"link"`
	LinkAttr     string `mapstructure:"link_attr"`
}

// RedisConfig query cache settings
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`     // empty disables caching
	Password string `mapstructure:"password"` // AUTH password
	DB       int    `mapstructure:"db"`       // database index
	TTL      int    `mapstructure:"ttl"`      // seconds
}

// APIConfig API surface settings
type APIConfig struct {
	APIKey string `mapstructure:"api_key"` // X-API-Key for /scrape; empty rejects every /scrape request
}

// MetricsConfig prometheus settings
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"` // expose the registry
	Path    string `mapstructure:"path"`    // scrape path
}

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"

	FetchModeHTTP    = "http"
	FetchModeBrowser = "browser"
)

// LoadConfig reads ./config/config.yaml; secrets may be overridden from .env or the environment.
func LoadConfig() (*Config, error) {
	// 1. .env is optional, its values land in the process environment
	_ = godotenv.Load()

	return LoadConfigFrom("./config")
}

// LoadConfigFrom reads config.yaml from dir.
func LoadConfigFrom(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	setDefaults(v)

	// 2. config.yaml
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config file: %w", err)
	}

	// 3. env > yaml for secrets and deployment specific values
	overrideFromEnv(&cfg)
	normalize(&cfg)
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 300)
	v.SetDefault("database.commit_timeout", 10)
	v.SetDefault("redis.ttl", 60)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

// overrideFromEnv applies environment overrides
func overrideFromEnv(cfg *Config) {
	if v := os.Getenv("DB_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("DB_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("API_KEY"); v != "" {
		cfg.API.APIKey = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	for sport, sc := range cfg.Sports {
		if v := os.Getenv(strings.ToUpper(sport) + "_PROXY"); v != "" {
			sc.Proxy = v
			cfg.Sports[sport] = sc
		}
	}
}

func normalize(cfg *Config) {
	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	cfg.FallbackSport = strings.ToLower(strings.TrimSpace(cfg.FallbackSport))
	if cfg.Sports == nil {
		cfg.Sports = map[string]SportConfig{}
	}
	for sport, sc := range cfg.Sports {
		if sc.FetchMode == "" {
			sc.FetchMode = FetchModeHTTP
		}
		sc.FetchMode = strings.ToLower(sc.FetchMode)
		cfg.Sports[sport] = sc
	}
}

// Validate checks values that would otherwise fail late. known lists the registered sports.
func (c *Config) Validate(known []string) error {
	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for driver %q", DriverPostgres)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown database.driver %q", c.Database.Driver)
	}
	for sport, sc := range c.Sports {
		if sc.FetchMode != FetchModeHTTP && sc.FetchMode != FetchModeBrowser {
			return fmt.Errorf("sports.%s.fetch_mode: unknown mode %q", sport, sc.FetchMode)
		}
	}
	if c.Sync.Interval != "" {
		if _, err := time.ParseDuration(c.Sync.Interval); err != nil {
			return fmt.Errorf("sync.interval: %w", err)
		}
	}
	if c.FallbackSport != "" && !slices.Contains(known, c.FallbackSport) {
		return fmt.Errorf("fallback_sport %q is not a registered sport", c.FallbackSport)
	}
	for _, sport := range c.Sync.EnabledSports {
		if !slices.Contains(known, sport) {
			return fmt.Errorf("sync.enabled_sports: %q is not a registered sport", sport)
		}
	}
	return nil
}

// SyncInterval returns the parsed scheduler interval, zero when disabled.
func (c *Config) SyncInterval() time.Duration {
	d, err := time.ParseDuration(c.Sync.Interval)
	if err != nil {
		return 0
	}
	return d
}

// CommitTimeoutDuration bounds one reconciliation batch.
func (d *DatabaseConfig) CommitTimeoutDuration() time.Duration {
	if d.CommitTimeout <= 0 {
		return 10 * time.Second
	}
	return time.Duration(d.CommitTimeout) * time.Second
}

// GetGORMConfig builds the gorm config for the store.
func (d *DatabaseConfig) GetGORMConfig() *gorm.Config {
	level := logger.Warn
	if d.LogSQL {
		level = logger.Info
	}
	return &gorm.Config{Logger: logger.Default.LogMode(level)}
}

// Sport returns the settings for sport and whether it is configured.
func (c *Config) Sport(sport string) (SportConfig, bool) {
	sc, ok := c.Sports[sport]
	return sc, ok
}
