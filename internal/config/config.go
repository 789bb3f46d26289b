package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Redis        RedisConfig        `mapstructure:"redis"`
	JWT          JWTConfig          `mapstructure:"jwt"`
	Storage      StorageConfig      `mapstructure:"storage"`
	Scheduling   SchedulingConfig   `mapstructure:"scheduling"`
	Notification NotificationConfig `mapstructure:"notification"`
	Outbox       OutboxConfig       `mapstructure:"outbox"`
	RateLimit    RateLimitConfig    `mapstructure:"rate_limit"`
	Email        EmailConfig        `mapstructure:"email"`
	Cache        CacheConfig        `mapstructure:"cache"`
	Log          LogConfig          `mapstructure:"log"`
}

type ServerConfig struct {
	Port           int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Mode           string `mapstructure:"mode" validate:"oneof=debug release test"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" validate:"min=1"`
}

type DatabaseConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Name         string `mapstructure:"name"`
	SSLMode      string `mapstructure:"sslmode"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

type RedisConfig struct {
	URL     string `mapstructure:"url"`
	Channel string `mapstructure:"channel"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret" validate:"required,min=16"`
	Issuer      string `mapstructure:"issuer"`
	ExpiryHours int    `mapstructure:"expiry_hours" validate:"min=1"`
}

type StorageConfig struct {
	Driver string `mapstructure:"driver" validate:"oneof=postgres memory"`
	// SeedFile is loaded into the memory driver at startup.
	SeedFile string `mapstructure:"seed_file"`
}

// SchedulingConfig holds the static daily slot grid.
type SchedulingConfig struct {
	SlotMinutes    int      `mapstructure:"slot_minutes" validate:"min=5"`
	DailyGrid      []string `mapstructure:"daily_grid" validate:"required,min=1,dive,datetime=15:04"`
	MaxAdvanceDays int      `mapstructure:"max_advance_days" validate:"min=0"`
	TimeZone       string   `mapstructure:"time_zone" validate:"required"`
}

type NotificationConfig struct {
	RetryAttempts int           `mapstructure:"retry_attempts" validate:"min=1"`
	RetryDelay    time.Duration `mapstructure:"retry_delay"`
	ListLimit     int           `mapstructure:"list_limit" validate:"min=1"`
}

type OutboxConfig struct {
	BatchSize     int           `mapstructure:"batch_size" validate:"min=1"`
	PollInterval  time.Duration `mapstructure:"poll_interval"`
	RetryAttempts int           `mapstructure:"retry_attempts" validate:"min=1"`
	RetryDelay    time.Duration `mapstructure:"retry_delay"`
	Retention     time.Duration `mapstructure:"retention"`
}

type RateLimitConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	RPS     float64 `mapstructure:"rps"`
	Burst   int     `mapstructure:"burst"`
}

type EmailConfig struct {
	SMTPHost     string `mapstructure:"smtp_host"`
	SMTPPort     int    `mapstructure:"smtp_port"`
	SMTPUsername string `mapstructure:"smtp_username"`
	SMTPPassword string `mapstructure:"smtp_password"`
	FromAddress  string `mapstructure:"from_address"`
}

// Enabled reports whether an SMTP relay is configured.
func (c EmailConfig) Enabled() bool {
	return c.SMTPHost != "" && c.FromAddress != ""
}

type CacheConfig struct {
	LocationTTL time.Duration `mapstructure:"location_ttl"`
}

type LogConfig struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
}

// envOverrides are the PORTAL_* variables deployments set most often.
type envOverrides struct {
	Port           int    `envconfig:"PORT"`
	DatabaseHost   string `envconfig:"DB_HOST"`
	DatabasePort   int    `envconfig:"DB_PORT"`
	DatabaseUser   string `envconfig:"DB_USER"`
	DatabasePass   string `envconfig:"DB_PASSWORD"`
	DatabaseName   string `envconfig:"DB_NAME"`
	RedisURL       string `envconfig:"REDIS_URL"`
	JWTSecret      string `envconfig:"JWT_SECRET"`
	StorageDriver  string `envconfig:"STORAGE_DRIVER"`
	SeedFile       string `envconfig:"SEED_FILE"`
	LogLevel       string `envconfig:"LOG_LEVEL"`
	SMTPPassword   string `envconfig:"SMTP_PASSWORD"`
	SchedulingZone string `envconfig:"TIME_ZONE"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.timeout_seconds", 30)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.name", "citizen_portal")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)

	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("redis.channel", "notifications")

	v.SetDefault("jwt.issuer", "citizen-portal")
	v.SetDefault("jwt.expiry_hours", 24)

	v.SetDefault("storage.driver", "postgres")

	v.SetDefault("scheduling.slot_minutes", 30)
	v.SetDefault("scheduling.daily_grid", []string{"09:00", "10:00", "11:00", "12:00", "14:00", "15:00", "16:00"})
	v.SetDefault("scheduling.max_advance_days", 60)
	v.SetDefault("scheduling.time_zone", "Asia/Colombo")

	v.SetDefault("notification.retry_attempts", 3)
	v.SetDefault("notification.retry_delay", 50*time.Millisecond)
	v.SetDefault("notification.list_limit", 100)

	v.SetDefault("outbox.batch_size", 100)
	v.SetDefault("outbox.poll_interval", 5*time.Second)
	v.SetDefault("outbox.retry_attempts", 3)
	v.SetDefault("outbox.retry_delay", time.Second)
	v.SetDefault("outbox.retention", 7*24*time.Hour)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.rps", 20)
	v.SetDefault("rate_limit.burst", 40)

	v.SetDefault("email.smtp_port", 587)

	v.SetDefault("cache.location_ttl", 10*time.Minute)

	v.SetDefault("log.level", "info")
}

// LoadConfig reads config.yaml from the usual locations, falls back to defaults
// when no file exists, then applies .env and PORTAL_* overrides.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/app/config")
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the built-in configuration without touching disk or env.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func applyEnv(cfg *Config) error {
	var env envOverrides
	if err := envconfig.Process("PORTAL", &env); err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}

	if env.Port != 0 {
		cfg.Server.Port = env.Port
	}
	if env.DatabaseHost != "" {
		cfg.Database.Host = env.DatabaseHost
	}
	if env.DatabasePort != 0 {
		cfg.Database.Port = env.DatabasePort
	}
	if env.DatabaseUser != "" {
		cfg.Database.User = env.DatabaseUser
	}
	if env.DatabasePass != "" {
		cfg.Database.Password = env.DatabasePass
	}
	if env.DatabaseName != "" {
		cfg.Database.Name = env.DatabaseName
	}
	if env.RedisURL != "" {
		cfg.Redis.URL = env.RedisURL
	}
	if env.JWTSecret != "" {
		cfg.JWT.Secret = env.JWTSecret
	}
	if env.StorageDriver != "" {
		cfg.Storage.Driver = strings.ToLower(env.StorageDriver)
	}
	if env.SeedFile != "" {
		cfg.Storage.SeedFile = env.SeedFile
	}
	if env.LogLevel != "" {
		cfg.Log.Level = env.LogLevel
	}
	if env.SMTPPassword != "" {
		cfg.Email.SMTPPassword = env.SMTPPassword
	}
	if env.SchedulingZone != "" {
		cfg.Scheduling.TimeZone = env.SchedulingZone
	}
	return nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := time.LoadLocation(c.Scheduling.TimeZone); err != nil {
		return fmt.Errorf("invalid config: scheduling.time_zone: %w", err)
	}
	return nil
}

// Location returns the scheduling time zone. Validate has already checked it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Scheduling.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}
