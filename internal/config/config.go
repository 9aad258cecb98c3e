package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"climate-coverage/internal/models"
)

// Config holds the full application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Archive   ArchiveConfig   `mapstructure:"archive"`
	Ingestion IngestionConfig `mapstructure:"ingestion"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// DatabaseConfig holds PostgreSQL connection settings
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// ArchiveConfig holds remote archive settings
type ArchiveConfig struct {
	Host          string        `mapstructure:"host"`
	RetryAttempts uint          `mapstructure:"retry_attempts"`
	RetryDelay    time.Duration `mapstructure:"retry_delay"`
	WorkDir       string        `mapstructure:"work_dir"`
}

// IngestionConfig holds ingestion run settings
type IngestionConfig struct {
	Datasets []string `mapstructure:"datasets"`
	Stations []int    `mapstructure:"stations"`

	// Schedule is a cron expression for the long-running ingester mode.
	// Empty means run once and exit.
	Schedule string `mapstructure:"schedule"`
}

// LoadConfig reads configuration from config.yaml and the environment.
// Environment variables use the CLIMATE_ prefix with underscores, e.g.
// CLIMATE_DATABASE_PASSWORD.
func LoadConfig() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	v.AddConfigPath("/etc/climate-coverage")

	v.SetEnvPrefix("CLIMATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// config file is optional; defaults plus environment suffice
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "climate")
	v.SetDefault("database.password", "")
	v.SetDefault("database.database", "climate_coverage")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.conn_max_idle_time", 5*time.Minute)

	v.SetDefault("logging.level", "info")

	v.SetDefault("archive.host", "opendata.dwd.de:21")
	v.SetDefault("archive.retry_attempts", 3)
	v.SetDefault("archive.retry_delay", 3*time.Second)
	v.SetDefault("archive.work_dir", "/tmp/climate-coverage")

	v.SetDefault("ingestion.datasets", []string{"kl-daily"})
	v.SetDefault("ingestion.stations", []int{})
	v.SetDefault("ingestion.schedule", "")
}

// Validate checks the configuration for values the services cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database max_open_conns must be positive")
	}
	if c.Archive.Host == "" {
		return fmt.Errorf("archive host is required")
	}
	if c.Archive.RetryAttempts == 0 {
		return fmt.Errorf("archive retry_attempts must be positive")
	}
	for _, key := range c.Ingestion.Datasets {
		if _, ok := models.DatasetByKey(key); !ok {
			return fmt.Errorf("unknown dataset key: %s", key)
		}
	}
	return nil
}
