package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/eleven-am/recipe-api/internal/migrator"
	"gopkg.in/yaml.v3"
)

// configLocations are searched in order when --config is not given
var configLocations = []string{"recipes.yaml", "recipes.yml", ".recipes.yaml", ".recipes.yml"}

// Config represents the recipes.yaml configuration structure
type Config struct {
	Server struct {
		Addr              string        `yaml:"addr"`
		ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
		ReadTimeout       time.Duration `yaml:"read_timeout"`
		WriteTimeout      time.Duration `yaml:"write_timeout"`
		IdleTimeout       time.Duration `yaml:"idle_timeout"`
		ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Database struct {
		URL              string        `yaml:"url"`
		Host             string        `yaml:"host"`
		Port             string        `yaml:"port"`
		Name             string        `yaml:"name"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		SSLMode          string        `yaml:"sslmode"`
		MaxOpenConns     int           `yaml:"max_open_conns"`
		MaxIdleConns     int           `yaml:"max_idle_conns"`
		ConnMaxLifetime  time.Duration `yaml:"conn_max_lifetime"`
		StatementTimeout time.Duration `yaml:"statement_timeout"`
	} `yaml:"database"`

	Auth struct {
		BcryptCost int `yaml:"bcrypt_cost"`
	} `yaml:"auth"`

	CORS struct {
		Origins []string `yaml:"origins"`
	} `yaml:"cors"`

	Admin struct {
		SecureCookie bool `yaml:"secure_cookie"`
	} `yaml:"admin"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// DefaultConfig returns the settings used when nothing else is configured
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Server.Addr = ":8000"
	cfg.Server.ReadHeaderTimeout = 10 * time.Second
	cfg.Server.ReadTimeout = 30 * time.Second
	cfg.Server.WriteTimeout = 30 * time.Second
	cfg.Server.IdleTimeout = 2 * time.Minute
	cfg.Server.ShutdownTimeout = 15 * time.Second

	cfg.Database.Host = "localhost"
	cfg.Database.Port = "5432"
	cfg.Database.Name = "recipes"
	cfg.Database.User = "postgres"
	cfg.Database.SSLMode = "disable"
	cfg.Database.MaxOpenConns = 10
	cfg.Database.MaxIdleConns = 5
	cfg.Database.ConnMaxLifetime = 10 * time.Minute
	cfg.Database.StatementTimeout = 30 * time.Second

	cfg.Log.Level = "info"
	cfg.Log.Format = "text"
	return cfg
}

// LoadConfig reads the config file, if any, over the defaults and then
// applies environment overrides. A missing file is not an error unless it
// was named explicitly.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = GetConfigPath()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnv(cfg, os.Getenv)
	return cfg, nil
}

// GetConfigPath returns the first config file found, RECIPES_CONFIG first
func GetConfigPath() string {
	if path := os.Getenv("RECIPES_CONFIG"); path != "" {
		return path
	}

	for _, loc := range configLocations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

func applyEnv(cfg *Config, getenv func(string) string) {
	set := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}

	set("DB_HOST", &cfg.Database.Host)
	set("DB_PORT", &cfg.Database.Port)
	set("DB_NAME", &cfg.Database.Name)
	set("DB_USER", &cfg.Database.User)
	set("DB_PASS", &cfg.Database.Password)
	set("DB_SSLMODE", &cfg.Database.SSLMode)
	set("DATABASE_URL", &cfg.Database.URL)
	set("LOG_LEVEL", &cfg.Log.Level)

	if port := getenv("PORT"); port != "" {
		cfg.Server.Addr = ":" + strings.TrimPrefix(port, ":")
	}
	if origins := getenv("CORS_ORIGIN"); origins != "" {
		cfg.CORS.Origins = strings.Split(origins, ",")
	}
}

// DatabaseURL is the explicit URL when set, otherwise one built from the parts
func (c *Config) DatabaseURL() string {
	if c.Database.URL != "" {
		return c.Database.URL
	}
	db := c.Database
	return migrator.GetDatabaseURL(db.Host, db.Port, db.User, db.Password, db.Name, db.SSLMode)
}

// DBConfig converts the database section for the migrator package
func (c *Config) DBConfig() *migrator.DBConfig {
	cfg := migrator.NewDBConfig(c.DatabaseURL())
	if c.Database.MaxOpenConns > 0 {
		cfg.MaxOpenConns = c.Database.MaxOpenConns
	}
	if c.Database.MaxIdleConns > 0 {
		cfg.MaxIdleConns = c.Database.MaxIdleConns
	}
	if c.Database.ConnMaxLifetime > 0 {
		cfg.ConnMaxLifetime = c.Database.ConnMaxLifetime
	}
	cfg.StatementTimeout = c.Database.StatementTimeout
	return cfg
}

// SaveConfig writes cfg as YAML, creating the parent directory
func SaveConfig(cfg *Config, path string) error {
	if path == "" {
		path = "recipes.yaml"
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
