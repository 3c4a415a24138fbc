package config

import (
	"fmt"
	"path/filepath"
	"strings"

	internal "github.com/Nachtalb/aer/aer"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config stores all configuration of the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	Catalog    CatalogConfig    `mapstructure:"catalog"`
	Server     ServerConfig     `mapstructure:"server"`
	Store      StoreConfig      `mapstructure:"store"`
	Categories CategoriesConfig `mapstructure:"categories"`
	Log        LogConfig        `mapstructure:"log"`
}

// CatalogConfig stores traversal and listing settings.
type CatalogConfig struct {
	Root           string   `mapstructure:"root"`
	IncludeHidden  bool     `mapstructure:"includeHidden"`
	FollowSymlinks bool     `mapstructure:"followSymlinks"`
	IgnoreFiles    []string `mapstructure:"ignoreFiles"`
	Workers        int      `mapstructure:"workers"`
}

// ServerConfig stores HTTP presentation settings.
type ServerConfig struct {
	Address   string `mapstructure:"address"`
	PublicURL string `mapstructure:"publicURL"`
}

// StoreConfig stores fingerprint cache backend settings.
type StoreConfig struct {
	Driver     string `mapstructure:"driver"`
	DSN        string `mapstructure:"dsn"`
	TTLSeconds int    `mapstructure:"ttlSeconds"`
	Size       int    `mapstructure:"size"`
	KeyPrefix  string `mapstructure:"keyPrefix"`
}

// CategoriesConfig extends the built-in category table.
// Primitives map a name to extensions, composites map a name to included category names.
type CategoriesConfig struct {
	Primitives map[string][]string `mapstructure:"primitives"`
	Composites map[string][]string `mapstructure:"composites"`
}

// LogConfig stores logger settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// LoadConfig reads configuration from file or environment variables.
// A .env file in the working directory is loaded first when present.
func LoadConfig(configPath string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("..")
		v.AddConfigPath(filepath.Join("/etc", internal.DefaultAppName))
		v.AddConfigPath(internal.DefaultConfigPath)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	setDefaults(v)

	v.SetEnvPrefix(internal.DefaultEnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // catalog.root becomes AER_CATALOG_ROOT
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("catalog.root", internal.DefaultCatalogRoot)
	v.SetDefault("catalog.includeHidden", false)
	v.SetDefault("catalog.followSymlinks", false)
	v.SetDefault("catalog.ignoreFiles", internal.DefaultIgnoreFiles)
	v.SetDefault("catalog.workers", internal.DefaultWorkers)

	v.SetDefault("server.address", internal.DefaultListenAddress)
	v.SetDefault("server.publicURL", internal.DefaultPublicURL)

	v.SetDefault("store.driver", internal.DefaultStoreDriver)
	v.SetDefault("store.dsn", internal.DefaultStoreDSN)
	v.SetDefault("store.ttlSeconds", internal.DefaultStoreTTLSeconds)
	v.SetDefault("store.size", internal.DefaultStoreSize)
	v.SetDefault("store.keyPrefix", internal.DefaultStoreKeyPrefix)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
}

// Validate checks values that cannot be corrected by defaults.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Catalog.Root) == "" {
		return fmt.Errorf("catalog.root cannot be empty")
	}
	if c.Catalog.Workers < 1 {
		return fmt.Errorf("catalog.workers must be at least 1: %d", c.Catalog.Workers)
	}
	switch c.Store.Driver {
	case "memory":
		if c.Store.Size < 1 {
			return fmt.Errorf("store.size must be at least 1: %d", c.Store.Size)
		}
	case "libsql":
		if strings.TrimSpace(c.Store.DSN) == "" {
			return fmt.Errorf("store.dsn cannot be empty for the libsql driver")
		}
	default:
		return fmt.Errorf("unsupported store.driver %q", c.Store.Driver)
	}
	if c.Store.TTLSeconds < 0 {
		return fmt.Errorf("store.ttlSeconds cannot be negative: %d", c.Store.TTLSeconds)
	}
	return nil
}
