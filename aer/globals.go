package internal

import (
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

var (
	// DefaultAppName is used for config lookup, env prefixes and dot directories
	DefaultAppName          = "aer"
	DefaultEnvPrefix        = strings.ToUpper(DefaultAppName)
	DefaultConfigPath       = filepath.Join(getHomeDir(), ".config", DefaultAppName)
	DefaultGlobalConfigFile = filepath.Join(DefaultConfigPath, "config.yaml")

	// Catalog defaults
	DefaultCatalogRoot = "."
	DefaultIgnoreFiles = []string{".gitignore", ".ignore"}
	DefaultWorkers     = 4

	// Server defaults
	DefaultListenAddress = "0.0.0.0:9999"
	DefaultPublicURL     = "http://localhost:9999/media"

	// Fingerprint store defaults
	DefaultStoreDriver     = "memory"
	DefaultStoreDSN        = "file:" + filepath.Join(DefaultConfigPath, "cache.db")
	DefaultStoreTTLSeconds = 24 * 60 * 60
	DefaultStoreSize       = 1 << 16
	DefaultStoreKeyPrefix  = "md5:"
)

func getHomeDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current working directory if home directory is unavailable
		cwd, cwdErr := os.Getwd()
		if cwdErr != nil {
			log.Printf("Unable to get home or working directory, using /tmp: %v", err)
			return "/tmp"
		}
		log.Printf("Unable to get home directory, using current working directory: %v", err)
		return cwd
	}
	return homeDir
}

// GetLogger returns a properly configured zerolog logger instance
func GetLogger() zerolog.Logger {
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// NewLogger builds a logger with the given level name. Unknown levels fall back to info.
// Pretty output uses the console writer, intended for interactive use.
func NewLogger(level string, pretty bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	if pretty {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl).With().Timestamp().Logger()
	}
	return GetLogger().Level(lvl)
}
