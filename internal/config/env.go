package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// env is the process-wide viper instance variables are resolved through:
// AutomaticEnv means every Get* call below reads straight from the process
// environment, so values loaded into it by LoadEnvFiles take effect without
// an explicit Bind per key (SPEC_FULL.md §10.3).
var env = func() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	return v
}()

// LoadEnvFiles loads .env files in order of decreasing precedence:
// .env.local first, then .env, then .env.example (fallback defaults).
// godotenv.Load never replaces a variable that is already set, so the first
// file to set a key wins, and the process environment wins over every file.
func LoadEnvFiles() {
	for _, file := range []string{".env.local", ".env", ".env.example"} {
		if _, err := os.Stat(file); err == nil {
			godotenv.Load(file)
		}
	}
}

// EnvLoader handles loading environment variables from a .env file.
type EnvLoader struct {
	loaded bool
	path   string
}

// NewEnvLoader creates an environment loader
func NewEnvLoader() *EnvLoader {
	return &EnvLoader{}
}

// Load loads environment variables from .env file in project root
// This ensures all secrets come from a single source
func (e *EnvLoader) Load() error {
	if e.loaded {
		return nil // Already loaded
	}

	// Try to find .env file in current directory or parent directories
	envPath, err := findEnvFile()
	if err != nil {
		return fmt.Errorf("failed to find .env file: %w\nPlease create .env from .env.example", err)
	}

	e.path = envPath

	// Load any .env.local before the .env file: godotenv.Load never replaces
	// a variable that is already set, so .env.local overrides .env, and
	// LoadEnvFiles then only fills keys that are still unset.
	if _, err := os.Stat(".env.local"); err == nil {
		godotenv.Load(".env.local")
	}
	if err := godotenv.Load(envPath); err != nil {
		return fmt.Errorf("failed to load %s: %w", envPath, err)
	}
	LoadEnvFiles()

	e.loaded = true
	return nil
}

// MustLoad loads .env or panics (use for CLI commands).
func (e *EnvLoader) MustLoad() {
	if err := e.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprintf(os.Stderr, "\nQuick setup:\n")
		fmt.Fprintf(os.Stderr, "  1. cp .env.example .env\n")
		fmt.Fprintf(os.Stderr, "  2. Edit .env and set WG_CYPHER_HOST/WG_CYPHER_PORT or WG_GREMLIN_HOST/WG_GREMLIN_PORT\n")
		os.Exit(1)
	}
}

// GetPath returns the path to the loaded .env file
func (e *EnvLoader) GetPath() string {
	return e.path
}

// Validate checks that at least one graph backend's endpoint variables are
// present, so a misconfigured deployment fails fast rather than at the
// first query.
func (e *EnvLoader) Validate() error {
	haveCypher := os.Getenv("WG_CYPHER_HOST") != "" && os.Getenv("WG_CYPHER_PORT") != ""
	haveGremlin := os.Getenv("WG_GREMLIN_HOST") != "" && os.Getenv("WG_GREMLIN_PORT") != ""
	if !haveCypher && !haveGremlin {
		return fmt.Errorf("missing backend configuration: set WG_CYPHER_HOST/WG_CYPHER_PORT or WG_GREMLIN_HOST/WG_GREMLIN_PORT")
	}
	return nil
}

// findEnvFile searches for .env file in current and parent directories
func findEnvFile() (string, error) {
	// Try current directory first
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	// Search up the directory tree (max 5 levels)
	searchPath := cwd
	for i := 0; i < 5; i++ {
		envPath := filepath.Join(searchPath, ".env")
		if _, err := os.Stat(envPath); err == nil {
			return envPath, nil
		}

		// Move up one directory
		parent := filepath.Dir(searchPath)
		if parent == searchPath {
			break // Reached root
		}
		searchPath = parent
	}

	return "", fmt.Errorf(".env file not found in %s or parent directories", cwd)
}

// Helper functions for type-safe environment variable access

// GetString returns string value or default
func GetString(key, defaultVal string) string {
	if val := env.GetString(key); val != "" {
		return val
	}
	return defaultVal
}

// GetInt returns int value or default
func GetInt(key string, defaultVal int) int {
	if val := env.GetString(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

// GetBool returns bool value or default
func GetBool(key string, defaultVal bool) bool {
	if val := env.GetString(key); val != "" {
		if boolVal, err := strconv.ParseBool(val); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

// MustGetString returns string value or panics
func MustGetString(key string) string {
	val := env.GetString(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}
