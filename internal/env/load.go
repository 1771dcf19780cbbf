// Package env loads process environment variables.
package env

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

// LoadEnv reads .env files into the environment. Missing files are fine; the
// variables may be set directly.
func LoadEnv(files ...string) {
	if err := godotenv.Load(files...); err != nil {
		slog.Debug("No .env file found, assuming environment variables are set directly.")
	}
}

// Get returns the value of key or fallback when unset.
func Get(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

// MustGetEnv returns the value of key and panics when it is unset.
func MustGetEnv(key string) string {
	val, ok := os.LookupEnv(key)
	if !ok {
		panic(fmt.Sprintf("environment variable %s not set", key))
	}
	return val
}
