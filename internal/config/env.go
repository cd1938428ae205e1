package config

import (
	"fmt"

	"github.com/joho/godotenv"
)

// loadEnvFile loads environment variables from .env/.env.local files so that
// ${VAR} references in the YAML config resolve. Existing process environment
// variables are not overwritten. The first file that parses wins.
func loadEnvFile() error {
	envPaths := []string{".env", ".env.local"}
	for _, envPath := range envPaths {
		if err := godotenv.Load(envPath); err == nil {
			return nil
		}
	}
	return fmt.Errorf("no .env file found")
}
