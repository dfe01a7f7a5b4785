// Package env reads configuration values from a .env file when one is
// present, falling back to the process environment. Container deployments
// usually ship no file at all and rely on injected variables.
package env

import (
	"os"

	"github.com/joho/godotenv"
)

var fileVars map[string]string

// GetEnv returns the value for key, preferring the loaded .env file over
// the process environment, or def when neither has it.
func GetEnv(key, def string) string {
	if val, ok := fileVars[key]; ok {
		return val
	}
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// SetupEnvFile loads the first .env file found near the working directory.
// Not finding one is fine; GetEnv then reads the process environment only.
func SetupEnvFile() {
	candidates := []string{
		".env",
		"../../.env", // from cmd/reciboscan during development
	}

	for _, candidate := range candidates {
		vars, err := godotenv.Read(candidate)
		if err == nil {
			fileVars = vars
			return
		}
	}

	fileVars = map[string]string{}
}

func IsDev() bool {
	return GetEnv("APP_ENV", "prod") == "dev"
}
