package config

import (
	"os"

	"github.com/joho/godotenv"
)

// apiKeyEnv is the environment variable OpenRouter's own tooling uses.
const apiKeyEnv = "OPENROUTER_API_KEY"

// ResolveAPIKey finds the OpenRouter credential. Precedence: environment
// variable, then a .env file in the working directory, then the config file.
// Returns "" when nothing resolves; the transport turns that into an
// auth-missing failure before any network attempt.
func ResolveAPIKey(cfg Config) string {
	if key := os.Getenv(apiKeyEnv); key != "" {
		return key
	}
	// godotenv.Load only fills variables that aren't already set, and a
	// missing .env is not an error.
	if err := godotenv.Load(); err == nil {
		if key := os.Getenv(apiKeyEnv); key != "" {
			return key
		}
	}
	return cfg.APIKey
}
