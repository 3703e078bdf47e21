package config

import (
	"time"

	"github.com/joho/godotenv"
)

type Config interface {
	GetAppName() string
	GetAPIBaseURL() string
	GetHTTPTimeout() time.Duration
	GetLanguage() string
}

type mainConfig struct {
	EnvVars
}

// New loads a .env file when present and returns the environment-backed
// configuration.
func New() Config {
	_ = godotenv.Load()
	return mainConfig{}
}
