package config

import (
	"os"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
)

// parseEnv overlays values from environment variables onto the Config.
// Only variables that are actually set override earlier layers.
func parseEnv(config *Config) {
	if err := env.Parse(config); err != nil {
		panic(err)
	}

	// Durations are taken as integer hours, matching the JSON overlay.
	if v, ok := os.LookupEnv("SESSION_VALIDITY_HOURS"); ok {
		hours, err := strconv.Atoi(v)
		if err != nil {
			panic(err)
		}
		config.SessionValidity = time.Duration(hours) * time.Hour
	}
}
