package e2e

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
	// E2E_WEBHOOK_SECRET is the shared token the fake transport echoes back
	WebhookSecret string `envconfig:"E2E_WEBHOOK_SECRET" default:"e2e-secret"`
	// E2E_PENDING_LEASE bounds how long a reservation may stay pending
	PendingLease time.Duration `envconfig:"E2E_PENDING_LEASE" default:"1m"`
	// E2E_WAIT_TIMEOUT bounds how long scenarios wait for async outcomes
	WaitTimeout time.Duration `envconfig:"E2E_WAIT_TIMEOUT" default:"5s"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
