package internal

import (
	"fmt"
	"time"
)

type Config struct {
	BadgerFilepath  string        `env:"BADGER_FILEPATH,required=true"`
	LogLevel        string        `env:"LOG_LEVEL,required=true"`
	Host            string        `env:"HOST,required=true"`
	Port            int           `env:"PORT,required=true"`
	NumberOfWorkers int           `env:"NUMBER_OF_WORKERS,required=true"`
	BufferSize      int           `env:"BUFFER_SIZE,required=true"`
	SinkTimeout     time.Duration `env:"SINK_TIMEOUT,required=true"`

	MatchMaxAttempts int           `env:"MATCH_MAX_ATTEMPTS,required=true"`
	PendingLease     time.Duration `env:"PENDING_LEASE,required=true"`

	BotToken      string `env:"BOT_TOKEN,required=true"`
	WebhookURL    string `env:"WEBHOOK_URL,required=true"`
	WebhookSecret string `env:"WEBHOOK_SECRET,required=true"`

	// Optional fallback responder for participants without a partner.
	GeminiAPIKey *string `env:"GEMINI_API_KEY"`
	GeminiModel  *string `env:"GEMINI_MODEL"`

	DebugPort *int `env:"DEBUG_PORT"`
}

// Addr is the listen address of the webhook server.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
