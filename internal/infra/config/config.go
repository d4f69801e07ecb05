package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	StorageMemory = "memory"
	StorageMongo  = "mongo"

	PaymentsMemory = "memory"
	PaymentsStripe = "stripe"
)

// Config aggregates application configuration values loaded from environment variables.
type Config struct {
	Env      string `env:"APP_ENV" envDefault:"dev"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`

	StorageMode  string        `env:"STORAGE_MODE" envDefault:"memory"`
	MongoURI     string        `env:"MONGO_URI"`
	MongoDB      string        `env:"MONGO_DB" envDefault:"staybook"`
	MongoTimeout time.Duration `env:"MONGO_TIMEOUT" envDefault:"10s"`

	KafkaBrokers     []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopicPrefix string   `env:"KAFKA_TOPIC_PREFIX"`
	KafkaGroupID     string   `env:"KAFKA_GROUP_ID" envDefault:"staybook-reconciler"`

	PaymentsMode        string `env:"PAYMENTS_MODE" envDefault:"memory"`
	StripeSecretKey     string `env:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `env:"STRIPE_WEBHOOK_SECRET"`
	StripeBaseURL       string `env:"STRIPE_BASE_URL"`
	Currency            string `env:"PAYMENTS_CURRENCY" envDefault:"ILS"`

	OutboxPollInterval       time.Duration   `env:"OUTBOX_POLL_INTERVAL" envDefault:"500ms"`
	CompensationPollInterval time.Duration   `env:"COMPENSATION_POLL_INTERVAL" envDefault:"2s"`
	RetryBackoff             []time.Duration `env:"RETRY_BACKOFF" envSeparator:"," envDefault:"1s,5s,30s"`
	ReconcileWorkers         int             `env:"RECONCILE_WORKERS" envDefault:"4"`
	ConflictRetries          int             `env:"CONFLICT_RETRIES" envDefault:"5"`
	IdempotencyTTL           time.Duration   `env:"IDEMP_TTL" envDefault:"168h"`

	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`
	// FixturesPath points at a JSON file of properties and accounts seeded
	// on startup; empty skips seeding.
	FixturesPath string `env:"FIXTURES_PATH"`
}

var ErrInvalid = errors.New("config: invalid configuration")

// Load parses configuration from the current environment.
func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.StorageMode = strings.ToLower(cfg.StorageMode)
	cfg.PaymentsMode = strings.ToLower(cfg.PaymentsMode)
	cfg.Currency = strings.ToUpper(cfg.Currency)
	cfg.KafkaBrokers = compact(cfg.KafkaBrokers)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	switch c.StorageMode {
	case StorageMemory:
	case StorageMongo:
		if c.MongoURI == "" {
			errs = append(errs, errors.New("MONGO_URI is required when STORAGE_MODE=mongo"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_MODE %q", c.StorageMode))
	}
	switch c.PaymentsMode {
	case PaymentsMemory:
	case PaymentsStripe:
		if c.StripeSecretKey == "" || c.StripeWebhookSecret == "" {
			errs = append(errs, errors.New("STRIPE_SECRET_KEY and STRIPE_WEBHOOK_SECRET are required when PAYMENTS_MODE=stripe"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown PAYMENTS_MODE %q", c.PaymentsMode))
	}
	if len(c.Currency) != 3 {
		errs = append(errs, fmt.Errorf("PAYMENTS_CURRENCY must be a 3-letter code, got %q", c.Currency))
	}
	if c.ReconcileWorkers < 1 {
		errs = append(errs, errors.New("RECONCILE_WORKERS must be at least 1"))
	}
	if len(c.RetryBackoff) == 0 {
		errs = append(errs, errors.New("RETRY_BACKOFF must list at least one delay"))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
}

// KafkaEnabled reports whether outbox relaying and the outcome topic run
// over Kafka instead of in-process channels.
func (c Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func compact(items []string) []string {
	out := items[:0]
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			out = append(out, it)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
