package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Port       string `env:"PORT" envDefault:"8080"`
	AppEnv     string `env:"APP_ENV" envDefault:"development"`
	DBURL      string `env:"DB_URL,required,notEmpty"`
	JWTSecret  string `env:"JWT_SECRET,required,notEmpty"`
	CORSOrigin string `env:"CORS_ORIGIN" envDefault:"http://localhost:5173"`

	StripeWebhookSecret string `env:"STRIPE_WEBHOOK_SECRET"`

	RedisURL     string        `env:"REDIS_URL"`
	TierCacheTTL time.Duration `env:"TIER_CACHE_TTL" envDefault:"10m"`

	UnderwriterURL     string        `env:"UNDERWRITER_API_URL"`
	UnderwriterKey     string        `env:"UNDERWRITER_API_KEY"`
	UnderwriterTimeout time.Duration `env:"UNDERWRITER_TIMEOUT" envDefault:"10s"`

	// Consecutive failed payments after which an active subscription expires.
	FailedPaymentThreshold int           `env:"FAILED_PAYMENT_THRESHOLD" envDefault:"3"`
	RenewalGracePeriod     time.Duration `env:"RENEWAL_GRACE_PERIOD" envDefault:"168h"`
	ExpirySchedule         string        `env:"EXPIRY_SCHEDULE" envDefault:"@hourly"`

	SeedTiers bool `env:"SEED_TIERS" envDefault:"true"`
}

func (c Config) IsProduction() bool {
	return c.AppEnv == "production" || c.AppEnv == "prod"
}

// LoadEnv reads .env (if present) and the process environment. Missing
// required variables are fatal.
func LoadEnv() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Using system environment variables.")
	}

	cfg, err := Parse()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	return cfg
}

func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
