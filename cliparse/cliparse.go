package cliparse

import (
	"errors"
	"flag"
	"os"
	"strconv"
)

type Config struct {
	Port         int
	DatabaseURL  string
	DatabaseType string
	RedisAddr    string

	// Secrets
	UserTokenSalt        string
	PaymentSecretKey     string
	PaymentWebhookSecret string
	LLMAPIKey            string

	// External service endpoints (overridable for tests)
	PaymentBaseURL string
	LLMBaseURL     string
	LLMModel       string

	// Policy knobs
	VoteCap             int
	FreeGenerationLimit int
	FreePollLimit       int
	AllowAnonymousVotes bool
	CheckoutSuccessURL  string
	CheckoutCancelURL   string
}

// ParseFlags validates flags and fills in environment fallbacks
func ParseFlags(args []string) (Config, error) {
	var cfg Config

	fs := flag.NewFlagSet("namepoll", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")
	fs.StringVar(&cfg.RedisAddr, "redis", "", "Redis address for realtime notifications (optional)")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.UserTokenSalt, "token-salt", "", "User token salt (prefer env)")
	fs.StringVar(&cfg.PaymentSecretKey, "payment-key", "", "Payment processor secret key (prefer env)")
	fs.StringVar(&cfg.PaymentWebhookSecret, "webhook-secret", "", "Webhook signing secret (prefer env)")
	fs.StringVar(&cfg.LLMAPIKey, "llm-key", "", "LLM API key (prefer env)")

	// Policy
	fs.IntVar(&cfg.VoteCap, "vote-cap", 0, "Max simultaneous votes per user per poll")
	fs.BoolVar(&cfg.AllowAnonymousVotes, "allow-anon", false, "Allow anonymous votes with a display name")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = 3319 // default
		}
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = "postgres"
		}
	}

	if cfg.RedisAddr == "" {
		cfg.RedisAddr = os.Getenv("REDIS_ADDR")
	}

	// Secrets - token salt MUST be provided, the rest degrade gracefully
	// (billing and generation endpoints report "not configured")
	if cfg.UserTokenSalt == "" {
		cfg.UserTokenSalt = os.Getenv("USER_TOKEN_SALT")
	}
	if cfg.UserTokenSalt == "" {
		return Config{}, errors.New("USER_TOKEN_SALT required")
	}

	if cfg.PaymentSecretKey == "" {
		cfg.PaymentSecretKey = os.Getenv("PAYMENT_SECRET_KEY")
	}
	if cfg.PaymentWebhookSecret == "" {
		cfg.PaymentWebhookSecret = os.Getenv("PAYMENT_WEBHOOK_SECRET")
	}
	if cfg.LLMAPIKey == "" {
		cfg.LLMAPIKey = os.Getenv("LLM_API_KEY")
	}

	cfg.PaymentBaseURL = envOr("PAYMENT_BASE_URL", "https://api.stripe.com")
	cfg.LLMBaseURL = envOr("LLM_BASE_URL", "https://api.openai.com")
	cfg.LLMModel = envOr("LLM_MODEL", "gpt-4o-mini")
	cfg.CheckoutSuccessURL = envOr("CHECKOUT_SUCCESS_URL", "http://localhost:5173?success=true")
	cfg.CheckoutCancelURL = envOr("CHECKOUT_CANCEL_URL", "http://localhost:5173?canceled=true")

	if cfg.VoteCap == 0 {
		cfg.VoteCap = intEnvOr("VOTE_CAP", 3)
	}
	cfg.FreeGenerationLimit = intEnvOr("FREE_GENERATION_LIMIT", 2)
	cfg.FreePollLimit = intEnvOr("FREE_POLL_LIMIT", 2)

	if !cfg.AllowAnonymousVotes {
		cfg.AllowAnonymousVotes = os.Getenv("ALLOW_ANONYMOUS_VOTES") == "true"
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnvOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
