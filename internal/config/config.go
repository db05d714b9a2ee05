package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAppName          = "RippleMobile"
	defaultAppEnv           = "development"
	defaultPort             = "8080"
	defaultLogLevel         = "info"
	defaultShutdownDelay    = 10 * time.Second
	defaultIdempotencyTTL   = 24 * time.Hour
	defaultFaucetURL        = "https://faucet.altnet.rippletest.net/accounts"
	defaultRequestTimeout   = 10 * time.Second
	defaultConfirmTimeout   = 30 * time.Second
	defaultPollInterval     = time.Second
	defaultMaxFeeDrops      = 2_000_000
	defaultBreakerFailures  = 5
	defaultBreakerOpen      = 30 * time.Second
	defaultSMSTopic         = "sms.outbound"
	defaultHistoryLimit     = 10
	defaultPINAttempts      = 5
	idemTTLSecondsEnvVar    = "IDEMPOTENCY_TTL_SECONDS"
	idemTTLDurEnvVar        = "IDEMPOTENCY_TTL"
	shutdownSecondsEnvVar   = "SHUTDOWN_TIMEOUT_SECONDS"
	shutdownDurationEnvVar  = "SHUTDOWN_TIMEOUT"
	requestTimeoutEnvVar    = "LEDGER_REQUEST_TIMEOUT"
	confirmTimeoutEnvVar    = "LEDGER_CONFIRM_TIMEOUT"
	pollIntervalEnvVar      = "LEDGER_POLL_INTERVAL"
	breakerOpenEnvVar       = "BREAKER_OPEN_TIMEOUT"
	maxFeeEnvVar            = "LEDGER_MAX_FEE_DROPS"
	breakerFailuresEnvVar   = "BREAKER_CONSECUTIVE_FAILURES"
	historyLimitEnvVar      = "HISTORY_LIMIT"
	pinAttemptsEnvVar       = "PIN_ATTEMPTS_PER_MINUTE"
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName        string
	AppEnv         string
	Port           string
	LogLevel       string
	DatabaseURL    string
	RedisURL       string
	ShutdownPeriod time.Duration
	IdempotencyTTL time.Duration

	JSONRPCURL     string
	FaucetURL      string
	RequestTimeout time.Duration
	ConfirmTimeout time.Duration
	PollInterval   time.Duration
	MaxFeeDrops    int64

	BreakerFailures    uint32
	BreakerOpenTimeout time.Duration

	KafkaBrokers []string
	SMSTopic     string

	HistoryLimit         int
	PINAttemptsPerMinute int
}

// Load reads configuration values from the environment and populates a Config instance.
func Load() (Config, error) {
	cfg := Config{
		AppName:              getEnv("APP_NAME", defaultAppName),
		AppEnv:               getEnv("APP_ENV", defaultAppEnv),
		Port:                 getEnv("PORT", defaultPort),
		LogLevel:             strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		RedisURL:             os.Getenv("REDIS_URL"),
		ShutdownPeriod:       defaultShutdownDelay,
		IdempotencyTTL:       defaultIdempotencyTTL,
		JSONRPCURL:           os.Getenv("JSON_RPC_URL"),
		FaucetURL:            getEnv("FAUCET_URL", defaultFaucetURL),
		RequestTimeout:       defaultRequestTimeout,
		ConfirmTimeout:       defaultConfirmTimeout,
		PollInterval:         defaultPollInterval,
		MaxFeeDrops:          defaultMaxFeeDrops,
		BreakerFailures:      defaultBreakerFailures,
		BreakerOpenTimeout:   defaultBreakerOpen,
		KafkaBrokers:         splitList(os.Getenv("KAFKA_BROKERS")),
		SMSTopic:             getEnv("SMS_TOPIC", defaultSMSTopic),
		HistoryLimit:         defaultHistoryLimit,
		PINAttemptsPerMinute: defaultPINAttempts,
	}

	if v := os.Getenv(shutdownSecondsEnvVar); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", shutdownSecondsEnvVar, err)
		}
		cfg.ShutdownPeriod = time.Duration(seconds) * time.Second
	} else if v := os.Getenv(shutdownDurationEnvVar); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", shutdownDurationEnvVar, err)
		}
		cfg.ShutdownPeriod = d
	}

	if v := os.Getenv(idemTTLSecondsEnvVar); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", idemTTLSecondsEnvVar, err)
		}
		cfg.IdempotencyTTL = time.Duration(seconds) * time.Second
	} else if v := os.Getenv(idemTTLDurEnvVar); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", idemTTLDurEnvVar, err)
		}
		cfg.IdempotencyTTL = d
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{requestTimeoutEnvVar, &cfg.RequestTimeout},
		{confirmTimeoutEnvVar, &cfg.ConfirmTimeout},
		{pollIntervalEnvVar, &cfg.PollInterval},
		{breakerOpenEnvVar, &cfg.BreakerOpenTimeout},
	}
	for _, d := range durations {
		if err := parseDuration(d.key, d.dst); err != nil {
			return Config{}, err
		}
	}

	if v := os.Getenv(maxFeeEnvVar); v != "" {
		fee, err := strconv.ParseInt(v, 10, 64)
		if err != nil || fee <= 0 {
			return Config{}, fmt.Errorf("invalid %s: %q", maxFeeEnvVar, v)
		}
		cfg.MaxFeeDrops = fee
	}
	if v := os.Getenv(breakerFailuresEnvVar); v != "" {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil || n == 0 {
			return Config{}, fmt.Errorf("invalid %s: %q", breakerFailuresEnvVar, v)
		}
		cfg.BreakerFailures = uint32(n)
	}
	if err := parsePositiveInt(historyLimitEnvVar, &cfg.HistoryLimit); err != nil {
		return Config{}, err
	}
	if err := parsePositiveInt(pinAttemptsEnvVar, &cfg.PINAttemptsPerMinute); err != nil {
		return Config{}, err
	}

	if cfg.JSONRPCURL == "" {
		return Config{}, fmt.Errorf("JSON_RPC_URL must be set")
	}
	if cfg.ConfirmTimeout <= 0 || cfg.RequestTimeout <= 0 {
		return Config{}, fmt.Errorf("ledger timeouts must be positive")
	}

	if !cfg.IsDevelopment() {
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL must be set")
		}
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("REDIS_URL must be set")
		}
	}

	return cfg, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

// IsDevelopment reports whether in-memory fallbacks are allowed.
func (c Config) IsDevelopment() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func parseDuration(key string, dst *time.Duration) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = d
	return nil
}

func parsePositiveInt(key string, dst *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fmt.Errorf("invalid %s: %q", key, v)
	}
	*dst = n
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
