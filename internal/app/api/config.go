package api

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.temporal.io/sdk/client"

	usersapp "github.com/hamrobooks/bookstore-api/internal/domains/users/application"
)

// DefaultKhaltiBaseURL targets the provider sandbox; production deploys
// override it via KHALTI_BASE_URL.
const DefaultKhaltiBaseURL = "https://dev.khalti.com/api/v2"

// Config carries environment-driven settings for the API process.
type Config struct {
	Port              string
	PostgresDSN       string
	KhaltiSecretKey   string
	KhaltiBaseURL     string
	KhaltiWebsiteURL  string
	PaymentReturnURL  string
	TemporalAddress   string
	TemporalNamespace string
	TemporalDisabled  bool
	SessionTTL        time.Duration
}

// LoadConfig reads environment variables, applies defaults, and validates basic constraints.
func LoadConfig() (Config, error) {
	cfg := Config{
		Port:              envDefault("PORT", "8080"),
		PostgresDSN:       strings.TrimSpace(os.Getenv("POSTGRES_DSN")),
		KhaltiSecretKey:   strings.TrimSpace(os.Getenv("KHALTI_SECRET_KEY")),
		KhaltiBaseURL:     envDefault("KHALTI_BASE_URL", DefaultKhaltiBaseURL),
		KhaltiWebsiteURL:  envDefault("KHALTI_WEBSITE_URL", "http://localhost:5173"),
		PaymentReturnURL:  envDefault("PAYMENT_RETURN_URL", "http://localhost:5173/payment/success"),
		TemporalAddress:   envDefault("TEMPORAL_ADDRESS", client.DefaultHostPort),
		TemporalNamespace: envDefault("TEMPORAL_NAMESPACE", client.DefaultNamespace),
		TemporalDisabled:  isTruthy(os.Getenv("TEMPORAL_DISABLED")),
		SessionTTL:        usersapp.DefaultSessionTTL,
	}
	if raw := strings.TrimSpace(os.Getenv("SESSION_TTL_HOURS")); raw != "" {
		hours, err := strconv.Atoi(raw)
		if err != nil || hours <= 0 {
			return Config{}, fmt.Errorf("SESSION_TTL_HOURS must be a positive integer")
		}
		cfg.SessionTTL = time.Duration(hours) * time.Hour
	}
	return cfg, nil
}

func envDefault(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func isTruthy(value string) bool {
	value = strings.TrimSpace(strings.ToLower(value))
	return value == "1" || value == "true" || value == "yes"
}
