package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for our application
type Config struct {
	// Server configuration
	Port           string
	GinMode        string
	APIVersion     string
	APIPrefix      string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig

	RateLimit RateLimitConfig

	LogLevel string

	// Pipeline
	Booking      BookingConfig
	Availability AvailabilityConfig
	Payments     PaymentsConfig
	Escrow       EscrowConfig

	// External services
	Kafka KafkaConfig
	Email EmailConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	DSN      string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Addr     string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret string
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled                 bool          `json:"enabled"`
	WindowDuration          time.Duration `json:"window_duration"`
	DefaultRequests         int           `json:"default_requests"`
	PublicRequests          int           `json:"public_requests"`
	BookingRequests         int           `json:"booking_requests"`
	BookingCriticalRequests int           `json:"booking_critical_requests"`
	AdminRequests           int           `json:"admin_requests"`
	HealthRequests          int           `json:"health_requests"`
	WhitelistedIPs          []string      `json:"whitelisted_ips"`
}

// BookingConfig controls draft lifetime and default pricing split
type BookingConfig struct {
	AdvancePercentage int
	DraftTTL          time.Duration
	PayLockTTL        time.Duration
}

// AvailabilityConfig selects where availability is read from
type AvailabilityConfig struct {
	SourceURL     string // empty means the local availability_slots table
	SourceTimeout time.Duration
	CacheTTL      time.Duration
}

// PaymentsConfig holds payment processor settings
type PaymentsConfig struct {
	Provider        string // "stripe" or "callback"
	Currency        string
	KeyID           string
	KeySecret       string
	StripeSecretKey string
	VerifyTimeout   time.Duration
	CheckoutTimeout time.Duration
}

// EscrowConfig holds escrow defaults and job intervals
type EscrowConfig struct {
	CommissionPercentage int
	AutoReleaseDays      int
	AutoReleaseInterval  time.Duration
	ReconcileInterval    time.Duration
	MaxReconcileAttempts int
	BatchSize            int
}

// KafkaConfig holds pipeline event bus configuration
type KafkaConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
	GroupID string
}

// EmailConfig holds email configuration
type EmailConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromEmail    string
	SupportEmail string
}

// Load loads configuration from environment variables
func Load() *Config {
	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		APIVersion:     getEnv("API_VERSION", "v1"),
		APIPrefix:      getEnv("API_PREFIX", "/api"),
		ReadTimeout:    getDurationEnv("READ_TIMEOUT", 15*time.Second),
		// pay requests can park on a hosted checkout, so writes get a longer budget
		WriteTimeout:   getDurationEnv("WRITE_TIMEOUT", 12*time.Minute),
		IdleTimeout:    getDurationEnv("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes: getIntEnv("MAX_HEADER_BYTES", 1<<20), // 1 MB

		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			Name:     getEnv("DB_NAME", "wedbook_db"),
			User:     getEnv("DB_USER", "wedbook_user"),
			Password: getEnv("DB_PASSWORD", "wedbook_password"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},

		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "your-super-secret-jwt-key"),
		},

		RateLimit: RateLimitConfig{
			Enabled:                 getBoolEnv("RATE_LIMIT_ENABLED", true),
			WindowDuration:          getDurationEnv("RATE_LIMIT_WINDOW_DURATION", 60*time.Second),
			DefaultRequests:         getIntEnv("RATE_LIMIT_DEFAULT_REQUESTS", 60),
			PublicRequests:          getIntEnv("RATE_LIMIT_PUBLIC_REQUESTS", 100),
			BookingRequests:         getIntEnv("RATE_LIMIT_BOOKING_REQUESTS", 30),
			BookingCriticalRequests: getIntEnv("RATE_LIMIT_BOOKING_CRITICAL_REQUESTS", 10),
			AdminRequests:           getIntEnv("RATE_LIMIT_ADMIN_REQUESTS", 200),
			HealthRequests:          getIntEnv("RATE_LIMIT_HEALTH_REQUESTS", 300),
			WhitelistedIPs:          getStringSliceEnv("RATE_LIMIT_WHITELISTED_IPS", []string{}),
		},

		LogLevel: getEnv("LOG_LEVEL", "debug"),

		Booking: BookingConfig{
			AdvancePercentage: getPercentEnv("BOOKING_ADVANCE_PERCENTAGE", 30),
			DraftTTL:          getDurationEnv("BOOKING_DRAFT_TTL", 2*time.Hour),
			PayLockTTL:        getDurationEnv("BOOKING_PAY_LOCK_TTL", 15*time.Minute),
		},

		Availability: AvailabilityConfig{
			SourceURL:     getEnv("AVAILABILITY_SOURCE_URL", ""),
			SourceTimeout: getDurationEnv("AVAILABILITY_SOURCE_TIMEOUT", 5*time.Second),
			CacheTTL:      getDurationEnv("AVAILABILITY_CACHE_TTL", 30*time.Second),
		},

		Payments: PaymentsConfig{
			Provider:        getEnv("PAYMENT_PROVIDER", "callback"),
			Currency:        getEnv("PAYMENT_CURRENCY", "INR"),
			KeyID:           getEnv("PAYMENT_KEY_ID", ""),
			KeySecret:       getEnv("PAYMENT_KEY_SECRET", ""),
			StripeSecretKey: getEnv("STRIPE_SECRET_KEY", ""),
			VerifyTimeout:   getDurationEnv("PAYMENT_VERIFY_TIMEOUT", 30*time.Second),
			CheckoutTimeout: getDurationEnv("PAYMENT_CHECKOUT_TIMEOUT", 10*time.Minute),
		},

		Escrow: EscrowConfig{
			CommissionPercentage: getPercentEnv("ESCROW_COMMISSION_PERCENTAGE", 10),
			AutoReleaseDays:      getIntEnv("ESCROW_AUTO_RELEASE_DAYS", 7),
			AutoReleaseInterval:  getDurationEnv("ESCROW_AUTO_RELEASE_INTERVAL", 15*time.Minute),
			ReconcileInterval:    getDurationEnv("ESCROW_RECONCILE_INTERVAL", 1*time.Minute),
			MaxReconcileAttempts: getIntEnv("ESCROW_MAX_RECONCILE_ATTEMPTS", 5),
			BatchSize:            getIntEnv("ESCROW_JOB_BATCH_SIZE", 100),
		},

		Kafka: KafkaConfig{
			Enabled: getBoolEnv("KAFKA_ENABLED", false),
			Brokers: getStringSliceEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
			Topic:   getEnv("PIPELINE_TOPIC", "wedbook.pipeline"),
			GroupID: getEnv("CONSUMER_GROUP_ID", "wedbook-notification-workers"),
		},

		Email: EmailConfig{
			SMTPHost:     getEnv("SMTP_HOST", ""),
			SMTPPort:     getIntEnv("SMTP_PORT", 587),
			SMTPUsername: getEnv("SMTP_USERNAME", ""),
			SMTPPassword: getEnv("SMTP_PASSWORD", ""),
			FromEmail:    getEnv("FROM_EMAIL", "noreply@wedbook.in"),
			SupportEmail: getEnv("SUPPORT_EMAIL", "support@wedbook.in"),
		},
	}

	cfg.Database.DSN = buildDatabaseDSN(cfg.Database)
	cfg.Redis.Addr = cfg.Redis.Host + ":" + cfg.Redis.Port

	return cfg
}

// buildDatabaseDSN builds the database connection string
func buildDatabaseDSN(db DatabaseConfig) string {
	return "host=" + db.Host +
		" port=" + db.Port +
		" user=" + db.User +
		" password=" + db.Password +
		" dbname=" + db.Name +
		" sslmode=" + db.SSLMode
}

// getEnv gets an environment variable with a fallback value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getIntEnv gets an integer environment variable with a fallback value
func getIntEnv(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return fallback
}

// getPercentEnv is getIntEnv limited to [0,100]; 0 is a valid setting
func getPercentEnv(key string, fallback int) int {
	if value := getIntEnv(key, fallback); value >= 0 && value <= 100 {
		return value
	}
	return fallback
}

// getDurationEnv gets a duration environment variable with a fallback value
func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return fallback
}

// getBoolEnv gets a boolean environment variable with a fallback value
func getBoolEnv(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return fallback
}

// getStringSliceEnv gets a comma-separated string environment variable as a slice
func getStringSliceEnv(key string, fallback []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		var result []string
		for _, part := range parts {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GinMode == "release"
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GinMode == "debug"
}

// GetServerAddress returns the full server address
func (c *Config) GetServerAddress() string {
	return ":" + c.Port
}

// GetAPIBasePath returns the API base path
func (c *Config) GetAPIBasePath() string {
	return c.APIPrefix + "/" + c.APIVersion
}
