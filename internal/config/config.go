package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Session   SessionConfig   `mapstructure:"session"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Gateway   GatewayConfig   `mapstructure:"gateway"`
	Email     EmailConfig     `mapstructure:"email"`
	Loyalty   LoyaltyConfig   `mapstructure:"loyalty"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Admin     AdminConfig     `mapstructure:"admin"`
	App       AppConfig       `mapstructure:"app"`
}

type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Host           string   `mapstructure:"host"`
	Mode           string   `mapstructure:"mode"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	Host         string `mapstructure:"host"`
	Port         string `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Name         string `mapstructure:"name"`
	SSLMode      string `mapstructure:"ssl_mode"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Address  string `mapstructure:"url"` // overrides the components when set
}

type NATSConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	URL           string        `mapstructure:"url"`
	ReconnectWait time.Duration `mapstructure:"reconnect_wait"`
}

type SessionConfig struct {
	CookieName string        `mapstructure:"cookie_name"`
	Secret     string        `mapstructure:"secret"`
	TTL        time.Duration `mapstructure:"ttl"`
	Secure     bool          `mapstructure:"secure"`
}

type StorageConfig struct {
	Provider       string `mapstructure:"provider"` // local, s3, gcs
	Bucket         string `mapstructure:"bucket"`
	PublicBaseURL  string `mapstructure:"public_base_url"`
	MaxUploadBytes int64  `mapstructure:"max_upload_bytes"`
	LocalBasePath  string `mapstructure:"local_base_path"`

	S3Region          string `mapstructure:"s3_region"`
	S3Endpoint        string `mapstructure:"s3_endpoint"`
	S3AccessKeyID     string `mapstructure:"s3_access_key_id"`
	S3SecretAccessKey string `mapstructure:"s3_secret_access_key"`
	S3ForcePathStyle  bool   `mapstructure:"s3_force_path_style"`

	GCSProjectID   string `mapstructure:"gcs_project_id"`
	GCSCredentials string `mapstructure:"gcs_credentials_file"`
}

type GatewayConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	BaseURL      string        `mapstructure:"base_url"`
	PrivateKey   string        `mapstructure:"private_key"`
	EventsSecret string        `mapstructure:"events_secret"`
	RedirectURL  string        `mapstructure:"redirect_url"`
	Currency     string        `mapstructure:"currency"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

type EmailConfig struct {
	SendGridAPIKey string `mapstructure:"sendgrid_api_key"`
	FromAddress    string `mapstructure:"from_address"`
	FromName       string `mapstructure:"from_name"`
}

type LoyaltyConfig struct {
	EarnRate float64 `mapstructure:"earn_rate"`
}

type SchedulerConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	RecoveryPurge     string        `mapstructure:"recovery_purge"`
	SessionPurge      string        `mapstructure:"session_purge"`
	UnpaidOrderExpiry string        `mapstructure:"unpaid_order_expiry"`
	UnpaidOrderTTL    time.Duration `mapstructure:"unpaid_order_ttl"`
	RecoveryTokenTTL  time.Duration `mapstructure:"recovery_token_ttl"`
}

type CacheConfig struct {
	CatalogTTL time.Duration `mapstructure:"catalog_ttl"`
	SessionTTL time.Duration `mapstructure:"session_ttl"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type AdminConfig struct {
	Name     string `mapstructure:"name"`
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
}

type AppConfig struct {
	Environment string `mapstructure:"environment"`
	Version     string `mapstructure:"version"`
}

// Load reads configuration from defaults, an optional config file and STOREFRONT_* environment variables
func Load() (*Config, error) {
	v := viper.New()

	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/storefront-service")
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("STOREFRONT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	bindEnvVars(v)

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000", "http://localhost:5173"})

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "storefront")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 10)

	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", "6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.url", "")

	v.SetDefault("nats.enabled", true)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.reconnect_wait", 2*time.Second)

	v.SetDefault("session.cookie_name", "storefront_session")
	v.SetDefault("session.secret", "")
	v.SetDefault("session.ttl", 7*24*time.Hour)
	v.SetDefault("session.secure", false)

	v.SetDefault("storage.provider", "local")
	v.SetDefault("storage.bucket", "imagenes")
	v.SetDefault("storage.public_base_url", "http://localhost:8080/uploads")
	v.SetDefault("storage.max_upload_bytes", 5*1024*1024)
	v.SetDefault("storage.local_base_path", "./uploads")
	v.SetDefault("storage.s3_region", "us-east-1")
	v.SetDefault("storage.s3_endpoint", "")
	v.SetDefault("storage.s3_access_key_id", "")
	v.SetDefault("storage.s3_secret_access_key", "")
	v.SetDefault("storage.s3_force_path_style", false)
	v.SetDefault("storage.gcs_project_id", "")
	v.SetDefault("storage.gcs_credentials_file", "")

	v.SetDefault("gateway.enabled", false)
	v.SetDefault("gateway.base_url", "https://sandbox.wompi.co/v1")
	v.SetDefault("gateway.private_key", "")
	v.SetDefault("gateway.events_secret", "")
	v.SetDefault("gateway.redirect_url", "http://localhost:3000/pago-exitoso")
	v.SetDefault("gateway.currency", "COP")
	v.SetDefault("gateway.timeout", 10*time.Second)

	v.SetDefault("email.sendgrid_api_key", "")
	v.SetDefault("email.from_address", "no-reply@meraki.local")
	v.SetDefault("email.from_name", "Meraki Joyería")

	v.SetDefault("loyalty.earn_rate", 0.05)

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.recovery_purge", "*/15 * * * *")
	v.SetDefault("scheduler.session_purge", "0 * * * *")
	v.SetDefault("scheduler.unpaid_order_expiry", "30 * * * *")
	v.SetDefault("scheduler.unpaid_order_ttl", 72*time.Hour)
	v.SetDefault("scheduler.recovery_token_ttl", 5*time.Minute)

	v.SetDefault("cache.catalog_ttl", 5*time.Minute)
	v.SetDefault("cache.session_ttl", 10*time.Minute)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("admin.name", "Administrador")
	v.SetDefault("admin.email", "admin@meraki.local")
	v.SetDefault("admin.password", "")

	v.SetDefault("app.environment", "development")
	v.SetDefault("app.version", "1.0.0")
}

// bindEnvVars maps the conventional unprefixed variables used by the deployment manifests
func bindEnvVars(v *viper.Viper) {
	overrides := map[string]string{
		"server.port":            "PORT",
		"server.mode":            "GIN_MODE",
		"database.host":          "DB_HOST",
		"database.port":          "DB_PORT",
		"database.user":          "DB_USER",
		"database.password":      "DB_PASSWORD",
		"database.name":          "DB_NAME",
		"database.ssl_mode":      "DB_SSLMODE",
		"redis.url":              "REDIS_URL",
		"nats.url":               "NATS_URL",
		"session.secret":         "SESSION_SECRET",
		"gateway.private_key":    "GATEWAY_PRIVATE_KEY",
		"email.sendgrid_api_key": "SENDGRID_API_KEY",
		"admin.email":            "ADMIN_EMAIL",
		"admin.password":         "ADMIN_PASSWORD",
		"app.environment":        "ENVIRONMENT",
	}
	for key, env := range overrides {
		if value := os.Getenv(env); value != "" {
			v.Set(key, value)
		}
	}
}

func validateConfig(cfg *Config) error {
	switch cfg.Storage.Provider {
	case "local", "s3", "gcs":
	default:
		return fmt.Errorf("unsupported storage provider %q", cfg.Storage.Provider)
	}

	if cfg.Loyalty.EarnRate < 0 || cfg.Loyalty.EarnRate > 1 {
		return fmt.Errorf("loyalty earn rate must be between 0 and 1, got %v", cfg.Loyalty.EarnRate)
	}

	if cfg.Scheduler.RecoveryTokenTTL <= 0 {
		return errors.New("recovery token ttl must be positive")
	}

	if cfg.Session.TTL <= 0 {
		return errors.New("session ttl must be positive")
	}

	if cfg.App.IsProduction() && cfg.Session.Secret == "" {
		return errors.New("session secret is required in production")
	}

	if cfg.Storage.Provider == "gcs" && cfg.Storage.GCSProjectID == "" {
		return errors.New("gcs project id is required for the gcs storage provider")
	}

	return nil
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return "host=" + c.Host +
		" port=" + c.Port +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" sslmode=" + c.SSLMode
}

// URL builds the Redis connection URL from its components unless one was provided
func (c *RedisConfig) URL() string {
	if c.Address != "" {
		return c.Address
	}
	if c.Password != "" {
		return fmt.Sprintf("redis://:%s@%s:%s/%d", c.Password, c.Host, c.Port, c.DB)
	}
	return fmt.Sprintf("redis://%s:%s/%d", c.Host, c.Port, c.DB)
}

// IsDevelopment checks if the app is running in development mode
func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if the app is running in production mode
func (c *AppConfig) IsProduction() bool {
	return c.Environment == "production"
}

// NewLogger builds the service logger from the logging section
func NewLogger(cfg LoggingConfig) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	if strings.EqualFold(cfg.Format, "text") {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	return logger
}
