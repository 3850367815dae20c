package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Storage   StorageConfig
	Payment   PaymentConfig
	Shop      ShopConfig
	Invoice   InvoiceConfig
	Cache     CacheConfig
	Telemetry TelemetryConfig
	Profiling ProfilingConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// IsProduction reports whether the app runs in production
func (a AppConfig) IsProduction() bool {
	return a.Env == "production"
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	SSLMode           string
	MaxOpenConns      int
	MaxIdleConns      int
	ConnMaxLifetime   int // in minutes
	ConnMaxIdleTime   int // in minutes
	ConnectRetries    int
	ConnectRetryDelay time.Duration
	SlowQueryThresh   time.Duration
	MigrationsPath    string
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// JWTConfig holds JWT settings
type JWTConfig struct {
	Secret                 string
	RefreshSecret          string
	AccessTokenExpiration  time.Duration
	RefreshTokenExpiration time.Duration
	Issuer                 string
	MaxRefreshCount        int
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout           time.Duration
	WriteTimeout          time.Duration
	IdleTimeout           time.Duration
	MaxHeaderBytes        int
	MaxBodySize           int64
	RateLimitEnabled      bool
	RateLimitRequests     int
	RateLimitWindow       time.Duration
	AuthRateLimitEnabled  bool          // Stricter limit for auth, contact and sample endpoints
	AuthRateLimitRequests int           // default: 5
	AuthRateLimitWindow   time.Duration // default: 1 minute
	CORSAllowOrigins      []string
	CORSAllowMethods      []string
	CORSAllowHeaders      []string
	TrustedProxies        []string
}

// StorageConfig holds S3-compatible object storage settings
type StorageConfig struct {
	Enabled             bool
	Endpoint            string // empty for AWS, e.g. http://minio:9000 otherwise
	Region              string
	Bucket              string
	AccessKeyID         string
	SecretAccessKey     string
	UsePathStyle        bool
	PublicBaseURL       string // CDN or bucket URL used to build public object URLs
	MaxUploadSize       int64
	AllowedContentTypes []string
	PresignExpiry       time.Duration
}

// PaymentConfig holds payment gateway settings
type PaymentConfig struct {
	PayPal PayPalConfig
	Paymob PaymobConfig
}

// PayPalConfig holds PayPal REST API credentials
type PayPalConfig struct {
	Enabled      bool
	ClientID     string
	ClientSecret string
	BaseURL      string // https://api-m.sandbox.paypal.com or https://api-m.paypal.com
	ReturnURL    string
	CancelURL    string
	BrandName    string
	Timeout      time.Duration
}

// PaymobConfig holds Paymob accept API credentials
type PaymobConfig struct {
	Enabled       bool
	APIKey        string
	IntegrationID int
	IframeID      string
	HMACSecret    string
	BaseURL       string
	Currency      string
	Timeout       time.Duration
}

// ShopConfig holds storefront business settings
type ShopConfig struct {
	Currency              string
	ShippingFlatFee       string
	FreeShippingThreshold string
	IdempotencyTTL        time.Duration
}

// InvoiceConfig holds PDF invoice rendering settings
type InvoiceConfig struct {
	Enabled   bool
	ChromeURL string // remote Chrome DevTools URL; empty launches a local browser
	NoSandbox bool
	Timeout   time.Duration
	StoreName string
}

// CacheConfig holds read cache settings
type CacheConfig struct {
	CatalogTTL time.Duration
	// LocalTTL caps the in-process tier in front of redis
	LocalTTL time.Duration
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool    // Tracing
	MetricsEnabled    bool    // OTLP metrics
	LogsEnabled       bool    // OTLP logs through the zap bridge
	CollectorEndpoint string  // e.g. "localhost:4317"
	SamplingRatio     float64 // 0.0-1.0
	ServiceName       string
	Insecure          bool
	MetricsInterval   time.Duration
	DBTraceEnabled    bool
}

// ProfilingConfig holds Pyroscope continuous profiling configuration
type ProfilingConfig struct {
	Enabled           bool
	ServerAddress     string
	SpanProfiles      bool
	BasicAuthUser     string
	BasicAuthPassword string
}

// Loader reads configuration from a TOML file and PERFUME_ environment
// variables, and can watch the file for changes.
// Priority (highest to lowest):
// 1. Environment variables with PERFUME_ prefix (e.g. PERFUME_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a loader. An empty file searches the default locations.
func NewLoader(file string) *Loader {
	v := viper.New()
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/perfume")
	}
	v.SetConfigType("toml")
	v.SetEnvPrefix("PERFUME")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return &Loader{v: v}
}

// Load loads configuration from the default locations
func Load() (*Config, error) {
	return NewLoader("").Load()
}

// Load reads, defaults and validates the configuration
func (l *Loader) Load() (*Config, error) {
	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// no file: defaults and env vars only
	}
	return l.build()
}

// ConfigFile returns the path of the loaded file, or "" when none was found
func (l *Loader) ConfigFile() string {
	return l.v.ConfigFileUsed()
}

// Watch reloads the file on change and calls onChange with the new config.
// Invalid configurations are reported through onError and not applied.
// Returns false when there is no config file to watch.
func (l *Loader) Watch(onChange func(*Config), onError func(error)) bool {
	if l.v.ConfigFileUsed() == "" {
		return false
	}
	l.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := l.build()
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		onChange(cfg)
	})
	l.v.WatchConfig()
	return true
}

func (l *Loader) build() (*Config, error) {
	v := l.v
	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:              v.GetString("database.host"),
			Port:              v.GetInt("database.port"),
			User:              v.GetString("database.user"),
			Password:          v.GetString("database.password"),
			DBName:            v.GetString("database.dbname"),
			SSLMode:           v.GetString("database.sslmode"),
			MaxOpenConns:      v.GetInt("database.max_open_conns"),
			MaxIdleConns:      v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime:   v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime:   v.GetInt("database.conn_max_idle_time"),
			ConnectRetries:    v.GetInt("database.connect_retries"),
			ConnectRetryDelay: v.GetDuration("database.connect_retry_delay"),
			SlowQueryThresh:   v.GetDuration("database.slow_query_threshold"),
			MigrationsPath:    v.GetString("database.migrations_path"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret:                 v.GetString("jwt.secret"),
			RefreshSecret:          v.GetString("jwt.refresh_secret"),
			AccessTokenExpiration:  v.GetDuration("jwt.access_token_expiration"),
			RefreshTokenExpiration: v.GetDuration("jwt.refresh_token_expiration"),
			Issuer:                 v.GetString("jwt.issuer"),
			MaxRefreshCount:        v.GetInt("jwt.max_refresh_count"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:           v.GetDuration("http.read_timeout"),
			WriteTimeout:          v.GetDuration("http.write_timeout"),
			IdleTimeout:           v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:        v.GetInt("http.max_header_bytes"),
			MaxBodySize:           v.GetInt64("http.max_body_size"),
			RateLimitEnabled:      v.GetBool("http.rate_limit_enabled"),
			RateLimitRequests:     v.GetInt("http.rate_limit_requests"),
			RateLimitWindow:       v.GetDuration("http.rate_limit_window"),
			AuthRateLimitEnabled:  v.GetBool("http.auth_rate_limit_enabled"),
			AuthRateLimitRequests: v.GetInt("http.auth_rate_limit_requests"),
			AuthRateLimitWindow:   v.GetDuration("http.auth_rate_limit_window"),
			CORSAllowOrigins:      v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods:      v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders:      v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:        v.GetStringSlice("http.trusted_proxies"),
		},
		Storage: StorageConfig{
			Enabled:             v.GetBool("storage.enabled"),
			Endpoint:            v.GetString("storage.endpoint"),
			Region:              v.GetString("storage.region"),
			Bucket:              v.GetString("storage.bucket"),
			AccessKeyID:         v.GetString("storage.access_key_id"),
			SecretAccessKey:     v.GetString("storage.secret_access_key"),
			UsePathStyle:        v.GetBool("storage.use_path_style"),
			PublicBaseURL:       v.GetString("storage.public_base_url"),
			MaxUploadSize:       v.GetInt64("storage.max_upload_size"),
			AllowedContentTypes: v.GetStringSlice("storage.allowed_content_types"),
			PresignExpiry:       v.GetDuration("storage.presign_expiry"),
		},
		Payment: PaymentConfig{
			PayPal: PayPalConfig{
				Enabled:      v.GetBool("payment.paypal.enabled"),
				ClientID:     v.GetString("payment.paypal.client_id"),
				ClientSecret: v.GetString("payment.paypal.client_secret"),
				BaseURL:      v.GetString("payment.paypal.base_url"),
				ReturnURL:    v.GetString("payment.paypal.return_url"),
				CancelURL:    v.GetString("payment.paypal.cancel_url"),
				BrandName:    v.GetString("payment.paypal.brand_name"),
				Timeout:      v.GetDuration("payment.paypal.timeout"),
			},
			Paymob: PaymobConfig{
				Enabled:       v.GetBool("payment.paymob.enabled"),
				APIKey:        v.GetString("payment.paymob.api_key"),
				IntegrationID: v.GetInt("payment.paymob.integration_id"),
				IframeID:      v.GetString("payment.paymob.iframe_id"),
				HMACSecret:    v.GetString("payment.paymob.hmac_secret"),
				BaseURL:       v.GetString("payment.paymob.base_url"),
				Currency:      v.GetString("payment.paymob.currency"),
				Timeout:       v.GetDuration("payment.paymob.timeout"),
			},
		},
		Shop: ShopConfig{
			Currency:              v.GetString("shop.currency"),
			ShippingFlatFee:       v.GetString("shop.shipping_flat_fee"),
			FreeShippingThreshold: v.GetString("shop.free_shipping_threshold"),
			IdempotencyTTL:        v.GetDuration("shop.idempotency_ttl"),
		},
		Invoice: InvoiceConfig{
			Enabled:   v.GetBool("invoice.enabled"),
			ChromeURL: v.GetString("invoice.chrome_url"),
			NoSandbox: v.GetBool("invoice.no_sandbox"),
			Timeout:   v.GetDuration("invoice.timeout"),
			StoreName: v.GetString("invoice.store_name"),
		},
		Cache: CacheConfig{
			CatalogTTL: v.GetDuration("cache.catalog_ttl"),
			LocalTTL:   v.GetDuration("cache.local_ttl"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			MetricsEnabled:    v.GetBool("telemetry.metrics_enabled"),
			LogsEnabled:       v.GetBool("telemetry.logs_enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			MetricsInterval:   v.GetDuration("telemetry.metrics_interval"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
		},
		Profiling: ProfilingConfig{
			Enabled:           v.GetBool("profiling.enabled"),
			ServerAddress:     v.GetString("profiling.server_address"),
			SpanProfiles:      v.GetBool("profiling.span_profiles"),
			BasicAuthUser:     v.GetString("profiling.basic_auth_user"),
			BasicAuthPassword: v.GetString("profiling.basic_auth_password"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultJWTSecret is the development secret. It is rejected in production.
const DefaultJWTSecret = "dev-secret-change-me-please-0123456789"

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "perfume-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}

	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "perfume"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Database.ConnectRetries == 0 {
		cfg.Database.ConnectRetries = 5
	}
	if cfg.Database.ConnectRetryDelay == 0 {
		cfg.Database.ConnectRetryDelay = 5 * time.Second
	}
	if cfg.Database.SlowQueryThresh == 0 {
		cfg.Database.SlowQueryThresh = 200 * time.Millisecond
	}
	if cfg.Database.MigrationsPath == "" {
		cfg.Database.MigrationsPath = "migrations"
	}

	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}

	if cfg.JWT.Secret == "" {
		cfg.JWT.Secret = DefaultJWTSecret
	}
	if cfg.JWT.RefreshSecret == "" {
		cfg.JWT.RefreshSecret = cfg.JWT.Secret + "-refresh"
	}
	if cfg.JWT.AccessTokenExpiration == 0 {
		cfg.JWT.AccessTokenExpiration = 15 * time.Minute
	}
	if cfg.JWT.RefreshTokenExpiration == 0 {
		cfg.JWT.RefreshTokenExpiration = 7 * 24 * time.Hour
	}
	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "perfume-backend"
	}
	if cfg.JWT.MaxRefreshCount == 0 {
		cfg.JWT.MaxRefreshCount = 30
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}

	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 30 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 12 << 20 // room for a 10MB image upload
	}
	if cfg.HTTP.RateLimitRequests == 0 {
		cfg.HTTP.RateLimitRequests = 100
	}
	if cfg.HTTP.RateLimitWindow == 0 {
		cfg.HTTP.RateLimitWindow = 15 * time.Minute
	}
	if cfg.HTTP.AuthRateLimitRequests == 0 {
		cfg.HTTP.AuthRateLimitRequests = 5
	}
	if cfg.HTTP.AuthRateLimitWindow == 0 {
		cfg.HTTP.AuthRateLimitWindow = time.Minute
	}
	// No default CORS origin: cross-origin requests are refused until configured.
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "Accept-Language", "X-Request-ID", "Idempotency-Key"}
	}

	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
	}
	if cfg.Storage.Bucket == "" {
		cfg.Storage.Bucket = "perfume-media"
	}
	if cfg.Storage.MaxUploadSize == 0 {
		cfg.Storage.MaxUploadSize = 10 << 20
	}
	if len(cfg.Storage.AllowedContentTypes) == 0 {
		cfg.Storage.AllowedContentTypes = []string{"image/jpeg", "image/png", "image/webp", "image/gif"}
	}
	if cfg.Storage.PresignExpiry == 0 {
		cfg.Storage.PresignExpiry = 15 * time.Minute
	}

	if cfg.Payment.PayPal.BaseURL == "" {
		cfg.Payment.PayPal.BaseURL = "https://api-m.sandbox.paypal.com"
	}
	if cfg.Payment.PayPal.Timeout == 0 {
		cfg.Payment.PayPal.Timeout = 30 * time.Second
	}
	if cfg.Payment.Paymob.BaseURL == "" {
		cfg.Payment.Paymob.BaseURL = "https://accept.paymob.com"
	}
	if cfg.Payment.Paymob.Currency == "" {
		cfg.Payment.Paymob.Currency = "EGP"
	}
	if cfg.Payment.Paymob.Timeout == 0 {
		cfg.Payment.Paymob.Timeout = 30 * time.Second
	}

	if cfg.Shop.Currency == "" {
		cfg.Shop.Currency = "USD"
	}
	if cfg.Shop.ShippingFlatFee == "" {
		cfg.Shop.ShippingFlatFee = "0"
	}
	if cfg.Shop.FreeShippingThreshold == "" {
		cfg.Shop.FreeShippingThreshold = "0"
	}
	if cfg.Shop.IdempotencyTTL == 0 {
		cfg.Shop.IdempotencyTTL = 24 * time.Hour
	}

	if cfg.Invoice.Timeout == 0 {
		cfg.Invoice.Timeout = 30 * time.Second
	}
	if cfg.Invoice.StoreName == "" {
		cfg.Invoice.StoreName = "Maison de Parfum"
	}

	if cfg.Cache.CatalogTTL == 0 {
		cfg.Cache.CatalogTTL = 5 * time.Minute
	}
	if cfg.Cache.LocalTTL == 0 {
		cfg.Cache.LocalTTL = 30 * time.Second
	}

	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
	if cfg.Telemetry.MetricsInterval == 0 {
		cfg.Telemetry.MetricsInterval = 60 * time.Second
	}
}

var validLogLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if c.Database.ConnectRetries < 1 {
		return fmt.Errorf("database.connect_retries must be at least 1")
	}
	if !validLogLevels[c.Log.Level] {
		return fmt.Errorf("log.level must be one of debug, info, warn, error, got %q", c.Log.Level)
	}
	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}
	if c.Payment.PayPal.Enabled && (c.Payment.PayPal.ClientID == "" || c.Payment.PayPal.ClientSecret == "") {
		return fmt.Errorf("payment.paypal.client_id and client_secret are required when paypal is enabled")
	}
	if c.Payment.Paymob.Enabled && (c.Payment.Paymob.APIKey == "" || c.Payment.Paymob.HMACSecret == "" || c.Payment.Paymob.IntegrationID == 0) {
		return fmt.Errorf("payment.paymob.api_key, hmac_secret and integration_id are required when paymob is enabled")
	}

	if c.App.IsProduction() {
		if c.JWT.Secret == DefaultJWTSecret {
			return fmt.Errorf("jwt.secret must be set in production")
		}
		if len(c.JWT.Secret) < 32 {
			return fmt.Errorf("jwt.secret must be at least 32 characters in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
	}
	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
