package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/gearsync/backend/internal/domain/reconcile"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Worker    WorkerConfig
	Resolver  ResolverConfig
	Matcher   MatcherConfig
	Gateways  GatewaysConfig
	Telemetry TelemetryConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	TrustedProxies    []string
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// WorkerConfig holds reconcile worker pool configuration
type WorkerConfig struct {
	Enabled      bool
	Workers      int
	BatchSize    int
	PollInterval time.Duration
	// ClaimLockTTL bounds the redis advisory lock held per item while a
	// group of events is being applied.
	ClaimLockTTL time.Duration
}

// ResolverConfig holds identifier resolution scheduler configuration
type ResolverConfig struct {
	Enabled         bool
	PollInterval    time.Duration
	BatchSize       int
	SnapshotTimeout time.Duration
}

// MatcherConfig holds the entity matcher's tunable weights. Zero values fall
// back to the built-in defaults so a config file only has to name the knobs
// it changes.
type MatcherConfig struct {
	StrongBand      float64
	WeakBand        float64
	BrandStrong     float64
	BrandWeak       float64
	ModelStrong     float64
	ModelWeak       float64
	TitleStrong     float64
	TitleWeak       float64
	YearClose       float64
	YearDecade      float64
	PriceTight      float64
	PriceLoose      float64
	Description     float64
	AcceptThreshold float64
	Cap             float64
}

// Weights merges the configured matcher knobs over the built-in defaults.
// Fields left at zero keep the default value.
func (m MatcherConfig) Weights() reconcile.MatcherWeights {
	w := reconcile.DefaultMatcherWeights()
	overrideFloat(&w.StrongBand, m.StrongBand)
	overrideFloat(&w.WeakBand, m.WeakBand)
	overrideFloat(&w.BrandStrong, m.BrandStrong)
	overrideFloat(&w.BrandWeak, m.BrandWeak)
	overrideFloat(&w.ModelStrong, m.ModelStrong)
	overrideFloat(&w.ModelWeak, m.ModelWeak)
	overrideFloat(&w.TitleStrong, m.TitleStrong)
	overrideFloat(&w.TitleWeak, m.TitleWeak)
	overrideFloat(&w.YearClose, m.YearClose)
	overrideFloat(&w.YearDecade, m.YearDecade)
	overrideFloat(&w.PriceTight, m.PriceTight)
	overrideFloat(&w.PriceLoose, m.PriceLoose)
	overrideFloat(&w.Description, m.Description)
	overrideFloat(&w.AcceptThreshold, m.AcceptThreshold)
	overrideFloat(&w.Cap, m.Cap)
	return w
}

func overrideFloat(dst *float64, v float64) {
	if v != 0 {
		*dst = v
	}
}

// GatewayConfig holds one marketplace connection
type GatewayConfig struct {
	Enabled bool
	BaseURL string
	// APIKey carries the bearer/static credential; eBay additionally uses
	// the auth token pair.
	APIKey    string
	APISecret string
	AuthToken string
	Timeout   time.Duration
}

// GatewaysConfig holds the per-marketplace gateway settings
type GatewaysConfig struct {
	Ebay           GatewayConfig
	Reverb         GatewayConfig
	VintageAndRare GatewayConfig
	Shopify        GatewayConfig
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool
	CollectorEndpoint string
	SamplingRatio     float64
	ServiceName       string
	Insecure          bool
	DBTraceEnabled    bool
	DBSlowQueryThresh time.Duration
	MetricsEnabled    bool
	MetricsInterval   time.Duration
	LogsEnabled       bool
	ProfilerEnabled   bool
	ProfilerAddress   string
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with GEARSYNC_ prefix (e.g., GEARSYNC_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./backend")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("GEARSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:       v.GetDuration("http.read_timeout"),
			WriteTimeout:      v.GetDuration("http.write_timeout"),
			IdleTimeout:       v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:    v.GetInt("http.max_header_bytes"),
			TrustedProxies:    v.GetStringSlice("http.trusted_proxies"),
			RateLimitEnabled:  v.GetBool("http.rate_limit_enabled"),
			RateLimitRequests: v.GetInt("http.rate_limit_requests"),
			RateLimitWindow:   v.GetDuration("http.rate_limit_window"),
		},
		Worker: WorkerConfig{
			Enabled:      v.GetBool("worker.enabled"),
			Workers:      v.GetInt("worker.workers"),
			BatchSize:    v.GetInt("worker.batch_size"),
			PollInterval: v.GetDuration("worker.poll_interval"),
			ClaimLockTTL: v.GetDuration("worker.claim_lock_ttl"),
		},
		Resolver: ResolverConfig{
			Enabled:         v.GetBool("resolver.enabled"),
			PollInterval:    v.GetDuration("resolver.poll_interval"),
			BatchSize:       v.GetInt("resolver.batch_size"),
			SnapshotTimeout: v.GetDuration("resolver.snapshot_timeout"),
		},
		Matcher: MatcherConfig{
			StrongBand:      v.GetFloat64("matcher.strong_band"),
			WeakBand:        v.GetFloat64("matcher.weak_band"),
			BrandStrong:     v.GetFloat64("matcher.brand_strong"),
			BrandWeak:       v.GetFloat64("matcher.brand_weak"),
			ModelStrong:     v.GetFloat64("matcher.model_strong"),
			ModelWeak:       v.GetFloat64("matcher.model_weak"),
			TitleStrong:     v.GetFloat64("matcher.title_strong"),
			TitleWeak:       v.GetFloat64("matcher.title_weak"),
			YearClose:       v.GetFloat64("matcher.year_close"),
			YearDecade:      v.GetFloat64("matcher.year_decade"),
			PriceTight:      v.GetFloat64("matcher.price_tight"),
			PriceLoose:      v.GetFloat64("matcher.price_loose"),
			Description:     v.GetFloat64("matcher.description"),
			AcceptThreshold: v.GetFloat64("matcher.accept_threshold"),
			Cap:             v.GetFloat64("matcher.cap"),
		},
		Gateways: GatewaysConfig{
			Ebay:           loadGateway(v, "gateways.ebay"),
			Reverb:         loadGateway(v, "gateways.reverb"),
			VintageAndRare: loadGateway(v, "gateways.vintageandrare"),
			Shopify:        loadGateway(v, "gateways.shopify"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			DBSlowQueryThresh: v.GetDuration("telemetry.db_slow_query_threshold"),
			MetricsEnabled:    v.GetBool("telemetry.metrics_enabled"),
			MetricsInterval:   v.GetDuration("telemetry.metrics_interval"),
			LogsEnabled:       v.GetBool("telemetry.logs_enabled"),
			ProfilerEnabled:   v.GetBool("telemetry.profiler_enabled"),
			ProfilerAddress:   v.GetString("telemetry.profiler_address"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadGateway(v *viper.Viper, prefix string) GatewayConfig {
	return GatewayConfig{
		Enabled:   v.GetBool(prefix + ".enabled"),
		BaseURL:   v.GetString(prefix + ".base_url"),
		APIKey:    v.GetString(prefix + ".api_key"),
		APISecret: v.GetString(prefix + ".api_secret"),
		AuthToken: v.GetString(prefix + ".auth_token"),
		Timeout:   v.GetDuration(prefix + ".timeout"),
	}
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "gearsync-backend"
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
		cfg.Database.DBName = "gearsync"
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
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
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
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.RateLimitRequests == 0 {
		cfg.HTTP.RateLimitRequests = 100
	}
	if cfg.HTTP.RateLimitWindow == 0 {
		cfg.HTTP.RateLimitWindow = time.Minute
	}
	if cfg.Worker.Workers == 0 {
		cfg.Worker.Workers = 4
	}
	if cfg.Worker.BatchSize == 0 {
		cfg.Worker.BatchSize = 50
	}
	if cfg.Worker.PollInterval == 0 {
		cfg.Worker.PollInterval = 5 * time.Second
	}
	if cfg.Worker.ClaimLockTTL == 0 {
		cfg.Worker.ClaimLockTTL = 2 * time.Minute
	}
	if cfg.Resolver.PollInterval == 0 {
		cfg.Resolver.PollInterval = time.Minute
	}
	if cfg.Resolver.BatchSize == 0 {
		cfg.Resolver.BatchSize = 10
	}
	if cfg.Resolver.SnapshotTimeout == 0 {
		cfg.Resolver.SnapshotTimeout = 45 * time.Second
	}
	applyGatewayDefaults(&cfg.Gateways.Ebay, "https://api.ebay.com")
	applyGatewayDefaults(&cfg.Gateways.Reverb, "https://api.reverb.com")
	applyGatewayDefaults(&cfg.Gateways.VintageAndRare, "https://www.vintageandrare.com")
	applyGatewayDefaults(&cfg.Gateways.Shopify, "")
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "gearsync-backend"
	}
	if cfg.Telemetry.DBSlowQueryThresh == 0 {
		cfg.Telemetry.DBSlowQueryThresh = 200 * time.Millisecond
	}
	if cfg.Telemetry.MetricsInterval == 0 {
		cfg.Telemetry.MetricsInterval = time.Minute
	}
}

func applyGatewayDefaults(g *GatewayConfig, baseURL string) {
	if g.BaseURL == "" {
		g.BaseURL = baseURL
	}
	if g.Timeout == 0 {
		g.Timeout = 30 * time.Second
	}
}

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

	if c.Worker.Workers < 1 {
		return fmt.Errorf("worker.workers must be at least 1")
	}
	if c.Worker.BatchSize < 1 {
		return fmt.Errorf("worker.batch_size must be at least 1")
	}

	if c.App.Env == "production" {
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		if c.Gateways.Shopify.Enabled && c.Gateways.Shopify.BaseURL == "" {
			return fmt.Errorf("gateways.shopify.base_url is required when the Shopify gateway is enabled")
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
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
