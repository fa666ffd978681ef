package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Gateway      GatewayConfig
	PayoutWorker PayoutWorkerConfig
	Stripe       StripeConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"EVENTLOOM_APP_ENV" required:"true"`
	Port         string `envconfig:"EVENTLOOM_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"EVENTLOOM_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"EVENTLOOM_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"EVENTLOOM_LOG_FORMAT" default:"json"`

	CORSOrigins []string `envconfig:"EVENTLOOM_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"EVENTLOOM_DB_DSN"`
	Driver string `envconfig:"EVENTLOOM_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"EVENTLOOM_DB_HOST"`
	LegacyPort     int    `envconfig:"EVENTLOOM_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"EVENTLOOM_DB_USER"`
	LegacyPassword string `envconfig:"EVENTLOOM_DB_PASSWORD"`
	LegacyName     string `envconfig:"EVENTLOOM_DB_NAME"`
	LegacySSLMode  string `envconfig:"EVENTLOOM_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"EVENTLOOM_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"EVENTLOOM_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"EVENTLOOM_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"EVENTLOOM_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// RedisConfig is optional. An empty URL and address disables Redis backed
// features (distributed locks, idempotency replay).
type RedisConfig struct {
	URL          string        `envconfig:"EVENTLOOM_REDIS_URL"`
	Address      string        `envconfig:"EVENTLOOM_REDIS_ADDR"`
	Password     string        `envconfig:"EVENTLOOM_REDIS_PASSWORD"`
	DB           int           `envconfig:"EVENTLOOM_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"EVENTLOOM_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"EVENTLOOM_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"EVENTLOOM_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"EVENTLOOM_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"EVENTLOOM_REDIS_WRITE_TIMEOUT" default:"5s"`
}

func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type JWTConfig struct {
	Secret            string `envconfig:"EVENTLOOM_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"EVENTLOOM_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"EVENTLOOM_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	UseSQLite        bool `envconfig:"EVENTLOOM_USE_SQLITE" default:"false"`
	AutoMigrate      bool `envconfig:"EVENTLOOM_AUTO_MIGRATE" default:"false"`
	DistributedLocks bool `envconfig:"EVENTLOOM_DISTRIBUTED_LOCKS" default:"true"`
}

// GatewayConfig bounds how the admin gateway serializes and retries commands.
type GatewayConfig struct {
	MaxRetries     uint64        `envconfig:"EVENTLOOM_GATEWAY_MAX_RETRIES" default:"3"`
	RetryBaseDelay time.Duration `envconfig:"EVENTLOOM_GATEWAY_RETRY_BASE_DELAY" default:"25ms"`
	LockTTL        time.Duration `envconfig:"EVENTLOOM_GATEWAY_LOCK_TTL" default:"10s"`
	LockWait       time.Duration `envconfig:"EVENTLOOM_GATEWAY_LOCK_WAIT" default:"2s"`
}

type PayoutWorkerConfig struct {
	BatchSize       int           `envconfig:"EVENTLOOM_PAYOUT_WORKER_BATCH_SIZE" default:"20"`
	PollInterval    time.Duration `envconfig:"EVENTLOOM_PAYOUT_WORKER_POLL_INTERVAL" default:"5s"`
	TransferTimeout time.Duration `envconfig:"EVENTLOOM_PAYOUT_WORKER_TRANSFER_TIMEOUT" default:"30s"`
	MaxAttempts     int           `envconfig:"EVENTLOOM_PAYOUT_WORKER_MAX_ATTEMPTS" default:"8"`
	RetryBackoff    time.Duration `envconfig:"EVENTLOOM_PAYOUT_WORKER_RETRY_BACKOFF" default:"1m"`
	OperatorID      string        `envconfig:"EVENTLOOM_PAYOUT_WORKER_OPERATOR_ID" default:"00000000-0000-0000-0000-00000000f00d"`
}

type StripeConfig struct {
	APIKey   string `envconfig:"EVENTLOOM_STRIPE_API_KEY"`
	Env      string `envconfig:"EVENTLOOM_STRIPE_ENV" default:"test"`
	Currency string `envconfig:"EVENTLOOM_STRIPE_CURRENCY" default:"usd"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type GCPConfig struct {
	ProjectID              string `envconfig:"EVENTLOOM_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"EVENTLOOM_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"EVENTLOOM_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	FinanceTopic string `envconfig:"EVENTLOOM_PUBSUB_FINANCE_TOPIC" default:"finance-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"EVENTLOOM_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"EVENTLOOM_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"EVENTLOOM_OUTBOX_MAX_ATTEMPTS" default:"10"`
	RetentionDays  int `envconfig:"EVENTLOOM_OUTBOX_RETENTION_DAYS" default:"30"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if useSQLite {
		db.Driver = DriverSQLite
		if db.DSN == "" {
			db.DSN = defaultSQLiteDSN
		}
		return nil
	}
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}
	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}
	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}
	db.DSN = u.String()
	return nil
}
