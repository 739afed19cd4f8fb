package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App      AppConfig
	DB       DBConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Payments PaymentsConfig
	Sendgrid SendgridConfig
	PubSub   PubSubConfig
	GCP      GCPConfig
	Cron     CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"TROUPE_APP_ENV" required:"true"`
	Port         string `envconfig:"TROUPE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"TROUPE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TROUPE_LOG_WARN_STACK" default:"false"`
	AutoMigrate  bool   `envconfig:"TROUPE_AUTO_MIGRATE" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"TROUPE_DB_DSN"`

	LegacyHost     string `envconfig:"TROUPE_DB_HOST"`
	LegacyPort     int    `envconfig:"TROUPE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"TROUPE_DB_USER"`
	LegacyPassword string `envconfig:"TROUPE_DB_PASSWORD"`
	LegacyName     string `envconfig:"TROUPE_DB_NAME"`
	LegacySSLMode  string `envconfig:"TROUPE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TROUPE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TROUPE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TROUPE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TROUPE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"TROUPE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"TROUPE_REDIS_ADDR"`
	Password     string        `envconfig:"TROUPE_REDIS_PASSWORD"`
	DB           int           `envconfig:"TROUPE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TROUPE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TROUPE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TROUPE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TROUPE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TROUPE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret string `envconfig:"TROUPE_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"TROUPE_JWT_ISSUER" default:"troupe"`
}

// PaymentsConfig carries the webhook credentials for the external payment
// processor. The processor itself is a black box; we only verify and consume
// its confirmation events.
type PaymentsConfig struct {
	WebhookSecret  string        `envconfig:"TROUPE_PAYMENTS_WEBHOOK_SECRET"`
	IdempotencyTTL time.Duration `envconfig:"TROUPE_PAYMENTS_IDEMPOTENCY_TTL" default:"168h"`
}

type SendgridConfig struct {
	APIKey      string `envconfig:"TROUPE_SENDGRID_API_KEY"`
	DefaultFrom string `envconfig:"TROUPE_SENDGRID_FROM_EMAIL" default:"no-reply@troupekit.io"`
}

type PubSubConfig struct {
	ConfirmationSubscription string `envconfig:"TROUPE_PUBSUB_CONFIRMATION_SUBSCRIPTION"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"TROUPE_GCP_PROJECT_ID"`
}

type CronConfig struct {
	ReconcileLockTTL time.Duration `envconfig:"TROUPE_CRON_RECONCILE_LOCK_TTL" default:"23h"`
}

func (db *DBConfig) ensureDSN() error {
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
