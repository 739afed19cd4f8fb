package config

// EnvPrefix is the envconfig prefix shared by every service binary.
const EnvPrefix = "TROUPE"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

// Environment variable names referenced outside struct tags (tests, error
// messages, legacy DSN assembly).
const (
	EnvAppEnv   = "TROUPE_APP_ENV"
	EnvPort     = "TROUPE_APP_PORT"
	EnvDBDSN    = "TROUPE_DB_DSN"
	EnvDBHost   = "TROUPE_DB_HOST"
	EnvDBUser   = "TROUPE_DB_USER"
	EnvDBName   = "TROUPE_DB_NAME"
	EnvRedisURL = "TROUPE_REDIS_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
