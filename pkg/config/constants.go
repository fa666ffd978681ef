package config

const (
	EnvPrefix = "EVENTLOOM"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	defaultSQLiteDSN = "file:eventloom.db?_foreign_keys=on"
)

const (
	EnvAppEnv       = "EVENTLOOM_APP_ENV"
	EnvPort         = "EVENTLOOM_APP_PORT"
	EnvDBDSN        = "EVENTLOOM_DB_DSN"
	EnvDBHost       = "EVENTLOOM_DB_HOST"
	EnvDBUser       = "EVENTLOOM_DB_USER"
	EnvDBName       = "EVENTLOOM_DB_NAME"
	EnvUseSQLite    = "EVENTLOOM_USE_SQLITE"
	EnvRedisURL     = "EVENTLOOM_REDIS_URL"
	EnvJWTSecret    = "EVENTLOOM_JWT_SECRET"
	EnvJWTIssuer    = "EVENTLOOM_JWT_ISSUER"
	EnvGatewayRetry = "EVENTLOOM_GATEWAY_MAX_RETRIES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
