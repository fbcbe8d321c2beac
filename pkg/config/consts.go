package config

// EnvPrefix is passed to envconfig; individual fields carry fully
// prefixed names so the prefix stays empty here.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv    = "RENELY_APP_ENV"
	EnvPort      = "RENELY_APP_PORT"
	EnvRedisURL  = "RENELY_REDIS_URL"
	EnvJWTSecret = "RENELY_JWT_SECRET"
	EnvJWTIssuer = "RENELY_JWT_ISSUER"
)

const (
	EnvDBDSN  = "RENELY_DB_DSN"
	EnvDBHost = "RENELY_DB_HOST"
	EnvDBUser = "RENELY_DB_USER"
	EnvDBName = "RENELY_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
