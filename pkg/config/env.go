package config

const (
	EnvPrefix = "MALLRENT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv                 = "MALLRENT_APP_ENV"
	EnvPort                   = "MALLRENT_APP_PORT"
	EnvLogLevel               = "MALLRENT_LOG_LEVEL"
	EnvLogFormat              = "MALLRENT_LOG_FORMAT"
	EnvDBDSN                  = "MALLRENT_DB_DSN"
	EnvDBHost                 = "MALLRENT_DB_HOST"
	EnvDBUser                 = "MALLRENT_DB_USER"
	EnvDBName                 = "MALLRENT_DB_NAME"
	EnvRedisURL               = "MALLRENT_REDIS_URL"
	EnvJWTSecret              = "MALLRENT_JWT_SECRET"
	EnvJWTIssuer              = "MALLRENT_JWT_ISSUER"
	EnvJWTExpMins             = "MALLRENT_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "MALLRENT_REFRESH_TOKEN_TTL_MINUTES"
	EnvSignupRoles            = "MALLRENT_SIGNUP_ROLES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
