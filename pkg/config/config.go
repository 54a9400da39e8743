package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Signup        SignupConfig
	Cron          CronConfig
	CORS          CORSConfig
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
	Env          string `envconfig:"MALLRENT_APP_ENV" required:"true"`
	Port         string `envconfig:"MALLRENT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"MALLRENT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MALLRENT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"MALLRENT_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"MALLRENT_DB_DSN"`
	Driver string `envconfig:"MALLRENT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"MALLRENT_DB_HOST"`
	LegacyPort     int    `envconfig:"MALLRENT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"MALLRENT_DB_USER"`
	LegacyPassword string `envconfig:"MALLRENT_DB_PASSWORD"`
	LegacyName     string `envconfig:"MALLRENT_DB_NAME"`
	LegacySSLMode  string `envconfig:"MALLRENT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MALLRENT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MALLRENT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MALLRENT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MALLRENT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"MALLRENT_DB_SLOW_QUERY" default:"250ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MALLRENT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"MALLRENT_REDIS_ADDR"`
	Password     string        `envconfig:"MALLRENT_REDIS_PASSWORD"`
	DB           int           `envconfig:"MALLRENT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MALLRENT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MALLRENT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MALLRENT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MALLRENT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MALLRENT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"MALLRENT_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"MALLRENT_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"MALLRENT_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"MALLRENT_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"MALLRENT_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"MALLRENT_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"MALLRENT_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"MALLRENT_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"MALLRENT_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"MALLRENT_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"MALLRENT_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"MALLRENT_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"MALLRENT_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"MALLRENT_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"MALLRENT_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"MALLRENT_AUTO_MIGRATE" default:"false"`
	// RemoteSessionEvents fans session events out through redis pub/sub.
	RemoteSessionEvents bool `envconfig:"MALLRENT_REMOTE_SESSION_EVENTS" default:"true"`
}

// SignupConfig restricts which roles can be chosen on self-service sign-up.
type SignupConfig struct {
	Roles []string `envconfig:"MALLRENT_SIGNUP_ROLES" default:"CentroComercialAdmin,LocalOwner,VisitanteExterno,SystemDeveloper"`
}

// AllowsRole reports whether the role name is open for self-service sign-up.
func (s SignupConfig) AllowsRole(role string) bool {
	if len(s.Roles) == 0 {
		return true
	}
	for _, allowed := range s.Roles {
		if strings.TrimSpace(allowed) == role {
			return true
		}
	}
	return false
}

type CronConfig struct {
	Interval time.Duration `envconfig:"MALLRENT_CRON_INTERVAL" default:"1h"`
	LockTTL  time.Duration `envconfig:"MALLRENT_CRON_LOCK_TTL" default:"10m"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"MALLRENT_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
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
