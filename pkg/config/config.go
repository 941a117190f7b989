package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App       AppConfig
	DB        DBConfig
	Redis     RedisConfig
	GCP       GCPConfig
	GCS       GCSConfig
	Files     FilesConfig
	RateLimit RateLimitConfig
	Flags     FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Files.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"REGISTRAR_APP_ENV" required:"true"`
	Port         string `envconfig:"REGISTRAR_APP_PORT" default:"8080"`
	Debug        bool   `envconfig:"REGISTRAR_APP_DEBUG" default:"false"`
	LogLevel     string `envconfig:"REGISTRAR_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"REGISTRAR_LOG_WARN_STACK" default:"false"`

	CORSOrigins []string `envconfig:"REGISTRAR_CORS_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"REGISTRAR_DB_DSN"`
	Driver string `envconfig:"REGISTRAR_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"REGISTRAR_DB_HOST"`
	LegacyPort     int    `envconfig:"REGISTRAR_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"REGISTRAR_DB_USER"`
	LegacyPassword string `envconfig:"REGISTRAR_DB_PASSWORD"`
	LegacyName     string `envconfig:"REGISTRAR_DB_NAME"`
	LegacySSLMode  string `envconfig:"REGISTRAR_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"REGISTRAR_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"REGISTRAR_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"REGISTRAR_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"REGISTRAR_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"REGISTRAR_REDIS_URL"`
	Address      string        `envconfig:"REGISTRAR_REDIS_ADDR"`
	Password     string        `envconfig:"REGISTRAR_REDIS_PASSWORD"`
	DB           int           `envconfig:"REGISTRAR_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"REGISTRAR_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"REGISTRAR_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"REGISTRAR_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"REGISTRAR_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"REGISTRAR_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"REGISTRAR_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"REGISTRAR_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"REGISTRAR_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName        string        `envconfig:"REGISTRAR_GCS_BUCKET_NAME" required:"true"`
	DownloadURLExpiry time.Duration `envconfig:"REGISTRAR_GCS_DOWNLOAD_URL_EXPIRY" default:"1h"`
}

type FilesConfig struct {
	// CascadePolicy names the request-delete behavior when owned files fail
	// to delete: best_effort proceeds, strict aborts.
	CascadePolicy     string        `envconfig:"REGISTRAR_FILES_CASCADE_POLICY" default:"best_effort"`
	MaxMultipartMemMB int           `envconfig:"REGISTRAR_FILES_MULTIPART_MEM_MB" default:"32"`
	TempURLExpiry     time.Duration `envconfig:"REGISTRAR_FILES_TEMP_URL_EXPIRY" default:"1h"`
}

func (f FilesConfig) validate() error {
	switch f.CascadePolicy {
	case CascadeBestEffort, CascadeStrict:
		return nil
	}
	return fmt.Errorf("invalid REGISTRAR_FILES_CASCADE_POLICY %q (want %s or %s)", f.CascadePolicy, CascadeBestEffort, CascadeStrict)
}

type RateLimitConfig struct {
	Window   time.Duration `envconfig:"REGISTRAR_RATE_LIMIT_WINDOW" default:"1m"`
	KeyLimit int           `envconfig:"REGISTRAR_RATE_LIMIT_PER_KEY" default:"120"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"REGISTRAR_AUTO_MIGRATE" default:"false"`
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
