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
	Eventing      EventingConfig
	GCP           GCPConfig
	GCS           GCSConfig
	PubSub        PubSubConfig
	Mail          MailConfig
	Outbox        OutboxConfig
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
	Env          string `envconfig:"VOLTARIA_APP_ENV" required:"true"`
	Port         string `envconfig:"VOLTARIA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"VOLTARIA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"VOLTARIA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"VOLTARIA_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"VOLTARIA_DB_DSN"`
	Driver string `envconfig:"VOLTARIA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"VOLTARIA_DB_HOST"`
	LegacyPort     int    `envconfig:"VOLTARIA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"VOLTARIA_DB_USER"`
	LegacyPassword string `envconfig:"VOLTARIA_DB_PASSWORD"`
	LegacyName     string `envconfig:"VOLTARIA_DB_NAME"`
	LegacySSLMode  string `envconfig:"VOLTARIA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"VOLTARIA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"VOLTARIA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"VOLTARIA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"VOLTARIA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"VOLTARIA_REDIS_URL" required:"true"`
	Address      string        `envconfig:"VOLTARIA_REDIS_ADDR"`
	Password     string        `envconfig:"VOLTARIA_REDIS_PASSWORD"`
	DB           int           `envconfig:"VOLTARIA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"VOLTARIA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"VOLTARIA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"VOLTARIA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"VOLTARIA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"VOLTARIA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"VOLTARIA_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"VOLTARIA_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"VOLTARIA_JWT_EXPIRATION_MINUTES" required:"true"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"VOLTARIA_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"VOLTARIA_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"VOLTARIA_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"VOLTARIA_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"VOLTARIA_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"VOLTARIA_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit int           `envconfig:"VOLTARIA_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"VOLTARIA_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"VOLTARIA_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"VOLTARIA_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"VOLTARIA_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"VOLTARIA_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"VOLTARIA_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"VOLTARIA_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName        string        `envconfig:"VOLTARIA_GCS_BUCKET_NAME" required:"true"`
	CertificatePrefix string        `envconfig:"VOLTARIA_GCS_CERTIFICATE_PREFIX" default:"warranty-certificates"`
	DownloadURLExpiry time.Duration `envconfig:"VOLTARIA_GCS_DOWNLOAD_URL_EXPIRY" default:"24h"`
}

type PubSubConfig struct {
	WarrantyTopic            string `envconfig:"VOLTARIA_PUBSUB_WARRANTY_TOPIC" required:"true"`
	OrdersTopic              string `envconfig:"VOLTARIA_PUBSUB_ORDERS_TOPIC" required:"true"`
	NotificationTopic        string `envconfig:"VOLTARIA_PUBSUB_NOTIFICATION_TOPIC" required:"true"`
	NotificationSubscription string `envconfig:"VOLTARIA_PUBSUB_NOTIFICATION_SUBSCRIPTION" required:"true"`
}

type MailConfig struct {
	Host         string        `envconfig:"VOLTARIA_SMTP_HOST" required:"true"`
	Port         int           `envconfig:"VOLTARIA_SMTP_PORT" default:"587"`
	Username     string        `envconfig:"VOLTARIA_SMTP_USERNAME"`
	Password     string        `envconfig:"VOLTARIA_SMTP_PASSWORD"`
	FallbackHost string        `envconfig:"VOLTARIA_SMTP_FALLBACK_HOST"`
	FallbackPort int           `envconfig:"VOLTARIA_SMTP_FALLBACK_PORT" default:"25"`
	From         string        `envconfig:"VOLTARIA_SMTP_FROM" required:"true"`
	SendTimeout  time.Duration `envconfig:"VOLTARIA_SMTP_SEND_TIMEOUT" default:"10s"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"VOLTARIA_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"VOLTARIA_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"VOLTARIA_OUTBOX_MAX_ATTEMPTS" default:"10"`
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
