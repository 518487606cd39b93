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
	GCP          GCPConfig
	GCS          GCSConfig
	PubSub       PubSubConfig
	Gemini       GeminiConfig
	BigQuery     BigQueryConfig
	Outbox       OutboxConfig
	Catalog      CatalogConfig
	Matching     MatchingConfig
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
	Env          string `envconfig:"TCGC_APP_ENV" required:"true"`
	Port         string `envconfig:"TCGC_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"TCGC_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TCGC_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"TCGC_DB_DSN"`
	Driver string `envconfig:"TCGC_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"TCGC_DB_HOST"`
	LegacyPort     int    `envconfig:"TCGC_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"TCGC_DB_USER"`
	LegacyPassword string `envconfig:"TCGC_DB_PASSWORD"`
	LegacyName     string `envconfig:"TCGC_DB_NAME"`
	LegacySSLMode  string `envconfig:"TCGC_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TCGC_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TCGC_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TCGC_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TCGC_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"TCGC_REDIS_URL" required:"true"`
	PoolSize     int           `envconfig:"TCGC_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TCGC_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TCGC_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TCGC_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TCGC_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret string `envconfig:"TCGC_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"TCGC_JWT_ISSUER" required:"true"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"TCGC_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"TCGC_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"TCGC_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"TCGC_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName      string        `envconfig:"TCGC_GCS_BUCKET_NAME" required:"true"`
	UploadURLExpiry time.Duration `envconfig:"TCGC_GCS_UPLOAD_URL_EXPIRY" default:"15m"`
}

type PubSubConfig struct {
	CardsTopic        string `envconfig:"TCGC_PUBSUB_CARDS_TOPIC" required:"true"`
	CardsSubscription string `envconfig:"TCGC_PUBSUB_CARDS_SUBSCRIPTION" required:"true"`
}

type GeminiConfig struct {
	APIKey     string        `envconfig:"TCGC_GEMINI_API_KEY" required:"true"`
	Model      string        `envconfig:"TCGC_GEMINI_MODEL" default:"gemini-3-flash-preview"`
	Retries    int           `envconfig:"TCGC_GEMINI_RETRIES" default:"3"`
	RetryDelay time.Duration `envconfig:"TCGC_GEMINI_RETRY_DELAY" default:"10s"`
}

type BigQueryConfig struct {
	Dataset          string `envconfig:"TCGC_BIGQUERY_DATASET" default:"tcg_companion"`
	MatchEventsTable string `envconfig:"TCGC_BIGQUERY_MATCH_EVENTS_TABLE" default:"match_events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"TCGC_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"TCGC_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"TCGC_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type CatalogConfig struct {
	BaseURL     string `envconfig:"TCGC_CATALOG_BASE_URL" default:"https://api.tcgdex.net/v2/en"`
	BatchSize   int    `envconfig:"TCGC_CATALOG_BATCH_SIZE" default:"5"`
	UpsertChunk int    `envconfig:"TCGC_CATALOG_UPSERT_CHUNK" default:"200"`
}

type MatchingConfig struct {
	CandidateLimit int `envconfig:"TCGC_MATCHING_CANDIDATE_LIMIT" default:"10"`
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
