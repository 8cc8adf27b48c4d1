package config

import (
	"log"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env        string `env:"ENV" env-required:"true"`
	LogLevel   string `env:"LOG_LEVEL" env-default:"info" env-description:"logging level, debug, info, etc."`
	HttpServer HttpServer
	Database   Database
	Limiter    Limiter
	Auth       AuthConfig
	Google     GoogleConfig
	SMTP       SMTPConfig
	Email      EmailConfig
	Cache      Cache
	Queue      Queue
}

type HttpServer struct {
	Port           string        `env:"HTTP_PORT" env-default:"8080"`
	Timeout        time.Duration `env:"HTTP_TIMEOUT" env-default:"10s"`
	IdleTimeout    time.Duration `env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
	SwaggerEnabled bool          `env:"HTTP_SWAGGER_ENABLED" env-default:"false"`
	AllowedOrigins []string      `env:"HTTP_ALLOWED_ORIGINS" env-default:"http://localhost:3000" env-separator:","`
	FrontendURL    string        `env:"HTTP_FRONTEND_URL" env-default:"http://localhost:3000"`
}

type Database struct {
	Net                string        `env:"DB_NET" env-default:"tcp"`
	Server             string        `env:"DB_SERVER" env-required:"true"`
	DBName             string        `env:"DB_NAME" env-required:"true"`
	User               string        `env:"DB_USER" env-required:"true"`
	Password           string        `env:"DB_PASSWORD" env-required:"true"`
	TimeZone           string        `env:"DB_TIMEZONE" env-default:"UTC"`
	Timeout            time.Duration `env:"DB_TIMEOUT" env-default:"2s"`
	MaxIdleConnections int           `env:"DB_MAX_IDLE_CONNECTIONS" env-default:"40"`
	MaxOpenConnections int           `env:"DB_MAX_OPEN_CONNECTIONS" env-default:"40"`
	ConnMaxLifetime    time.Duration `env:"DB_CONN_MAX_LIFETIME" env-default:"30m"`
	MigrateOnStart     bool          `env:"DB_MIGRATE_ON_START" env-default:"false"`
}

// Queue tunes the asynq worker that sends welcome emails.
type Queue struct {
	Concurrency     int           `env:"QUEUE_CONCURRENCY" env-default:"10"`
	ShutdownTimeout time.Duration `env:"QUEUE_SHUTDOWN_TIMEOUT" env-default:"8s"`
}

type Limiter struct {
	RPS   int           `env:"LIMITER_RPS" env-default:"10"`
	Burst int           `env:"LIMITER_BURST" env-default:"20"`
	TTL   time.Duration `env:"LIMITER_TTL" env-default:"10m"`
}

type AuthConfig struct {
	JWT          JWTConfig
	Candidate    CandidateConfig
	Verification VerificationConfig
	BcryptCost   int `env:"AUTH_BCRYPT_COST" env-default:"12"`
}

type JWTConfig struct {
	AccessTokenTTL  time.Duration `env:"JWT_ACCESS_TOKEN_TTL" env-default:"15m"`
	RefreshTokenTTL time.Duration `env:"JWT_REFRESH_TOKEN_TTL" env-default:"240h"`
	SigningKey      string        `env:"JWT_SIGNING_KEY" env-required:"true"`
}

// CandidateConfig signs the caller-held tokens that carry a not yet persisted account.
type CandidateConfig struct {
	SigningKey      string        `env:"CANDIDATE_SIGNING_KEY" env-required:"true"`
	ChallengeTTL    time.Duration `env:"CANDIDATE_CHALLENGE_TTL" env-default:"15m"`
	RegistrationTTL time.Duration `env:"CANDIDATE_REGISTRATION_TTL" env-default:"30m"`
}

type VerificationConfig struct {
	CodeTTL        time.Duration `env:"AUTH_VERIFICATION_CODE_TTL" env-default:"15m"`
	MaxAttempts    int           `env:"AUTH_VERIFICATION_MAX_ATTEMPTS" env-default:"5"`
	ResendCooldown time.Duration `env:"AUTH_VERIFICATION_RESEND_COOLDOWN" env-default:"0s"`
}

type GoogleConfig struct {
	ClientID     string        `env:"GOOGLE_CLIENT_ID" env-required:"true"`
	ClientSecret string        `env:"GOOGLE_CLIENT_SECRET" env-required:"true"`
	RedirectURL  string        `env:"GOOGLE_REDIRECT_URL" env-required:"true"`
	IssuerURL    string        `env:"GOOGLE_ISSUER_URL" env-default:"https://accounts.google.com"`
	StateTTL     time.Duration `env:"GOOGLE_STATE_TTL" env-default:"10m"`
}

type SMTPConfig struct {
	Host string `env:"SMTP_HOST" env-required:"true"`
	Port int    `env:"SMTP_PORT" env-required:"true"`
	From string `env:"SMTP_FROM" env-required:"true"`
	Pass string `env:"SMTP_PASS" env-required:"true"`
}

type EmailConfig struct {
	Enabled      bool   `env:"EMAIL_ENABLED" env-default:"false"`
	TemplatesDir string `env:"EMAIL_TEMPLATES_DIR" env-default:"./templates"`
	Templates    EmailTemplates
}

type EmailTemplates struct {
	Verification string `env:"EMAIL_TEMPLATE_VERIFICATION" env-default:"verification_email.html"`
	Welcome      string `env:"EMAIL_TEMPLATE_WELCOME" env-default:"welcome_email.html"`
}

type Cache struct {
	Type  string `env:"REDIS_TYPE" env-required:"true" env-description:"specifies provider, one of redis/redisCluster"`
	Redis struct {
		Address  string `env:"REDIS_ADDR" env-default:"" env-description:"redis host:port single instance"`
		Password string `env:"REDIS_PASSWORD" env-default:"" env-description:"redis password if exists"`
		PoolSize int    `env:"REDIS_POOL_SIZE" env-default:"70" env-description:"max tcp connections pool size"`
	}
	RedisCluster struct {
		Addresses []string `env:"REDIS_CLUSTER_ADDRS" env-default:"" env-description:"redis cluster nodes: 172.27.29.90:7000,172.27.29.91:7001"`
		Password  string   `env:"REDIS_PASSWORD" env-default:"" env-description:"redis password if exists"`
		PoolSize  int      `env:"REDIS_POOL_SIZE" env-default:"70" env-description:"max tcp connections pool size"`
	}
}

func Load() (*Config, error) {
	var cfg Config

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("cannot read config from environment: %s", err)
	}

	return cfg
}
