package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServiceName string
	Addr        string
	LogLevel    string

	DBDriver    string
	DatabaseURL string

	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
	JWTSecret         []byte
	JWTIssuer         string

	SessionTTL time.Duration
	RefreshTTL time.Duration
	ResetTTL   time.Duration

	PasswordHasher  string
	BcryptCost      int
	HashConcurrency int

	FrontendURL      string
	MailerFrom       string
	MailerTransport  string
	ExposeMailStatus bool

	KafkaBrokers   []string
	KafkaUserTopic string
	KafkaMailTopic string

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string

	AdminEmail         string
	AdminPassword      string
	AdminSeedWhenEmpty bool

	CORSOrigins []string
}

// Load reads .env (when present) and then the process environment.
func Load() Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	return Config{
		ServiceName: EnvDefault("SERVICE_NAME", "tutorials-auth"),
		Addr:        EnvDefault("APP_ADDR", ":8080"),
		LogLevel:    EnvDefault("LOG_LEVEL", "info"),

		DBDriver:    strings.ToLower(EnvDefault("DB_DRIVER", "sqlite")),
		DatabaseURL: EnvDefault("DATABASE_URL", "var/app.db"),

		JWTPrivateKeyPath: os.Getenv("JWT_PRIVATE_KEY_PATH"),
		JWTPublicKeyPath:  os.Getenv("JWT_PUBLIC_KEY_PATH"),
		JWTSecret:         []byte(os.Getenv("JWT_SECRET")),
		JWTIssuer:         EnvDefault("JWT_ISSUER", "tutorials-api"),

		SessionTTL: EnvDurationDefault("SESSION_TTL", 15*time.Minute),
		RefreshTTL: EnvDurationDefault("REFRESH_TTL", 30*24*time.Hour),
		ResetTTL:   EnvDurationDefault("RESET_TTL", 30*time.Minute),

		PasswordHasher:  strings.ToLower(EnvDefault("PASSWORD_HASHER", "bcrypt")),
		BcryptCost:      EnvIntDefault("BCRYPT_COST", 10),
		HashConcurrency: EnvIntDefault("HASH_CONCURRENCY", runtime.GOMAXPROCS(0)),

		FrontendURL:      strings.TrimRight(EnvDefault("FRONTEND_URL", "http://localhost:4200"), "/"),
		MailerFrom:       EnvDefault("MAILER_FROM", "no-reply@localhost"),
		MailerTransport:  strings.ToLower(EnvDefault("MAILER_TRANSPORT", "log")),
		ExposeMailStatus: EnvBoolDefault("EXPOSE_MAIL_STATUS", false),

		KafkaBrokers:   CSV(os.Getenv("KAFKA_BROKERS")),
		KafkaUserTopic: EnvDefault("KAFKA_USER_TOPIC", "user_events"),
		KafkaMailTopic: EnvDefault("KAFKA_MAIL_TOPIC", "mail_outbox"),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),
		ESIndex:    EnvDefault("ES_INDEX", "users"),

		AdminEmail:         EnvDefault("ADMIN_EMAIL", "admin@test.local"),
		AdminPassword:      EnvDefault("ADMIN_PASSWORD", "123456"),
		AdminSeedWhenEmpty: EnvBoolDefault("ADMIN_SEED_WHEN_EMPTY", true),

		CORSOrigins: CSV(os.Getenv("CORS_ORIGINS")),
	}
}

// Validate reports every missing or inconsistent setting at once.
func (c Config) Validate() error {
	var errs []error

	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER must be sqlite or postgres, got %q", c.DBDriver))
	}
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("missing required env DATABASE_URL"))
	}

	hasKeys := c.JWTPrivateKeyPath != "" && c.JWTPublicKeyPath != ""
	if (c.JWTPrivateKeyPath == "") != (c.JWTPublicKeyPath == "") {
		errs = append(errs, errors.New("JWT_PRIVATE_KEY_PATH and JWT_PUBLIC_KEY_PATH must be set together"))
	}
	if !hasKeys && len(c.JWTSecret) == 0 {
		errs = append(errs, errors.New("missing required env JWT_SECRET (or JWT_PRIVATE_KEY_PATH/JWT_PUBLIC_KEY_PATH)"))
	}

	switch c.PasswordHasher {
	case "bcrypt", "argon2id":
	default:
		errs = append(errs, fmt.Errorf("PASSWORD_HASHER must be bcrypt or argon2id, got %q", c.PasswordHasher))
	}
	switch c.MailerTransport {
	case "log":
	case "kafka":
		if len(c.KafkaBrokers) == 0 {
			errs = append(errs, errors.New("MAILER_TRANSPORT=kafka requires KAFKA_BROKERS"))
		}
	default:
		errs = append(errs, fmt.Errorf("MAILER_TRANSPORT must be log or kafka, got %q", c.MailerTransport))
	}

	if c.SessionTTL <= 0 || c.RefreshTTL <= 0 || c.ResetTTL <= 0 {
		errs = append(errs, errors.New("token TTLs must be positive"))
	}

	return errors.Join(errs...)
}

func (c Config) UsesRSA() bool {
	return c.JWTPrivateKeyPath != "" && c.JWTPublicKeyPath != ""
}
