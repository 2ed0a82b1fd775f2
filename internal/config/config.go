package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Backend selectors.
const (
	IdentityFirebase = "firebase"
	IdentityLocal    = "local"

	MailSendGrid = "sendgrid"
	MailSMTP     = "smtp"

	OTPStoreMemory = "memory"
	OTPStoreDynamo = "dynamo"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort        string   `env:"PORT" envDefault:"5000"`
	AppEnv         string   `env:"APP_ENV" envDefault:"development"`
	LogLevel       string   `env:"LOG_LEVEL" envDefault:"info"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envDefault:"*" envSeparator:","` // CORS allowed origins

	IdentityBackend     string `env:"IDENTITY_BACKEND" envDefault:"firebase"`
	FirebaseCredentials string `env:"FIREBASE_CREDENTIALS"` // service-account JSON

	MailProvider   string `env:"MAIL_PROVIDER" envDefault:"sendgrid"`
	SendGridAPIKey string `env:"SENDGRID_API_KEY"`
	SenderEmail    string `env:"SENDER_EMAIL"`
	SenderName     string `env:"SENDER_NAME" envDefault:"StudyGroup"`
	SMTPHost       string `env:"SMTP_HOST" envDefault:"localhost"`
	SMTPPort       string `env:"SMTP_PORT" envDefault:"1025"`
	SMTPUsername   string `env:"SMTP_USERNAME"`
	SMTPPassword   string `env:"SMTP_PASSWORD"`

	OTPTTL    time.Duration `env:"OTP_TTL" envDefault:"5m"`
	OTPIssuer string        `env:"OTP_ISSUER" envDefault:"StudyGroup"`
	OTPStore  string        `env:"OTP_STORE" envDefault:"memory"`

	AWSRegion      string `env:"AWS_REGION" envDefault:"us-east-1"`
	AWSEndpointURL string `env:"AWS_ENDPOINT_URL"` // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretKey   string `env:"AWS_SECRET_ACCESS_KEY"`
	DynamoTables   DynamoTables

	JWTPrivateKeyPath string        `env:"JWT_PRIVATE_KEY_PATH" envDefault:"./private_key.pem"`
	JWTPublicKeyPath  string        `env:"JWT_PUBLIC_KEY_PATH" envDefault:"./public_key.pem"`
	JWTExpiry         time.Duration `env:"JWT_EXPIRY" envDefault:"1h"`

	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"5"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"10"`
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	OTPCodes string `env:"DYNAMO_TABLE_OTP_CODES" envDefault:"otp_codes"`
	Users    string `env:"DYNAMO_TABLE_USERS" envDefault:"users"`
}

// Load reads all configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	for i, o := range cfg.AllowedOrigins {
		cfg.AllowedOrigins[i] = strings.TrimSpace(o)
	}
	return &cfg, nil
}

// Validate reports settings the selected backends cannot run without.
func (c *Config) Validate() error {
	var errs []error

	switch c.IdentityBackend {
	case IdentityFirebase:
		if c.FirebaseCredentials == "" {
			errs = append(errs, errors.New("FIREBASE_CREDENTIALS is required for the firebase identity backend"))
		}
	case IdentityLocal:
	default:
		errs = append(errs, fmt.Errorf("unknown IDENTITY_BACKEND %q", c.IdentityBackend))
	}

	switch c.MailProvider {
	case MailSendGrid:
		if c.SendGridAPIKey == "" {
			errs = append(errs, errors.New("SENDGRID_API_KEY is required for the sendgrid mail provider"))
		}
	case MailSMTP:
	default:
		errs = append(errs, fmt.Errorf("unknown MAIL_PROVIDER %q", c.MailProvider))
	}
	if c.SenderEmail == "" {
		errs = append(errs, errors.New("SENDER_EMAIL is required"))
	}

	switch c.OTPStore {
	case OTPStoreMemory, OTPStoreDynamo:
	default:
		errs = append(errs, fmt.Errorf("unknown OTP_STORE %q", c.OTPStore))
	}
	if c.OTPTTL <= 0 {
		errs = append(errs, errors.New("OTP_TTL must be positive"))
	}

	return errors.Join(errs...)
}

// NeedsDynamo reports whether any selected backend stores data in DynamoDB.
func (c *Config) NeedsDynamo() bool {
	return c.OTPStore == OTPStoreDynamo || c.IdentityBackend == IdentityLocal
}
