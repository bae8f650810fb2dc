package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/yungbote/certifytrack-backend/internal/data/db"
	"github.com/yungbote/certifytrack-backend/internal/observability"
	"github.com/yungbote/certifytrack-backend/internal/platform/storage"
)

// Config is read from the environment, optionally seeded by an app.env file.
type Config struct {
	Port    string `mapstructure:"PORT"`
	LogMode string `mapstructure:"LOG_MODE"`

	DBDriver   string `mapstructure:"DB_DRIVER"`
	DBDSN      string `mapstructure:"DB_DSN"`
	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     string `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`

	JWTSecretKey      string `mapstructure:"JWT_SECRET_KEY"`
	AccessTokenTTLSec int    `mapstructure:"ACCESS_TOKEN_TTL"`
	AdminEmails       string `mapstructure:"ADMIN_EMAILS"`
	CORSOrigins       string `mapstructure:"CORS_ORIGINS"`

	PublicBaseURL  string  `mapstructure:"PUBLIC_BASE_URL"`
	CertIssuerName string  `mapstructure:"CERT_ISSUER_NAME"`
	CertFontPath   string  `mapstructure:"CERT_FONT_PATH"`
	CertFontSize   float64 `mapstructure:"CERT_FONT_SIZE"`

	ObjectStorageMode   string `mapstructure:"OBJECT_STORAGE_MODE"`
	GCSBucketName       string `mapstructure:"GCS_BUCKET_NAME"`
	GCSCredentialsJSON  string `mapstructure:"GCS_CREDENTIALS_JSON"`
	StorageEmulatorHost string `mapstructure:"STORAGE_EMULATOR_HOST"`
	LocalUploadDir      string `mapstructure:"LOCAL_UPLOAD_DIR"`
	UploadMaxBytes      int64  `mapstructure:"UPLOAD_MAX_BYTES"`

	SendGridAPIKey    string `mapstructure:"SENDGRID_API_KEY"`
	SendGridFromEmail string `mapstructure:"SENDGRID_FROM_EMAIL"`
	SendGridFromName  string `mapstructure:"SENDGRID_FROM_NAME"`

	ProgressReconcileCron string `mapstructure:"PROGRESS_RECONCILE_CRON"`
	MetricsEnabled        bool   `mapstructure:"METRICS_ENABLED"`

	OtelEnabled     bool    `mapstructure:"OTEL_ENABLED"`
	OtelServiceName string  `mapstructure:"OTEL_SERVICE_NAME"`
	OtelEnvironment string  `mapstructure:"OTEL_ENVIRONMENT"`
	OtelEndpoint    string  `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OtelHeaders     string  `mapstructure:"OTEL_EXPORTER_OTLP_HEADERS"`
	OtelInsecure    bool    `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	OtelSampleRatio float64 `mapstructure:"OTEL_SAMPLER_RATIO"`
}

var defaults = map[string]any{
	"PORT":                        "8080",
	"LOG_MODE":                    "development",
	"DB_DRIVER":                   db.DriverPostgres,
	"DB_DSN":                      "",
	"DB_HOST":                     "localhost",
	"DB_PORT":                     "5432",
	"DB_USER":                     "postgres",
	"DB_PASSWORD":                 "postgres",
	"DB_NAME":                     "certifytrack",
	"JWT_SECRET_KEY":              "",
	"ACCESS_TOKEN_TTL":            86400,
	"ADMIN_EMAILS":                "",
	"CORS_ORIGINS":                "",
	"PUBLIC_BASE_URL":             "http://localhost:8080",
	"CERT_ISSUER_NAME":            "CertifyTrack",
	"CERT_FONT_PATH":              "",
	"CERT_FONT_SIZE":              32.0,
	"OBJECT_STORAGE_MODE":         string(storage.ModeLocal),
	"GCS_BUCKET_NAME":             "",
	"GCS_CREDENTIALS_JSON":        "",
	"STORAGE_EMULATOR_HOST":       "",
	"LOCAL_UPLOAD_DIR":            "./uploads",
	"UPLOAD_MAX_BYTES":            int64(10 << 20),
	"SENDGRID_API_KEY":            "",
	"SENDGRID_FROM_EMAIL":         "",
	"SENDGRID_FROM_NAME":          "CertifyTrack",
	"PROGRESS_RECONCILE_CRON":     "15 2 * * *",
	"METRICS_ENABLED":             true,
	"OTEL_ENABLED":                false,
	"OTEL_SERVICE_NAME":           "certifytrack",
	"OTEL_ENVIRONMENT":            "development",
	"OTEL_EXPORTER_OTLP_ENDPOINT": "",
	"OTEL_EXPORTER_OTLP_HEADERS":  "",
	"OTEL_EXPORTER_OTLP_INSECURE": false,
	"OTEL_SAMPLER_RATIO":          0.1,
}

// LoadConfig reads app.env from dir when present and lets the environment override it.
func LoadConfig(dir string) (Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AddConfigPath(dir)
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read app.env: %w", err)
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.JWTSecretKey) == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if c.AccessTokenTTLSec <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_TTL must be positive")
	}
	return storage.Validate(c.Storage())
}

func (c Config) Database() db.Config {
	return db.Config{
		Driver:   c.DBDriver,
		DSN:      c.DBDSN,
		Host:     c.DBHost,
		Port:     c.DBPort,
		User:     c.DBUser,
		Password: c.DBPassword,
		Name:     c.DBName,
	}
}

func (c Config) Storage() storage.Config {
	return storage.Config{
		Mode:            storage.Mode(strings.ToLower(strings.TrimSpace(c.ObjectStorageMode))),
		BucketName:      c.GCSBucketName,
		EmulatorHost:    c.StorageEmulatorHost,
		CredentialsJSON: c.GCSCredentialsJSON,
		LocalDir:        c.LocalUploadDir,
		PublicBaseURL:   c.PublicBaseURL,
	}
}

func (c Config) Otel() observability.OtelConfig {
	return observability.OtelConfig{
		Enabled:     c.OtelEnabled,
		ServiceName: c.OtelServiceName,
		Environment: c.OtelEnvironment,
		Endpoint:    c.OtelEndpoint,
		Headers:     observability.ParseHeaders(c.OtelHeaders),
		Insecure:    c.OtelInsecure,
		SampleRatio: c.OtelSampleRatio,
	}
}

func (c Config) AccessTTL() time.Duration {
	return time.Duration(c.AccessTokenTTLSec) * time.Second
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
