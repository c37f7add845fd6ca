package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config aggregates application settings that may be sourced from files or environment variables.
type Config struct {
	API       APIConfig       `mapstructure:"api"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	MinIO     MinIOConfig     `mapstructure:"minio"`
	Access    AccessConfig    `mapstructure:"access"`
	Stripe    StripeConfig    `mapstructure:"stripe"`
	Email     EmailConfig     `mapstructure:"email"`
	TextGen   TextGenConfig   `mapstructure:"textgen"`
	PDF       PDFConfig       `mapstructure:"pdf"`
	Classroom ClassroomConfig `mapstructure:"classroom"`
}

// APIConfig contains HTTP server settings.
type APIConfig struct {
	Port           int    `mapstructure:"port"`
	CookieDomain   string `mapstructure:"cookie_domain"`
	InternalSecret string `mapstructure:"internal_secret"`
	AllowedOrigins string `mapstructure:"allowed_origins"`
	PublicBaseURL  string `mapstructure:"public_base_url"`
}

// Origins splits the comma separated AllowedOrigins value.
func (a APIConfig) Origins() []string {
	var out []string
	for _, o := range strings.Split(a.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// DatabaseConfig contains connection options for PostgreSQL.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
}

// RedisConfig 包含 Redis 连接配置。
type RedisConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Addr returns host:port.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// MinIOConfig contains connection options for MinIO/S3-compatible storage.
type MinIOConfig struct {
	Endpoint        string        `mapstructure:"endpoint"`
	AccessKeyID     string        `mapstructure:"access_key_id"`
	SecretAccessKey string        `mapstructure:"secret_access_key"`
	UseSSL          bool          `mapstructure:"use_ssl"`
	Bucket          string        `mapstructure:"bucket"`
	Region          string        `mapstructure:"region"`
	BucketLookup    string        `mapstructure:"bucket_lookup"`
	PublicEndpoint  string        `mapstructure:"public_endpoint"`
	AutoCreate      bool          `mapstructure:"auto_create_bucket"`
	LinkTTL         time.Duration `mapstructure:"link_ttl"`
}

// AccessConfig 控制访问 cookie 与 Teacher Mode 会话。
type AccessConfig struct {
	SigningSecret     string        `mapstructure:"signing_secret"`
	PassTTL           time.Duration `mapstructure:"pass_ttl"`
	TeacherSessionTTL time.Duration `mapstructure:"teacher_session_ttl"`
	PINMaxAttempts    int           `mapstructure:"pin_max_attempts"`
	PINWindow         time.Duration `mapstructure:"pin_window"`
}

// StripeConfig contains checkout settings.
type StripeConfig struct {
	SecretKey  string `mapstructure:"secret_key"`
	PriceID    string `mapstructure:"price_id"`
	PriceMinor int64  `mapstructure:"price_minor"`
	SuccessURL string `mapstructure:"success_url"`
	CancelURL  string `mapstructure:"cancel_url"`
}

// EmailConfig contains the SMTP relay used for receipts.
type EmailConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

// Enabled reports whether receipts can be sent.
func (e EmailConfig) Enabled() bool {
	return e.Host != "" && e.From != ""
}

// TextGenConfig 配置文本生成模型。
type TextGenConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	Temperature float32       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// PDFConfig 配置无头浏览器打印。
type PDFConfig struct {
	RenderTimeout time.Duration `mapstructure:"render_timeout"`
	MarginMM      float64       `mapstructure:"margin_mm"`
	BrowserBin    string        `mapstructure:"browser_bin"`
}

// ClassroomConfig 配置课堂会话。
type ClassroomConfig struct {
	CodeLength        int           `mapstructure:"code_length"`
	TTL               time.Duration `mapstructure:"ttl"`
	MaxCreateAttempts int           `mapstructure:"max_create_attempts"`
}

// DSN builds a lib/pq compatible connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host,
		d.Port,
		d.User,
		d.Password,
		d.Name,
		d.SSLMode,
	)
}

// Load reads configuration from environment variables (with optional defaults).
// A .env file in the working directory is applied first when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if err := bindEnv(v); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// MustLoad wraps Load and panics on failure.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.allowed_origins", "http://localhost:3000")
	v.SetDefault("api.public_base_url", "http://localhost:3000")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "cvbuilder")
	v.SetDefault("database.user", "cvbuilder")
	v.SetDefault("database.password", "cvbuilder")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("minio.endpoint", "localhost:9000")
	v.SetDefault("minio.use_ssl", false)
	v.SetDefault("minio.bucket", "cv-exports")
	v.SetDefault("minio.public_endpoint", "http://localhost:9000")
	v.SetDefault("minio.auto_create_bucket", true)
	v.SetDefault("minio.link_ttl", 5*time.Minute)
	v.SetDefault("access.pass_ttl", 30*24*time.Hour)
	v.SetDefault("access.teacher_session_ttl", 8*time.Hour)
	v.SetDefault("access.pin_max_attempts", 5)
	v.SetDefault("access.pin_window", 15*time.Minute)
	v.SetDefault("stripe.price_minor", 499)
	v.SetDefault("email.port", 587)
	v.SetDefault("textgen.model", "gemini-1.5-flash")
	v.SetDefault("textgen.temperature", 0.7)
	v.SetDefault("textgen.timeout", 60*time.Second)
	v.SetDefault("pdf.render_timeout", 30*time.Second)
	v.SetDefault("pdf.margin_mm", 12)
	v.SetDefault("classroom.code_length", 6)
	v.SetDefault("classroom.ttl", 7*24*time.Hour)
	v.SetDefault("classroom.max_create_attempts", 5)
}

func bindEnv(v *viper.Viper) error {
	mappings := map[string]string{
		"api.port":                      "API_PORT",
		"api.cookie_domain":             "COOKIE_DOMAIN",
		"api.internal_secret":           "INTERNAL_API_SECRET",
		"api.allowed_origins":           "ALLOWED_ORIGINS",
		"api.public_base_url":           "PUBLIC_BASE_URL",
		"database.host":                 "DATABASE_HOST",
		"database.port":                 "DATABASE_PORT",
		"database.name":                 "POSTGRES_DB",
		"database.user":                 "POSTGRES_USER",
		"database.password":             "POSTGRES_PASSWORD",
		"database.sslmode":              "DATABASE_SSLMODE",
		"redis.host":                    "REDIS_HOST",
		"redis.port":                    "REDIS_PORT",
		"minio.endpoint":                "MINIO_ENDPOINT",
		"minio.access_key_id":           "MINIO_ACCESS_KEY_ID",
		"minio.secret_access_key":       "MINIO_SECRET_ACCESS_KEY",
		"minio.use_ssl":                 "MINIO_USE_SSL",
		"minio.bucket":                  "MINIO_BUCKET",
		"minio.region":                  "MINIO_REGION",
		"minio.bucket_lookup":           "MINIO_BUCKET_LOOKUP",
		"minio.public_endpoint":         "MINIO_PUBLIC_ENDPOINT",
		"minio.auto_create_bucket":      "MINIO_AUTO_CREATE_BUCKET",
		"minio.link_ttl":                "MINIO_LINK_TTL",
		"access.signing_secret":         "ACCESS_SIGNING_SECRET",
		"access.pass_ttl":               "ACCESS_PASS_TTL",
		"access.teacher_session_ttl":    "TEACHER_SESSION_TTL",
		"access.pin_max_attempts":       "TEACHER_PIN_MAX_ATTEMPTS",
		"access.pin_window":             "TEACHER_PIN_WINDOW",
		"stripe.secret_key":             "STRIPE_SECRET_KEY",
		"stripe.price_id":               "STRIPE_PRICE_ID",
		"stripe.price_minor":            "STRIPE_PRICE_MINOR",
		"stripe.success_url":            "STRIPE_SUCCESS_URL",
		"stripe.cancel_url":             "STRIPE_CANCEL_URL",
		"email.host":                    "SMTP_HOST",
		"email.port":                    "SMTP_PORT",
		"email.user":                    "SMTP_USER",
		"email.password":                "SMTP_PASSWORD",
		"email.from":                    "EMAIL_FROM",
		"textgen.api_key":               "GEMINI_API_KEY",
		"textgen.model":                 "GEMINI_MODEL",
		"textgen.temperature":           "GEMINI_TEMPERATURE",
		"textgen.timeout":               "TEXTGEN_TIMEOUT",
		"pdf.render_timeout":            "PDF_RENDER_TIMEOUT",
		"pdf.margin_mm":                 "PDF_MARGIN_MM",
		"pdf.browser_bin":               "ROD_BROWSER_BIN",
		"classroom.code_length":         "CLASS_CODE_LENGTH",
		"classroom.ttl":                 "CLASS_TTL",
		"classroom.max_create_attempts": "CLASS_MAX_CREATE_ATTEMPTS",
	}

	for key, env := range mappings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("bind %s to %s: %w", key, env, err)
		}
	}

	return nil
}

func validate(cfg Config) error {
	if cfg.API.Port <= 0 {
		return errors.New("api port must be positive")
	}
	if cfg.Database.Host == "" {
		return errors.New("database host is required")
	}
	if cfg.Database.Port <= 0 {
		return errors.New("database port must be positive")
	}
	if cfg.Database.Name == "" {
		return errors.New("database name is required")
	}
	if cfg.Database.User == "" {
		return errors.New("database user is required")
	}
	if cfg.Database.Password == "" {
		return errors.New("database password is required")
	}
	if cfg.Redis.Host == "" {
		return errors.New("redis host is required")
	}
	if cfg.Redis.Port <= 0 {
		return errors.New("redis port must be positive")
	}
	if cfg.MinIO.Endpoint == "" {
		return errors.New("minio endpoint is required")
	}
	if cfg.MinIO.AccessKeyID == "" {
		return errors.New("minio access key id is required")
	}
	if cfg.MinIO.SecretAccessKey == "" {
		return errors.New("minio secret access key is required")
	}
	if cfg.MinIO.Bucket == "" {
		return errors.New("minio bucket is required")
	}
	if len(cfg.Access.SigningSecret) < 32 {
		return errors.New("access signing secret must be at least 32 bytes")
	}
	if cfg.Access.PassTTL <= 0 || cfg.Access.TeacherSessionTTL <= 0 {
		return errors.New("access ttl must be positive")
	}
	if cfg.Access.PINMaxAttempts <= 0 {
		return errors.New("teacher pin max attempts must be positive")
	}
	if cfg.PDF.MarginMM < 0 {
		return errors.New("pdf margin must not be negative")
	}
	if cfg.Classroom.CodeLength < 4 {
		return errors.New("class code length must be at least 4")
	}
	if cfg.Classroom.MaxCreateAttempts <= 0 {
		return errors.New("class max create attempts must be positive")
	}
	return nil
}
