package config

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds application configuration (env + optional .env file).
type Config struct {
	Env      string `env:"APP_ENV" validate:"oneof=development test production"`
	Port     string `env:"PORT" validate:"required"`
	LogLevel string `env:"LOG_LEVEL"`

	DatabaseURL string `env:"DATABASE_URL" validate:"required"`
	RedisURL    string `env:"REDIS_URL" validate:"required"`

	SupabaseURL        string `env:"SUPABASE_URL" validate:"required,url"`
	SupabaseAnonKey    string `env:"SUPABASE_ANON_KEY" validate:"required"`
	SupabaseJWTSecret  string `env:"SUPABASE_JWT_SECRET" validate:"required"`
	SupabaseServiceKey string `env:"SUPABASE_SERVICE_KEY" validate:"required_if=StorageBackend supabase"` // service_role key, storage writes need it

	AppBaseURL string `env:"APP_BASE_URL" validate:"required,url"` // invitation links point here

	StorageBackend string        `env:"STORAGE_BACKEND" validate:"oneof=supabase s3"`
	StorageBucket  string        `env:"STORAGE_BUCKET" validate:"required"`
	S3Endpoint     string        `env:"S3_ENDPOINT"`
	S3Region       string        `env:"S3_REGION" validate:"required_if=StorageBackend s3"`
	S3AccessKey    string        `env:"S3_ACCESS_KEY" validate:"required_if=StorageBackend s3"`
	S3SecretKey    string        `env:"S3_SECRET_KEY" validate:"required_if=StorageBackend s3"`
	SignedURLTTL   time.Duration `env:"SIGNED_URL_TTL"`
	MaxUploadBytes int64         `env:"MAX_UPLOAD_BYTES" validate:"gt=0"`

	StripeSecretKey     string `env:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `env:"STRIPE_WEBHOOK_SECRET"`
	PaymentCurrency     string `env:"PAYMENT_CURRENCY" validate:"len=3"`

	SendinblueAPIKey string `env:"SENDINBLUE_API_KEY"`
	MailFrom         string `env:"MAIL_FROM"`

	HealthAdminKey      string `env:"HEALTH_ADMIN_KEY"`
	FrontendURLEndsWith string `env:"FRONTEND_URL_ENDS_WITH"`
	DevPassword         string `env:"DEV_PASSWORD"`

	RateLimitRPS       float64       `env:"RATE_LIMIT_RPS" validate:"gt=0"`
	RateLimitBurst     int           `env:"RATE_LIMIT_BURST" validate:"gt=0"`
	PrincipalCacheTTL  time.Duration `env:"PRINCIPAL_CACHE_TTL"`
	BootstrapDemoAsset bool          `env:"BOOTSTRAP_DEMO_ASSET"`
}

func defaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("PORT", "8080")
	v.SetDefault("STORAGE_BACKEND", "supabase")
	v.SetDefault("STORAGE_BUCKET", "documents")
	v.SetDefault("SIGNED_URL_TTL", "15m")
	v.SetDefault("MAX_UPLOAD_BYTES", 10<<20)
	v.SetDefault("PAYMENT_CURRENCY", "inr")
	v.SetDefault("MAIL_FROM", "noreply@greenledger.app")
	v.SetDefault("RATE_LIMIT_RPS", 20)
	v.SetDefault("RATE_LIMIT_BURST", 40)
	v.SetDefault("PRINCIPAL_CACHE_TTL", "5m")
	v.SetDefault("BOOTSTRAP_DEMO_ASSET", true)
}

// Load loads config from env and optional .env file. Missing required variables are
// reported together as one error.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	defaults(v)

	cfg := &Config{
		Env:      strings.ToLower(v.GetString("APP_ENV")),
		Port:     v.GetString("PORT"),
		LogLevel: v.GetString("LOG_LEVEL"),

		DatabaseURL: v.GetString("DATABASE_URL"),
		RedisURL:    v.GetString("REDIS_URL"),

		SupabaseURL:        strings.TrimRight(v.GetString("SUPABASE_URL"), "/"),
		SupabaseAnonKey:    v.GetString("SUPABASE_ANON_KEY"),
		SupabaseJWTSecret:  v.GetString("SUPABASE_JWT_SECRET"),
		SupabaseServiceKey: v.GetString("SUPABASE_SERVICE_KEY"),

		AppBaseURL: strings.TrimRight(v.GetString("APP_BASE_URL"), "/"),

		StorageBackend: strings.ToLower(v.GetString("STORAGE_BACKEND")),
		StorageBucket:  v.GetString("STORAGE_BUCKET"),
		S3Endpoint:     v.GetString("S3_ENDPOINT"),
		S3Region:       v.GetString("S3_REGION"),
		S3AccessKey:    v.GetString("S3_ACCESS_KEY"),
		S3SecretKey:    v.GetString("S3_SECRET_KEY"),
		SignedURLTTL:   v.GetDuration("SIGNED_URL_TTL"),
		MaxUploadBytes: v.GetInt64("MAX_UPLOAD_BYTES"),

		StripeSecretKey:     v.GetString("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: v.GetString("STRIPE_WEBHOOK_SECRET"),
		PaymentCurrency:     strings.ToLower(v.GetString("PAYMENT_CURRENCY")),

		SendinblueAPIKey: v.GetString("SENDINBLUE_API_KEY"),
		MailFrom:         v.GetString("MAIL_FROM"),

		HealthAdminKey:      v.GetString("HEALTH_ADMIN_KEY"),
		FrontendURLEndsWith: v.GetString("FRONTEND_URL_ENDS_WITH"),
		DevPassword:         v.GetString("DEV_PASSWORD"),

		RateLimitRPS:       v.GetFloat64("RATE_LIMIT_RPS"),
		RateLimitBurst:     v.GetInt("RATE_LIMIT_BURST"),
		PrincipalCacheTTL:  v.GetDuration("PRINCIPAL_CACHE_TTL"),
		BootstrapDemoAsset: v.GetBool("BOOTSTRAP_DEMO_ASSET"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks required and conditional settings and names the env variables at fault.
func (c *Config) Validate() error {
	vd := validator.New()
	vd.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("env"); name != "" {
			return name
		}
		return f.Name
	})
	err := vd.Struct(c)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	var missing, invalid []string
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required", "required_if":
			missing = append(missing, fe.Field())
		default:
			invalid = append(invalid, fe.Field())
		}
	}
	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "missing required environment variables: "+strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		parts = append(parts, "invalid environment variables: "+strings.Join(invalid, ", "))
	}
	return fmt.Errorf("config: %s", strings.Join(parts, "; "))
}
