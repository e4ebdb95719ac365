package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds every setting the API reads from the environment.
type Config struct {
	Port   string `mapstructure:"APP_PORT"`
	Env    string `mapstructure:"APP_ENV"`
	APIURL string `mapstructure:"API_URL"`

	DatabaseURL   string `mapstructure:"DATABASE_URL"`
	RunMigrations bool   `mapstructure:"RUN_MIGRATIONS"`

	JWTSecret        string        `mapstructure:"JWT_SECRET"`
	AccessTokenTTL   time.Duration `mapstructure:"ACCESS_TOKEN_TTL"`
	VerifyTokenTTL   time.Duration `mapstructure:"VERIFY_TOKEN_TTL"`
	DeletionTokenTTL time.Duration `mapstructure:"DELETION_TOKEN_TTL"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	KafkaBrokers     string `mapstructure:"KAFKA_BROKERS"`
	KafkaNotifyTopic string `mapstructure:"KAFKA_NOTIFY_TOPIC"`
	KafkaGroupID     string `mapstructure:"KAFKA_GROUP_ID"`

	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPUsername string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	MailFrom     string `mapstructure:"MAIL_FROM"`

	LogLevel string `mapstructure:"LOG_LEVEL"`
}

var keys = []string{
	"APP_PORT", "APP_ENV", "API_URL",
	"DATABASE_URL", "RUN_MIGRATIONS",
	"JWT_SECRET", "ACCESS_TOKEN_TTL", "VERIFY_TOKEN_TTL", "DELETION_TOKEN_TTL",
	"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
	"KAFKA_BROKERS", "KAFKA_NOTIFY_TOPIC", "KAFKA_GROUP_ID",
	"SMTP_HOST", "SMTP_PORT", "SMTP_USERNAME", "SMTP_PASSWORD", "MAIL_FROM",
	"LOG_LEVEL",
}

// Load reads an optional .env file and then the process environment.
// Values already present in the environment win over the file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("APP_PORT", "3000")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("API_URL", "http://localhost:3000")
	v.SetDefault("RUN_MIGRATIONS", true)
	v.SetDefault("ACCESS_TOKEN_TTL", 24*time.Hour)
	v.SetDefault("VERIFY_TOKEN_TTL", time.Hour)
	v.SetDefault("DELETION_TOKEN_TTL", 30*time.Minute)
	v.SetDefault("KAFKA_NOTIFY_TOPIC", "shop-portable.notifications")
	v.SetDefault("KAFKA_GROUP_ID", "shop-portable-mailer")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("MAIL_FROM", "ShopPortable <no-reply@shopportable.com>")
	v.SetDefault("LOG_LEVEL", "info")

	v.AutomaticEnv()
	// AutomaticEnv only resolves keys viper already knows about.
	for _, k := range keys {
		if err := v.BindEnv(k); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports settings the API cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	return errors.Join(errs...)
}

// Brokers splits KAFKA_BROKERS into a list, dropping empty entries.
func (c *Config) Brokers() []string {
	var out []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// SMTPConfigured reports whether outbound mail can be sent.
func (c *Config) SMTPConfigured() bool {
	return c.SMTPHost != ""
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}
