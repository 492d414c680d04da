package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	DBUrl     string `mapstructure:"DB_URL"`
	JWTSecret string `mapstructure:"JWT_SECRET"`

	// Registration
	AllowedEmailDomain string `mapstructure:"ALLOWED_EMAIL_DOMAIN"` // empty = any domain

	// Password recovery
	OTPCodeLength  int `mapstructure:"OTP_CODE_LENGTH"`
	OTPTTLSeconds  int `mapstructure:"OTP_TTL_SECONDS"`
	OTPRateCeiling int `mapstructure:"OTP_RATE_CEILING"`

	// Outbound mail (log-only when host is empty)
	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPUsername string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	FromEmail    string `mapstructure:"FROM_EMAIL"`
}

// OTPTTL returns the OTP time-to-live as a duration.
func (c Config) OTPTTL() time.Duration {
	return time.Duration(c.OTPTTLSeconds) * time.Second
}

func LoadConfig() Config {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	// TTL and ceiling have drifted across revisions; these defaults
	// track the latest product decision (120s / 8 per hour)
	viper.SetDefault("OTP_CODE_LENGTH", 6)
	viper.SetDefault("OTP_TTL_SECONDS", 120)
	viper.SetDefault("OTP_RATE_CEILING", 8)
	viper.SetDefault("SMTP_PORT", 587)
	viper.SetDefault("FROM_EMAIL", "no-reply@campuslink.app")

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No .env file found, using env variables only")
	}

	var c Config
	if err := viper.Unmarshal(&c); err != nil {
		log.Fatal("config unmarshal error:", err)
	}

	return c
}
