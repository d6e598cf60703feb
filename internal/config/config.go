/**
 * @description
 * Configuration management for the affiliate payout service. Settings come
 * from environment variables, with defaults for the settlement policy
 * constants (threshold, schedule, transfer spacing).
 */
package config

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	ServerPort         string          `mapstructure:"SERVER_PORT"`
	DatabaseURL        string          `mapstructure:"DATABASE_URL"`
	StripeSecretKey    string          `mapstructure:"STRIPE_SECRET_KEY"`
	StripeAPIBaseURL   string          `mapstructure:"STRIPE_API_BASE_URL"`
	SupabaseJWKSURL    string          `mapstructure:"SUPABASE_JWKS_URL"`
	InternalAPIKey     string          `mapstructure:"INTERNAL_API_KEY"`
	RabbitMQURL        string          `mapstructure:"RABBITMQ_URL"`
	PayoutCurrency     string          `mapstructure:"PAYOUT_CURRENCY"`
	PayoutJobSchedule  string          `mapstructure:"PAYOUT_JOB_SCHEDULE"`
	TransferDelayMS    int             `mapstructure:"TRANSFER_DELAY_MS"`
	MinPayoutThreshold decimal.Decimal
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (config Config, err error) {
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("STRIPE_API_BASE_URL", "https://api.stripe.com")
	viper.SetDefault("PAYOUT_CURRENCY", "usd")
	viper.SetDefault("PAYOUT_JOB_SCHEDULE", "0 9 * * 2") // Tuesdays 09:00 UTC, after the skipped clearing week.
	viper.SetDefault("TRANSFER_DELAY_MS", 1000)
	viper.SetDefault("MIN_PAYOUT_THRESHOLD", "50")
	viper.AutomaticEnv()

	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("STRIPE_SECRET_KEY")
	_ = viper.BindEnv("STRIPE_API_BASE_URL")
	_ = viper.BindEnv("SUPABASE_JWKS_URL")
	_ = viper.BindEnv("INTERNAL_API_KEY")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("PAYOUT_CURRENCY")
	_ = viper.BindEnv("PAYOUT_JOB_SCHEDULE")
	_ = viper.BindEnv("TRANSFER_DELAY_MS")
	_ = viper.BindEnv("MIN_PAYOUT_THRESHOLD")

	if err = viper.Unmarshal(&config); err != nil {
		return config, err
	}
	if port := os.Getenv("PORT"); port != "" {
		config.ServerPort = port
	}

	config.MinPayoutThreshold, err = decimal.NewFromString(viper.GetString("MIN_PAYOUT_THRESHOLD"))
	if err != nil {
		return config, fmt.Errorf("invalid MIN_PAYOUT_THRESHOLD: %w", err)
	}

	if config.DatabaseURL == "" {
		return config, fmt.Errorf("DATABASE_URL is required")
	}
	if config.StripeSecretKey == "" {
		return config, fmt.Errorf("STRIPE_SECRET_KEY is required")
	}

	return config, nil
}
