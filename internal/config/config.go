package config

import (
	"log"
	"os"

	"github.com/spf13/viper"
)

type Config struct {
	ServerPort   string `mapstructure:"SERVER_PORT"`
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	JWTSecret    string `mapstructure:"JWT_SECRET"`
	ClientOrigin string `mapstructure:"CLIENT_ORIGIN"`

	// Carrier credentials. Empty values leave the adapter in rate-card-only mode.
	DelhiveryBaseURL   string `mapstructure:"DELHIVERY_BASE_URL"`
	DelhiveryAPIToken  string `mapstructure:"DELHIVERY_API_TOKEN"`
	DelhiveryB2BURL    string `mapstructure:"DELHIVERY_B2B_URL"`
	DelhiveryB2BUser   string `mapstructure:"DELHIVERY_B2B_USER"`
	DelhiveryB2BSecret string `mapstructure:"DELHIVERY_B2B_SECRET"`
	XpressbeesBaseURL  string `mapstructure:"XPRESSBEES_BASE_URL"`
	XpressbeesEmail    string `mapstructure:"XPRESSBEES_EMAIL"`
	XpressbeesPassword string `mapstructure:"XPRESSBEES_PASSWORD"`
	EcomExpressBaseURL string `mapstructure:"ECOM_EXPRESS_BASE_URL"`
	EcomExpressUser    string `mapstructure:"ECOM_EXPRESS_USER"`
	EcomExpressSecret  string `mapstructure:"ECOM_EXPRESS_SECRET"`

	// Notification (SES). Optional; a no-op notifier is used when unset.
	AWSRegion   string `mapstructure:"AWS_REGION"`
	SenderEmail string `mapstructure:"SENDER_EMAIL"`
	OpsEmail    string `mapstructure:"OPS_EMAIL"`

	StripeAPIKey string
}

func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	viper.AutomaticEnv()

	err := viper.ReadInConfig()
	if err != nil {
		// A missing .env file is fine; env vars still apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("No .env file found.")
		} else {
			return nil, err
		}
	}

	var cfg Config
	err = viper.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}

	cfg.StripeAPIKey = os.Getenv("STRIPE_API_KEY")

	return &cfg, nil
}
