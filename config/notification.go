package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// NotificationConfiguration defines the email service configurations
type NotificationConfiguration struct {
	Enabled          bool
	EmailDomain      string
	EmailAPIKey      string
	EmailFromAddress string
	EmailProvider    string
	MailgunDomain    string
	MailgunAPIKey    string
}

// NotificationConfig sets the email configurations
func NotificationConfig() (config *NotificationConfiguration) {
	viper.SetDefault("EMAIL_ENABLED", false)
	viper.SetDefault("EMAIL_DOMAIN", "api.sendgrid.com")
	viper.SetDefault("EMAIL_FROM_ADDRESS", "MiraKYC <no-reply@mirakyc.com>")
	viper.SetDefault("EMAIL_PROVIDER", "sendgrid")

	return &NotificationConfiguration{
		Enabled:          viper.GetBool("EMAIL_ENABLED"),
		EmailDomain:      viper.GetString("EMAIL_DOMAIN"),
		EmailAPIKey:      viper.GetString("EMAIL_API_KEY"),
		EmailFromAddress: viper.GetString("EMAIL_FROM_ADDRESS"),
		EmailProvider:    viper.GetString("EMAIL_PROVIDER"),
		MailgunDomain:    viper.GetString("MAILGUN_DOMAIN"),
		MailgunAPIKey:    viper.GetString("MAILGUN_API_KEY"),
	}
}

func init() {
	if err := SetupConfig(); err != nil {
		panic(fmt.Sprintf("config SetupConfig() error: %s", err))
	}
}
