package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ServerConfiguration defines the HTTP server settings
type ServerConfiguration struct {
	Environment              string
	Host                     string
	Port                     string
	Timezone                 string
	Debug                    bool
	SentryDSN                string
	LogFile                  string
	AllowedHosts             []string
	RateLimitUnauthenticated int
	RateLimitAuthenticated   int
	RateLimitBlacklistTTL    time.Duration
	AppName                  string
	PublicURL                string
}

// ServerConfig sets the server configuration
func ServerConfig() *ServerConfiguration {
	viper.SetDefault("ENVIRONMENT", "local")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_PORT", "8000")
	viper.SetDefault("SERVER_TIMEZONE", "UTC")
	viper.SetDefault("DEBUG", false)
	viper.SetDefault("ALLOWED_HOSTS", "*")
	viper.SetDefault("RATE_LIMIT_UNAUTHENTICATED", 20)
	viper.SetDefault("RATE_LIMIT_AUTHENTICATED", 100)
	viper.SetDefault("RATE_LIMIT_BLACKLIST_MINUTES", 15)
	viper.SetDefault("APP_NAME", "MiraKYC")
	viper.SetDefault("PUBLIC_URL", "https://mirakyc.com")

	return &ServerConfiguration{
		Environment:              viper.GetString("ENVIRONMENT"),
		Host:                     viper.GetString("SERVER_HOST"),
		Port:                     viper.GetString("SERVER_PORT"),
		Timezone:                 viper.GetString("SERVER_TIMEZONE"),
		Debug:                    viper.GetBool("DEBUG"),
		SentryDSN:                viper.GetString("SENTRY_DSN"),
		LogFile:                  viper.GetString("LOG_FILE"),
		AllowedHosts:             strings.Split(viper.GetString("ALLOWED_HOSTS"), ","),
		RateLimitUnauthenticated: viper.GetInt("RATE_LIMIT_UNAUTHENTICATED"),
		RateLimitAuthenticated:   viper.GetInt("RATE_LIMIT_AUTHENTICATED"),
		RateLimitBlacklistTTL:    time.Duration(viper.GetInt("RATE_LIMIT_BLACKLIST_MINUTES")) * time.Minute,
		AppName:                  viper.GetString("APP_NAME"),
		PublicURL:                viper.GetString("PUBLIC_URL"),
	}
}

func init() {
	if err := SetupConfig(); err != nil {
		panic(fmt.Sprintf("config SetupConfig() error: %s", err))
	}
}
