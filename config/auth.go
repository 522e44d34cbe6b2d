package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/spf13/viper"
)

// AuthConfiguration defines the admin authentication settings
type AuthConfiguration struct {
	Secret            string
	JwtAccessLifespan time.Duration
	AdminUsername     string
	AdminPasswordHash string

	TurnstileEnabled   bool
	TurnstileSecretKey string
	TurnstileVerifyURL string
}

var (
	authDefaultsOnce sync.Once
	authConfigOnce   sync.Once
	authConfig       *AuthConfiguration
)

// initAuthDefaults sets the default values for auth configuration.
// This is called once during initialization to avoid concurrent map writes.
func initAuthDefaults() {
	authDefaultsOnce.Do(func() {
		viper.SetDefault("JWT_ACCESS_LIFESPAN", 60) // minutes
		viper.SetDefault("ADMIN_USERNAME", "admin")
		viper.SetDefault("TURNSTILE_ENABLED", false)
		viper.SetDefault("TURNSTILE_VERIFY_URL", "https://challenges.cloudflare.com/turnstile/v0/siteverify")
	})
}

// AuthConfig returns the authentication configuration.
// The config is initialized once and cached.
func AuthConfig() *AuthConfiguration {
	initAuthDefaults()

	authConfigOnce.Do(func() {
		authConfig = &AuthConfiguration{
			Secret:            viper.GetString("SECRET"),
			JwtAccessLifespan: time.Duration(viper.GetInt("JWT_ACCESS_LIFESPAN")) * time.Minute,
			AdminUsername:     viper.GetString("ADMIN_USERNAME"),
			AdminPasswordHash: viper.GetString("ADMIN_PASSWORD_HASH"),

			TurnstileEnabled:   viper.GetBool("TURNSTILE_ENABLED"),
			TurnstileSecretKey: viper.GetString("TURNSTILE_SECRET_KEY"),
			TurnstileVerifyURL: viper.GetString("TURNSTILE_VERIFY_URL"),
		}
	})
	return authConfig
}

func init() {
	initAuthDefaults()

	if err := SetupConfig(); err != nil {
		panic(fmt.Sprintf("config SetupConfig() error: %s", err))
	}
}
