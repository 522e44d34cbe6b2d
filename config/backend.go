package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// BackendConfiguration defines the verification backend API settings
type BackendConfiguration struct {
	VerificationAPIURL string
	VerificationAPIKey string
	RequestTimeout     time.Duration
}

// BackendConfig sets the verification backend configuration
func BackendConfig() *BackendConfiguration {
	viper.SetDefault("VERIFICATION_API_URL", "https://api.mirakyc.com/v1")
	viper.SetDefault("VERIFICATION_API_TIMEOUT", 30)

	return &BackendConfiguration{
		VerificationAPIURL: viper.GetString("VERIFICATION_API_URL"),
		VerificationAPIKey: viper.GetString("VERIFICATION_API_KEY"),
		RequestTimeout:     time.Duration(viper.GetInt("VERIFICATION_API_TIMEOUT")) * time.Second,
	}
}

func init() {
	if err := SetupConfig(); err != nil {
		panic(fmt.Sprintf("config SetupConfig() error: %s", err))
	}
}
