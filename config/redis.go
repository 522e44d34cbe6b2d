package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// RedisConfiguration type defines the redis configurations
type RedisConfiguration struct {
	Host               string
	Port               string
	Password           string
	DB                 int
	SessionTTL         time.Duration
	WithdrawalCacheTTL time.Duration
}

// RedisConfig retrieves the redis configuration
func RedisConfig() RedisConfiguration {
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("SESSION_TTL", 1440)
	viper.SetDefault("WITHDRAWAL_CACHE_TTL", 15)

	return RedisConfiguration{
		Host:               viper.GetString("REDIS_HOST"),
		Port:               viper.GetString("REDIS_PORT"),
		Password:           viper.GetString("REDIS_PASSWORD"),
		DB:                 viper.GetInt("REDIS_DB"),
		SessionTTL:         time.Duration(viper.GetInt("SESSION_TTL")) * time.Minute,
		WithdrawalCacheTTL: time.Duration(viper.GetInt("WITHDRAWAL_CACHE_TTL")) * time.Minute,
	}
}

func init() {
	if err := SetupConfig(); err != nil {
		panic(fmt.Sprintf("config SetupConfig() error: %s", err))
	}
}
