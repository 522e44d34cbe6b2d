package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// DatabaseConfiguration is the database configuration
type DatabaseConfiguration struct {
	Enabled      bool
	Name         string
	User         string
	Password     string
	Host         string
	Port         string
	SSLMode      string
	MaxOpenConns int
}

// DatabaseConfig returns the database configuration
func DatabaseConfig() DatabaseConfiguration {
	viper.SetDefault("DB_ENABLED", true)
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_NAME", "mirakyc")
	viper.SetDefault("DB_SSL_MODE", "disable")
	viper.SetDefault("DB_MAX_OPEN_CONNS", 25)

	return DatabaseConfiguration{
		Enabled:      viper.GetBool("DB_ENABLED"),
		Name:         viper.GetString("DB_NAME"),
		User:         viper.GetString("DB_USER"),
		Password:     viper.GetString("DB_PASSWORD"),
		Host:         viper.GetString("DB_HOST"),
		Port:         viper.GetString("DB_PORT"),
		SSLMode:      viper.GetString("DB_SSL_MODE"),
		MaxOpenConns: viper.GetInt("DB_MAX_OPEN_CONNS"),
	}
}

// DBConfig returns the postgres DSN
func DBConfig() string {
	conf := DatabaseConfig()
	return fmt.Sprintf(
		"host=%s port=%s user=%s dbname=%s password=%s sslmode=%s",
		conf.Host, conf.Port, conf.User, conf.Name, conf.Password, conf.SSLMode,
	)
}

func init() {
	if err := SetupConfig(); err != nil {
		panic(fmt.Sprintf("config SetupConfig() error: %s", err))
	}
}
