package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/cosmos/go-bip39"
	"github.com/spf13/viper"
)

type Configuration struct {
	Server       ServerConfiguration
	Database     DatabaseConfiguration
	Redis        RedisConfiguration
	Auth         AuthConfiguration
	Chain        ChainConfiguration
	Scan         ScanConfiguration
	Backend      BackendConfiguration
	Notification NotificationConfiguration
}

// SetupConfig loads the .env file (if any) into viper and binds the environment
func SetupConfig() error {
	var configuration *Configuration

	viper.AddConfigPath("../../../..")
	viper.AddConfigPath("../../..")
	viper.AddConfigPath("../..")
	viper.AddConfigPath("..")
	viper.AddConfigPath(".")

	envFilePath := os.Getenv("ENV_FILE_PATH")
	if envFilePath == "" {
		envFilePath = ".env"
	}

	viper.SetConfigName(envFilePath)
	viper.SetConfigType("env")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// Environment variables alone are a valid setup (containers, CI)
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			fmt.Printf("Error reading config file, %s\n", err)
			return err
		}
	}

	err := viper.Unmarshal(&configuration)
	if err != nil {
		fmt.Printf("error to decode, %v\n", err)
		return err
	}

	mnemonic := viper.GetString("HD_WALLET_MNEMONIC")
	if mnemonic != "" && !bip39.IsMnemonicValid(mnemonic) {
		return fmt.Errorf("invalid HD_WALLET_MNEMONIC phrase")
	}

	return nil
}
