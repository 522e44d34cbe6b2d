package storage

import (
	"context"
	"fmt"

	"github.com/mirakyc/onboarding/config"
	"github.com/redis/go-redis/v9"
)

var (
	// RedisClient holds the redis connection shared by sessions, caches and job locks
	RedisClient *redis.Client
)

// InitializeRedis connects to redis and verifies the connection with a ping
func InitializeRedis() error {
	redisConf := config.RedisConfig()

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", redisConf.Host, redisConf.Port),
		Password: redisConf.Password,
		DB:       redisConf.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return fmt.Errorf("InitializeRedis.Ping: %w", err)
	}

	RedisClient = client
	return nil
}
