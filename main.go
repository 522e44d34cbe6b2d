package main

import (
	"context"
	"fmt"
	"time"

	"github.com/mirakyc/onboarding/config"
	"github.com/mirakyc/onboarding/controllers"
	"github.com/mirakyc/onboarding/routers"
	"github.com/mirakyc/onboarding/services"
	"github.com/mirakyc/onboarding/services/session"
	"github.com/mirakyc/onboarding/services/turnstile"
	"github.com/mirakyc/onboarding/storage"
	"github.com/mirakyc/onboarding/tasks"
	"github.com/mirakyc/onboarding/utils/logger"
)

func main() {
	// Set timezone
	conf := config.ServerConfig()
	loc, _ := time.LoadLocation(conf.Timezone)
	time.Local = loc

	ctx := context.Background()

	// Connect to the database
	if config.DatabaseConfig().Enabled {
		if err := storage.DBConnection(ctx, config.DBConfig()); err != nil {
			logger.Fatalf("database DBConnection: %s", err)
		}
		defer storage.DB.Close()
	}

	// Initialize Redis
	if err := storage.InitializeRedis(); err != nil {
		logger.Fatalf("Redis initialization: %v", err)
	}
	defer storage.RedisClient.Close()

	chainConf := config.ChainConfig()
	svc, err := services.NewServices(ctx, chainConf)
	if err != nil {
		logger.Fatalf("NewServices: %v", err)
	}
	defer svc.Close()

	authConf := config.AuthConfig()
	verifier, err := turnstile.NewVerifier(authConf)
	if err != nil {
		logger.Fatalf("Turnstile: %v", err)
	}

	redisConf := config.RedisConfig()

	// Start cron jobs
	jobs := &tasks.Jobs{
		Chain:    svc.Chain,
		Scanner:  svc.Scanner,
		Receipts: svc.RPC,
		Redis:    storage.RedisClient,
		CacheTTL: redisConf.WithdrawalCacheTTL,
	}
	if svc.Logs != nil {
		jobs.Logs = svc.Logs
	}
	scheduler := tasks.StartCronJobs(jobs)
	defer scheduler.Stop()

	// Run the server
	router := routers.RegisterRoutes(controllers.Dependencies{
		Chain:     svc.Chain,
		Scanner:   svc.Scanner,
		Backend:   svc.Backend,
		Wallet:    svc.Wallet,
		Emails:    svc.Emails,
		Sessions:  session.NewStore(storage.RedisClient, redisConf.SessionTTL, authConf.Secret),
		Cache:     storage.RedisClient,
		ChainConf: chainConf,
		RedisConf: redisConf,
	}, routers.Options{
		Server:           conf,
		Auth:             authConf,
		Turnstile:        verifier,
		WithdrawalsReady: tasks.WithdrawalsWarmupDone,
	})

	appServer := fmt.Sprintf("%s:%s", conf.Host, conf.Port)
	logger.Infof("Server Running at :%v", appServer)

	logger.Fatalf("%v", router.Run(appServer))
}
