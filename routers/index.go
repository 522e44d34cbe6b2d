package routers

import (
	"github.com/gin-gonic/gin"
	"github.com/mirakyc/onboarding/config"
	"github.com/mirakyc/onboarding/controllers"
	"github.com/mirakyc/onboarding/controllers/accounts"
	"github.com/mirakyc/onboarding/routers/middleware"
	"github.com/mirakyc/onboarding/services/turnstile"
	"github.com/mirakyc/onboarding/utils/metrics"
	"github.com/mirakyc/onboarding/utils/token"
)

// Options carry the settings the router needs besides the controller dependencies
type Options struct {
	Server    *config.ServerConfiguration
	Auth      *config.AuthConfiguration
	Turnstile *turnstile.Verifier
	// WithdrawalsReady reports whether the startup withdrawal scan has finished
	WithdrawalsReady func() bool
}

// RegisterRoutes builds the engine serving the onboarding API
func RegisterRoutes(deps controllers.Dependencies, opts Options) *gin.Engine {
	if opts.Server.Environment == "production" || opts.Server.Environment == "staging" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	if opts.Server.Debug {
		router.Use(gin.Logger())
	}
	router.Use(middleware.CORSMiddleware(opts.Server.AllowedHosts))
	router.Use(metrics.GinMiddleware())

	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	ready := opts.WithdrawalsReady
	if ready == nil {
		ready = func() bool { return true }
	}

	ctrl := controllers.NewController(deps)
	authCtrl := accounts.NewAuthController(opts.Auth)

	v1 := router.Group("/v1")
	v1.Use(middleware.RateLimitMiddleware(opts.Server))

	v1.GET("health", ctrl.Health)
	v1.GET("network", ctrl.GetNetworkInfo)
	v1.POST("wallet/connect", ctrl.ConnectWallet)

	protectedWrites := []gin.HandlerFunc{
		middleware.DomainWhitelistMiddleware(opts.Server.AllowedHosts),
	}
	if opts.Turnstile != nil {
		protectedWrites = append(protectedWrites, middleware.TurnstileMiddleware(opts.Turnstile))
	}

	kyc := v1.Group("kyc")
	kyc.GET(":address/status", ctrl.GetKYCStatus)
	kyc.GET(":address/flags", ctrl.CheckKYCStatus)
	kyc.GET(":address/approval", ctrl.CheckFeeApproval)
	kyc.GET("backend-status", ctrl.GetBackendStatus)
	kyc.POST("approve", append(protectedWrites, ctrl.ApproveFee)...)
	kyc.POST("submit", append(protectedWrites, ctrl.SubmitKYC)...)
	kyc.PUT("documents", append(protectedWrites, ctrl.UpdateDocuments)...)

	v1.GET("tokens/:address/balance", ctrl.TokenBalance)
	v1.GET("transactions/:hash", ctrl.GetTransactionDetails)

	sessions := v1.Group("sessions")
	sessions.POST("", append(protectedWrites, ctrl.CreateSession)...)
	sessions.GET(":id", ctrl.GetSession)
	sessions.POST(":id/actions", ctrl.DispatchAction)
	sessions.DELETE(":id", ctrl.DeleteSession)

	admin := v1.Group("admin")
	admin.POST("login", authCtrl.Login)
	admin.GET("contract", ctrl.GetContractOverview)

	jwt := middleware.JWTMiddleware(opts.Auth.Secret, token.ScopeAdmin)
	admin.POST("withdraw", jwt, ctrl.WithdrawFunds)
	admin.GET("withdrawals", jwt, middleware.WarmupMiddleware(ready), ctrl.GetWithdrawals)

	return router
}
