package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"namada-wallet-api/internal/asset"
	"namada-wallet-api/internal/bot"
	"namada-wallet-api/internal/cache"
	"namada-wallet-api/internal/config"
	"namada-wallet-api/internal/handler"
	"namada-wallet-api/internal/job"
	"namada-wallet-api/internal/provider"
	"namada-wallet-api/internal/retry"
	"namada-wallet-api/internal/service"
	"namada-wallet-api/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"
	tele "gopkg.in/telebot.v3"

	_ "namada-wallet-api/docs"
)

var (
	loadEnvFunc         = godotenv.Load
	loadConfigFunc      = config.Load
	initTracerFunc      = tracing.InitTracer
	newRedisClientFunc  = cache.NewRedisClient
	openRedisClientFunc = cache.OpenRedisClient
	loadDirectoryFunc   = asset.Load
	newPrimaryFunc      = func(tracer trace.Tracer, cfg provider.Config) service.PriceSource {
		return provider.NewCoinMarketCapProvider(tracer, cfg)
	}
	newSecondaryFunc = func(tracer trace.Tracer, cfg provider.Config) service.PriceSource {
		return provider.NewCoinGeckoProvider(tracer, cfg)
	}
	startRefresherFunc = func(r *job.PriceRefresher, ctx context.Context) {
		go func() {
			if err := r.Start(ctx); err != nil {
				log.Printf("price refresher failed to start: %v", err)
			}
		}()
	}
	startTelegramBotFunc   = bot.StartTelegramBot
	newRouterFunc          = gin.Default
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// @title           Namada Wallet API
// @version         1.0
// @description     USD prices for Namada tokens, cached in Redis and sourced from CoinMarketCap with CoinGecko fallback.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey  ApiKeyAuth
// @in                          header
// @name                        X-API-Key
func main() {
	if err := loadEnvFunc(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	cfg, err := loadConfigFunc()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init tracing
	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	// Redis is optional at startup; store errors are logged per request.
	redisClient, err := newRedisClientFunc(ctx, cfg.RedisURL)
	if err != nil {
		log.Printf("Warning: %v, continuing without a warm connection", err)
		redisClient, err = openRedisClientFunc(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to create redis client: %v", err)
		}
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Printf("error closing redis client: %v", err)
		}
	}()
	store := cache.NewStore(redisClient, tracer)

	directory, err := loadDirectoryFunc(cfg.AssetListPath)
	if err != nil {
		log.Printf("Error loading asset list: %v", err)
		directory = asset.NewDirectory(nil)
	}

	// Primary first; order is the fallback order.
	primary := newPrimaryFunc(tracer, provider.Config{
		APIKey:         cfg.CMCAPIKey,
		BaseURL:        cfg.CMCBaseURL,
		Timeout:        cfg.ProviderTimeout(),
		RequestsPerMin: cfg.ProviderRequestsPerMin,
	})
	secondary := newSecondaryFunc(tracer, provider.Config{
		APIKey:         cfg.CoinGeckoAPIKey,
		BaseURL:        cfg.CoinGeckoBaseURL,
		Timeout:        cfg.ProviderTimeout(),
		RequestsPerMin: cfg.ProviderRequestsPerMin,
	})

	retryCfg := retry.Config{
		MaxAttempts: cfg.RetryMaxAttempts,
		BaseDelay:   cfg.RetryBaseDelay(),
		MaxDelay:    cfg.RetryMaxDelay(),
	}
	priceService := service.NewPriceService(tracer, directory, store, retryCfg, cfg.PriceCacheTTL(), primary, secondary)

	// Start price refresher (stopped by ctx cancel)
	refresher := job.NewPriceRefresher(tracer, priceService, directory, cfg.PriceUpdateCron, cfg.PriceRefreshDelay())
	startRefresherFunc(refresher, ctx)

	// Start Telegram bot
	telegram, err := startTelegramBotFunc(cfg.TelegramBotToken, priceService, directory)
	if err != nil {
		log.Printf("Telegram bot disabled: %v", err)
	}

	// Create handlers and routes
	h := handler.New(tracer, priceService, directory, cfg.APIKey)

	r := newRouterFunc()
	r.Use(otelgin.Middleware(tracing.ServiceName()))

	h.RegisterRoutes(r)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: r,
	}

	go func() {
		log.Printf("Listening on %s", srv.Addr)
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
	stopBot(telegram)

	log.Println("Server exiting")
}

func stopBot(b *tele.Bot) {
	if b != nil {
		b.Stop()
	}
}
