package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"namada-wallet-api/internal/asset"
	"namada-wallet-api/internal/bot"
	"namada-wallet-api/internal/config"
	"namada-wallet-api/internal/domain"
	"namada-wallet-api/internal/job"
	"namada-wallet-api/internal/provider"
	"namada-wallet-api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	tele "gopkg.in/telebot.v3"
)

type bootstrapRecord struct {
	refresherStarted atomic.Bool
	botToken         string
	serverAddr       string
	openFallback     atomic.Bool
	primaryKey       string
	secondaryKey     string
}

func TestMainBootstrap(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec, restore := stubServerDeps(nil)
	defer restore()

	runMain(t)

	if !rec.refresherStarted.Load() {
		t.Fatal("expected price refresher to be started")
	}
	if rec.botToken != "bot-token" {
		t.Fatalf("expected bot token to be passed, got %q", rec.botToken)
	}
	if rec.serverAddr != ":9090" {
		t.Fatalf("expected server on :9090, got %q", rec.serverAddr)
	}
	if rec.primaryKey != "cmc" || rec.secondaryKey != "cg" {
		t.Fatalf("unexpected provider keys: %q %q", rec.primaryKey, rec.secondaryKey)
	}
	if rec.openFallback.Load() {
		t.Fatal("lazy redis client should not be used when ping succeeds")
	}
}

func TestMainBootstrapRedisUnavailable(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec, restore := stubServerDeps(errors.New("connection refused"))
	defer restore()

	runMain(t)

	if !rec.openFallback.Load() {
		t.Fatal("expected lazy redis client when ping fails")
	}
}

func runMain(t *testing.T) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		main()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("main did not exit")
	}
}

func stubServerDeps(redisErr error) (*bootstrapRecord, func()) {
	origLoadEnv := loadEnvFunc
	origLoadConfig := loadConfigFunc
	origInitTracer := initTracerFunc
	origNewRedis := newRedisClientFunc
	origOpenRedis := openRedisClientFunc
	origLoadDirectory := loadDirectoryFunc
	origPrimary := newPrimaryFunc
	origSecondary := newSecondaryFunc
	origStartRefresher := startRefresherFunc
	origStartTelegram := startTelegramBotFunc
	origNewRouter := newRouterFunc
	origSetupSignal := setupSignalNotify
	origWait := waitForSignalFunc
	origStartHTTP := startHTTPServerFunc
	origShutdownHTTP := shutdownHTTPServerFunc

	rec := &bootstrapRecord{}

	loadEnvFunc = func(...string) error { return errors.New("open .env: no such file or directory") }
	loadConfigFunc = func() (*config.Config, error) {
		return &config.Config{
			HTTPPort:               9090,
			RedisURL:               "localhost:6379",
			PriceCacheTTLSecs:      300,
			PriceUpdateCron:        "*/5 * * * *",
			RetryMaxAttempts:       3,
			RetryBaseDelayMs:       1,
			ProviderTimeoutSecs:    1,
			ProviderRequestsPerMin: 30,
			CMCAPIKey:              "cmc",
			CoinGeckoAPIKey:        "cg",
			AssetListPath:          "missing.json",
			TelegramBotToken:       "bot-token",
		}, nil
	}
	initTracerFunc = func(ctx context.Context) (*sdktrace.TracerProvider, trace.Tracer, error) {
		tp := sdktrace.NewTracerProvider()
		return tp, tp.Tracer("test"), nil
	}
	newRedisClientFunc = func(ctx context.Context, addr string) (*redis.Client, error) {
		if redisErr != nil {
			return nil, redisErr
		}
		return redis.NewClient(&redis.Options{Addr: addr}), nil
	}
	openRedisClientFunc = func(addr string) (*redis.Client, error) {
		rec.openFallback.Store(true)
		return redis.NewClient(&redis.Options{Addr: addr}), nil
	}
	loadDirectoryFunc = func(path string) (*asset.Directory, error) {
		return nil, errors.New("asset list file not found at: " + path)
	}
	newPrimaryFunc = func(_ trace.Tracer, cfg provider.Config) service.PriceSource {
		rec.primaryKey = cfg.APIKey
		return stubSource{name: "coinmarketcap"}
	}
	newSecondaryFunc = func(_ trace.Tracer, cfg provider.Config) service.PriceSource {
		rec.secondaryKey = cfg.APIKey
		return stubSource{name: "coingecko"}
	}
	startRefresherFunc = func(*job.PriceRefresher, context.Context) { rec.refresherStarted.Store(true) }
	startTelegramBotFunc = func(token string, _ bot.PriceLookup, _ bot.SymbolLister) (*tele.Bot, error) {
		rec.botToken = token
		return nil, nil
	}
	newRouterFunc = func(...gin.OptionFunc) *gin.Engine { return gin.New() }
	setupSignalNotify = func(c chan<- os.Signal, sig ...os.Signal) {}
	waitForSignalFunc = func(<-chan os.Signal) {}
	startHTTPServerFunc = func(*http.Server) error { return http.ErrServerClosed }
	shutdownHTTPServerFunc = func(srv *http.Server, _ context.Context) error {
		rec.serverAddr = srv.Addr
		return nil
	}

	return rec, func() {
		loadEnvFunc = origLoadEnv
		loadConfigFunc = origLoadConfig
		initTracerFunc = origInitTracer
		newRedisClientFunc = origNewRedis
		openRedisClientFunc = origOpenRedis
		loadDirectoryFunc = origLoadDirectory
		newPrimaryFunc = origPrimary
		newSecondaryFunc = origSecondary
		startRefresherFunc = origStartRefresher
		startTelegramBotFunc = origStartTelegram
		newRouterFunc = origNewRouter
		setupSignalNotify = origSetupSignal
		waitForSignalFunc = origWait
		startHTTPServerFunc = origStartHTTP
		shutdownHTTPServerFunc = origShutdownHTTP
	}
}

type stubSource struct{ name string }

func (s stubSource) Name() string { return s.name }

func (s stubSource) FetchPrice(ctx context.Context, token domain.Token) (float64, error) {
	return 0, domain.ErrQuoteUnavailable
}
