package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ai-service/internal/accounting"
	"ai-service/internal/auth"
	"ai-service/internal/dispatch"
	"ai-service/internal/middleware"
	"ai-service/internal/routers"
	"ai-service/internal/shared"
	"ai-service/internal/vectorstore"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	emw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/manifold-inc/manifold-sdk/lib/eflag"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Flags / ENV Variables
	listenAddr := flag.String("listen-addr", ":8082", "Listen address")
	debug := flag.Bool("debug", false, "Debug enabled")
	metricsAPIKey := flag.String("metrics-api-key", "", "Metrics api key")
	redisAddr := flag.String("redis-addr", "", "Redis host:port for the auth cache (optional)")

	authURL := flag.String("auth-url", "http://user-service:8081/api/auth", "Auth service base URL")
	analyticsURL := flag.String("analytics-url", "http://analytics-service:8083/api/v1", "Analytics service base URL")
	qdrantURL := flag.String("qdrant-url", "http://localhost:6333", "Qdrant base URL")

	openaiAPIKey := flag.String("openai-api-key", "", "OpenAI API key")
	openaiBaseURL := flag.String("openai-base-url", "", "OpenAI base URL override")
	groqAPIKey := flag.String("groq-api-key", "", "Groq API key")
	zyphraAPIKey := flag.String("zyphra-api-key", "", "Zyphra API key")
	replicateAPIToken := flag.String("replicate-api-token", "", "Replicate API token")

	_ = godotenv.Load()
	err := eflag.SetFlagsFromEnvironment()
	if err != nil {
		panic(err)
	}
	flag.Parse()

	var logger *zap.Logger
	if !*debug {
		logger, err = zap.NewProduction()
		if err != nil {
			panic("Failed init logger")
		}
	}
	if *debug {
		logger, err = zap.NewDevelopment()
		if err != nil {
			panic("Failed init logger")
		}
	}
	log := logger.Sugar()

	// Redis is only the auth metadata cache; boot without it is fine.
	var redisClient *redis.Client
	if *redisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: *redisAddr})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			panic(fmt.Sprintf("failed ping to redis db: %s", err))
		}
		defer func() {
			_ = redisClient.Close()
		}()
	}

	authClient := auth.NewClient(*authURL, redisClient, log)
	tracker := accounting.NewTracker(*analyticsURL, log)
	defer tracker.Drain()

	dispatcher := dispatch.NewRouter(dispatch.Config{
		OpenAI:    dispatch.ProviderConfig{APIKey: *openaiAPIKey, BaseURL: *openaiBaseURL},
		Groq:      dispatch.ProviderConfig{APIKey: *groqAPIKey},
		Zyphra:    dispatch.ProviderConfig{APIKey: *zyphraAPIKey},
		Replicate: dispatch.ProviderConfig{APIKey: *replicateAPIToken},
	}, log)

	store := vectorstore.NewQdrant(*qdrantURL, log)
	ensureCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := store.EnsureCollection(ensureCtx); err != nil {
		log.Warnw("Failed ensuring qdrant collection, embedding routes will fail until qdrant is reachable", "error", err)
	}
	cancel()

	e := echo.New()
	e.GET("/ping", func(c echo.Context) error {
		return c.String(200, "")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()), func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			apiKey, err := shared.ExtractAPIKey(c)
			if err != nil {
				return c.String(401, "Missing or invalid API key")
			}
			if apiKey != *metricsAPIKey {
				return c.String(401, "Unauthorized API key")
			}
			return next(c)
		}
	})

	base := e.Group("")
	base.Use(emw.CORS())
	base.Use(middleware.NewRecoverMiddleware(log))
	base.Use(middleware.NewTrackMiddleware(log))

	err = routers.RegisterRoutes(base, routers.Config{
		Dispatcher: dispatcher,
		Store:      store,
		Tracker:    tracker,
		Auth:       authClient,
		Log:        log,
	})
	if err != nil {
		panic(err)
	}

	go func() {
		if err := e.Start(*listenAddr); err != nil && err != http.ErrServerClosed {
			e.Logger.Fatal("shutting down the server")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shared.DefaultShutdownTimeout)
	defer cancelShutdown()
	if err := e.Shutdown(shutdownCtx); err != nil {
		e.Logger.Fatal(err)
	}
}
