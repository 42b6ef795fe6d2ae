package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/featherline/backend/internal/common/clock"
	"github.com/featherline/backend/internal/common/config"
	commoncrypto "github.com/featherline/backend/internal/common/crypto"
	"github.com/featherline/backend/internal/common/db"
	commonhttp "github.com/featherline/backend/internal/common/http"
	"github.com/featherline/backend/internal/common/httpmetrics"
	"github.com/featherline/backend/internal/common/jwtverify"
	"github.com/featherline/backend/internal/common/logger"
	srv "github.com/featherline/backend/internal/common/server"
	tweethttp "github.com/featherline/backend/internal/tweet/http"
	tweetrepo "github.com/featherline/backend/internal/tweet/repository"
	tweetservice "github.com/featherline/backend/internal/tweet/service"
	"github.com/featherline/backend/internal/tweet/stream"
	userhttp "github.com/featherline/backend/internal/user/http"
	userrepo "github.com/featherline/backend/internal/user/repository"
	userservice "github.com/featherline/backend/internal/user/service"
)

func main() {
	_ = godotenv.Load()

	log, err := logger.New(os.Getenv("LOG_DIR"), "api", os.Getenv("LOG_LEVEL"))
	if err != nil {
		os.Stderr.WriteString(fmt.Sprintf("failed to initialize logger: %v\n", err))
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	pool := db.NewPool(log, cfg.DatabaseURL)
	defer pool.Close()

	realClock := clock.NewRealClock()
	hasher := &commoncrypto.BcryptHasher{}
	idGenerator := commoncrypto.NewUUIDGenerator()

	users := userrepo.NewPgRepository(pool)
	tweets := tweetrepo.NewPgRepository(pool)

	tokenIssuer := userservice.NewTokenIssuer(cfg.JWTSecret, idGenerator, cfg.TokenTTL, realClock)
	userService := userservice.NewService(users, hasher, idGenerator, tokenIssuer, realClock, log)

	hub := stream.NewHub(log)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	tweetService := tweetservice.NewService(tweets, hub, log)

	errorHandler := commonhttp.NewErrorHandler(log, cfg.IsProduction())
	auth := jwtverify.Middleware(cfg.JWTSecret, errorHandler, log)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", commonhttp.HealthHandler(log, errorHandler))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			errorHandler.NotFoundHandler()(w, r)
			return
		}
		commonhttp.WriteJSON(w, http.StatusOK, map[string]string{"message": "Welcome to the featherline API."})
	})

	userhttp.NewHandler(userService, tweetService, auth, errorHandler, log, cfg.RequestTimeout).Register(mux)
	tweethttp.NewHandler(tweetService, hub, auth, errorHandler, log, cfg.RequestTimeout).Register(mux)

	handler := commonhttp.Chain(
		mux,
		commonhttp.RecoveryMiddleware(log, errorHandler),
		httpmetrics.Middleware,
		commonhttp.MaxRequestSizeMiddleware(commonhttp.DefaultMaxRequestSize, errorHandler),
	)

	serverConfig := srv.DefaultServerConfig(cfg.HTTPPort)
	server := srv.NewServer(serverConfig, handler)

	shutdownHooks := []srv.ShutdownHook{
		func(ctx context.Context) error {
			log.Infof("api service: stopping stream hub")
			cancel()
			return nil
		},
	}

	srv.StartWithGracefulShutdown(server, log, "api", shutdownHooks)
}
