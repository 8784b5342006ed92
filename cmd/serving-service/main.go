package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/synaptica-ai/cardio/pkg/cardio"
	"github.com/synaptica-ai/cardio/pkg/common/config"
	"github.com/synaptica-ai/cardio/pkg/common/logger"
	"github.com/synaptica-ai/cardio/pkg/gateway/auth"
	"github.com/synaptica-ai/cardio/pkg/gateway/middleware"
	"github.com/synaptica-ai/cardio/pkg/observability/metrics"
	"github.com/synaptica-ai/cardio/pkg/serving"
)

func main() {
	logger.Init("serving-service")
	cfg := config.Load()

	catalog, err := cardio.LoadCatalog(cfg.FeatureCatalogPath)
	if err != nil {
		logger.Log.WithError(err).Warn("Failed to load feature catalog; using built-in descriptions")
	}

	model := serving.LoadModel(cfg)

	opts, closeSinks, err := serving.ConnectSinks(context.Background(), cfg)
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to connect assessment sinks")
	}
	defer closeSinks()

	service := serving.NewService(model, opts)
	handler := serving.NewHTTPHandler(service, catalog, cfg.MaxRequestBody)

	router := mux.NewRouter()
	router.Use(middleware.Recovery)
	router.Use(middleware.Logging)
	router.Use(middleware.CORS(cfg.CORSAllowedOrigin))
	router.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))

	handler.RegisterRoot(router)
	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	if verifier := buildVerifier(cfg); verifier != nil {
		api.Use(middleware.Authenticate(verifier))
	}
	handler.Register(api)

	// Preflight requests are answered by the CORS middleware.
	router.PathPrefix("/").Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		logger.Log.WithFields(map[string]interface{}{
			"host":         cfg.ServerHost,
			"port":         cfg.ServerPort,
			"model_loaded": service.Ready(),
		}).Info("Serving Service started")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down Serving Service...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Log.WithError(err).Error("Server forced to shutdown")
	}

	logger.Log.Info("Serving Service stopped")
}

// buildVerifier returns nil when no authentication is configured.
func buildVerifier(cfg *config.Config) auth.Verifier {
	var chain auth.Chain

	if cfg.ServiceTokenSecret != "" {
		tokens, err := auth.NewServiceTokenVerifier(cfg.ServiceTokenSecret, cfg.ServiceTokenIssuer, cfg.ServiceTokenAud)
		if err != nil {
			logger.Log.WithError(err).Fatal("Invalid service token configuration")
		}
		chain = append(chain, tokens)
	}

	if cfg.OIDCIssuer != "" {
		oidc, err := auth.NewOIDCAuthenticator(cfg.OIDCIssuer, cfg.OIDCClientID, cfg.OIDCClientSecret)
		if err != nil {
			logger.Log.WithError(err).Fatal("Invalid OIDC configuration")
		}
		chain = append(chain, oidc)
	}

	if len(chain) == 0 {
		logger.Log.Warn("Authentication disabled for /api/v1")
		return nil
	}
	return chain
}
