package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"

	"github.com/Alturino/flowerbelle/internal/backend"
	"github.com/Alturino/flowerbelle/internal/config"
	"github.com/Alturino/flowerbelle/internal/constants"
	inHttp "github.com/Alturino/flowerbelle/internal/http"
	"github.com/Alturino/flowerbelle/internal/infra"
	"github.com/Alturino/flowerbelle/internal/log"
	"github.com/Alturino/flowerbelle/internal/middleware"
	"github.com/Alturino/flowerbelle/internal/otel"
	"github.com/Alturino/flowerbelle/sale/internal/cache"
	commonOtel "github.com/Alturino/flowerbelle/sale/internal/common/otel"
	"github.com/Alturino/flowerbelle/sale/internal/controller"
	"github.com/Alturino/flowerbelle/sale/internal/service"
)

const shutdownTimeout = 10 * time.Second

// healthz reports backend breaker and cache state. It is served outside auth.
func healthz(client *backend.Client, ping func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := r.Context()
		statusCode := http.StatusOK
		cacheState := "ok"
		if err := ping(c); err != nil {
			statusCode, cacheState = http.StatusServiceUnavailable, err.Error()
		}
		status := inHttp.STATUS_SUCCESS
		if statusCode != http.StatusOK {
			status = inHttp.STATUS_FAILED
		}
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     status,
			"statusCode": statusCode,
			"message":    "health",
			"data": map[string]interface{}{
				"backend_breaker": client.BreakerState(),
				"cache":           cacheState,
				"version":         constants.APP_VERSION,
			},
		})
	}
}

func RunSaleService(c context.Context, configName string) {
	c, span := commonOtel.Tracer.Start(c, "RunSaleService")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyAppName, constants.APP_SALE_SERVICE).
		Str(log.KeyTag, "main RunSaleService").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "init config").Logger()
	logger.Info().Msg("initializing config")
	c = logger.WithContext(c)
	cfg := config.Get(c, configName)
	logger.Info().Msg("initialized config")

	if cfg.SecretKey == "" {
		err := errors.New("application.secret_key is required to verify access tokens")
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return
	}

	logger = logger.With().Str(log.KeyProcess, "initializing otel sdk").Logger()
	logger.Info().Msg("initializing otel sdk")
	c = logger.WithContext(c)
	otelShutdowns, err := otel.InitOtelSdk(c, constants.APP_SALE_SERVICE, cfg.Otel)
	if err != nil {
		err = fmt.Errorf("failed initializing otel sdk with error=%w", err)
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
	defer func() {
		logger.Info().Msg("shutting down otel")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(c), shutdownTimeout)
		defer cancel()
		if err := otel.ShutdownOtel(shutdownCtx, otelShutdowns); err != nil {
			err = fmt.Errorf("failed shutting down otel with error=%w", err)
			logger.Error().Err(err).Msg(err.Error())
			return
		}
		logger.Info().Msg("shutdown otel")
	}()
	logger.Info().Msg("initialized otel sdk")

	logger = logger.With().Str(log.KeyProcess, "initializing cache").Logger()
	logger.Info().Msg("initializing cache")
	c = logger.WithContext(c)
	redisClient, err := infra.NewCacheClient(c, cfg.Cache)
	if err != nil {
		err = fmt.Errorf("failed initializing cache with error=%w", err)
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
	defer func() {
		logger = logger.With().Str(log.KeyProcess, "shutting down cache").Logger()
		logger.Info().Msg("shutting down cache")
		if err := redisClient.Close(); err != nil {
			err = fmt.Errorf("failed shutting down cache with error=%w", err)
			logger.Error().Err(err).Msg(err.Error())
			return
		}
		logger.Info().Msg("shutdown cache")
	}()
	logger.Info().Msg("initialized cache")

	logger = logger.With().Str(log.KeyProcess, "initializing sale service").Logger()
	logger.Info().Msg("initializing sale service")
	backendClient := backend.NewClient(cfg.Backend)
	saleService := service.NewSaleService(
		backendClient,
		cache.NewCatalogCache(redisClient, cfg.Cache.CatalogTTL),
		cache.NewReceiptJournal(redisClient, cfg.Sale.ReceiptJournalSize),
	)
	logger.Info().Msg("initialized sale service")

	logger = logger.With().Str(log.KeyProcess, "initializing router").Logger()
	logger.Info().Msg("initializing router")
	router := mux.NewRouter()
	router.Use(otelmux.Middleware(constants.APP_SALE_SERVICE), middleware.Logging, middleware.RecoverPanic)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	router.HandleFunc("/healthz", healthz(backendClient, func(c context.Context) error {
		return redisClient.Ping(c).Err()
	})).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.Use(middleware.Auth(cfg.SecretKey))
	controller.AttachSaleController(api, saleService)
	logger.Info().Msg("initialized router")

	logger = logger.With().Str(log.KeyProcess, "initializing server").Logger()
	logger.Info().Msg("initializing server")
	httpServer := http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Application.Host, cfg.Application.Port),
		BaseContext:  func(net.Listener) context.Context { return c },
		Handler:      router,
		ReadTimeout:  45 * time.Second,
		WriteTimeout: 45 * time.Second,
	}
	logger.Info().Msg("initialized server")

	serverErr := make(chan error, 1)
	serverLogger := logger.With().Str(log.KeyProcess, "start server").Logger()
	go func() {
		serverLogger.Info().Msgf("start listening request at %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("error=%w occured while server is running", err)
			return
		}
		serverErr <- nil
	}()

	select {
	case err = <-serverErr:
		if err != nil {
			commonOtel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
		}
		return
	case <-c.Done():
	}

	logger = logger.With().Str(log.KeyProcess, "shutting down http server").Logger()
	logger.Info().Msg("received interuption signal shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(c), shutdownTimeout)
	defer cancel()
	if err = httpServer.Shutdown(shutdownCtx); err != nil {
		err = fmt.Errorf("failed shutting down http server with error=%w", err)
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
	logger.Info().Msg("shutdown http server")
}
