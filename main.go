package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/deepfake-verifier/internal/auth"
	"github.com/example/deepfake-verifier/internal/config"
	"github.com/example/deepfake-verifier/internal/handlers"
	"github.com/example/deepfake-verifier/internal/logging"
	"github.com/example/deepfake-verifier/internal/models"
	"github.com/example/deepfake-verifier/internal/predictclient"
	"github.com/example/deepfake-verifier/internal/preview"
	"github.com/example/deepfake-verifier/internal/progress"
	"github.com/example/deepfake-verifier/internal/status"
	"github.com/example/deepfake-verifier/internal/usecase"
	"github.com/example/deepfake-verifier/internal/validation"
)

func main() {
	cfg, err := config.Load(getEnv("VERIFIER_CONFIG", "verifier.yaml"))
	if err != nil {
		panic(err)
	}

	logger, err := logging.NewLogger(cfg.Logging.Level)
	if err != nil {
		panic(err)
	}
	defer logger.Sync() //nolint:errcheck

	if err := config.Validate(cfg); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	console := newApp(cfg, logger)
	defer console.Close()

	probeCtx, cancelProbe := context.WithCancel(context.Background())
	defer cancelProbe()
	go console.monitor.Probe(probeCtx)

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           console.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("verifier console listening",
		zap.String("addr", cfg.Server.Addr),
		zap.String("predict_endpoint", cfg.Service.Endpoint),
		zap.Bool("auth_enabled", cfg.Console.JWTSecret != ""))
	if err := serveHTTPServer(server, cfg.Server.ShutdownTimeout, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

type app struct {
	router   *gin.Engine
	analysis *usecase.AnalysisUseCase
	previews *preview.Manager
	monitor  *status.Monitor
}

func newApp(cfg *config.Config, logger *zap.Logger) *app {
	surface := handlers.NewSurface()

	previews := preview.NewManager(cfg.Preview.TTL, logger, preview.WithOnRelease(func(h models.PreviewHandle, _ preview.ReleaseReason) {
		surface.ClearPreview(h.ID)
	}))

	monitor := status.NewMonitor(cfg.Service.StatusEndpoint, cfg.Service.ProbeTimeout, logger)
	monitor.OnChange(surface.SetBackend)

	analysis := usecase.NewAnalysisUseCase(
		validation.New(cfg.Validation.SupportedTypes, cfg.Validation.SizeWarningThresholdBytes),
		previews,
		predictclient.New(cfg.Service.Endpoint, cfg.Service.RequestTimeout, logger),
		surface,
		logger,
		usecase.WithProgress(progress.NewScheduler(cfg.Progress.DetectingFacesAfter, cfg.Progress.AnalyzingAfter)),
		usecase.WithSizeAckTimeout(cfg.Validation.SizeAckTimeout),
	)

	router := gin.Default()
	handlers.RegisterRoutes(router, handlers.Deps{
		Analysis:          analysis,
		Surface:           surface,
		Previews:          previews,
		Monitor:           monitor,
		Logger:            logger,
		MaxSelectionBytes: cfg.Console.MaxSelectionBytes,
	}, auth.JWTMiddleware(cfg.Console.JWTSecret, cfg.Console.JWTAudience))

	return &app{router: router, analysis: analysis, previews: previews, monitor: monitor}
}

// Close releases the live preview.
func (a *app) Close() {
	a.previews.Close()
}

func serveHTTPServer(server *http.Server, shutdownTimeout time.Duration, logger *zap.Logger) error {
	return serveHTTPServerWithOptions(server, shutdownTimeout, logger, nil, nil)
}

func serveHTTPServerWithOptions(server *http.Server, shutdownTimeout time.Duration, logger *zap.Logger, listener net.Listener, signalCh <-chan os.Signal) error {
	errCh := make(chan error, 1)
	go func() {
		var err error
		if listener != nil {
			err = server.Serve(listener)
		} else {
			err = server.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	var (
		sigCh       <-chan os.Signal
		stopSignals func()
	)

	if signalCh != nil {
		sigCh = signalCh
		stopSignals = func() {}
	} else {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
		sigCh = ch
		stopSignals = func() {
			signal.Stop(ch)
		}
	}
	defer stopSignals()

	select {
	case err := <-errCh:
		return err
	case sig, ok := <-sigCh:
		if !ok {
			return <-errCh
		}
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return <-errCh
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
