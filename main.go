package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/msomdec/accountd/internal/config"
	"github.com/msomdec/accountd/internal/handler"
	"github.com/msomdec/accountd/internal/logging"
	"github.com/msomdec/accountd/internal/notify"
	"github.com/msomdec/accountd/internal/repository"
	"github.com/msomdec/accountd/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.Init(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	store, err := repository.Open(context.Background(), cfg.Database)
	if err != nil {
		logger.Fatal("failed to open database", zap.String("driver", cfg.Database.Driver), zap.Error(err))
	}
	defer store.Close()
	logger.Info("database ready", zap.String("driver", cfg.Database.Driver))

	node, err := snowflake.NewNode(cfg.SnowflakeNode)
	if err != nil {
		logger.Fatal("invalid snowflake node", zap.Int64("node", cfg.SnowflakeNode), zap.Error(err))
	}

	accounts := service.NewAccountService(
		store.Users(),
		notify.NewLogNotifier(logger),
		service.WithClock(clockwork.NewRealClock()),
		service.WithResetTokenTTL(cfg.ResetTokenTTL),
		service.WithLogger(logger.Named("account")),
	)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, accounts, store, logger.Named("http"))

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler.Wrap(mux, node, logger.Named("access")),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
		return
	}
	logger.Info("server stopped")
}
