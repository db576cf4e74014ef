package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/frontdesk/checkin-backend/internal/config"
	"github.com/frontdesk/checkin-backend/internal/httpapi"
	"github.com/frontdesk/checkin-backend/internal/hub"
	"github.com/frontdesk/checkin-backend/internal/inventory"
	"github.com/frontdesk/checkin-backend/internal/lane"
	"github.com/frontdesk/checkin-backend/internal/payment"
	"github.com/frontdesk/checkin-backend/internal/waitlist"
	"github.com/frontdesk/checkin-backend/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	db, err := openDB(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("open database", zap.Error(err))
	}
	if err := inventory.Migrate(db); err != nil {
		logger.Fatal("migrate inventory schema", zap.Error(err))
	}

	reader := inventory.NewGormReader(db)
	cached := inventory.NewCachedReader(reader, cfg.AvailabilityCacheTTL)

	wl := waitlist.NewService(cached)
	gateway := payment.LocalGateway{}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	h := hub.NewHub(ctx, lane.Deps{
		Inventory:   cached,
		Waitlist:    wl,
		Gateway:     gateway,
		Logger:      logger,
		VisitLength: cfg.VisitLength,
	})

	// Waitlist changes concern every station, not just the lane that caused
	// them.
	wl.OnChange(func(entries []waitlist.Entry) {
		h.Publish(lane.Push{Type: lane.PushWaitlistUpdated, Timestamp: time.Now(), Payload: entries})
	})

	server := httpapi.NewServer(h, wl, cached, cached, logger)
	handler := httpapi.SetupRoutes(server, httpapi.RouteOptions{
		Token:           cfg.APIToken,
		RateLimitPerSec: cfg.RateLimitPerSec,
		RateLimitBurst:  cfg.RateLimitBurst,
		WSHandler:       ws.Handler(h, logger),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("listening", zap.String("addr", srv.Addr), zap.Bool("auth", cfg.APIToken != ""))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

// openDB selects postgres when a DSN is configured and falls back to a local
// sqlite file for development.
func openDB(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return gorm.Open(sqlite.Open("checkin.db"), &gorm.Config{})
	}
	return gorm.Open(postgres.Open(dsn), &gorm.Config{})
}
