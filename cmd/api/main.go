package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/go-inventory-orders/internal/auth"
	"github.com/ariefcatur/go-inventory-orders/internal/config"
	"github.com/ariefcatur/go-inventory-orders/internal/dashboard"
	"github.com/ariefcatur/go-inventory-orders/internal/httpx"
	"github.com/ariefcatur/go-inventory-orders/internal/inventory"
	kafkax "github.com/ariefcatur/go-inventory-orders/internal/kafka"
	"github.com/ariefcatur/go-inventory-orders/internal/logx"
	"github.com/ariefcatur/go-inventory-orders/internal/orders"
	"github.com/ariefcatur/go-inventory-orders/internal/postgres"
	"github.com/ariefcatur/go-inventory-orders/internal/redisx"
	"github.com/ariefcatur/go-inventory-orders/internal/reports"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logx.New(cfg.LogLevel).With("service", cfg.ServiceName)

	if err := run(cfg, log); err != nil {
		log.Error("exit", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db); err != nil {
		return err
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()
	cache := redisx.NewCache(rdb)

	// Kafka producer; loop berhenti setelah inbox ditutup dan di-flush
	prod := kafkax.NewProducer(cfg.KafkaBrokers, cfg.OrderEventsTopic, 1024, log)
	prod.Start(context.Background())

	store := &inventory.PGStore{DB: db}
	engine := orders.NewEngine(store, &orders.Repo{DB: db}, log,
		orders.WithEvents(&orders.KafkaEvents{Producer: prod, Service: cfg.ServiceName}))

	gate := auth.NewGate(&auth.PGUsers{DB: db}, &auth.RedisSessions{Redis: rdb}, cfg.SessionTTL, log)
	if err := gate.EnsureOwner(ctx, cfg.OwnerUsername, cfg.OwnerPassword); err != nil {
		return err
	}

	summary := dashboard.NewService(&dashboard.PGSource{DB: db}, cache, cfg.DashboardCacheTTL, log)
	hub := dashboard.NewHub(log)
	feed := &dashboard.Feed{Hub: hub, Summary: summary, Log: log}
	// group unik per instance: setiap API instance menerima semua event
	group := cfg.FeedGroupPrefix + "-" + uuid.NewString()
	newConsumer := func() *kafkax.Consumer {
		return kafkax.NewConsumer(cfg.KafkaBrokers, group, cfg.OrderEventsTopic, 2, log)
	}
	reportSvc := reports.NewService(&reports.PGSource{DB: db}, reports.PDFRenderer{}, cfg.ReportCompany, log)

	router := httpx.NewRouter(httpx.Deps{
		Engine:     engine,
		Inventory:  inventory.NewService(store, log),
		Gate:       gate,
		Dashboard:  summary,
		Hub:        hub,
		Reports:    reportSvc,
		OrderCache: cache,
		Log:        log,
	})
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 5 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("HTTP listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		// feed hanya pelengkap: broker mati tidak boleh menjatuhkan API
		log.Info("dashboard feed consuming", "topic", cfg.OrderEventsTopic, "group", group)
		kafkax.Supervise(gctx, newConsumer, feed.Handle, log, cfg.FeedBackoff, cfg.FeedMaxBackoff)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down...")
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		hub.Close()
		err := srv.Shutdown(sctx)
		prod.Close()      // tutup inbox -> flush & close writer
		prod.WaitClosed() // drain
		return err
	})
	return g.Wait()
}
