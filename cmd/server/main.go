package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/burgerhub/api/internal/config"
	"github.com/burgerhub/api/internal/logging"
	"github.com/burgerhub/api/internal/metrics"
	"github.com/burgerhub/api/internal/model"
	"github.com/burgerhub/api/internal/router"
	"github.com/burgerhub/api/internal/scheduler"
	"github.com/burgerhub/api/internal/service"
	"github.com/burgerhub/api/internal/storage"
	"github.com/burgerhub/api/internal/store"
	"github.com/burgerhub/api/internal/view"
	"github.com/burgerhub/api/internal/watch"
	"github.com/burgerhub/api/internal/ws"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.Load()
	logging.Setup("burgerhub", cfg.Env, cfg.LogLevel)

	if err := run(cfg); err != nil {
		log.Fatalf("ERROR: %v", err)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(cfg.DataDir)
	if err != nil {
		return err
	}
	defer db.Close()

	now := func() time.Time { return time.Now().In(cfg.Location) }
	m := metrics.Default()
	bus := watch.NewBus(m)
	st := store.New(db, bus, store.WithClock(now))
	if err := st.InitializeData(ctx); err != nil {
		return fmt.Errorf("initialize data: %w", err)
	}

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("parse REDIS_URL: %w", err)
		}
		client := redis.NewClient(opts)
		defer client.Close()
		relay := watch.NewRedisRelay(client, bus, cfg.RedisChannel)
		go func() {
			if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("redis relay stopped", "error", err)
			}
		}()
		slog.Info("redis relay enabled", "channel", cfg.RedisChannel, "instance", relay.InstanceID())
	}

	hub := ws.NewHub(m)
	go hub.Run(ctx)
	go ws.Bridge(ctx, bus, hub)

	views := router.Views{
		Kiosk:     view.NewKiosk(st),
		Kitchen:   view.NewKitchen(st),
		Display:   view.NewDisplay(st, now),
		Admin:     view.NewAdmin(st, now),
		Customers: view.NewCustomers(st, now),
	}
	views.Display.OnCall(func(o model.Order) {
		slog.Info("order ready for pickup", "order_number", o.OrderNumber)
		payload, _ := json.Marshal(o)
		hub.Broadcast(ws.RoomAll, ws.Event{Type: "order.called", Payload: payload})
	})
	for _, r := range []view.Refresher{views.Kiosk, views.Kitchen, views.Display, views.Admin, views.Customers} {
		go view.Run(ctx, bus, cfg.SyncPollInterval, r)
	}

	jobs, err := scheduler.Start(cfg.Location, scheduler.Jobs{
		Dashboard:   views.Admin,
		Kiosk:       views.Kiosk,
		SessionIdle: cfg.SessionTTL,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := jobs.Shutdown(); err != nil {
			slog.Warn("scheduler shutdown", "error", err)
		}
	}()

	orders := service.NewOrderService(st, service.OrderServiceConfig{
		PaymentDelay: cfg.PaymentDelay,
		AllowPickup:  cfg.AllowPickup,
	}, m)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           router.New(cfg, st, views, orders, hub),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Printf("Starting server on :%s", cfg.Port)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Println("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openDatabase(dir string) (storage.Database, error) {
	if dir == "" {
		log.Println("WARNING: DATA_DIR not set, data is kept in memory only")
		return storage.NewMemDB(), nil
	}
	db, err := storage.NewLevelDB(dir)
	if err != nil {
		return nil, fmt.Errorf("open leveldb %s: %w", dir, err)
	}
	return db, nil
}
