package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/egannguyen/salon-shop/backend/internal/auth"
	"github.com/egannguyen/salon-shop/backend/internal/config"
	deliveryHttp "github.com/egannguyen/salon-shop/backend/internal/delivery/http"
	"github.com/egannguyen/salon-shop/backend/internal/email"
	"github.com/egannguyen/salon-shop/backend/internal/entity"
	"github.com/egannguyen/salon-shop/backend/internal/messaging/kafka"
	"github.com/egannguyen/salon-shop/backend/internal/repository"
	"github.com/egannguyen/salon-shop/backend/internal/repository/memory"
	"github.com/egannguyen/salon-shop/backend/internal/repository/postgres"
	cartRedis "github.com/egannguyen/salon-shop/backend/internal/repository/redis"
	"github.com/egannguyen/salon-shop/backend/internal/service"
)

// stores is the set of repositories for the configured driver.
type stores struct {
	products      repository.ProductRepository
	coupons       repository.CouponRepository
	orders        repository.OrderRepository
	rewards       repository.RewardRepository
	notifications repository.NotificationRepository
	checkouts     repository.CheckoutStore
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "err", err)
		os.Exit(1)
	}
	setupLogger(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// --- Storage ---
	st, closeStore, err := openStores(cfg)
	if err != nil {
		slog.Error("Failed to init store", "driver", cfg.StoreDriver, "err", err)
		os.Exit(1)
	}
	defer closeStore()

	if cfg.SeedCatalog {
		if err := seedCatalog(ctx, st.products, st.coupons); err != nil {
			slog.Error("Failed to seed catalog", "err", err)
			os.Exit(1)
		}
	}

	// --- Cart ---
	cart, closeCart, err := openCart(ctx, cfg)
	if err != nil {
		slog.Error("Failed to connect to redis", "addr", cfg.RedisAddr, "err", err)
		os.Exit(1)
	}
	defer closeCart()

	// --- Kafka ---
	var broker *kafka.Broker
	if len(cfg.KafkaBrokers) > 0 {
		broker = kafka.NewKafkaBroker(cfg.KafkaBrokers)
		defer func() {
			if err := broker.Close(); err != nil {
				slog.Error("Failed to close kafka writers", "err", err)
			}
		}()
	} else {
		slog.Warn("No kafka brokers configured, order events and confirmation emails are disabled")
	}

	// --- Services ---
	rewardSvc := service.NewRewardService(st.rewards, cfg.Rates, cfg.Tiers)
	notificationSvc := service.NewNotificationService(st.notifications)
	deps := service.OrderServiceDeps{
		Products:  st.products,
		Coupons:   st.coupons,
		Orders:    st.orders,
		Rewards:   st.rewards,
		Checkouts: st.checkouts,
		Cart:      cart,
		Notifier:  notificationSvc,
		Earner:    rewardSvc,
		Rates:     cfg.Rates,

		PublishTimeout: cfg.PublishTimeout,
	}
	if broker != nil {
		deps.Publisher = broker
	}

	orderSvc := service.NewOrderService(deps)
	handler := deliveryHttp.NewHandler(deliveryHttp.Services{
		Catalog:       service.NewCatalogService(st.products),
		Cart:          service.NewCartService(cart, st.products),
		Coupons:       service.NewCouponService(st.coupons),
		Rewards:       rewardSvc,
		Orders:        orderSvc,
		Notifications: notificationSvc,
	})

	verifier := auth.NewTokenVerifier(cfg.JWTSecret, cfg.JWTIssuer)
	if cfg.DevTokens {
		logDevTokens(verifier)
	}

	// --- HTTP API ---
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           deliveryHttp.EnableCORS(auth.Middleware(verifier)(mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// --- Start everything ---
	if broker != nil {
		worker := service.NewEmailWorker(broker, newSender(cfg.SMTP), cfg.EmailGroupID)
		go worker.Run(ctx)
	}

	go func() {
		slog.Info("🚀 HTTP server starting", "addr", cfg.HTTPAddr, "store", cfg.StoreDriver)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down...")

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP shutdown error", "err", err)
	}
	orderSvc.Wait()
}

func setupLogger(level, format string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}

	var h slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if format == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(h))
}

func openStores(cfg *config.Config) (*stores, func(), error) {
	if cfg.StoreDriver == "memory" {
		slog.Warn("Using in-memory store, data is lost on restart")
		m := memory.NewStore()
		return &stores{
			products:      m.Products(),
			coupons:       m.Coupons(),
			orders:        m.Orders(),
			rewards:       m.Rewards(),
			notifications: m.Notifications(),
			checkouts:     m.Checkouts(),
		}, func() {}, nil
	}

	db, err := postgres.InitDB(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	return &stores{
		products:      postgres.NewProductRepository(db),
		coupons:       postgres.NewCouponRepository(db),
		orders:        postgres.NewOrderRepository(db),
		rewards:       postgres.NewRewardRepository(db),
		notifications: postgres.NewNotificationRepository(db),
		checkouts:     postgres.NewCheckoutStore(db),
	}, closeDB(db), nil
}

func closeDB(db *sql.DB) func() {
	return func() {
		if err := db.Close(); err != nil {
			slog.Error("Failed to close database", "err", err)
		}
	}
}

func openCart(ctx context.Context, cfg *config.Config) (repository.CartStore, func(), error) {
	if cfg.RedisAddr == "" {
		slog.Warn("No redis address configured, carts are kept in process memory")
		return memory.NewCartStore(), func() {}, nil
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, nil, err
	}
	slog.Info("Redis connected", "addr", cfg.RedisAddr)
	return cartRedis.NewCartStore(client, cfg.CartTTL), func() { client.Close() }, nil
}

func newSender(c config.SMTPConfig) email.Sender {
	if c.Host == "" {
		slog.Info("No SMTP host configured, confirmation emails go to the log")
		return email.LogSender{}
	}
	return email.NewSMTPSender(c.Host, c.Port, c.Username, c.Password, c.From)
}

func logDevTokens(v *auth.TokenVerifier) {
	for _, id := range []entity.Identity{demoCustomer, demoAdmin} {
		token, err := v.Issue(id, 24*time.Hour)
		if err != nil {
			slog.Error("Failed to issue dev token", "user_id", id.UserID, "err", err)
			continue
		}
		slog.Info("🔑 Dev token", "user_id", id.UserID, "role", id.Role, "token", token)
	}
}
