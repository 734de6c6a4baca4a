package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/avast/retry-go"
	"github.com/bwmarrin/discordgo"
	_ "github.com/go-sql-driver/mysql"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc"

	"github.com/rl1809/giftpay/internal/adapter/gateway"
	"github.com/rl1809/giftpay/internal/adapter/handler"
	"github.com/rl1809/giftpay/internal/adapter/notify"
	"github.com/rl1809/giftpay/internal/adapter/storage"
	"github.com/rl1809/giftpay/internal/config"
	"github.com/rl1809/giftpay/internal/core/service"
	"github.com/rl1809/giftpay/internal/metrics"
	"github.com/rl1809/giftpay/internal/port"
)

type DLQProducer interface {
	Close() error
}

type App struct {
	cfg        config.Config
	log        *slog.Logger
	db         *sql.DB
	rdb        *redis.Client
	dlq        DLQProducer
	dispatcher *notify.Dispatcher
	health     *handler.HealthReporter
	httpServer *http.Server
	grpcServer *grpc.Server
	healthCtx  context.Context
	stopHealth context.CancelFunc
}

func New(cfg config.Config, log *slog.Logger) (*App, error) {
	reg := prometheus.NewRegistry()
	metrics.Register(reg)
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	db, err := OpenMySQL(cfg.MySQL, log)
	if err != nil {
		return nil, err
	}

	if cfg.MySQL.Migrate {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := storage.Migrate(ctx, db)
		cancel()
		if err != nil {
			db.Close()
			log.Error("failed to migrate schema", slog.Any("error", err))
			return nil, err
		}
		log.Info("schema migrated")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		// the catalog falls back to MySQL while the cache is down
		log.Warn("redis unavailable, catalog cache disabled until it recovers", slog.Any("error", err))
	}
	cancel()

	mysqlAdapter := storage.NewMySQLAdapter(db, storage.RetryConfig{
		Attempts: cfg.MySQL.RetryAttempts,
		Delay:    cfg.MySQL.RetryDelay,
		MaxDelay: cfg.MySQL.RetryMaxDelay,
	})
	redisAdapter := storage.NewRedisAdapter(rdb, cfg.Catalog.CacheTTL)

	notifier, err := newNotifier(cfg.Discord, log)
	if err != nil {
		rdb.Close()
		db.Close()
		return nil, err
	}

	a := &App{cfg: cfg, log: log, db: db, rdb: rdb}

	var sink notify.DeadLetterSink
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := notify.NewDLQProducer(notify.KafkaConfig{
			Brokers: cfg.Kafka.Brokers,
			Version: cfg.Kafka.Version,
			Topic:   cfg.Kafka.DLQTopic,
		}, log)
		if err != nil {
			rdb.Close()
			db.Close()
			log.Error("failed to create kafka dlq producer", slog.Any("error", err))
			return nil, err
		}
		sink = producer
		a.dlq = producer
	} else {
		log.Warn("kafka brokers not configured, failed notifications will only be logged")
	}

	a.dispatcher = notify.NewDispatcher(notifier, sink, notify.DispatcherConfig{
		WorkerCount: cfg.Notify.WorkerCount,
		Attempts:    cfg.Notify.Attempts,
		Delay:       cfg.Notify.Delay,
		MaxDelay:    cfg.Notify.MaxDelay,
		SendTimeout: cfg.Notify.SendTimeout,
	}, log)

	gatewayClient := gateway.NewClient(gateway.Config{
		BaseURL:        cfg.Gateway.BaseURL,
		APIKey:         cfg.Gateway.APIKey,
		ShopID:         cfg.Gateway.ShopID,
		Timeout:        cfg.Gateway.Timeout,
		PaidButtonName: cfg.Gateway.PaidButtonName,
	}, log)

	catalog := service.NewCatalogService(mysqlAdapter, redisAdapter, log)
	checkout := service.NewCheckoutService(catalog, mysqlAdapter, gatewayClient, a.dispatcher, service.CheckoutConfig{
		Currency:       cfg.Gateway.Currency,
		FeeRate:        cfg.Fee.Decimal(),
		SuccessURL:     cfg.Gateway.SuccessURL,
		FailURL:        cfg.Gateway.FailURL,
		WebhookURL:     cfg.Gateway.WebhookURL,
		GatewayTimeout: cfg.Gateway.Timeout,
	}, log)
	reconciler := service.NewReconcileService(gateway.NewHMACVerifier(cfg.Webhook.Secret), mysqlAdapter, a.dispatcher, log)
	reports := service.NewReportService(mysqlAdapter)

	router := handler.NewRouter(
		handler.NewHTTPHandler(checkout, catalog, reports, log),
		handler.NewWebhookHandler(reconciler, cfg.Webhook.SignatureHeader, log),
		handler.RouterConfig{
			AdminToken:   cfg.Admin.Token,
			InvoiceRPS:   cfg.HTTP.InvoiceRPS,
			InvoiceBurst: cfg.HTTP.InvoiceBurst,
			TrustProxy:   cfg.HTTP.TrustProxy,
			Metrics:      promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		},
	)
	a.httpServer = &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	a.health = handler.NewHealthReporter(map[string]handler.HealthCheck{
		"mysql": db.PingContext,
		"redis": func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	}, 2*time.Second, log)
	a.healthCtx, a.stopHealth = context.WithCancel(context.Background())
	a.grpcServer = grpc.NewServer()
	a.health.Register(a.grpcServer)

	return a, nil
}

// Run blocks until one of the servers fails.
func (a *App) Run() error {
	lis, err := net.Listen("tcp", a.cfg.GRPC.Addr)
	if err != nil {
		return fmt.Errorf("listen grpc %s: %w", a.cfg.GRPC.Addr, err)
	}

	go a.health.Run(a.healthCtx, a.cfg.GRPC.HealthInterval)

	errChan := make(chan error, 2)
	go func() {
		a.log.Info("gRPC server listening", slog.String("addr", a.cfg.GRPC.Addr))
		if err := a.grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errChan <- fmt.Errorf("grpc server: %w", err)
		}
	}()
	go func() {
		a.log.Info("HTTP server listening", slog.String("addr", a.cfg.HTTP.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server: %w", err)
		}
	}()

	return <-errChan
}

// Shutdown stops intake first, then drains notifications, then closes
// connections.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error

	if err := a.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	a.log.Info("HTTP server stopped")

	a.stopHealth()
	a.grpcServer.GracefulStop()
	a.log.Info("gRPC server stopped")

	if err := a.dispatcher.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("notification drain: %w", err))
	}
	a.log.Info("notification workers stopped")

	if a.dlq != nil {
		if err := a.dlq.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := a.rdb.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := a.db.Close(); err != nil {
		errs = append(errs, err)
	}
	a.log.Info("connections closed")

	return errors.Join(errs...)
}

// OpenMySQL connects with retries so the service can start alongside the database.
func OpenMySQL(cfg config.MySQL, log *slog.Logger) (*sql.DB, error) {
	db, err := sql.Open("mysql", cfg.DSN)
	if err != nil {
		log.Error("failed to open mysql", slog.Any("error", err))
		return nil, err
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	err = retry.Do(
		func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return db.PingContext(ctx)
		},
		retry.Attempts(max(cfg.RetryConnAttempts, 1)),
		retry.Delay(cfg.RetryConnDelay),
		retry.MaxDelay(cfg.RetryConnMaxDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Warn("mysql ping failed, retrying", slog.Uint64("attempt", uint64(n+1)), slog.Any("error", err))
		}),
	)
	if err != nil {
		db.Close()
		log.Error("failed to ping mysql", slog.Any("error", err))
		return nil, err
	}

	log.Info("connected to mysql")
	return db, nil
}

func newNotifier(cfg config.Discord, log *slog.Logger) (port.Notifier, error) {
	if cfg.Token == "" || cfg.ChannelID == "" {
		log.Warn("discord not configured, admin notifications go to the log")
		return notify.NewLogNotifier(log), nil
	}

	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		log.Error("failed to create discord session", slog.Any("error", err))
		return nil, err
	}
	return notify.NewDiscordNotifier(session, cfg.ChannelID), nil
}
