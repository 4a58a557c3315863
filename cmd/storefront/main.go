package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fjod/storefront/internal/blob"
	"github.com/fjod/storefront/internal/catalog"
	"github.com/fjod/storefront/internal/config"
	"github.com/fjod/storefront/internal/docstore"
	sfgrpc "github.com/fjod/storefront/internal/grpc"
	h "github.com/fjod/storefront/internal/http"
	"github.com/fjod/storefront/internal/identity"
	"github.com/fjod/storefront/internal/kv"
	"github.com/fjod/storefront/internal/notify"
	"github.com/fjod/storefront/internal/orders"
	"github.com/fjod/storefront/internal/storefront"
	"github.com/fjod/storefront/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	l, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer l.Sync()
	zap.ReplaceGlobals(l)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, l); err != nil {
		l.Error("storefront stopped with error", zap.Error(err))
		os.Exit(1)
	}
}

// closers run in reverse order on shutdown.
type closers []func()

func (c *closers) add(f func()) { *c = append(*c, f) }

func (c closers) run() {
	for i := len(c) - 1; i >= 0; i-- {
		c[i]()
	}
}

func run(ctx context.Context, cfg *config.Config, l *zap.Logger) error {
	var cleanup closers
	defer cleanup.run()
	checks := map[string]sfgrpc.Check{}

	// Session and cart state
	var store kv.Store
	switch cfg.KVBackend {
	case config.BackendRedis:
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		cleanup.add(func() { _ = redisClient.Close() })
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis connection failed: %w", err)
		}
		l.Info("Redis ping succeeded", zap.String("addr", cfg.RedisAddr))
		checks["kv"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
		store = kv.NewRedisStore(redisClient, cfg.RedisPrefix, cfg.KVTTL)
	default:
		store = kv.NewMemoryStore()
	}

	// Orders
	var docs docstore.Store
	switch cfg.OrdersBackend {
	case config.BackendMongo:
		mongoDB, err := docstore.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDatabase, docstore.MongoOptions{
			ConnectTimeout:         cfg.MongoConnectTimeout,
			ServerSelectionTimeout: cfg.MongoSelectTimeout,
			MaxPoolSize:            cfg.MongoMaxPool,
			MinPoolSize:            cfg.MongoMinPool,
		})
		if err != nil {
			return fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		cleanup.add(func() { _ = mongoDB.Client().Disconnect(context.Background()) })
		mongoStore := docstore.NewMongoStore(mongoDB)
		if err := orders.EnsureIndexes(ctx, mongoStore); err != nil {
			return err
		}
		l.Info("Connected to MongoDB", zap.String("database", cfg.MongoDatabase))
		checks["orders"] = func(ctx context.Context) error { return mongoDB.Client().Ping(ctx, nil) }
		docs = mongoStore
	default:
		docs = docstore.NewMemoryStore()
	}

	// Catalog
	source, err := catalog.NewSQLiteSource(cfg.CatalogDSN)
	if err != nil {
		return err
	}
	cleanup.add(func() { _ = source.Close() })
	if err := source.RunMigrations(); err != nil {
		return err
	}
	products, err := catalog.Load(ctx, source)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	l.Info("Catalog loaded", zap.Int("products", products.Len()))
	checks["catalog"] = source.Ping

	var blobs blob.Store
	switch cfg.BlobBackend {
	case config.BackendS3:
		client, err := blob.NewS3Client(ctx, cfg.S3Region, cfg.S3Endpoint)
		if err != nil {
			return err
		}
		blobs = blob.NewS3Store(client, cfg.S3Bucket, cfg.BlobPublicURL)
	default:
		blobs = blob.NewMemoryStore(cfg.BlobPublicURL)
	}

	// Identity
	var users identity.UserStore
	switch cfg.UsersBackend {
	case config.BackendPostgres:
		pg, err := identity.NewPostgresUsers(&identity.Credentials{
			Host:     cfg.PostgresHost,
			Port:     cfg.PostgresPort,
			User:     cfg.PostgresUser,
			Password: cfg.PostgresPassword,
			DBName:   cfg.PostgresDB,
		})
		if err != nil {
			return err
		}
		cleanup.add(func() { _ = pg.Close() })
		if err := pg.RunMigrations(); err != nil {
			return err
		}
		checks["users"] = pg.Ping
		users = pg
	default:
		users = identity.NewMemoryUsers()
	}
	secret := cfg.JWTSecret
	if secret == "" {
		secret = randomSecret()
		l.Warn("JWT_SECRET not set, sessions will not survive a restart")
	}
	ids := identity.NewService(users, identity.NewTokenSigner(secret, cfg.TokenTTL), cfg.BcryptCost, l)

	// Seller notifications
	var notifier notify.Notifier
	switch cfg.NotifierMode {
	case config.NotifierKafka:
		k := notify.NewKafkaNotifier(cfg.NotificationTopic, cfg.NotificationTimeout, l, cfg.Brokers()...)
		cleanup.add(func() { _ = k.Close() })
		notifier = k
		if cfg.DispatcherEnabled {
			d := notify.NewDispatcher(cfg.NotificationTopic, cfg.DispatcherGroupID, map[string]notify.Sender{
				notify.ChannelEmail:    notify.NewLogSender(l.Named("email")),
				notify.ChannelWhatsApp: notify.NewLogSender(l.Named("whatsapp")),
			}, l, cfg.Brokers()...)
			cleanup.add(d.Close)
			go d.Run(ctx)
		}
	default:
		notifier = notify.NewSimulated(l)
	}
	notifier = notify.NewBreaker(notifier, cfg.BreakerFailures, cfg.BreakerOpenFor, l)

	registry := storefront.NewRegistry(storefront.Deps{
		KV:        store,
		Docs:      docs,
		Identity:  ids,
		Catalog:   catalog.NewService(products, source, blobs, l),
		Describer: catalog.NewTemplateWriter(),
		Notifier:  notifier,
		Logger:    l,
	})
	cleanup.add(registry.Close)
	go registry.Run(ctx, cfg.VisitorSweepEvery, cfg.VisitorIdleTimeout)

	limiter := h.NewRateLimiter(cfg.LoginRatePerSecond, cfg.LoginRateBurst)
	go limiter.Run(ctx, time.Minute, 10*time.Minute)

	// Health over gRPC
	healthSrv := sfgrpc.NewHealthServer(checks, l)
	go healthSrv.Run(ctx, cfg.HealthEvery, 5*time.Second)
	lis, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.GRPCPort))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	go func() {
		l.Info("Health service listening", zap.String("port", cfg.GRPCPort), zap.Strings("checks", healthSrv.Names()))
		if err := healthSrv.Serve(lis); err != nil {
			l.Error("health server error", zap.Error(err))
		}
	}()

	srv := &http.Server{
		Addr: ":" + cfg.HTTPPort,
		Handler: h.NewRouter(h.RouterConfig{
			Registry:           registry,
			Health:             healthSrv,
			Logger:             l,
			LoginLimiter:       limiter,
			RequestTimeout:     cfg.RequestTimeout,
			SessionWait:        cfg.SessionWait,
			MaxRequestBodySize: cfg.MaxRequestBodySize,
			SecureCookies:      cfg.CookieSecure,
		}),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + checkoutSlack,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		l.Info("Storefront starting", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	l.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		l.Error("server forced to shutdown", zap.Error(err))
	}
	healthSrv.GracefulStop()
	l.Info("server exited")
	return nil
}

// checkoutSlack lets a checkout that is already notifying finish writing.
const checkoutSlack = 5 * time.Second

func randomSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "storefront-dev-secret"
	}
	return hex.EncodeToString(b)
}
