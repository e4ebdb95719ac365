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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopportable/shop-portable-backend/internal/config"
	"github.com/shopportable/shop-portable-backend/internal/modules/address"
	"github.com/shopportable/shop-portable-backend/internal/modules/auth"
	"github.com/shopportable/shop-portable-backend/internal/modules/catalog"
	"github.com/shopportable/shop-portable-backend/internal/modules/notification"
	"github.com/shopportable/shop-portable-backend/internal/modules/order"
	"github.com/shopportable/shop-portable-backend/internal/modules/profileimage"
	"github.com/shopportable/shop-portable-backend/internal/modules/staff"
	"github.com/shopportable/shop-portable-backend/internal/modules/user"
	"github.com/shopportable/shop-portable-backend/internal/platform/access"
	"github.com/shopportable/shop-portable-backend/internal/platform/database"
	"github.com/shopportable/shop-portable-backend/internal/platform/logger"
	"github.com/shopportable/shop-portable-backend/internal/platform/web"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := zerolog.New(os.Stderr)
		boot.Fatal().Err(err).Msg("load config")
	}
	log := logger.New(cfg.LogLevel, cfg.IsProduction())
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}
	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Prices go out as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true

	// ── Database ─────────────────────────────────────────────
	db, err := database.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()
	log.Info().Msg("connected to the database")

	if cfg.RunMigrations {
		if err := database.Migrate(db); err != nil {
			return err
		}
	}

	// ── Token revocation ─────────────────────────────────────
	revoked := auth.NewMemoryRevocationStore()
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return err
		}
		revoked = auth.NewRedisRevocationStore(rdb)
		log.Info().Str("addr", cfg.RedisAddr).Msg("token revocation backed by redis")
	}

	// ── Notifications ────────────────────────────────────────
	var sender notification.Sender = notification.NewLogSender(log)
	if cfg.SMTPConfigured() {
		sender = notification.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.MailFrom)
	}
	mailer := notification.NewMailer(sender)

	var (
		publisher notification.Publisher
		workers   []func(context.Context) error
	)
	if brokers := cfg.Brokers(); len(brokers) > 0 {
		kp := notification.NewKafkaPublisher(notification.NewKafkaWriter(brokers, cfg.KafkaNotifyTopic))
		defer kp.Close()
		publisher = kp
		consumer := notification.NewKafkaConsumer(
			notification.NewKafkaReader(brokers, cfg.KafkaNotifyTopic, cfg.KafkaGroupID), mailer, log)
		workers = append(workers, consumer.Run)
		log.Info().Strs("brokers", brokers).Msg("notifications routed through kafka")
	} else {
		queue := notification.NewChannelPublisher(256, log)
		publisher = queue
		workers = append(workers, func(ctx context.Context) error { return queue.Run(ctx, mailer) })
	}

	// ── Accounts & access ────────────────────────────────────
	userRepo := user.NewPostgresRepository(db)
	staffRepo := staff.NewPostgresRepository(db)

	authService := auth.NewService(auth.Config{
		BaseURL:     cfg.APIURL,
		AccessTTL:   cfg.AccessTokenTTL,
		VerifyTTL:   cfg.VerifyTokenTTL,
		DeletionTTL: cfg.DeletionTokenTTL,
	}, auth.NewTokenMaker(cfg.JWTSecret), revoked, userRepo, staffRepo, publisher)
	guard := access.NewGuard(authService, auth.NewResolver(userRepo, staffRepo))

	// ── Router ───────────────────────────────────────────────
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(web.RequestLogger(log))
	router.Use(middleware.Recoverer)
	router.NotFound(web.NotFound)
	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		web.OK(w, http.StatusOK, web.M{"msg": "Welcome to ShopPortable API"})
	})

	userService := user.NewService(userRepo)
	staffService := staff.NewService(staffRepo)
	addressService := address.NewService(address.NewPostgresRepository(db))
	catalogService := catalog.NewService(catalog.NewPostgresRepository(db))
	imageService := profileimage.NewService(profileimage.NewPostgresRepository(db))
	orderService := order.NewService(order.NewPostgresRepository(db), addressService, staffService, publisher)

	auth.NewHandler(authService, guard).RegisterRoutes(router)
	user.NewHandler(userService, guard).RegisterRoutes(router)
	staff.NewHandler(staffService, guard).RegisterRoutes(router)
	address.NewHandler(addressService, guard).RegisterRoutes(router)
	catalog.NewHandler(catalogService, guard).RegisterRoutes(router)
	profileimage.NewHandler(imageService, staffService, guard).RegisterRoutes(router)
	order.NewHandler(orderService, guard).RegisterRoutes(router)

	// ── Server ───────────────────────────────────────────────
	ln, err := net.Listen("tcp", ":"+cfg.Port)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return serve(ctx, log, srv, ln, workers...)
}

// serve runs srv on ln together with the background workers until ctx is
// canceled or one of them fails. Workers keep running until in-flight
// requests have finished, so events those requests publish are still
// delivered.
func serve(ctx context.Context, log zerolog.Logger, srv *http.Server, ln net.Listener, workers ...func(context.Context) error) error {
	workCtx, stopWorkers := context.WithCancel(context.WithoutCancel(ctx))
	defer stopWorkers()

	g, gctx := errgroup.WithContext(ctx)
	for _, run := range workers {
		run := run
		g.Go(func() error { return run(workCtx) })
	}
	g.Go(func() error {
		log.Info().Str("addr", ln.Addr().String()).Msg("ShopPortable API server starting")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		defer stopWorkers()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info().Msg("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
