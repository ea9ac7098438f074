package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/train-seat-reservation/internal/account"
	"github.com/iliyamo/train-seat-reservation/internal/booking"
	"github.com/iliyamo/train-seat-reservation/internal/clock"
	"github.com/iliyamo/train-seat-reservation/internal/config"
	"github.com/iliyamo/train-seat-reservation/internal/database"
	"github.com/iliyamo/train-seat-reservation/internal/handler"
	"github.com/iliyamo/train-seat-reservation/internal/logger"
	"github.com/iliyamo/train-seat-reservation/internal/middleware"
	"github.com/iliyamo/train-seat-reservation/internal/queue"
	"github.com/iliyamo/train-seat-reservation/internal/repository"
	"github.com/iliyamo/train-seat-reservation/internal/repository/memory"
	"github.com/iliyamo/train-seat-reservation/internal/repository/postgres"
	"github.com/iliyamo/train-seat-reservation/internal/router"
	"github.com/iliyamo/train-seat-reservation/internal/service"
)

// stores is what the selected driver provides to the rest of the server.
type stores struct {
	booking booking.Store
	users   account.Store
	holds   booking.HoldInspector
	ping    func(ctx context.Context) error
	close   func()
}

func openStores(ctx context.Context, cfg config.Config, log *zap.Logger) (stores, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		pool, err := database.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return stores{}, err
		}
		if err := database.MigratePostgres(ctx, pool); err != nil {
			pool.Close()
			return stores{}, err
		}
		s := postgres.NewStore(pool, cfg.Booking.LockWait)
		return stores{booking: s, users: s, ping: pool.Ping, close: pool.Close}, nil

	case config.DriverMemory:
		log.Warn("using in-memory store; data is lost on restart")
		s := memory.New(memory.WithLockWait(cfg.Booking.LockWait))
		return stores{booking: s, users: s, holds: s, close: func() {}}, nil

	default:
		dsn := database.MySQLDSN(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		db, err := database.OpenMySQL(ctx, dsn)
		if err != nil {
			return stores{}, err
		}
		if err := database.MigrateMySQL(ctx, db); err != nil {
			_ = db.Close()
			return stores{}, err
		}
		return stores{
			booking: repository.NewStore(db, cfg.Booking.LockWait),
			users:   repository.NewUserRepo(db),
			ping:    db.PingContext,
			close:   func() { _ = db.Close() },
		}, nil
	}
}

func main() {
	cfg, err := config.Load() // Load environment config
	if err != nil {
		panic(err)
	}
	log, err := logger.New(cfg.IsProd())
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Fatal("open store", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}
	defer st.close()

	// Redis backs rate limiting and the catalog cache; both pass through
	// without it.
	var rdb *redis.Client
	if cfg.RateLimit.Enabled || cfg.Cache.Enabled {
		rdb, err = config.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Warn("redis unavailable; rate limit and cache disabled", zap.Error(err))
			rdb = nil
		} else {
			defer func() { _ = rdb.Close() }()
		}
	}

	opts := []booking.CoordinatorOption{
		booking.WithMaxAttempts(cfg.Booking.MaxAttempts),
		booking.WithRetryBackoff(cfg.Booking.RetryBackoff),
		booking.WithTxTimeout(cfg.Booking.TxTimeout),
		booking.WithLogger(log),
	}
	if cfg.AMQPURL != "" {
		pub := service.NewPublisher(cfg.AMQPURL, log)
		defer func() { _ = pub.Close() }()
		opts = append(opts, booking.WithPublisher(pub))

		go func() {
			if err := queue.StartBookingConsumer(ctx, cfg.AMQPURL, cfg.BookingLog, log); err != nil {
				log.Error("booking consumer stopped", zap.Error(err))
			}
		}()
	}

	calc := booking.NewCalculator(st.booking, st.booking, log)
	coord := booking.NewCoordinator(st.booking, calc, clock.NewSystem(), opts...)
	query := booking.NewQueryService(st.booking)
	catalog := booking.NewCatalog(st.booking)
	accounts := account.NewService(st.users, cfg.JWTSecret, cfg.AccessTTL, cfg.BcryptCost)

	auditor := booking.NewAuditor(st.booking, calc, st.holds, cfg.Audit.Interval, cfg.Audit.HoldAlarm, log)
	go auditor.Run(ctx)

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{AllowOrigins: []string{"*"}}))
	e.Use(middleware.RequestLogger(log))

	router.RegisterRoutes(e, st.ping)
	router.RegisterAuth(e, handler.NewAuthHandler(accounts, cfg.AdminAPIKey, log), cfg.JWTSecret)
	router.RegisterTrains(e, handler.NewTrainHandler(catalog, calc, log), cfg.AdminAPIKey,
		middleware.NewRedisCache(cfg.Cache, rdb))
	router.RegisterBookings(e, handler.NewBookingHandler(coord, query, log), cfg.JWTSecret,
		middleware.NewTokenBucket(cfg.RateLimit, rdb, log))

	addr := ":" + cfg.Port
	go func() {
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env), zap.String("store", cfg.StoreDriver))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
}
