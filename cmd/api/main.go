package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tableorder/internal/config"
	"tableorder/internal/handler"
	"tableorder/internal/infra/cache"
	"tableorder/internal/infra/db"
	"tableorder/internal/infra/events"
	"tableorder/internal/infra/notify"
	"tableorder/internal/infra/payment"
	"tableorder/internal/infra/qrcode"
	infraRepo "tableorder/internal/infra/repository"
	"tableorder/internal/infra/storage"
	"tableorder/internal/logger"
	"tableorder/internal/server"
	"tableorder/internal/usecase"
	auth "tableorder/internal/usecase/auth_usecase"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const usage = `usage:
  api                                          start the HTTP server
  api migrate                                  apply database migrations
  api create-owner <restaurant> <email> <password>  create a restaurant and its owner`

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	args := os.Args[1:]
	cmd := ""
	if len(args) > 0 {
		cmd = args[0]
	}

	switch cmd {
	case "":
		err = serve(ctx, cfg, log)
	case "migrate":
		err = db.RunMigrations(cfg.DSN(), log)
	case "create-owner":
		if len(args) != 4 {
			fmt.Fprintln(os.Stderr, usage)
			os.Exit(2)
		}
		err = createOwner(ctx, cfg, log, args[1], args[2], args[3])
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	if err != nil {
		log.Error("exit", zap.String("command", cmd), zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
}

func createOwner(ctx context.Context, cfg config.Config, log *zap.Logger, restaurant, email, password string) error {
	gormDB, err := db.Connect(cfg, log)
	if err != nil {
		return err
	}

	uc := auth.NewCreateOwnerUsecase(infraRepo.NewTxManagerGorm(gormDB), auth.NewBcryptPasswordHasher(12))
	out, err := uc.Execute(ctx, auth.CreateOwnerInput{RestaurantName: restaurant, Email: email, Password: password})
	if err != nil {
		return err
	}

	log.Info("owner created",
		zap.String("restaurant_id", out.Restaurant.ID),
		zap.String("staff_id", out.Owner.ID),
		zap.String("email", out.Owner.Email))
	return nil
}

func serve(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	if cfg.AutoMigrate {
		if err := db.RunMigrations(cfg.DSN(), log); err != nil {
			return err
		}
	}

	//DB接続
	gormDB, err := db.Connect(cfg, log)
	if err != nil {
		return err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	//Repository（GORM実装）生成
	txm := infraRepo.NewTxManagerGorm(gormDB)
	restaurantRepo := infraRepo.NewRestaurantGormRepository(gormDB)
	menuRepo := infraRepo.NewMenuGormRepository(gormDB)
	categoryRepo := infraRepo.NewMenuCategoryGormRepository(gormDB)
	menuItemRepo := infraRepo.NewMenuItemGormRepository(gormDB)
	cartRepo := infraRepo.NewCartGormRepository(gormDB)
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	orderItemRepo := infraRepo.NewOrderItemGormRepository(gormDB)
	paymentRepo := infraRepo.NewPaymentGormRepository(gormDB)
	feedbackRepo := infraRepo.NewFeedbackGormRepository(gormDB)
	staffRepo := infraRepo.NewStaffUserGormRepository(gormDB)
	auditLogRepo := infraRepo.NewAuditLogGormRepository(gormDB)

	//外部サービス（未設定なら無効）
	cartStore, closeRedis := newCartStore(ctx, cfg, log)
	defer closeRedis()

	orderEvents, closeEvents := newOrderEvents(cfg, restaurantRepo, log)
	defer closeEvents()

	images := newImageStore(ctx, cfg, log)

	if cfg.StripeSecretKey == "" {
		log.Warn("STRIPE_SECRET_KEY not set; checkout calls will fail")
	}
	gateway := payment.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeWebhookSecret, log)

	//Usecase生成
	cartUC := usecase.NewCartUsecase(txm, cartRepo, menuRepo, menuItemRepo, cartStore, cartStore, cfg.TaxRate, log)
	orderUC := usecase.NewOrderUsecase(txm, orderRepo, orderItemRepo, cartStore, cartStore, orderEvents, gateway, cfg.TaxRate, log)
	checkoutUC := usecase.NewCheckoutUsecase(txm, cartRepo, paymentRepo, gateway, cartStore, cartStore, orderEvents,
		usecase.CheckoutConfig{Currency: cfg.Currency, TaxRate: cfg.TaxRate, FEURL: cfg.FEURL}, log)
	feedbackUC := usecase.NewFeedbackUsecase(feedbackRepo, restaurantRepo)
	menuUC := usecase.NewMenuUsecase(restaurantRepo, menuRepo, categoryRepo, menuItemRepo, qrcode.NewEncoder(), cfg.FEURL, cfg.PublicBaseURL)
	adminMenuUC := usecase.NewAdminMenuUsecase(txm, menuRepo, categoryRepo, menuItemRepo, images)
	adminOrderUC := usecase.NewAdminOrderUsecase(txm, orderRepo, orderItemRepo, orderEvents, log)
	auditLogUC := usecase.NewAuditLogUsecase(auditLogRepo)
	loginUC := auth.NewLoginUsecase(staffRepo, auth.NewBcryptPasswordVerifier(), auth.NewJWTIssuer(cfg.JWTSecret, cfg.JWTAccessTTL), auth.SystemClock{})

	//Handler生成
	e := server.New(cfg, log)
	server.RegisterRoutes(e, server.Handlers{
		Health:     handler.NewHealthHandler(sqlDB),
		Menu:       handler.NewMenuHandler(menuUC),
		Cart:       handler.NewCartHandler(cartUC),
		CartWS:     handler.NewCartWSHandler(cartUC, cartStore, cfg.FEURL, log),
		Order:      handler.NewOrderHandler(orderUC),
		Checkout:   handler.NewCheckoutHandler(checkoutUC, log),
		Feedback:   handler.NewFeedbackHandler(feedbackUC),
		Auth:       handler.NewAuthHandler(loginUC),
		AdminMenu:  handler.NewAdminMenuHandler(adminMenuUC),
		AdminOrder: handler.NewAdminOrderHandler(adminOrderUC),
		AuditLog:   handler.NewAuditLogHandler(auditLogUC),
	}, cfg.JWTSecret, staffRepo)

	//Server起動
	return server.Start(ctx, e, ":"+cfg.Port, log)
}

// カートスナップショット兼pub/sub用のstore
type cartStore interface {
	usecase.CartCache
	usecase.CartNotifier
	usecase.CartSubscriber
}

func newCartStore(ctx context.Context, cfg config.Config, log *zap.Logger) (cartStore, func()) {
	if cfg.RedisAddr == "" {
		log.Warn("REDIS_ADDR not set; cart snapshots and live sync disabled")
		return cache.NopCartStore{}, func() {}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		// DBが正なので起動は続ける
		log.Warn("redis ping failed", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	}
	return cache.NewCartStore(client, cfg.CartSnapshotTTL), func() { _ = client.Close() }
}

func newOrderEvents(cfg config.Config, restaurants *infraRepo.RestaurantGormRepository, log *zap.Logger) (usecase.OrderEventPublisher, func()) {
	var pubs events.MultiPublisher
	var closers []func()

	if cfg.AMQPURL != "" {
		conn, err := amqp.Dial(cfg.AMQPURL)
		if err != nil {
			log.Warn("amqp dial failed; order events disabled", zap.Error(err))
		} else {
			p, err := events.NewAMQPPublisher(conn)
			if err != nil {
				log.Warn("amqp publisher failed; order events disabled", zap.Error(err))
				_ = conn.Close()
			} else {
				pubs = append(pubs, p)
				closers = append(closers, func() { _ = p.Close(); _ = conn.Close() })
			}
		}
	}

	if cfg.TelegramBotToken != "" {
		n, err := notify.NewKitchenNotifier(cfg.TelegramBotToken, restaurants, log)
		if err != nil {
			log.Warn("telegram bot failed; kitchen notifications disabled", zap.Error(err))
		} else {
			pubs = append(pubs, n)
		}
	}

	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}
	if len(pubs) == 0 {
		return events.NopPublisher{}, closeAll
	}
	return pubs, closeAll
}

func newImageStore(ctx context.Context, cfg config.Config, log *zap.Logger) usecase.ImageStore {
	if cfg.MinioEndpoint == "" {
		log.Warn("MINIO_ENDPOINT not set; image upload disabled")
		return disabledImageStore{}
	}
	s, err := storage.NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
	if err != nil {
		log.Warn("minio client failed; image upload disabled", zap.Error(err))
		return disabledImageStore{}
	}
	if err := s.EnsureBucket(ctx); err != nil {
		log.Warn("minio bucket check failed", zap.String("bucket", cfg.MinioBucket), zap.Error(err))
	}
	return s
}

type disabledImageStore struct{}

func (disabledImageStore) Put(context.Context, string, io.Reader, int64, string) (string, error) {
	return "", errors.New("image storage not configured")
}
