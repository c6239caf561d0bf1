package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/gig-marketplace/internal/config"
	"github.com/ignatzorin/gig-marketplace/internal/db"
	"github.com/ignatzorin/gig-marketplace/internal/domain/valueobject"
	"github.com/ignatzorin/gig-marketplace/internal/goroutine"
	httpHandlers "github.com/ignatzorin/gig-marketplace/internal/http/handlers"
	httpRouter "github.com/ignatzorin/gig-marketplace/internal/http/router"
	"github.com/ignatzorin/gig-marketplace/internal/logger"
	"github.com/ignatzorin/gig-marketplace/internal/payment"
	"github.com/ignatzorin/gig-marketplace/internal/repository"
	"github.com/ignatzorin/gig-marketplace/internal/scheduler"
	"github.com/ignatzorin/gig-marketplace/internal/service"
	"github.com/ignatzorin/gig-marketplace/internal/storage"
	"github.com/ignatzorin/gig-marketplace/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	logger.Init(cfg.LogLevel)
	if cfg.IsDevelopment() {
		logger.SetTextFormatter()
	}
	mainLog := logger.Component("main")

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		mainLog.WithError(err).Fatal("ошибка подключения к базе")
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(dbConn); err != nil {
		mainLog.WithError(err).Fatal("ошибка миграций")
	}

	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL)
	cache := service.NewCacheService(time.Minute)
	defer cache.Stop()

	pricing := valueobject.Pricing{FeePercent: cfg.PlatformFeePercent, INRToUSD: cfg.INRToUSDRate}

	gateway, err := newGateway(cfg)
	if err != nil {
		mainLog.WithError(err).Fatal("платёжный шлюз")
	}

	// Хранилище файлов: GCS, если задан бакет, иначе локальный диск.
	var (
		fileStore storage.FileStore
		mediaRoot string
	)
	if cfg.GCSBucket != "" {
		gcs, err := storage.NewGCSStore(ctx, cfg.GCSBucket, cfg.MaxUploadSizeMB)
		if err != nil {
			mainLog.WithError(err).Fatal("не удалось подключить GCS")
		}
		defer func() {
			if err := gcs.Close(); err != nil {
				mainLog.WithError(err).Warn("ошибка закрытия GCS клиента")
			}
		}()
		fileStore = gcs
	} else {
		local, err := storage.NewLocalStore(cfg.MediaStoragePath, cfg.MediaPublicURL, cfg.MaxUploadSizeMB)
		if err != nil {
			mainLog.WithError(err).Fatal("не удалось подготовить файловое хранилище")
		}
		fileStore = local
		mediaRoot = local.Root()
	}
	uploader := storage.NewUploader(fileStore, cfg.MaxUploadSizeMB)

	// Репозитории.
	userRepo := repository.NewUserRepository(dbConn)
	gigRepo := repository.NewGigRepository(dbConn)
	reviewRepo := repository.NewReviewRepository(dbConn)
	savedGigRepo := repository.NewSavedGigRepository(dbConn)
	orderRepo := repository.NewOrderRepository(dbConn)
	paymentRepo := repository.NewPaymentRepository(dbConn)
	withdrawalRepo := repository.NewWithdrawalRepository(dbConn)
	disputeRepo := repository.NewDisputeRepository(dbConn)
	payoutRepo := repository.NewPayoutMethodRepository(dbConn)
	conversationRepo := repository.NewConversationRepository(dbConn)
	messageRepo := repository.NewMessageRepository(dbConn)
	notificationRepo := repository.NewNotificationRepository(dbConn)

	// Вебсокеты и межсерверный мост.
	hub := ws.NewHub(ctx)
	goroutine.SafeGo(hub.Run)

	healthChecks := map[string]httpHandlers.Pinger{"database": dbConn}
	var bridge *ws.RedisBridge
	if cfg.RedisURL != "" {
		bridge, err = ws.NewRedisBridge(ctx, cfg.RedisURL, ws.DefaultBridgeChannel, hub)
		if err != nil {
			mainLog.WithError(err).Fatal("не удалось подключить redis")
		}
		if err := bridge.Start(ctx); err != nil {
			mainLog.WithError(err).Fatal("не удалось подписаться на канал redis")
		}
		goroutine.SafeGo(bridge.Run)
		healthChecks["redis"] = bridge
	}

	// Сервисы.
	authService := service.NewAuthService(userRepo, tokenManager)
	notificationService := service.NewNotificationService(notificationRepo, hub)
	userService := service.NewUserService(userRepo, orderRepo, reviewRepo, gigRepo)
	gigService := service.NewGigService(gigRepo, uploader, cache)
	reviewService := service.NewReviewService(reviewRepo, gigRepo, userRepo, notificationService, cache)
	savedGigService := service.NewSavedGigService(savedGigRepo, gigRepo)
	payoutService := service.NewPayoutService(payoutRepo)
	chatService := service.NewChatService(service.ChatDeps{
		Conversations: conversationRepo,
		Messages:      messageRepo,
		Users:         userRepo,
		Orders:        orderRepo,
		Gigs:          gigRepo,
		Notifier:      notificationService,
		Uploader:      uploader,
		Broadcaster:   hub,
	})
	escrow := service.NewEscrow(gateway, userRepo, pricing)
	orderService := service.NewOrderService(service.OrderDeps{
		Orders:       orderRepo,
		Gigs:         gigRepo,
		Users:        userRepo,
		Chat:         chatService,
		Notifier:     notificationService,
		Escrow:       escrow,
		Uploader:     uploader,
		Broadcaster:  hub,
		Cache:        cache,
		Pricing:      pricing,
		MaxRevisions: cfg.DefaultMaxRevisions,
		MaxFiles:     cfg.MaxUploadFiles,
	})
	paymentService := service.NewPaymentService(service.PaymentDeps{
		Orders:           orderRepo,
		Reports:          paymentRepo,
		Withdrawals:      withdrawalRepo,
		Disputes:         disputeRepo,
		Users:            userRepo,
		Gateway:          gateway,
		Escrow:           escrow,
		Chat:             chatService,
		Notifier:         notificationService,
		Broadcaster:      hub,
		Cache:            cache,
		Pricing:          pricing,
		AutoReleaseAfter: cfg.AutoReleaseAfter,
	})

	hub.SetAuthorizer(roomAuthorizer{orders: orderService, chat: chatService})

	// Фоновые задачи.
	jobs, err := scheduler.New(scheduler.Config{
		AutoReleaseSchedule: cfg.AutoReleaseSchedule,
		AutoReleaseAfter:    paymentService.AutoReleaseAfter(),
		CleanupSchedule:     cfg.CleanupSchedule,
		NotificationTTL:     cfg.NotificationTTL,
	}, paymentService, notificationService)
	if err != nil {
		mainLog.WithError(err).Fatal("не удалось настроить планировщик")
	}
	jobs.Start()

	// HTTP хэндлеры.
	handlers := httpRouter.Handlers{
		Auth:          httpHandlers.NewAuthHandler(authService),
		Profile:       httpHandlers.NewProfileHandler(userService),
		Gig:           httpHandlers.NewGigHandler(gigService),
		Review:        httpHandlers.NewReviewHandler(reviewService),
		SavedGig:      httpHandlers.NewSavedGigHandler(savedGigService),
		Order:         httpHandlers.NewOrderHandler(orderService),
		Stats:         httpHandlers.NewStatsHandler(orderService, paymentService),
		Payment:       httpHandlers.NewPaymentHandler(paymentService),
		Withdrawal:    httpHandlers.NewWithdrawalHandler(paymentService),
		Dispute:       httpHandlers.NewDisputeHandler(paymentService),
		PayoutMethod:  httpHandlers.NewPayoutMethodHandler(payoutService),
		Conversation:  httpHandlers.NewConversationHandler(chatService),
		Notification:  httpHandlers.NewNotificationHandler(notificationService),
		WS:            httpHandlers.NewWSHandler(hub, tokenManager, wsOrigins(cfg)),
		Health:        httpHandlers.NewHealthHandler(healthChecks),
		MediaRootPath: mediaRoot,
	}
	if cfg.IsDevelopment() {
		handlers.Dev = httpHandlers.NewDevHandler(orderService)
	}

	engine := httpRouter.SetupRouter(cfg, handlers, tokenManager)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			mainLog.WithError(err).Warn("ошибка остановки http сервера")
		}
		if err := jobs.Stop(shutdownCtx); err != nil {
			mainLog.WithError(err).Warn("планировщик не успел завершить задачи")
		}
		if bridge != nil {
			if err := bridge.Close(); err != nil {
				mainLog.WithError(err).Warn("ошибка закрытия redis моста")
			}
		}
		hub.Stop()
	}()

	mainLog.WithField("port", cfg.HTTPPort).WithField("env", cfg.Env).Info("HTTP сервер запущен")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		mainLog.WithError(err).Fatal("сервер завершился с ошибкой")
	}
	mainLog.Info("сервер остановлен")
}

func newGateway(cfg *config.Config) (payment.Gateway, error) {
	switch cfg.PaymentProvider {
	case config.PaymentProviderStripe:
		return payment.NewStripeGateway(cfg.StripeSecretKey), nil
	case config.PaymentProviderSandbox:
		return payment.NewSandboxGateway(), nil
	default:
		return nil, errors.New("неизвестный платёжный провайдер " + cfg.PaymentProvider)
	}
}

// wsOrigins в режиме разработки разрешает любой Origin, как и CORS.
func wsOrigins(cfg *config.Config) []string {
	if cfg.IsDevelopment() {
		return nil
	}
	return cfg.AllowedOrigins
}

// roomAuthorizer объединяет проверки доступа к комнатам заказов и диалогов.
type roomAuthorizer struct {
	orders *service.OrderService
	chat   *service.ChatService
}

func (a roomAuthorizer) CanJoinOrder(ctx context.Context, userID, orderID uuid.UUID) (bool, error) {
	return a.orders.CanJoinOrder(ctx, userID, orderID)
}

func (a roomAuthorizer) CanJoinConversation(ctx context.Context, userID, conversationID uuid.UUID) (bool, error) {
	return a.chat.CanJoinConversation(ctx, userID, conversationID)
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("main: ошибка закрытия базы: %v", err)
	}
}
