package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/market-backend/internal/config"
	"github.com/ignatzorin/market-backend/internal/db"
	"github.com/ignatzorin/market-backend/internal/goroutine"
	"github.com/ignatzorin/market-backend/internal/http/middleware"
	httpRouter "github.com/ignatzorin/market-backend/internal/http/router"
	"github.com/ignatzorin/market-backend/internal/infrastructure/checkout"
	"github.com/ignatzorin/market-backend/internal/infrastructure/events"
	"github.com/ignatzorin/market-backend/internal/infrastructure/persistence"
	"github.com/ignatzorin/market-backend/internal/interface/http/handler"
	"github.com/ignatzorin/market-backend/internal/invalidation"
	"github.com/ignatzorin/market-backend/internal/logger"
	"github.com/ignatzorin/market-backend/internal/service"
	"github.com/ignatzorin/market-backend/internal/storage"
	"github.com/ignatzorin/market-backend/internal/usecase/conversation"
	"github.com/ignatzorin/market-backend/internal/usecase/job"
	"github.com/ignatzorin/market-backend/internal/usecase/listing"
	"github.com/ignatzorin/market-backend/internal/usecase/media"
	"github.com/ignatzorin/market-backend/internal/usecase/order"
	"github.com/ignatzorin/market-backend/internal/usecase/payment"
	"github.com/ignatzorin/market-backend/internal/usecase/profile"
	"github.com/ignatzorin/market-backend/internal/usecase/review"
	"github.com/ignatzorin/market-backend/internal/usecase/wallet"
	"github.com/ignatzorin/market-backend/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}
	logger.Init(cfg.LogLevel, cfg.Env)

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL, db.PoolConfig{
		MaxOpenConns: cfg.DBMaxOpenConns,
		MaxIdleConns: cfg.DBMaxIdleConns,
	})
	if err != nil {
		logger.Log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		logger.Log.Fatalf("main: ошибка миграций: %v", err)
	}

	// Репозитории.
	tx := persistence.NewTransactor(dbConn)
	listingRepo := persistence.NewListingRepository(dbConn)
	jobRepo := persistence.NewJobRepository(dbConn)
	bidRepo := persistence.NewBidRepository(dbConn)
	orderRepo := persistence.NewOrderRepository(dbConn)
	reviewRepo := persistence.NewReviewRepository(dbConn)
	profileRepo := persistence.NewProfileRepository(dbConn)
	userRepo := persistence.NewUserRepository(dbConn)
	sessionRepo := persistence.NewSessionRepository(dbConn)
	walletRepo := persistence.NewWalletRepository(dbConn)
	convRepo := persistence.NewConversationRepository(dbConn)
	msgRepo := persistence.NewMessageRepository(dbConn)

	// Вспомогательные сервисы.
	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.RefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	authService := service.NewAuthService(userRepo, sessionRepo, profileRepo, tokenManager)
	resolver := middleware.NewActorResolver(tokenManager, profileRepo, cfg.AdminUserID)

	hub := ws.NewHub(ctx)
	goroutine.SafeGo("ws-hub", hub.Run)

	viewCache := service.NewCacheService(time.Minute)
	defer viewCache.Close()

	// Шина событий необязательна: без брокеров сигналы идут только в кэш и websocket.
	var publisher invalidation.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer func() {
			if err := kafkaPublisher.Close(); err != nil {
				logger.Log.WithError(err).Warn("main: ошибка закрытия kafka writer")
			}
		}()
		publisher = kafkaPublisher
	}
	notifier := invalidation.NewDispatcher(viewCache, hub, publisher)

	objectStorage, err := newObjectStorage(ctx, cfg)
	if err != nil {
		logger.Log.Fatalf("main: ошибка инициализации хранилища: %v", err)
	}

	gateway := checkout.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
	checkoutURLs := payment.URLs{SuccessURL: cfg.CheckoutSuccessURL(), CancelURL: cfg.CheckoutCancelURL()}

	// Обработчики.
	handlers := httpRouter.Handlers{
		Auth: handler.NewAuthHandler(authService),
		Profile: handler.NewProfileHandler(
			profile.NewGetMeUseCase(profileRepo, userRepo),
			profile.NewUpdateMeUseCase(profileRepo, notifier),
			profile.NewChooseRoleUseCase(profileRepo, notifier),
			profile.NewGetPublicProfileUseCase(profileRepo, reviewRepo),
			review.NewListUserReviewsUseCase(reviewRepo),
		),
		Listing: handler.NewListingHandler(
			listing.NewCreateListingUseCase(listingRepo, notifier),
			listing.NewUpdateListingUseCase(listingRepo, notifier),
			listing.NewGetListingUseCase(listingRepo),
			listing.NewListListingsUseCase(listingRepo),
			listing.NewListMyListingsUseCase(listingRepo),
			listing.NewModerateListingUseCase(listingRepo, notifier),
			listing.NewDeleteListingUseCase(listingRepo, notifier),
		),
		Job: handler.NewJobHandler(handler.JobUseCases{
			Create:         job.NewCreateJobUseCase(jobRepo, notifier),
			Get:            job.NewGetJobUseCase(jobRepo),
			List:           job.NewListJobsUseCase(jobRepo),
			ListMine:       job.NewListMyJobsUseCase(jobRepo),
			Cancel:         job.NewCancelJobUseCase(tx, jobRepo, notifier),
			PlaceBid:       job.NewPlaceBidUseCase(jobRepo, bidRepo, notifier),
			ListBids:       job.NewListBidsUseCase(jobRepo, bidRepo),
			ListMyBids:     job.NewListMyBidsUseCase(bidRepo),
			AcceptBid:      job.NewAcceptBidUseCase(tx, jobRepo, bidRepo, notifier),
			SubmitDelivery: job.NewSubmitJobDeliveryUseCase(tx, jobRepo, orderRepo, notifier),
			ReviewDelivery: job.NewReviewJobDeliveryUseCase(tx, jobRepo, orderRepo, notifier),
			HireCheckout:   payment.NewCreateHireCheckoutUseCase(jobRepo, bidRepo, orderRepo, gateway, checkoutURLs, notifier),
		}),
		Order: handler.NewOrderHandler(
			order.NewCreateOrderUseCase(listingRepo, orderRepo, notifier),
			order.NewGetOrderUseCase(orderRepo, listingRepo, jobRepo),
			order.NewListMyOrdersUseCase(orderRepo),
			payment.NewCreateOrderCheckoutUseCase(orderRepo, gateway, checkoutURLs),
			order.NewSubmitDeliveryUseCase(tx, orderRepo, notifier),
			order.NewApproveOrderUseCase(tx, orderRepo, notifier),
			order.NewRequestChangesUseCase(tx, orderRepo, notifier),
			order.NewCancelOrderUseCase(tx, orderRepo, notifier),
		),
		Review: handler.NewReviewHandler(review.NewSubmitReviewUseCase(reviewRepo, orderRepo, jobRepo, notifier)),
		Wallet: handler.NewWalletHandler(
			wallet.NewGetWalletUseCase(walletRepo),
			wallet.NewDepositUseCase(tx, walletRepo, notifier),
			wallet.NewWithdrawUseCase(tx, walletRepo, notifier),
			wallet.NewListTransactionsUseCase(walletRepo),
		),
		Conversation: handler.NewConversationHandler(
			conversation.NewGetOrCreateConversationUseCase(convRepo, profileRepo),
			conversation.NewListMyConversationsUseCase(convRepo),
			conversation.NewListMessagesUseCase(convRepo, msgRepo),
			conversation.NewSendMessageUseCase(convRepo, msgRepo, jobRepo, hub, notifier),
			conversation.NewRespondOfferUseCase(tx, convRepo, msgRepo, jobRepo, hub, notifier),
		),
		Media:   handler.NewMediaHandler(media.NewUploadUseCase(objectStorage, cfg.MaxUploadSizeMB)),
		Payment: handler.NewPaymentHandler(payment.NewHandleWebhookUseCase(tx, orderRepo, jobRepo, bidRepo, gateway, notifier)),
		WS:      handler.NewWSHandler(hub, resolver, cfg.AllowedOrigins),
		Health:  handler.NewHealthHandler(dbConn),
	}

	engine := httpRouter.SetupRouter(cfg, handlers, resolver, viewCache)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Log.Errorf("main: ошибка остановки http сервера: %v", err)
		}
	}()

	logger.Log.Infof("main: HTTP сервер запущен на порту %s", cfg.HTTPPort)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// newObjectStorage S3 при заданном бакете, иначе локальный диск.
func newObjectStorage(ctx context.Context, cfg *config.Config) (storage.ObjectStorage, error) {
	if cfg.S3.Bucket == "" {
		return storage.NewLocalStorage(cfg.MediaStoragePath, cfg.MediaBaseURL)
	}
	return storage.NewS3Storage(ctx, storage.S3Config{
		Bucket:          cfg.S3.Bucket,
		Region:          cfg.S3.Region,
		Endpoint:        cfg.S3.Endpoint,
		AccessKeyID:     cfg.S3.AccessKeyID,
		SecretAccessKey: cfg.S3.SecretAccessKey,
		PublicURL:       cfg.S3.PublicURL,
	})
}

func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		logger.Log.Errorf("main: ошибка закрытия базы: %v", err)
	}
}
