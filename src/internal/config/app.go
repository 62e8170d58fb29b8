package config

import (
	"ledger-service/src/internal/delivery/http"
	"ledger-service/src/internal/delivery/http/middleware"
	"ledger-service/src/internal/delivery/http/route"
	"ledger-service/src/internal/gateway/messaging"
	"ledger-service/src/internal/repository"
	"ledger-service/src/internal/usecase"
	"ledger-service/src/pkg/databases/mysql"
	kafkaPkg "ledger-service/src/pkg/kafka"
	"ledger-service/src/pkg/log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
)

type BootstrapConfig struct {
	DB          mysql.DBInterface
	App         *fiber.App
	Log         log.Log
	Validate    *validator.Validate
	Config      *viper.Viper
	Producer    kafkaPkg.Producer
	Redis       redis.UniversalClient
	AsynqClient *asynq.Client
	Async       *asynq.ServeMux
}

func Bootstrap(config *BootstrapConfig) {
	// setup repositories
	walletRepository := repository.NewWalletRepository(config.DB)
	offerRepository := repository.NewOfferRepository(config.DB)
	orderRepository := repository.NewOrderRepository(config.DB)
	depositRepository := repository.NewDepositRepository(config.DB)
	retryRepository := repository.NewRetryRepository(config.DB)

	transactionProducer := messaging.NewTransactionProducer(config.Producer, config.Log)
	orderProducer := messaging.NewOrderProducer(config.Producer, config.Log)

	// setup use cases
	walletUseCase := usecase.NewWalletUseCase(
		config.Log,
		config.Validate,
		walletRepository,
		transactionProducer,
	)
	offerUseCase := usecase.NewOfferUseCase(
		config.Log,
		config.Validate,
		offerRepository,
		walletRepository,
	)
	orderUseCase := usecase.NewOrderUseCase(
		config.Log,
		config.Validate,
		orderRepository,
		offerRepository,
		walletRepository,
		orderProducer,
	)
	settlementUseCase := usecase.NewSettlementUseCase(
		config.Log,
		config.Config,
		walletRepository,
		depositRepository,
		retryRepository,
		config.Redis,
		config.AsynqClient,
		transactionProducer,
	)

	// setup controllers
	walletController := http.NewWalletController(walletUseCase, config.Log)
	offerController := http.NewOfferController(offerUseCase, config.Log)
	orderController := http.NewOrderController(orderUseCase, config.Log)
	webhookController := http.NewWebhookController(settlementUseCase, config.Log)

	authMiddleware := middleware.VerifyBearer(config.Config, config.Log)
	internalMiddleware := middleware.RequireInternal(config.Log)

	if config.Async != nil {
		config.Async.HandleFunc(usecase.TaskTypeSettlementRetry, settlementUseCase.HandleRetryTask)
	}

	routeConfig := route.RouteConfig{
		App:                config.App,
		WalletController:   walletController,
		OfferController:    offerController,
		OrderController:    orderController,
		WebhookController:  webhookController,
		AuthMiddleware:     authMiddleware,
		InternalMiddleware: internalMiddleware,
	}
	routeConfig.Setup()
}
