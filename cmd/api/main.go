package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/isp-portal/internal/api/http"
	"github.com/spec-kit/isp-portal/internal/api/http/handlers"
	"github.com/spec-kit/isp-portal/internal/auth"
	"github.com/spec-kit/isp-portal/internal/config"
	"github.com/spec-kit/isp-portal/internal/domain"
	"github.com/spec-kit/isp-portal/internal/events"
	"github.com/spec-kit/isp-portal/internal/gateway"
	"github.com/spec-kit/isp-portal/internal/observability"
	"github.com/spec-kit/isp-portal/internal/persistence"
	"github.com/spec-kit/isp-portal/internal/repository"
	"github.com/spec-kit/isp-portal/internal/routerapi"
	"github.com/spec-kit/isp-portal/internal/scheduler"
	"github.com/spec-kit/isp-portal/internal/service"
	"github.com/spec-kit/isp-portal/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	locks := redsync.New(goredis.NewPool(redis.Client))

	queue := worker.NewQueue(cfg.Worker.QueueSize, cfg.Worker.Workers, 30*time.Second, logger, metrics)
	queue.Start(ctx)

	pool := pg.PoolHandle()
	ticketRepo := repository.NewTicketRepository(pool)
	replyRepo := repository.NewTicketReplyRepository(pool)
	customerRepo := repository.NewCustomerRepository(pool)
	employeeRepo := repository.NewEmployeeRepository(pool)
	companyRepo := repository.NewCompanyRepository(pool)
	planRepo := repository.NewPlanRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)
	invoiceRepo := repository.NewInvoiceRepository(pool)
	productRepo := repository.NewProductRepository(pool)
	productOrderRepo := repository.NewProductOrderRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)

	notificationService := service.NewNotificationService(service.NotificationDependencies{
		NotificationRepo: notificationRepo,
		EmployeeRepo:     employeeRepo,
		CustomerRepo:     customerRepo,
		Dispatcher:       dispatcher,
		Queue:            queue,
		Mailer:           service.NewLogMailer(logger),
		Logger:           logger,
		Config:           cfg.Notification,
	})
	notificationService.RegisterHandlers()

	slaService := service.NewSLAService(service.SLADependencies{
		TicketRepo:  ticketRepo,
		CompanyRepo: companyRepo,
		Dispatcher:  dispatcher,
		Metrics:     metrics,
		Logger:      logger,
	})
	assignmentService := service.NewAssignmentService(service.AssignmentDependencies{
		EmployeeRepo: employeeRepo,
		TicketRepo:   ticketRepo,
		Logger:       logger,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:   ticketRepo,
		ReplyRepo:    replyRepo,
		CustomerRepo: customerRepo,
		EmployeeRepo: employeeRepo,
		SLA:          slaService,
		Assignment:   assignmentService,
		Dispatcher:   dispatcher,
	})

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		CustomerRepo: customerRepo,
		EmployeeRepo: employeeRepo,
	})
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), customerRepo, employeeRepo)

	cartService := service.NewCartService(redis.Client, cfg.Shop)

	hosted := gateway.NewShurjoPayClient(cfg.GatewayA, logger)
	mockCheckoutURL := cfg.App.AbsoluteURL(cfg.GatewayB.MockCheckoutPath)
	gatewayBTimeout := time.Duration(cfg.GatewayB.TimeoutSeconds) * time.Second
	tokenized := service.TokenizedCheckoutFactory(func(creds domain.GatewayBCredentials) service.TokenizedCheckout {
		return gateway.NewBkashClient(creds, mockCheckoutURL, gatewayBTimeout, logger)
	})
	courier := gateway.NewCourierClient(cfg.Courier, logger)

	checkoutService := service.NewCheckoutService(service.CheckoutDependencies{
		OrderRepo:        orderRepo,
		ProductOrderRepo: productOrderRepo,
		ProductRepo:      productRepo,
		PlanRepo:         planRepo,
		InvoiceRepo:      invoiceRepo,
		CompanyRepo:      companyRepo,
		Cart:             cartService,
		Hosted:           hosted,
		Tokenized:        tokenized,
		Courier:          courier,
		Notifier:         notificationService,
		AppConfig:        cfg.App,
		GatewayAConfig:   cfg.GatewayA,
		GatewayBConfig:   cfg.GatewayB,
		ShopConfig:       cfg.Shop,
		Logger:           logger,
	})

	reactivationService := service.NewReactivationService(service.ReactivationDependencies{
		CustomerRepo: customerRepo,
		CompanyRepo:  companyRepo,
		Router:       routerapi.NewLogClient(logger),
		Notifier:     notificationService,
		Config:       cfg.Router,
		Logger:       logger,
	})

	reconcilerService := service.NewReconcilerService(service.ReconcilerDependencies{
		OrderRepo:        orderRepo,
		ProductOrderRepo: productOrderRepo,
		InvoiceRepo:      invoiceRepo,
		ProductRepo:      productRepo,
		CompanyRepo:      companyRepo,
		Verifier:         hosted,
		Tokenized:        tokenized,
		Reactivation:     reactivationService,
		Notifier:         notificationService,
		Dispatcher:       dispatcher,
		Locks:            locks,
		Queue:            queue,
		Metrics:          metrics,
		Logger:           logger,
	})

	sweeper, err := scheduler.New(cfg.Scheduler, slaService, logger)
	if err != nil {
		logger.Fatal("failed to build scheduler", zap.Error(err))
	}
	sweeper.Start()

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		StaffTickets:   handlers.NewStaffTicketsHandler(ticketService),
		Orders:         handlers.NewOrdersHandler(checkoutService),
		Shop:           handlers.NewShopHandler(checkoutService, cartService),
		Invoices:       handlers.NewInvoicesHandler(checkoutService),
		Payments:       handlers.NewPaymentsHandler(reconcilerService, cfg.App, cfg.GatewayB),
		Notifications:  handlers.NewNotificationsHandler(notificationService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
	sweeper.Stop()
	queue.Stop()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
