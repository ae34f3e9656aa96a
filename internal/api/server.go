package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/swinilab/orderflow/internal/config"
	"github.com/swinilab/orderflow/internal/database"
	"github.com/swinilab/orderflow/internal/handlers"
	"github.com/swinilab/orderflow/internal/models"
	"github.com/swinilab/orderflow/internal/outbox"
	"github.com/swinilab/orderflow/internal/repository"
	"github.com/swinilab/orderflow/internal/service"
	"github.com/swinilab/orderflow/pkg/kafka"
	"github.com/swinilab/orderflow/pkg/logger"
	"github.com/swinilab/orderflow/pkg/middleware"
	"github.com/swinilab/orderflow/pkg/retry"
)

// Server wires the fulfillment coordinator together: repositories over one
// database, the lifecycle services, the outbox relay and its dead letter
// processor, the Kafka consumer, and the HTTP surface.
type Server struct {
	config              *config.Config
	logger              logger.Logger
	router              *mux.Router
	httpServer          *http.Server
	db                  *database.Database
	dlqRepo             *repository.DeadLetterRepository
	catalogService      *service.CatalogService
	orderService        *service.OrderService
	invoiceService      *service.InvoiceService
	paymentService      *service.PaymentService
	reconService        *service.ReconciliationService
	outboxProcessor     *outbox.Processor
	deadLetterProcessor *outbox.DeadLetterProcessor
	kafkaProducer       *kafka.Producer
	kafkaConsumer       *kafka.Consumer
	sweepCancel         context.CancelFunc
	sweepWG             sync.WaitGroup
}

// NewServer creates a new API server with the given configuration and logger.
func NewServer(cfg *config.Config, log logger.Logger) (*Server, error) {
	db, err := database.New(cfg, log)

	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.RunMigrations(); err != nil {
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	customerRepo := repository.NewCustomerRepository(db, log)
	productRepo := repository.NewProductRepository(db, log)
	orderRepo := repository.NewOrderRepository(db, log)
	invoiceRepo := repository.NewInvoiceRepository(db, log)
	paymentRepo := repository.NewPaymentRepository(db, log)
	outboxRepo := repository.NewOutboxRepository(db, log)
	dlqRepo := repository.NewDeadLetterRepository(db, log)

	catalogService := service.NewCatalogService(customerRepo, productRepo, log)
	orderService := service.NewOrderService(db, orderRepo, productRepo, customerRepo, outboxRepo, log)
	invoiceService := service.NewInvoiceService(db, invoiceRepo, orderRepo, outboxRepo, log)
	paymentService := service.NewPaymentService(db, paymentRepo, invoiceRepo, outboxRepo, log)
	reconService := service.NewReconciliationService(db, paymentRepo, invoiceRepo, orderRepo, outboxRepo, log)

	// Without brokers the coordinator still runs: events are logged instead
	// of published, and the read side is absent.
	brokersConfigured := len(cfg.Kafka.Brokers) > 0 && cfg.Kafka.Brokers[0] != ""

	var kafkaProducer *kafka.Producer
	var eventHandler outbox.MessageHandler

	if brokersConfigured {
		producer, err := kafka.NewProducer(cfg.Kafka.Brokers, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
		}
		kafkaProducer = producer
		eventHandler = outbox.NewKafkaHandler(producer, cfg.Kafka.EventsTopic, log)
	} else {
		log.Warn("No Kafka brokers configured, fulfillment events will be logged only")
		eventHandler = outbox.NewLoggingHandler(log)
	}

	outboxProcessor := outbox.NewProcessor(outboxRepo, dlqRepo, outbox.ProcessorConfig{
		PollingInterval: cfg.Outbox.PollingInterval,
		BatchSize:       cfg.Outbox.BatchSize,
		MaxRetries:      cfg.Outbox.MaxRetries,
	}, log)

	deadLetterProcessor := outbox.NewDeadLetterProcessor(dlqRepo, log, &outbox.DeadLetterProcessorConfig{
		PollingInterval: 30 * time.Second,
		BatchSize:       5,
		MaxRetries:      5,
		BackoffStrategy: retry.NewDefaultExponentialBackoff(),
	})

	fulfillmentEvents := []string{
		models.EventOrderCreated,
		models.EventOrderStatusChanged,
		models.EventInvoiceCreated,
		models.EventInvoiceStatusChanged,
		models.EventPaymentCreated,
		models.EventPaymentStatusChanged,
	}

	for _, eventType := range fulfillmentEvents {
		outboxProcessor.RegisterHandler(eventType, eventHandler)
		deadLetterProcessor.RegisterHandler(eventType, eventHandler)
	}

	var kafkaConsumer *kafka.Consumer

	if brokersConfigured {
		consumer, err := kafka.NewConsumer(&kafka.ConsumerConfig{
			Brokers:       cfg.Kafka.Brokers,
			Topics:        []string{cfg.Kafka.EventsTopic},
			ConsumerGroup: cfg.Kafka.ConsumerGroup,
		}, log)

		if err != nil {
			return nil, fmt.Errorf("failed to create Kafka consumer: %w", err)
		}

		consumer.RegisterHandler(cfg.Kafka.EventsTopic, handlers.NewFulfillmentEventsHandler(log))
		kafkaConsumer = consumer
	}

	r := mux.NewRouter()

	server := &Server{
		config: cfg,
		logger: log,
		router: r,
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      r,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		db:                  db,
		dlqRepo:             dlqRepo,
		catalogService:      catalogService,
		orderService:        orderService,
		invoiceService:      invoiceService,
		paymentService:      paymentService,
		reconService:        reconService,
		outboxProcessor:     outboxProcessor,
		deadLetterProcessor: deadLetterProcessor,
		kafkaProducer:       kafkaProducer,
		kafkaConsumer:       kafkaConsumer,
	}

	server.setupRoutes()

	outboxProcessor.Start()
	deadLetterProcessor.Start()
	server.startOverdueSweeper(cfg.SweepInterval)

	if kafkaConsumer != nil {
		if err := kafkaConsumer.Start(); err != nil {
			// The coordinator works without the consumer; only the event
			// read side is lost.
			log.Error("Failed to start Kafka consumer", "error", err)
		}
	}

	return server, nil
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("Server listening", "port", s.config.Port, "env", s.config.Env)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server and its background workers
func (s *Server) Shutdown(ctx context.Context) error {
	s.outboxProcessor.Stop()
	s.deadLetterProcessor.Stop()

	if s.sweepCancel != nil {
		s.sweepCancel()
		s.sweepWG.Wait()
	}

	if s.kafkaConsumer != nil {
		if err := s.kafkaConsumer.Stop(); err != nil {
			s.logger.Error("Error stopping Kafka consumer", "error", err)
		}
	}

	if s.kafkaProducer != nil {
		if err := s.kafkaProducer.Close(); err != nil {
			s.logger.Error("Error closing Kafka producer", "error", err)
		}
	}

	if err := s.db.Close(); err != nil {
		s.logger.Error("Error closing database connection", "error", err)
	}

	return s.httpServer.Shutdown(ctx)
}

// startOverdueSweeper runs the overdue-invoice sweep on a fixed interval.
func (s *Server) startOverdueSweeper(interval time.Duration) {
	ctx, cancel := context.WithCancel(context.Background())
	s.sweepCancel = cancel
	s.sweepWG.Add(1)

	go func() {
		defer s.sweepWG.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if _, err := s.invoiceService.SweepOverdue(ctx, now.UTC()); err != nil {
					s.logger.Error("Overdue sweep failed", "error", err)
				}
			}
		}
	}()

	s.logger.Info("Overdue sweeper started", "interval", interval)
}

// setupRoutes configures all the routes for the API
func (s *Server) setupRoutes() {
	s.router.Use(s.loggingMiddleware)

	rateLimiter := middleware.NewRateLimiter(s.config.RateLimit.MaxTokens, s.config.RateLimit.RefillRate, s.logger)
	s.router.Use(rateLimiter.Middleware)

	api := s.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/health", s.healthCheckHandler).Methods(http.MethodGet)

	api.HandleFunc("/customers", s.createCustomerHandler).Methods(http.MethodPost)
	api.HandleFunc("/customers/{id}", s.getCustomerHandler).Methods(http.MethodGet)
	api.HandleFunc("/customers/{id}", s.updateCustomerHandler).Methods(http.MethodPut)

	api.HandleFunc("/products", s.createProductHandler).Methods(http.MethodPost)
	api.HandleFunc("/products", s.getProductsHandler).Methods(http.MethodGet)
	api.HandleFunc("/products/{id}", s.getProductHandler).Methods(http.MethodGet)

	api.HandleFunc("/orders", s.createOrderHandler).Methods(http.MethodPost)
	api.HandleFunc("/orders", s.getOrdersHandler).Methods(http.MethodGet)
	api.HandleFunc("/orders/{id}", s.getOrderHandler).Methods(http.MethodGet)
	api.HandleFunc("/orders/{id}/accept", s.acceptOrderHandler).Methods(http.MethodPut)
	api.HandleFunc("/orders/{id}/ship", s.shipOrderHandler).Methods(http.MethodPut)
	api.HandleFunc("/orders/{id}/complete", s.completeOrderHandler).Methods(http.MethodPut)
	api.HandleFunc("/orders/{id}/cancel", s.cancelOrderHandler).Methods(http.MethodPut)

	api.HandleFunc("/invoices/from-order/{orderId}", s.createInvoiceHandler).Methods(http.MethodPost)
	api.HandleFunc("/invoices", s.getInvoicesHandler).Methods(http.MethodGet)
	api.HandleFunc("/invoices/{id}", s.getInvoiceHandler).Methods(http.MethodGet)
	api.HandleFunc("/invoices/{id}/send", s.sendInvoiceHandler).Methods(http.MethodPut)
	api.HandleFunc("/invoices/{id}/cancel", s.cancelInvoiceHandler).Methods(http.MethodPut)
	api.HandleFunc("/invoices/{id}/payments", s.getInvoicePaymentsHandler).Methods(http.MethodGet)

	api.HandleFunc("/payments", s.createPaymentHandler).Methods(http.MethodPost)
	api.HandleFunc("/payments/{id}", s.getPaymentHandler).Methods(http.MethodGet)
	api.HandleFunc("/payments/{id}/accept", s.acceptPaymentHandler).Methods(http.MethodPost)
	api.HandleFunc("/payments/{id}/cancel", s.cancelPaymentHandler).Methods(http.MethodPut)

	admin := s.router.PathPrefix("/api/v1/admin").Subrouter()
	admin.HandleFunc("/invoices/sweep-overdue", s.sweepOverdueHandler).Methods(http.MethodPost)
	admin.HandleFunc("/dead-letters", s.getDeadLettersHandler).Methods(http.MethodGet)
	admin.HandleFunc("/dead-letters/{id}/retry", s.retryDeadLetterHandler).Methods(http.MethodPost)
	admin.HandleFunc("/dead-letters/{id}/discard", s.discardDeadLetterHandler).Methods(http.MethodPost)
}

// loggingMiddleware logs every request after it is served
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		next.ServeHTTP(w, r)

		s.logger.Info("Request processed",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
			"remoteAddr", r.RemoteAddr,
		)
	})
}
