package routes

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"wedbook/internal/availability"
	"wedbook/internal/bookings"
	"wedbook/internal/escrow"
	"wedbook/internal/notifications"
	"wedbook/internal/payments"
	"wedbook/internal/shared/config"
	"wedbook/internal/shared/database"
	"wedbook/internal/venues"
	"wedbook/pkg/cache"
	"wedbook/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Router holds all route dependencies and the background workers they share
type Router struct {
	config *config.Config
	db     *database.DB
	log    *logger.Logger
	cache  cache.Service

	publisher notifications.Publisher
	consumer  *notifications.Consumer
	jobs      *escrow.Jobs
}

func NewRouter(cfg *config.Config, db *database.DB, log *logger.Logger) *Router {
	return &Router{
		config: cfg,
		db:     db,
		log:    log,
		cache:  cache.NewService(db.Redis, log),
	}
}

// SetupRoutes builds every feature and registers its routes
func (r *Router) SetupRoutes(engine *gin.Engine) error {
	r.setupHealthRoutes(engine)

	notifier, err := r.setupNotifications()
	if err != nil {
		return err
	}

	api := engine.Group(r.config.GetAPIBasePath())

	listingService := r.setupListingRoutes(api)
	availabilityService := r.setupAvailabilityRoutes(api)
	processor, callbacks := r.setupPayments(api)

	escrowRepo := escrow.NewRepository(r.db.PostgreSQL)
	ledger := escrow.NewLedger(escrowRepo, r.log)
	reconciler := escrow.NewReconciler(ledger, escrowRepo, notifier,
		r.config.Escrow.MaxReconcileAttempts, r.config.Escrow.BatchSize, r.log)
	escrow.SetupEscrowRoutes(api, escrow.NewController(ledger), r.config)

	bookingRepo := bookings.NewRepository(r.db.PostgreSQL)
	bookingService := bookings.NewService(
		bookingRepo,
		bookings.NewRedisDraftStore(r.db.Redis, r.config.Booking.DraftTTL),
		bookings.Dependencies{
			Listings:     listingService,
			Availability: availabilityService,
			Payments:     processor,
			Escrow:       ledger,
			Reconciler:   reconciler,
			Notifier:     notifier,
		},
		r.cache,
		bookings.ServiceConfig{
			AdvancePercentage: r.config.Booking.AdvancePercentage,
			Currency:          r.config.Payments.Currency,
			PayLockTTL:        r.config.Booking.PayLockTTL,
		},
		r.log,
	)
	bookings.SetupBookingRoutes(api, bookings.NewController(bookingService), r.config)

	ledger.Subscribe(bookingService.HandleEscrowChange)
	ledger.Subscribe(notifier.EscrowChanged)

	r.jobs, err = escrow.NewJobs(ledger, reconciler, r.config.Escrow, r.log)
	if err != nil {
		return err
	}

	r.log.Info("routes configured",
		slog.String("payment_provider", r.config.Payments.Provider),
		slog.Bool("callback_checkout", callbacks != nil),
		slog.Bool("kafka", r.config.Kafka.Enabled))
	return nil
}

// Start runs the escrow jobs and the notification consumer
func (r *Router) Start(ctx context.Context) error {
	if r.jobs != nil {
		if err := r.jobs.Start(ctx); err != nil {
			return err
		}
	}
	if r.consumer != nil {
		r.consumer.Start(ctx)
	}
	return nil
}

// Stop shuts the background workers down
func (r *Router) Stop() {
	if r.jobs != nil {
		if err := r.jobs.Stop(); err != nil {
			r.log.Error("failed to stop escrow jobs", slog.String("error", err.Error()))
		}
	}
	if r.consumer != nil {
		if err := r.consumer.Stop(); err != nil {
			r.log.Error("failed to stop notification consumer", slog.String("error", err.Error()))
		}
	}
	if r.publisher != nil {
		if err := r.publisher.Close(); err != nil {
			r.log.Error("failed to close event publisher", slog.String("error", err.Error()))
		}
	}
}

func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "wedbook-api",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "wedbook-api",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})

	engine.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "operational",
			"api_version": r.config.APIVersion,
			"timestamp":   time.Now(),
		})
	})
}

func (r *Router) setupNotifications() (*notifications.Service, error) {
	if r.config.Kafka.Enabled {
		publisher, err := notifications.NewKafkaPublisher(r.config.Kafka, r.log)
		if err != nil {
			return nil, err
		}
		r.publisher = publisher

		var mailer notifications.Mailer = notifications.NewLogMailer(r.log)
		if r.config.Email.SMTPHost != "" {
			smtp, err := notifications.NewSMTPMailer(r.config.Email)
			if err != nil {
				return nil, err
			}
			mailer = smtp
		}

		consumer, err := notifications.NewConsumer(notifications.NewConsumerConfig(r.config.Kafka, r.config.Email), mailer, r.log)
		if err != nil {
			return nil, err
		}
		r.consumer = consumer
	} else {
		r.publisher = notifications.NewLogPublisher(r.log)
	}
	return notifications.NewService(r.publisher, r.log), nil
}

func (r *Router) setupListingRoutes(rg *gin.RouterGroup) venues.Service {
	service := venues.NewService(venues.NewRepository(r.db.PostgreSQL), r.cache, r.config.Escrow, r.log)
	venues.SetupListingRoutes(rg, venues.NewController(service), r.config)
	return service
}

func (r *Router) setupAvailabilityRoutes(rg *gin.RouterGroup) availability.Service {
	var source availability.Source = availability.NewRepository(r.db.PostgreSQL)
	if r.config.Availability.SourceURL != "" {
		source = availability.NewHTTPSource(r.config.Availability.SourceURL, r.config.Availability.SourceTimeout)
	}
	service := availability.NewService(source, r.cache, r.config.Availability.CacheTTL, r.log)
	availability.SetupAvailabilityRoutes(rg, availability.NewController(service))
	return service
}

// setupPayments picks the processor for the configured provider. The callback
// processor is returned when the hosted-widget flow is in use.
func (r *Router) setupPayments(rg *gin.RouterGroup) (*payments.Orchestrator, *payments.CallbackProcessor) {
	cfg := r.config.Payments

	var (
		loader    payments.ProcessorLoader
		verifier  payments.Verifier
		callbacks *payments.CallbackProcessor
	)
	switch cfg.Provider {
	case "stripe":
		factory, stripeVerifier := payments.NewStripeFactory(cfg.StripeSecretKey)
		loader = payments.NewLazyProcessor(factory)
		verifier = stripeVerifier
	default:
		callbacks = payments.NewCallbackProcessor(cfg.KeyID, cfg.CheckoutTimeout)
		loader = payments.StaticProcessor(callbacks)
		verifier = payments.NewSignatureVerifier(cfg.KeySecret)
		payments.SetupPaymentRoutes(rg, payments.NewController(callbacks), r.config)
	}

	orders := payments.NewOrderService(payments.NewRepository(r.db.PostgreSQL), verifier, cfg.Currency, r.log)
	return payments.NewOrchestrator(loader, orders, cfg.VerifyTimeout, r.log), callbacks
}
