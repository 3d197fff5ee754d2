package server

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/kamaujm/tikiti/config"
	"github.com/kamaujm/tikiti/internal/handlers"
	"github.com/kamaujm/tikiti/internal/mailer"
	"github.com/kamaujm/tikiti/internal/middleware"
	"github.com/kamaujm/tikiti/internal/mpesa"
	"github.com/kamaujm/tikiti/internal/notify"
	"github.com/kamaujm/tikiti/internal/payments"
	"github.com/kamaujm/tikiti/internal/store"
	"github.com/kamaujm/tikiti/internal/tickets"
)

func Start() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %v", err)
	}

	db, err := config.InitDatabase(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %v", err)
	}

	mpesaCfg, err := config.LoadMpesaConfig()
	if err != nil {
		return fmt.Errorf("failed to load M-Pesa config: %v", err)
	}

	smtpCfg, err := config.LoadSMTPConfig()
	if err != nil {
		return fmt.Errorf("failed to load SMTP config: %v", err)
	}

	paymentStore := store.NewGormStore(db)
	ticketStore := store.NewGormTicketStore(db)
	eventStore := store.NewGormEventStore(db)
	userStore := store.NewGormUserStore(db)

	hub := notify.NewHub()
	issuer := tickets.NewIssuer(ticketStore, eventStore, paymentStore,
		tickets.NewDataURIEncoder(), mailer.NewMailer(smtpCfg))
	orchestrator := payments.NewOrchestrator(mpesa.NewClient(mpesaCfg),
		paymentStore, eventStore, userStore, issuer, hub)
	monitor := payments.NewMonitor(paymentStore, issuer)

	r := gin.Default()

	setupRoutes(r, db, orchestrator, monitor, hub)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	return r.Run(":" + port)
}

func setupRoutes(r *gin.Engine, db *gorm.DB, orchestrator *payments.Orchestrator, monitor *payments.Monitor, hub *notify.Hub) {
	r.Use(middleware.DatabaseMiddleware(db))

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	public := r.Group("/v1")
	{
		public.POST("/register", handlers.Register)
		public.POST("/login", handlers.Login)

		public.GET("/categories", handlers.ListCategories)

		eventPublic := public.Group("/events")
		{
			eventPublic.GET("", handlers.ListEvents)
			eventPublic.GET("/:id", handlers.GetEvent)
		}

		// Guest checkout is supported, so the purchase pipeline is public.
		public.POST("/purchases", middleware.RateLimitMiddleware(1, 5), handlers.InitiatePurchase(orchestrator, monitor))

		paymentPublic := public.Group("/payments")
		{
			paymentPublic.POST("/mpesa/callback", handlers.MpesaCallback(orchestrator))
			paymentPublic.GET("/:checkoutRequestId", handlers.GetPaymentStatus)
			paymentPublic.GET("/:checkoutRequestId/subscribe", handlers.SubscribePaymentStatus(hub))
		}
	}

	protected := r.Group("/v1")
	protected.Use(middleware.JWTAuthMiddleware())
	{
		protected.POST("/categories", handlers.CreateCategory)

		eventProtected := protected.Group("/events")
		{
			eventProtected.POST("", handlers.CreateEvent)
			eventProtected.PUT("/:id", handlers.UpdateEvent)
			eventProtected.DELETE("/:id", handlers.DeleteEvent)
		}

		ticketProtected := protected.Group("/tickets")
		{
			ticketProtected.GET("/:id", handlers.GetTicket)
			ticketProtected.GET("/user/:userId", handlers.ListTicketsByUser)
			ticketProtected.GET("/event/:eventId", handlers.ListTicketsByEvent)
			ticketProtected.POST("/check-in", handlers.CheckInTicket)
		}
	}
}
