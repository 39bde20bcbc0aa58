package app

import (
	"database/sql"
	"fmt"
	"log"

	"aitoolshub/internal/cache"
	"aitoolshub/internal/config"
	"aitoolshub/internal/handlers"
	"aitoolshub/internal/middleware"
	"aitoolshub/internal/pdf"
	"aitoolshub/internal/repositories"
	"aitoolshub/internal/routes"
	"aitoolshub/internal/services"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "aitoolshub/docs"
)

func Run() {
	cfg := config.LoadConfig()

	if cfg.App.JWTSecret != "" {
		middleware.JWTKey = []byte(cfg.App.JWTSecret)
	} else {
		log.Printf("[app] WARNING: jwt secret not configured, using default key")
	}

	// === DB ===
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		log.Fatal("Failed to open database: ", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Failed to close database: %v", err)
		}
	}()

	// === Redis ===
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Printf("Failed to close redis: %v", err)
		}
	}()
	counterStore := cache.NewRedisCounterStore(redisClient)

	// === Repos ===
	userRepo := repositories.NewUserRepository(db)
	codeRepo := repositories.NewTwoFactorCodeRepository(db)
	deviceRepo := repositories.NewTrustedDeviceRepository(db)
	toolRepo := repositories.NewToolRepository(db)
	categoryRepo := repositories.NewCategoryRepository(db)
	tagRepo := repositories.NewTagRepository(db)
	ratingRepo := repositories.NewRatingRepository(db)
	commentRepo := repositories.NewCommentRepository(db)
	notificationRepo := repositories.NewNotificationRepository(db)
	auditRepo := repositories.NewAuditLogRepository(db)

	// === Services ===
	authService := services.NewAuthService()
	emailService := services.NewEmailService(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
		cfg.Email.FromEmail,
		cfg.App.Name,
	)

	userService := services.NewUserService(userRepo)
	auditService := services.NewAuditService(auditRepo)
	notificationService := services.NewNotificationService(notificationRepo, userRepo)

	// Telegram alerts are optional; the hub runs fine without them
	var telegramService *services.TelegramAlertService
	if cfg.Telegram.Enabled && cfg.Telegram.BotToken != "" {
		telegramService, err = services.NewTelegramAlertService(cfg.Telegram.BotToken, cfg.Telegram.AdminChatID)
		if err != nil {
			log.Printf("[app] telegram alerts disabled: %v", err)
			telegramService = nil
		}
	}
	securityHub := services.NewSecurityHub(notificationService, emailService, telegramService)

	twoFactorService := services.NewTwoFactorService(
		codeRepo,
		deviceRepo,
		counterStore,
		emailService,
		securityHub,
	)

	toolService := services.NewToolService(toolRepo, ratingRepo, notificationService, auditService)
	commentService := services.NewCommentService(commentRepo, toolRepo, notificationService)

	reportGen := pdf.NewReportGenerator(cfg.App.Name)

	// === Handlers ===
	authHandler := handlers.NewAuthHandler(userService, authService, auditService)
	twoFactorHandler := handlers.NewTwoFactorHandler(twoFactorService, userService, auditService, cfg.App.SecureCookies)
	toolHandler := handlers.NewToolHandler(toolService, userService)
	taxonomyHandler := handlers.NewTaxonomyHandler(categoryRepo, tagRepo)
	commentHandler := handlers.NewCommentHandler(commentService, userService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	adminHandler := handlers.NewAdminHandler(userService, toolService, auditService)
	auditHandler := handlers.NewAuditHandler(auditService, reportGen)

	// === Gin ===
	router := gin.Default()
	router.Use(corsMiddleware())

	// Swagger
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	routes.SetupRoutes(
		router,
		authHandler,
		twoFactorHandler,
		toolHandler,
		taxonomyHandler,
		commentHandler,
		notificationHandler,
		adminHandler,
		auditHandler,
		userService,
		twoFactorService,
	)

	// === Run ===
	listenAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("[app] %s listening on %s", cfg.App.Name, listenAddr)
	if err := router.Run(listenAddr); err != nil {
		log.Fatal("Server failed: ", err)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
