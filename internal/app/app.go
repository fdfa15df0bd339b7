package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"excos_backend/internal/auth"
	"excos_backend/internal/config"
	"excos_backend/internal/db"
	"excos_backend/internal/email"
	"excos_backend/internal/handlers"
	"excos_backend/internal/logger"
	"excos_backend/internal/middleware"
	"excos_backend/internal/models"
	"excos_backend/internal/repositories"
	"excos_backend/internal/routes"
	"excos_backend/internal/services"
	"excos_backend/internal/storage"
	"excos_backend/internal/validator"
	"excos_backend/internal/workers"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Run bootstraps the application: config, logging, database, services,
// routes, and background workers, then serves HTTP until the process exits.
func Run() error {
	config.LoadConfig()
	cfg := config.AppConfig

	logger.Init(cfg.Server.Env)
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	database, err := db.Open(cfg)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	if err := database.AutoMigrate(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := seedFirstAdmin(cfg, database.Gorm); err != nil {
		return fmt.Errorf("failed to seed first admin: %w", err)
	}

	router, sc := SetupRouter(cfg, database)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	resetRepo := repositories.NewPasswordResetTokenRepository(database.Gorm)
	cleanup := workers.NewCleanupWorker(sc.NotificationService, resetRepo)
	cleanup.Start(ctx)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("starting HTTP server", "addr", addr, "env", cfg.Server.Env)

	return router.Run(addr)
}

// SetupRouter builds the gin engine with middleware, services, and routes.
// Split out from Run so integration tests can drive the full stack against
// an injected database.
func SetupRouter(cfg *config.Config, database *db.DB) (*gin.Engine, *services.ServiceContainer) {
	sc := initializeServices(cfg, database)

	v := validator.New()
	appHandlers := handlers.InitializeHandlers(sc, v, cfg.Session.TTL)

	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware(),
		middleware.LoggingMiddleware(),
		middleware.MetricsMiddleware(),
		middleware.CORSMiddleware(),
		middleware.DBMiddleware(database.Gorm),
	)

	routes.RegisterRoutes(router, appHandlers, cfg.Session.Secret)

	return router, sc
}

func initializeServices(cfg *config.Config, database *db.DB) *services.ServiceContainer {
	userRepo := repositories.NewUserRepository(database.Gorm)
	complaintRepo := repositories.NewComplaintRepository(database.Gorm)
	notificationRepo := repositories.NewNotificationRepository(database.Gorm)
	resetRepo := repositories.NewPasswordResetTokenRepository(database.Gorm)
	auditRepo := repositories.NewAuditLogRepository(database.Gorm)
	analyticsRepo := repositories.NewAnalyticsRepository(database.SQL)

	emailSender, err := email.NewSMTPSender(email.Config{
		SMTPHost:     cfg.Email.SMTPHost,
		SMTPPort:     cfg.Email.SMTPPort,
		Username:     cfg.Email.SMTPUsername,
		Password:     cfg.Email.SMTPPassword,
		FromEmail:    cfg.Email.FromEmail,
		FromName:     cfg.Email.FromName,
		UseTLS:       cfg.Email.UseTLS,
		TemplatePath: cfg.Email.TemplatesDir,
	})
	if err != nil {
		logger.Fatal("failed to initialize email sender", "error", err)
	}

	store, err := storage.NewStorage(storage.Config{
		Type:      cfg.Storage.Type,
		BasePath:  cfg.Storage.BasePath,
		BaseURL:   cfg.Storage.BaseURL,
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.Storage.Region,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Endpoint:  cfg.Storage.Endpoint,
	})
	if err != nil {
		logger.Fatal("failed to initialize storage", "error", err)
	}

	sessionTTL := time.Duration(cfg.Session.TTL) * time.Hour

	return &services.ServiceContainer{
		AuthService: services.NewAuthService(
			database.Gorm, userRepo, resetRepo, auditRepo, emailSender,
			cfg.Session.Secret, sessionTTL, cfg.App.BaseURL,
		),
		UserService: services.NewUserService(userRepo),
		ComplaintService: services.NewComplaintService(
			complaintRepo, userRepo, notificationRepo, auditRepo, emailSender, cfg.App.BaseURL,
		),
		NotificationService: services.NewNotificationService(notificationRepo),
		AnalyticsService:    services.NewAnalyticsService(analyticsRepo),
		UploadService: services.NewUploadService(
			store, userRepo, cfg.Upload.MaxSize, cfg.Upload.AllowedTypes,
		),
		EmailSender: emailSender,
		Storage:     store,
	}
}

// seedFirstAdmin creates the bootstrap system administrator when configured
// and not present yet, so a fresh deployment has a working admin login.
func seedFirstAdmin(cfg *config.Config, gdb *gorm.DB) error {
	if cfg.App.FirstAdminEmail == "" || cfg.App.FirstAdminPassword == "" {
		return nil
	}

	userRepo := repositories.NewUserRepository(gdb)
	if _, err := userRepo.FindByEmail(cfg.App.FirstAdminEmail); err == nil {
		return nil
	} else if !errors.Is(err, repositories.ErrUserNotFound) {
		return err
	}

	hash, err := auth.HashPassword(cfg.App.FirstAdminPassword)
	if err != nil {
		return err
	}

	admin := &models.User{
		FirstName:    "System",
		LastName:     "Administrator",
		Email:        cfg.App.FirstAdminEmail,
		PasswordHash: hash,
		Role:         models.UserRoleAdmin,
		Position:     models.PositionSystemAdmin,
	}

	return gdb.Transaction(func(tx *gorm.DB) error {
		if err := userRepo.WithTx(tx).Create(admin); err != nil {
			return err
		}
		entry := repositories.NewAuditEntry(admin.ID, "seed_admin", "user", admin.ID, "", nil)
		return repositories.NewAuditLogRepository(tx).Create(entry)
	})
}
