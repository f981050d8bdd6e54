package router

import (
	"khata-ledger/internal/config"
	"khata-ledger/internal/handler"
	"khata-ledger/internal/ledger"
	"khata-ledger/internal/middleware"
	"khata-ledger/internal/store"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupRouter configures the Gin engine and the API routes.
func SetupRouter(cfg *config.Config, db *gorm.DB) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	hub := store.NewHub()
	engine := ledger.NewEngine(db, hub)

	// ====== API ======
	api := r.Group("/api")

	jwtSecret := cfg.JWT.Secret
	encryptKey := cfg.Security.EncryptionKey

	// no auth required
	authHandler := handler.NewAuthHandler(db, jwtSecret, cfg.JWT.Issuer, cfg.JWT.ExpireHours, cfg.Security.BcryptCost)
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	// everything below requires a signed-in user
	protected := api.Group("")
	protected.Use(
		middleware.AuthMiddleware(jwtSecret, db),
		middleware.AuditMiddleware(db, encryptKey),
	)

	protected.GET("/me", handler.GetMe)
	protected.POST("/profile", handler.UpdateProfile(db))
	protected.POST("/profile/password", handler.ChangePassword(db))

	customerHandler := handler.NewCustomerHandler(db, engine, encryptKey)
	protected.POST("/customers", customerHandler.CreateCustomer)
	protected.GET("/customers", customerHandler.ListCustomers)
	protected.GET("/customers/:id", customerHandler.GetCustomer)

	streamHandler := handler.NewStreamHandler(db, engine, encryptKey)
	protected.GET("/customers/:id/stream", streamHandler.StreamCustomer)

	reminderHandler := handler.NewReminderHandler(db, engine)
	protected.GET("/customers/:id/reminder", reminderHandler.GetReminder)

	exportHandler := handler.NewExportHandler(db, engine, encryptKey)
	protected.GET("/customers/:id/statement/csv", exportHandler.ExportStatementCSV)
	protected.GET("/customers/:id/statement/xlsx", exportHandler.ExportStatementXLSX)

	transactionHandler := handler.NewTransactionHandler(db, engine, hub, encryptKey)
	protected.POST("/transactions", transactionHandler.CreateTransaction)
	protected.PUT("/transactions/:id", transactionHandler.UpdateTransaction)
	protected.DELETE("/transactions/:id", transactionHandler.DeleteTransaction)

	statsHandler := handler.NewStatsHandler(db)
	protected.GET("/stats/summary", statsHandler.GetSummary)

	backupHandler := handler.NewBackupHandler(db, engine, hub, encryptKey, cfg.Backup.Dir)
	protected.POST("/backups", backupHandler.CreateBackup)
	protected.GET("/backups", backupHandler.ListBackups)
	protected.GET("/backups/:id/download", backupHandler.DownloadBackup)
	protected.POST("/backups/:id/restore", backupHandler.RestoreBackup)
	protected.DELETE("/backups/:id", backupHandler.DeleteBackup)

	logHandler := handler.NewLogHandler(db, encryptKey, cfg.App.PageSize)
	protected.GET("/logs", logHandler.ListLogs)

	return r
}
