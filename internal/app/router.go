// Package app wires services, handlers and middleware into the HTTP router.
package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"kaskecil/internal/config"
	"kaskecil/internal/handlers"
	"kaskecil/internal/middleware"
	"kaskecil/internal/models"
	"kaskecil/internal/services"
)

// multipartOverhead leaves room for the form fields next to the files.
const multipartOverhead = 1 << 20

// NewRouter builds the API router on top of db and the attachment store.
func NewRouter(cfg *config.Config, db *gorm.DB, store handlers.AttachmentStore) *gin.Engine {
	// Services
	userService := services.NewUserService(db)
	branchService := services.NewBranchService(db)
	unitService := services.NewUnitService(db)
	accountService := services.NewAccountService(db)
	budgetItemService := services.NewBudgetItemService(db)
	transactionService := services.NewTransactionService(db, budgetItemService)
	draftService := services.NewDraftService(db, budgetItemService)
	reportService := services.NewReportService(db)
	attachmentService := services.NewAttachmentService(db)
	auditService := services.NewAuditService(db)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService, auditService)
	userHandler := handlers.NewUserHandler(userService, auditService)
	branchHandler := handlers.NewBranchHandler(branchService, auditService)
	unitHandler := handlers.NewUnitHandler(unitService, auditService)
	accountHandler := handlers.NewAccountHandler(accountService, auditService)
	budgetItemHandler := handlers.NewBudgetItemHandler(budgetItemService, auditService)
	transactionHandler := handlers.NewTransactionHandler(transactionService, auditService, store)
	draftHandler := handlers.NewDraftHandler(draftService, auditService, store)
	reportHandler := handlers.NewReportHandler(reportService)
	attachmentHandler := handlers.NewAttachmentHandler(attachmentService, store)

	router := gin.New()
	router.MaxMultipartMemory = cfg.MaxUploadBytes
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.CORS(cfg.CORSOrigin))
	router.Use(middleware.ErrorHandler())

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/api/health", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	// Public auth routes
	auth := v1.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.RefreshToken)

	// The report link is opened directly by browsers, so it takes the
	// token from the query string too.
	v1.GET("/reports/transactions", middleware.QueryTokenAuthMiddleware(), reportHandler.GetTransactionReport)

	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.POST("/auth/logout", authHandler.Logout)
	protected.GET("/profile", authHandler.GetProfile)
	protected.PUT("/profile/password", authHandler.ChangePassword)
	protected.GET("/dashboard", reportHandler.GetDashboard)
	protected.GET("/attachments/:id", attachmentHandler.GetAttachment)

	users := protected.Group("/users")
	users.POST("", userHandler.CreateUser)
	users.GET("", userHandler.ListUsers)
	users.GET("/:id", userHandler.GetUser)
	users.PUT("/:id", userHandler.UpdateUser)
	users.DELETE("/:id", userHandler.DeleteUser)

	branches := protected.Group("/branches")
	branches.POST("", branchHandler.CreateBranch)
	branches.GET("", branchHandler.ListBranches)
	branches.GET("/:id", branchHandler.GetBranch)
	branches.PUT("/:id", branchHandler.UpdateBranch)
	branches.DELETE("/:id", branchHandler.DeleteBranch)

	units := protected.Group("/units")
	units.POST("", unitHandler.CreateUnit)
	units.GET("", unitHandler.ListUnits)
	units.GET("/:id", unitHandler.GetUnit)
	units.PUT("/:id", unitHandler.UpdateUnit)
	units.DELETE("/:id", unitHandler.DeleteUnit)

	accounts := protected.Group("/accounts")
	accounts.POST("", accountHandler.CreateAccount)
	accounts.GET("", accountHandler.ListAccounts)
	accounts.GET("/:id", accountHandler.GetAccount)
	accounts.PUT("/:id", accountHandler.UpdateAccount)
	accounts.DELETE("/:id", accountHandler.DeleteAccount)

	budgetItems := protected.Group("/budget-items")
	budgetItems.POST("", budgetItemHandler.CreateBudgetItem)
	budgetItems.GET("", budgetItemHandler.ListBudgetItems)
	budgetItems.GET("/:id", budgetItemHandler.GetBudgetItem)
	budgetItems.PUT("/:id", budgetItemHandler.UpdateBudgetItem)
	budgetItems.DELETE("/:id", budgetItemHandler.DeleteBudgetItem)

	// Entry routes accept lampiran uploads
	uploadLimit := middleware.BodyLimit(int64(models.MaxAttachments)*cfg.MaxUploadBytes + multipartOverhead)

	transactions := protected.Group("/transactions")
	transactions.POST("", uploadLimit, transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.ListTransactions)
	transactions.GET("/:id", transactionHandler.GetTransaction)
	transactions.PUT("/:id", uploadLimit, transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	drafts := protected.Group("/drafts")
	drafts.POST("", uploadLimit, draftHandler.CreateDraft)
	drafts.GET("", draftHandler.ListDrafts)
	drafts.GET("/:id", draftHandler.GetDraft)
	drafts.PUT("/:id", uploadLimit, draftHandler.UpdateDraft)
	drafts.DELETE("/:id", draftHandler.DeleteDraft)
	drafts.POST("/:id/submit", draftHandler.SubmitDraft)
	drafts.POST("/:id/approve", draftHandler.ApproveDraft)
	drafts.POST("/:id/reject", draftHandler.RejectDraft)
	drafts.POST("/:id/cairkan", draftHandler.DisburseDraft)

	return router
}
