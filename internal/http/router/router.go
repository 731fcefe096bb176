package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/freelance-proposals/internal/config"
	"github.com/ignatzorin/freelance-proposals/internal/http/handlers"
	"github.com/ignatzorin/freelance-proposals/internal/http/middleware"
	"github.com/ignatzorin/freelance-proposals/internal/service"
)

func SetupRouter(
	cfg *config.Config,
	profileHandler *handlers.ProfileHandler,
	proposalHandler *handlers.ProposalHandler,
	quotaHandler *handlers.QuotaHandler,
	attachmentHandler *handlers.AttachmentHandler,
	wsHandler *handlers.WSHandler,
	healthHandler *handlers.HealthHandler,
	tokenManager *service.TokenManager,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)
	r.StaticFS("/attachments", http.Dir(cfg.UploadPath))

	api := r.Group("/api")

	// Публичные маршруты
	api.GET("/ws", wsHandler.Handle)

	// Защищённые маршруты
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	{
		protected.GET("/profiles", profileHandler.List)
		protected.GET("/profiles/:id", middleware.UUIDValidator("id"), profileHandler.GetByUser)

		protected.PUT("/profile", profileHandler.Update)
		protected.POST("/profile/portfolio", profileHandler.AddPortfolio)
		protected.PUT("/profile/portfolio/:itemId", middleware.UUIDValidator("itemId"), profileHandler.UpdatePortfolio)
		protected.DELETE("/profile/portfolio/:itemId", middleware.UUIDValidator("itemId"), profileHandler.DeletePortfolio)
		protected.POST("/profile/education", profileHandler.AddEducation)
		protected.PUT("/profile/education/:entryId", middleware.UUIDValidator("entryId"), profileHandler.UpdateEducation)
		protected.DELETE("/profile/education/:entryId", middleware.UUIDValidator("entryId"), profileHandler.DeleteEducation)
		protected.POST("/profile/experience", profileHandler.AddExperience)
		protected.PUT("/profile/experience/:entryId", middleware.UUIDValidator("entryId"), profileHandler.UpdateExperience)
		protected.DELETE("/profile/experience/:entryId", middleware.UUIDValidator("entryId"), profileHandler.DeleteExperience)

		protected.GET("/proposals", proposalHandler.ListMy)
		protected.GET("/proposals/:id", middleware.UUIDValidator("id"), proposalHandler.GetByID)
		protected.PATCH("/proposals/:id/status", middleware.UUIDValidator("id"), proposalHandler.UpdateStatus)
		protected.PATCH("/proposals/:id/milestones/:milestoneId", middleware.UUIDValidator("id"), middleware.UUIDValidator("milestoneId"), proposalHandler.UpdateMilestoneStatus)
		protected.GET("/jobs/:jobId/proposals", middleware.UUIDValidator("jobId"), proposalHandler.ListByJob)

		protected.GET("/quota/account", quotaHandler.Account)
		protected.PUT("/quota/trackers", quotaHandler.UpsertTracker)

		protected.POST("/attachments", attachmentHandler.Upload)
	}

	// Создание профиля и подача предложений идут с rate limit:
	// обе операции тяжёлые и чувствительны к злоупотреблениям.
	limited := api.Group("/")
	limited.Use(middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod))
	limited.Use(middleware.AuthMiddleware(tokenManager))
	{
		limited.POST("/profile", profileHandler.Create)
		limited.POST("/proposals", proposalHandler.Create)
	}

	return r
}
