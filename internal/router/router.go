// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/policystack/agency-backend/internal/config"
	"github.com/policystack/agency-backend/internal/handlers"
	"github.com/policystack/agency-backend/internal/middleware"
	"github.com/policystack/agency-backend/internal/services"
	"github.com/policystack/agency-backend/internal/utils"
)

func Initialize(db *gorm.DB, cfg *config.Config) *gin.Engine {
	// Initialize services
	activityService := services.NewActivityService(db)
	webhookService := services.NewWebhookService(cfg)
	storageService, err := services.NewStorageService(cfg)
	if err != nil {
		logrus.WithError(err).Warn("S3 storage unavailable, document features disabled")
	}

	authService := services.NewAuthService(db, cfg, webhookService)
	policyService := services.NewPolicyService(db, activityService)
	deletionService := services.NewDeletionService(db, activityService)
	leadService := services.NewLeadService(db, activityService)
	teamService := services.NewTeamService(db, activityService)
	paymentService := services.NewPaymentService(db, cfg)
	extractionService := services.NewExtractionService(db, cfg, storageService, policyService)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	policyHandler := handlers.NewPolicyHandler(policyService)
	deletionHandler := handlers.NewDeletionHandler(deletionService)
	leadHandler := handlers.NewLeadHandler(leadService)
	teamHandler := handlers.NewTeamHandler(teamService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	extractionHandler := handlers.NewExtractionHandler(extractionService)
	documentHandler := handlers.NewDocumentHandler(storageService)
	activityHandler := handlers.NewActivityHandler(activityService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogging())
	r.Use(middleware.CORS())
	r.Use(middleware.I18nMiddleware())
	r.Use(middleware.GeneralRateLimit())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Authentication routes
		auth := v1.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/team/login", authHandler.TeamLogin)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.GET("/me", middleware.AuthRequired(), authHandler.GetProfile)
		}

		// Stripe webhook (unauthenticated, signature-verified)
		v1.POST("/webhooks/stripe", paymentHandler.StripeWebhook)

		// Policy routes
		policies := v1.Group("/policies")
		policies.Use(middleware.AuthRequired(), middleware.SubscriptionRequired(db), middleware.PageAccessRequired("policies"))
		{
			policies.GET("", policyHandler.GetPolicies)
			policies.POST("", policyHandler.CreatePolicy)
			policies.GET("/expiring", policyHandler.GetExpiringPolicies)
			policies.GET("/deleted", middleware.PageAccessRequired("deleted_policies"), policyHandler.GetDeletedPolicies)
			policies.GET("/:id", policyHandler.GetPolicy)
			policies.PUT("/:id", policyHandler.UpdatePolicy)
			policies.PUT("/:id/claim", middleware.PageAccessRequired("claims"), policyHandler.UpdateClaim)
			policies.DELETE("/:id", policyHandler.DeletePolicy)
			policies.POST("/:id/restore", policyHandler.RestorePolicy)
		}

		// Deletion request routes
		deletions := v1.Group("/deletion-requests")
		deletions.Use(middleware.AuthRequired(), middleware.SubscriptionRequired(db))
		{
			deletions.POST("", deletionHandler.RequestDeletion)
			deletions.GET("", deletionHandler.GetRequests)
			deletions.POST("/:id/approve", middleware.AdminRequired(), deletionHandler.ApproveRequest)
			deletions.POST("/:id/reject", middleware.AdminRequired(), deletionHandler.RejectRequest)
		}

		// Lead routes
		leads := v1.Group("/leads")
		leads.Use(middleware.AuthRequired(), middleware.SubscriptionRequired(db), middleware.PageAccessRequired("leads"))
		{
			leads.GET("", leadHandler.GetLeads)
			leads.POST("", leadHandler.CreateLead)
			leads.GET("/follow-ups", middleware.PageAccessRequired("follow_ups"), leadHandler.GetFollowUps)
			leads.GET("/:id", leadHandler.GetLead)
			leads.PUT("/:id", leadHandler.UpdateLead)
			leads.DELETE("/:id", leadHandler.DeleteLead)
			leads.POST("/:id/follow-ups", middleware.PageAccessRequired("follow_ups"), leadHandler.RecordFollowUp)
			leads.POST("/:id/convert", leadHandler.ConvertLead)
		}

		// Extraction routes
		extraction := v1.Group("/extraction")
		extraction.Use(middleware.AuthRequired(), middleware.SubscriptionRequired(db), middleware.PageAccessRequired("policies"))
		{
			extraction.POST("/batches", middleware.ExtractionRateLimit(), extractionHandler.StartBatch)
			extraction.GET("/batches/:id", extractionHandler.GetBatch)
			extraction.POST("/batches/:id/retry", middleware.ExtractionRateLimit(), extractionHandler.RetryCurrent)
			extraction.POST("/batches/:id/save", extractionHandler.ConfirmSave)
			extraction.POST("/batches/:id/skip", extractionHandler.SkipCurrent)
		}

		// Document routes
		documents := v1.Group("/documents")
		documents.Use(middleware.AuthRequired(), middleware.SubscriptionRequired(db), middleware.PageAccessRequired("documents"))
		{
			documents.POST("", middleware.UploadRateLimit(), documentHandler.UploadDocuments)
			documents.GET("", documentHandler.ListDocuments)
			documents.GET("/url", documentHandler.GetDocumentURL)
			documents.DELETE("", documentHandler.DeleteDocument)
		}

		// Team routes (owner accounts only; members cannot manage the team)
		team := v1.Group("/team")
		team.Use(middleware.AuthRequired(), middleware.SubscriptionRequired(db))
		{
			team.GET("/pages", teamHandler.GetKnownPages)
			team.GET("/members", teamHandler.GetMembers)
			team.POST("/members", teamHandler.CreateMember)
			team.GET("/members/:id", teamHandler.GetMember)
			team.PUT("/members/:id", teamHandler.UpdateMember)
			team.DELETE("/members/:id", teamHandler.DeleteMember)
		}

		// Subscription routes
		subscription := v1.Group("/subscription")
		subscription.Use(middleware.AuthRequired())
		{
			subscription.GET("/status", paymentHandler.GetSubscriptionStatus)
			subscription.POST("/intent", paymentHandler.CreateSubscriptionIntent)
		}

		// Activity log routes
		activity := v1.Group("/activity")
		activity.Use(middleware.AuthRequired(), middleware.PageAccessRequired("activity"))
		{
			activity.GET("", activityHandler.GetActivity)
		}

		// Admin routes
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
		{
			admin.POST("/users/:id/lock", paymentHandler.LockAccount)
			admin.POST("/users/:id/unlock", paymentHandler.UnlockAccount)
		}
	}

	// Static file serving (for development)
	if cfg.Environment == "development" {
		r.Static("/uploads", "./uploads")
	}

	return r
}
