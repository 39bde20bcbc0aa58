package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"aitoolshub/internal/authz"
	"aitoolshub/internal/handlers"
	"aitoolshub/internal/middleware"
	"aitoolshub/internal/services"
)

func SetupRoutes(
	r *gin.Engine,
	authHandler *handlers.AuthHandler,
	twoFactorHandler *handlers.TwoFactorHandler,
	toolHandler *handlers.ToolHandler,
	taxonomyHandler *handlers.TaxonomyHandler,
	commentHandler *handlers.CommentHandler,
	notificationHandler *handlers.NotificationHandler,
	adminHandler *handlers.AdminHandler,
	auditHandler *handlers.AuditHandler,
	userService services.UserService,
	twoFactorService *services.TwoFactorService,
) *gin.Engine {

	// ---- public
	r.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.POST("/login", authHandler.Login)
	r.POST("/refresh", authHandler.RefreshToken)

	// public catalogue reads
	r.GET("/tools", toolHandler.List)
	r.GET("/tools/:id", toolHandler.GetByID)
	r.GET("/tools/:id/comments", commentHandler.ListForTool)
	r.GET("/categories", taxonomyHandler.ListCategories)
	r.GET("/categories/:id", taxonomyHandler.GetCategory)
	r.GET("/tags", taxonomyHandler.ListTags)
	r.GET("/tags/:id", taxonomyHandler.GetTag)

	// ---- protected
	r.Use(middleware.AuthMiddleware())

	r.POST("/logout", authHandler.Logout)
	r.GET("/me", authHandler.Me)

	// 2FA flow itself is never behind the 2FA gate
	twofa := r.Group("/2fa")
	{
		twofa.POST("/send", twoFactorHandler.SendCode)
		twofa.POST("/verify", twoFactorHandler.VerifyCode)
		twofa.GET("/status", twoFactorHandler.Status)
		twofa.GET("/trusted-devices", twoFactorHandler.ListDevices)
		twofa.DELETE("/trusted-devices", twoFactorHandler.RevokeAllDevices)
		twofa.DELETE("/trusted-devices/:id", twoFactorHandler.RevokeDevice)
	}

	requireTwoFactor := middleware.RequireTwoFactor(userService, twoFactorService)

	// TOOLS (writes gated on 2FA)
	tools := r.Group("/tools", requireTwoFactor)
	{
		tools.POST("/", toolHandler.Create)
		tools.PUT("/:id", toolHandler.Update)
		tools.DELETE("/:id", toolHandler.Delete)
		tools.POST("/:id/rate", toolHandler.Rate)
		tools.GET("/:id/rating", toolHandler.GetMyRating)
		tools.POST("/:id/comments", commentHandler.Create)
	}
	r.GET("/my/tools", toolHandler.ListMine)
	r.POST("/tags", taxonomyHandler.CreateTag)
	r.DELETE("/ratings/:id", requireTwoFactor, toolHandler.DeleteRating)

	// COMMENTS
	comments := r.Group("/comments", requireTwoFactor)
	{
		comments.PUT("/:id", commentHandler.Update)
		comments.DELETE("/:id", commentHandler.Delete)
	}

	// NOTIFICATIONS
	notifications := r.Group("/notifications")
	{
		notifications.GET("/", notificationHandler.List)
		notifications.GET("/unread-count", notificationHandler.UnreadCount)
		notifications.POST("/:id/read", notificationHandler.MarkRead)
		notifications.POST("/read-all", notificationHandler.MarkAllRead)
	}

	// ADMIN (admin role + fresh 2FA)
	admin := r.Group("/admin",
		middleware.RequireRoles(authz.RoleAdmin),
		requireTwoFactor,
	)
	{
		admin.GET("/users", adminHandler.ListUsers)
		admin.GET("/users/statistics", adminHandler.UserStatistics)
		admin.POST("/users/:id/assign-role", adminHandler.AssignRole)

		admin.GET("/tools", adminHandler.ListTools)
		admin.GET("/tools/statistics", adminHandler.ToolStatistics)
		admin.POST("/tools/:id/feature", adminHandler.FeatureTool)

		admin.GET("/audit-logs", auditHandler.List)
		admin.GET("/audit-logs/actions", auditHandler.Actions)
		admin.GET("/audit-logs/summary", auditHandler.Summary)
		admin.GET("/audit-logs/export", auditHandler.Export)
	}

	// MODERATION (moderators and admins)
	moderation := r.Group("/moderation",
		middleware.RequireRoles(authz.RoleModerator, authz.RoleAdmin),
		requireTwoFactor,
	)
	{
		moderation.GET("/tools", adminHandler.ListTools)
		moderation.POST("/tools/:id/approve", adminHandler.ApproveTool)
		moderation.POST("/tools/:id/reject", adminHandler.RejectTool)
		moderation.POST("/tools/:id/archive", adminHandler.ArchiveTool)
	}

	return r
}
