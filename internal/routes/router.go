// Package routesはroutingを行います。
package routes

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"go-next-task/backend/internal/config"
	"go-next-task/backend/internal/database"
	"go-next-task/backend/internal/handlers"
	"go-next-task/backend/internal/ratelimit"
	"go-next-task/backend/internal/services"
)

// SetupRouter はGinルーターをセットアップし、すべてのエンドポイントを登録します。
// limiter が nil の場合、認証系エンドポイントのレート制限は行いません。
func SetupRouter(db *database.DB, svc *services.Services, cfg config.ServerConfig, limiter ratelimit.Limiter) *gin.Engine {
	r := gin.Default()

	// CORS対策
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.AllowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	corsConfig.AllowCredentials = true
	r.Use(cors.New(corsConfig))

	// ハンドラー
	userHandler := handlers.NewUserHandler(svc.Users, svc.Guests, svc.JWT)
	taskHandler := handlers.NewTaskHandler(svc.Tasks, svc.Validator)
	labelHandler := handlers.NewLabelHandler(svc.Labels)
	notificationHandler := handlers.NewNotificationHandler(svc.Notifications, svc.Validator)
	activityLogHandler := handlers.NewActivityLogHandler(svc.ActivityLogs)

	limited := func(h gin.HandlerFunc) []gin.HandlerFunc {
		if limiter == nil {
			return []gin.HandlerFunc{h}
		}
		return []gin.HandlerFunc{ratelimit.Middleware(limiter), h}
	}

	// ルーティング
	api := r.Group("/api")
	api.GET("/status", func(c *gin.Context) {
		if err := db.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "message": "Database connection failed", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Database connection is healthy"})
	})

	auth := api.Group("/auth")
	auth.POST("/register", limited(userHandler.RegisterHandler)...)
	auth.POST("/login", limited(userHandler.LoginHandler)...)
	auth.POST("/guest", limited(userHandler.GuestLoginHandler)...)
	auth.POST("/refresh", userHandler.RefreshHandler)
	auth.POST("/logout", userHandler.LogoutHandler)

	authorized := api.Group("/")
	authorized.Use(AuthMiddleware(svc.JWT, svc.Users))
	{
		authorized.GET("/auth/me", userHandler.MeHandler)

		authorized.GET("/tasks", taskHandler.GetTasksHandler)
		authorized.GET("/tasks/:id", taskHandler.GetTaskByIDHandler)
		authorized.POST("/tasks", taskHandler.CreateTaskHandler)
		authorized.PUT("/tasks/:id", taskHandler.UpdateTaskHandler)
		authorized.DELETE("/tasks/:id", taskHandler.DeleteTaskHandler)
		authorized.PATCH("/tasks/:id/toggle-completed", taskHandler.ToggleCompletedHandler)

		authorized.GET("/labels", labelHandler.GetLabelsHandler)
		authorized.GET("/labels/:id", labelHandler.GetLabelByIDHandler)
		authorized.POST("/labels", labelHandler.CreateLabelHandler)
		authorized.PUT("/labels/:id", labelHandler.UpdateLabelHandler)
		authorized.DELETE("/labels/:id", labelHandler.DeleteLabelHandler)

		authorized.GET("/notifications", notificationHandler.GetNotificationsHandler)
		authorized.GET("/notifications/:id", notificationHandler.GetNotificationByIDHandler)
		authorized.POST("/notifications", notificationHandler.CreateNotificationHandler)
		authorized.PATCH("/notifications/:id/toggle-isRead", notificationHandler.ToggleIsReadHandler)

		authorized.GET("/activity-logs", activityLogHandler.GetLogsHandler)
		authorized.GET("/activity-logs/:id", activityLogHandler.GetLogByIDHandler)
	}

	return r
}
