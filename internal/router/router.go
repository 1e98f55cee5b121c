package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/inote-dev/inote/internal/config"
	"github.com/inote-dev/inote/internal/handlers"
	"github.com/inote-dev/inote/internal/middleware"
	"github.com/inote-dev/inote/internal/utils"
	"go.uber.org/zap"
)

func NewRouter(cfg config.Config, h *handlers.Handler, authn middleware.Authenticator, log *zap.Logger) *gin.Engine {
	utils.UseJSONFieldNames()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log))

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	requireAuth := middleware.AuthMiddleware(authn)

	// Note and task reads are public unless PUBLIC_CONTENT_READS is off.
	read := func(handler gin.HandlerFunc) []gin.HandlerFunc {
		if cfg.PublicContentReads {
			return []gin.HandlerFunc{handler}
		}
		return []gin.HandlerFunc{requireAuth, handler}
	}

	api := r.Group("/api")
	{
		api.GET("/health", handlers.HealthCheck)

		user := api.Group("/user")
		{
			user.POST("/register", h.Register)
			user.POST("/login", h.Login)
			user.POST("/logout", requireAuth, h.Logout)
			user.PUT("/edit", requireAuth, h.UpdateUser)
			user.DELETE("/delete", requireAuth, h.DeleteUser)
		}
		api.GET("/user", requireAuth, h.Me)
		api.GET("/my-groups", requireAuth, h.MyGroups)

		notes := api.Group("/notes")
		{
			notes.GET("", read(h.ListNotes)...)
			notes.GET("/:id", read(h.GetNote)...)
			notes.POST("", requireAuth, h.CreateNote)
			notes.PUT("/:id", requireAuth, h.UpdateNote)
			notes.DELETE("/:id", requireAuth, h.DeleteNote)
		}

		tasks := api.Group("/tasks")
		{
			tasks.GET("", read(h.ListTasks)...)
			tasks.GET("/:id", read(h.GetTask)...)
			tasks.POST("", requireAuth, h.CreateTask)
			tasks.PUT("/:id", requireAuth, h.UpdateTask)
			tasks.DELETE("/:id", requireAuth, h.DeleteTask)
		}

		groups := api.Group("/groups", requireAuth)
		{
			groups.POST("", h.CreateGroup)
			groups.POST("/join", h.JoinGroup)
			groups.GET("", h.ListGroups)
			groups.GET("/:id", h.GetGroup)
			groups.PUT("/:id", h.UpdateGroup)
			groups.DELETE("/:id", h.DeleteGroup)
			groups.POST("/:id/leave", h.LeaveGroup)
			groups.GET("/:id/ws", h.GroupWebSocket)
		}
	}

	return r
}
