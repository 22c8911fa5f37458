package main

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/deploy-ENV/GOVT-PROJECT-BACKEND/internal/auth"
	"github.com/deploy-ENV/GOVT-PROJECT-BACKEND/internal/httpapi"
	"github.com/deploy-ENV/GOVT-PROJECT-BACKEND/internal/identity"
	"github.com/deploy-ENV/GOVT-PROJECT-BACKEND/internal/ws"
	"github.com/deploy-ENV/GOVT-PROJECT-BACKEND/pkg/storage"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, h httpapi.Handlers, wsHandler *ws.Handler, authn *auth.Authenticator, db *sql.DB) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		if err := storage.HealthCheck(c.Request.Context(), db, 2*time.Second); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Registration and login are partitioned by role path segment.
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register/:role", h.Register)
		authGroup.POST("/login/:role", h.Login)
	}

	// The websocket endpoint is public at upgrade time; the session stays
	// unauthenticated until a STOMP CONNECT carrying a valid token arrives.
	r.GET("/ws", wsHandler.Serve)

	// protected API group
	api := r.Group("/api")
	api.Use(auth.RequirePrincipal(authn))
	{
		api.GET("/me", h.Me)

		chatGroup := api.Group("/chat")
		{
			chatGroup.GET("/:otherUserId", h.ChatHistory)
			chatGroup.PUT("/read/:senderId", h.MarkRead)
		}

		projects := api.Group("/projects")
		{
			projects.GET("/:id", h.GetProject)

			// Creating and steering projects is restricted to managing roles.
			managing := projects.Group("")
			managing.Use(auth.RequireAnyRole(
				identity.PartitionProjectManager.Role(),
				identity.PartitionGovernment.Role(),
			))
			{
				managing.POST("", h.CreateProject)
				managing.GET("", h.ListProjects)
				managing.PUT("/:id/status", h.TransitionProject)
			}
		}
	}
}
