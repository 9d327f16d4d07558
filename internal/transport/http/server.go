package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/mingle-im/mingle-server/internal/auth"
	"github.com/mingle-im/mingle-server/internal/config"
	"github.com/mingle-im/mingle-server/internal/core"
	"github.com/mingle-im/mingle-server/internal/store"
)

// NewServer builds the HTTP server with all routes registered: the REST API,
// the WebSocket endpoint, and a health probe.
func NewServer(cfg *config.Config, hub *core.Hub, st store.Store, authService *auth.Service, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), LoggerMiddleware(logger))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(stdhttp.StatusOK, gin.H{"status": "ok"})
	})

	engine.GET("/ws", gin.WrapH(NewWSHandler(hub, authService, cfg.EventBuffer, logger)))

	apiHandlers := NewAPIHandlers(authService, logger)
	userHandlers := NewUserHandlers(st, logger)
	messageHandlers := NewMessageHandlers(st, hub, logger)
	friendHandlers := NewFriendHandlers(st, hub, logger)
	groupHandlers := NewGroupHandlers(st, hub, logger)

	api := engine.Group("/api")
	api.POST("/register", apiHandlers.Register)
	api.POST("/login", apiHandlers.Login)

	authed := api.Group("")
	authed.Use(AuthMiddleware(authService, logger))
	{
		authed.GET("/users/search", userHandlers.Search)
		authed.GET("/users/recent", userHandlers.Recent)
		authed.PUT("/user/update", userHandlers.UpdateProfile)

		authed.GET("/conversations/:friendID", messageHandlers.History)
		authed.DELETE("/conversations/:friendID", messageHandlers.ClearHistory)
		authed.POST("/messages/read-all", messageHandlers.ReadAll)
		authed.POST("/messages/react", messageHandlers.React)
		authed.GET("/reactions/:messageID", messageHandlers.Reactions)

		authed.POST("/friends/request", friendHandlers.SendRequest)
		authed.GET("/friends/pending", friendHandlers.Pending)
		authed.POST("/friends/accept", friendHandlers.Accept)
		authed.POST("/friends/reject", friendHandlers.Reject)
		authed.GET("/friends/list", friendHandlers.List)

		authed.POST("/groups", groupHandlers.Create)
		authed.GET("/groups", groupHandlers.List)
		authed.GET("/groups/:groupID/messages", groupHandlers.Messages)
		authed.GET("/groups/:groupID/members", groupHandlers.Members)
		authed.POST("/groups/:groupID/members", groupHandlers.AddMember)
		authed.POST("/groups/:groupID/leave", groupHandlers.Leave)
	}

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           engine,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}
