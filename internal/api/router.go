package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/amail-io/amail-ce/internal/config"
	"github.com/amail-io/amail-ce/internal/middleware"
	"github.com/amail-io/amail-ce/internal/models"
	"github.com/amail-io/amail-ce/internal/service"
)

// Router wires the HTTP surface to the core services. It is thin
// plumbing: every route maps to exactly one service operation.
type Router struct {
	engine   *gin.Engine
	cfg      *config.Config
	tickets  *service.TicketService
	messages *service.MessageService
	ai       *service.AIService
}

// NewRouter creates the API router with all middleware installed.
func NewRouter(cfg *config.Config, tickets *service.TicketService, messages *service.MessageService, aiSvc *service.AIService) *Router {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Observe())
	engine.Use(middleware.CORS(cfg.Server.CORS))

	return &Router{
		engine:   engine,
		cfg:      cfg,
		tickets:  tickets,
		messages: messages,
		ai:       aiSvc,
	}
}

// SetupRoutes registers all endpoints.
func (r *Router) SetupRoutes() {
	r.engine.GET("/health", r.handleHealth)
	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.engine.GET("/tickets", r.handleListTickets)
	r.engine.POST("/tickets", r.handleCreateTicket)
	r.engine.GET("/tickets/:ticket_id", r.handleGetTicket)
	r.engine.PATCH("/tickets/:ticket_id", r.handleUpdateTicket)
	r.engine.GET("/tickets/:ticket_id/messages", r.handleListMessages)
	r.engine.POST("/tickets/:ticket_id/messages", r.handleAppendMessage)

	r.engine.POST("/ai/chat", r.handleChat)
	r.engine.POST("/ai/reset", r.handleResetSession)
}

// Handler exposes the underlying http.Handler for the server.
func (r *Router) Handler() http.Handler {
	return r.engine
}

func (r *Router) handleHealth(c *gin.Context) {
	respondSuccess(c, http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   r.cfg.App.Name,
		"version":   r.cfg.App.Version,
		"timestamp": models.NowTimestamp(),
	})
}
