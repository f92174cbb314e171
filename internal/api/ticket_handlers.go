package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/amail-io/amail-ce/internal/models"
)

// handleListTickets handles GET /tickets with optional status,
// assigned_to and ticket_group query filters.
func (r *Router) handleListTickets(c *gin.Context) {
	filter := models.TicketFilter{
		Status:      c.Query("status"),
		AssignedTo:  c.Query("assigned_to"),
		TicketGroup: c.Query("ticket_group"),
	}
	tickets, err := r.tickets.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, tickets)
}

// handleCreateTicket handles POST /tickets.
func (r *Router) handleCreateTicket(c *gin.Context) {
	var req models.CreateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, &models.ValidationError{Field: "body", Reason: "invalid JSON"})
		return
	}
	ticket, err := r.tickets.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, ticket)
}

// handleGetTicket handles GET /tickets/:ticket_id.
func (r *Router) handleGetTicket(c *gin.Context) {
	ticket, err := r.tickets.Get(c.Request.Context(), c.Param("ticket_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, ticket)
}

// handleUpdateTicket handles PATCH /tickets/:ticket_id. Unknown fields in
// the body are ignored; only the whitelisted patch fields apply.
func (r *Router) handleUpdateTicket(c *gin.Context) {
	var patch models.TicketPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondError(c, &models.ValidationError{Field: "body", Reason: "invalid JSON"})
		return
	}
	ticket, err := r.tickets.Update(c.Request.Context(), c.Param("ticket_id"), &patch)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, ticket)
}
