package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/amail-io/amail-ce/internal/models"
)

// handleListMessages handles GET /tickets/:ticket_id/messages, returning
// the thread in chronological order.
func (r *Router) handleListMessages(c *gin.Context) {
	messages, err := r.messages.List(c.Request.Context(), c.Param("ticket_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, messages)
}

// handleAppendMessage handles POST /tickets/:ticket_id/messages.
func (r *Router) handleAppendMessage(c *gin.Context) {
	var req models.AppendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, &models.ValidationError{Field: "body", Reason: "invalid JSON"})
		return
	}
	msg, err := r.messages.Append(c.Request.Context(), c.Param("ticket_id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, msg)
}
