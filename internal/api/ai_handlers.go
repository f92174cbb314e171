package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/amail-io/amail-ce/internal/models"
)

// handleChat handles POST /ai/chat, one conversation turn with session
// memory.
func (r *Router) handleChat(c *gin.Context) {
	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, &models.ValidationError{Field: "body", Reason: "invalid JSON"})
		return
	}
	result, err := r.ai.Chat(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, result)
}

// handleResetSession handles POST /ai/reset, discarding a session's
// history.
func (r *Router) handleResetSession(c *gin.Context) {
	var req models.ResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, &models.ValidationError{Field: "body", Reason: "invalid JSON"})
		return
	}
	if err := r.ai.Reset(c.Request.Context(), req.SessionID); err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"reset": true})
}
