package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/amail-io/amail-ce/internal/models"
)

// respondSuccess writes the standard success envelope.
func respondSuccess(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{
		"success":   true,
		"data":      data,
		"timestamp": models.NowTimestamp(),
	})
}

// respondError maps the core error taxonomy to transport status codes:
// validation failures are the caller's fault (400), absent tickets and
// sessions are 404, upstream store/completion failures are 502, anything
// else is 500.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	var ve *models.ValidationError
	var ue *models.UpstreamError
	switch {
	case errors.As(err, &ve):
		status = http.StatusBadRequest
	case errors.Is(err, models.ErrTicketNotFound):
		status = http.StatusNotFound
	case errors.As(err, &ue):
		status = http.StatusBadGateway
	}

	c.JSON(status, gin.H{
		"success": false,
		"error":   err.Error(),
	})
}
