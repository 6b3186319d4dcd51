// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"voyage/internal/modules/conversation"
	"voyage/internal/modules/itinerary"
	"voyage/internal/service"
	"voyage/internal/types"
)

type errorResponse struct {
	Error string `json:"error"`
}

const maxMessageLen = 2000

// isValidSessionID accepts UUIDs and short client-chosen ids.
func isValidSessionID(v string) bool {
	if v == "" || len(v) > 64 {
		return false
	}
	for _, c := range v {
		if (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '-' || c == '_' {
			continue
		}
		return false
	}
	return true
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

func writePlannerError(c *gin.Context, err error) {
	var (
		invalid *types.ValidationError
		genErr  *itinerary.GenerationError
	)
	switch {
	case errors.As(err, &invalid):
		writeError(c, http.StatusBadRequest, invalid.Error())
	case errors.As(err, &genErr):
		_ = c.Error(err)
		writeError(c, http.StatusBadGateway, fmt.Sprintf("could not generate the itinerary for %s", genErr.Destination))
	case errors.Is(err, service.ErrEmptyMessage), errors.Is(err, service.ErrNoItinerary):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, conversation.ErrSessionNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrSessionBusy):
		writeError(c, http.StatusConflict, err.Error())
	default:
		_ = c.Error(err)
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
