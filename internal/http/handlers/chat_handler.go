// README: Conversation handlers (chat turns, stateless modification, sessions).
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"voyage/internal/service"
	"voyage/internal/types"
)

type ChatHandler struct {
	planner *service.TripPlanner
}

func NewChatHandler(planner *service.TripPlanner) *ChatHandler {
	return &ChatHandler{planner: planner}
}

type chatReq struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
}

// Chat handles POST /api/chat.
func (h *ChatHandler) Chat(c *gin.Context) {
	var req chatReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	req.SessionID = strings.TrimSpace(req.SessionID)
	if req.Message == "" {
		writeError(c, http.StatusBadRequest, "missing message")
		return
	}
	if len(req.Message) > maxMessageLen {
		writeError(c, http.StatusBadRequest, "message too long")
		return
	}
	if req.SessionID != "" && !isValidSessionID(req.SessionID) {
		writeError(c, http.StatusBadRequest, "invalid sessionId")
		return
	}

	resp, err := h.planner.ClassifyAndRespond(c.Request.Context(), req.Message, req.SessionID)
	if err != nil {
		writePlannerError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, resp)
}

type modifyReq struct {
	Message   string           `json:"message"`
	Itinerary *types.Itinerary `json:"itinerary"`
}

// Modify handles POST /api/itinerary/modify.
func (h *ChatHandler) Modify(c *gin.Context) {
	var req modifyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(req.Message) == "" || req.Itinerary == nil {
		writeError(c, http.StatusBadRequest, "missing message or itinerary")
		return
	}

	res, err := h.planner.ApplyModification(c.Request.Context(), req.Message, *req.Itinerary)
	if err != nil {
		writePlannerError(c, err)
		return
	}
	status := http.StatusOK
	if !res.Success {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(c, status, res)
}

// GetSession handles GET /api/sessions/:id.
func (h *ChatHandler) GetSession(c *gin.Context) {
	id := c.Param("id")
	if !isValidSessionID(id) {
		writeError(c, http.StatusBadRequest, "invalid id")
		return
	}
	st, err := h.planner.Session(c.Request.Context(), id)
	if err != nil {
		writePlannerError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, st)
}

// DeleteSession handles DELETE /api/sessions/:id.
func (h *ChatHandler) DeleteSession(c *gin.Context) {
	id := c.Param("id")
	if !isValidSessionID(id) {
		writeError(c, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.planner.ClearSession(c.Request.Context(), id); err != nil {
		writePlannerError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
