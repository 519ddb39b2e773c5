package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/posync/internal/application/service"
	"github.com/sangkips/posync/internal/presentation/http/dto/request"
	"github.com/sangkips/posync/internal/presentation/http/dto/response"
	"github.com/sangkips/posync/pkg/apperror"
)

// SessionHandler handles the token hand-off from the UI's auth layer
type SessionHandler struct {
	dataService *service.DataService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(dataService *service.DataService) *SessionHandler {
	return &SessionHandler{dataService: dataService}
}

// Start adopts the caller's access token
func (h *SessionHandler) Start(c *gin.Context) {
	var req request.StartSessionRequest
	if !bind(c, &req) {
		return
	}

	info, err := h.dataService.StartSession(c.Request.Context(), req.AccessToken)
	if err != nil {
		if !apperror.IsAppError(err) {
			err = apperror.ErrInvalidToken
		}
		response.Error(c, err)
		return
	}

	response.OK(c, "Session started", info)
}

// End logs out: local business data is wiped, queued deletes are kept
func (h *SessionHandler) End(c *gin.Context) {
	if err := h.dataService.Logout(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
