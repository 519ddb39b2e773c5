package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/posync/internal/application/service"
	"github.com/sangkips/posync/internal/presentation/http/dto/response"
)

// SyncHandler triggers sync runs on demand
type SyncHandler struct {
	engine      *service.SyncEngine
	dataService *service.DataService
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(engine *service.SyncEngine, dataService *service.DataService) *SyncHandler {
	return &SyncHandler{engine: engine, dataService: dataService}
}

func (h *SyncHandler) Push(c *gin.Context) {
	res, err := h.engine.PushChanges(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Push completed", res)
}

func (h *SyncHandler) Pull(c *gin.Context) {
	res, err := h.engine.PullChanges(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Pull completed", res)
}

// Sync pushes then pulls
func (h *SyncHandler) Sync(c *gin.Context) {
	res, err := h.engine.Sync(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Sync completed", res)
}

func (h *SyncHandler) PendingDeletes(c *gin.Context) {
	pending, err := h.dataService.PendingDeletes(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Pending deletes retrieved successfully", pending)
}

func (h *SyncHandler) ReplayDeletes(c *gin.Context) {
	replayed, err := h.engine.ReplayDeletes(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Pending deletes replayed", gin.H{"replayed": replayed})
}
