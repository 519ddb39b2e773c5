package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/posync/internal/application/service"
	"github.com/sangkips/posync/internal/presentation/http/dto/request"
	"github.com/sangkips/posync/internal/presentation/http/dto/response"
)

// EstablishmentHandler handles the active tenant's establishment profile
type EstablishmentHandler struct {
	dataService *service.DataService
}

// NewEstablishmentHandler creates a new establishment handler
func NewEstablishmentHandler(dataService *service.DataService) *EstablishmentHandler {
	return &EstablishmentHandler{dataService: dataService}
}

func (h *EstablishmentHandler) Get(c *gin.Context) {
	est, err := h.dataService.GetEstablishment(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Establishment retrieved successfully", est)
}

// Save updates the establishment. Without a tenant the write is refused.
func (h *EstablishmentHandler) Save(c *gin.Context) {
	var req request.SaveEstablishmentRequest
	if !bind(c, &req) {
		return
	}

	est, err := h.dataService.SaveEstablishment(c.Request.Context(), req.ToEntity(GetTenantID(c)))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Establishment saved successfully", est)
}
