package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/posync/internal/application/service"
	"github.com/sangkips/posync/internal/presentation/http/dto/request"
	"github.com/sangkips/posync/internal/presentation/http/dto/response"
)

// ClientHandler handles client-related HTTP requests
type ClientHandler struct {
	dataService *service.DataService
}

// NewClientHandler creates a new client handler
func NewClientHandler(dataService *service.DataService) *ClientHandler {
	return &ClientHandler{dataService: dataService}
}

func (h *ClientHandler) List(c *gin.Context) {
	clients, err := h.dataService.ListClients(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	respondList(c, "Clients retrieved successfully", clients)
}

func (h *ClientHandler) Save(c *gin.Context) {
	var req request.SaveClientRequest
	if !bind(c, &req) {
		return
	}

	client, err := h.dataService.SaveClient(c.Request.Context(), req.ToEntity())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Client saved successfully", client)
}

func (h *ClientHandler) Delete(c *gin.Context) {
	result, err := h.dataService.DeleteClient(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Client deleted successfully", result)
}
