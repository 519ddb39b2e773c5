package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/posync/internal/application/service"
	"github.com/sangkips/posync/internal/presentation/http/dto/request"
	"github.com/sangkips/posync/internal/presentation/http/dto/response"
)

// ProductHandler handles product-related HTTP requests
type ProductHandler struct {
	dataService *service.DataService
}

// NewProductHandler creates a new product handler
func NewProductHandler(dataService *service.DataService) *ProductHandler {
	return &ProductHandler{dataService: dataService}
}

// List returns the tenant's products, newest first
func (h *ProductHandler) List(c *gin.Context) {
	products, err := h.dataService.ListProducts(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	respondList(c, "Products retrieved successfully", products)
}

// Save creates or replaces a product
func (h *ProductHandler) Save(c *gin.Context) {
	var req request.SaveProductRequest
	if !bind(c, &req) {
		return
	}

	product, err := h.dataService.SaveProduct(c.Request.Context(), req.ToEntity())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Product saved successfully", product)
}

// Delete removes a product locally and on the server, queueing the server
// delete when it cannot be reached
func (h *ProductHandler) Delete(c *gin.Context) {
	result, err := h.dataService.DeleteProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Product deleted successfully", result)
}
