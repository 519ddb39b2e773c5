package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/posync/internal/application/service"
	"github.com/sangkips/posync/internal/presentation/http/dto/request"
	"github.com/sangkips/posync/internal/presentation/http/dto/response"
)

// SaleHandler handles sales and financial transactions
type SaleHandler struct {
	dataService *service.DataService
}

// NewSaleHandler creates a new sale handler
func NewSaleHandler(dataService *service.DataService) *SaleHandler {
	return &SaleHandler{dataService: dataService}
}

// List returns sales with their items, newest first
func (h *SaleHandler) List(c *gin.Context) {
	sales, err := h.dataService.ListSales(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	respondList(c, "Sales retrieved successfully", sales)
}

// Record stores a sale and its items
func (h *SaleHandler) Record(c *gin.Context) {
	var req request.RecordSaleRequest
	if !bind(c, &req) {
		return
	}

	sale, err := h.dataService.RecordSale(c.Request.Context(), req.ToEntity())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Sale recorded successfully", sale)
}

func (h *SaleHandler) ListTransactions(c *gin.Context) {
	txs, err := h.dataService.ListTransactions(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	respondList(c, "Transactions retrieved successfully", txs)
}

func (h *SaleHandler) RecordTransaction(c *gin.Context) {
	var req request.RecordTransactionRequest
	if !bind(c, &req) {
		return
	}

	tx, err := h.dataService.RecordTransaction(c.Request.Context(), req.ToEntity())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Transaction recorded successfully", tx)
}
