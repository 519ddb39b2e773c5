package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/posync/internal/application/service"
	"github.com/sangkips/posync/internal/presentation/http/dto/response"
)

// MaxBlobSize bounds a cached asset such as a receipt logo
const MaxBlobSize = 2 << 20

// BlobHandler serves small cached assets
type BlobHandler struct {
	dataService *service.DataService
}

// NewBlobHandler creates a new blob handler
func NewBlobHandler(dataService *service.DataService) *BlobHandler {
	return &BlobHandler{dataService: dataService}
}

func (h *BlobHandler) Get(c *gin.Context) {
	data, err := h.dataService.GetBlob(c.Request.Context(), c.Param("name"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Data(http.StatusOK, http.DetectContentType(data), data)
}

func (h *BlobHandler) Put(c *gin.Context) {
	data, err := io.ReadAll(io.LimitReader(c.Request.Body, MaxBlobSize+1))
	if err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}
	if len(data) > MaxBlobSize {
		response.ErrorWithCode(c, http.StatusRequestEntityTooLarge, "Blob too large")
		return
	}

	if err := h.dataService.PutBlob(c.Request.Context(), c.Param("name"), data); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
