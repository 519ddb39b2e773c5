package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/posync/internal/presentation/http/dto/response"
	"github.com/sangkips/posync/pkg/pagination"
	"github.com/sangkips/posync/pkg/validator"
)

// GetTenantID extracts the active tenant from the Gin context. It is empty
// in degraded mode.
func GetTenantID(c *gin.Context) string {
	return c.GetString("tenant_id")
}

// bind decodes the JSON body into req and validates it. It writes the error
// response itself and reports whether the handler may continue.
func bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return false
	}
	if err := validator.Validate(req); err != nil {
		response.Error(c, err)
		return false
	}
	return true
}

// respondList sends items whole, or one page of them when the query asks
// for page or per_page
func respondList[T any](c *gin.Context, message string, items []T) {
	var params pagination.PaginationParams
	if err := c.ShouldBindQuery(&params); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}
	if !params.Requested() {
		response.OK(c, message, items)
		return
	}
	response.SuccessWithPagination(c, 200, message, pagination.Paginate(items, params))
}
