package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	res := Paginate(items, PaginationParams{Page: 2, PerPage: 2})
	assert.Equal(t, []int{3, 4}, res.Items)
	assert.Equal(t, 3, res.Pagination.TotalPages)
	assert.True(t, res.Pagination.HasNext)
	assert.True(t, res.Pagination.HasPrev)

	res = Paginate(items, PaginationParams{Page: 3, PerPage: 2})
	assert.Equal(t, []int{5}, res.Items)
	assert.False(t, res.Pagination.HasNext)

	res = Paginate(items, PaginationParams{Page: 9, PerPage: 2})
	assert.Empty(t, res.Items)
	assert.Equal(t, 5, res.Pagination.Total)

	res = Paginate(items, PaginationParams{PerPage: 1000})
	assert.Equal(t, 1, res.Pagination.CurrentPage)
	assert.Equal(t, maxPerPage, res.Pagination.PerPage)
	assert.Len(t, res.Items, 5)
}

func TestRequested(t *testing.T) {
	assert.False(t, (&PaginationParams{}).Requested())
	assert.True(t, (&PaginationParams{Page: 1}).Requested())
	assert.True(t, (&PaginationParams{PerPage: 10}).Requested())
}
