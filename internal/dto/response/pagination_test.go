package response

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPaginatedResponse(t *testing.T) {
	page := NewPaginatedResponse([]string{"a", "b"}, 2, 10, 21)

	assert.Equal(t, []string{"a", "b"}, page.Data)
	assert.Equal(t, PaginationMeta{Total: 21, Page: 2, PerPage: 10, TotalPages: 3}, page.Pagination)

	empty := NewPaginatedResponse([]int{}, 1, 10, 0)
	assert.Equal(t, 0, empty.Pagination.TotalPages)
}
