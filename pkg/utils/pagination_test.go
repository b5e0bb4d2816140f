package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetPaginationParams(t *testing.T) {
	tests := []struct {
		page, limit int
		want  PaginationParams
	}{
		{0, -1, PaginationParams{Page: 1, Limit: 0}},
		{2, 20, PaginationParams{Page: 2, Limit: 20}},
		{3, 500, PaginationParams{Page: 3, Limit: MaxPageLimit}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, GetPaginationParams(tt.page, tt.limit))
	}
}

func TestParsePagination(t *testing.T) {
	assert.Equal(t, PaginationParams{Page: 1, Limit: 20}, ParsePagination("", "", 20))
	assert.Equal(t, PaginationParams{Page: 4, Limit: 5}, ParsePagination(" 4 ", "5", 20))
	assert.Equal(t, PaginationParams{Page: 1, Limit: 20}, ParsePagination("first", "many", 20))
	assert.Equal(t, PaginationParams{Page: 1, Limit: MaxPageLimit}, ParsePagination("-2", "1000", 20))
}

func TestCalculateOffset(t *testing.T) {
	assert.Equal(t, 0, PaginationParams{Page: 1, Limit: 20}.CalculateOffset())
	assert.Equal(t, 40, PaginationParams{Page: 3, Limit: 20}.CalculateOffset())
	assert.Equal(t, 0, PaginationParams{Page: 3, Limit: 0}.CalculateOffset())
}

func TestCalculateMeta(t *testing.T) {
	meta := CalculateMeta(101, 2, 20)
	assert.Equal(t, PaginationMeta{Page: 2, Limit: 20, TotalCount: 101, TotalPages: 6}, meta)

	assert.Equal(t, 0, CalculateMeta(0, 1, 20).TotalPages)

	all := CalculateMeta(15, 3, 0)
	assert.Equal(t, PaginationMeta{Page: 1, Limit: 15, TotalCount: 15, TotalPages: 1}, all)
}
