package gate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intRange(n int) []int {
	items := make([]int, n)
	for i := range items {
		items[i] = i
	}
	return items
}

func TestPaginateFirstPage(t *testing.T) {
	page := Paginate(intRange(25), 0, 10)

	assert.Equal(t, 0, page.Index)
	assert.Equal(t, 3, page.TotalPages)
	assert.Len(t, page.Items, 10)
	assert.Equal(t, 0, page.Items[0])
	assert.False(t, page.HasPrev)
	assert.True(t, page.HasNext)
}

func TestPaginateLastPage(t *testing.T) {
	page := Paginate(intRange(25), 2, 10)

	assert.Equal(t, 2, page.Index)
	assert.Len(t, page.Items, 5)
	assert.Equal(t, 20, page.Items[0])
	assert.True(t, page.HasPrev)
	assert.False(t, page.HasNext)
}

func TestPaginateClampsOutOfRange(t *testing.T) {
	items := intRange(25)

	below := Paginate(items, -5, 10)
	assert.Equal(t, 0, below.Index)

	above := Paginate(items, 99, 10)
	assert.Equal(t, 2, above.Index)
	assert.Len(t, above.Items, 5)
}

func TestPaginateEmpty(t *testing.T) {
	page := Paginate([]int{}, 0, 10)

	require.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
	assert.Equal(t, 1, page.TotalPages)
	assert.False(t, page.HasPrev)
	assert.False(t, page.HasNext)
}

func TestPaginateExactMultiple(t *testing.T) {
	page := Paginate(intRange(20), 1, 10)

	assert.Equal(t, 2, page.TotalPages)
	assert.Len(t, page.Items, 10)
	assert.False(t, page.HasNext)
}

func TestPaginateDefaultsSize(t *testing.T) {
	page := Paginate(intRange(15), 0, 0)

	assert.Len(t, page.Items, DefaultPageSize)
	assert.Equal(t, 2, page.TotalPages)
}
