package shared

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseListOptionsDefaults(t *testing.T) {
	r := httptest.NewRequest("GET", "/users", nil)

	opts := ParseListOptions(r)

	assert.Equal(t, 1, opts.Page)
	assert.Equal(t, 10, opts.Limit)
	assert.Empty(t, opts.Search)
}

func TestParseListOptionsClamps(t *testing.T) {
	r := httptest.NewRequest("GET", "/users?page=-3&limit=500&search=ada", nil)

	opts := ParseListOptions(r)

	assert.Equal(t, 1, opts.Page)
	assert.Equal(t, 100, opts.Limit)
	assert.Equal(t, "ada", opts.Search)
}

func TestOffset(t *testing.T) {
	assert.Equal(t, 0, ListOptions{Page: 1, Limit: 10}.Offset())
	assert.Equal(t, 40, ListOptions{Page: 5, Limit: 10}.Offset())
}

func TestNewMeta(t *testing.T) {
	meta := NewMeta(ListOptions{Page: 2, Limit: 10}, 25)

	assert.Equal(t, 2, meta.CurrentPage)
	assert.Equal(t, 3, meta.TotalPages)
	assert.Equal(t, 10, meta.PageSize)
	assert.Equal(t, 25, meta.TotalItems)
	assert.True(t, meta.HasMore)
}

func TestNewMetaLastPage(t *testing.T) {
	meta := NewMeta(ListOptions{Page: 3, Limit: 10}, 25)

	assert.False(t, meta.HasMore)
}

func TestNewMetaEmpty(t *testing.T) {
	meta := NewMeta(ListOptions{Page: 1, Limit: 10}, 0)

	assert.Equal(t, 0, meta.TotalPages)
	assert.False(t, meta.HasMore)
}
