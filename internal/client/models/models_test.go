package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTotalPagesFor(t *testing.T) {
	tests := []struct {
		total, limit, want int
	}{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{25, 10, 3},
		{5, 0, 0},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, TotalPagesFor(tc.total, tc.limit), "total=%d limit=%d", tc.total, tc.limit)
	}
}

func TestListParams_Normalize(t *testing.T) {
	got := ListParams{Page: 0, Limit: -1, Search: "x"}.Normalize()
	assert.Equal(t, ListParams{Page: 1, Limit: 10, Search: "x"}, got)

	kept := ListParams{Page: 3, Limit: 25}.Normalize()
	assert.Equal(t, ListParams{Page: 3, Limit: 25}, kept)
}

func TestPage_Navigation(t *testing.T) {
	p := Page{Page: 1, TotalPages: 3}
	assert.True(t, p.HasNext())
	assert.False(t, p.HasPrev())

	p.Page = 3
	assert.False(t, p.HasNext())
	assert.True(t, p.HasPrev())
}

func TestUpdateProductRequest_OmitsNilFields(t *testing.T) {
	req := UpdateProductRequest{Price: Ptr(9.99)}

	b, err := json.Marshal(req)
	require.NoError(t, err)
	assert.JSONEq(t, `{"price": 9.99}`, string(b))
	assert.False(t, req.IsEmpty())
	assert.True(t, UpdateProductRequest{}.IsEmpty())
}
