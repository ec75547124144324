package response

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculatePagination(t *testing.T) {
	cases := []struct {
		name      string
		page      int
		limit     int
		total     int64
		wantPage  int
		wantLimit int
		wantPages int
	}{
		{"plain", 2, 10, 35, 2, 10, 4},
		{"exact division", 1, 10, 30, 1, 10, 3},
		{"page below one clamps", 0, 10, 5, 1, 10, 1},
		{"zero limit falls back to default", 1, 0, 30, 1, 15, 2},
		{"limit capped at 100", 1, 500, 250, 1, 100, 3},
		{"empty set has zero pages", 1, 10, 0, 1, 10, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			meta := CalculatePagination(tc.page, tc.limit, tc.total)
			assert.Equal(t, tc.wantPage, meta.CurrentPage)
			assert.Equal(t, tc.wantLimit, meta.PerPage)
			assert.Equal(t, tc.total, meta.Total)
			assert.Equal(t, tc.wantPages, meta.TotalPages)
		})
	}
}
