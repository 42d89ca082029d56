package search_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/devhub-tools/wikibot/internal/search"
)

func TestPaginate(t *testing.T) {
	tests := []struct {
		name       string
		total      int
		requested  int
		wantPage   int
		wantStart  int
		wantEnd    int
		wantFirst  int
		wantLast   int
		wantOfLast int
	}{
		{name: "first page", total: 12, requested: 1, wantPage: 1, wantStart: 0, wantEnd: 5, wantFirst: 1, wantLast: 5, wantOfLast: 3},
		{name: "middle page", total: 12, requested: 2, wantPage: 2, wantStart: 5, wantEnd: 10, wantFirst: 6, wantLast: 10, wantOfLast: 3},
		{name: "clamp past end", total: 12, requested: 5, wantPage: 3, wantStart: 10, wantEnd: 12, wantFirst: 11, wantLast: 12, wantOfLast: 3},
		{name: "zero page becomes one", total: 7, requested: 0, wantPage: 1, wantStart: 0, wantEnd: 5, wantFirst: 1, wantLast: 5, wantOfLast: 2},
		{name: "negative page becomes one", total: 7, requested: -3, wantPage: 1, wantStart: 0, wantEnd: 5, wantFirst: 1, wantLast: 5, wantOfLast: 2},
		{name: "exact multiple", total: 10, requested: 2, wantPage: 2, wantStart: 5, wantEnd: 10, wantFirst: 6, wantLast: 10, wantOfLast: 2},
		{name: "short list", total: 3, requested: 9, wantPage: 1, wantStart: 0, wantEnd: 3, wantFirst: 1, wantLast: 3, wantOfLast: 1},
		{name: "empty list", total: 0, requested: 1, wantPage: 1, wantStart: 0, wantEnd: 0, wantFirst: 1, wantLast: 0, wantOfLast: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pg := search.Paginate(tt.total, tt.requested)
			require.Equal(t, tt.wantPage, pg.Number)
			require.Equal(t, tt.wantStart, pg.Start)
			require.Equal(t, tt.wantEnd, pg.End)
			require.Equal(t, tt.wantOfLast, pg.LastPage())

			first, last := pg.ShownRange()
			require.Equal(t, tt.wantFirst, first)
			require.Equal(t, tt.wantLast, last)
		})
	}
}

func TestPaginateWindowMatchesShownRange(t *testing.T) {
	for total := 0; total <= 23; total++ {
		for requested := -2; requested <= 8; requested++ {
			pg := search.Paginate(total, requested)

			require.GreaterOrEqual(t, pg.Number, 1)
			require.LessOrEqual(t, pg.Number, pg.LastPage())
			require.LessOrEqual(t, pg.End-pg.Start, search.PageSize)

			if total > 0 {
				first, last := pg.ShownRange()
				require.Equal(t, pg.End-pg.Start, last-first+1)
			}
		}
	}
}
