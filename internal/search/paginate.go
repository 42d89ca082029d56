package search

// PageSize is the fixed number of listing rows per page.
const PageSize = 5

// Page is a clamped pagination window over a list of Total items. The slice
// window is [Start, End) in 0-based offsets; the human-facing shown range is
// [Start+1, End].
type Page struct {
	Number int
	Start  int
	End    int
	Total  int
}

// Paginate clamps the requested 1-based page against total and computes the
// window. Requested values below 1 become page 1; values past the last page
// clamp to the last page. Callers must short-circuit the zero-result case
// before rendering; Paginate still yields an empty window for total == 0.
func Paginate(total, requested int) Page {
	last := lastPage(total)

	p := requested
	if p < 1 {
		p = 1
	}
	if p > last {
		p = last
	}

	start := (p - 1) * PageSize
	if start > total {
		start = total
	}
	end := start + PageSize
	if end > total {
		end = total
	}

	return Page{Number: p, Start: start, End: end, Total: total}
}

// LastPage reports the clamp ceiling for this window's total.
func (p Page) LastPage() int {
	return lastPage(p.Total)
}

// ShownRange reports the 1-based inclusive range of displayed items.
func (p Page) ShownRange() (int, int) {
	return p.Start + 1, p.End
}

func lastPage(total int) int {
	last := (total + PageSize - 1) / PageSize
	if last < 1 {
		last = 1
	}
	return last
}
