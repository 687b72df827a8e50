// Package pagination computes which page controls a list view renders.
package pagination

import "strconv"

// Entry is one middle control: a page number or a collapsed gap.
type Entry struct {
	Page     int
	Ellipsis bool
}

// Page returns an entry for page n.
func Page(n int) Entry { return Entry{Page: n} }

// Gap returns a collapsed marker.
func Gap() Entry { return Entry{Ellipsis: true} }

func (e Entry) String() string {
	if e.Ellipsis {
		return "..."
	}
	return strconv.Itoa(e.Page)
}

// Window returns the middle controls for currentPage out of pageCount pages.
// The first and last pages are not included; see Controls.
//
// currentPage must lie in [1, pageCount] when pageCount >= 1. Use Clamp
// on untrusted input.
func Window(pageCount, currentPage int) []Entry {
	switch {
	case pageCount < 3:
		return []Entry{}
	case pageCount < 6:
		out := make([]Entry, 0, pageCount-2)
		for p := 2; p < pageCount; p++ {
			out = append(out, Page(p))
		}
		return out
	}

	first := currentPage - 1
	if currentPage < 3 {
		first = 2
	}
	if currentPage > pageCount-2 {
		first = pageCount - 3
	}
	last := first + 2

	out := make([]Entry, 0, 5)
	if first > 3 {
		out = append(out, Gap())
	}
	for p := first; p <= last; p++ {
		out = append(out, Page(p))
	}
	if last < pageCount-2 {
		out = append(out, Gap())
	}
	return out
}

// PageCount returns the number of pages needed for total items.
func PageCount(total, size int) int {
	if total <= 0 || size <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

// Clamp forces page into [1, pageCount]. With no pages it returns 1.
func Clamp(page, pageCount int) int {
	if page > pageCount {
		page = pageCount
	}
	if page < 1 {
		page = 1
	}
	return page
}

// Bar is the full pagination control set of a list view.
type Bar struct {
	Current     int
	PageCount   int
	First       int
	Middle      []Entry
	Last        int // 0 when there is a single page
	HasPrevious bool
	HasNext     bool
}

// Controls builds the control bar. The first page is always shown, the last
// only when it differs from the first. currentPage is clamped.
func Controls(pageCount, currentPage int) Bar {
	cur := Clamp(currentPage, pageCount)
	b := Bar{
		Current:     cur,
		PageCount:   pageCount,
		First:       1,
		Middle:      Window(pageCount, cur),
		HasPrevious: cur > 1,
		HasNext:     cur < pageCount,
	}
	if pageCount > 1 {
		b.Last = pageCount
	}
	return b
}

// Entries flattens the bar into first, middle and last controls.
func (b Bar) Entries() []Entry {
	out := make([]Entry, 0, len(b.Middle)+2)
	out = append(out, Page(b.First))
	out = append(out, b.Middle...)
	if b.Last > 0 {
		out = append(out, Page(b.Last))
	}
	return out
}

// Slice returns the items of the given 1-based page.
func Slice[T any](items []T, page, size int) []T {
	if size <= 0 || page < 1 {
		return nil
	}
	start := (page - 1) * size
	if start >= len(items) {
		return nil
	}
	end := min(start+size, len(items))
	return items[start:end]
}
