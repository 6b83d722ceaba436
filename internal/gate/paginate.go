package gate

// DefaultPageSize is the fixed page size for every list view.
const DefaultPageSize = 10

// Page is one window over a backing collection. It is derived on every
// render, never stored, so it always reflects the latest write.
type Page[T any] struct {
	Index      int
	TotalPages int
	Items      []T
	HasPrev    bool
	HasNext    bool
}

// Paginate slices items into the requested page. Out-of-range indexes
// are clamped rather than rejected: callers build navigation buttons
// only when valid, but a stale button must not crash the render.
func Paginate[T any](items []T, index, size int) Page[T] {
	if size <= 0 {
		size = DefaultPageSize
	}

	totalPages := (len(items) + size - 1) / size
	if totalPages == 0 {
		totalPages = 1
	}
	if index < 0 {
		index = 0
	}
	if index > totalPages-1 {
		index = totalPages - 1
	}

	start := index * size
	end := start + size
	if start > len(items) {
		start = len(items)
	}
	if end > len(items) {
		end = len(items)
	}

	return Page[T]{
		Index:      index,
		TotalPages: totalPages,
		Items:      items[start:end],
		HasPrev:    index > 0,
		HasNext:    index < totalPages-1,
	}
}
