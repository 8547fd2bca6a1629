// Package pagination turns an ordered, already-materialized result
// list into a page-indexed window with previous/next links. It is
// pure: identical inputs always produce identical output, no I/O is
// performed and no state is held between calls.
package pagination

import (
	"errors"
	"fmt"
)

// ErrInvalidParameter is returned for a non-positive page size or
// page number. Handlers should translate this into HTTP 400.
var ErrInvalidParameter = errors.New("invalid pagination parameter")

// ErrPageOutOfRange is returned when the requested page lies past
// the final page, including any page other than 1 over an empty
// list. Handlers should translate this into HTTP 404.
var ErrPageOutOfRange = errors.New("page out of range")

// None marks the absence of a previous or next page in a Window.
const None = "None"

// Window is one page of a result list. Previous and Next carry the
// encoded link to the adjacent page, or None at the edges.
type Window[T any] struct {
	Previous string `json:"previous"`
	Next     string `json:"next"`
	Results  []T    `json:"results"`
}

// Paginate windows results for the 1-based page of the given size.
// Page p holds the items at zero-based indices [(p-1)*size, p*size),
// clipped to the list length on the final page. Links are encoded as
// baseURL?page=N&limit=size.
func Paginate[T any](results []T, pageSize, page int, baseURL string) (Window[T], error) {
	var w Window[T]
	if pageSize <= 0 || page <= 0 {
		return w, ErrInvalidParameter
	}
	pageCount := (len(results) + pageSize - 1) / pageSize
	if page > pageCount {
		// An empty list still has a well-defined first page.
		if len(results) == 0 && page == 1 {
			return Window[T]{Previous: None, Next: None, Results: []T{}}, nil
		}
		return w, ErrPageOutOfRange
	}

	if page == 1 {
		w.Previous = None
	} else {
		w.Previous = pageLink(baseURL, page-1, pageSize)
	}
	if page < pageCount {
		w.Next = pageLink(baseURL, page+1, pageSize)
	} else {
		w.Next = None
	}

	lo := (page - 1) * pageSize
	hi := lo + pageSize
	if hi > len(results) {
		hi = len(results)
	}
	w.Results = results[lo:hi]
	return w, nil
}

func pageLink(baseURL string, page, limit int) string {
	return fmt.Sprintf("%s?page=%d&limit=%d", baseURL, page, limit)
}
