package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaginateFiveItemsSizeThree(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e"}

	first, err := Paginate(items, 3, 1, "http://api/books")
	require.NoError(t, err)
	assert.Equal(t, None, first.Previous)
	assert.Equal(t, "http://api/books?page=2&limit=3", first.Next)
	assert.Equal(t, []string{"a", "b", "c"}, first.Results)

	second, err := Paginate(items, 3, 2, "http://api/books")
	require.NoError(t, err)
	assert.Equal(t, "http://api/books?page=1&limit=3", second.Previous)
	assert.Equal(t, None, second.Next)
	assert.Equal(t, []string{"d", "e"}, second.Results)

	// Walking every page touches each item exactly once.
	assert.Equal(t, items, append(append([]string{}, first.Results...), second.Results...))
}

func TestPaginateSinglePage(t *testing.T) {
	w, err := Paginate([]int{1, 2}, 10, 1, "http://api/books")
	require.NoError(t, err)
	assert.Equal(t, None, w.Previous)
	assert.Equal(t, None, w.Next)
	assert.Equal(t, []int{1, 2}, w.Results)
}

func TestPaginateEmptyList(t *testing.T) {
	w, err := Paginate([]int{}, 3, 1, "http://api/books")
	require.NoError(t, err)
	assert.Equal(t, None, w.Previous)
	assert.Equal(t, None, w.Next)
	assert.Empty(t, w.Results)

	_, err = Paginate([]int{}, 3, 2, "http://api/books")
	assert.ErrorIs(t, err, ErrPageOutOfRange)
}

func TestPaginateOutOfRange(t *testing.T) {
	_, err := Paginate([]int{1, 2, 3, 4, 5}, 3, 3, "http://api/books")
	assert.ErrorIs(t, err, ErrPageOutOfRange)
}

func TestPaginateInvalidParameters(t *testing.T) {
	cases := []struct {
		name     string
		pageSize int
		page     int
	}{
		{"zero size", 0, 1},
		{"negative size", -1, 1},
		{"zero page", 3, 0},
		{"negative page", 3, -2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Paginate([]int{1, 2, 3}, tc.pageSize, tc.page, "http://api/books")
			assert.ErrorIs(t, err, ErrInvalidParameter)
		})
	}
}

func TestPaginateIsPure(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e"}
	first, err := Paginate(items, 2, 2, "http://api/books")
	require.NoError(t, err)
	second, err := Paginate(items, 2, 2, "http://api/books")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
