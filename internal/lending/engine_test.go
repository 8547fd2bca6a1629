package lending

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/library-lending/internal/model"
)

func newEngine(t *testing.T, available uint32) (*Engine, *MemStore, model.Book) {
	t.Helper()
	store := NewMemStore()
	book := store.PutBook(model.Book{
		ISBN:      "978-0134190440",
		Title:     "The Go Programming Language",
		Available: available,
	})
	return New(store, 0), store, book
}

func TestBorrowHappyPath(t *testing.T) {
	eng, store, book := newEngine(t, 2)

	rec, err := eng.Borrow(context.Background(), Identity{UserID: 1}, book.ID)
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.NotEmpty(t, rec.BorrowID)
	assert.Equal(t, uint64(1), rec.UserID)
	assert.Equal(t, book.ID, rec.BookID)
	assert.False(t, rec.Returned)
	assert.Equal(t, rec.BorrowTimestamp.Add(DefaultReturnPeriod), rec.ExpectedReturn)
	assert.Equal(t, uint32(1), store.Book(book.ID).Available)
}

func TestBorrowUnknownBook(t *testing.T) {
	eng, _, _ := newEngine(t, 1)

	rec, err := eng.Borrow(context.Background(), Identity{UserID: 1}, 999)
	assert.ErrorIs(t, err, ErrBookNotFound)
	assert.Nil(t, rec)
}

func TestBorrowNoCopiesLeft(t *testing.T) {
	eng, _, book := newEngine(t, 1)

	_, err := eng.Borrow(context.Background(), Identity{UserID: 1}, book.ID)
	require.NoError(t, err)

	_, err = eng.Borrow(context.Background(), Identity{UserID: 2}, book.ID)
	assert.ErrorIs(t, err, ErrAlreadyBorrowed)
}

func TestBorrowSameUserTwice(t *testing.T) {
	// Plenty of copies on the shelf; the second borrow still fails
	// because the user already holds one.
	eng, store, book := newEngine(t, 5)
	actor := Identity{UserID: 7}

	_, err := eng.Borrow(context.Background(), actor, book.ID)
	require.NoError(t, err)

	_, err = eng.Borrow(context.Background(), actor, book.ID)
	assert.ErrorIs(t, err, ErrAlreadyBorrowed)
	assert.Equal(t, uint32(4), store.Book(book.ID).Available)
}

func TestBorrowSameUserConflictWhenShelfEmpty(t *testing.T) {
	// The duplicate-loan conflict is reported even when availability
	// alone would already refuse the borrow.
	eng, _, book := newEngine(t, 1)
	actor := Identity{UserID: 7}

	_, err := eng.Borrow(context.Background(), actor, book.ID)
	require.NoError(t, err)

	_, err = eng.Borrow(context.Background(), actor, book.ID)
	assert.ErrorIs(t, err, ErrAlreadyBorrowed)
}

func TestConcurrentBorrowLastCopy(t *testing.T) {
	const workers = 16
	eng, store, book := newEngine(t, 1)

	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = eng.Borrow(context.Background(), Identity{UserID: uint64(i + 1)}, book.ID)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, ErrAlreadyBorrowed)
		}
	}
	assert.Equal(t, 1, wins, "exactly one borrower should win the last copy")
	assert.Equal(t, uint32(0), store.Book(book.ID).Available)
}

func TestReturnHappyPath(t *testing.T) {
	eng, store, book := newEngine(t, 1)
	actor := Identity{UserID: 3}

	_, err := eng.Borrow(context.Background(), actor, book.ID)
	require.NoError(t, err)
	require.Equal(t, uint32(0), store.Book(book.ID).Available)

	rec, err := eng.Return(context.Background(), actor, book.ID, "")
	require.NoError(t, err)
	assert.True(t, rec.Returned)
	require.NotNil(t, rec.ReturnTimestamp)
	assert.Equal(t, uint32(1), store.Book(book.ID).Available)
}

func TestReturnIdempotence(t *testing.T) {
	eng, store, book := newEngine(t, 1)
	actor := Identity{UserID: 3}

	_, err := eng.Borrow(context.Background(), actor, book.ID)
	require.NoError(t, err)
	_, err = eng.Return(context.Background(), actor, book.ID, "")
	require.NoError(t, err)

	_, err = eng.Return(context.Background(), actor, book.ID, "")
	assert.ErrorIs(t, err, ErrAlreadyReturned)
	// Availability moved exactly once.
	assert.Equal(t, uint32(1), store.Book(book.ID).Available)
}

func TestReturnNeverBorrowed(t *testing.T) {
	eng, _, book := newEngine(t, 1)

	_, err := eng.Return(context.Background(), Identity{UserID: 3}, book.ID, "")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestReturnByExplicitBorrowID(t *testing.T) {
	eng, _, book := newEngine(t, 2)
	actor := Identity{UserID: 3}

	first, err := eng.Borrow(context.Background(), actor, book.ID)
	require.NoError(t, err)

	rec, err := eng.Return(context.Background(), actor, book.ID, first.BorrowID)
	require.NoError(t, err)
	assert.Equal(t, first.BorrowID, rec.BorrowID)

	_, err = eng.Return(context.Background(), actor, book.ID, first.BorrowID)
	assert.ErrorIs(t, err, ErrAlreadyReturned)
}

func TestReturnUnknownBorrowID(t *testing.T) {
	eng, _, book := newEngine(t, 1)

	_, err := eng.Return(context.Background(), Identity{UserID: 3}, book.ID, "no-such-id")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestReturnOwnership(t *testing.T) {
	eng, store, book := newEngine(t, 1)
	owner := Identity{UserID: 3}

	rec, err := eng.Borrow(context.Background(), owner, book.ID)
	require.NoError(t, err)

	// Another user probing the borrow id is refused before any state
	// is inspected.
	_, err = eng.Return(context.Background(), Identity{UserID: 4}, book.ID, rec.BorrowID)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, uint32(0), store.Book(book.ID).Available)

	// An admin may close out any user's loan.
	closed, err := eng.Return(context.Background(), Identity{UserID: 9, Admin: true}, book.ID, rec.BorrowID)
	require.NoError(t, err)
	assert.Equal(t, owner.UserID, closed.UserID)
	assert.Equal(t, uint32(1), store.Book(book.ID).Available)
}

func TestConcurrentReturnSameRecord(t *testing.T) {
	const workers = 8
	eng, store, book := newEngine(t, 1)
	actor := Identity{UserID: 3}

	rec, err := eng.Borrow(context.Background(), actor, book.ID)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = eng.Return(context.Background(), actor, book.ID, rec.BorrowID)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, ErrAlreadyReturned)
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, uint32(1), store.Book(book.ID).Available, "availability incremented exactly once")
}

func TestUnreturnedAndHistory(t *testing.T) {
	store := NewMemStore()
	eng := New(store, 0)
	actor := Identity{UserID: 5}

	a := store.PutBook(model.Book{ISBN: "1", Title: "A", Available: 1})
	b := store.PutBook(model.Book{ISBN: "2", Title: "B", Available: 1})
	c := store.PutBook(model.Book{ISBN: "3", Title: "C", Available: 1})

	for _, id := range []uint64{a.ID, b.ID, c.ID} {
		_, err := eng.Borrow(context.Background(), actor, id)
		require.NoError(t, err)
	}
	_, err := eng.Return(context.Background(), actor, b.ID, "")
	require.NoError(t, err)

	held, err := eng.Unreturned(context.Background(), actor.UserID)
	require.NoError(t, err)
	titles := make([]string, 0, len(held))
	for _, bk := range held {
		titles = append(titles, bk.Title)
	}
	assert.ElementsMatch(t, []string{"A", "C"}, titles)

	hist, err := eng.History(context.Background(), actor.UserID)
	require.NoError(t, err)
	require.Len(t, hist, 3)
	// Deterministic order: repeated reads without writes are identical.
	again, err := eng.History(context.Background(), actor.UserID)
	require.NoError(t, err)
	assert.Equal(t, hist, again)
	for i := 1; i < len(hist); i++ {
		prev, cur := hist[i-1], hist[i]
		if prev.BorrowTimestamp.Equal(cur.BorrowTimestamp) {
			assert.Greater(t, prev.BorrowID, cur.BorrowID)
		} else {
			assert.True(t, prev.BorrowTimestamp.After(cur.BorrowTimestamp))
		}
	}
}

func TestHistoryEmptyUser(t *testing.T) {
	eng, _, _ := newEngine(t, 1)

	hist, err := eng.History(context.Background(), 42)
	require.NoError(t, err)
	assert.Empty(t, hist)

	held, err := eng.Unreturned(context.Background(), 42)
	require.NoError(t, err)
	assert.Empty(t, held)
}

func TestOpenBorrowsAdminOnly(t *testing.T) {
	eng, _, book := newEngine(t, 1)

	_, err := eng.Borrow(context.Background(), Identity{UserID: 1}, book.ID)
	require.NoError(t, err)

	_, err = eng.OpenBorrows(context.Background(), Identity{UserID: 1})
	assert.ErrorIs(t, err, ErrForbidden)

	recs, err := eng.OpenBorrows(context.Background(), Identity{UserID: 2, Admin: true})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, uint64(1), recs[0].UserID)
}

func TestAvailabilityNeverNegativeUnderLoad(t *testing.T) {
	const users = 10
	eng, store, book := newEngine(t, 3)

	var wg sync.WaitGroup
	for i := 0; i < users; i++ {
		wg.Add(1)
		go func(uid uint64) {
			defer wg.Done()
			for j := 0; j < 5; j++ {
				if _, err := eng.Borrow(context.Background(), Identity{UserID: uid}, book.ID); err != nil {
					continue
				}
				_, _ = eng.Return(context.Background(), Identity{UserID: uid}, book.ID, "")
			}
		}(uint64(i + 1))
	}
	wg.Wait()

	got := store.Book(book.ID)
	require.NotNil(t, got)
	assert.LessOrEqual(t, got.Available, uint32(3))
}
