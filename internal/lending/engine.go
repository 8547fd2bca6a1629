package lending

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/library-lending/internal/model"
)

// DefaultReturnPeriod is used when no return period is configured.
const DefaultReturnPeriod = 14 * 24 * time.Hour

// Identity is the resolved caller handed in by the access gate. The
// engine performs no authentication itself; it trusts the UserID and
// Admin flag it is given and only enforces ownership rules with them.
type Identity struct {
	UserID uint64 // authenticated user id
	Admin  bool   // librarian privileges
}

// Engine orchestrates borrow and return operations against the
// catalog and the borrow ledger. Every check-then-act sequence runs
// inside a single Store transaction, so concurrent requests against
// the same book or record serialize on the underlying row locks:
// two borrows racing for the last copy produce exactly one success,
// and two returns of the same record increment availability once.
type Engine struct {
	store        Store
	returnPeriod time.Duration
}

// New constructs an Engine. A non-positive returnPeriod falls back to
// DefaultReturnPeriod.
func New(store Store, returnPeriod time.Duration) *Engine {
	if store == nil {
		panic("nil store passed to lending.New")
	}
	if returnPeriod <= 0 {
		returnPeriod = DefaultReturnPeriod
	}
	return &Engine{store: store, returnPeriod: returnPeriod}
}

// Borrow takes one copy of the book off the shelf for the actor and
// appends an open record to the ledger. Preconditions, in order: the
// book exists, the actor holds no open loan of the same title, and at
// least one copy is available. The availability decrement and the
// ledger insert commit together or not at all.
//
// It returns ErrBookNotFound when the book does not exist and
// ErrAlreadyBorrowed on either conflict.
func (e *Engine) Borrow(ctx context.Context, actor Identity, bookID uint64) (*model.BorrowRecord, error) {
	tx, err := e.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	book, err := tx.BookForUpdate(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, ErrBookNotFound
	}
	// The duplicate-loan check runs before the availability check on
	// purpose: a user already holding this title gets the conflict
	// even when the shelf is empty for unrelated reasons.
	open, err := tx.OpenRecord(ctx, actor.UserID, bookID)
	if err != nil {
		return nil, err
	}
	if open != nil {
		return nil, ErrAlreadyBorrowed
	}
	if book.Available < 1 {
		return nil, ErrAlreadyBorrowed
	}

	now := time.Now().UTC()
	rec := &model.BorrowRecord{
		BorrowID:        uuid.NewString(),
		UserID:          actor.UserID,
		BookID:          bookID,
		BorrowTimestamp: now,
		ExpectedReturn:  now.Add(e.returnPeriod),
		Returned:        false,
	}
	if err := tx.AdjustAvailable(ctx, bookID, -1); err != nil {
		return nil, err
	}
	if err := tx.InsertRecord(ctx, rec); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return rec, nil
}

// Return closes a borrow record and puts the copy back on the shelf.
// Two addressing modes are supported and this is the API contract:
// when borrowID is non-empty it takes precedence and the record is
// looked up by id, otherwise the unique open record for (actor, book)
// is targeted. An explicit borrowID must belong to the actor unless
// the actor is an admin, who may close out any user's open loan.
//
// The record update and the availability increment commit together.
// Returning the same loan twice yields ErrAlreadyReturned on the
// second call and never double-increments availability.
func (e *Engine) Return(ctx context.Context, actor Identity, bookID uint64, borrowID string) (*model.BorrowRecord, error) {
	tx, err := e.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var rec *model.BorrowRecord
	if borrowID != "" {
		rec, err = tx.RecordByID(ctx, borrowID)
		if err != nil {
			return nil, err
		}
		if rec == nil {
			return nil, ErrRecordNotFound
		}
		// Ownership is checked before state so that probing other
		// users' borrow ids reveals nothing about them.
		if !actor.Admin && rec.UserID != actor.UserID {
			return nil, ErrForbidden
		}
	} else {
		rec, err = tx.OpenRecord(ctx, actor.UserID, bookID)
		if err != nil {
			return nil, err
		}
		if rec == nil {
			last, lerr := tx.LatestRecord(ctx, actor.UserID, bookID)
			if lerr != nil {
				return nil, lerr
			}
			if last != nil && last.Returned {
				return nil, ErrAlreadyReturned
			}
			return nil, ErrRecordNotFound
		}
	}
	if rec.Returned {
		return nil, ErrAlreadyReturned
	}

	now := time.Now().UTC()
	closed, err := tx.CloseRecord(ctx, rec.BorrowID, now)
	if err != nil {
		return nil, err
	}
	if !closed {
		// Lost a race against a concurrent return of the same record.
		return nil, ErrAlreadyReturned
	}
	if err := tx.AdjustAvailable(ctx, rec.BookID, 1); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	out := *rec
	out.Returned = true
	out.ReturnTimestamp = &now
	return &out, nil
}

// Unreturned returns the books the user currently holds, most recent
// borrow first. Ordering follows the ledger's deterministic order
// (borrow timestamp, then borrow id), so repeated calls without
// intervening mutations produce identical output.
func (e *Engine) Unreturned(ctx context.Context, userID uint64) ([]model.Book, error) {
	recs, err := e.store.OpenRecordsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return []model.Book{}, nil
	}
	ids := make([]uint64, 0, len(recs))
	for _, r := range recs {
		ids = append(ids, r.BookID)
	}
	books, err := e.store.BooksByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint64]model.Book, len(books))
	for _, b := range books {
		byID[b.ID] = b
	}
	out := make([]model.Book, 0, len(recs))
	for _, r := range recs {
		if b, ok := byID[r.BookID]; ok {
			out = append(out, b)
		}
	}
	return out, nil
}

// History returns all of the user's borrow records, open and closed,
// in the same deterministic order as Unreturned.
func (e *Engine) History(ctx context.Context, userID uint64) ([]model.BorrowRecord, error) {
	recs, err := e.store.RecordsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if recs == nil {
		recs = []model.BorrowRecord{}
	}
	return recs, nil
}

// OpenBorrows lists every open record in the ledger. It is an
// admin-only view; non-admin actors get ErrForbidden even if the
// HTTP layer misses the gate.
func (e *Engine) OpenBorrows(ctx context.Context, actor Identity) ([]model.BorrowRecord, error) {
	if !actor.Admin {
		return nil, ErrForbidden
	}
	recs, err := e.store.OpenRecords(ctx)
	if err != nil {
		return nil, err
	}
	if recs == nil {
		recs = []model.BorrowRecord{}
	}
	return recs, nil
}
