package lending

import (
	"context"
	"time"

	"github.com/iliyamo/library-lending/internal/model"
)

// Store is the transactional record store the engine runs against.
// The engine is the only component that mutates Book.Available or a
// record's returned state, and it does so exclusively through a Tx so
// that no half-applied state (counter moved without a ledger write,
// or vice versa) is ever observable.
//
// Lookup methods report absence by returning a nil record and a nil
// error; a non-nil error always means the storage layer itself failed
// and is propagated to the caller untouched.
type Store interface {
	// Begin opens a transaction. Implementations must guarantee that
	// the read-check-then-write sequences in a Tx are serialized per
	// affected row (row locks, serializable isolation or a coarser
	// lock are all acceptable).
	Begin(ctx context.Context) (Tx, error)

	// BooksByIDs returns the catalog rows for the given ids. Missing
	// ids are silently skipped; order of the result is unspecified.
	BooksByIDs(ctx context.Context, ids []uint64) ([]model.Book, error)

	// OpenRecordsByUser returns the user's open borrow records,
	// ordered by borrow timestamp descending, borrow id descending.
	OpenRecordsByUser(ctx context.Context, userID uint64) ([]model.BorrowRecord, error)

	// RecordsByUser returns all of the user's borrow records in the
	// same deterministic order as OpenRecordsByUser.
	RecordsByUser(ctx context.Context, userID uint64) ([]model.BorrowRecord, error)

	// OpenRecords returns every open borrow record in the ledger,
	// same ordering.
	OpenRecords(ctx context.Context) ([]model.BorrowRecord, error)
}

// Tx is a single transaction against the catalog and ledger. Either
// Commit or Rollback must be called exactly once; Rollback after a
// failed Commit is a no-op.
type Tx interface {
	// BookForUpdate loads a book row and locks it for the duration of
	// the transaction so concurrent borrows of the last copy are
	// serialized.
	BookForUpdate(ctx context.Context, bookID uint64) (*model.Book, error)

	// AdjustAvailable moves the availability counter by delta. The
	// engine only calls it with -1 on borrow and +1 on return, after
	// validating the preconditions under the row lock.
	AdjustAvailable(ctx context.Context, bookID uint64, delta int32) error

	// OpenRecord returns the unique open record for (user, book), or
	// nil when the user holds no open loan of that title.
	OpenRecord(ctx context.Context, userID, bookID uint64) (*model.BorrowRecord, error)

	// LatestRecord returns the most recent record for (user, book)
	// regardless of state, used to tell "already returned" apart from
	// "never borrowed".
	LatestRecord(ctx context.Context, userID, bookID uint64) (*model.BorrowRecord, error)

	// RecordByID fetches a ledger entry by its borrow id.
	RecordByID(ctx context.Context, borrowID string) (*model.BorrowRecord, error)

	// InsertRecord appends a new open record to the ledger.
	InsertRecord(ctx context.Context, rec *model.BorrowRecord) error

	// CloseRecord flips an open record to returned at the given time.
	// It reports false when the record was already closed, in which
	// case nothing was written.
	CloseRecord(ctx context.Context, borrowID string, at time.Time) (bool, error)

	Commit() error
	Rollback() error
}
