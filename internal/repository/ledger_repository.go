package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/library-lending/internal/model"
)

// LedgerRepo provides data access to the `borrow_records` table, the
// append-mostly audit trail of lending activity. Rows are inserted by
// a borrow, closed exactly once by the matching return and never
// deleted. All list queries share one deterministic ordering
// (borrow_timestamp DESC, borrow_id DESC) so repeated reads without
// intervening writes return identical sequences.
type LedgerRepo struct {
	db *sql.DB
}

// NewLedgerRepo returns a new LedgerRepo bound to the given database.
func NewLedgerRepo(db *sql.DB) *LedgerRepo { return &LedgerRepo{db: db} }

const recordColumns = `borrow_id, user_id, book_id, borrow_timestamp, expected_return, return_timestamp, returned`

const recordOrder = ` ORDER BY borrow_timestamp DESC, borrow_id DESC`

// scanRecord reads one row in recordColumns order.
func scanRecord(row interface{ Scan(...any) error }) (model.BorrowRecord, error) {
	var rec model.BorrowRecord
	var returnedAt sql.NullTime
	err := row.Scan(
		&rec.BorrowID, &rec.UserID, &rec.BookID,
		&rec.BorrowTimestamp, &rec.ExpectedReturn,
		&returnedAt, &rec.Returned,
	)
	if err != nil {
		return rec, err
	}
	if returnedAt.Valid {
		ts := returnedAt.Time
		rec.ReturnTimestamp = &ts
	}
	return rec, nil
}

func (r *LedgerRepo) list(ctx context.Context, query string, args ...any) ([]model.BorrowRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	recs := make([]model.BorrowRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return recs, nil
}

// OpenByUser returns the user's open borrow records.
func (r *LedgerRepo) OpenByUser(ctx context.Context, userID uint64) ([]model.BorrowRecord, error) {
	return r.list(ctx,
		`SELECT `+recordColumns+` FROM borrow_records WHERE user_id = ? AND returned = 0`+recordOrder,
		userID)
}

// AllByUser returns the user's full borrowing history.
func (r *LedgerRepo) AllByUser(ctx context.Context, userID uint64) ([]model.BorrowRecord, error) {
	return r.list(ctx,
		`SELECT `+recordColumns+` FROM borrow_records WHERE user_id = ?`+recordOrder,
		userID)
}

// AllOpen returns every open borrow record in the ledger.
func (r *LedgerRepo) AllOpen(ctx context.Context) ([]model.BorrowRecord, error) {
	return r.list(ctx,
		`SELECT `+recordColumns+` FROM borrow_records WHERE returned = 0`+recordOrder)
}

// OpenRecordTx returns the unique open record for (user, book) within
// the transaction, locking it for the duration. sql.ErrNoRows is
// passed through when the user holds no open loan of the title.
func (r *LedgerRepo) OpenRecordTx(ctx context.Context, tx *sql.Tx, userID, bookID uint64) (model.BorrowRecord, error) {
	return scanRecord(tx.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM borrow_records
		 WHERE user_id = ? AND book_id = ? AND returned = 0 LIMIT 1 FOR UPDATE`,
		userID, bookID))
}

// LatestRecordTx returns the most recent record for (user, book)
// regardless of state.
func (r *LedgerRepo) LatestRecordTx(ctx context.Context, tx *sql.Tx, userID, bookID uint64) (model.BorrowRecord, error) {
	return scanRecord(tx.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM borrow_records
		 WHERE user_id = ? AND book_id = ?`+recordOrder+` LIMIT 1`,
		userID, bookID))
}

// RecordByIDTx fetches a ledger entry by borrow id within the
// transaction, locking the row.
func (r *LedgerRepo) RecordByIDTx(ctx context.Context, tx *sql.Tx, borrowID string) (model.BorrowRecord, error) {
	return scanRecord(tx.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM borrow_records WHERE borrow_id = ? FOR UPDATE`,
		borrowID))
}

// InsertTx appends a new record within the transaction.
func (r *LedgerRepo) InsertTx(ctx context.Context, tx *sql.Tx, rec *model.BorrowRecord) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO borrow_records (borrow_id, user_id, book_id, borrow_timestamp, expected_return, returned)
		 VALUES (?, ?, ?, ?, ?, 0)`,
		rec.BorrowID, rec.UserID, rec.BookID,
		rec.BorrowTimestamp.UTC().Format("2006-01-02 15:04:05.000000"),
		rec.ExpectedReturn.UTC().Format("2006-01-02 15:04:05.000000"),
	)
	return err
}

// CloseTx flips an open record to returned at the given time. The
// returned = 0 guard makes the close idempotent at the SQL level: a
// record that is already closed matches no row and the method reports
// false without writing anything.
func (r *LedgerRepo) CloseTx(ctx context.Context, tx *sql.Tx, borrowID string, at time.Time) (bool, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE borrow_records SET returned = 1, return_timestamp = ? WHERE borrow_id = ? AND returned = 0`,
		at.UTC().Format("2006-01-02 15:04:05.000000"), borrowID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
