package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/library-lending/internal/lending"
	"github.com/iliyamo/library-lending/internal/model"
)

// LendingStore adapts the MySQL book and ledger repositories to the
// engine's transactional Store contract. Row serialization comes from
// InnoDB row locks: the engine's first read inside a transaction is
// FOR UPDATE, so concurrent operations on the same book or record
// queue up behind each other.
type LendingStore struct {
	db     *sql.DB
	books  *BookRepo
	ledger *LedgerRepo
}

// NewLendingStore wires the repositories into a lending.Store.
func NewLendingStore(db *sql.DB, books *BookRepo, ledger *LedgerRepo) *LendingStore {
	if db == nil || books == nil || ledger == nil {
		panic("nil dependency passed to NewLendingStore")
	}
	return &LendingStore{db: db, books: books, ledger: ledger}
}

// Begin implements lending.Store.
func (s *LendingStore) Begin(ctx context.Context) (lending.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &lendingTx{tx: tx, books: s.books, ledger: s.ledger}, nil
}

// BooksByIDs implements lending.Store.
func (s *LendingStore) BooksByIDs(ctx context.Context, ids []uint64) ([]model.Book, error) {
	return s.books.GetByIDsTxless(ctx, ids)
}

// OpenRecordsByUser implements lending.Store.
func (s *LendingStore) OpenRecordsByUser(ctx context.Context, userID uint64) ([]model.BorrowRecord, error) {
	return s.ledger.OpenByUser(ctx, userID)
}

// RecordsByUser implements lending.Store.
func (s *LendingStore) RecordsByUser(ctx context.Context, userID uint64) ([]model.BorrowRecord, error) {
	return s.ledger.AllByUser(ctx, userID)
}

// OpenRecords implements lending.Store.
func (s *LendingStore) OpenRecords(ctx context.Context) ([]model.BorrowRecord, error) {
	return s.ledger.AllOpen(ctx)
}

// lendingTx translates the repositories' sql.ErrNoRows convention
// into the engine's nil-on-absent contract.
type lendingTx struct {
	tx     *sql.Tx
	books  *BookRepo
	ledger *LedgerRepo
}

func (t *lendingTx) BookForUpdate(ctx context.Context, bookID uint64) (*model.Book, error) {
	b, err := t.books.GetForUpdateTx(ctx, t.tx, bookID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (t *lendingTx) AdjustAvailable(ctx context.Context, bookID uint64, delta int32) error {
	return t.books.AdjustAvailableTx(ctx, t.tx, bookID, delta)
}

func (t *lendingTx) OpenRecord(ctx context.Context, userID, bookID uint64) (*model.BorrowRecord, error) {
	rec, err := t.ledger.OpenRecordTx(ctx, t.tx, userID, bookID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (t *lendingTx) LatestRecord(ctx context.Context, userID, bookID uint64) (*model.BorrowRecord, error) {
	rec, err := t.ledger.LatestRecordTx(ctx, t.tx, userID, bookID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (t *lendingTx) RecordByID(ctx context.Context, borrowID string) (*model.BorrowRecord, error) {
	rec, err := t.ledger.RecordByIDTx(ctx, t.tx, borrowID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (t *lendingTx) InsertRecord(ctx context.Context, rec *model.BorrowRecord) error {
	return t.ledger.InsertTx(ctx, t.tx, rec)
}

func (t *lendingTx) CloseRecord(ctx context.Context, borrowID string, at time.Time) (bool, error) {
	return t.ledger.CloseTx(ctx, t.tx, borrowID, at)
}

func (t *lendingTx) Commit() error { return t.tx.Commit() }

func (t *lendingTx) Rollback() error {
	err := t.tx.Rollback()
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}
