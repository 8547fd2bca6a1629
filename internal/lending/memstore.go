package lending

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/library-lending/internal/model"
)

// MemStore is an in-memory Store implementation. It backs the engine
// tests and serves as a drop-in backend when no database is wired up.
// Transactions take a store-wide lock from Begin until Commit or
// Rollback, which trivially satisfies the serialization contract, and
// keep an undo log so a rollback restores the pre-transaction state.
type MemStore struct {
	mu      sync.Mutex
	nextID  uint64
	books   map[uint64]*model.Book
	records map[string]*model.BorrowRecord
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		books:   make(map[uint64]*model.Book),
		records: make(map[string]*model.BorrowRecord),
	}
}

// PutBook inserts or replaces a catalog row, assigning an id when the
// book has none, and returns the stored copy.
func (s *MemStore) PutBook(b model.Book) model.Book {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID == 0 {
		s.nextID++
		b.ID = s.nextID
	} else if b.ID > s.nextID {
		s.nextID = b.ID
	}
	now := time.Now().UTC()
	if b.Added.IsZero() {
		b.Added = now
	}
	b.Modified = now
	cp := b
	s.books[b.ID] = &cp
	return b
}

// Book returns a copy of the catalog row, or nil when absent.
func (s *MemStore) Book(id uint64) *model.Book {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.books[id]
	if !ok {
		return nil
	}
	cp := *b
	return &cp
}

// Begin locks the store for the lifetime of the transaction.
func (s *MemStore) Begin(_ context.Context) (Tx, error) {
	s.mu.Lock()
	return &memTx{store: s}, nil
}

// BooksByIDs implements Store.
func (s *MemStore) BooksByIDs(_ context.Context, ids []uint64) ([]model.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Book, 0, len(ids))
	seen := make(map[uint64]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if b, ok := s.books[id]; ok {
			out = append(out, *b)
		}
	}
	return out, nil
}

// OpenRecordsByUser implements Store.
func (s *MemStore) OpenRecordsByUser(_ context.Context, userID uint64) ([]model.BorrowRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.collect(func(r *model.BorrowRecord) bool {
		return r.UserID == userID && !r.Returned
	}), nil
}

// RecordsByUser implements Store.
func (s *MemStore) RecordsByUser(_ context.Context, userID uint64) ([]model.BorrowRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.collect(func(r *model.BorrowRecord) bool {
		return r.UserID == userID
	}), nil
}

// OpenRecords implements Store.
func (s *MemStore) OpenRecords(_ context.Context) ([]model.BorrowRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.collect(func(r *model.BorrowRecord) bool {
		return !r.Returned
	}), nil
}

// collect filters and orders ledger rows. Callers must hold mu.
func (s *MemStore) collect(keep func(*model.BorrowRecord) bool) []model.BorrowRecord {
	out := make([]model.BorrowRecord, 0)
	for _, r := range s.records {
		if keep(r) {
			out = append(out, *r)
		}
	}
	sortRecords(out)
	return out
}

// sortRecords applies the ledger's deterministic order: borrow
// timestamp descending, borrow id descending as the tie-break.
func sortRecords(recs []model.BorrowRecord) {
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].BorrowTimestamp.Equal(recs[j].BorrowTimestamp) {
			return recs[i].BorrowTimestamp.After(recs[j].BorrowTimestamp)
		}
		return recs[i].BorrowID > recs[j].BorrowID
	})
}

// memTx mutates the store in place under the store lock and records
// inverse operations so Rollback can restore the previous state.
type memTx struct {
	store *MemStore
	undo  []func()
	done  bool
}

func (t *memTx) BookForUpdate(_ context.Context, bookID uint64) (*model.Book, error) {
	b, ok := t.store.books[bookID]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (t *memTx) AdjustAvailable(_ context.Context, bookID uint64, delta int32) error {
	b, ok := t.store.books[bookID]
	if !ok {
		return fmt.Errorf("memstore: adjust available: book %d not found", bookID)
	}
	next := int64(b.Available) + int64(delta)
	if next < 0 {
		return fmt.Errorf("memstore: book %d availability would go negative", bookID)
	}
	prev := b.Available
	b.Available = uint32(next)
	b.Modified = time.Now().UTC()
	t.undo = append(t.undo, func() { b.Available = prev })
	return nil
}

func (t *memTx) OpenRecord(_ context.Context, userID, bookID uint64) (*model.BorrowRecord, error) {
	for _, r := range t.store.records {
		if r.UserID == userID && r.BookID == bookID && !r.Returned {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (t *memTx) LatestRecord(_ context.Context, userID, bookID uint64) (*model.BorrowRecord, error) {
	matches := t.store.collect(func(r *model.BorrowRecord) bool {
		return r.UserID == userID && r.BookID == bookID
	})
	if len(matches) == 0 {
		return nil, nil
	}
	cp := matches[0]
	return &cp, nil
}

func (t *memTx) RecordByID(_ context.Context, borrowID string) (*model.BorrowRecord, error) {
	r, ok := t.store.records[borrowID]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (t *memTx) InsertRecord(_ context.Context, rec *model.BorrowRecord) error {
	if _, exists := t.store.records[rec.BorrowID]; exists {
		return fmt.Errorf("memstore: duplicate borrow id %s", rec.BorrowID)
	}
	cp := *rec
	t.store.records[rec.BorrowID] = &cp
	t.undo = append(t.undo, func() { delete(t.store.records, cp.BorrowID) })
	return nil
}

func (t *memTx) CloseRecord(_ context.Context, borrowID string, at time.Time) (bool, error) {
	r, ok := t.store.records[borrowID]
	if !ok || r.Returned {
		return false, nil
	}
	r.Returned = true
	ts := at
	r.ReturnTimestamp = &ts
	t.undo = append(t.undo, func() {
		r.Returned = false
		r.ReturnTimestamp = nil
	})
	return true, nil
}

func (t *memTx) Commit() error {
	if t.done {
		return fmt.Errorf("memstore: transaction already finished")
	}
	t.done = true
	t.undo = nil
	t.store.mu.Unlock()
	return nil
}

func (t *memTx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
	t.store.mu.Unlock()
	return nil
}
