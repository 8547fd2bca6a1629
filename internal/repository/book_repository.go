package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/library-lending/internal/model"
)

// BookRepo provides CRUD operations on the `books` table and the
// availability counter. The counter is only ever moved through the
// Tx variants, which the lending store drives inside a transaction;
// catalog edits deliberately cannot touch `available`, `added` or
// `modified` (the latter is maintained by the repository itself).
type BookRepo struct {
	db *sql.DB
}

// NewBookRepo returns a new BookRepo bound to the given database.
func NewBookRepo(db *sql.DB) *BookRepo { return &BookRepo{db: db} }

// DB exposes the underlying handle so callers can open transactions.
func (r *BookRepo) DB() *sql.DB { return r.db }

const bookColumns = `id, isbn, title, publisher, publication_year, edition, category, subcategory, description, available, added, modified`

// scanBook reads one row in bookColumns order.
func scanBook(row interface{ Scan(...any) error }) (model.Book, error) {
	var b model.Book
	err := row.Scan(
		&b.ID, &b.ISBN, &b.Title, &b.Publisher, &b.PublicationYear,
		&b.Edition, &b.Category, &b.Subcategory, &b.Description,
		&b.Available, &b.Added, &b.Modified,
	)
	return b, err
}

// CreateOrAddCopy inserts a new catalog row, unless a row with the
// same ISBN already exists, in which case the existing row gains one
// available copy instead of a duplicate title being created. The
// check and the write run in one transaction with the existing row
// locked, so two concurrent creates of the same ISBN cannot both
// insert. It reports whether a new row was created and fills b with
// the stored state either way.
func (r *BookRepo) CreateOrAddCopy(ctx context.Context, b *model.Book) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var existingID uint64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM books WHERE isbn = ? FOR UPDATE`, b.ISBN,
	).Scan(&existingID)
	switch {
	case err == sql.ErrNoRows:
		if b.Available == 0 {
			b.Available = 1
		}
		res, insErr := tx.ExecContext(ctx,
			`INSERT INTO books (isbn, title, publisher, publication_year, edition, category, subcategory, description, available)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			b.ISBN, b.Title, b.Publisher, b.PublicationYear,
			b.Edition, b.Category, b.Subcategory, b.Description, b.Available,
		)
		if insErr != nil {
			return false, insErr
		}
		id, idErr := res.LastInsertId()
		if idErr != nil {
			return false, idErr
		}
		existingID = uint64(id)
	case err != nil:
		return false, err
	default:
		if _, upErr := tx.ExecContext(ctx,
			`UPDATE books SET available = available + 1, modified = UTC_TIMESTAMP() WHERE id = ?`,
			existingID,
		); upErr != nil {
			return false, upErr
		}
	}
	created := err == sql.ErrNoRows

	// Read the row back so callers see generated id, defaults and
	// timestamps.
	*b, err = scanBook(tx.QueryRowContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE id = ?`, existingID))
	if err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	committed = true
	return created, nil
}

// GetByID returns a single catalog row. sql.ErrNoRows is passed
// through when the book does not exist.
func (r *BookRepo) GetByID(ctx context.Context, id uint64) (model.Book, error) {
	return scanBook(r.db.QueryRowContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE id = ?`, id))
}

// GetAll returns the whole catalog ordered by id ascending. The fixed
// ordering keeps pagination windows stable between calls.
func (r *BookRepo) GetAll(ctx context.Context) ([]model.Book, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+bookColumns+` FROM books ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	books := make([]model.Book, 0)
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return books, nil
}

// BookUpdate carries the catalog fields a client may edit. Nil
// fields are left untouched. `available`, `added` and `modified` are
// not represented here on purpose: availability belongs to the
// lending engine and the timestamps to the repository.
type BookUpdate struct {
	Title           *string `json:"title"`
	Publisher       *string `json:"publisher"`
	PublicationYear *string `json:"publication_year"`
	Edition         *string `json:"edition"`
	Category        *string `json:"category"`
	Subcategory     *string `json:"subcategory"`
	Description     *string `json:"description"`
}

// Update applies the non-nil fields of upd to the row and refreshes
// the modified timestamp. Calling it with no fields set is a no-op.
func (r *BookRepo) Update(ctx context.Context, id uint64, upd BookUpdate) error {
	set := make([]string, 0, 8)
	args := make([]any, 0, 8)
	add := func(col string, v *string) {
		if v != nil {
			set = append(set, col+" = ?")
			args = append(args, *v)
		}
	}
	add("title", upd.Title)
	add("publisher", upd.Publisher)
	add("publication_year", upd.PublicationYear)
	add("edition", upd.Edition)
	add("category", upd.Category)
	add("subcategory", upd.Subcategory)
	add("description", upd.Description)
	if len(set) == 0 {
		return nil
	}
	set = append(set, "modified = UTC_TIMESTAMP()")
	args = append(args, id)
	_, err := r.db.ExecContext(ctx,
		`UPDATE books SET `+strings.Join(set, ", ")+` WHERE id = ?`, args...)
	return err
}

// Delete removes a catalog row. The ledger is never deleted, so the
// delete is refused with ErrConflict while any open borrow still
// references the book; closed history rows keep their book_id for the
// audit trail. sql.ErrNoRows is returned when the book does not exist.
func (r *BookRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var open int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM borrow_records WHERE book_id = ? AND returned = 0`, id,
	).Scan(&open); err != nil {
		return err
	}
	if open > 0 {
		return ErrConflict
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// GetByIDsTxless returns the catalog rows for the given ids in one
// query; missing ids are skipped.
func (r *BookRepo) GetByIDsTxless(ctx context.Context, ids []uint64) ([]model.Book, error) {
	if len(ids) == 0 {
		return []model.Book{}, nil
	}
	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	books := make([]model.Book, 0, len(ids))
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return books, nil
}

// GetForUpdateTx loads a book row under FOR UPDATE within the given
// transaction, serializing concurrent borrows of the same title.
func (r *BookRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Book, error) {
	return scanBook(tx.QueryRowContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE id = ? FOR UPDATE`, id))
}

// AdjustAvailableTx moves the availability counter by delta inside
// the given transaction. The unsigned column makes a negative result
// a constraint error, but the engine validates availability under the
// row lock before ever decrementing.
func (r *BookRepo) AdjustAvailableTx(ctx context.Context, tx *sql.Tx, id uint64, delta int32) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE books SET available = available + ?, modified = UTC_TIMESTAMP() WHERE id = ?`,
		delta, id)
	return err
}
