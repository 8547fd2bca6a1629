// Package lending implements the lending engine: the single authority
// that moves copies between the catalog's availability counter and the
// borrow ledger. All availability and ledger-state mutations in the
// application go through this package.
package lending

import "errors"

// ErrBookNotFound is returned when the requested book does not exist
// in the catalog. Handlers should translate this into HTTP 404.
var ErrBookNotFound = errors.New("book not found")

// ErrRecordNotFound is returned when no borrow record matches the
// request, either by explicit borrow id or by (user, book) lookup.
// Handlers should translate this into HTTP 404.
var ErrRecordNotFound = errors.New("borrow record not found")

// ErrAlreadyBorrowed is the borrow conflict outcome. It covers both
// "no copies left on the shelf" and "this user already holds an open
// loan for this title"; callers see the same conflict either way.
// Handlers should translate this into HTTP 409.
var ErrAlreadyBorrowed = errors.New("book already borrowed")

// ErrAlreadyReturned is returned when the targeted borrow record has
// already been closed. A second return of the same loan yields this
// error and never touches the availability counter again. Handlers
// should translate this into HTTP 409.
var ErrAlreadyReturned = errors.New("book already returned")

// ErrForbidden is returned when a non-admin user targets a borrow
// record owned by somebody else. Handlers should translate this into
// HTTP 403.
var ErrForbidden = errors.New("forbidden")
