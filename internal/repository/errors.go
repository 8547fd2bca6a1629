// Package repository implements persistence for the catalog, the
// borrow ledger and user accounts on top of database/sql, plus the
// redis-backed token revocation set. Sentinel values defined here let
// handlers distinguish failure scenarios without inspecting driver
// errors.
package repository

import "errors"

// ErrEmailExists is returned when registering an email address that
// is already taken. Handlers should translate this into HTTP 409.
var ErrEmailExists = errors.New("email already exists")

// ErrConflict is returned when a catalog operation cannot proceed
// because of dependent ledger state, such as deleting a book that
// still has open borrows. Handlers should translate this into an
// HTTP 409 response.
var ErrConflict = errors.New("conflict")
