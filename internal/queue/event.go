// Package queue defines message payloads exchanged over the message broker.
package queue

// LoanActionBorrowed and LoanActionReturned are the two actions a
// LoanEvent can describe, matching the only two transitions a borrow
// record goes through.
const (
	LoanActionBorrowed = "borrowed"
	LoanActionReturned = "returned"
)

// LoanEvent is published after a borrow or return commits. It carries
// enough information for downstream consumers to log, notify or feed
// analytics without querying the primary database.
type LoanEvent struct {
	Action         string `json:"action"` // "borrowed" or "returned"
	BorrowID       string `json:"borrow_id"`
	UserID         uint64 `json:"user_id"`
	BookID         uint64 `json:"book_id"`
	BookTitle      string `json:"book_title"`
	OccurredAt     string `json:"occurred_at"`               // RFC3339 UTC
	ExpectedReturn string `json:"expected_return,omitempty"` // only on borrows
}
