package model

import "time"

// BorrowRecord is one entry in the `borrow_records` ledger. It is the
// only link between users and books and forms the audit trail of all
// lending activity: rows are inserted by a successful borrow, updated
// exactly once by the matching return, and never deleted.
//
// A record is "open" while Returned is false. For any (UserID, BookID)
// pair at most one open record may exist at a time.
//
// Fields:
//  BorrowID        – unique identifier of the loan (UUID string, primary key).
//  UserID          – user holding the copy.
//  BookID          – book the copy belongs to.
//  BorrowTimestamp – when the copy left the shelf.
//  ExpectedReturn  – BorrowTimestamp plus the configured return period.
//  ReturnTimestamp – when the copy came back (nil while open).
//  Returned        – false while the loan is open, flipped true exactly once.
type BorrowRecord struct {
	BorrowID        string     `json:"borrow_id"`                  // borrow_records.borrow_id
	UserID          uint64     `json:"user_id"`                    // borrow_records.user_id
	BookID          uint64     `json:"book_id"`                    // borrow_records.book_id
	BorrowTimestamp time.Time  `json:"borrow_timestamp"`           // borrow_records.borrow_timestamp
	ExpectedReturn  time.Time  `json:"expected_return"`            // borrow_records.expected_return
	ReturnTimestamp *time.Time `json:"return_timestamp,omitempty"` // borrow_records.return_timestamp (nullable)
	Returned        bool       `json:"returned"`                   // borrow_records.returned
}
