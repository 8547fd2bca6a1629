package model

import "time"

// User represents an account record as stored in the `users` table.
// The password credential is kept only as a bcrypt hash; plain
// passwords never reach this struct. Handlers define separate
// response types, so no password field is ever serialized.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique email address (stored lower case).
//  PasswordHash – bcrypt hashed password.
//  IsAdmin      – whether the account has librarian privileges.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	IsAdmin      bool      // users.is_admin
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}
