package model

import "time"

// Roles assigned to accounts.  Every account can buy and sell; ADMIN
// additionally moderates reported reviews.  The buyer/seller distinction
// is always relative to a product, never stored on the user row.
const (
    RoleUser  = "USER"
    RoleAdmin = "ADMIN"
)

// User represents a registered account.  Passwords are stored as bcrypt
// hashes and never leave the server.
//
// Fields:
//  ID           – primary key identifier.
//  Email        – unique login email, lower-cased on write.
//  PasswordHash – bcrypt hash of the password.
//  DisplayName  – public name shown on listings and reviews.
//  Role         – account role (USER, ADMIN).
//  CreatedAt    – creation timestamp.
//  UpdatedAt    – last update timestamp.
type User struct {
    ID           uint64    // users.id
    Email        string    // users.email
    PasswordHash string    // users.password_hash
    DisplayName  string    // users.display_name
    Role         string    // users.role
    CreatedAt    time.Time // users.created_at
    UpdatedAt    time.Time // users.updated_at
}
