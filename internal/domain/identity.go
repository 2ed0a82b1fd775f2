package domain

import "time"

// Identity is a user as known to the credential store.
type Identity struct {
	UID   string
	Email string
}

// LocalUser is a row in the users table backing the local credential store.
type LocalUser struct {
	UserID       string    `json:"id" dynamodbav:"user_id"`
	Email        string    `json:"email" dynamodbav:"email"`
	PasswordHash string    `json:"-" dynamodbav:"password_hash"`
	CreatedAt    time.Time `json:"created" dynamodbav:"created_at"`
}
