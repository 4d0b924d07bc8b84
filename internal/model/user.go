package model

import "context"

// UsernameMaxLength is the longest accepted username after normalization.
const UsernameMaxLength = 50

// AnswerLength is the exact length of a hex answer.
const AnswerLength = 32

// User is a registered vault owner.
type User struct {
	Username  string
	Challenge string
	Answer    string
}

// Registration carries validated input for creating a user.
type Registration struct {
	Username  string
	Challenge string
	Answer    string
}

// Session is returned to a client after a successful handshake.
type Session struct {
	Token     string
	Challenge string
}

// UserStore is the durable, authoritative user registry.
type UserStore interface {
	// Create stores the user only if the username is free. It returns the
	// challenge as read back from storage, or ErrAlreadyExists.
	Create(ctx context.Context, user User) (string, error)
	// Find returns ErrNotFound for unknown usernames.
	Find(ctx context.Context, username string) (User, error)
	Delete(ctx context.Context, user User) error
}

// UserCache is a non-authoritative replica of the user registry.
type UserCache interface {
	Get(ctx context.Context, username string) (User, error)
	Put(ctx context.Context, user User) error
	Remove(ctx context.Context, username string) error
	Ping(ctx context.Context) error
}
