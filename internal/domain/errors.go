package domain

import "errors"

// Storage outcomes shared by every repository. Services translate them into their own errors.
var (
	// ErrDuplicateEntry: a unique key (email, google id, like pair) already holds the value.
	ErrDuplicateEntry = errors.New("record already exists")
	ErrNotFound       = errors.New("record not found")
	// ErrNoRowsAffected: a conditional update matched nothing, for example an already verified user.
	ErrNoRowsAffected = errors.New("record not changed")
)
