package auth

import "errors"

var (
	// ErrDuplicateUsername is returned when registration loses the
	// uniqueness race or the username is simply taken.
	ErrDuplicateUsername = errors.New("username already taken")

	// ErrInvalidCredentials covers both unknown usernames and wrong
	// passwords so callers cannot enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrSessionInvalid covers missing, revoked and expired tokens. The
	// cause is deliberately not distinguishable from the outside.
	ErrSessionInvalid = errors.New("session invalid")
)
