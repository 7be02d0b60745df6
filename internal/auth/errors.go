package auth

import "errors"

var (
	// ErrInvalidCredentials covers both unknown email and wrong password;
	// the two are intentionally not distinguished.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrInvalidToken indicates a malformed, unsigned or tampered token.
	ErrInvalidToken = errors.New("auth: invalid token")
	// ErrExpired indicates a well-signed token past its expiry.
	ErrExpired = errors.New("auth: token expired")
	// ErrNotFound indicates a missing user record, including a token whose
	// subject no longer exists.
	ErrNotFound = errors.New("auth: not found")
	// ErrForbidden indicates an authenticated identity with insufficient
	// role or ownership.
	ErrForbidden = errors.New("auth: forbidden")
	// ErrUnavailable indicates storage was unreachable or timed out while
	// resolving an identity.
	ErrUnavailable = errors.New("auth: storage unavailable")
	// ErrConflict indicates a uniqueness violation such as a duplicate email.
	ErrConflict = errors.New("auth: already exists")
	// ErrInvalidInput indicates rejected request data.
	ErrInvalidInput = errors.New("auth: invalid input")
)
