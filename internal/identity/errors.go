package identity

import "errors"

var (
	// ErrEmailAlreadyRegistered indicates a signup attempt for an existing email.
	ErrEmailAlreadyRegistered = errors.New("accounts.email_already_registered")
	// ErrAccountNotFound indicates no account matched the identifier.
	ErrAccountNotFound = errors.New("accounts.not_found")
	// ErrPasswordMismatch indicates the supplied password did not verify.
	ErrPasswordMismatch = errors.New("accounts.password_mismatch")
)
