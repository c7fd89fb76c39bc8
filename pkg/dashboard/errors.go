package dashboard

import "errors"

// Sentinel errors exposed by the client workflow.
var (
	// ErrNoFileSelected aborts an upload before any network call is made.
	ErrNoFileSelected = errors.New("dashboard.upload.no_file_selected")
	// ErrNoAuthenticatedUser indicates an upload was attempted without a session.
	ErrNoAuthenticatedUser = errors.New("dashboard.upload.no_authenticated_user")
	// ErrSignInFailed replaces the provider's sign-in error with a generic one.
	// Sign-up failures intentionally surface the provider message verbatim.
	ErrSignInFailed = errors.New("Login failed. Please check your credentials.")
	// ErrInvalidEmail is returned by local sign-up validation.
	ErrInvalidEmail = errors.New("dashboard.signup.invalid_email")
	// ErrInvalidPassword is returned by local sign-up validation.
	ErrInvalidPassword = errors.New("dashboard.signup.invalid_password")
)
