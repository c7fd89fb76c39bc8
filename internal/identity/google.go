package identity

import (
	"context"

	"google.golang.org/api/idtoken"
)

// GoogleTokenValidator verifies a Google ID token against an audience.
type GoogleTokenValidator interface {
	Validate(ctx context.Context, token string, audience string) (*idtoken.Payload, error)
}

// buildGoogleTokenValidator is a seam so route tests can substitute a stub
// validator without reaching Google's certificate endpoints.
var buildGoogleTokenValidator = func(ctx context.Context) (GoogleTokenValidator, error) {
	return idtoken.NewValidator(ctx)
}
