package identity

import "context"

// Account is an application account keyed by a uuid and a unique email.
type Account struct {
	ID           string
	Email        string
	PasswordHash string
	GoogleSub    string
	DisplayName  string
	CreatedUnix  int64
}

// AccountStore persists and retrieves application accounts.
type AccountStore interface {
	CreateAccount(ctx context.Context, email string, passwordHash string) (Account, error)
	FindByEmail(ctx context.Context, email string) (Account, error)
	GetAccount(ctx context.Context, accountID string) (Account, error)
	UpsertGoogleAccount(ctx context.Context, googleSub string, email string, displayName string) (Account, error)
}
