package identity

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryAccountStore is an in-memory store intended for tests and dev.
type MemoryAccountStore struct {
	mutex   sync.Mutex
	byID    map[string]Account
	byEmail map[string]string
	bySub   map[string]string
}

// NewMemoryAccountStore creates a new in-memory account store.
func NewMemoryAccountStore() *MemoryAccountStore {
	return &MemoryAccountStore{
		byID:    make(map[string]Account),
		byEmail: make(map[string]string),
		bySub:   make(map[string]string),
	}
}

// CreateAccount inserts a new account; the email must be unused.
func (store *MemoryAccountStore) CreateAccount(ctx context.Context, email string, passwordHash string) (Account, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	normalized := normalizeEmail(email)
	if _, taken := store.byEmail[normalized]; taken {
		return Account{}, ErrEmailAlreadyRegistered
	}
	account := Account{
		ID:           uuid.NewString(),
		Email:        normalized,
		PasswordHash: passwordHash,
		CreatedUnix:  time.Now().UTC().Unix(),
	}
	store.byID[account.ID] = account
	store.byEmail[normalized] = account.ID
	return account, nil
}

// FindByEmail returns the account registered under the email.
func (store *MemoryAccountStore) FindByEmail(ctx context.Context, email string) (Account, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	accountID, ok := store.byEmail[normalizeEmail(email)]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return store.byID[accountID], nil
}

// GetAccount returns the account with the given id.
func (store *MemoryAccountStore) GetAccount(ctx context.Context, accountID string) (Account, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	account, ok := store.byID[accountID]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return account, nil
}

// UpsertGoogleAccount inserts or updates an account keyed by Google sub.
func (store *MemoryAccountStore) UpsertGoogleAccount(ctx context.Context, googleSub string, email string, displayName string) (Account, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	normalized := normalizeEmail(email)
	if accountID, known := store.bySub[googleSub]; known {
		account := store.byID[accountID]
		account.Email = normalized
		account.DisplayName = displayName
		store.byID[accountID] = account
		return account, nil
	}
	if accountID, taken := store.byEmail[normalized]; taken {
		account := store.byID[accountID]
		account.GoogleSub = googleSub
		account.DisplayName = displayName
		store.byID[accountID] = account
		store.bySub[googleSub] = accountID
		return account, nil
	}
	account := Account{
		ID:          uuid.NewString(),
		Email:       normalized,
		GoogleSub:   googleSub,
		DisplayName: displayName,
		CreatedUnix: time.Now().UTC().Unix(),
	}
	store.byID[account.ID] = account
	store.byEmail[normalized] = account.ID
	store.bySub[googleSub] = account.ID
	return account, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
