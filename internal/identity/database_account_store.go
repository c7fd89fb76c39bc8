package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tyemirov/picdash/internal/dbdialect"
)

// DatabaseAccountStore persists accounts using GORM.
type DatabaseAccountStore struct {
	db          *gorm.DB
	driverLabel string
}

// Driver exposes the selected database driver label.
func (store *DatabaseAccountStore) Driver() string {
	return store.driverLabel
}

type accountRecord struct {
	AccountID    string `gorm:"column:account_id;primaryKey"`
	Email        string `gorm:"column:email;uniqueIndex;not null"`
	PasswordHash string `gorm:"column:password_hash;not null;default:''"`
	GoogleSub    string `gorm:"column:google_sub;index;not null;default:''"`
	DisplayName  string `gorm:"column:display_name;not null;default:''"`
	CreatedUnix  int64  `gorm:"column:created_unix;not null"`
}

func (accountRecord) TableName() string {
	return "accounts"
}

func (record accountRecord) toAccount() Account {
	return Account{
		ID:           record.AccountID,
		Email:        record.Email,
		PasswordHash: record.PasswordHash,
		GoogleSub:    record.GoogleSub,
		DisplayName:  record.DisplayName,
		CreatedUnix:  record.CreatedUnix,
	}
}

// NewDatabaseAccountStore constructs a GORM-backed store and migrates the
// accounts table.
func NewDatabaseAccountStore(ctx context.Context, databaseURL string) (*DatabaseAccountStore, error) {
	dialector, driverLabel, dialectErr := dbdialect.Resolve(databaseURL)
	if dialectErr != nil {
		return nil, fmt.Errorf("accounts.open: %w", dialectErr)
	}
	gormDB, openErr := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if openErr != nil {
		return nil, fmt.Errorf("accounts.open.%s: %w", driverLabel, openErr)
	}
	if migrateErr := gormDB.WithContext(ctx).AutoMigrate(&accountRecord{}); migrateErr != nil {
		return nil, fmt.Errorf("accounts.migrate.%s: %w", driverLabel, migrateErr)
	}
	return &DatabaseAccountStore{
		db:          gormDB,
		driverLabel: driverLabel,
	}, nil
}

// CreateAccount inserts a new account; the email must be unused.
func (store *DatabaseAccountStore) CreateAccount(ctx context.Context, email string, passwordHash string) (Account, error) {
	normalized := normalizeEmail(email)

	var created accountRecord
	txErr := store.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing accountRecord
		findErr := tx.Where("email = ?", normalized).Take(&existing).Error
		if findErr == nil {
			return ErrEmailAlreadyRegistered
		}
		if !errors.Is(findErr, gorm.ErrRecordNotFound) {
			return findErr
		}
		created = accountRecord{
			AccountID:    uuid.NewString(),
			Email:        normalized,
			PasswordHash: passwordHash,
			CreatedUnix:  time.Now().UTC().Unix(),
		}
		return tx.Create(&created).Error
	})
	if txErr != nil {
		if errors.Is(txErr, ErrEmailAlreadyRegistered) {
			return Account{}, ErrEmailAlreadyRegistered
		}
		return Account{}, fmt.Errorf("accounts.create.%s: %w", store.driverLabel, txErr)
	}
	return created.toAccount(), nil
}

// FindByEmail returns the account registered under the email.
func (store *DatabaseAccountStore) FindByEmail(ctx context.Context, email string) (Account, error) {
	var record accountRecord
	err := store.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).Take(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Account{}, ErrAccountNotFound
		}
		return Account{}, fmt.Errorf("accounts.find_by_email.%s: %w", store.driverLabel, err)
	}
	return record.toAccount(), nil
}

// GetAccount returns the account with the given id.
func (store *DatabaseAccountStore) GetAccount(ctx context.Context, accountID string) (Account, error) {
	if strings.TrimSpace(accountID) == "" {
		return Account{}, ErrAccountNotFound
	}
	var record accountRecord
	err := store.db.WithContext(ctx).Where("account_id = ?", accountID).Take(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Account{}, ErrAccountNotFound
		}
		return Account{}, fmt.Errorf("accounts.get.%s: %w", store.driverLabel, err)
	}
	return record.toAccount(), nil
}

// UpsertGoogleAccount inserts or updates an account keyed by Google sub,
// attaching the sub to an existing password account with the same email.
func (store *DatabaseAccountStore) UpsertGoogleAccount(ctx context.Context, googleSub string, email string, displayName string) (Account, error) {
	normalized := normalizeEmail(email)

	var result accountRecord
	txErr := store.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		findErr := tx.Where("google_sub = ?", googleSub).Take(&result).Error
		if findErr == nil {
			result.Email = normalized
			result.DisplayName = displayName
			return tx.Save(&result).Error
		}
		if !errors.Is(findErr, gorm.ErrRecordNotFound) {
			return findErr
		}

		findErr = tx.Where("email = ?", normalized).Take(&result).Error
		if findErr == nil {
			result.GoogleSub = googleSub
			result.DisplayName = displayName
			return tx.Save(&result).Error
		}
		if !errors.Is(findErr, gorm.ErrRecordNotFound) {
			return findErr
		}

		result = accountRecord{
			AccountID:   uuid.NewString(),
			Email:       normalized,
			GoogleSub:   googleSub,
			DisplayName: displayName,
			CreatedUnix: time.Now().UTC().Unix(),
		}
		return tx.Create(&result).Error
	})
	if txErr != nil {
		return Account{}, fmt.Errorf("accounts.upsert_google.%s: %w", store.driverLabel, txErr)
	}
	return result.toAccount(), nil
}
