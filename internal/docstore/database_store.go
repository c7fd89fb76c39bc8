package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tyemirov/picdash/internal/dbdialect"
)

// DatabaseStore persists documents using GORM with a JSON-encoded fields
// column. Merge writes run as read-modify-write inside a transaction.
type DatabaseStore struct {
	db          *gorm.DB
	driverLabel string
}

// Driver exposes the selected database driver label.
func (store *DatabaseStore) Driver() string {
	return store.driverLabel
}

type documentRecord struct {
	Collection  string `gorm:"column:collection;primaryKey"`
	DocumentID  string `gorm:"column:document_id;primaryKey"`
	FieldsJSON  string `gorm:"column:fields_json;not null;default:'{}'"`
	UpdatedUnix int64  `gorm:"column:updated_unix;not null"`
}

func (documentRecord) TableName() string {
	return "documents"
}

// NewDatabaseStore constructs a GORM-backed store and migrates the documents
// table.
func NewDatabaseStore(ctx context.Context, databaseURL string) (*DatabaseStore, error) {
	dialector, driverLabel, dialectErr := dbdialect.Resolve(databaseURL)
	if dialectErr != nil {
		return nil, fmt.Errorf("docstore.open: %w", dialectErr)
	}
	gormDB, openErr := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if openErr != nil {
		return nil, fmt.Errorf("docstore.open.%s: %w", driverLabel, openErr)
	}
	if migrateErr := gormDB.WithContext(ctx).AutoMigrate(&documentRecord{}); migrateErr != nil {
		return nil, fmt.Errorf("docstore.migrate.%s: %w", driverLabel, migrateErr)
	}
	return &DatabaseStore{
		db:          gormDB,
		driverLabel: driverLabel,
	}, nil
}

// Get returns the document, or found=false when it is absent.
func (store *DatabaseStore) Get(ctx context.Context, collection string, id string) (Document, bool, error) {
	if err := validateKey(collection, id); err != nil {
		return nil, false, err
	}
	var record documentRecord
	err := store.db.WithContext(ctx).
		Where("collection = ? AND document_id = ?", collection, id).
		Take(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("docstore.get.%s: %w", store.driverLabel, err)
	}
	document, decodeErr := decodeFields(record.FieldsJSON)
	if decodeErr != nil {
		return nil, false, fmt.Errorf("docstore.get.%s: %w", store.driverLabel, decodeErr)
	}
	return document, true, nil
}

// Put writes the supplied fields, merging into any existing document when
// merge is set.
func (store *DatabaseStore) Put(ctx context.Context, collection string, id string, fields Document, merge bool) error {
	if err := validateKey(collection, id); err != nil {
		return err
	}
	txErr := store.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record documentRecord
		findErr := tx.Where("collection = ? AND document_id = ?", collection, id).Take(&record).Error
		switch {
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			encoded, encodeErr := encodeFields(fields)
			if encodeErr != nil {
				return encodeErr
			}
			return tx.Create(&documentRecord{
				Collection:  collection,
				DocumentID:  id,
				FieldsJSON:  encoded,
				UpdatedUnix: time.Now().UTC().Unix(),
			}).Error
		case findErr != nil:
			return findErr
		}

		next := fields
		if merge {
			existing, decodeErr := decodeFields(record.FieldsJSON)
			if decodeErr != nil {
				return decodeErr
			}
			merged := existing.clone()
			for name, value := range fields {
				merged[name] = value
			}
			next = merged
		}
		encoded, encodeErr := encodeFields(next)
		if encodeErr != nil {
			return encodeErr
		}
		return tx.Model(&documentRecord{}).
			Where("collection = ? AND document_id = ?", collection, id).
			Updates(map[string]interface{}{
				"fields_json":  encoded,
				"updated_unix": time.Now().UTC().Unix(),
			}).Error
	})
	if txErr != nil {
		return fmt.Errorf("docstore.put.%s: %w", store.driverLabel, txErr)
	}
	return nil
}

func encodeFields(fields Document) (string, error) {
	if fields == nil {
		fields = Document{}
	}
	encoded, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("docstore.encode_fields: %w", err)
	}
	return string(encoded), nil
}

func decodeFields(encoded string) (Document, error) {
	if encoded == "" {
		return Document{}, nil
	}
	var fields Document
	if err := json.Unmarshal([]byte(encoded), &fields); err != nil {
		return nil, fmt.Errorf("docstore.decode_fields: %w", err)
	}
	return fields, nil
}
