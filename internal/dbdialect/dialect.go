// Package dbdialect resolves GORM dialectors from database URLs so the
// account and document stores share one scheme-to-driver mapping.
package dbdialect

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	sqliteDialector "github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var (
	// ErrUnsupportedDialect indicates that no GORM dialector is available for the scheme.
	ErrUnsupportedDialect = errors.New("dbdialect.unsupported_dialect")

	errEmptyDatabaseURL    = errors.New("dbdialect.empty_database_url")
	errSQLiteEmptyPath     = errors.New("dbdialect.sqlite.empty_path")
	errSQLiteInvalidURL    = errors.New("dbdialect.sqlite.invalid_url")
	errUnsupportedNoScheme = errors.New("dbdialect.unsupported_no_scheme")
)

// Resolve maps a database URL to a GORM dialector and a driver label used in
// error codes. postgres:// and postgresql:// select the postgres driver;
// sqlite:// and sqlite3:// select the pure-Go sqlite driver.
func Resolve(databaseURL string) (gorm.Dialector, string, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, "", errEmptyDatabaseURL
	}
	parsed, err := url.Parse(databaseURL)
	if err != nil {
		return nil, "", fmt.Errorf("dbdialect.parse_url: %w", err)
	}
	if parsed.Scheme == "" {
		return nil, "", fmt.Errorf("dbdialect.dialect: %w", errUnsupportedNoScheme)
	}
	switch strings.ToLower(parsed.Scheme) {
	case "postgres", "postgresql":
		return postgres.Open(databaseURL), "postgres", nil
	case "sqlite", "sqlite3":
		dsn, dsnErr := buildSQLiteDSN(parsed)
		if dsnErr != nil {
			return nil, "", fmt.Errorf("dbdialect.sqlite: %w", dsnErr)
		}
		return sqliteDialector.Open(dsn), "sqlite", nil
	default:
		return nil, "", fmt.Errorf("dbdialect.dialect.%s: %w", strings.ToLower(parsed.Scheme), ErrUnsupportedDialect)
	}
}

func buildSQLiteDSN(parsed *url.URL) (string, error) {
	if parsed == nil {
		return "", errSQLiteInvalidURL
	}
	var builder strings.Builder
	switch {
	case parsed.Opaque != "":
		builder.WriteString(parsed.Opaque)
	case parsed.Host != "":
		builder.WriteString(parsed.Host)
		if parsed.Path != "" {
			if !strings.HasPrefix(parsed.Path, "/") {
				builder.WriteString("/")
			}
			builder.WriteString(parsed.Path)
		}
	default:
		builder.WriteString(parsed.Path)
	}
	if builder.Len() == 0 {
		return "", errSQLiteEmptyPath
	}
	if parsed.RawQuery != "" {
		builder.WriteString("?")
		builder.WriteString(parsed.RawQuery)
	}
	return builder.String(), nil
}
