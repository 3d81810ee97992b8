// Package metastore persists .meta records for imported source files.
// Records are opaque bytes here; the importer that wrote them decodes them.
package metastore

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned when no record exists for a source path.
var ErrNotFound = errors.New("metadata not found")

// Store loads and replaces metadata records keyed by source path.
type Store interface {
	Load(ctx context.Context, sourcePath string) ([]byte, error)
	// Save replaces the whole record.
	Save(ctx context.Context, sourcePath string, data []byte) error
	Delete(ctx context.Context, sourcePath string) error
	Close() error
}

// Open creates the store for driver. "file" keeps .meta files beside the
// sources; "sqlite3" and "pgx" keep records in a database at dsn.
func Open(driver, dsn string) (Store, error) {
	switch driver {
	case "", DriverFile:
		return NewFileStore(), nil
	case DriverSQLite, DriverPostgres:
		return OpenSQLStore(driver, dsn)
	default:
		return nil, fmt.Errorf("unknown metadata store driver %q", driver)
	}
}

// Supported drivers.
const (
	DriverFile     = "file"
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
)
