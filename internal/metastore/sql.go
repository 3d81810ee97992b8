package metastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3"    // SQLite driver
)

// SQLStore keeps records in a source_metadata table.
type SQLStore struct {
	db     *sql.DB
	driver string
}

// OpenSQLStore connects to dsn and ensures the schema exists.
func OpenSQLStore(driver, dsn string) (*SQLStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%s metadata store requires a dsn", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	store := NewSQLStore(db, driver)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := store.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// NewSQLStore wraps an existing connection. driver selects the placeholder
// syntax; call Migrate before first use.
func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

// Migrate creates the source_metadata table if it does not exist.
func (s *SQLStore) Migrate(ctx context.Context) error {
	blobType := "BLOB"
	if s.driver == DriverPostgres {
		blobType = "BYTEA"
	}

	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS source_metadata (
		source_path TEXT PRIMARY KEY,
		data %s NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`, blobType)

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create source_metadata table: %w", err)
	}
	return nil
}

// placeholder returns the n-th bind parameter for the driver.
func (s *SQLStore) placeholder(n int) string {
	if s.driver == DriverPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// Load returns the stored record for sourcePath.
func (s *SQLStore) Load(ctx context.Context, sourcePath string) ([]byte, error) {
	query := "SELECT data FROM source_metadata WHERE source_path = " + s.placeholder(1)

	var data []byte
	err := s.db.QueryRowContext(ctx, query, sourcePath).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", sourcePath, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load metadata for %s: %w", sourcePath, err)
	}
	return data, nil
}

// Save upserts the record for sourcePath.
func (s *SQLStore) Save(ctx context.Context, sourcePath string, data []byte) error {
	query := fmt.Sprintf(`INSERT INTO source_metadata (source_path, data, updated_at)
		VALUES (%s, %s, %s)
		ON CONFLICT (source_path) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		s.placeholder(1), s.placeholder(2), s.placeholder(3))

	if _, err := s.db.ExecContext(ctx, query, sourcePath, data, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to save metadata for %s: %w", sourcePath, err)
	}
	return nil
}

// Delete removes the record for sourcePath.
func (s *SQLStore) Delete(ctx context.Context, sourcePath string) error {
	query := "DELETE FROM source_metadata WHERE source_path = " + s.placeholder(1)
	if _, err := s.db.ExecContext(ctx, query, sourcePath); err != nil {
		return fmt.Errorf("failed to delete metadata for %s: %w", sourcePath, err)
	}
	return nil
}

// Close closes the underlying connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}
