package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cbioportal-query-assistant/internal/domain"
)

// SQLiteStore keeps the catalog snapshot in a local SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore opens (and if needed creates) the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	if err := createSQLiteSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db, dbPath: dbPath}, nil
}

func createSQLiteSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS catalog_genes (
		position INTEGER PRIMARY KEY,
		symbol TEXT NOT NULL UNIQUE,
		entrez_gene_id INTEGER,
		gene_type TEXT,
		cytoband TEXT
	);

	CREATE TABLE IF NOT EXISTS catalog_snapshots (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		source TEXT NOT NULL,
		saved_at DATETIME NOT NULL
	);
	`
	_, err := db.Exec(schema)
	return err
}

// Load reads the stored snapshot.
func (s *SQLiteStore) Load(ctx context.Context) (*domain.CatalogSnapshot, error) {
	snapshot := &domain.CatalogSnapshot{}
	err := s.db.QueryRowContext(ctx,
		"SELECT source, saved_at FROM catalog_snapshots WHERE id = 1",
	).Scan(&snapshot.Source, &snapshot.SavedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot metadata: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT symbol, entrez_gene_id, gene_type, cytoband FROM catalog_genes ORDER BY position",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query genes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan gene: %w", err)
		}
		snapshot.Entries = append(snapshot.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate genes: %w", err)
	}
	return snapshot, nil
}

// Save replaces the stored snapshot in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, snapshot *domain.CatalogSnapshot) error {
	savedAt := snapshot.SavedAt
	if savedAt.IsZero() {
		savedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM catalog_genes"); err != nil {
		return fmt.Errorf("failed to clear genes: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO catalog_genes (position, symbol, entrez_gene_id, gene_type, cytoband) VALUES (?, ?, ?, ?, ?)",
	)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range snapshot.Entries {
		if _, err := stmt.ExecContext(ctx, i, e.Symbol, nullableID(e.EntrezGeneID), e.Type, e.Cytoband); err != nil {
			return fmt.Errorf("failed to insert gene %s: %w", e.Symbol, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO catalog_snapshots (id, source, saved_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET source = excluded.source, saved_at = excluded.saved_at
	`, snapshot.Source, savedAt); err != nil {
		return fmt.Errorf("failed to record snapshot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
