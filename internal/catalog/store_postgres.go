package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/cbioportal-query-assistant/internal/domain"
)

// Schema is created by the migrations in migrations/.
const (
	pgSelectSnapshot = `SELECT source, saved_at FROM catalog_snapshots WHERE id = 1`
	pgSelectGenes    = `SELECT symbol, entrez_gene_id, gene_type, cytoband FROM catalog_genes ORDER BY position`
	pgDeleteGenes    = `DELETE FROM catalog_genes`
	pgInsertGene     = `INSERT INTO catalog_genes (position, symbol, entrez_gene_id, gene_type, cytoband) VALUES ($1, $2, $3, $4, $5)`
	pgUpsertSnapshot = `INSERT INTO catalog_snapshots (id, source, saved_at) VALUES (1, $1, $2)
		ON CONFLICT (id) DO UPDATE SET source = EXCLUDED.source, saved_at = EXCLUDED.saved_at`
)

// PostgresStore keeps the catalog snapshot in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an open connection.
func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// NewPostgresStoreFromURL opens a lib/pq connection to databaseURL.
func NewPostgresStoreFromURL(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	store, err := NewPostgresStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// Load reads the stored snapshot.
func (s *PostgresStore) Load(ctx context.Context) (*domain.CatalogSnapshot, error) {
	snapshot := &domain.CatalogSnapshot{}
	err := s.db.QueryRowContext(ctx, pgSelectSnapshot).Scan(&snapshot.Source, &snapshot.SavedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot metadata: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, pgSelectGenes)
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
func (s *PostgresStore) Save(ctx context.Context, snapshot *domain.CatalogSnapshot) error {
	savedAt := snapshot.SavedAt
	if savedAt.IsZero() {
		savedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, pgDeleteGenes); err != nil {
		return fmt.Errorf("failed to clear genes: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, pgInsertGene)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range snapshot.Entries {
		if _, err := stmt.ExecContext(ctx, i, e.Symbol, nullableID(e.EntrezGeneID), e.Type, e.Cytoband); err != nil {
			return fmt.Errorf("failed to insert gene %s: %w", e.Symbol, err)
		}
	}

	if _, err := tx.ExecContext(ctx, pgUpsertSnapshot, snapshot.Source, savedAt); err != nil {
		return fmt.Errorf("failed to record snapshot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
