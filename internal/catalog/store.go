package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/cbioportal-query-assistant/internal/domain"
)

// NoopStore never holds a snapshot.
type NoopStore struct{}

// Load always reports that no snapshot exists.
func (NoopStore) Load(context.Context) (*domain.CatalogSnapshot, error) {
	return nil, domain.ErrSnapshotNotFound
}

// Save discards the snapshot.
func (NoopStore) Save(context.Context, *domain.CatalogSnapshot) error {
	return nil
}

// NewStore builds the snapshot store named by cfg. db is only used for the
// postgres store and may be nil otherwise.
func NewStore(cfg domain.CatalogConfig, db *sql.DB) (domain.SnapshotStore, error) {
	switch strings.ToLower(cfg.Store) {
	case domain.StoreFile, "":
		return NewFileStore(cfg.SnapshotPath), nil
	case domain.StoreSQLite:
		return NewSQLiteStore(cfg.SQLitePath)
	case domain.StorePostgres:
		if db == nil {
			return nil, fmt.Errorf("postgres catalog store requires a database connection")
		}
		return NewPostgresStore(db)
	case domain.StoreNone:
		return NoopStore{}, nil
	default:
		return nil, fmt.Errorf("unknown catalog store: %s", cfg.Store)
	}
}

// scanner is an interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(s scanner) (domain.CatalogEntry, error) {
	var (
		e        domain.CatalogEntry
		entrezID sql.NullInt64
		geneType sql.NullString
		cytoband sql.NullString
	)
	if err := s.Scan(&e.Symbol, &entrezID, &geneType, &cytoband); err != nil {
		return e, err
	}
	e.EntrezGeneID = int(entrezID.Int64)
	e.Type = geneType.String
	e.Cytoband = cytoband.String
	return e, nil
}

func nullableID(id int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(id), Valid: id != 0}
}
