package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/cbioportal-query-assistant/internal/domain"
	"github.com/cbioportal-query-assistant/pkg/genes"
)

// FileStore keeps the catalog snapshot as a JSON file.
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// legacySnapshot is the layout written by earlier releases:
// {"genes": ["TP53", ...], "gene_info": {"TP53": {"entrezGeneId": 7157, ...}}}
// entrezGeneId may be a number, a quoted number or null.
type legacySnapshot struct {
	Genes    []string `json:"genes"`
	GeneInfo map[string]struct {
		EntrezGeneID json.RawMessage `json:"entrezGeneId"`
		Type         string          `json:"type"`
		Cytoband     string          `json:"cytoband"`
	} `json:"gene_info"`
}

// Load reads the snapshot file.
func (s *FileStore) Load(ctx context.Context) (*domain.CatalogSnapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var snapshot domain.CatalogSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if len(snapshot.Entries) > 0 {
		return &snapshot, nil
	}

	var legacy legacySnapshot
	if err := json.Unmarshal(data, &legacy); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if len(legacy.Genes) == 0 {
		return nil, domain.ErrSnapshotNotFound
	}

	snapshot.Source = "legacy"
	if info, err := os.Stat(s.path); err == nil {
		snapshot.SavedAt = info.ModTime().UTC()
	}
	for _, symbol := range legacy.Genes {
		meta := legacy.GeneInfo[symbol]
		entry := domain.CatalogEntry{
			Symbol:   symbol,
			Type:     meta.Type,
			Cytoband: meta.Cytoband,
		}
		// An unusable id is dropped; the portal client resolves it by symbol.
		if len(meta.EntrezGeneID) > 0 {
			if id, err := genes.ParseEntrezID(string(meta.EntrezGeneID)); err == nil {
				entry.EntrezGeneID = id
			}
		}
		snapshot.Entries = append(snapshot.Entries, entry)
	}
	return &snapshot, nil
}

// Save writes the snapshot atomically via a temp file and rename.
func (s *FileStore) Save(ctx context.Context, snapshot *domain.CatalogSnapshot) error {
	if snapshot.SavedAt.IsZero() {
		snapshot.SavedAt = time.Now().UTC()
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".known_genes-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to install snapshot: %w", err)
	}
	return nil
}

// Path returns the snapshot file path.
func (s *FileStore) Path() string {
	return s.path
}
