// Package catalog holds the set of known gene symbols used to validate
// interpreted queries.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/cbioportal-query-assistant/internal/domain"
	"github.com/cbioportal-query-assistant/internal/lexicon"
	"github.com/cbioportal-query-assistant/internal/metrics"
	"github.com/cbioportal-query-assistant/pkg/genes"
)

// Source records where the active mapping came from.
type Source string

const (
	SourceStatic   Source = "static"
	SourceSnapshot Source = "snapshot"
	SourceRemote   Source = "remote"
	SourceFixture  Source = "fixture"
)

// DefaultMaxGenes bounds a remote gene listing.
const DefaultMaxGenes = 5000

type state struct {
	entries  map[string]domain.CatalogEntry
	order    []string
	source   Source
	loadedAt time.Time
}

func newState(source Source, entries []domain.CatalogEntry) *state {
	s := &state{
		entries:  make(map[string]domain.CatalogEntry, len(entries)),
		order:    make([]string, 0, len(entries)),
		source:   source,
		loadedAt: time.Now().UTC(),
	}
	for _, e := range entries {
		key := genes.Normalize(e.Symbol)
		if key == "" {
			continue
		}
		if _, dup := s.entries[key]; dup {
			continue
		}
		e.Symbol = key
		s.entries[key] = e
		s.order = append(s.order, key)
	}
	return s
}

// Catalog is a read-mostly gene mapping. Readers always see a complete
// mapping; Load and Refresh replace it in one atomic swap.
type Catalog struct {
	current  atomic.Pointer[state]
	store    domain.SnapshotStore
	remote   domain.CatalogSource
	maxGenes int
	logger   *logrus.Logger
	group    singleflight.Group
}

// Option configures a Catalog
type Option func(*Catalog)

// WithStore sets the snapshot store used on load and after remote fetches.
func WithStore(store domain.SnapshotStore) Option {
	return func(c *Catalog) {
		c.store = store
	}
}

// WithRemote sets the live gene listing.
func WithRemote(remote domain.CatalogSource) Option {
	return func(c *Catalog) {
		c.remote = remote
	}
}

// WithLogger sets the logger.
func WithLogger(logger *logrus.Logger) Option {
	return func(c *Catalog) {
		c.logger = logger
	}
}

// WithMaxGenes bounds the number of genes taken from a remote listing.
func WithMaxGenes(n int) Option {
	return func(c *Catalog) {
		if n > 0 {
			c.maxGenes = n
		}
	}
}

// New creates a catalog holding the static gene list until Load is called.
func New(opts ...Option) *Catalog {
	c := &Catalog{
		maxGenes: DefaultMaxGenes,
		logger:   logrus.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.swap(newState(SourceStatic, lexicon.StaticCatalog()))
	return c
}

// NewFromEntries creates a catalog over a fixed set of entries.
func NewFromEntries(entries []domain.CatalogEntry, opts ...Option) *Catalog {
	c := New(opts...)
	c.swap(newState(SourceFixture, entries))
	return c
}

func (c *Catalog) swap(s *state) {
	c.current.Store(s)
	metrics.CatalogGenes.Set(float64(len(s.order)))
}

// Load populates the catalog from the snapshot store, else the remote
// listing, else the static list. It never fails.
func (c *Catalog) Load(ctx context.Context) Source {
	if c.store != nil {
		snapshot, err := c.store.Load(ctx)
		switch {
		case err == nil && len(snapshot.Entries) > 0:
			c.swap(newState(SourceSnapshot, snapshot.Entries))
			c.logger.WithFields(logrus.Fields{
				"genes":    c.Size(),
				"saved_at": snapshot.SavedAt,
			}).Info("Loaded gene catalog from snapshot")
			return SourceSnapshot
		case err != nil && !errors.Is(err, domain.ErrSnapshotNotFound):
			c.logger.WithError(err).Warn("Failed to read catalog snapshot")
		}
	}

	if c.remote != nil {
		entries, err := c.fetchRemote(ctx)
		if err == nil {
			c.swap(newState(SourceRemote, entries))
			c.persist(ctx)
			c.logger.WithField("genes", c.Size()).Info("Loaded gene catalog from cBioPortal")
			return SourceRemote
		}
		c.logger.WithError(err).Warn("Failed to fetch gene catalog, using static list")
	}

	c.swap(newState(SourceStatic, lexicon.StaticCatalog()))
	c.logger.WithField("genes", c.Size()).Info("Using static gene catalog")
	return SourceStatic
}

// Refresh re-fetches the remote listing and swaps it in. On failure the
// current mapping stays in place and the returned error is a warning.
// Concurrent calls share one fetch.
func (c *Catalog) Refresh(ctx context.Context) error {
	if c.remote == nil {
		return fmt.Errorf("catalog refresh: no remote source configured")
	}

	_, err, _ := c.group.Do("refresh", func() (interface{}, error) {
		entries, err := c.fetchRemote(ctx)
		if err != nil {
			metrics.CatalogRefreshes.WithLabelValues("failed").Inc()
			return nil, err
		}
		c.swap(newState(SourceRemote, entries))
		c.persist(ctx)
		metrics.CatalogRefreshes.WithLabelValues("ok").Inc()
		return nil, nil
	})
	if err != nil {
		current := c.current.Load()
		c.logger.WithError(err).WithFields(logrus.Fields{
			"genes":  len(current.order),
			"source": current.source,
		}).Warn("Catalog refresh failed, keeping current catalog")
		return fmt.Errorf("catalog refresh failed, keeping %d genes from %s: %w", len(current.order), current.source, err)
	}

	c.logger.WithField("genes", c.Size()).Info("Catalog refreshed")
	return nil
}

func (c *Catalog) fetchRemote(ctx context.Context) ([]domain.CatalogEntry, error) {
	entries, err := c.remote.ListGenes(ctx, c.maxGenes)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("remote gene listing was empty")
	}
	if len(entries) > c.maxGenes {
		entries = entries[:c.maxGenes]
	}
	return entries, nil
}

func (c *Catalog) persist(ctx context.Context) {
	if c.store == nil {
		return
	}
	snapshot := &domain.CatalogSnapshot{
		Source:  string(SourceRemote),
		SavedAt: time.Now().UTC(),
		Entries: c.Entries(),
	}
	if err := c.store.Save(ctx, snapshot); err != nil {
		c.logger.WithError(err).Warn("Failed to persist catalog snapshot")
	}
}

// Lookup finds a gene by symbol, ignoring case and surrounding space.
func (c *Catalog) Lookup(symbol string) (domain.CatalogEntry, bool) {
	e, ok := c.current.Load().entries[genes.Normalize(symbol)]
	return e, ok
}

// Symbols returns the symbols in insertion order.
func (c *Catalog) Symbols() []string {
	return append([]string(nil), c.current.Load().order...)
}

// Entries returns the entries in insertion order.
func (c *Catalog) Entries() []domain.CatalogEntry {
	s := c.current.Load()
	out := make([]domain.CatalogEntry, len(s.order))
	for i, sym := range s.order {
		out[i] = s.entries[sym]
	}
	return out
}

// Size returns the number of genes.
func (c *Catalog) Size() int {
	return len(c.current.Load().order)
}

// Source returns where the active mapping came from.
func (c *Catalog) Source() Source {
	return c.current.Load().source
}

// LoadedAt returns when the active mapping was installed.
func (c *Catalog) LoadedAt() time.Time {
	return c.current.Load().loadedAt
}
