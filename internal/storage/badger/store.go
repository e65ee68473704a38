// Package badger provides BadgerHold-based storage implementations for the
// engine's portfolio, order, trade, strategy, and audit data.
package badger

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/timshannon/badgerhold/v4"

	"github.com/raeisisep-star/titan/internal/common"
	"github.com/raeisisep-star/titan/internal/models"
)

// Store wraps a BadgerHold database connection.
type Store struct {
	db     *badgerhold.Store
	logger *common.Logger

	seqMu sync.Mutex // serializes sequence allocation
}

// sequenceRecord backs the named id sequences.
type sequenceRecord struct {
	Name  string `badgerhold:"key"`
	Value int64
}

// NewStore creates a new BadgerHold store at the given directory path.
func NewStore(logger *common.Logger, path string) (*Store, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create badger directory %s: %w", path, err)
	}

	options := badgerhold.DefaultOptions
	options.Dir = path
	options.ValueDir = path
	options.Logger = nil // Disable default badger logger

	db, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}

	logger.Debug().Str("path", path).Msg("BadgerHold store opened")

	return &Store{
		db:     db,
		logger: logger,
	}, nil
}

// DB returns the underlying badgerhold store.
func (s *Store) DB() *badgerhold.Store {
	return s.db
}

// NextID allocates the next value in a named monotonic sequence. Allocation
// is serialized so two callers never receive the same id.
func (s *Store) NextID(sequence string) (int64, error) {
	s.seqMu.Lock()
	defer s.seqMu.Unlock()

	var rec sequenceRecord
	err := s.db.Get(sequence, &rec)
	if err != nil && err != badgerhold.ErrNotFound {
		return 0, fmt.Errorf("failed to read sequence %s: %w", sequence, err)
	}
	rec.Name = sequence
	rec.Value++
	if err := s.db.Upsert(sequence, rec); err != nil {
		return 0, fmt.Errorf("failed to advance sequence %s: %w", sequence, err)
	}
	return rec.Value, nil
}

// ApplyFill writes the post-fill portfolio, asset, and trade inside a single
// badger transaction, so a write failure or crash never leaves a partial fill
// on disk.
func (s *Store) ApplyFill(_ context.Context, portfolio *models.Portfolio, asset *models.PortfolioAsset, trade *models.Trade) error {
	now := time.Now()
	portfolio.UpdatedAt = now
	if portfolio.CreatedAt.IsZero() {
		portfolio.CreatedAt = now
	}
	if asset.Key == "" {
		asset.Key = models.AssetKey(asset.PortfolioID, asset.Symbol)
	}
	asset.UpdatedAt = now

	err := s.db.Badger().Update(func(tx *badgerdb.Txn) error {
		if err := s.db.TxUpsert(tx, portfolio.ID, portfolio); err != nil {
			return fmt.Errorf("portfolio %d: %w", portfolio.ID, err)
		}
		if err := s.db.TxUpsert(tx, asset.Key, asset); err != nil {
			return fmt.Errorf("asset %s: %w", asset.Key, err)
		}
		if err := s.db.TxUpsert(tx, trade.ID, trade); err != nil {
			return fmt.Errorf("trade %d: %w", trade.ID, err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to apply fill for order %d: %w", trade.OrderID, err)
	}

	s.logger.Debug().Int64("trade", trade.ID).Int64("order", trade.OrderID).Msg("Fill applied")
	return nil
}

// Close closes the BadgerHold database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
