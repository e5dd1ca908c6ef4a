// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package postore holds the purchase-order records invoices are reconciled
// against. Records come from a JSON or YAML document or from a SQLite
// database built with ImportFile; once loaded, a Store is read-only and
// safe to share between goroutines without locking.
package postore

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/pdiddy/invoice-recon/pkg/types"
)

// ErrStoreUnavailable is wrapped by every Load failure: missing file,
// unreadable database, malformed document.
var ErrStoreUnavailable = errors.New("purchase order store unavailable")

// Store is an in-memory, read-only collection of purchase orders.
type Store struct {
	orders []types.PurchaseOrder
	tol    types.Tolerances
}

// Option configures a Store.
type Option func(*Store)

// WithTolerances overrides the fuzzy search thresholds.
func WithTolerances(tol types.Tolerances) Option {
	return func(s *Store) { s.tol = tol }
}

// New returns a store over orders. The slice is copied.
func New(orders []types.PurchaseOrder, opts ...Option) *Store {
	s := &Store{
		orders: append([]types.PurchaseOrder(nil), orders...),
		tol:    types.DefaultTolerances(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads purchase orders from path, choosing the reader by extension:
// .json, .yaml and .yml are documents with a top-level purchase_orders key;
// .db, .sqlite and .sqlite3 are databases written by ImportFile.
func Load(path string, opts ...Option) (*Store, error) {
	var (
		orders []types.PurchaseOrder
		err    error
	)

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json", ".yaml", ".yml":
		orders, err = readDocument(path)
	case ".db", ".sqlite", ".sqlite3":
		orders, err = readDatabase(path)
	default:
		err = fmt.Errorf("unsupported store format %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, path, err)
	}

	return New(orders, opts...), nil
}

// LoadOrEmpty is Load that never fails: when the source cannot be read the
// condition is logged and an empty store is returned, so every lookup
// reports not found.
func LoadOrEmpty(path string, logger zerolog.Logger, opts ...Option) *Store {
	s, err := Load(path, opts...)
	if err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("starting with an empty purchase order store")
		return New(nil, opts...)
	}
	logger.Debug().Str("path", path).Int("orders", s.Len()).Msg("purchase order store loaded")
	return s
}

// Len returns the number of purchase orders.
func (s *Store) Len() int {
	return len(s.orders)
}

// All returns a copy of every purchase order in load order.
func (s *Store) All() []types.PurchaseOrder {
	return append([]types.PurchaseOrder(nil), s.orders...)
}

// LookupByID returns the purchase order whose PONumber equals id exactly.
// No case folding or trimming is applied.
func (s *Store) LookupByID(id string) (*types.PurchaseOrder, bool) {
	for i := range s.orders {
		if s.orders[i].PONumber == id {
			po := s.orders[i]
			return &po, true
		}
	}
	return nil, false
}

// FuzzySearch finds the purchase order that best fits a supplier name and
// total when no PO number is available.
//
// A record is a candidate when its total is within PriceCloseRatio of its
// own total (|po.total - total| <= po.total * ratio) and the case-folded
// supplier similarity strictly exceeds SimilarityThreshold. The candidate
// with the highest similarity wins; on equal similarity the first record
// seen is kept.
func (s *Store) FuzzySearch(supplierName string, totalAmount decimal.Decimal) (*types.PurchaseOrder, bool) {
	query := strings.ToLower(supplierName)
	closeRatio := decimal.NewFromFloat(s.tol.PriceCloseRatio)

	best := -1
	highest := 0.0
	for i := range s.orders {
		po := &s.orders[i]

		similarity := Ratio(query, strings.ToLower(po.Supplier))

		priceDiff := po.Total.Sub(totalAmount).Abs()
		isPriceClose := priceDiff.LessThanOrEqual(po.Total.Mul(closeRatio))

		if isPriceClose && similarity > s.tol.SimilarityThreshold && similarity > highest {
			highest = similarity
			best = i
		}
	}

	if best < 0 {
		return nil, false
	}
	po := s.orders[best]
	return &po, true
}
