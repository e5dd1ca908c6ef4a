// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package match pairs an extracted invoice with a purchase order: first by
// the PO number the invoice quotes, then by supplier name and total.
package match

import (
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/pdiddy/invoice-recon/pkg/types"
)

const (
	exactConfidence = 0.99
	fuzzyConfidence = 0.85
)

// RecordStore is the lookup surface the matcher needs. *postore.Store
// satisfies it.
type RecordStore interface {
	LookupByID(id string) (*types.PurchaseOrder, bool)
	FuzzySearch(supplierName string, totalAmount decimal.Decimal) (*types.PurchaseOrder, bool)
}

// Matcher resolves invoices against one shared, read-only store.
type Matcher struct {
	store  RecordStore
	logger zerolog.Logger
}

// New returns a matcher over store.
func New(store RecordStore, logger zerolog.Logger) *Matcher {
	return &Matcher{store: store, logger: logger}
}

// Match returns the match outcome and the matched purchase order. A nil
// invoice yields (nil, nil). When the invoice quotes a PO number that
// exists, that record is used and fuzzy search is never consulted.
func (m *Matcher) Match(inv *types.ExtractedInvoice) (*types.MatchResult, *types.PurchaseOrder) {
	if inv == nil {
		return nil, nil
	}

	var (
		po     *types.PurchaseOrder
		method = types.MatchNone
	)

	if inv.HasPOReference() {
		if found, ok := m.store.LookupByID(*inv.POReference); ok {
			po, method = found, types.MatchExact
		}
	}

	if po == nil {
		m.logger.Debug().
			Str("supplier", inv.SupplierName).
			Str("total", inv.TotalAmount.String()).
			Msg("exact match failed, trying fuzzy search")
		if found, ok := m.store.FuzzySearch(inv.SupplierName, inv.TotalAmount); ok {
			po, method = found, types.MatchFuzzy
		}
	}

	result := &types.MatchResult{
		Method:           method,
		SupplierMatch:    po != nil,
		LineItemsMatched: 0,
	}
	switch method {
	case types.MatchExact:
		result.Confidence = exactConfidence
	case types.MatchFuzzy:
		result.Confidence = fuzzyConfidence
	}
	if po != nil {
		id := po.PONumber
		result.MatchedPOID = &id
	}

	return result, po
}
