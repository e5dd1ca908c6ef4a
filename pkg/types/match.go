// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// MatchMethod records how an invoice was paired with a purchase order.
type MatchMethod string

const (
	MatchExact MatchMethod = "exact"
	MatchFuzzy MatchMethod = "fuzzy"
	MatchNone  MatchMethod = "none"
)

// MatchResult describes the outcome of resolving one invoice against the
// purchase-order store.
type MatchResult struct {
	// Confidence is in [0, 1]: 0.99 for exact, 0.85 for fuzzy, 0 for none.
	Confidence float64 `json:"po_match_confidence" yaml:"po_match_confidence"`

	// MatchedPOID is nil when no purchase order was found.
	MatchedPOID *string `json:"matched_po_id" yaml:"matched_po_id"`

	Method MatchMethod `json:"match_method" yaml:"match_method"`

	// SupplierMatch is true whenever any purchase order was found.
	SupplierMatch bool `json:"supplier_match" yaml:"supplier_match"`

	// LineItemsMatched is reserved; the matcher does not pair lines and
	// always reports 0.
	LineItemsMatched int `json:"line_items_matched" yaml:"line_items_matched"`
}
