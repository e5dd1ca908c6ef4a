// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "github.com/shopspring/decimal"

// POLineItem is one ordered line on a purchase order.
type POLineItem struct {
	Description string          `json:"description" yaml:"description"`
	UnitPrice   decimal.Decimal `json:"unit_price" yaml:"unit_price"`
	Quantity    decimal.Decimal `json:"quantity" yaml:"quantity"`
	ItemCode    string          `json:"item_code,omitempty" yaml:"item_code,omitempty"`
}

// PurchaseOrder is a record from the purchase-order store. Records are
// loaded once and never modified while invoices are processed.
type PurchaseOrder struct {
	// PONumber is the unique identifier invoices quote as their PO reference.
	PONumber string `json:"po_number" yaml:"po_number"`

	// Supplier is the supplier name used for fuzzy matching.
	Supplier string `json:"supplier" yaml:"supplier"`

	// Total is the ordered amount.
	Total decimal.Decimal `json:"total" yaml:"total"`

	LineItems []POLineItem `json:"line_items" yaml:"line_items"`
}
