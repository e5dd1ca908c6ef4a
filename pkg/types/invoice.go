// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types holds the domain records shared by every pipeline stage:
// the extracted invoice, the purchase-order records it is reconciled
// against, and the findings and verdict produced along the way.
package types

import "github.com/shopspring/decimal"

// DefaultCurrency is applied when the extractor does not report one.
const DefaultCurrency = "GBP"

// LineItem is one billed line on an invoice as read by the extractor.
type LineItem struct {
	Description string          `json:"description" yaml:"description"`
	Quantity    decimal.Decimal `json:"quantity" yaml:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price" yaml:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total" yaml:"line_total"`
	ItemCode    *string         `json:"item_code,omitempty" yaml:"item_code,omitempty"`
}

// ExtractedInvoice is the structured form of one invoice document.
//
// TotalAmount is expected to approximate the line totals plus tax and
// adjustments. That relation is not checked here; the discrepancy stage
// compares TotalAmount against the matched purchase order instead.
type ExtractedInvoice struct {
	InvoiceNumber string          `json:"invoice_number" yaml:"invoice_number"`
	InvoiceDate   string          `json:"invoice_date" yaml:"invoice_date"`
	SupplierName  string          `json:"supplier_name" yaml:"supplier_name"`
	POReference   *string         `json:"po_reference,omitempty" yaml:"po_reference,omitempty"`
	Currency      string          `json:"currency" yaml:"currency"`
	LineItems     []LineItem      `json:"line_items" yaml:"line_items"`
	Subtotal      decimal.Decimal `json:"subtotal" yaml:"subtotal"`
	TotalAmount   decimal.Decimal `json:"total_amount" yaml:"total_amount"`
}

// HasPOReference reports whether the invoice quotes a non-empty PO number.
func (inv *ExtractedInvoice) HasPOReference() bool {
	return inv.POReference != nil && *inv.POReference != ""
}
