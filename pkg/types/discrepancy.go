// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// DiscrepancyType classifies a finding raised against an invoice.
type DiscrepancyType string

const (
	DiscrepancyMissingPO     DiscrepancyType = "missing_po"
	DiscrepancyTotalVariance DiscrepancyType = "total_variance"
	DiscrepancyPriceTrap     DiscrepancyType = "price_trap"
	DiscrepancyPriceVariance DiscrepancyType = "price_variance"
	DiscrepancyLineNotFound  DiscrepancyType = "line_item_not_found"
)

// Severity ranks a discrepancy for the resolver.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Discrepancy is one finding from comparing an invoice with its purchase order.
type Discrepancy struct {
	Type     DiscrepancyType `json:"type" yaml:"type"`
	Severity Severity        `json:"severity" yaml:"severity"`
	Details  string          `json:"details" yaml:"details"`
}
