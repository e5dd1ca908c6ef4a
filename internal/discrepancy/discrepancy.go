// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package discrepancy compares an extracted invoice with its matched
// purchase order and reports typed, severity-tagged findings.
package discrepancy

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/pdiddy/invoice-recon/pkg/types"
)

var hundred = decimal.NewFromInt(100)

// Detector applies the total and per-line price checks.
type Detector struct {
	cfg    types.ReconcileConfig
	logger zerolog.Logger
}

// New returns a detector using cfg's tolerances.
func New(cfg types.ReconcileConfig, logger zerolog.Logger) *Detector {
	return &Detector{cfg: cfg, logger: logger}
}

// Detect returns the findings for inv against po, in rule order: the total
// check first, then one entry per flagged line item in invoice order.
//
// A nil invoice yields no findings. A nil purchase order yields exactly one
// missing_po finding and nothing else.
func (d *Detector) Detect(inv *types.ExtractedInvoice, po *types.PurchaseOrder) []types.Discrepancy {
	findings := []types.Discrepancy{}
	if inv == nil {
		return findings
	}

	if po == nil {
		return append(findings, types.Discrepancy{
			Type:     types.DiscrepancyMissingPO,
			Severity: types.SeverityHigh,
			Details:  "No matching PO found.",
		})
	}

	if f, ok := d.checkTotal(inv, po); ok {
		findings = append(findings, f)
	}

	for _, item := range inv.LineItems {
		if f, ok := d.checkLine(item, po); ok {
			findings = append(findings, f)
		}
	}

	return findings
}

// checkTotal flags a total mismatch only when the difference exceeds both
// the absolute and the relative threshold.
func (d *Detector) checkTotal(inv *types.ExtractedInvoice, po *types.PurchaseOrder) (types.Discrepancy, bool) {
	diff := inv.TotalAmount.Sub(po.Total).Abs()
	absLimit := decimal.NewFromFloat(d.cfg.TotalVarianceAbs)
	relLimit := po.Total.Mul(decimal.NewFromFloat(d.cfg.TotalVarianceRatio))

	if !diff.GreaterThan(absLimit) || !diff.GreaterThan(relLimit) {
		return types.Discrepancy{}, false
	}
	return types.Discrepancy{
		Type:     types.DiscrepancyTotalVariance,
		Severity: types.SeverityMedium,
		Details:  fmt.Sprintf("Total mismatch: %s vs %s", inv.TotalAmount.StringFixed(2), po.Total.StringFixed(2)),
	}, true
}

func (d *Detector) checkLine(item types.LineItem, po *types.PurchaseOrder) (types.Discrepancy, bool) {
	line, ok := findLine(item.Description, po.LineItems)
	if !ok {
		if d.cfg.StrictLineMatching {
			return types.Discrepancy{
				Type:     types.DiscrepancyLineNotFound,
				Severity: types.SeverityMedium,
				Details:  fmt.Sprintf("No PO line matches %s", item.Description),
			}, true
		}
		return types.Discrepancy{}, false
	}

	if line.UnitPrice.IsZero() {
		d.logger.Debug().
			Str("po", po.PONumber).
			Str("item", item.Description).
			Msg("skipping price comparison: PO unit price is zero")
		return types.Discrepancy{}, false
	}

	pct := item.UnitPrice.Sub(line.UnitPrice).Abs().Div(line.UnitPrice).Mul(hundred)

	switch {
	case pct.GreaterThan(decimal.NewFromFloat(d.cfg.PriceTrapPct)):
		return types.Discrepancy{
			Type:     types.DiscrepancyPriceTrap,
			Severity: types.SeverityHigh,
			Details:  fmt.Sprintf("Price hike of %s%% on %s", pct.StringFixed(1), item.Description),
		}, true
	case pct.GreaterThan(decimal.NewFromFloat(d.cfg.PriceVariancePct)):
		return types.Discrepancy{
			Type:     types.DiscrepancyPriceVariance,
			Severity: types.SeverityMedium,
			Details:  fmt.Sprintf("Price variance %s%% on %s", pct.StringFixed(1), item.Description),
		}, true
	}
	return types.Discrepancy{}, false
}

// findLine returns the first PO line whose description contains, or is
// contained in, desc, ignoring case.
func findLine(desc string, lines []types.POLineItem) (types.POLineItem, bool) {
	want := strings.ToLower(desc)
	for _, l := range lines {
		have := strings.ToLower(l.Description)
		if strings.Contains(have, want) || strings.Contains(want, have) {
			return l, true
		}
	}
	return types.POLineItem{}, false
}
