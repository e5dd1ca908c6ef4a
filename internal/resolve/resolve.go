// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package resolve turns discrepancy findings and the match outcome into a
// final recommendation.
package resolve

import "github.com/pdiddy/invoice-recon/pkg/types"

const (
	reasonEscalate = "High severity discrepancies detected."
	reasonReview   = "Minor discrepancies or fuzzy match."
	reasonApprove  = "Clean match."
	reasonPending  = "No invoice data could be extracted."
)

// Resolve applies the decision rules top-down: any high severity finding
// escalates; any medium finding or a fuzzy match flags for review; a run
// with no match outcome and no findings stays pending; everything else is
// approved.
func Resolve(discrepancies []types.Discrepancy, match *types.MatchResult) (types.Recommendation, string) {
	if hasSeverity(discrepancies, types.SeverityHigh) {
		return types.RecommendEscalate, reasonEscalate
	}

	if hasSeverity(discrepancies, types.SeverityMedium) ||
		(match != nil && match.Method == types.MatchFuzzy) {
		return types.RecommendReview, reasonReview
	}

	// Nothing was extracted, so there was nothing to match or check.
	if match == nil && len(discrepancies) == 0 {
		return types.RecommendPending, reasonPending
	}

	return types.RecommendAutoApprove, reasonApprove
}

func hasSeverity(discrepancies []types.Discrepancy, sev types.Severity) bool {
	for _, d := range discrepancies {
		if d.Severity == sev {
			return true
		}
	}
	return false
}
