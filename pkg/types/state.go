// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Recommendation is the verdict issued for one invoice.
type Recommendation string

const (
	RecommendAutoApprove Recommendation = "auto_approve"
	RecommendReview      Recommendation = "flag_for_review"
	RecommendEscalate    Recommendation = "escalate_to_human"
	RecommendPending     Recommendation = "pending"
)

// PipelineState is the working record for one invoice. Each stage reads the
// fields set by earlier stages and returns a StateUpdate; the controller
// applies it before the next stage runs. A state is never shared between
// invoices.
type PipelineState struct {
	RunID          string            `json:"run_id" yaml:"run_id"`
	FilePath       string            `json:"file_path" yaml:"file_path"`
	Extracted      *ExtractedInvoice `json:"extracted_data" yaml:"extracted_data"`
	PO             *PurchaseOrder    `json:"po_data" yaml:"po_data"`
	Match          *MatchResult      `json:"match_result" yaml:"match_result"`
	Discrepancies  []Discrepancy     `json:"discrepancies" yaml:"discrepancies"`
	Recommendation Recommendation    `json:"recommendation" yaml:"recommendation"`
	Reasoning      string            `json:"reasoning" yaml:"reasoning"`
	Logs           []string          `json:"logs" yaml:"logs"`
}

// NewPipelineState returns the initial state for the document at filePath.
func NewPipelineState(runID, filePath string) *PipelineState {
	return &PipelineState{
		RunID:          runID,
		FilePath:       filePath,
		Discrepancies:  []Discrepancy{},
		Recommendation: RecommendPending,
		Logs:           []string{},
	}
}

// StateUpdate carries the fields one stage produced. Nil pointers, a nil
// Discrepancies slice and empty strings leave the state unchanged; Logs are
// appended.
type StateUpdate struct {
	Extracted      *ExtractedInvoice
	PO             *PurchaseOrder
	Match          *MatchResult
	Discrepancies  []Discrepancy
	Recommendation Recommendation
	Reasoning      string
	Logs           []string
}

// Apply merges u into s.
func (s *PipelineState) Apply(u StateUpdate) {
	if u.Extracted != nil {
		s.Extracted = u.Extracted
	}
	if u.PO != nil {
		s.PO = u.PO
	}
	if u.Match != nil {
		s.Match = u.Match
	}
	if u.Discrepancies != nil {
		s.Discrepancies = u.Discrepancies
	}
	if u.Recommendation != "" {
		s.Recommendation = u.Recommendation
	}
	if u.Reasoning != "" {
		s.Reasoning = u.Reasoning
	}
	s.Logs = append(s.Logs, u.Logs...)
}
