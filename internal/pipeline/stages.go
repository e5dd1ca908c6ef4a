// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/invoice-recon/internal/resolve"
	"github.com/pdiddy/invoice-recon/pkg/types"
)

// Stage names, in default order.
const (
	StageExtract = "extract"
	StageMatch   = "match"
	StageCheck   = "check"
	StageResolve = "resolve"
)

// DocumentLoader turns a document path into page image bytes.
type DocumentLoader interface {
	Load(ctx context.Context, path string) ([]byte, error)
}

// Extractor reads invoice fields from a page image.
type Extractor interface {
	Extract(ctx context.Context, image []byte) (*types.ExtractedInvoice, error)
}

// Matcher pairs an invoice with a purchase order.
type Matcher interface {
	Match(inv *types.ExtractedInvoice) (*types.MatchResult, *types.PurchaseOrder)
}

// Detector compares an invoice with its purchase order.
type Detector interface {
	Detect(inv *types.ExtractedInvoice, po *types.PurchaseOrder) []types.Discrepancy
}

// Deps are the collaborators of the default stages. They are built once
// and shared across runs.
type Deps struct {
	Loader    DocumentLoader
	Extractor Extractor
	Matcher   Matcher
	Detector  Detector

	// ExtractTimeout bounds the extractor call; zero means no limit.
	ExtractTimeout time.Duration

	// Out receives the progress lines; nil discards them.
	Out    io.Writer
	Logger zerolog.Logger
}

// Default builds the extract → match → check → resolve pipeline.
func Default(deps Deps) *Controller {
	out := deps.Out
	if out == nil {
		out = io.Discard
	}
	return New(out, deps.Logger,
		Stage{Name: StageExtract, Run: extractStage(deps.Loader, deps.Extractor, deps.ExtractTimeout, out, deps.Logger)},
		Stage{Name: StageMatch, Run: matchStage(deps.Matcher, out)},
		Stage{Name: StageCheck, Run: checkStage(deps.Detector, out)},
		Stage{Name: StageResolve, Run: resolveStage(out)},
	)
}

// extractStage loads the document and extracts the invoice. Any failure
// leaves Extracted nil and records the error in the logs.
func extractStage(loader DocumentLoader, extractor Extractor, timeout time.Duration, out io.Writer, logger zerolog.Logger) func(context.Context, *types.PipelineState) types.StateUpdate {
	return func(ctx context.Context, state *types.PipelineState) types.StateUpdate {
		fmt.Fprintf(out, "processing %s...\n", state.FilePath)

		fail := func(err error) types.StateUpdate {
			fmt.Fprintf(out, "extraction failed: %v\n", err)
			logger.Warn().Err(err).Str("file", state.FilePath).Msg("extraction failed")
			return types.StateUpdate{Logs: []string{fmt.Sprintf("Error: %v", err)}}
		}

		image, err := loader.Load(ctx, state.FilePath)
		if err != nil {
			return fail(err)
		}

		extractCtx := ctx
		if timeout > 0 {
			var cancel context.CancelFunc
			extractCtx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		inv, err := extractor.Extract(extractCtx, image)
		if err != nil {
			return fail(err)
		}

		fmt.Fprintf(out, "extracted invoice: %s\n", inv.InvoiceNumber)
		return types.StateUpdate{Extracted: inv}
	}
}

// matchStage resolves the extracted invoice against the store. Without an
// extraction it produces nothing.
func matchStage(matcher Matcher, out io.Writer) func(context.Context, *types.PipelineState) types.StateUpdate {
	return func(_ context.Context, state *types.PipelineState) types.StateUpdate {
		fmt.Fprintln(out, "matching with database...")

		result, po := matcher.Match(state.Extracted)
		if result == nil {
			return types.StateUpdate{}
		}

		if result.Method != types.MatchExact {
			fmt.Fprintln(out, "exact match failed, trying fuzzy search...")
		}

		poID := "None"
		if result.MatchedPOID != nil {
			poID = *result.MatchedPOID
		}
		fmt.Fprintf(out, "found PO: %s (method: %s)\n", poID, result.Method)

		return types.StateUpdate{Match: result, PO: po}
	}
}

func checkStage(detector Detector, out io.Writer) func(context.Context, *types.PipelineState) types.StateUpdate {
	return func(_ context.Context, state *types.PipelineState) types.StateUpdate {
		fmt.Fprintln(out, "checking for discrepancies...")

		found := detector.Detect(state.Extracted, state.PO)
		fmt.Fprintf(out, "discrepancies found: %d\n", len(found))
		return types.StateUpdate{Discrepancies: found}
	}
}

func resolveStage(out io.Writer) func(context.Context, *types.PipelineState) types.StateUpdate {
	return func(_ context.Context, state *types.PipelineState) types.StateUpdate {
		rec, reason := resolve.Resolve(state.Discrepancies, state.Match)
		fmt.Fprintf(out, "final verdict: %s\n", rec)
		return types.StateUpdate{Recommendation: rec, Reasoning: reason}
	}
}
