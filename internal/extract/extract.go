// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract turns a rendered invoice page into an ExtractedInvoice by
// asking a generative AI backend to read it. Backends are interchangeable;
// this package owns retrying, response validation and result caching.
package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/pdiddy/invoice-recon/pkg/types"
)

// ErrExtraction is wrapped by every failure to produce an invoice from an
// image: transport errors, unusable responses and validation failures.
var ErrExtraction = errors.New("extraction failed")

// Extractor turns one page image into invoice fields.
type Extractor interface {
	Extract(ctx context.Context, image []byte) (*types.ExtractedInvoice, error)
}

// AIBackend abstracts the Generative AI API so tests can supply a mock.
// Each implementation sends a single page image and returns the decoded,
// not yet validated, response.
type AIBackend interface {
	Extract(ctx context.Context, image []byte) (AIResponse, error)
}

// AIResponse is the invoice as returned by the AI backend. Required fields
// are pointers so a missing value can be told apart from a zero one.
type AIResponse struct {
	InvoiceNumber *string          `json:"invoice_number"`
	InvoiceDate   *string          `json:"invoice_date"`
	SupplierName  *string          `json:"supplier_name"`
	POReference   *string          `json:"po_reference"`
	Currency      string           `json:"currency"`
	LineItems     []AIResponseItem `json:"line_items"`
	Subtotal      *decimal.Decimal `json:"subtotal"`
	TotalAmount   *decimal.Decimal `json:"total_amount"`
}

// AIResponseItem is a single line item as returned by the AI backend.
type AIResponseItem struct {
	Description *string          `json:"description"`
	Quantity    *decimal.Decimal `json:"quantity"`
	UnitPrice   *decimal.Decimal `json:"unit_price"`
	LineTotal   *decimal.Decimal `json:"line_total"`
	ItemCode    *string          `json:"item_code"`
}

// AIExtractor is the Extractor backed by an AIBackend.
type AIExtractor struct {
	backend    AIBackend
	maxRetries int
	logger     zerolog.Logger
}

// NewAIExtractor wraps backend with retrying and validation. cfg.MaxRetries
// of zero or less selects the default of 3.
func NewAIExtractor(backend AIBackend, cfg types.AIConfig, logger zerolog.Logger) *AIExtractor {
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &AIExtractor{backend: backend, maxRetries: maxRetries, logger: logger}
}

// Extract calls the backend, retrying transient failures, and converts the
// response into an ExtractedInvoice.
func (e *AIExtractor) Extract(ctx context.Context, image []byte) (*types.ExtractedInvoice, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("%w: empty image", ErrExtraction)
	}

	start := time.Now()
	resp, err := callWithRetry(ctx, e.backend, image, e.maxRetries, e.logger)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExtraction, err)
	}

	inv, problems := convertResponse(resp)
	if len(problems) > 0 {
		return nil, fmt.Errorf("%w: invalid response: %s", ErrExtraction, strings.Join(problems, "; "))
	}

	e.logger.Debug().
		Str("invoice", inv.InvoiceNumber).
		Int("lines", len(inv.LineItems)).
		Dur("elapsed", time.Since(start)).
		Msg("invoice extracted")
	return inv, nil
}

// backoffBase controls the base duration for exponential backoff. Tests
// override this to avoid real sleeps.
var backoffBase = time.Second

// callWithRetry calls the AI backend with exponential backoff.
func callWithRetry(ctx context.Context, backend AIBackend, image []byte, maxRetries int, logger zerolog.Logger) (AIResponse, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			logger.Debug().Err(lastErr).Int("attempt", attempt).Dur("backoff", backoff).Msg("retrying extraction")
			select {
			case <-ctx.Done():
				return AIResponse{}, ctx.Err()
			case <-time.After(backoff):
			}
		}

		resp, err := backend.Extract(ctx, image)
		if err == nil {
			return resp, nil
		}
		lastErr = err
	}
	return AIResponse{}, fmt.Errorf("after %d retries: %w", maxRetries, lastErr)
}

// convertResponse validates an AI response and converts it to an
// ExtractedInvoice. An empty PO reference is treated as absent and a
// missing currency defaults to GBP.
func convertResponse(resp AIResponse) (*types.ExtractedInvoice, []string) {
	var problems []string
	require := func(field string, ok bool) {
		if !ok {
			problems = append(problems, "missing "+field)
		}
	}

	require("invoice_number", resp.InvoiceNumber != nil)
	require("invoice_date", resp.InvoiceDate != nil)
	require("supplier_name", resp.SupplierName != nil)
	require("line_items", resp.LineItems != nil)
	require("subtotal", resp.Subtotal != nil)
	require("total_amount", resp.TotalAmount != nil)

	items := make([]types.LineItem, 0, len(resp.LineItems))
	for i, item := range resp.LineItems {
		var missing []string
		if item.Description == nil {
			missing = append(missing, "description")
		}
		if item.Quantity == nil {
			missing = append(missing, "quantity")
		}
		if item.UnitPrice == nil {
			missing = append(missing, "unit_price")
		}
		if item.LineTotal == nil {
			missing = append(missing, "line_total")
		}
		if len(missing) > 0 {
			problems = append(problems, fmt.Sprintf("line %d: missing %s", i, strings.Join(missing, ", ")))
			continue
		}
		items = append(items, types.LineItem{
			Description: *item.Description,
			Quantity:    *item.Quantity,
			UnitPrice:   *item.UnitPrice,
			LineTotal:   *item.LineTotal,
			ItemCode:    nonEmpty(item.ItemCode),
		})
	}

	if len(problems) > 0 {
		return nil, problems
	}

	currency := strings.TrimSpace(resp.Currency)
	if currency == "" {
		currency = types.DefaultCurrency
	}

	return &types.ExtractedInvoice{
		InvoiceNumber: *resp.InvoiceNumber,
		InvoiceDate:   *resp.InvoiceDate,
		SupplierName:  *resp.SupplierName,
		POReference:   nonEmpty(resp.POReference),
		Currency:      currency,
		LineItems:     items,
		Subtotal:      *resp.Subtotal,
		TotalAmount:   *resp.TotalAmount,
	}, nil
}

func nonEmpty(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

// parseResponse decodes the JSON object in a model's text reply. Models
// sometimes wrap the object in a Markdown fence or a sentence; anything
// outside the outermost braces is ignored.
func parseResponse(text string) (AIResponse, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return AIResponse{}, fmt.Errorf("no JSON object in response")
	}

	var resp AIResponse
	if err := json.Unmarshal([]byte(text[start:end+1]), &resp); err != nil {
		return AIResponse{}, fmt.Errorf("parsing AI response JSON: %w", err)
	}
	return resp, nil
}

// NewBackend returns the AIBackend selected by cfg.Backend. An empty
// backend selects Claude.
func NewBackend(cfg types.ExtractionConfig) (AIBackend, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("no API key configured for extraction backend %q", cfg.Backend)
	}

	switch cfg.Backend {
	case types.BackendClaude, "":
		return &ClaudeBackend{APIKey: cfg.APIKey, Model: cfg.Model}, nil
	case types.BackendOpenAI:
		return NewOpenAIBackend(cfg.APIKey, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unknown extraction backend %q", cfg.Backend)
	}
}
