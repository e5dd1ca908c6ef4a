package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/invoice-recon/internal/httputil"
	"github.com/pdiddy/invoice-recon/pkg/types"
)

// --- mock backends ---

type mockAIBackend struct {
	response AIResponse
	err      error
	calls    int
}

func (m *mockAIBackend) Extract(_ context.Context, _ []byte) (AIResponse, error) {
	m.calls++
	if m.err != nil {
		return AIResponse{}, m.err
	}
	return m.response, nil
}

// failNTimesBackend fails the first N calls, then succeeds.
type failNTimesBackend struct {
	failures  int
	callCount int
	response  AIResponse
}

func (f *failNTimesBackend) Extract(_ context.Context, _ []byte) (AIResponse, error) {
	f.callCount++
	if f.callCount <= f.failures {
		return AIResponse{}, fmt.Errorf("transient error (call %d)", f.callCount)
	}
	return f.response, nil
}

func TestMain(m *testing.M) {
	// Override backoff to avoid real sleeps in retry tests.
	backoffBase = time.Millisecond
	httputil.RetryBaseDelay = time.Millisecond
	os.Exit(m.Run())
}

func strPtr(s string) *string { return &s }

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

var testPNG = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func validResponse() AIResponse {
	return AIResponse{
		InvoiceNumber: strPtr("INV-100"),
		InvoiceDate:   strPtr("2024-03-12"),
		SupplierName:  strPtr("Acme Widgets Ltd"),
		POReference:   strPtr("PO-1001"),
		Currency:      "EUR",
		LineItems: []AIResponseItem{
			{
				Description: strPtr("Widget A"),
				Quantity:    decPtr("10"),
				UnitPrice:   decPtr("10.00"),
				LineTotal:   decPtr("100.00"),
				ItemCode:    strPtr("WA-1"),
			},
		},
		Subtotal:    decPtr("100.00"),
		TotalAmount: decPtr("120.00"),
	}
}

// --- convertResponse ---

func TestConvertResponse(t *testing.T) {
	tests := []struct {
		name         string
		mutate       func(r *AIResponse)
		wantProblems []string
		check        func(t *testing.T, inv *types.ExtractedInvoice)
	}{
		{
			name: "valid response",
			check: func(t *testing.T, inv *types.ExtractedInvoice) {
				assert.Equal(t, "INV-100", inv.InvoiceNumber)
				assert.Equal(t, "EUR", inv.Currency)
				require.NotNil(t, inv.POReference)
				assert.Equal(t, "PO-1001", *inv.POReference)
				require.Len(t, inv.LineItems, 1)
				assert.True(t, inv.LineItems[0].UnitPrice.Equal(decimal.NewFromInt(10)))
				assert.True(t, inv.TotalAmount.Equal(decimal.NewFromInt(120)))
			},
		},
		{
			name:   "currency defaults to GBP",
			mutate: func(r *AIResponse) { r.Currency = "" },
			check: func(t *testing.T, inv *types.ExtractedInvoice) {
				assert.Equal(t, "GBP", inv.Currency)
			},
		},
		{
			name:   "null PO reference",
			mutate: func(r *AIResponse) { r.POReference = nil },
			check: func(t *testing.T, inv *types.ExtractedInvoice) {
				assert.Nil(t, inv.POReference)
				assert.False(t, inv.HasPOReference())
			},
		},
		{
			name:   "blank PO reference is absent",
			mutate: func(r *AIResponse) { r.POReference = strPtr("  ") },
			check: func(t *testing.T, inv *types.ExtractedInvoice) {
				assert.Nil(t, inv.POReference)
			},
		},
		{
			name:   "empty line items are allowed",
			mutate: func(r *AIResponse) { r.LineItems = []AIResponseItem{} },
			check: func(t *testing.T, inv *types.ExtractedInvoice) {
				assert.Empty(t, inv.LineItems)
			},
		},
		{
			name: "missing required fields",
			mutate: func(r *AIResponse) {
				r.InvoiceNumber = nil
				r.TotalAmount = nil
				r.LineItems = nil
			},
			wantProblems: []string{"missing invoice_number", "missing line_items", "missing total_amount"},
		},
		{
			name: "line item missing prices",
			mutate: func(r *AIResponse) {
				r.LineItems[0].UnitPrice = nil
				r.LineItems[0].LineTotal = nil
			},
			wantProblems: []string{"line 0: missing unit_price, line_total"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := validResponse()
			if tt.mutate != nil {
				tt.mutate(&resp)
			}

			inv, problems := convertResponse(resp)
			if tt.wantProblems != nil {
				assert.Nil(t, inv)
				assert.Equal(t, tt.wantProblems, problems)
				return
			}
			require.Empty(t, problems)
			require.NotNil(t, inv)
			tt.check(t, inv)
		})
	}
}

// --- parseResponse ---

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr bool
	}{
		{"bare object", `{"invoice_number": "INV-1", "total_amount": 12.5}`, false},
		{"markdown fence", "```json\n{\"invoice_number\": \"INV-1\", \"total_amount\": \"12.50\"}\n```", false},
		{"leading sentence", `Here is the data: {"invoice_number": "INV-1", "total_amount": 12.5}`, false},
		{"no object", "I could not read this invoice.", true},
		{"broken JSON", `{"invoice_number": }`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := parseResponse(tt.text)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, resp.InvoiceNumber)
			assert.Equal(t, "INV-1", *resp.InvoiceNumber)
			require.NotNil(t, resp.TotalAmount)
			assert.True(t, resp.TotalAmount.Equal(decimal.RequireFromString("12.5")))
		})
	}
}

// --- callWithRetry ---

func TestCallWithRetry(t *testing.T) {
	tests := []struct {
		name       string
		failures   int
		maxRetries int
		wantErr    bool
	}{
		{"succeeds first try", 0, 3, false},
		{"succeeds after 2 failures", 2, 3, false},
		{"fails after exhausting retries", 4, 3, true},
		{"succeeds on last retry", 3, 3, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &failNTimesBackend{failures: tt.failures, response: validResponse()}

			_, err := callWithRetry(context.Background(), backend, testPNG, tt.maxRetries, zerolog.Nop())

			if tt.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestCallWithRetry_ContextCancelled(t *testing.T) {
	old := backoffBase
	backoffBase = time.Second
	defer func() { backoffBase = old }()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	backend := &failNTimesBackend{failures: 10}
	_, err := callWithRetry(ctx, backend, testPNG, 3, zerolog.Nop())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, backend.callCount)
}

// --- AIExtractor ---

func TestAIExtractor_Extract(t *testing.T) {
	backend := &mockAIBackend{response: validResponse()}
	e := NewAIExtractor(backend, types.AIConfig{}, zerolog.Nop())

	inv, err := e.Extract(context.Background(), testPNG)
	require.NoError(t, err)
	assert.Equal(t, "Acme Widgets Ltd", inv.SupplierName)
	assert.Equal(t, 1, backend.calls)
}

func TestAIExtractor_Errors(t *testing.T) {
	invalid := validResponse()
	invalid.SupplierName = nil

	tests := []struct {
		name      string
		backend   *mockAIBackend
		image     []byte
		wantCalls int
		wantMsg   string
	}{
		{
			name:      "empty image",
			backend:   &mockAIBackend{response: validResponse()},
			image:     nil,
			wantCalls: 0,
			wantMsg:   "empty image",
		},
		{
			name:      "backend keeps failing",
			backend:   &mockAIBackend{err: errors.New("boom")},
			image:     testPNG,
			wantCalls: 3, // 1 initial + 2 retries
			wantMsg:   "after 2 retries: boom",
		},
		{
			name:      "invalid response is not retried",
			backend:   &mockAIBackend{response: invalid},
			image:     testPNG,
			wantCalls: 1,
			wantMsg:   "missing supplier_name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewAIExtractor(tt.backend, types.AIConfig{MaxRetries: 2}, zerolog.Nop())

			inv, err := e.Extract(context.Background(), tt.image)
			assert.Nil(t, inv)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrExtraction)
			assert.Contains(t, err.Error(), tt.wantMsg)
			assert.Equal(t, tt.wantCalls, tt.backend.calls)
		})
	}
}

// --- NewBackend ---

func TestNewBackend(t *testing.T) {
	tests := []struct {
		name    string
		cfg     types.ExtractionConfig
		want    string
		wantErr string
	}{
		{
			name: "default is claude",
			cfg:  types.ExtractionConfig{AIConfig: types.AIConfig{APIKey: "k"}},
			want: "*extract.ClaudeBackend",
		},
		{
			name: "openai",
			cfg:  types.ExtractionConfig{AIConfig: types.AIConfig{APIKey: "k"}, Backend: types.BackendOpenAI},
			want: "*extract.OpenAIBackend",
		},
		{
			name:    "missing key",
			cfg:     types.ExtractionConfig{Backend: types.BackendClaude},
			wantErr: "no API key",
		},
		{
			name:    "unknown backend",
			cfg:     types.ExtractionConfig{AIConfig: types.AIConfig{APIKey: "k"}, Backend: "groq"},
			wantErr: `unknown extraction backend "groq"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend, err := NewBackend(tt.cfg)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, fmt.Sprintf("%T", backend))
		})
	}
}

// --- renderPrompt ---

func TestRenderPrompt(t *testing.T) {
	prompt, err := renderPrompt()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(prompt, "Extract invoice data into JSON. Set missing PO to null."))
	assert.Contains(t, prompt, `use "GBP"`)
	assert.Contains(t, prompt, "total_amount")
}
