// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/invoice-recon/pkg/types"
)

// memoryCache is an in-process Cache.
type memoryCache struct {
	entries map[string][]byte
	ttls    map[string]time.Duration
	getErr  error
	setErr  error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	v, ok := m.entries[key]
	return v, ok, nil
}

func (m *memoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.entries[key] = value
	m.ttls[key] = ttl
	return nil
}

// countingExtractor returns a fixed invoice and counts calls.
type countingExtractor struct {
	inv   *types.ExtractedInvoice
	err   error
	calls int
}

func (c *countingExtractor) Extract(_ context.Context, _ []byte) (*types.ExtractedInvoice, error) {
	c.calls++
	return c.inv, c.err
}

func sampleInvoice() *types.ExtractedInvoice {
	return &types.ExtractedInvoice{
		InvoiceNumber: "INV-1",
		SupplierName:  "Acme",
		Currency:      "GBP",
		LineItems:     []types.LineItem{{Description: "Widget", UnitPrice: decimal.RequireFromString("10.50")}},
		TotalAmount:   decimal.RequireFromString("10.50"),
	}
}

func TestCachedExtractor_HitAfterMiss(t *testing.T) {
	cache := newMemoryCache()
	next := &countingExtractor{inv: sampleInvoice()}
	c := NewCachedExtractor(next, cache, time.Hour, "claude/test", zerolog.Nop())

	first, err := c.Extract(context.Background(), testPNG)
	require.NoError(t, err)
	second, err := c.Extract(context.Background(), testPNG)
	require.NoError(t, err)

	assert.Equal(t, 1, next.calls)
	assert.Equal(t, first.InvoiceNumber, second.InvoiceNumber)
	assert.True(t, second.LineItems[0].UnitPrice.Equal(decimal.RequireFromString("10.5")))

	require.Len(t, cache.entries, 1)
	for key, ttl := range cache.ttls {
		assert.True(t, strings.HasPrefix(key, "invoice-recon:extract:claude/test:"), key)
		assert.Equal(t, time.Hour, ttl)
	}
}

func TestCachedExtractor_DistinctImages(t *testing.T) {
	next := &countingExtractor{inv: sampleInvoice()}
	c := NewCachedExtractor(next, newMemoryCache(), time.Hour, "ns", zerolog.Nop())

	_, err := c.Extract(context.Background(), []byte("page one"))
	require.NoError(t, err)
	_, err = c.Extract(context.Background(), []byte("page two"))
	require.NoError(t, err)

	assert.Equal(t, 2, next.calls)
}

func TestCachedExtractor_FailuresAreNotCached(t *testing.T) {
	cache := newMemoryCache()
	next := &countingExtractor{err: ErrExtraction}
	c := NewCachedExtractor(next, cache, time.Hour, "ns", zerolog.Nop())

	_, err := c.Extract(context.Background(), testPNG)
	assert.ErrorIs(t, err, ErrExtraction)
	assert.Empty(t, cache.entries)
}

func TestCachedExtractor_CacheErrorsAreIgnored(t *testing.T) {
	cache := newMemoryCache()
	cache.getErr = errors.New("connection refused")
	cache.setErr = errors.New("connection refused")
	next := &countingExtractor{inv: sampleInvoice()}
	c := NewCachedExtractor(next, cache, time.Hour, "ns", zerolog.Nop())

	inv, err := c.Extract(context.Background(), testPNG)
	require.NoError(t, err)
	assert.Equal(t, "INV-1", inv.InvoiceNumber)
	assert.Equal(t, 1, next.calls)
}

func TestCachedExtractor_CorruptEntryIsReplaced(t *testing.T) {
	cache := newMemoryCache()
	next := &countingExtractor{inv: sampleInvoice()}
	c := NewCachedExtractor(next, cache, time.Hour, "ns", zerolog.Nop())
	cache.entries[c.key(testPNG)] = []byte("not json")

	inv, err := c.Extract(context.Background(), testPNG)
	require.NoError(t, err)
	assert.Equal(t, "INV-1", inv.InvoiceNumber)
	assert.Equal(t, 1, next.calls)
	assert.NotEqual(t, "not json", string(cache.entries[c.key(testPNG)]))
}

func TestNewRedisCache_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	// Port 1 on loopback refuses connections.
	_, err := NewRedisCache(ctx, types.CacheConfig{RedisAddr: "127.0.0.1:1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connecting to redis at 127.0.0.1:1")
}
