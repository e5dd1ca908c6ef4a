// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Tolerances holds the thresholds used by fuzzy matching and discrepancy
// detection. Ratios are fractions (0.05 = 5%); *Pct fields are percentages.
type Tolerances struct {
	// PriceCloseRatio bounds |po.total - invoice.total| relative to po.total
	// for a fuzzy candidate (default 0.05).
	PriceCloseRatio float64 `json:"price_close_ratio" yaml:"price_close_ratio"`

	// SimilarityThreshold is the supplier-name ratio a fuzzy candidate must
	// strictly exceed (default 0.6).
	SimilarityThreshold float64 `json:"similarity_threshold" yaml:"similarity_threshold"`

	// TotalVarianceAbs is the absolute total difference that must be
	// exceeded to raise total_variance (default 5.0).
	TotalVarianceAbs float64 `json:"total_variance_abs" yaml:"total_variance_abs"`

	// TotalVarianceRatio is the difference relative to po.total that must
	// also be exceeded (default 0.01).
	TotalVarianceRatio float64 `json:"total_variance_ratio" yaml:"total_variance_ratio"`

	// PriceTrapPct is the unit-price deviation above which a high-severity
	// price_trap is raised (default 15).
	PriceTrapPct float64 `json:"price_trap_pct" yaml:"price_trap_pct"`

	// PriceVariancePct is the unit-price deviation above which a
	// medium-severity price_variance is raised (default 5).
	PriceVariancePct float64 `json:"price_variance_pct" yaml:"price_variance_pct"`
}

// DefaultTolerances returns the standard reconciliation thresholds.
func DefaultTolerances() Tolerances {
	return Tolerances{
		PriceCloseRatio:     0.05,
		SimilarityThreshold: 0.6,
		TotalVarianceAbs:    5.0,
		TotalVarianceRatio:  0.01,
		PriceTrapPct:        15,
		PriceVariancePct:    5,
	}
}

// ReconcileConfig holds settings for the match and check stages.
type ReconcileConfig struct {
	Tolerances `yaml:",inline"`

	// StrictLineMatching raises line_item_not_found for invoice lines with
	// no counterpart on the purchase order.
	StrictLineMatching bool `json:"strict_line_matching" yaml:"strict_line_matching"`
}

// StoreConfig locates the purchase-order records.
type StoreConfig struct {
	// Path is a .json/.yaml document or a SQLite database (.db, .sqlite).
	Path string `json:"path" yaml:"path"`
}

// ExtractionBackend identifies the generative AI API used for extraction.
type ExtractionBackend string

const (
	BackendClaude ExtractionBackend = "claude"
	BackendOpenAI ExtractionBackend = "openai"
)

// AIConfig holds shared settings for calling a Generative AI API.
type AIConfig struct {
	// Model is the AI model identifier. Empty selects the backend default.
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts for failed API calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// ExtractionConfig holds settings for the extraction stage.
type ExtractionConfig struct {
	AIConfig `yaml:",inline"`

	Backend ExtractionBackend `json:"backend" yaml:"backend"`

	// Timeout bounds the whole extraction call, retries included (default 90s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// Rasterizer selects how PDF pages are turned into images.
type Rasterizer string

const (
	RasterizerPdftoppm  Rasterizer = "pdftoppm"
	RasterizerContainer Rasterizer = "container"
)

// ConvertConfig holds settings for document loading.
type ConvertConfig struct {
	Rasterizer Rasterizer `json:"rasterizer" yaml:"rasterizer"`

	// MaxDimension caps the longest image edge in pixels (default 2000).
	MaxDimension int `json:"max_dimension" yaml:"max_dimension"`

	// Enhance applies grayscale, contrast and sharpening before extraction.
	Enhance bool `json:"enhance" yaml:"enhance"`
}

// CacheConfig configures the optional Redis cache of extraction results.
type CacheConfig struct {
	// RedisAddr is host:port; empty disables caching.
	RedisAddr string `json:"redis_addr" yaml:"redis_addr"`

	RedisPassword string `json:"redis_password,omitempty" yaml:"redis_password,omitempty"`

	RedisDB int `json:"redis_db" yaml:"redis_db"`

	// TTL is how long a cached extraction stays valid (default 24h).
	TTL time.Duration `json:"ttl" yaml:"ttl"`
}

// Config groups all settings for one invoice-recon invocation.
type Config struct {
	Store      StoreConfig      `json:"store" yaml:"store"`
	Extraction ExtractionConfig `json:"extraction" yaml:"extraction"`
	Convert    ConvertConfig    `json:"convert" yaml:"convert"`
	Cache      CacheConfig      `json:"cache" yaml:"cache"`
	Reconcile  ReconcileConfig  `json:"reconcile" yaml:"reconcile"`
}
