// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/viper"

	"github.com/pdiddy/invoice-recon/internal/secrets"
	"github.com/pdiddy/invoice-recon/pkg/types"
)

// setDefaults registers the default for every configuration key.
func setDefaults(v *viper.Viper) {
	tol := types.DefaultTolerances()

	v.SetDefault("store.path", "purchase_orders.json")

	v.SetDefault("extraction.backend", string(types.BackendClaude))
	v.SetDefault("extraction.model", "")
	v.SetDefault("extraction.max_retries", 3)
	v.SetDefault("extraction.timeout", "90s")

	v.SetDefault("convert.rasterizer", string(types.RasterizerPdftoppm))
	v.SetDefault("convert.max_dimension", 2000)
	v.SetDefault("convert.enhance", false)

	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.ttl", "24h")

	v.SetDefault("reconcile.price_close_ratio", tol.PriceCloseRatio)
	v.SetDefault("reconcile.similarity_threshold", tol.SimilarityThreshold)
	v.SetDefault("reconcile.total_variance_abs", tol.TotalVarianceAbs)
	v.SetDefault("reconcile.total_variance_ratio", tol.TotalVarianceRatio)
	v.SetDefault("reconcile.price_trap_pct", tol.PriceTrapPct)
	v.SetDefault("reconcile.price_variance_pct", tol.PriceVariancePct)
	v.SetDefault("reconcile.strict_line_matching", false)

	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "text")
}

// loadConfig builds the run configuration from viper. API keys are taken
// from .secrets/ or the environment, matching the selected backend.
func loadConfig(v *viper.Viper, loaded map[string]string) types.Config {
	backend := types.ExtractionBackend(v.GetString("extraction.backend"))

	apiKey := v.GetString("extraction.api_key")
	if apiKey == "" {
		switch backend {
		case types.BackendOpenAI:
			apiKey = secrets.Get(loaded, secrets.OpenAIAPIKey)
		default:
			apiKey = secrets.Get(loaded, secrets.AnthropicAPIKey)
		}
	}

	redisPassword := v.GetString("cache.redis_password")
	if redisPassword == "" {
		redisPassword = secrets.Get(loaded, secrets.RedisPassword)
	}

	return types.Config{
		Store: types.StoreConfig{
			Path: v.GetString("store.path"),
		},
		Extraction: types.ExtractionConfig{
			AIConfig: types.AIConfig{
				Model:      v.GetString("extraction.model"),
				APIKey:     apiKey,
				MaxRetries: v.GetInt("extraction.max_retries"),
			},
			Backend: backend,
			Timeout: v.GetDuration("extraction.timeout"),
		},
		Convert: types.ConvertConfig{
			Rasterizer:   types.Rasterizer(v.GetString("convert.rasterizer")),
			MaxDimension: v.GetInt("convert.max_dimension"),
			Enhance:      v.GetBool("convert.enhance"),
		},
		Cache: types.CacheConfig{
			RedisAddr:     v.GetString("cache.redis_addr"),
			RedisPassword: redisPassword,
			RedisDB:       v.GetInt("cache.redis_db"),
			TTL:           v.GetDuration("cache.ttl"),
		},
		Reconcile: types.ReconcileConfig{
			Tolerances: types.Tolerances{
				PriceCloseRatio:     v.GetFloat64("reconcile.price_close_ratio"),
				SimilarityThreshold: v.GetFloat64("reconcile.similarity_threshold"),
				TotalVarianceAbs:    v.GetFloat64("reconcile.total_variance_abs"),
				TotalVarianceRatio:  v.GetFloat64("reconcile.total_variance_ratio"),
				PriceTrapPct:        v.GetFloat64("reconcile.price_trap_pct"),
				PriceVariancePct:    v.GetFloat64("reconcile.price_variance_pct"),
			},
			StrictLineMatching: v.GetBool("reconcile.strict_line_matching"),
		},
	}
}
