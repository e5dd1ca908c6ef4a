// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/invoice-recon/internal/convert"
	"github.com/pdiddy/invoice-recon/internal/discrepancy"
	"github.com/pdiddy/invoice-recon/internal/extract"
	"github.com/pdiddy/invoice-recon/internal/logging"
	"github.com/pdiddy/invoice-recon/internal/match"
	"github.com/pdiddy/invoice-recon/internal/pipeline"
	"github.com/pdiddy/invoice-recon/internal/postore"
)

func init() {
	f := rootCmd.Flags()
	f.String("format", pipeline.FormatText, "output format: text, json or yaml")
	f.String("backend", "", "extraction backend: claude or openai (default claude)")
	f.String("model", "", "AI model (default: backend default)")
	f.String("rasterizer", "", "PDF rasterizer: pdftoppm or container (default pdftoppm)")
	f.Bool("enhance", false, "apply grayscale, contrast and sharpening before extraction")
	f.Bool("strict-lines", false, "report invoice lines with no purchase order counterpart")

	viper.BindPFlag("extraction.backend", f.Lookup("backend"))
	viper.BindPFlag("extraction.model", f.Lookup("model"))
	viper.BindPFlag("convert.rasterizer", f.Lookup("rasterizer"))
	viper.BindPFlag("convert.enhance", f.Lookup("enhance"))
	viper.BindPFlag("reconcile.strict_line_matching", f.Lookup("strict-lines"))
}

// runInvoice reconciles the invoice named by args[0] and prints the verdict.
// Any recommendation, pending included, is a successful run.
func runInvoice(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	switch format {
	case pipeline.FormatText, pipeline.FormatJSON, pipeline.FormatYAML:
	default:
		return &usageError{cmd: cmd, msg: fmt.Sprintf("unknown output format %q (want text, json or yaml)", format)}
	}

	cfg := loadConfig(viper.GetViper(), loadedSecrets)
	logger := logging.New("cli")

	backend, err := extract.NewBackend(cfg.Extraction)
	if err != nil {
		return err
	}

	var extractor pipeline.Extractor = extract.NewAIExtractor(backend, cfg.Extraction.AIConfig, logging.New("extract"))
	if cfg.Cache.RedisAddr != "" {
		cache, err := extract.NewRedisCache(cmd.Context(), cfg.Cache)
		if err != nil {
			logger.Warn().Err(err).Msg("extraction cache disabled")
		} else {
			defer cache.Close()
			namespace := fmt.Sprintf("%s/%s", cfg.Extraction.Backend, cfg.Extraction.Model)
			extractor = extract.NewCachedExtractor(extractor, cache, cfg.Cache.TTL, namespace, logging.New("cache"))
		}
	}

	rasterizer, err := convert.NewRasterizer(cfg.Convert)
	if err != nil {
		logger.Warn().Err(err).Msg("no PDF rasterizer available; PDF invoices cannot be read")
	}

	store := postore.LoadOrEmpty(cfg.Store.Path, logging.New("postore"), postore.WithTolerances(cfg.Reconcile.Tolerances))

	// Keep stdout parseable when emitting a structured report.
	var progress io.Writer = cmd.OutOrStdout()
	if format != pipeline.FormatText {
		progress = cmd.ErrOrStderr()
	}

	ctrl := pipeline.Default(pipeline.Deps{
		Loader:         convert.NewLoader(cfg.Convert, rasterizer, logging.New("convert")),
		Extractor:      extractor,
		Matcher:        match.New(store, logging.New("match")),
		Detector:       discrepancy.New(cfg.Reconcile, logging.New("discrepancy")),
		ExtractTimeout: cfg.Extraction.Timeout,
		Out:            progress,
		Logger:         logging.New("pipeline"),
	})

	state := ctrl.Run(cmd.Context(), args[0])
	return pipeline.WriteReport(cmd.OutOrStdout(), state, format)
}
