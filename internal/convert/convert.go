// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert turns an invoice document on disk into the PNG page image
// sent for extraction. Images are decoded and normalised; PDFs are
// rasterised first, and only their first page is used.
package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pdiddy/invoice-recon/pkg/types"
)

var (
	// ErrFileNotFound reports that the document path does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrUnreadableDocument reports a document that exists but cannot be
	// turned into a page image.
	ErrUnreadableDocument = errors.New("unreadable document")
)

// DefaultMaxDimension caps the longest image edge when none is configured.
const DefaultMaxDimension = 2000

// imageExts lists the raster formats the decoder accepts.
var imageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".tif":  true,
	".tiff": true,
	".bmp":  true,
}

// Loader reads invoice documents and produces normalised PNG bytes.
type Loader struct {
	rasterizer   Rasterizer
	maxDimension int
	enhance      bool
	logger       zerolog.Logger
}

// NewLoader returns a loader using r for PDFs. r may be nil when only
// images are expected; PDFs then fail with ErrUnreadableDocument.
func NewLoader(cfg types.ConvertConfig, r Rasterizer, logger zerolog.Logger) *Loader {
	maxDim := cfg.MaxDimension
	if maxDim <= 0 {
		maxDim = DefaultMaxDimension
	}
	return &Loader{rasterizer: r, maxDimension: maxDim, enhance: cfg.Enhance, logger: logger}
}

// Load returns the page image for the document at path as PNG bytes.
func (l *Loader) Load(ctx context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("%w: reading %s: %v", ErrUnreadableDocument, path, err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case ext == ".pdf":
		if l.rasterizer == nil {
			return nil, fmt.Errorf("%w: %s: no PDF rasterizer configured", ErrUnreadableDocument, path)
		}
		l.logger.Debug().Str("path", path).Str("rasterizer", l.rasterizer.Name()).Msg("rasterising first page")
		data, err = l.rasterizer.Rasterize(ctx, bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrUnreadableDocument, path, err)
		}
	case imageExts[ext]:
	default:
		return nil, fmt.Errorf("%w: %s: unsupported file type %q", ErrUnreadableDocument, path, ext)
	}

	png, err := normalize(data, l.maxDimension, l.enhance)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadableDocument, path, err)
	}

	l.logger.Debug().Str("path", path).Int("bytes", len(png)).Msg("page image ready")
	return png, nil
}
