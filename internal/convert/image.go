// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

// normalize decodes an image, applies its EXIF orientation, shrinks it so
// neither edge exceeds maxDim and re-encodes it as PNG. With enhance set it
// also converts to grayscale and boosts contrast and sharpness, which helps
// with phone photos of paper invoices.
func normalize(data []byte, maxDim int, enhance bool) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("image has no pixels")
	}

	if b.Dx() > maxDim || b.Dy() > maxDim {
		img = imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
	}

	if enhance {
		img = imaging.Grayscale(img)
		img = imaging.AdjustContrast(img, 20)
		img = imaging.Sharpen(img, 1.0)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}
	return buf.Bytes(), nil
}
