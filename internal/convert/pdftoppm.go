// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"

	"github.com/pdiddy/invoice-recon/internal/container"
	"github.com/pdiddy/invoice-recon/pkg/types"
)

const imagePoppler = "minidocks/poppler:latest"

// pdftoppmArgs renders page 1 at 150 dpi, reading the PDF from stdin and
// writing one PNG to stdout.
var pdftoppmArgs = []string{"-png", "-r", "150", "-f", "1", "-l", "1", "-singlefile", "-"}

// Rasterizer renders the first page of a PDF as an image.
type Rasterizer interface {
	Name() string
	Rasterize(ctx context.Context, pdf io.Reader) ([]byte, error)
}

// commandRunner runs a program with stdin and stdout attached.
type commandRunner func(ctx context.Context, name string, args []string, stdin io.Reader, stdout io.Writer) error

// PdftoppmRasterizer runs poppler's pdftoppm installed on the host.
type PdftoppmRasterizer struct {
	run commandRunner
}

// NewPdftoppmRasterizer checks that pdftoppm is on PATH.
func NewPdftoppmRasterizer() (*PdftoppmRasterizer, error) {
	if _, err := exec.LookPath("pdftoppm"); err != nil {
		return nil, fmt.Errorf("pdftoppm not found on PATH (install poppler-utils or set convert.rasterizer to container): %w", err)
	}
	return &PdftoppmRasterizer{run: container.RunPiped}, nil
}

func (p *PdftoppmRasterizer) Name() string { return "pdftoppm" }

// Rasterize renders the first page of pdf to PNG.
func (p *PdftoppmRasterizer) Rasterize(ctx context.Context, pdf io.Reader) ([]byte, error) {
	var out bytes.Buffer
	if err := p.run(ctx, "pdftoppm", pdftoppmArgs, pdf, &out); err != nil {
		return nil, fmt.Errorf("running pdftoppm: %w", err)
	}
	if out.Len() == 0 {
		return nil, fmt.Errorf("pdftoppm produced no output")
	}
	return out.Bytes(), nil
}

// ContainerRasterizer runs pdftoppm inside the poppler image through a
// container runtime. It depends on a container.Runtime (docker or podman)
// injected at construction time.
type ContainerRasterizer struct {
	runtime container.Runtime
}

// NewContainerRasterizer verifies that the poppler image exists locally
// before returning.
func NewContainerRasterizer(rt container.Runtime) (*ContainerRasterizer, error) {
	if err := rt.ImageExists(imagePoppler); err != nil {
		return nil, fmt.Errorf("poppler image not available in %s (pull %s): %w", rt.Name(), imagePoppler, err)
	}
	return &ContainerRasterizer{runtime: rt}, nil
}

func (c *ContainerRasterizer) Name() string { return c.runtime.Name() + ":" + imagePoppler }

// Rasterize pipes pdf through pdftoppm in the container.
func (c *ContainerRasterizer) Rasterize(ctx context.Context, pdf io.Reader) ([]byte, error) {
	args := append([]string{"pdftoppm"}, pdftoppmArgs...)

	var out bytes.Buffer
	if err := c.runtime.Run(ctx, imagePoppler, args, pdf, &out); err != nil {
		return nil, err
	}
	if out.Len() == 0 {
		return nil, fmt.Errorf("pdftoppm container produced no output")
	}
	return out.Bytes(), nil
}

// NewRasterizer builds the rasterizer selected by cfg. An empty setting
// selects the host pdftoppm.
func NewRasterizer(cfg types.ConvertConfig) (Rasterizer, error) {
	switch cfg.Rasterizer {
	case types.RasterizerPdftoppm, "":
		p, err := NewPdftoppmRasterizer()
		if err != nil {
			return nil, err
		}
		return p, nil
	case types.RasterizerContainer:
		rt, err := container.DetectRuntime()
		if err != nil {
			return nil, err
		}
		c, err := NewContainerRasterizer(rt)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown rasterizer %q", cfg.Rasterizer)
	}
}
