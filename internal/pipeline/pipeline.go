// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs one invoice through the ordered reconciliation
// stages (extract, match, check, resolve) and renders the outcome.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pdiddy/invoice-recon/pkg/types"
)

// Stage is one step of the pipeline. Run reads the state produced so far
// and returns the fields it computed; it must not modify the state itself.
type Stage struct {
	Name string
	Run  func(ctx context.Context, state *types.PipelineState) types.StateUpdate
}

// Controller executes stages in order over a fresh state per invoice.
type Controller struct {
	stages []Stage
	out    io.Writer
	logger zerolog.Logger
}

// New returns a controller that writes progress lines to out.
func New(out io.Writer, logger zerolog.Logger, stages ...Stage) *Controller {
	if out == nil {
		out = io.Discard
	}
	return &Controller{stages: stages, out: out, logger: logger}
}

// Stages returns the stage names in execution order.
func (c *Controller) Stages() []string {
	names := make([]string, len(c.stages))
	for i, s := range c.stages {
		names[i] = s.Name
	}
	return names
}

// Run processes the document at path. Every stage runs; stage failures are
// recorded in the returned state's Logs rather than returned as errors.
func (c *Controller) Run(ctx context.Context, path string) *types.PipelineState {
	state := types.NewPipelineState(uuid.NewString(), path)
	logger := c.logger.With().Str("run_id", state.RunID).Logger()

	fmt.Fprintf(c.out, "starting pipeline for: %s\n", path)

	for _, stage := range c.stages {
		start := time.Now()
		update := stage.Run(ctx, state)
		state.Apply(update)

		logger.Debug().
			Str("stage", stage.Name).
			Dur("elapsed", time.Since(start)).
			Int("logs", len(update.Logs)).
			Msg("stage complete")
	}

	logger.Info().
		Str("file", path).
		Str("recommendation", string(state.Recommendation)).
		Int("discrepancies", len(state.Discrepancies)).
		Msg("pipeline finished")
	return state
}
