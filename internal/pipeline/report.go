// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/invoice-recon/pkg/types"
)

// Output formats for WriteReport.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// WriteReport renders the final state. Text is the short human summary;
// json and yaml emit the whole state.
func WriteReport(w io.Writer, state *types.PipelineState, format string) error {
	switch format {
	case FormatText, "":
		return writeSummary(w, state)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(state); err != nil {
			return fmt.Errorf("encoding JSON report: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(state); err != nil {
			return fmt.Errorf("encoding YAML report: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q (want text, json or yaml)", format)
	}
}

func writeSummary(w io.Writer, state *types.PipelineState) error {
	var b strings.Builder
	b.WriteString("\n--- final output ---\n")
	fmt.Fprintf(&b, "status: %s\n", state.Recommendation)
	fmt.Fprintf(&b, "reason: %s\n", state.Reasoning)

	if len(state.Discrepancies) > 0 {
		b.WriteString("discrepancies:\n")
		for _, d := range state.Discrepancies {
			fmt.Fprintf(&b, " - %s\n", d.Details)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}
