// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/invoice-recon/internal/postore"
	"github.com/pdiddy/invoice-recon/pkg/types"
)

var poCmd = &cobra.Command{
	Use:   "po",
	Short: "Manage the purchase order store (import, list, show, search, export)",
	Long: `Po inspects the purchase order store named by store.path (--store) and
builds SQLite stores from JSON or YAML documents.`,
}

// --- import subcommand ---

var poImportCmd = &cobra.Command{
	Use:   "import <file.json|file.yaml>",
	Short: "Load a purchase order document into a SQLite database",
	Long: `Import reads a document with a top-level purchase_orders list and writes
its records into the SQLite database named by --db. Existing records with the
same po_number are replaced.`,
	Args: exactArgs(1),
	RunE: runPOImport,
}

func runPOImport(cmd *cobra.Command, args []string) error {
	dbPath, _ := cmd.Flags().GetString("db")
	out := cmd.OutOrStdout()

	summary, err := postore.ImportFile(cmd.Context(), args[0], dbPath, out)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\n%d purchase orders written to %s (%d new, %d updated)\n",
		summary.Total(), dbPath, summary.Imported, summary.Updated)
	return nil
}

// --- list subcommand ---

var poListCmd = &cobra.Command{
	Use:   "list",
	Short: "List purchase orders in the store",
	Args:  exactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		return writePOTable(cmd.OutOrStdout(), store.All())
	},
}

func writePOTable(w io.Writer, orders []types.PurchaseOrder) error {
	if len(orders) == 0 {
		_, err := fmt.Fprintln(w, "No purchase orders found.")
		return err
	}

	fmt.Fprintf(w, "%-12s  %-30s  %12s  %s\n", "PO", "Supplier", "Total", "Lines")
	fmt.Fprintln(w, strings.Repeat("-", 66))
	for _, po := range orders {
		supplier := truncate(po.Supplier, 30)
		fmt.Fprintf(w, "%-12s  %-30s  %12s  %d\n", po.PONumber, supplier, po.Total.StringFixed(2), len(po.LineItems))
	}
	_, err := fmt.Fprintf(w, "\n%d purchase orders\n", len(orders))
	return err
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// --- show subcommand ---

var poShowCmd = &cobra.Command{
	Use:   "show <po-number>",
	Short: "Show one purchase order and its lines",
	Args:  exactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		po, ok := store.LookupByID(args[0])
		if !ok {
			return fmt.Errorf("purchase order %q not found", args[0])
		}
		writePODetail(cmd.OutOrStdout(), po)
		return nil
	},
}

func writePODetail(w io.Writer, po *types.PurchaseOrder) {
	fmt.Fprintf(w, "PO:       %s\n", po.PONumber)
	fmt.Fprintf(w, "Supplier: %s\n", po.Supplier)
	fmt.Fprintf(w, "Total:    %s\n", po.Total.StringFixed(2))
	if len(po.LineItems) == 0 {
		return
	}

	fmt.Fprintf(w, "\n%-40s  %10s  %8s  %s\n", "Description", "Unit", "Qty", "Code")
	for _, li := range po.LineItems {
		fmt.Fprintf(w, "%-40s  %10s  %8s  %s\n", li.Description, li.UnitPrice.StringFixed(2), li.Quantity.String(), li.ItemCode)
	}
}

// --- search subcommand ---

var poSearchCmd = &cobra.Command{
	Use:   "search",
	Short: "Find the purchase order a supplier and total would fuzzy-match",
	Long: `Search runs the same fuzzy lookup the matcher uses when an invoice has no
usable PO reference: among records whose total is within the price tolerance,
the one whose supplier name is most similar, above the similarity threshold.`,
	Args: exactArgs(0),
	RunE: runPOSearch,
}

func runPOSearch(cmd *cobra.Command, args []string) error {
	supplier, _ := cmd.Flags().GetString("supplier")
	totalStr, _ := cmd.Flags().GetString("total")
	if supplier == "" || totalStr == "" {
		return &usageError{cmd: cmd, msg: "--supplier and --total are required"}
	}
	total, err := decimal.NewFromString(totalStr)
	if err != nil {
		return &usageError{cmd: cmd, msg: fmt.Sprintf("invalid --total %q", totalStr)}
	}

	store, err := openStore()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	po, ok := store.FuzzySearch(supplier, total)
	if !ok {
		fmt.Fprintln(out, "No matching purchase order.")
		return nil
	}
	fmt.Fprintf(out, "similarity: %.2f\n\n", postore.Ratio(strings.ToLower(supplier), strings.ToLower(po.Supplier)))
	writePODetail(out, po)
	return nil
}

// --- export subcommand ---

var poExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the store to stdout as YAML or JSON",
	Args:  exactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		switch format {
		case postore.FormatYAML, postore.FormatJSON:
		default:
			return &usageError{cmd: cmd, msg: fmt.Sprintf("unsupported format %q: use yaml or json", format)}
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		data, err := store.Export(format)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

// openStore loads the configured store. Unlike a reconciliation run, the po
// commands fail when the store cannot be read.
func openStore() (*postore.Store, error) {
	cfg := loadConfig(viper.GetViper(), loadedSecrets)
	return postore.Load(cfg.Store.Path, postore.WithTolerances(cfg.Reconcile.Tolerances))
}

func init() {
	poImportCmd.Flags().String("db", "purchase_orders.db", "SQLite database to write")

	poSearchCmd.Flags().String("supplier", "", "supplier name as printed on the invoice")
	poSearchCmd.Flags().String("total", "", "invoice total amount")

	poExportCmd.Flags().String("format", postore.FormatYAML, "export format: yaml or json")

	poCmd.AddCommand(poImportCmd)
	poCmd.AddCommand(poListCmd)
	poCmd.AddCommand(poShowCmd)
	poCmd.AddCommand(poSearchCmd)
	poCmd.AddCommand(poExportCmd)

	rootCmd.AddCommand(poCmd)
}
