// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the invoice-recon CLI. The root
// command reconciles one invoice document against the purchase-order store;
// the po subcommands manage and inspect that store.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/invoice-recon/internal/logging"
	"github.com/pdiddy/invoice-recon/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// usageError marks a command-line mistake. It maps to exit code 2 and
// prints the usage of the command that rejected it.
type usageError struct {
	cmd *cobra.Command
	msg string
}

func (e *usageError) Error() string { return e.msg }

// exactArgs is cobra.ExactArgs returning a usageError.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return &usageError{cmd: cmd, msg: fmt.Sprintf("accepts %d arg(s), received %d", n, len(args))}
		}
		return nil
	}
}

// rootCmd is the base command for the invoice-recon CLI.
var rootCmd = &cobra.Command{
	Use:   "invoice-recon <invoice-file>",
	Short: "Reconcile an invoice against purchase orders",
	Long: `invoice-recon reads an invoice (PDF or image), extracts its fields with a
generative AI model, matches it to a purchase order by PO number or by
supplier and total, checks totals and unit prices for discrepancies, and
recommends auto_approve, flag_for_review or escalate_to_human.

Purchase orders are read from store.path: a JSON or YAML document with a
top-level purchase_orders list, or a SQLite database built with
"invoice-recon po import".`,
	Args:          exactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading .env: %w", err)
		}

		logging.Init(viper.GetString("log.level"), viper.GetString("log.format"), os.Stderr)
		logger := logging.New("cli")

		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			logger.Info().Strs("keys", keys).Msg("loaded secrets")
		}
		if f := viper.ConfigFileUsed(); f != "" {
			logger.Info().Str("file", f).Msg("using config file")
		}
		return nil
	},
	RunE: runInvoice,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &usageError{cmd: cmd, msg: err.Error()}
	})

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./invoice-recon.yaml or ~/.config/invoice-recon/config.yaml)")
	pf.String("store", "", "purchase order store: .json, .yaml or SQLite .db (default purchase_orders.json)")
	pf.String("log-level", "", "log level: debug, info, warn, error (default warn)")
	pf.String("log-format", "", "log format: text or json (default text)")

	viper.BindPFlag("store.path", pf.Lookup("store"))
	viper.BindPFlag("log.level", pf.Lookup("log-level"))
	viper.BindPFlag("log.format", pf.Lookup("log-format"))

	setDefaults(viper.GetViper())
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("invoice-recon")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "invoice-recon"))
		}
	}

	viper.SetEnvPrefix("INVOICE_RECON")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			fmt.Fprintf(os.Stderr, "warning: reading config: %v\n", err)
		}
	}
}

// exitCode maps an Execute error to the process exit status.
func exitCode(err error) int {
	var ue *usageError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &ue):
		return 2
	default:
		return 1
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		var ue *usageError
		if errors.As(err, &ue) && ue.cmd != nil {
			ue.cmd.SetOut(os.Stderr)
			ue.cmd.Usage()
		}
	}
	stop()
	os.Exit(exitCode(err))
}
