// Package cmd implements the receiptctl command line
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/thereceipt/receipt-interpreter/internal/config"
	"github.com/thereceipt/receipt-interpreter/internal/interpreter"
	"github.com/thereceipt/receipt-interpreter/internal/logging"
	"github.com/thereceipt/receipt-interpreter/internal/placeholder"
	"github.com/thereceipt/receipt-interpreter/pkg/order"
)

// app holds the flags shared by every command
type app struct {
	cfgFile   string
	orderFile string
	sample    bool

	cfg    *config.Config
	logger *slog.Logger
}

// Execute runs the root command
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "receiptctl",
		Short: "Preview, check and print receipt documents",
		Long: `receiptctl interprets receipt documents locally or sends them to a
receipt server.

Documents are JSON objects with an "elements" array. Placeholders such as
{{TOTAL}} are resolved against the order given with --order, the demo order
with --sample, or built-in defaults.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd.ErrOrStderr())
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default: built-in defaults and RECEIPT_ environment)")
	root.PersistentFlags().StringVar(&a.orderFile, "order", "", "order JSON file to resolve placeholders against")
	root.PersistentFlags().BoolVar(&a.sample, "sample", false, "resolve placeholders against the demo order")

	root.AddCommand(
		newPreviewCmd(a),
		newTranscriptCmd(a),
		newESCPOSCmd(a),
		newValidateCmd(a),
		newResolveCmd(a),
		newPrintCmd(a),
		newPrintersCmd(a),
		newJobCmd(a),
	)

	return root
}

func (a *app) init(stderr io.Writer) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}

	// Local runs only surface problems unless the config asks for more
	logCfg := cfg.Log
	if a.cfgFile == "" && os.Getenv(config.EnvPrefix+"_LOG_LEVEL") == "" {
		logCfg.Level = "warn"
	}
	logger, err := logging.New(logCfg, stderr)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger
	return nil
}

// order returns the order selected by --order or --sample, or nil
func (a *app) order() (*order.Order, error) {
	switch {
	case a.orderFile != "" && a.sample:
		return nil, fmt.Errorf("--order and --sample cannot be combined")
	case a.orderFile != "":
		return order.ParseFile(a.orderFile)
	case a.sample:
		return order.Sample(), nil
	default:
		return nil, nil
	}
}

func (a *app) resolver() *placeholder.Resolver {
	return placeholder.NewResolver()
}

func (a *app) interpreter() *interpreter.Interpreter {
	return interpreter.New(
		interpreter.WithResolver(a.resolver()),
		interpreter.WithLogger(a.logger),
	)
}

// readDocument reads a document file, or stdin when path is "-"
func readDocument(cmd *cobra.Command, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read document: %w", err)
	}
	return string(data), nil
}

// reportSummary warns on stderr when the document fell back to the error receipt
func reportSummary(cmd *cobra.Command, s interpreter.Summary) {
	if s.OK() {
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "warning: printed error receipt: %v\n", s.Err)
}
