package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/thereceipt/receipt-interpreter/internal/placeholder"
	"github.com/thereceipt/receipt-interpreter/internal/preview"
	"github.com/thereceipt/receipt-interpreter/internal/printer"
	"github.com/thereceipt/receipt-interpreter/pkg/receiptdsl"
)

// fontADots is the width of one font A column in dots
const fontADots = 12

func newPreviewCmd(a *app) *cobra.Command {
	var (
		width int
		plain bool
	)

	cmd := &cobra.Command{
		Use:   "preview <document>",
		Short: "Show a receipt as it would print",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readDocument(cmd, args[0])
			if err != nil {
				return err
			}
			o, err := a.order()
			if err != nil {
				return err
			}

			if width == 0 {
				width = preview.DefaultWidth
				if dots, ok := printer.PaperDots(a.cfg.Printer.PaperWidth); ok {
					width = dots / fontADots
				}
			}

			term := preview.NewTerminal(
				preview.WithWidth(width),
				preview.WithRenderer(lipgloss.NewRenderer(cmd.OutOrStdout())),
			)
			summary := a.interpreter().Interpret(raw, term, o)
			reportSummary(cmd, summary)

			if plain {
				fmt.Fprintln(cmd.OutOrStdout(), strings.Join(term.Lines(), "\n"))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), term.Render())
			return nil
		},
	}

	cmd.Flags().IntVar(&width, "width", 0, "paper width in columns (default: from the configured paper width)")
	cmd.Flags().BoolVar(&plain, "plain", false, "print unstyled lines")
	return cmd
}

func newTranscriptCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "transcript <document>",
		Short: "List the printer calls a document produces",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readDocument(cmd, args[0])
			if err != nil {
				return err
			}
			o, err := a.order()
			if err != nil {
				return err
			}

			rec := printer.NewRecorder()
			summary := a.interpreter().Interpret(raw, rec, o)
			reportSummary(cmd, summary)

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(rec.Calls())
			}
			for _, line := range rec.Lines() {
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print calls as JSON")
	return cmd
}

func newESCPOSCmd(a *app) *cobra.Command {
	var (
		output     string
		paperWidth string
	)

	cmd := &cobra.Command{
		Use:   "escpos <document>",
		Short: "Encode a document as ESC/POS bytes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readDocument(cmd, args[0])
			if err != nil {
				return err
			}
			o, err := a.order()
			if err != nil {
				return err
			}

			if paperWidth == "" {
				paperWidth = a.cfg.Printer.PaperWidth
			}
			if _, ok := printer.PaperDots(paperWidth); !ok {
				return fmt.Errorf("unknown paper width %q", paperWidth)
			}

			enc := printer.NewESCPOS(paperWidth)
			summary := a.interpreter().Interpret(raw, enc, o)
			reportSummary(cmd, summary)

			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(enc.Bytes())
				return err
			}
			if err := os.WriteFile(output, enc.Bytes(), 0o644); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d bytes to %s\n", len(enc.Bytes()), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVar(&paperWidth, "paper", "", "paper width: 58mm, 80mm or 112mm (default: from config)")
	return cmd
}

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <document>",
		Short: "Check a document without printing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readDocument(cmd, args[0])
			if err != nil {
				return err
			}
			o, err := a.order()
			if err != nil {
				return err
			}

			doc, err := receiptdsl.ParseDocument([]byte(a.resolver().Preprocess(raw, o)))
			if err == nil {
				err = receiptdsl.Validate(doc)
			}
			if err != nil {
				return fmt.Errorf("invalid document: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "valid: %d elements\n", len(doc.Elements))
			return nil
		},
	}
}

func newResolveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <token>...",
		Short: "Show what placeholder tokens resolve to",
		Example: `  receiptctl resolve '{{TOTAL}}' '{{ITEM_COUNT}}'
  receiptctl --sample resolve '{item_list}'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := a.order()
			if err != nil {
				return err
			}

			r := a.resolver()
			for _, token := range args {
				if !placeholder.Recognized(token) {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t(unrecognized)\n", token)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", token, r.Resolve(token, o))
			}
			return nil
		},
	}
}
