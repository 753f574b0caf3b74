package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/thereceipt/receipt-interpreter/internal/printer"
	"github.com/thereceipt/receipt-interpreter/pkg/order"
)

// client talks to a running receipt server
type client struct {
	baseURL string
	http    *http.Client
}

func (a *app) client(serverURL string) *client {
	if serverURL == "" {
		serverURL = fmt.Sprintf("http://localhost:%d", a.cfg.Server.Port)
	}
	return &client{
		baseURL: strings.TrimSuffix(serverURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// do sends body as JSON, when non-nil, and decodes the reply into out.
// Non-2xx replies become errors carrying the server's message.
func (c *client) do(method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode/100 != 2 {
		var failure struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &failure) == nil && failure.Error != "" {
			return fmt.Errorf("server: %s", failure.Error)
		}
		return fmt.Errorf("server: %s", resp.Status)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func addServerFlag(cmd *cobra.Command, serverURL *string) {
	cmd.Flags().StringVarP(serverURL, "server", "s", "", "server URL (default: http://localhost:<configured port>)")
}

func newPrintCmd(a *app) *cobra.Command {
	var serverURL string

	cmd := &cobra.Command{
		Use:   "print <printer-id> <document>",
		Short: "Send a document to a printer through the receipt server",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readDocument(cmd, args[1])
			if err != nil {
				return err
			}
			o, err := a.order()
			if err != nil {
				return err
			}

			req := struct {
				PrinterID string       `json:"printer_id"`
				Document  string       `json:"document"`
				Order     *order.Order `json:"order,omitempty"`
			}{args[0], raw, o}

			var resp struct {
				JobID   string `json:"job_id"`
				Summary struct {
					OK    bool   `json:"ok"`
					Error string `json:"error"`
				} `json:"summary"`
			}
			if err := a.client(serverURL).do(http.MethodPost, "/print", req, &resp); err != nil {
				return err
			}

			if !resp.Summary.OK {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: printed error receipt: %s\n", resp.Summary.Error)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Job ID: %s\n", resp.JobID)
			return nil
		},
	}

	addServerFlag(cmd, &serverURL)
	return cmd
}

func newPrintersCmd(a *app) *cobra.Command {
	var serverURL string

	cmd := &cobra.Command{
		Use:   "printers",
		Short: "List printers known to the receipt server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp struct {
				Printers []printer.Device `json:"printers"`
			}
			if err := a.client(serverURL).do(http.MethodGet, "/printers", nil, &resp); err != nil {
				return err
			}

			for _, p := range resp.Printers {
				name := p.Name
				if name == "" {
					name = p.Description
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t(%s)\n", p.ID, name, p.Type)
			}
			return nil
		},
	}

	addServerFlag(cmd, &serverURL)
	return cmd
}

func newJobCmd(a *app) *cobra.Command {
	var serverURL string

	cmd := &cobra.Command{
		Use:   "job <job-id>",
		Short: "Show the status of a print job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var job printer.PrintJob
			if err := a.client(serverURL).do(http.MethodGet, "/job/"+args[0], nil, &job); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\tprinter=%s\tretries=%d", job.ID, job.Status, job.PrinterID, job.Retries)
			if job.Error != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "\terror=%s", job.Error)
			}
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		},
	}

	addServerFlag(cmd, &serverURL)
	return cmd
}
