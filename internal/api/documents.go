package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/thereceipt/receipt-interpreter/internal/interpreter"
	"github.com/thereceipt/receipt-interpreter/internal/printer"
	"github.com/thereceipt/receipt-interpreter/pkg/order"
)

var (
	errNoDocument      = errors.New("document is required")
	errNoPrinter       = errors.New("printer_id is required")
	errPrinterNotFound = errors.New("printer not found")
)

// documentRequest carries a receipt document and the order it prints.
// document is either a JSON string holding the document text or the
// document object itself.
type documentRequest struct {
	Document json.RawMessage `json:"document"`
	Order    *order.Order    `json:"order"`
}

type printRequest struct {
	documentRequest
	PrinterID string `json:"printer_id"`
}

// text returns the document as the raw text the interpreter expects
func (r documentRequest) text() (string, error) {
	raw := bytes.TrimSpace(r.Document)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", errNoDocument
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", fmt.Errorf("invalid document string: %w", err)
		}
		if s == "" {
			return "", errNoDocument
		}
		return s, nil
	}
	return string(raw), nil
}

type summaryResponse struct {
	OK       bool   `json:"ok"`
	Elements int    `json:"elements"`
	Skipped  int    `json:"skipped"`
	Error    string `json:"error,omitempty"`
}

func newSummaryResponse(s interpreter.Summary) summaryResponse {
	resp := summaryResponse{OK: s.OK(), Elements: s.Elements, Skipped: s.Skipped}
	if s.Err != nil {
		resp.Error = s.Err.Error()
	}
	return resp
}

// submit encodes a document as ESC/POS for a known printer and queues it.
// A document that fails to interpret is still printed as the error receipt.
func (s *Server) submit(req printRequest) (printer.PrintJob, interpreter.Summary, error) {
	if req.PrinterID == "" {
		return printer.PrintJob{}, interpreter.Summary{}, errNoPrinter
	}
	text, err := req.text()
	if err != nil {
		return printer.PrintJob{}, interpreter.Summary{}, err
	}
	if _, ok := s.manager.Device(req.PrinterID); !ok {
		return printer.PrintJob{}, interpreter.Summary{}, fmt.Errorf("%w: %s", errPrinterNotFound, req.PrinterID)
	}

	enc := printer.NewESCPOS(s.paperWidth)
	summary := s.interpreter.Interpret(text, enc, req.Order)
	job := s.queue.Enqueue(req.PrinterID, enc.Bytes())

	s.logger.Info("receipt submitted", "job_id", job.ID, "printer_id", req.PrinterID,
		"elements", summary.Elements, "skipped", summary.Skipped, "ok", summary.OK())
	return job, summary, nil
}
