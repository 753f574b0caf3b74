// Package interpreter prints JSON receipt documents onto a Printer
package interpreter

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/thereceipt/receipt-interpreter/internal/placeholder"
	"github.com/thereceipt/receipt-interpreter/pkg/order"
	"github.com/thereceipt/receipt-interpreter/pkg/receiptdsl"
)

// ErrorText is printed in place of a receipt that could not be interpreted
const ErrorText = "ERROR: Invalid receipt format"

// ErrPrinterPanic wraps a panic raised by a Printer during interpretation
var ErrPrinterPanic = errors.New("printer panicked")

// Interpreter turns receipt documents into printer calls
type Interpreter struct {
	resolver   *placeholder.Resolver
	logger     *slog.Logger
	dispatcher *Dispatcher
}

// Option configures an Interpreter
type Option func(*Interpreter)

// WithResolver sets the resolver used for placeholder tokens
func WithResolver(r *placeholder.Resolver) Option {
	return func(in *Interpreter) {
		in.resolver = r
	}
}

// WithLogger sets where diagnostics such as skipped elements are reported
func WithLogger(l *slog.Logger) Option {
	return func(in *Interpreter) {
		in.logger = l
	}
}

// New creates an interpreter. Without options it uses a default resolver
// and discards diagnostics.
func New(opts ...Option) *Interpreter {
	in := &Interpreter{}
	for _, opt := range opts {
		opt(in)
	}
	if in.resolver == nil {
		in.resolver = placeholder.NewResolver()
	}
	if in.logger == nil {
		in.logger = slog.New(slog.DiscardHandler)
	}
	in.dispatcher = NewDispatcher(in.resolver, in.logger)
	return in
}

// Summary describes one interpretation. Err is informational: by the time
// Interpret returns, the error receipt has already been printed and cut.
type Summary struct {
	Elements int   // elements printed
	Skipped  int   // elements of unknown type
	Err      error // why the document was rejected, if it was
}

// OK reports whether the document printed without falling back to the error receipt
func (s Summary) OK() bool {
	return s.Err == nil
}

// Interpret prints the receipt document raw on p, resolving placeholders
// against o, which may be nil. It never fails: a document that cannot be
// printed produces ErrorText followed by a cut. Output always ends with a cut.
func (in *Interpreter) Interpret(raw string, p Printer, o *order.Order) Summary {
	var s Summary
	if err := in.run(raw, p, o, &s); err != nil {
		s.Err = err
		in.fail(p, err)
	}
	return s
}

func (in *Interpreter) run(raw string, p Printer, o *order.Order, s *Summary) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPrinterPanic, r)
		}
	}()

	doc, err := receiptdsl.ParseDocument([]byte(in.resolver.Preprocess(raw, o)))
	if err != nil {
		return err
	}

	for i, rawEl := range doc.Elements {
		el, err := receiptdsl.DecodeElement(rawEl)
		if err != nil {
			return fmt.Errorf("element[%d]: %w", i, err)
		}

		if _, unknown := el.(receiptdsl.Unknown); unknown {
			s.Skipped++
		} else {
			s.Elements++
		}
		in.dispatcher.Dispatch(el, p, o)
	}

	p.CutPaper()
	return nil
}

func (in *Interpreter) fail(p Printer, err error) {
	in.logger.Error("invalid receipt document", "error", err)

	defer func() {
		if r := recover(); r != nil {
			in.logger.Error("printer failed while printing error receipt", "panic", r)
		}
	}()

	p.AddText(ErrorText)
	p.CutPaper()
}
