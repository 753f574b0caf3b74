package interpreter

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/thereceipt/receipt-interpreter/internal/placeholder"
	"github.com/thereceipt/receipt-interpreter/pkg/order"
	"github.com/thereceipt/receipt-interpreter/pkg/receiptdsl"
)

// MaxDividerLength caps how many characters one divider prints
const MaxDividerLength = 4096

// Dispatcher prints single decoded elements. It keeps no state between
// elements; alignment and style live on the printer.
type Dispatcher struct {
	resolver *placeholder.Resolver
	logger   *slog.Logger
}

// NewDispatcher creates a dispatcher that resolves dynamic fields with resolver
func NewDispatcher(resolver *placeholder.Resolver, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		resolver: resolver,
		logger:   logger,
	}
}

// Dispatch prints el on p. Unknown element types are logged and skipped.
func (d *Dispatcher) Dispatch(el receiptdsl.Element, p Printer, o *order.Order) {
	switch e := el.(type) {
	case receiptdsl.Text:
		p.AddText(e.Content)

	case receiptdsl.Barcode:
		if bp, ok := p.(BarcodePrinter); ok && d.native(e, func() error { return bp.AddBarcode(e.Data, e.BarcodeType) }) {
			return
		}
		p.AddText(fmt.Sprintf("BARCODE[%s]: %s", e.BarcodeType, e.Data))

	case receiptdsl.QRCode:
		if qp, ok := p.(QRCodePrinter); ok && d.native(e, func() error { return qp.AddQRCode(e.Data) }) {
			return
		}
		p.AddText("QR CODE: " + e.Data)

	case receiptdsl.Image:
		if e.ImageData == "" {
			return
		}
		if ip, ok := p.(ImagePrinter); ok && d.native(e, func() error { return ip.AddImage(e.ImageData) }) {
			return
		}
		p.AddText(fmt.Sprintf("[IMAGE: %d chars]", len(e.ImageData)))

	case receiptdsl.Divider:
		length := e.Length
		if length > MaxDividerLength {
			d.logger.Warn("divider too long, shortening", "length", length, "max", MaxDividerLength)
			length = MaxDividerLength
		}
		p.AddText(strings.Repeat(e.Character, length))

	case receiptdsl.Dynamic:
		p.AddText(d.resolveField(e.Field, o))

	case receiptdsl.Feed:
		p.AddFeedLine(e.Lines)

	case receiptdsl.AlignmentChange:
		if ap, ok := p.(AlignmentPrinter); ok && receiptdsl.ValidAlignment(e.Alignment) &&
			d.native(e, func() error { return ap.AddTextAlign(e.Alignment) }) {
			return
		}
		p.AddText("[" + string(e.Alignment) + "]")

	case receiptdsl.StyleChange:
		if e.Style == nil {
			p.AddText("[STYLE CHANGE]")
			return
		}
		if sp, ok := p.(StylePrinter); ok && d.native(e, func() error { return sp.AddTextStyle(*e.Style) }) {
			return
		}
		p.AddText(fmt.Sprintf("[STYLE: bold=%t, size=%s]", e.Style.Bold, e.Style.Size))

	case receiptdsl.LineSpace:
		p.AddText(fmt.Sprintf("[LINE SPACE: %dpx]", e.Space))
		p.AddFeedLine(1)

	case receiptdsl.Clear:
		p.AddText("[CLEAR]")
		d.logger.Debug("clear element processed")

	default:
		d.logger.Warn("unknown element type", "type", el.Type())
	}
}

// native runs a printer's own rendering of an element. A failure is logged
// and reported as false so the caller prints the text marker instead.
func (d *Dispatcher) native(el receiptdsl.Element, render func() error) bool {
	if err := render(); err != nil {
		d.logger.Warn("printer could not render element, printing marker", "type", el.Type(), "error", err)
		return false
	}
	return true
}

// resolveField resolves a dynamic field that still looks like a placeholder.
// Primary tokens have normally been substituted already; this also covers
// the single brace legacy dialect.
func (d *Dispatcher) resolveField(field string, o *order.Order) string {
	if len(field) >= 2 && strings.HasPrefix(field, "{") && strings.HasSuffix(field, "}") {
		return d.resolver.Resolve(field, o)
	}
	return field
}
