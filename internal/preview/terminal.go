// Package preview renders receipts for a terminal
package preview

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/skip2/go-qrcode"

	"github.com/thereceipt/receipt-interpreter/pkg/receiptdsl"
)

// DefaultWidth is the column count of an 80mm receipt in font A
const DefaultWidth = 48

var (
	paperColor = lipgloss.Color("#F8FAFC")
	inkColor   = lipgloss.Color("#0F172A")
	mutedColor = lipgloss.Color("#64748B")
)

type line struct {
	text  string
	align receiptdsl.Alignment
	style receiptdsl.TextStyle
	cut   bool
}

// Terminal is a printer that lays a receipt out as styled terminal lines.
// It keeps the current alignment and style like a real printer, and draws
// QR codes with block characters.
type Terminal struct {
	width    int
	renderer *lipgloss.Renderer

	align   receiptdsl.Alignment
	style   receiptdsl.TextStyle
	current strings.Builder
	lines   []line
	mu      sync.Mutex
}

// Option configures a Terminal
type Option func(*Terminal)

// WithWidth sets the paper width in columns
func WithWidth(columns int) Option {
	return func(t *Terminal) {
		if columns > 0 {
			t.width = columns
		}
	}
}

// WithRenderer sets the lipgloss renderer, which decides the color profile
func WithRenderer(r *lipgloss.Renderer) Option {
	return func(t *Terminal) {
		t.renderer = r
	}
}

// NewTerminal creates an empty preview
func NewTerminal(opts ...Option) *Terminal {
	t := &Terminal{
		width:    DefaultWidth,
		renderer: lipgloss.DefaultRenderer(),
		align:    receiptdsl.DefaultAlignment,
		style:    receiptdsl.TextStyle{Size: receiptdsl.DefaultTextSize},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// AddText appends text to the current line; newlines end it
func (t *Terminal) AddText(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	parts := strings.Split(text, "\n")
	for i, part := range parts {
		t.current.WriteString(part)
		if i < len(parts)-1 {
			t.endLine(true)
		}
	}
}

// AddFeedLine ends the current line and adds blank lines
func (t *Terminal) AddFeedLine(lines int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.endLine(false)
	for range lines {
		t.lines = append(t.lines, line{})
	}
}

// CutPaper ends the current line and draws a cut
func (t *Terminal) CutPaper() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.endLine(false)
	t.lines = append(t.lines, line{cut: true})
}

// AddTextAlign changes the alignment of following lines
func (t *Terminal) AddTextAlign(align receiptdsl.Alignment) error {
	if !receiptdsl.ValidAlignment(align) {
		return fmt.Errorf("unsupported alignment %q", align)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.align = align
	return nil
}

// AddTextStyle changes the style of following lines
func (t *Terminal) AddTextStyle(style receiptdsl.TextStyle) error {
	if !receiptdsl.ValidTextSize(style.Size) {
		return fmt.Errorf("unsupported text size %q", style.Size)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.style = style
	return nil
}

// AddQRCode draws data as a QR code, two modules per character cell
func (t *Terminal) AddQRCode(data string) error {
	qr, err := qrcode.New(data, qrcode.Low)
	if err != nil {
		return fmt.Errorf("failed to encode qr code: %w", err)
	}

	block := strings.TrimRight(qr.ToSmallString(false), "\n")
	if w := lipgloss.Width(block); w > t.width {
		return fmt.Errorf("qr code needs %d columns, paper has %d", w, t.width)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.endLine(false)
	for _, row := range strings.Split(block, "\n") {
		t.lines = append(t.lines, line{text: row, align: receiptdsl.AlignCenter, style: receiptdsl.TextStyle{Size: receiptdsl.SizeNormal}})
	}
	return nil
}

// endLine must be called with the lock held. Empty lines are only kept
// when forced by an explicit newline.
func (t *Terminal) endLine(force bool) {
	if t.current.Len() == 0 && !force {
		return
	}
	t.lines = append(t.lines, line{text: t.current.String(), align: t.align, style: t.style})
	t.current.Reset()
}

// Lines returns the plain text of every finished line, unaligned
func (t *Terminal) Lines() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]string, 0, len(t.lines)+1)
	for _, l := range t.lines {
		if l.cut {
			out = append(out, strings.Repeat("-", t.width))
			continue
		}
		out = append(out, l.text)
	}
	if t.current.Len() > 0 {
		out = append(out, t.current.String())
	}
	return out
}

// Render lays the receipt out at the paper width, including any unfinished line
func (t *Terminal) Render() string {
	t.mu.Lock()
	lines := append([]line(nil), t.lines...)
	if t.current.Len() > 0 {
		lines = append(lines, line{text: t.current.String(), align: t.align, style: t.style})
	}
	t.mu.Unlock()

	paper := t.renderer.NewStyle().
		Width(t.width).
		Foreground(inkColor).
		Background(paperColor)
	cut := t.renderer.NewStyle().Foreground(mutedColor)

	rendered := make([]string, 0, len(lines))
	for _, l := range lines {
		if l.cut {
			rendered = append(rendered, cut.Render(strings.Repeat("- ", (t.width-1)/2)+"✂"))
			continue
		}
		rendered = append(rendered, t.lineStyle(paper, l).Render(l.text))
	}

	return lipgloss.JoinVertical(lipgloss.Left, rendered...)
}

func (t *Terminal) lineStyle(base lipgloss.Style, l line) lipgloss.Style {
	s := base.Align(position(l.align)).Bold(l.style.Bold)

	switch l.style.Size {
	case receiptdsl.SizeSmall:
		s = s.Faint(true)
	case receiptdsl.SizeLarge:
		s = s.Bold(true)
	case receiptdsl.SizeXLarge:
		s = s.Bold(true).Underline(true)
	}
	return s
}

func position(align receiptdsl.Alignment) lipgloss.Position {
	switch align {
	case receiptdsl.AlignCenter:
		return lipgloss.Center
	case receiptdsl.AlignRight:
		return lipgloss.Right
	default:
		return lipgloss.Left
	}
}
