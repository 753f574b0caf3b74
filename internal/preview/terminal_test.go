package preview_test

import (
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thereceipt/receipt-interpreter/internal/interpreter"
	"github.com/thereceipt/receipt-interpreter/internal/preview"
	"github.com/thereceipt/receipt-interpreter/pkg/receiptdsl"
)

func plainTerminal(width int) *preview.Terminal {
	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(termenv.Ascii)
	return preview.NewTerminal(preview.WithWidth(width), preview.WithRenderer(r))
}

func TestTerminal_Lines(t *testing.T) {
	term := plainTerminal(20)

	term.AddText("Total: ")
	term.AddText("$5.00\nThanks")
	term.AddFeedLine(1)
	term.CutPaper()

	assert.Equal(t, []string{"Total: $5.00", "Thanks", "", strings.Repeat("-", 20)}, term.Lines())
}

func TestTerminal_RenderAlignment(t *testing.T) {
	term := plainTerminal(10)

	require.NoError(t, term.AddTextAlign(receiptdsl.AlignCenter))
	term.AddText("HI\n")
	require.NoError(t, term.AddTextAlign(receiptdsl.AlignRight))
	term.AddText("R\n")
	require.NoError(t, term.AddTextAlign(receiptdsl.AlignLeft))
	term.AddText("L")

	lines := strings.Split(term.Render(), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "    HI    ", lines[0])
	assert.Equal(t, "         R", lines[1])
	assert.Equal(t, "L         ", lines[2])
}

func TestTerminal_RejectsUnknownSettings(t *testing.T) {
	term := plainTerminal(10)

	assert.Error(t, term.AddTextAlign("MIDDLE"))
	assert.Error(t, term.AddTextStyle(receiptdsl.TextStyle{Size: "HUGE"}))
	assert.NoError(t, term.AddTextStyle(receiptdsl.TextStyle{Bold: true, Size: receiptdsl.SizeLarge}))
}

func TestTerminal_QRCode(t *testing.T) {
	term := plainTerminal(preview.DefaultWidth)

	require.NoError(t, term.AddQRCode("A-0042"))

	lines := term.Lines()
	assert.Greater(t, len(lines), 5)
	assert.NotContains(t, strings.Join(lines, ""), "QR CODE")

	assert.Error(t, plainTerminal(8).AddQRCode("A-0042"))
}

func TestTerminal_AsInterpreterTarget(t *testing.T) {
	term := plainTerminal(preview.DefaultWidth)
	doc := `{"elements": [
		{"type": "alignment", "alignment": "CENTER"},
		{"type": "style", "style": {"bold": true, "size": "LARGE"}},
		{"type": "text", "content": "{{STORE_NAME}}"},
		{"type": "feed", "lines": 1},
		{"type": "barcode", "data": "A-0042"}
	]}`

	s := interpreter.New().Interpret(doc, term, nil)

	require.True(t, s.OK())
	assert.Equal(t, []string{
		"BYTE BURGERS",
		"",
		"BARCODE[CODE128]: A-0042",
		strings.Repeat("-", preview.DefaultWidth),
	}, term.Lines())
}
