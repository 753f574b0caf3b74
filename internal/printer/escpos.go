package printer

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"
	"sync"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/codabar"
	"github.com/boombuler/barcode/code128"
	"github.com/boombuler/barcode/code39"
	"github.com/boombuler/barcode/code93"
	"github.com/boombuler/barcode/ean"
	"github.com/boombuler/barcode/twooffive"
	"github.com/disintegration/imaging"
	"github.com/skip2/go-qrcode"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"github.com/thereceipt/receipt-interpreter/pkg/receiptdsl"
)

// ESC/POS commands
const (
	ESC byte = 0x1B
	GS  byte = 0x1D
	FS  byte = 0x1C
	LF  byte = 0x0A
)

// Paper widths in printable dots at 203 dpi
var paperDots = map[string]int{
	"58mm":  384,
	"80mm":  576,
	"112mm": 832,
}

const (
	barcodeHeight = 80
	maxQRSize     = 384
	cutFeedLines  = 3

	// MaxImageDimension bounds the declared width and height of an image
	MaxImageDimension = 4096
)

// ErrUnsupportedBarcode is returned for symbologies the encoder cannot draw
var ErrUnsupportedBarcode = errors.New("unsupported barcode type")

// PaperDots returns the printable width in dots for a paper width such as
// "80mm". Unknown widths report false.
func PaperDots(paperWidth string) (int, bool) {
	dots, ok := paperDots[paperWidth]
	return dots, ok
}

// ESCPOS encodes printer calls as an ESC/POS byte stream. Barcodes, QR codes
// and images are rasterized and sent as GS v 0 bit images.
type ESCPOS struct {
	buffer  *bytes.Buffer
	encoder *encoding.Encoder
	dots    int
	mu      sync.Mutex
}

// NewESCPOS creates an encoder for the given paper width and writes the
// printer initialization sequence. Unknown widths fall back to 80mm.
func NewESCPOS(paperWidth string) *ESCPOS {
	dots, ok := PaperDots(paperWidth)
	if !ok {
		dots = paperDots["80mm"]
	}

	e := &ESCPOS{
		buffer:  new(bytes.Buffer),
		encoder: encoding.ReplaceUnsupported(charmap.CodePage437.NewEncoder()),
		dots:    dots,
	}
	e.initialize()
	return e
}

func (e *ESCPOS) initialize() {
	e.buffer.Write([]byte{ESC, '@'})
}

// Dots returns the printable width in dots
func (e *ESCPOS) Dots() int {
	return e.dots
}

// AddText writes text in code page 437. Characters outside it are replaced.
func (e *ESCPOS) AddText(text string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	encoded, err := e.encoder.String(text)
	if err != nil {
		encoded = strings.Map(asciiOnly, text)
	}
	e.buffer.WriteString(encoded)
}

// AddFeedLine feeds the given number of lines
func (e *ESCPOS) AddFeedLine(lines int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.feed(lines)
}

func (e *ESCPOS) feed(lines int) {
	for range lines {
		e.buffer.WriteByte(LF)
	}
}

// CutPaper feeds past the cutter and performs a full cut
func (e *ESCPOS) CutPaper() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.feed(cutFeedLines)
	e.buffer.Write([]byte{GS, 'V', 0})
}

// AddTextAlign sets the alignment of following text and images
func (e *ESCPOS) AddTextAlign(align receiptdsl.Alignment) error {
	var n byte
	switch align {
	case receiptdsl.AlignLeft:
		n = 0
	case receiptdsl.AlignCenter:
		n = 1
	case receiptdsl.AlignRight:
		n = 2
	default:
		return fmt.Errorf("unsupported alignment %q", align)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.buffer.Write([]byte{ESC, 'a', n})
	return nil
}

// AddTextStyle sets emphasis and character size. SMALL selects font B.
func (e *ESCPOS) AddTextStyle(style receiptdsl.TextStyle) error {
	var font byte
	var width, height int
	switch style.Size {
	case receiptdsl.SizeSmall:
		font, width, height = 1, 1, 1
	case receiptdsl.SizeNormal:
		width, height = 1, 1
	case receiptdsl.SizeLarge:
		width, height = 2, 2
	case receiptdsl.SizeXLarge:
		width, height = 3, 3
	default:
		return fmt.Errorf("unsupported text size %q", style.Size)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.buffer.Write([]byte{ESC, 'M', font})
	e.setTextSize(width, height)
	e.setBold(style.Bold)
	return nil
}

func (e *ESCPOS) setTextSize(width, height int) {
	width = min(max(width, 1), 8)
	height = min(max(height, 1), 8)

	e.buffer.Write([]byte{GS, '!', byte(((width - 1) << 4) | (height - 1))})
}

func (e *ESCPOS) setBold(enabled bool) {
	var n byte
	if enabled {
		n = 1
	}
	e.buffer.Write([]byte{ESC, 'E', n})
}

// AddBarcode draws data in the given symbology as a bit image
func (e *ESCPOS) AddBarcode(data, barcodeType string) error {
	bc, err := encodeBarcode(data, barcodeType)
	if err != nil {
		return err
	}

	if bc.Bounds().Dx() > e.dots {
		return fmt.Errorf("barcode %q is wider than the paper", data)
	}
	module := min(3, e.dots/bc.Bounds().Dx())

	scaled, err := barcode.Scale(bc, bc.Bounds().Dx()*module, barcodeHeight)
	if err != nil {
		return fmt.Errorf("failed to scale barcode: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.rasterImage(scaled)
	e.buffer.WriteByte(LF)
	return nil
}

func encodeBarcode(data, barcodeType string) (barcode.Barcode, error) {
	var bc barcode.Barcode
	var err error

	switch barcodeType {
	case "CODE128", "GS1_128":
		bc, err = code128.Encode(data)
	case "CODE39":
		bc, err = code39.Encode(data, false, true)
	case "CODE93":
		bc, err = code93.Encode(data, false, true)
	case "EAN13", "EAN8":
		bc, err = ean.Encode(data)
	case "UPC_A":
		// UPC-A is EAN-13 with a leading zero
		bc, err = ean.Encode("0" + data)
	case "ITF":
		bc, err = twooffive.Encode(data, true)
	case "CODABAR":
		bc, err = codabar.Encode(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedBarcode, barcodeType)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to encode %s barcode: %w", barcodeType, err)
	}
	return bc, nil
}

// AddQRCode draws data as a QR code with medium error correction
func (e *ESCPOS) AddQRCode(data string) error {
	qr, err := qrcode.New(data, qrcode.Medium)
	if err != nil {
		return fmt.Errorf("failed to encode qr code: %w", err)
	}

	img := qr.Image(min(e.dots/2, maxQRSize))

	e.mu.Lock()
	defer e.mu.Unlock()

	e.rasterImage(img)
	e.buffer.WriteByte(LF)
	return nil
}

// AddImage decodes a base64 PNG, JPEG or GIF image and prints it, scaled
// down to the paper width when wider. Images declaring more than
// MaxImageDimension pixels on either side are rejected before decoding.
func (e *ESCPOS) AddImage(imageData string) error {
	data, err := base64.StdEncoding.DecodeString(imageData)
	if err != nil {
		return fmt.Errorf("failed to decode image data: %w", err)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to decode image: %w", err)
	}
	if cfg.Width > MaxImageDimension || cfg.Height > MaxImageDimension {
		return fmt.Errorf("image is %dx%d, larger than %dx%d", cfg.Width, cfg.Height, MaxImageDimension, MaxImageDimension)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to decode image: %w", err)
	}

	if img.Bounds().Dx() > e.dots {
		img = imaging.Resize(img, e.dots, 0, imaging.Lanczos)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.rasterImage(img)
	return nil
}

// rasterImage writes img with GS v 0 in normal density
func (e *ESCPOS) rasterImage(img image.Image) {
	bytesPerLine := (img.Bounds().Dx() + 7) / 8
	height := img.Bounds().Dy()

	e.buffer.Write([]byte{
		GS, 'v', '0', 0,
		byte(bytesPerLine & 0xFF), byte((bytesPerLine >> 8) & 0xFF),
		byte(height & 0xFF), byte((height >> 8) & 0xFF),
	})
	e.buffer.Write(imageToBitmap(img))
}

// Bytes returns a copy of the encoded stream
func (e *ESCPOS) Bytes() []byte {
	e.mu.Lock()
	defer e.mu.Unlock()

	return bytes.Clone(e.buffer.Bytes())
}

// Reset discards everything encoded so far and re-initializes the printer
func (e *ESCPOS) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.buffer.Reset()
	e.initialize()
}

// imageToBitmap converts an image to a 1-bit bitmap, MSB first, one bit per
// pixel. Pixels darker than half intensity once placed on white paper are set.
func imageToBitmap(img image.Image) []byte {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	bytesPerLine := (width + 7) / 8
	bitmap := make([]byte, bytesPerLine*height)

	for y := range height {
		for x := range width {
			r, g, b, a := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()

			// composite over white paper
			white := 0xFFFF - a
			gray := (r + g + b + 3*white) / 3

			if gray < 0x8000 {
				bitmap[y*bytesPerLine+x/8] |= 1 << (7 - x%8)
			}
		}
	}

	return bitmap
}

func asciiOnly(r rune) rune {
	if r > 0x7F {
		return '?'
	}
	return r
}
