// Package receiptdsl defines the JSON receipt document and its element types
package receiptdsl

// Element type names
const (
	TypeText      = "text"
	TypeBarcode   = "barcode"
	TypeQRCode    = "qrcode"
	TypeImage     = "image"
	TypeDivider   = "divider"
	TypeDynamic   = "dynamic"
	TypeFeed      = "feed"
	TypeAlignment = "alignment"
	TypeStyle     = "style"
	TypeLineSpace = "linespace"
	TypeClear     = "clear"
)

// Defaults applied when an element omits a field
const (
	DefaultBarcodeType      = "CODE128"
	DefaultDividerCharacter = "-"
	DefaultDividerLength    = 48
	DefaultFeedLines        = 1
	DefaultAlignment        = AlignLeft
	DefaultTextSize         = SizeNormal
	DefaultLineSpace        = 30
)

// Alignment is a horizontal text alignment
type Alignment string

const (
	AlignLeft   Alignment = "LEFT"
	AlignCenter Alignment = "CENTER"
	AlignRight  Alignment = "RIGHT"
)

// TextSize is a printer font size
type TextSize string

const (
	SizeSmall  TextSize = "SMALL"
	SizeNormal TextSize = "NORMAL"
	SizeLarge  TextSize = "LARGE"
	SizeXLarge TextSize = "XLARGE"
)

// Barcode symbologies understood by receipt printers
var BarcodeTypes = []string{
	"UPC_A", "UPC_E", "EAN13", "EAN8", "CODE39", "ITF", "CODABAR", "CODE93", "CODE128", "GS1_128",
}

// TextStyle is the bold/size pair carried by a style element
type TextStyle struct {
	Bold bool     `json:"bold"`
	Size TextSize `json:"size"`
}

// Document is a parsed receipt document. Elements stay raw until they are
// decoded one by one, so a bad element only surfaces when it is reached.
type Document struct {
	Elements []RawElement
}

// Element is one decoded receipt element
type Element interface {
	Type() string
}

// Text prints content as-is
type Text struct {
	Content string
}

// Barcode prints data as a barcode of the given symbology
type Barcode struct {
	Data        string
	BarcodeType string
}

// QRCode prints data as a QR code
type QRCode struct {
	Data string
}

// Image prints base64 image data
type Image struct {
	ImageData string
}

// Divider prints Character repeated Length times
type Divider struct {
	Character string
	Length    int
}

// Dynamic prints a field that may still hold an unresolved placeholder
type Dynamic struct {
	Field string
}

// Feed advances the paper by Lines lines
type Feed struct {
	Lines int
}

// AlignmentChange switches the text alignment
type AlignmentChange struct {
	Alignment Alignment
}

// StyleChange switches the text style. Style is nil when the element carries none.
type StyleChange struct {
	Style *TextStyle
}

// LineSpace sets the line spacing in dots
type LineSpace struct {
	Space int
}

// Clear resets formatting on the printer
type Clear struct{}

// Unknown is an element whose type is not supported. It is skipped, not rejected.
type Unknown struct {
	Name string
}

func (Text) Type() string            { return TypeText }
func (Barcode) Type() string         { return TypeBarcode }
func (QRCode) Type() string          { return TypeQRCode }
func (Image) Type() string           { return TypeImage }
func (Divider) Type() string         { return TypeDivider }
func (Dynamic) Type() string         { return TypeDynamic }
func (Feed) Type() string            { return TypeFeed }
func (AlignmentChange) Type() string { return TypeAlignment }
func (StyleChange) Type() string     { return TypeStyle }
func (LineSpace) Type() string       { return TypeLineSpace }
func (Clear) Type() string           { return TypeClear }
func (u Unknown) Type() string       { return u.Name }
