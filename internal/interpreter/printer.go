package interpreter

import "github.com/thereceipt/receipt-interpreter/pkg/receiptdsl"

// Printer is the device a receipt is interpreted onto. Every printer supports
// text, paper feed and cut; everything else is printed as a text marker
// unless the printer implements one of the optional interfaces below.
type Printer interface {
	AddText(text string)
	AddFeedLine(lines int)
	CutPaper()
}

// BarcodePrinter prints barcodes natively
type BarcodePrinter interface {
	AddBarcode(data, barcodeType string) error
}

// QRCodePrinter prints QR codes natively
type QRCodePrinter interface {
	AddQRCode(data string) error
}

// AlignmentPrinter keeps a current text alignment
type AlignmentPrinter interface {
	AddTextAlign(align receiptdsl.Alignment) error
}

// StylePrinter keeps a current text style
type StylePrinter interface {
	AddTextStyle(style receiptdsl.TextStyle) error
}

// ImagePrinter prints base64 encoded images natively
type ImagePrinter interface {
	AddImage(imageData string) error
}
