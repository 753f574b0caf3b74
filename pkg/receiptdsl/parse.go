package receiptdsl

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

var (
	// ErrMissingElements is returned when a document has no elements array
	ErrMissingElements = errors.New("document has no elements array")
	// ErrInvalidElement is returned when an element cannot be decoded
	ErrInvalidElement = errors.New("invalid element")
)

// RawElement is an undecoded element of a document
type RawElement = json.RawMessage

// ParseDocument parses receipt document text. Elements are kept raw; call
// DecodeElement on each one in order.
func ParseDocument(data []byte) (*Document, error) {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse receipt document: %w", err)
	}
	if root == nil {
		return nil, fmt.Errorf("failed to parse receipt document: %w", ErrMissingElements)
	}

	raw, ok := root["elements"]
	if !ok || isNull(raw) {
		return nil, ErrMissingElements
	}

	var elements []RawElement
	if err := json.Unmarshal(raw, &elements); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingElements, err)
	}

	return &Document{Elements: elements}, nil
}

// ParseFile reads and parses a receipt document from disk
func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read receipt document: %w", err)
	}

	return ParseDocument(data)
}

// DecodeElement decodes a raw element into its typed form, applying field
// defaults. Unsupported types decode to Unknown without error.
func DecodeElement(raw RawElement) (Element, error) {
	if isNull(raw) {
		return nil, fmt.Errorf("%w: element is null", ErrInvalidElement)
	}

	var header struct {
		Type json.RawMessage `json:"type"`
	}
	if err := json.Unmarshal(raw, &header); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidElement, err)
	}

	typ := typeName(header.Type)
	decode, ok := decoders[typ]
	if !ok {
		return Unknown{Name: typ}, nil
	}

	el, err := decode(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidElement, typ, err)
	}
	return el, nil
}

// typeName reads an element's type. A missing or null type is "", and a
// type that is not a string keeps its JSON text, e.g. 5 becomes "5".
func typeName(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || isNull(raw) {
		return ""
	}

	var name string
	if err := json.Unmarshal(raw, &name); err != nil {
		return string(raw)
	}
	return name
}

var decoders = map[string]func(RawElement) (Element, error){
	TypeText:      decodeText,
	TypeBarcode:   decodeBarcode,
	TypeQRCode:    decodeQRCode,
	TypeImage:     decodeImage,
	TypeDivider:   decodeDivider,
	TypeDynamic:   decodeDynamic,
	TypeFeed:      decodeFeed,
	TypeAlignment: decodeAlignment,
	TypeStyle:     decodeStyle,
	TypeLineSpace: decodeLineSpace,
	TypeClear:     func(RawElement) (Element, error) { return Clear{}, nil },
}

func decodeText(raw RawElement) (Element, error) {
	var w struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, err
	}
	return Text{Content: w.Content}, nil
}

func decodeBarcode(raw RawElement) (Element, error) {
	var w struct {
		Data        string  `json:"data"`
		BarcodeType *string `json:"barcodeType"`
	}
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, err
	}
	return Barcode{Data: w.Data, BarcodeType: valueOr(w.BarcodeType, DefaultBarcodeType)}, nil
}

func decodeQRCode(raw RawElement) (Element, error) {
	var w struct {
		Data string `json:"data"`
	}
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, err
	}
	return QRCode{Data: w.Data}, nil
}

func decodeImage(raw RawElement) (Element, error) {
	var w struct {
		ImageData string `json:"imageData"`
	}
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, err
	}
	return Image{ImageData: w.ImageData}, nil
}

func decodeDivider(raw RawElement) (Element, error) {
	var w struct {
		Character *string `json:"character"`
		Length    *int    `json:"length"`
	}
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, err
	}

	length := valueOr(w.Length, DefaultDividerLength)
	if length < 0 {
		return nil, fmt.Errorf("negative length %d", length)
	}

	return Divider{Character: valueOr(w.Character, DefaultDividerCharacter), Length: length}, nil
}

func decodeDynamic(raw RawElement) (Element, error) {
	var w struct {
		Field string `json:"field"`
	}
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, err
	}
	return Dynamic{Field: w.Field}, nil
}

func decodeFeed(raw RawElement) (Element, error) {
	var w struct {
		Lines *int `json:"lines"`
	}
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, err
	}
	return Feed{Lines: valueOr(w.Lines, DefaultFeedLines)}, nil
}

func decodeAlignment(raw RawElement) (Element, error) {
	var w struct {
		Alignment *Alignment `json:"alignment"`
	}
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, err
	}
	return AlignmentChange{Alignment: valueOr(w.Alignment, DefaultAlignment)}, nil
}

func decodeStyle(raw RawElement) (Element, error) {
	var w struct {
		Style json.RawMessage `json:"style"`
	}
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, err
	}
	if len(w.Style) == 0 || isNull(w.Style) {
		return StyleChange{}, nil
	}
	if !bytes.HasPrefix(bytes.TrimSpace(w.Style), []byte("{")) {
		return nil, fmt.Errorf("style must be an object")
	}

	var s struct {
		Bold bool      `json:"bold"`
		Size *TextSize `json:"size"`
	}
	if err := json.Unmarshal(w.Style, &s); err != nil {
		return nil, fmt.Errorf("style: %w", err)
	}

	return StyleChange{Style: &TextStyle{Bold: s.Bold, Size: valueOr(s.Size, DefaultTextSize)}}, nil
}

func decodeLineSpace(raw RawElement) (Element, error) {
	var w struct {
		Space *int `json:"space"`
	}
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, err
	}
	return LineSpace{Space: valueOr(w.Space, DefaultLineSpace)}, nil
}

func valueOr[T any](v *T, def T) T {
	if v == nil {
		return def
	}
	return *v
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
