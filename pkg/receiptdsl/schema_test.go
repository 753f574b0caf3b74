package receiptdsl

import (
	"errors"
	"testing"
)

func TestParseDocument_Valid(t *testing.T) {
	doc, err := ParseDocument([]byte(`{"elements": [{"type": "text", "content": "Hello"}, {"type": "feed"}]}`))
	if err != nil {
		t.Fatalf("ParseDocument() error = %v", err)
	}

	if len(doc.Elements) != 2 {
		t.Errorf("Expected 2 elements, got %d", len(doc.Elements))
	}
}

func TestParseDocument_EmptyElements(t *testing.T) {
	doc, err := ParseDocument([]byte(`{"elements": []}`))
	if err != nil {
		t.Fatalf("ParseDocument() error = %v", err)
	}

	if len(doc.Elements) != 0 {
		t.Errorf("Expected no elements, got %d", len(doc.Elements))
	}
}

func TestParseDocument_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		missing bool
	}{
		{"not json", `{"elements": [`, false},
		{"array root", `[{"type": "text"}]`, false},
		{"null root", `null`, true},
		{"missing elements", `{"items": []}`, true},
		{"null elements", `{"elements": null}`, true},
		{"elements not array", `{"elements": {"type": "text"}}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDocument([]byte(tt.input))
			if err == nil {
				t.Fatal("Expected error")
			}
			if tt.missing && !errors.Is(err, ErrMissingElements) {
				t.Errorf("Expected ErrMissingElements, got %v", err)
			}
		})
	}
}

func TestDecodeElement_Defaults(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Element
	}{
		{"text", `{"type": "text", "content": "Hi"}`, Text{Content: "Hi"}},
		{"text without content", `{"type": "text"}`, Text{}},
		{"barcode default type", `{"type": "barcode", "data": "123"}`, Barcode{Data: "123", BarcodeType: "CODE128"}},
		{"barcode null type", `{"type": "barcode", "data": "123", "barcodeType": null}`, Barcode{Data: "123", BarcodeType: "CODE128"}},
		{"barcode explicit type", `{"type": "barcode", "data": "123", "barcodeType": "EAN13"}`, Barcode{Data: "123", BarcodeType: "EAN13"}},
		{"qrcode", `{"type": "qrcode", "data": "https://x"}`, QRCode{Data: "https://x"}},
		{"image", `{"type": "image", "imageData": "abc"}`, Image{ImageData: "abc"}},
		{"divider defaults", `{"type": "divider"}`, Divider{Character: "-", Length: 48}},
		{"divider explicit", `{"type": "divider", "character": "=", "length": 10}`, Divider{Character: "=", Length: 10}},
		{"divider zero", `{"type": "divider", "length": 0}`, Divider{Character: "-", Length: 0}},
		{"dynamic", `{"type": "dynamic", "field": "{store_name}"}`, Dynamic{Field: "{store_name}"}},
		{"feed default", `{"type": "feed"}`, Feed{Lines: 1}},
		{"feed explicit", `{"type": "feed", "lines": 3}`, Feed{Lines: 3}},
		{"alignment default", `{"type": "alignment"}`, AlignmentChange{Alignment: AlignLeft}},
		{"alignment explicit", `{"type": "alignment", "alignment": "CENTER"}`, AlignmentChange{Alignment: AlignCenter}},
		{"linespace default", `{"type": "linespace"}`, LineSpace{Space: 30}},
		{"clear", `{"type": "clear"}`, Clear{}},
		{"unknown", `{"type": "bogus", "whatever": 1}`, Unknown{Name: "bogus"}},
		{"missing type", `{"content": "x"}`, Unknown{}},
		{"null type", `{"type": null}`, Unknown{}},
		{"numeric type", `{"type": 7}`, Unknown{Name: "7"}},
		{"boolean type", `{"type": true}`, Unknown{Name: "true"}},
		{"object type", `{"type": {"name": "text"}}`, Unknown{Name: `{"name": "text"}`}},
		{"long divider", `{"type": "divider", "length": 100000}`, Divider{Character: "-", Length: 100000}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeElement(RawElement(tt.input))
			if err != nil {
				t.Fatalf("DecodeElement() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("DecodeElement() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestDecodeElement_Style(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    *TextStyle
		wantErr bool
	}{
		{"absent", `{"type": "style"}`, nil, false},
		{"null", `{"type": "style", "style": null}`, nil, false},
		{"defaults", `{"type": "style", "style": {}}`, &TextStyle{Bold: false, Size: SizeNormal}, false},
		{"explicit", `{"type": "style", "style": {"bold": true, "size": "LARGE"}}`, &TextStyle{Bold: true, Size: SizeLarge}, false},
		{"string style", `{"type": "style", "style": "bold"}`, nil, true},
		{"array style", `{"type": "style", "style": [true]}`, nil, true},
		{"bold not bool", `{"type": "style", "style": {"bold": "yes"}}`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeElement(RawElement(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeElement() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidElement) {
					t.Errorf("Expected ErrInvalidElement, got %v", err)
				}
				return
			}

			style := got.(StyleChange).Style
			if (style == nil) != (tt.want == nil) {
				t.Fatalf("Style = %v, want %v", style, tt.want)
			}
			if style != nil && *style != *tt.want {
				t.Errorf("Style = %+v, want %+v", *style, *tt.want)
			}
		})
	}
}

func TestDecodeElement_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"null", `null`},
		{"number", `5`},
		{"string", `"text"`},
		{"negative divider", `{"type": "divider", "length": -1}`},
		{"divider length string", `{"type": "divider", "length": "ten"}`},
		{"feed lines float", `{"type": "feed", "lines": 1.5}`},
		{"content object", `{"type": "text", "content": {"a": 1}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeElement(RawElement(tt.input))
			if !errors.Is(err, ErrInvalidElement) {
				t.Errorf("DecodeElement() error = %v, want ErrInvalidElement", err)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", `{"elements": [{"type": "text", "content": "Hi"}, {"type": "barcode", "data": "1", "barcodeType": "EAN8"}]}`, false},
		{"empty", `{"elements": []}`, true},
		{"unknown type", `{"elements": [{"type": "bogus"}]}`, true},
		{"missing type", `{"elements": [{"content": "x"}]}`, true},
		{"bad barcode type", `{"elements": [{"type": "barcode", "data": "1", "barcodeType": "PDF417"}]}`, true},
		{"bad alignment", `{"elements": [{"type": "alignment", "alignment": "MIDDLE"}]}`, true},
		{"bad size", `{"elements": [{"type": "style", "style": {"size": "HUGE"}}]}`, true},
		{"negative feed", `{"elements": [{"type": "feed", "lines": -2}]}`, true},
		{"line space out of range", `{"elements": [{"type": "linespace", "space": 300}]}`, true},
		{"style change without style", `{"elements": [{"type": "style"}]}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := ParseDocument([]byte(tt.input))
			if err != nil {
				t.Fatalf("ParseDocument() error = %v", err)
			}

			err = Validate(doc)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
