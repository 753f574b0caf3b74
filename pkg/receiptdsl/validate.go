package receiptdsl

import (
	"fmt"
	"slices"
)

// Validate checks a document more strictly than interpretation does.
// Interpretation skips unknown element types and tolerates odd field values;
// Validate reports the first of those it finds.
func Validate(doc *Document) error {
	if len(doc.Elements) == 0 {
		return fmt.Errorf("at least one element is required")
	}

	for i, raw := range doc.Elements {
		el, err := DecodeElement(raw)
		if err != nil {
			return fmt.Errorf("element[%d]: %w", i, err)
		}
		if err := validateElement(el); err != nil {
			return fmt.Errorf("element[%d]: %w", i, err)
		}
	}

	return nil
}

func validateElement(el Element) error {
	switch e := el.(type) {
	case Unknown:
		if e.Name == "" {
			return fmt.Errorf("element type is required")
		}
		return fmt.Errorf("unknown element type '%s'", e.Name)
	case Barcode:
		if !slices.Contains(BarcodeTypes, e.BarcodeType) {
			return fmt.Errorf("unknown barcodeType '%s'", e.BarcodeType)
		}
	case AlignmentChange:
		if !ValidAlignment(e.Alignment) {
			return fmt.Errorf("invalid alignment '%s' (must be LEFT, CENTER, or RIGHT)", e.Alignment)
		}
	case StyleChange:
		if e.Style != nil && !ValidTextSize(e.Style.Size) {
			return fmt.Errorf("invalid size '%s' (must be SMALL, NORMAL, LARGE, or XLARGE)", e.Style.Size)
		}
	case Feed:
		if e.Lines < 0 {
			return fmt.Errorf("feed lines must not be negative")
		}
	case LineSpace:
		if e.Space < 0 || e.Space > 255 {
			return fmt.Errorf("line space %d out of range 0-255", e.Space)
		}
	}
	return nil
}

// ValidAlignment reports whether a is one of the supported alignments
func ValidAlignment(a Alignment) bool {
	switch a {
	case AlignLeft, AlignCenter, AlignRight:
		return true
	}
	return false
}

// ValidTextSize reports whether s is one of the supported text sizes
func ValidTextSize(s TextSize) bool {
	switch s {
	case SizeSmall, SizeNormal, SizeLarge, SizeXLarge:
		return true
	}
	return false
}
