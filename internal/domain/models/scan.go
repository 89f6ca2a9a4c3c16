package models

import (
	"bytes"
	"encoding/json"
)

// Fallback values used when a QR payload is not a structured product record.
const (
	UnknownItemName = "Unknown Item"
	UnknownField    = "N/A"
	DefaultQuantity = "1"
)

// ScannedItem is one decoded product scan waiting in a cart.
type ScannedItem struct {
	TempID string `json:"tempId"`
	Name   string `json:"name"`
	Batch  string `json:"batch"`
	Bag    string `json:"bag"`
	ID     string `json:"id"`
	Qty    string `json:"qty"`
}

// ParseScannedItem derives a ScannedItem from decoded QR text. Text that is not
// a JSON object becomes a placeholder item carrying the raw text as its ID.
// TempID is left empty; the cart assigns it.
func ParseScannedItem(text string) ScannedItem {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &fields); err != nil || fields == nil {
		return ScannedItem{
			Name:  UnknownItemName,
			Batch: UnknownField,
			Bag:   UnknownField,
			ID:    text,
			Qty:   DefaultQuantity,
		}
	}

	return ScannedItem{
		Name:  scalarString(fields["name"]),
		Batch: scalarString(fields["batch"]),
		Bag:   scalarString(fields["bag"]),
		ID:    scalarString(fields["id"]),
		Qty:   scalarString(fields["qty"]),
	}
}

// scalarString keeps strings as-is and renders numbers and booleans verbatim.
// Missing keys, null, objects and arrays yield "".
func scalarString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	case '{', '[', 'n':
		return ""
	default:
		return string(raw)
	}
}
