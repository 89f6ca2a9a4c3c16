// Package export writes submitted records to files for offline analysis.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"
	"gopkg.in/yaml.v3"

	"github.com/mamadbah2/scantrak/internal/domain/models"
)

// Format is an export file format.
type Format string

const (
	FormatYAML    Format = "yaml"
	FormatParquet Format = "parquet"
	FormatJSONL   Format = "jsonl"
)

// ParseFormat accepts a format name or a file extension.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(name, ".")) {
	case "yaml", "yml":
		return FormatYAML, nil
	case "parquet":
		return FormatParquet, nil
	case "jsonl", "ndjson":
		return FormatJSONL, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", name)
	}
}

// Row is the flat Parquet schema of a record.
type Row struct {
	Timestamp   int64  `parquet:"timestamp"`
	SubmittedAt string `parquet:"submitted_at"`
	ProductName string `parquet:"product_name"`
	BatchNumber string `parquet:"batch_number"`
	BagNumber   string `parquet:"bag_number"`
	ProductID   string `parquet:"product_id"`
	Quantity    string `parquet:"quantity"`
	MemberName  string `parquet:"member_name"`
	MemberID    string `parquet:"member_id"`
	Role        string `parquet:"role"`
	UserID      string `parquet:"user_id"`
}

// NewRow flattens a record.
func NewRow(r models.SubmittedRecord) Row {
	return Row{
		Timestamp:   r.Timestamp,
		SubmittedAt: r.SubmittedAt().UTC().Format(time.RFC3339Nano),
		ProductName: r.ProductName,
		BatchNumber: r.BatchNumber,
		BagNumber:   r.BagNumber,
		ProductID:   r.ProductID,
		Quantity:    r.Quantity,
		MemberName:  r.MemberName,
		MemberID:    r.MemberID,
		Role:        string(r.Role),
		UserID:      r.UserID,
	}
}

// Record restores the stored shape of a row.
func (r Row) Record() models.SubmittedRecord {
	return models.SubmittedRecord{
		ProductName: r.ProductName,
		BatchNumber: r.BatchNumber,
		BagNumber:   r.BagNumber,
		ProductID:   r.ProductID,
		Quantity:    r.Quantity,
		MemberName:  r.MemberName,
		MemberID:    r.MemberID,
		Role:        models.Role(r.Role),
		Timestamp:   r.Timestamp,
		UserID:      r.UserID,
	}
}

// Write encodes records to w in the given format.
func Write(w io.Writer, format Format, records []models.SubmittedRecord) error {
	switch format {
	case FormatYAML:
		return writeYAML(w, records)
	case FormatParquet:
		return writeParquet(w, records)
	case FormatJSONL:
		return writeJSONL(w, records)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

// ReadParquet loads every row of a Parquet export.
func ReadParquet(r io.ReaderAt, size int64) ([]Row, error) {
	pf, err := parquet.OpenFile(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	reader := parquet.NewGenericReader[Row](pf)
	defer reader.Close()

	rows := make([]Row, 0, pf.NumRows())
	batch := make([]Row, 128)
	for {
		n, err := reader.Read(batch)
		rows = append(rows, batch[:n]...)
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read parquet rows: %w", err)
		}
	}
}

func writeYAML(w io.Writer, records []models.SubmittedRecord) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

func writeParquet(w io.Writer, records []models.SubmittedRecord) error {
	rows := make([]Row, len(records))
	for i, r := range records {
		rows[i] = NewRow(r)
	}

	writer := parquet.NewGenericWriter[Row](w)
	if _, err := writer.Write(rows); err != nil {
		return fmt.Errorf("write parquet rows: %w", err)
	}
	return writer.Close()
}

func writeJSONL(w io.Writer, records []models.SubmittedRecord) error {
	enc := json.NewEncoder(w)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("encode record %s: %w", r.ProductID, err)
		}
	}
	return nil
}
