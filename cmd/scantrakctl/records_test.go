package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mamadbah2/scantrak/internal/domain/models"
	"github.com/mamadbah2/scantrak/internal/export"
)

func TestResolveFormat(t *testing.T) {
	tests := []struct {
		format, output string
		want           export.Format
	}{
		{"", "", export.FormatJSONL},
		{"", "out/records.parquet", export.FormatParquet},
		{"yaml", "records.parquet", export.FormatYAML},
	}
	for _, tt := range tests {
		got, err := resolveFormat(tt.format, tt.output)
		if err != nil || got != tt.want {
			t.Errorf("resolveFormat(%q, %q) = %q, %v; want %q", tt.format, tt.output, got, err, tt.want)
		}
	}
}

func TestNewerThan(t *testing.T) {
	cutoff := time.UnixMilli(1000)
	records := []models.SubmittedRecord{{Timestamp: 1500}, {Timestamp: 1000}, {Timestamp: 999}}

	got := newerThan(records, cutoff)
	if len(got) != 2 || got[1].Timestamp != 1000 {
		t.Fatalf("newerThan() = %+v", got)
	}
}

func TestStaticRecordsBounds(t *testing.T) {
	s := staticRecords{{Timestamp: 300}, {Timestamp: 100}, {Timestamp: 200}}
	since, until := s.bounds()
	if since.UnixMilli() != 100 || until.UnixMilli() != 301 {
		t.Fatalf("bounds() = %d, %d", since.UnixMilli(), until.UnixMilli())
	}
}

func TestWriteFileParquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.parquet")
	records := []models.SubmittedRecord{
		{ProductID: "P-1", MemberID: "M1", Role: models.RoleCustomer, Timestamp: 2000},
		{ProductID: "P-2", MemberID: "M2", Role: models.RoleApplicator, Timestamp: 1000},
	}

	if err := writeFile(path, export.FormatParquet, records); err != nil {
		t.Fatalf("writeFile() error = %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open export: %v", err)
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		t.Fatalf("stat export: %v", err)
	}

	rows, err := export.ReadParquet(file, info.Size())
	if err != nil {
		t.Fatalf("ReadParquet() error = %v", err)
	}
	if len(rows) != 2 || rows[0].ProductID != "P-1" {
		t.Fatalf("rows = %+v", rows)
	}
}

func TestWriteFileReportsCreateError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "records.yaml")
	if err := writeFile(path, export.FormatYAML, nil); err == nil {
		t.Fatal("writeFile() into a missing directory succeeded")
	}
}
