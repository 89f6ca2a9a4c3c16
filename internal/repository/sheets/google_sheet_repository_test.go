package sheets

import (
	"testing"
	"time"

	"github.com/mamadbah2/scantrak/internal/domain/models"
)

func TestRecordRowUsesLocation(t *testing.T) {
	loc := time.FixedZone("GMT+1", 3600)
	record := models.SubmittedRecord{
		ProductName: "Urea",
		ProductID:   "00123",
		MemberID:    "M-9",
		Role:        models.RoleCustomer,
		Timestamp:   time.Date(2024, 3, 1, 23, 30, 0, 0, time.UTC).UnixMilli(),
	}

	row := RecordRow(record, loc)
	if len(row) != len(Header) {
		t.Fatalf("row width = %d, want %d", len(row), len(Header))
	}
	if row[0] != "2024-03-02 00:30:00" {
		t.Errorf("timestamp cell = %v, want local time", row[0])
	}
	if row[4] != "00123" || row[8] != "customer" {
		t.Errorf("unexpected row %v", row)
	}

	if utc := RecordRow(record, nil); utc[0] != "2024-03-01 23:30:00" {
		t.Errorf("nil location cell = %v, want UTC", utc[0])
	}
}

func TestTabRanges(t *testing.T) {
	if got := TabRange("megakem"); got != "megakem!A:J" {
		t.Errorf("TabRange() = %q", got)
	}
	if got := headerRange("megakem"); got != "megakem!A1:J1" {
		t.Errorf("headerRange() = %q", got)
	}
}
