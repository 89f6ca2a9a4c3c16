package main

import (
	"context"
	"time"

	"github.com/mamadbah2/scantrak/internal/domain/models"
)

// staticRecords serves an in-memory record set to the reporting service.
type staticRecords []models.SubmittedRecord

func (s staticRecords) List(context.Context) ([]models.SubmittedRecord, error) {
	return s, nil
}

// bounds returns a window covering every record.
func (s staticRecords) bounds() (time.Time, time.Time) {
	if len(s) == 0 {
		now := time.Now()
		return now, now
	}

	lo, hi := s[0].Timestamp, s[0].Timestamp
	for _, r := range s[1:] {
		lo = min(lo, r.Timestamp)
		hi = max(hi, r.Timestamp)
	}
	return time.UnixMilli(lo), time.UnixMilli(hi + 1)
}
