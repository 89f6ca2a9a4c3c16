package sheets

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/scantrak/internal/domain/models"
)

// Store is the primary record store the mirror wraps.
type Store interface {
	Write(ctx context.Context, record models.SubmittedRecord) (models.SubmittedRecord, error)
	Subscribe(ctx context.Context, onChange func([]models.SubmittedRecord)) (func(), error)
	List(ctx context.Context) ([]models.SubmittedRecord, error)
}

// Mirror copies every successful write into a spreadsheet tab. The primary
// store stays the source of truth; reads never touch the sheet.
type Mirror struct {
	primary Store
	sheet   Repository
	tab     string
	loc     *time.Location
	logger  *zap.Logger
}

// NewMirror wraps primary so writes are also appended to the named tab.
func NewMirror(primary Store, sheet Repository, tab string, loc *time.Location, logger *zap.Logger) *Mirror {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Mirror{primary: primary, sheet: sheet, tab: tab, loc: loc, logger: logger}
}

// EnsureHeader writes the header row when the tab is still empty.
func (m *Mirror) EnsureHeader(ctx context.Context) error {
	rows, err := m.sheet.ReadRange(ctx, headerRange(m.tab))
	if err != nil {
		return err
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		return nil
	}
	return m.sheet.AppendRow(ctx, TabRange(m.tab), Header)
}

// Write stores the record in the primary store, then mirrors it.
func (m *Mirror) Write(ctx context.Context, record models.SubmittedRecord) (models.SubmittedRecord, error) {
	stored, err := m.primary.Write(ctx, record)
	if err != nil {
		return models.SubmittedRecord{}, err
	}

	if err := m.sheet.AppendRow(ctx, TabRange(m.tab), RecordRow(stored, m.loc)); err != nil {
		m.logger.Warn("failed to mirror record to sheet",
			zap.Error(err),
			zap.String("tab", m.tab),
			zap.String("product_id", stored.ProductID),
		)
	}
	return stored, nil
}

// Subscribe delegates to the primary store.
func (m *Mirror) Subscribe(ctx context.Context, onChange func([]models.SubmittedRecord)) (func(), error) {
	return m.primary.Subscribe(ctx, onChange)
}

// List delegates to the primary store.
func (m *Mirror) List(ctx context.Context) ([]models.SubmittedRecord, error) {
	return m.primary.List(ctx)
}
