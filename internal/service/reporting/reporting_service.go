package reporting

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/scantrak/internal/domain/models"
)

const dateLayout = "2006-01-02 15:04"

// RecordLister is the read side of the record store.
type RecordLister interface {
	List(ctx context.Context) ([]models.SubmittedRecord, error)
}

// MemberCount is the number of records a member submitted.
type MemberCount struct {
	MemberID   string
	MemberName string
	Records    int
}

// Summary aggregates the records submitted in [Since, Until).
type Summary struct {
	Since   time.Time
	Until   time.Time
	Total   int
	ByRole  map[models.Role]int
	Members []MemberCount
}

// Service builds submission digests.
type Service struct {
	records RecordLister
	loc     *time.Location
	logger  *zap.Logger
}

// NewService wires a new reporting service instance.
func NewService(records RecordLister, loc *time.Location, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{records: records, loc: loc, logger: logger}
}

// Summarize counts the records of the window per role and per member.
func (s *Service) Summarize(ctx context.Context, since, until time.Time) (Summary, error) {
	records, err := s.records.List(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("load records: %w", err)
	}

	summary := Summary{Since: since, Until: until, ByRole: make(map[models.Role]int)}
	members := make(map[string]*MemberCount)

	for _, r := range records {
		at := r.SubmittedAt()
		if at.Before(since) || !at.Before(until) {
			continue
		}

		summary.Total++
		summary.ByRole[r.Role]++

		m, ok := members[r.MemberID]
		if !ok {
			m = &MemberCount{MemberID: r.MemberID, MemberName: r.MemberName}
			members[r.MemberID] = m
		}
		m.Records++
	}

	for _, m := range members {
		summary.Members = append(summary.Members, *m)
	}
	slices.SortFunc(summary.Members, func(a, b MemberCount) int {
		if c := cmp.Compare(b.Records, a.Records); c != 0 {
			return c
		}
		return cmp.Compare(a.MemberID, b.MemberID)
	})

	s.logger.Debug("records summarized", zap.Int("total", summary.Total), zap.Int("members", len(summary.Members)))
	return summary, nil
}

// Digest renders the summary of the window as a short text message.
func (s *Service) Digest(ctx context.Context, since, until time.Time) (string, error) {
	summary, err := s.Summarize(ctx, since, until)
	if err != nil {
		return "", err
	}
	return s.Render(summary), nil
}

// Render formats a summary in the service's time zone.
func (s *Service) Render(summary Summary) string {
	header := fmt.Sprintf("Submissions %s to %s", summary.Since.In(s.loc).Format(dateLayout), summary.Until.In(s.loc).Format(dateLayout))
	if summary.Total == 0 {
		return header + ": no records submitted."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d record(s).\n", header, summary.Total)
	fmt.Fprintf(&b, "Applicators: %d, customers: %d.\n", summary.ByRole[models.RoleApplicator], summary.ByRole[models.RoleCustomer])
	b.WriteString("By member:")
	for _, m := range summary.Members {
		fmt.Fprintf(&b, "\n- %s (%s): %d", m.MemberName, m.MemberID, m.Records)
	}
	return b.String()
}
