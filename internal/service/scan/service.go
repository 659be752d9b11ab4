package scan

import (
	"context"
	"fmt"
	"time"

	"github.com/ignite/attendance-checkin/internal/domain"
	"github.com/ignite/attendance-checkin/internal/pkg/logger"
)

// Summaries returned with a successful scan.
const (
	SummaryRecorded  = "출석이 기록되었습니다."
	SummaryNotified  = "출석이 기록되었고, Telegram 메시지가 발송되었습니다."
	summaryFailedFmt = "출석 기록 완료. Telegram 발송 실패: %s"
)

// Kind is the terminal state of one scan.
type Kind int

const (
	KindSuccess Kind = iota + 1
	KindDuplicate
	KindRejected
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindDuplicate:
		return "duplicate"
	case KindRejected:
		return "rejected"
	}
	return "unknown"
}

// Outcome is the result of ProcessScan. Name is set for Success and
// Duplicate, Summary and SheetName for Success, Reason for Rejected.
type Outcome struct {
	Kind      Kind
	Name      string
	Summary   string
	SheetName string
	Reason    string
}

// Result converts the outcome into the client-facing response shape.
func (o Outcome) Result() domain.ScanResult {
	switch o.Kind {
	case KindSuccess:
		return domain.ScanResult{Success: true, Name: o.Name, NotificationResult: o.Summary, SheetName: o.SheetName}
	case KindDuplicate:
		return domain.ScanResult{IsDuplicate: true, Name: o.Name}
	default:
		return domain.ScanResult{Error: o.Reason}
	}
}

// Service runs the scan pipeline. It is safe for concurrent use; concurrent
// scans are not coordinated with each other.
type Service struct {
	repo     Repository
	dir      Directory
	notifier Notifier
	archiver Archiver
	renderer *Renderer
	loc      *time.Location
	now      func() time.Time
}

// NewService creates a scan service. Day boundaries and rendered times use
// loc.
func NewService(repo Repository, dir Directory, notifier Notifier, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		repo:     repo,
		dir:      dir,
		notifier: notifier,
		renderer: NewRenderer(),
		loc:      loc,
		now:      time.Now,
	}
}

// WithArchiver makes Clear snapshot all events before deleting them.
func (s *Service) WithArchiver(a Archiver) *Service {
	s.archiver = a
	return s
}

// Location returns the time zone that bounds the duplicate window.
func (s *Service) Location() *time.Location { return s.loc }

// ProcessScan runs one code through the pipeline. Store and spreadsheet
// failures before the event is recorded are returned as errors; a failed
// notification is reported inside a Success outcome.
//
// Once started a scan runs to completion: cancellation of ctx is ignored so
// a row written to the sheet always gets its event and status patch. Provider
// timeouts still bound each step.
func (s *Service) ProcessScan(ctx context.Context, code string) (Outcome, error) {
	ctx = context.WithoutCancel(ctx)
	now := s.now()
	from, to := domain.DayWindow(now, s.loc)

	prior, err := s.repo.FindInWindow(ctx, code, from, to)
	if err != nil {
		return Outcome{}, fmt.Errorf("checking duplicate scan: %w", err)
	}
	if prior != nil {
		name := prior.Name
		if name == "" {
			name = domain.DefaultVisitorName
		}
		logger.Info("duplicate scan", "code", code, "name", name)
		return Outcome{Kind: KindDuplicate, Name: name}, nil
	}

	row, err := s.dir.AppendCodeAndReadRow(ctx, code)
	if err != nil {
		return Outcome{}, err
	}

	if !row.Registered() {
		if _, err := s.repo.Record(ctx, code, domain.UnregisteredName); err != nil {
			return Outcome{}, fmt.Errorf("recording unregistered scan: %w", err)
		}
		logger.Warn("scan rejected, code not in directory", "code", code)
		return Outcome{Kind: KindRejected, Reason: domain.RejectedUnregistered}, nil
	}

	if _, err := s.repo.Record(ctx, code, row.Name); err != nil {
		return Outcome{}, fmt.Errorf("recording scan: %w", err)
	}

	summary := SummaryRecorded
	var outcome *domain.NotificationOutcome
	if row.CanNotify() {
		message := s.renderer.Render(row.MessageTemplate, map[string]interface{}{
			"name": row.Name,
			"code": code,
			"time": now.In(s.loc).Format("15:04"),
		})
		result := s.notifier.Send(ctx, row.ContactID, message)
		outcome = &result
		if result.Success {
			summary = SummaryNotified
		} else {
			summary = fmt.Sprintf(summaryFailedFmt, result.Error)
			logger.Warn("notification failed", "code", code, "contact_id", row.ContactID, "error", result.Error)
		}
	}

	s.dir.UpdateResult(ctx, row.RowNumber, outcome)

	logger.Info("scan recorded", "code", code, "name", row.Name, "row", row.RowNumber, "notified", outcome != nil && outcome.Success)
	return Outcome{Kind: KindSuccess, Name: row.Name, Summary: summary, SheetName: row.SheetName}, nil
}

// Clear deletes every recorded event. With an Archiver configured the events
// are archived first and nothing is deleted if archiving fails.
func (s *Service) Clear(ctx context.Context) (int, error) {
	if s.archiver != nil {
		events, err := s.repo.List(ctx, time.Time{}, time.Time{})
		if err != nil {
			return 0, fmt.Errorf("listing scans for archive: %w", err)
		}
		if len(events) > 0 {
			key, err := s.archiver.Archive(ctx, events)
			if err != nil {
				return 0, fmt.Errorf("archiving scans: %w", err)
			}
			logger.Info("scans archived", "key", key, "count", len(events))
		}
	}

	n, err := s.repo.ClearAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("clearing scans: %w", err)
	}
	logger.Info("scans cleared", "count", n)
	return n, nil
}

// History returns the events recorded on the local calendar day containing
// day.
func (s *Service) History(ctx context.Context, day time.Time) ([]domain.ScanEvent, error) {
	from, to := domain.DayWindow(day, s.loc)
	return s.repo.List(ctx, from, to)
}

// SavePersonal writes target's values into the next free row of a
// caller-chosen sheet. It does not touch the event store.
func (s *Service) SavePersonal(ctx context.Context, target domain.PersonalSheetTarget) (string, error) {
	if target.SpreadsheetID == "" || target.SheetName == "" || len(target.Values) == 0 {
		return "", ErrPersonalTarget
	}
	if target.StartRow < 1 {
		target.StartRow = 1
	}
	if err := s.dir.WriteToSheet(ctx, target); err != nil {
		return "", err
	}
	return fmt.Sprintf("'%s' 시트에 코드가 저장되었습니다.", target.SheetName), nil
}
