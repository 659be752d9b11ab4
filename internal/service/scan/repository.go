package scan

import (
	"context"
	"time"

	"github.com/ignite/attendance-checkin/internal/domain"
)

// Repository is the duplicate/event store. Every method propagates failures;
// a swallowed error here would let a repeat scan through.
type Repository interface {
	// FindInWindow returns the first event for code with from <= timestamp < to,
	// or nil when there is none.
	FindInWindow(ctx context.Context, code string, from, to time.Time) (*domain.ScanEvent, error)

	// Record appends an event stamped with the current time.
	Record(ctx context.Context, code, name string) (*domain.ScanEvent, error)

	// List returns events with from <= timestamp < to, oldest first. A zero
	// bound leaves that side open.
	List(ctx context.Context, from, to time.Time) ([]domain.ScanEvent, error)

	// ClearAll deletes every event and returns how many were removed.
	ClearAll(ctx context.Context) (int, error)
}

// Directory is the spreadsheet that maps codes to identities.
type Directory interface {
	AppendCodeAndReadRow(ctx context.Context, code string) (*domain.DirectoryRow, error)
	// UpdateResult never fails; problems are logged by the implementation.
	UpdateResult(ctx context.Context, rowNumber int, outcome *domain.NotificationOutcome)
	WriteToSheet(ctx context.Context, target domain.PersonalSheetTarget) error
}

// Notifier delivers one message and classifies the result. It reports
// failures inside the outcome instead of returning an error.
type Notifier interface {
	Send(ctx context.Context, chatID, message string) domain.NotificationOutcome
}

// Archiver stores a snapshot of events before they are cleared.
type Archiver interface {
	Archive(ctx context.Context, events []domain.ScanEvent) (string, error)
}
