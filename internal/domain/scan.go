package domain

import "time"

const (
	// UnregisteredName is recorded for codes that have no directory entry.
	UnregisteredName = "미등록 사용자"
	// DefaultVisitorName is returned for duplicates whose event has no name.
	DefaultVisitorName = "방문자"
	// RejectedUnregistered is the user-facing reason for unknown codes.
	RejectedUnregistered = "유효하지 않은 코드입니다. 등록된 사용자가 아닙니다."
)

// ScanEvent is one recorded scan attempt. Events are append-only; a
// duplicate is a same-day query result, not a storage constraint.
type ScanEvent struct {
	ID        string    `json:"id" db:"id"`
	Code      string    `json:"code" db:"code"`
	Name      string    `json:"name" db:"name"`
	Timestamp time.Time `json:"timestamp" db:"scanned_at"`
}

// ScanResult is the response shape every scan returns to the presentation
// layer.
type ScanResult struct {
	Success            bool   `json:"success"`
	Error              string `json:"error,omitempty"`
	IsDuplicate        bool   `json:"isDuplicate,omitempty"`
	Name               string `json:"name,omitempty"`
	NotificationResult string `json:"notificationResult,omitempty"`
	SheetName          string `json:"sheetName,omitempty"`
}

// DayWindow returns the half-open interval [start of day, start of next day)
// containing t in loc.
func DayWindow(t time.Time, loc *time.Location) (time.Time, time.Time) {
	local := t.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}
