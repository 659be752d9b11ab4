package scan

import (
	"strings"
	"time"
	"unicode"

	"github.com/ignite/attendance-checkin/internal/domain"
	"github.com/ignite/attendance-checkin/internal/sheets"
)

// MinWedgeLength is the shortest line a keyboard-wedge scanner is trusted
// to have produced. Shorter bursts are stray key presses.
const MinWedgeLength = 3

// NormalizeCode trims raw scanner input and rejects values that cannot be a
// code: empty input, the ":" and ": -" artifacts some scanners emit under a
// wrong keyboard layout, and anything containing Hangul, which means the
// input method was not switched to Latin.
func NormalizeCode(raw string) (string, error) {
	code := strings.TrimSpace(raw)
	switch code {
	case "", ":", ": -":
		return "", ErrInvalidCode
	}
	for _, r := range code {
		if unicode.Is(unicode.Hangul, r) {
			return "", ErrHangulInput
		}
	}
	return code, nil
}

// PersonalColumns maps the values written in personal mode to columns. An
// empty column skips that value.
type PersonalColumns struct {
	Code      string
	Submitter string
	Timestamp string
}

// PersonalValues builds the column values for one personal-mode scan in the
// order code, submitter id, timestamp.
func PersonalValues(code, submitterID string, cols PersonalColumns, now time.Time, loc *time.Location) []domain.ColumnValue {
	var values []domain.ColumnValue
	if strings.TrimSpace(cols.Code) != "" && strings.TrimSpace(code) != "" {
		values = append(values, domain.ColumnValue{Value: code, Column: cols.Code})
	}
	if strings.TrimSpace(cols.Submitter) != "" && strings.TrimSpace(submitterID) != "" {
		values = append(values, domain.ColumnValue{Value: submitterID, Column: cols.Submitter})
	}
	if strings.TrimSpace(cols.Timestamp) != "" {
		values = append(values, domain.ColumnValue{Value: sheets.FormatTimestamp(now, loc), Column: cols.Timestamp})
	}
	return values
}
