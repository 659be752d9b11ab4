package sheets

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/ignite/attendance-checkin/internal/domain"
)

const maxErrorRunes = 100

// NextRow returns the first free row below startRow given the number of
// filled cells counted in the key column from startRow downward. Rows are
// positional, so concurrent writers can compute the same row.
func NextRow(startRow, filled int) int {
	if startRow < 1 {
		startRow = 1
	}
	return (startRow - 1) + filled + 1
}

// StatusText maps a notification outcome to the (result, status) pair
// written into the directory row. A nil outcome means no message was sent.
func StatusText(out *domain.NotificationOutcome) (string, string) {
	switch {
	case out == nil:
		return "메시지 없음", "해당 없음"
	case out.Success:
		return "자동 발송됨", "발송성공"
	case out.IsBlocked:
		return "봇을 차단함", "봇 차단됨"
	case out.IsNotApproved:
		return "봇 미승인", "봇 미승인"
	case out.IsChatNotFound:
		return "계정 확인 필요", "계정 없음"
	}

	errText := out.Error
	if errText == "" {
		errText = "알수없는 오류"
	}
	if r := []rune(errText); len(r) > maxErrorRunes {
		errText = string(r[:maxErrorRunes])
	}
	return "발송실패: " + errText, "발송실패"
}

// FormatTimestamp renders t the way a ko-KR locale prints a date and time,
// e.g. "2025. 1. 5. 오후 3:04:05".
func FormatTimestamp(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	meridiem := "오전"
	if t.Hour() >= 12 {
		meridiem = "오후"
	}
	return fmt.Sprintf("%d. %d. %d. %s %s", t.Year(), int(t.Month()), t.Day(), meridiem, t.Format("3:04:05"))
}

// sheetRef quotes a sheet name for A1 notation when it contains anything
// other than letters, digits or underscores.
func sheetRef(name string) string {
	plain := name != ""
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			plain = false
			break
		}
	}
	if plain {
		return name
	}
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

// columnFrom returns the open-ended range "<sheet>!<col><row>:<col>".
func columnFrom(sheet, col string, row int) string {
	return fmt.Sprintf("%s!%s%d:%s", sheetRef(sheet), col, row, col)
}

// rowSpan returns "<sheet>!<from><row>:<to><row>".
func rowSpan(sheet, from, to string, row int) string {
	return fmt.Sprintf("%s!%s%d:%s%d", sheetRef(sheet), from, row, to, row)
}

// cell returns "<sheet>!<col><row>".
func cell(sheet, col string, row int) string {
	return fmt.Sprintf("%s!%s%d", sheetRef(sheet), col, row)
}
