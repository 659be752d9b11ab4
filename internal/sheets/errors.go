package sheets

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
)

// Kind classifies a spreadsheet failure.
type Kind int

const (
	KindConfig Kind = iota + 1
	KindSheetNotFound
	KindPermission
	KindFailed
)

// Error is a spreadsheet failure carrying a user-facing message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// ErrRowLockBusy is returned when the row lock could not be acquired in time.
var ErrRowLockBusy = errors.New("sheet row lock is held by another writer")

const (
	msgMissingSpreadsheetID = "서버 환경 변수(Spreadsheet ID)가 설정되지 않았습니다. .env 또는 환경 변수 설정을 확인하세요."
	msgPermission           = "Google Sheet에 접근할 권한이 없습니다. 서비스 계정 이메일을 시트의 '편집자'로 공유했는지 확인하세요."
)

// operation selects the wording of sheet-not-found and generic messages.
type operation int

const (
	opDirectory operation = iota
	opPersonal
)

func missingSpreadsheetID() *Error {
	return &Error{Kind: KindConfig, Message: msgMissingSpreadsheetID}
}

// classify rewrites a provider error into a localized *Error.
func classify(err error, sheetName string, op operation) *Error {
	var se *Error
	if errors.As(err, &se) {
		return se
	}

	text := err.Error()
	switch {
	case strings.Contains(text, "Unable to parse range"):
		msg := fmt.Sprintf("'%s' 시트를 찾을 수 없습니다. 시트가 존재하는지, GOOGLE_SHEET_NAME 환경변수가 올바른지 확인해주세요.", sheetName)
		if op == opPersonal {
			msg = fmt.Sprintf("'%s' 시트를 찾을 수 없습니다. 시트 이름이 올바른지 확인해주세요.", sheetName)
		}
		return &Error{Kind: KindSheetNotFound, Message: msg, Err: err}
	case isPermissionDenied(err, text):
		return &Error{Kind: KindPermission, Message: msgPermission, Err: err}
	}

	msg := "Google Sheet 처리 실패. 권한 또는 설정을 확인하세요.\nOriginal error: " + text
	if op == opPersonal {
		msg = "Google Sheet 쓰기 실패. 권한, 시트 ID, 시트 이름을 확인하세요.\nOriginal error: " + text
	}
	return &Error{Kind: KindFailed, Message: msg, Err: err}
}

func isPermissionDenied(err error, text string) bool {
	if strings.Contains(text, "permission to access") || strings.Contains(text, "does not have permission") {
		return true
	}
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusForbidden
}
