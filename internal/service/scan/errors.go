package scan

import "errors"

// Sentinel errors for the scan service layer.
var (
	ErrInvalidCode    = errors.New("유효하지 않은 코드입니다.")
	ErrHangulInput    = errors.New("한글 입력이 감지되었습니다. 입력 언어를 영문으로 전환해주세요.")
	ErrPersonalTarget = errors.New("Sheet ID, Sheet Name, and at least one value to insert are required.")
)
