package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/ignite/attendance-checkin/internal/domain"
)

type fakeScanner struct {
	codes  []string
	result domain.ScanResult
	err    error
}

func (f *fakeScanner) Scan(_ context.Context, code string) (domain.ScanResult, error) {
	f.codes = append(f.codes, code)
	return f.result, f.err
}

type fakeWriter struct {
	targets []domain.PersonalSheetTarget
	err     error
}

func (f *fakeWriter) SavePersonal(_ context.Context, target domain.PersonalSheetTarget) (string, error) {
	f.targets = append(f.targets, target)
	if f.err != nil {
		return "", f.err
	}
	return "'" + target.SheetName + "' 시트에 코드가 저장되었습니다.", nil
}

func TestReadCodesSkipsShortLines(t *testing.T) {
	input := "C-1001\n\nab\n  x \nC-1002\r\n  QR-77  \n"
	var got []string
	if err := readCodes(strings.NewReader(input), func(code string) { got = append(got, code) }); err != nil {
		t.Fatalf("readCodes failed: %v", err)
	}

	want := []string{"C-1001", "C-1002", "QR-77"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("codes = %v, want %v", got, want)
	}
}

func TestSubmitRejectsLocallyInvalidInput(t *testing.T) {
	f := &fakeScanner{}
	var out bytes.Buffer

	for _, raw := range []string{":", ": -", "ㅊ-1001"} {
		if err := submit(context.Background(), &out, f, raw); err != nil {
			t.Fatalf("submit(%q) returned %v", raw, err)
		}
	}
	if len(f.codes) != 0 {
		t.Errorf("invalid input reached the server: %v", f.codes)
	}
	if strings.Count(out.String(), "ERR") != 3 {
		t.Errorf("expected three error lines, got %q", out.String())
	}
}

func TestSubmitTransportError(t *testing.T) {
	f := &fakeScanner{err: errors.New("connection refused")}
	var out bytes.Buffer

	if err := submit(context.Background(), &out, f, "C-1001"); err == nil {
		t.Fatal("expected transport error")
	}
	if !strings.Contains(out.String(), "connection refused") {
		t.Errorf("output = %q", out.String())
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name string
		res  domain.ScanResult
		want string
	}{
		{"success", domain.ScanResult{Success: true, Name: "Kim", NotificationResult: "메시지 전송 완료", SheetName: "Users"}, "OK   Kim 님 처리 완료 - 메시지 전송 완료 [Users]"},
		{"success without name", domain.ScanResult{Success: true}, "OK   처리 완료"},
		{"duplicate", domain.ScanResult{IsDuplicate: true, Name: "Kim"}, "DUP  Kim 님은 이미 체크인 되었습니다"},
		{"duplicate without name", domain.ScanResult{IsDuplicate: true}, "DUP  이미 체크인 되었습니다"},
		{"rejected", domain.ScanResult{Error: domain.RejectedUnregistered}, "ERR  C-1: " + domain.RejectedUnregistered},
		{"empty failure", domain.ScanResult{}, "ERR  C-1: 알 수 없는 오류가 발생했습니다."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := describe("C-1", tt.res); got != tt.want {
				t.Errorf("describe() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPersonalValidate(t *testing.T) {
	base := personalOptions{spreadsheetID: "s", sheetName: "Day 1", submitterID: "S-7", codeCol: "B"}
	if err := base.validate(); err != nil {
		t.Fatalf("valid options rejected: %v", err)
	}

	noSheet := base
	noSheet.sheetName = " "
	if err := noSheet.validate(); !errors.Is(err, errPersonalTarget) {
		t.Errorf("missing sheet: got %v", err)
	}

	noSubmitter := base
	noSubmitter.submitterID = ""
	if err := noSubmitter.validate(); !errors.Is(err, errPersonalSubmitter) {
		t.Errorf("missing submitter: got %v", err)
	}

	noColumns := base
	noColumns.codeCol = ""
	if err := noColumns.validate(); !errors.Is(err, errPersonalColumns) {
		t.Errorf("no columns: got %v", err)
	}
}

func TestPersonalSessionDedupe(t *testing.T) {
	w := &fakeWriter{}
	opts := personalOptions{
		spreadsheetID: "sheet-9", sheetName: "Day 1", startRow: 2, submitterID: "S-7",
		codeCol: "B", submitterCol: "A", timestampCol: "C", timezone: "Asia/Seoul", dedupe: true,
	}
	s := newPersonalSession(opts, w)
	s.now = func() time.Time { return time.Date(2025, 3, 14, 6, 5, 9, 0, time.UTC) }

	var out bytes.Buffer
	for _, code := range []string{"C-1", "C-1", "C-2"} {
		if err := s.write(context.Background(), &out, code); err != nil {
			t.Fatalf("write(%q) failed: %v", code, err)
		}
	}

	if len(w.targets) != 2 {
		t.Fatalf("writes = %d, want 2", len(w.targets))
	}
	first := w.targets[0]
	if first.SpreadsheetID != "sheet-9" || first.SheetName != "Day 1" || first.StartRow != 2 {
		t.Errorf("target = %+v", first)
	}
	want := []domain.ColumnValue{
		{Value: "C-1", Column: "B"},
		{Value: "S-7", Column: "A"},
		{Value: "2025. 3. 14. 오후 3:05:09", Column: "C"},
	}
	if len(first.Values) != len(want) {
		t.Fatalf("values = %v", first.Values)
	}
	for i := range want {
		if first.Values[i] != want[i] {
			t.Errorf("values[%d] = %+v, want %+v", i, first.Values[i], want[i])
		}
	}
	if !strings.Contains(out.String(), "DUP  중복된 코드입니다: C-1") {
		t.Errorf("output = %q", out.String())
	}
}

func TestPersonalSessionFailedWriteIsNotRemembered(t *testing.T) {
	w := &fakeWriter{err: errors.New("Sheet 'Day 1' not found.")}
	opts := personalOptions{spreadsheetID: "s", sheetName: "Day 1", submitterID: "S-7", codeCol: "B", dedupe: true}
	s := newPersonalSession(opts, w)

	var out bytes.Buffer
	if err := s.write(context.Background(), &out, "C-1"); err == nil {
		t.Fatal("expected write error")
	}
	w.err = nil
	if err := s.write(context.Background(), &out, "C-1"); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if len(w.targets) != 2 {
		t.Errorf("writes = %d, want 2", len(w.targets))
	}
}

func TestPersonalSessionWithoutDedupe(t *testing.T) {
	w := &fakeWriter{}
	opts := personalOptions{spreadsheetID: "s", sheetName: "Day 1", submitterID: "S-7", codeCol: "B"}
	s := newPersonalSession(opts, w)

	var out bytes.Buffer
	_ = s.write(context.Background(), &out, "C-1")
	_ = s.write(context.Background(), &out, "C-1")
	if len(w.targets) != 2 {
		t.Errorf("writes = %d, want 2", len(w.targets))
	}
}

func TestListenAgainstServer(t *testing.T) {
	var codes []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		codes = append(codes, body["code"])
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(domain.ScanResult{Success: true, Name: "Kim", SheetName: "Users"})
	}))
	defer srv.Close()

	serverURL, timeout = srv.URL, 5*time.Second
	defer func() { serverURL = defaultServer() }()

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	cmd.SetIn(strings.NewReader("C-1001\nx\nC-1002\n"))
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)

	if err := runListen(cmd, nil); err != nil {
		t.Fatalf("runListen failed: %v", err)
	}
	if strings.Join(codes, ",") != "C-1001,C-1002" {
		t.Errorf("server saw %v", codes)
	}
	if strings.Count(out.String(), "OK   Kim 님 처리 완료") != 2 {
		t.Errorf("output = %q", out.String())
	}
}

func TestClearRequiresConfirmation(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"deleted":3}`))
	}))
	defer srv.Close()

	serverURL, timeout = srv.URL, 5*time.Second
	defer func() { serverURL = defaultServer(); clearYes = false }()

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	cmd.SetIn(strings.NewReader("n\n"))
	var out bytes.Buffer
	cmd.SetOut(&out)

	if err := runClear(cmd, nil); !errors.Is(err, errNotConfirmed) {
		t.Fatalf("expected abort, got %v", err)
	}
	if called {
		t.Fatal("clear reached the server without confirmation")
	}

	clearYes = true
	if err := runClear(cmd, nil); err != nil {
		t.Fatalf("runClear failed: %v", err)
	}
	if !strings.Contains(out.String(), "(3)") {
		t.Errorf("output = %q", out.String())
	}
}
