package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ignite/attendance-checkin/internal/config"
	"github.com/ignite/attendance-checkin/internal/domain"
	"github.com/ignite/attendance-checkin/internal/pkg/logger"
	"github.com/ignite/attendance-checkin/internal/service/scan"
)

// personalOptions holds the personal-mode sheet target and column layout.
type personalOptions struct {
	spreadsheetID string
	sheetName     string
	startRow      int
	submitterID   string
	codeCol       string
	submitterCol  string
	timestampCol  string
	timezone      string
	dedupe        bool
}

var personal personalOptions

// personalCmd writes codes into a sheet of the operator's choosing
var personalCmd = &cobra.Command{
	Use:   "personal [CODE...]",
	Short: "Write codes into your own spreadsheet",
	Long: `Write each code, the submitter id and a timestamp into the next free
row of a spreadsheet you choose. The service account must be an editor of
that spreadsheet. Nothing is recorded in the attendance event store.

With no CODE arguments, codes are read from stdin like 'listen'.`,
	RunE: runPersonal,
}

func registerPersonalFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&personal.spreadsheetID, "spreadsheet-id", "", "Target spreadsheet id")
	f.StringVar(&personal.sheetName, "sheet", "", "Target sheet (tab) name")
	f.IntVar(&personal.startRow, "start-row", 1, "First data row of the sheet")
	f.StringVar(&personal.submitterID, "submitter", "", "Submitter id written with every code")
	f.StringVar(&personal.codeCol, "code-col", "B", "Column for the code (empty to skip)")
	f.StringVar(&personal.submitterCol, "submitter-col", "A", "Column for the submitter id (empty to skip)")
	f.StringVar(&personal.timestampCol, "timestamp-col", "C", "Column for the timestamp (empty to skip)")
	f.StringVar(&personal.timezone, "timezone", "Asia/Seoul", "Time zone for the timestamp column")
	f.BoolVar(&personal.dedupe, "dedupe", true, "Skip codes already written in this session")
}

var (
	errPersonalTarget    = errors.New("Google Sheets 설정을 먼저 완료해주세요. (--spreadsheet-id, --sheet)")
	errPersonalSubmitter = errors.New("입력자 ID를 먼저 입력해주세요. (--submitter)")
	errPersonalColumns   = errors.New("기록할 열이 하나 이상 지정되어야 합니다. (예: 코드 열)")
)

func (o personalOptions) validate() error {
	if strings.TrimSpace(o.spreadsheetID) == "" || strings.TrimSpace(o.sheetName) == "" {
		return errPersonalTarget
	}
	if strings.TrimSpace(o.submitterID) == "" {
		return errPersonalSubmitter
	}
	if strings.TrimSpace(o.codeCol+o.submitterCol+o.timestampCol) == "" {
		return errPersonalColumns
	}
	return nil
}

// personalWriter is the part of the API client personal mode uses.
type personalWriter interface {
	SavePersonal(ctx context.Context, target domain.PersonalSheetTarget) (string, error)
}

// personalSession writes codes for one run and remembers which codes it
// has already written.
type personalSession struct {
	opts personalOptions
	api  personalWriter
	loc  *time.Location
	now  func() time.Time
	seen map[string]struct{}
}

func newPersonalSession(opts personalOptions, api personalWriter) *personalSession {
	return &personalSession{
		opts: opts,
		api:  api,
		loc:  config.ScanConfig{TimeZone: opts.timezone}.Location(),
		now:  time.Now,
		seen: make(map[string]struct{}),
	}
}

// write sends one code and prints the outcome. It returns an error only
// when the write failed.
func (s *personalSession) write(ctx context.Context, out io.Writer, raw string) error {
	code, err := scan.NormalizeCode(raw)
	if err != nil {
		fmt.Fprintf(out, "ERR  %s\n", err)
		return nil
	}

	if s.opts.dedupe {
		if _, ok := s.seen[code]; ok {
			fmt.Fprintf(out, "DUP  중복된 코드입니다: %s\n", code)
			return nil
		}
	}

	cols := scan.PersonalColumns{Code: s.opts.codeCol, Submitter: s.opts.submitterCol, Timestamp: s.opts.timestampCol}
	target := domain.PersonalSheetTarget{
		SpreadsheetID: strings.TrimSpace(s.opts.spreadsheetID),
		SheetName:     strings.TrimSpace(s.opts.sheetName),
		StartRow:      s.opts.startRow,
		Values:        scan.PersonalValues(code, strings.TrimSpace(s.opts.submitterID), cols, s.now(), s.loc),
	}

	msg, err := s.api.SavePersonal(ctx, target)
	if err != nil {
		logger.Error("personal sheet write failed", "sheet", target.SheetName, "error", err)
		fmt.Fprintf(out, "ERR  %s: %v\n", code, err)
		return err
	}

	if s.opts.dedupe {
		s.seen[code] = struct{}{}
	}
	if msg == "" {
		msg = "성공적으로 저장되었습니다."
	}
	fmt.Fprintf(out, "OK   %s - %s\n", code, msg)
	return nil
}

func runPersonal(cmd *cobra.Command, args []string) error {
	if err := personal.validate(); err != nil {
		return err
	}

	session := newPersonalSession(personal, newClient())
	out := cmd.OutOrStdout()

	if len(args) == 0 {
		return readCodes(cmd.InOrStdin(), func(code string) {
			_ = session.write(cmd.Context(), out, code)
		})
	}

	var failed int
	for _, raw := range args {
		if err := session.write(cmd.Context(), out, raw); err != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d codes could not be written", failed, len(args))
	}
	return nil
}
