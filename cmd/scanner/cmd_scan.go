package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/ignite/attendance-checkin/internal/domain"
	"github.com/ignite/attendance-checkin/internal/pkg/logger"
	"github.com/ignite/attendance-checkin/internal/service/scan"
)

var (
	historyDate string
	clearYes    bool
)

// scanCmd submits codes given as arguments
var scanCmd = &cobra.Command{
	Use:   "scan CODE [CODE...]",
	Short: "Submit one or more codes",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runScan,
}

// listenCmd reads codes from a keyboard-wedge scanner on stdin
var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Read codes line by line from stdin",
	Long: `Read codes from stdin, one per line, as a keyboard-wedge scanner types
them. Lines shorter than three characters are treated as stray key presses
and ignored. Stops at end of input.`,
	Args: cobra.NoArgs,
	RunE: runListen,
}

// historyCmd lists one day of scans
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List the scans recorded on one day",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

// clearCmd deletes every recorded scan
var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all recorded scans",
	Long: `Delete all recorded scans from the event store. If the server has an
archive bucket configured, the events are archived first.

This cannot be undone.`,
	Args: cobra.NoArgs,
	RunE: runClear,
}

func runScan(cmd *cobra.Command, args []string) error {
	c := newClient()
	var failed int
	for _, raw := range args {
		if err := submit(cmd.Context(), cmd.OutOrStdout(), c, raw); err != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d codes could not be submitted", failed, len(args))
	}
	return nil
}

func runListen(cmd *cobra.Command, args []string) error {
	c := newClient()
	out := cmd.OutOrStdout()
	fmt.Fprintln(cmd.ErrOrStderr(), "코드를 입력하거나 스캐너를 사용하세요.")

	return readCodes(cmd.InOrStdin(), func(code string) {
		// Transport errors are printed and listening continues.
		_ = submit(cmd.Context(), out, c, code)
	})
}

// readCodes calls fn for every line of r that is long enough to have come
// from a scanner.
func readCodes(r io.Reader, fn func(code string)) error {
	s := bufio.NewScanner(r)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if utf8.RuneCountInString(line) < scan.MinWedgeLength {
			if line != "" {
				logger.Debug("ignoring short input", "length", utf8.RuneCountInString(line))
			}
			continue
		}
		fn(line)
	}
	return s.Err()
}

// scanSubmitter is the part of the API client the scan commands use.
type scanSubmitter interface {
	Scan(ctx context.Context, code string) (domain.ScanResult, error)
}

// submit validates raw locally, sends it and prints the outcome. The
// returned error is non-nil only when the server could not be reached.
func submit(ctx context.Context, out io.Writer, c scanSubmitter, raw string) error {
	code, err := scan.NormalizeCode(raw)
	if err != nil {
		fmt.Fprintf(out, "ERR  %s\n", err)
		return nil
	}

	res, err := c.Scan(ctx, code)
	if err != nil {
		logger.Error("submitting code failed", "error", err)
		fmt.Fprintf(out, "ERR  %s: %v\n", code, err)
		return err
	}
	fmt.Fprintln(out, describe(code, res))
	return nil
}

// describe renders a scan result as one status line.
func describe(code string, res domain.ScanResult) string {
	switch {
	case res.Success:
		title := "처리 완료"
		if res.Name != "" {
			title = res.Name + " 님 처리 완료"
		}
		line := fmt.Sprintf("OK   %s", title)
		if res.NotificationResult != "" {
			line += " - " + res.NotificationResult
		}
		if res.SheetName != "" {
			line += fmt.Sprintf(" [%s]", res.SheetName)
		}
		return line
	case res.IsDuplicate:
		if res.Name != "" {
			return fmt.Sprintf("DUP  %s 님은 이미 체크인 되었습니다", res.Name)
		}
		return "DUP  이미 체크인 되었습니다"
	default:
		msg := res.Error
		if msg == "" {
			msg = "알 수 없는 오류가 발생했습니다."
		}
		return fmt.Sprintf("ERR  %s: %s", code, msg)
	}
}

func runHistory(cmd *cobra.Command, args []string) error {
	h, err := newClient().History(cmd.Context(), historyDate)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %d scans\n", h.Date, h.Count)
	for _, e := range h.Events {
		fmt.Fprintf(out, "%s  %-20s %s\n", e.Timestamp.Format("15:04:05"), e.Code, e.Name)
	}
	return nil
}

var errNotConfirmed = errors.New("aborted")

func runClear(cmd *cobra.Command, args []string) error {
	if !clearYes {
		fmt.Fprint(cmd.OutOrStdout(), "모든 출석 기록을 삭제합니다. 계속하시겠습니까? [y/N] ")
		answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
			return errNotConfirmed
		}
	}

	n, err := newClient().Clear(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "모든 출석 스캔 기록이 성공적으로 삭제되었습니다. (%d)\n", n)
	return nil
}
