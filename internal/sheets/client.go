// Package sheets reads and writes the directory spreadsheet: it appends a
// scanned code to the next free row, reads the bearer's identity back from
// formula columns, and later patches the same row with the delivery status.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ignite/attendance-checkin/internal/config"
	"github.com/ignite/attendance-checkin/internal/domain"
	"github.com/ignite/attendance-checkin/internal/pkg/distlock"
	"github.com/ignite/attendance-checkin/internal/pkg/logger"
)

// Directory sheet layout: A code, B timestamp, C name, D contact id,
// E message template, F delivery text, G delivery status.
const (
	colCode     = "A"
	colStamp    = "B"
	colReadFrom = "C"
	colReadTo   = "E"
	colResult   = "F"
	colStatus   = "G"
)

const (
	lockWait = 10 * time.Second
	lockPoll = 100 * time.Millisecond
)

// RowLocker returns a lock for the given key. A nil RowLocker disables row
// reservation.
type RowLocker func(key string) distlock.DistLock

// Client is the spreadsheet adapter.
type Client struct {
	api           ValuesAPI
	spreadsheetID string
	sheetName     string
	startRow      int
	settle        time.Duration
	loc           *time.Location
	locker        RowLocker

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a spreadsheet adapter for the directory sheet in cfg.
// Timestamps are written in loc.
func New(api ValuesAPI, cfg config.SheetsConfig, loc *time.Location) *Client {
	if loc == nil {
		loc = time.UTC
	}
	startRow := cfg.StartRow
	if startRow < 1 {
		startRow = 1
	}
	return &Client{
		api:           api,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     cfg.SheetName,
		startRow:      startRow,
		settle:        cfg.SettleDelay(),
		loc:           loc,
		now:           time.Now,
		sleep:         sleepCtx,
	}
}

// WithRowLocker makes next-row discovery and the following write atomic
// with respect to other writers using the same locker.
func (c *Client) WithRowLocker(l RowLocker) *Client {
	c.locker = l
	return c
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AppendCodeAndReadRow writes code and the current timestamp into columns
// A:B of the next free directory row, waits for formula columns to settle,
// and reads name, contact id and message template from C:E of that row.
// An empty read-back yields a row with empty fields rather than an error.
func (c *Client) AppendCodeAndReadRow(ctx context.Context, code string) (*domain.DirectoryRow, error) {
	if c.spreadsheetID == "" {
		logger.Error("GOOGLE_SPREADSHEET_ID is not set")
		return nil, missingSpreadsheetID()
	}

	stamp := FormatTimestamp(c.now(), c.loc)
	rowNumber, err := c.writeNextRow(ctx, c.spreadsheetID, c.sheetName, c.startRow, colCode, func(row int) error {
		return c.api.Update(ctx, c.spreadsheetID, rowSpan(c.sheetName, colCode, colStamp, row), [][]string{{code, stamp}})
	})
	if err != nil {
		logger.Error("appending code to sheet failed", "sheet", c.sheetName, "error", err)
		return nil, classify(err, c.sheetName, opDirectory)
	}

	if err := c.sleep(ctx, c.settle); err != nil {
		return nil, err
	}

	readRange := rowSpan(c.sheetName, colReadFrom, colReadTo, rowNumber)
	values, err := c.api.Get(ctx, c.spreadsheetID, readRange)
	if err != nil {
		logger.Error("reading directory row failed", "range", readRange, "error", err)
		return nil, classify(err, c.sheetName, opDirectory)
	}

	row := &domain.DirectoryRow{RowNumber: rowNumber, SheetName: c.sheetName}
	if len(values) == 0 || len(values[0]) == 0 {
		logger.Warn("could not read back values from new row, proceeding", "range", readRange)
		return row, nil
	}

	fields := values[0]
	row.Name = field(fields, 0)
	row.ContactID = field(fields, 1)
	row.MessageTemplate = field(fields, 2)
	return row, nil
}

func field(values []string, i int) string {
	if i < len(values) {
		return strings.TrimSpace(values[i])
	}
	return ""
}

// UpdateResult writes the delivery text and status for outcome into F:G of
// rowNumber. Failures are logged and never returned.
func (c *Client) UpdateResult(ctx context.Context, rowNumber int, outcome *domain.NotificationOutcome) {
	if rowNumber <= 0 {
		logger.Error("invalid row number for delivery status", "row", rowNumber)
		return
	}
	if c.spreadsheetID == "" {
		logger.Error("GOOGLE_SPREADSHEET_ID is not set, skipping delivery status", "row", rowNumber)
		return
	}

	text, status := StatusText(outcome)
	rng := rowSpan(c.sheetName, colResult, colStatus, rowNumber)
	if err := c.api.Update(ctx, c.spreadsheetID, rng, [][]string{{text, status}}); err != nil {
		logger.Error("updating delivery status in sheet failed", "range", rng, "error", err)
	}
}

// WriteToSheet writes each non-empty value of target into its column of the
// next free row. The first value's column is the key column used to find
// that row.
func (c *Client) WriteToSheet(ctx context.Context, target domain.PersonalSheetTarget) error {
	if len(target.Values) == 0 {
		return nil
	}
	if target.SpreadsheetID == "" {
		return missingSpreadsheetID()
	}
	startRow := target.StartRow
	if startRow < 1 {
		startRow = 1
	}
	keyColumn := strings.ToUpper(strings.TrimSpace(target.Values[0].Column))
	if keyColumn == "" {
		keyColumn = colCode
	}

	var cells []domain.ColumnValue
	for _, v := range target.Values {
		col := strings.ToUpper(strings.TrimSpace(v.Column))
		if col == "" || v.Value == "" {
			continue
		}
		cells = append(cells, domain.ColumnValue{Value: v.Value, Column: col})
	}
	if len(cells) == 0 {
		return nil
	}

	_, err := c.writeNextRow(ctx, target.SpreadsheetID, target.SheetName, startRow, keyColumn, func(row int) error {
		data := make([]RangeValues, 0, len(cells))
		for _, v := range cells {
			data = append(data, RangeValues{Range: cell(target.SheetName, v.Column, row), Values: [][]string{{v.Value}}})
		}
		return c.api.BatchUpdate(ctx, target.SpreadsheetID, data)
	})
	if err != nil {
		logger.Error("writing to personal sheet failed", "sheet", target.SheetName, "error", err)
		return classify(err, target.SheetName, opPersonal)
	}
	return nil
}

// writeNextRow counts the key column from startRow, computes the next free
// row and calls write with it. With a RowLocker the count and the write run
// under one lock.
func (c *Client) writeNextRow(ctx context.Context, spreadsheetID, sheet string, startRow int, keyColumn string, write func(row int) error) (int, error) {
	var row int
	section := func() error {
		values, err := c.api.Get(ctx, spreadsheetID, columnFrom(sheet, keyColumn, startRow))
		if err != nil {
			return err
		}
		row = NextRow(startRow, len(values))
		return write(row)
	}

	if c.locker == nil {
		return row, section()
	}

	key := fmt.Sprintf("sheet-row:%s:%s", spreadsheetID, sheet)
	err := distlock.Hold(ctx, c.locker(key), lockWait, lockPoll, section)
	if errors.Is(err, distlock.ErrNotAcquired) {
		return 0, ErrRowLockBusy
	}
	return row, err
}
