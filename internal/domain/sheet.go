package domain

import "strings"

// DirectoryRow is the spreadsheet row written for one scan. RowNumber is
// computed once and reused for the later status patch.
type DirectoryRow struct {
	RowNumber       int    `json:"rowNumber"`
	SheetName       string `json:"sheetName"`
	Name            string `json:"name"`
	ContactID       string `json:"contactId"`
	MessageTemplate string `json:"messageTemplate"`
}

// Registered reports whether the row resolved to a known bearer.
func (r *DirectoryRow) Registered() bool {
	return r != nil && strings.TrimSpace(r.Name) != ""
}

// CanNotify reports whether both a contact id and a message are present.
func (r *DirectoryRow) CanNotify() bool {
	return r != nil && r.ContactID != "" && r.MessageTemplate != ""
}

// ColumnValue is one value destined for a lettered column.
type ColumnValue struct {
	Value  string `json:"value"`
	Column string `json:"column"`
}

// PersonalSheetTarget is a caller-configured sheet that receives column
// values in its next free row.
type PersonalSheetTarget struct {
	SpreadsheetID string        `json:"spreadsheetId"`
	SheetName     string        `json:"sheetName"`
	StartRow      int           `json:"startRow"`
	Values        []ColumnValue `json:"valuesToInsert"`
}
