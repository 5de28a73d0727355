package ledger

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsTable is the Google Sheets implementation of Table, reading and
// writing a fixed range on a named worksheet.
type SheetsTable struct {
	svc           *sheets.Service
	spreadsheetID string
	sheetName     string
	dataRange     string
}

// NewSheetsTable authenticates with a service-account credentials file and
// binds to one worksheet of one spreadsheet.
func NewSheetsTable(ctx context.Context, credentialsFile, spreadsheetID, sheetName, dataRange string) (*SheetsTable, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet ID not set")
	}
	svc, err := sheets.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &SheetsTable{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		dataRange:     dataRange,
	}, nil
}

func (t *SheetsTable) fullRange() string {
	return fmt.Sprintf("%s!%s", t.sheetName, t.dataRange)
}

// columnLetter converts a 0-based column index to its A1 letter(s).
func columnLetter(col int) string {
	letters := ""
	for col >= 0 {
		letters = string(rune('A'+col%26)) + letters
		col = col/26 - 1
	}
	return letters
}

func (t *SheetsTable) Values(ctx context.Context) ([][]string, error) {
	resp, err := t.svc.Spreadsheets.Values.Get(t.spreadsheetID, t.fullRange()).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get values %s: %w", t.fullRange(), err)
	}
	rows := make([][]string, 0, len(resp.Values))
	for _, raw := range resp.Values {
		row := make([]string, 0, len(raw))
		for _, v := range raw {
			row = append(row, fmt.Sprint(v))
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (t *SheetsTable) Update(ctx context.Context, row, col int, values [][]string) (int, error) {
	rangeA1 := fmt.Sprintf("%s!%s%d", t.sheetName, columnLetter(col), row)
	body := &sheets.ValueRange{Values: toInterface(values)}
	resp, err := t.svc.Spreadsheets.Values.Update(t.spreadsheetID, rangeA1, body).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("update %s: %w", rangeA1, err)
	}
	return int(resp.UpdatedCells), nil
}

func (t *SheetsTable) Append(ctx context.Context, rows [][]string) (int, error) {
	body := &sheets.ValueRange{Values: toInterface(rows)}
	resp, err := t.svc.Spreadsheets.Values.Append(t.spreadsheetID, t.fullRange(), body).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("append to %s: %w", t.fullRange(), err)
	}
	if resp.Updates == nil {
		return 0, nil
	}
	return int(resp.Updates.UpdatedRows), nil
}

func toInterface(rows [][]string) [][]interface{} {
	out := make([][]interface{}, len(rows))
	for i, row := range rows {
		out[i] = make([]interface{}, len(row))
		for j, v := range row {
			out[i][j] = v
		}
	}
	return out
}
