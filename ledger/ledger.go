// Package ledger wraps the external spreadsheet that tracks work items
// through production and publishing. The spreadsheet is hand-edited and
// shared, so every operation tolerates missing data: failures degrade to
// empty results or false, with a log line, and never crash the pipeline.
package ledger

import (
	"context"
	"log"
	"strconv"
	"strings"

	"pov-pipeline/types"
)

// Canonical column headers. Matching against the sheet is tolerant of
// case and of space/underscore variants ("Status Publishing" vs
// "Status_Publishing"), which both occur in real sheets.
const (
	ColID          = "ID"
	ColIdea        = "Idea"
	ColHashtag     = "Hashtag"
	ColCaption     = "Caption"
	ColProduction  = "Production"
	ColEnvironment = "Environment_Prompt"
	ColPublishing  = "Status_Publishing"
	ColVideoURL    = "VIDEO_URL"
	ColYouTube     = "link-youtube"
)

var defaultHeaders = []string{
	ColID, ColIdea, ColHashtag, ColCaption, ColProduction,
	ColEnvironment, ColPublishing, ColVideoURL, ColYouTube,
}

// Table is the raw rectangular grid behind the ledger. Row numbers are
// 1-based sheet rows; column indexes are 0-based.
type Table interface {
	Values(ctx context.Context) ([][]string, error)
	Update(ctx context.Context, row, col int, values [][]string) (int, error)
	Append(ctx context.Context, rows [][]string) (int, error)
}

// RowRef locates a ledger row: by ID when known, otherwise by the first
// row (top to bottom) whose status column matches StatusValue.
type RowRef struct {
	ID           int
	StatusColumn string
	StatusValue  types.Status
}

// Ledger is the work-item view over a Table.
type Ledger struct {
	table Table
}

func New(table Table) *Ledger {
	return &Ledger{table: table}
}

func normalizeHeader(h string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(h)), " ", "_")
}

// columnIndex finds the 0-based index of name in headers, tolerant of
// case and space/underscore variants. Returns -1 when absent.
func columnIndex(headers []string, name string) int {
	want := normalizeHeader(name)
	for i, h := range headers {
		if normalizeHeader(h) == want {
			return i
		}
	}
	return -1
}

func cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

// itemFromRow maps a raw sheet row onto a WorkItem. Unparseable status
// cells keep their raw value out of the item (logged, defaulted).
func itemFromRow(headers, row []string) types.WorkItem {
	item := types.WorkItem{
		Idea:              cell(row, columnIndex(headers, ColIdea)),
		Hashtag:           cell(row, columnIndex(headers, ColHashtag)),
		Caption:           cell(row, columnIndex(headers, ColCaption)),
		EnvironmentPrompt: cell(row, columnIndex(headers, ColEnvironment)),
		VideoURL:          cell(row, columnIndex(headers, ColVideoURL)),
		YouTubeLink:       cell(row, columnIndex(headers, ColYouTube)),
	}
	if id, err := strconv.Atoi(cell(row, columnIndex(headers, ColID))); err == nil {
		item.ID = id
	}
	if s, err := types.ParseStatus(cell(row, columnIndex(headers, ColProduction))); err == nil {
		item.Production = s
	} else {
		log.Printf("[ledger] row ID %d: %v", item.ID, err)
	}
	if s, err := types.ParseStatus(cell(row, columnIndex(headers, ColPublishing))); err == nil {
		item.StatusPublishing = s
	} else {
		log.Printf("[ledger] row ID %d: %v", item.ID, err)
	}
	return item
}

func itemValue(item types.WorkItem, header string) string {
	switch normalizeHeader(header) {
	case normalizeHeader(ColID):
		return strconv.Itoa(item.ID)
	case normalizeHeader(ColIdea):
		return item.Idea
	case normalizeHeader(ColHashtag):
		return item.Hashtag
	case normalizeHeader(ColCaption):
		return item.Caption
	case normalizeHeader(ColProduction):
		return string(item.Production)
	case normalizeHeader(ColEnvironment):
		return item.EnvironmentPrompt
	case normalizeHeader(ColPublishing):
		return string(item.StatusPublishing)
	case normalizeHeader(ColVideoURL):
		return item.VideoURL
	case normalizeHeader(ColYouTube):
		return item.YouTubeLink
	}
	return ""
}

func (l *Ledger) values(ctx context.Context) [][]string {
	values, err := l.table.Values(ctx)
	if err != nil {
		log.Printf("[ledger] read failed: %v", err)
		return nil
	}
	return values
}

// ReadRows returns every work item whose status column matches status.
// Comparison is case-insensitive for all status columns.
func (l *Ledger) ReadRows(ctx context.Context, column string, status types.Status) []types.WorkItem {
	values := l.values(ctx)
	if len(values) < 2 {
		return nil
	}
	headers := values[0]
	col := columnIndex(headers, column)
	if col < 0 {
		log.Printf("[ledger] column %q not found", column)
		return nil
	}
	var items []types.WorkItem
	for _, row := range values[1:] {
		if status.Equal(cell(row, col)) {
			items = append(items, itemFromRow(headers, row))
		}
	}
	return items
}

// DequeueFirst returns the first row (top to bottom, FIFO by append time)
// matching status. This is the single-item-in-flight policy: each stage
// acts on exactly one item per invocation.
func (l *Ledger) DequeueFirst(ctx context.Context, column string, status types.Status) (types.WorkItem, bool) {
	values := l.values(ctx)
	if len(values) < 2 {
		return types.WorkItem{}, false
	}
	headers := values[0]
	col := columnIndex(headers, column)
	if col < 0 {
		log.Printf("[ledger] column %q not found", column)
		return types.WorkItem{}, false
	}
	for _, row := range values[1:] {
		if status.Equal(cell(row, col)) {
			return itemFromRow(headers, row), true
		}
	}
	return types.WorkItem{}, false
}

// FindByID returns the work item with the given ID.
func (l *Ledger) FindByID(ctx context.Context, id int) (types.WorkItem, bool) {
	values := l.values(ctx)
	if len(values) < 2 {
		return types.WorkItem{}, false
	}
	headers := values[0]
	idCol := columnIndex(headers, ColID)
	for _, row := range values[1:] {
		if cell(row, idCol) == strconv.Itoa(id) {
			return itemFromRow(headers, row), true
		}
	}
	return types.WorkItem{}, false
}

// NextID returns (max numeric ID in the ID column) + 1, starting at 1 for
// an empty or header-only sheet. Non-numeric ID cells are skipped.
func (l *Ledger) NextID(ctx context.Context) int {
	values := l.values(ctx)
	if len(values) < 2 {
		return 1
	}
	idCol := columnIndex(values[0], ColID)
	if idCol < 0 {
		return 1
	}
	maxID := 0
	for _, row := range values[1:] {
		if id, err := strconv.Atoi(cell(row, idCol)); err == nil && id > maxID {
			maxID = id
		}
	}
	return maxID + 1
}

// AppendRows assigns sequential IDs (max existing + 1 onward) to items and
// appends them preserving the sheet's header column order. Missing required
// columns are added to the header first; existing rows are implicitly
// back-filled empty. Returns the number of rows appended.
func (l *Ledger) AppendRows(ctx context.Context, items []types.WorkItem) int {
	if len(items) == 0 {
		log.Printf("[ledger] nothing to append")
		return 0
	}
	values := l.values(ctx)

	headers := defaultHeaders
	if len(values) > 0 && len(values[0]) > 0 {
		headers = values[0]
		for _, required := range defaultHeaders {
			if columnIndex(headers, required) < 0 {
				headers = append(headers, required)
			}
		}
		if len(headers) > len(values[0]) {
			if _, err := l.table.Update(ctx, 1, 0, [][]string{headers}); err != nil {
				log.Printf("[ledger] header update failed: %v", err)
				return 0
			}
		}
	} else {
		if _, err := l.table.Update(ctx, 1, 0, [][]string{headers}); err != nil {
			log.Printf("[ledger] header write failed: %v", err)
			return 0
		}
	}

	nextID := l.NextID(ctx)
	rows := make([][]string, 0, len(items))
	for i := range items {
		items[i].ID = nextID + i
		row := make([]string, len(headers))
		for c, h := range headers {
			row[c] = itemValue(items[i], h)
		}
		rows = append(rows, row)
	}

	appended, err := l.table.Append(ctx, rows)
	if err != nil {
		log.Printf("[ledger] append failed: %v", err)
		return 0
	}
	log.Printf("[ledger] appended %d items with IDs %d..%d", appended, nextID, nextID+len(items)-1)
	return appended
}

// UpdateCell writes a single cell on the row located by ref. Returns false
// (never an error) when the row or column cannot be resolved.
func (l *Ledger) UpdateCell(ctx context.Context, ref RowRef, column, value string) bool {
	values := l.values(ctx)
	if len(values) < 2 {
		log.Printf("[ledger] update %s: no data rows", column)
		return false
	}
	headers := values[0]

	col := columnIndex(headers, column)
	if col < 0 {
		// Append the missing column to the header so the write can land.
		headers = append(headers, column)
		col = len(headers) - 1
		if _, err := l.table.Update(ctx, 1, 0, [][]string{headers}); err != nil {
			log.Printf("[ledger] add column %q failed: %v", column, err)
			return false
		}
	}

	rowNum := l.resolveRow(headers, values[1:], ref)
	if rowNum < 0 {
		log.Printf("[ledger] update %s: row not found (ref %+v)", column, ref)
		return false
	}

	updated, err := l.table.Update(ctx, rowNum, col, [][]string{{value}})
	if err != nil || updated == 0 {
		log.Printf("[ledger] update %s row %d failed: %v", column, rowNum, err)
		return false
	}
	return true
}

// resolveRow returns the 1-based sheet row for ref, or -1. ID wins when
// set; otherwise the first row matching the status predicate is used.
func (l *Ledger) resolveRow(headers []string, dataRows [][]string, ref RowRef) int {
	if ref.ID > 0 {
		idCol := columnIndex(headers, ColID)
		for i, row := range dataRows {
			if cell(row, idCol) == strconv.Itoa(ref.ID) {
				return i + 2 // +1 for header, +1 for 1-based rows
			}
		}
		return -1
	}
	if ref.StatusColumn == "" {
		return -1
	}
	col := columnIndex(headers, ref.StatusColumn)
	if col < 0 {
		return -1
	}
	for i, row := range dataRows {
		if ref.StatusValue.Equal(cell(row, col)) {
			return i + 2
		}
	}
	return -1
}
