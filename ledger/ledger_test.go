package ledger

import (
	"context"
	"fmt"
	"testing"

	"pov-pipeline/types"
)

// memTable is an in-memory Table for tests. It mirrors the spreadsheet's
// shape: row 1 is the header, data rows follow.
type memTable struct {
	rows    [][]string
	failAll bool
}

func (m *memTable) Values(ctx context.Context) ([][]string, error) {
	if m.failAll {
		return nil, fmt.Errorf("backend down")
	}
	out := make([][]string, len(m.rows))
	for i, r := range m.rows {
		out[i] = append([]string(nil), r...)
	}
	return out, nil
}

func (m *memTable) Update(ctx context.Context, row, col int, values [][]string) (int, error) {
	if m.failAll {
		return 0, fmt.Errorf("backend down")
	}
	updated := 0
	for i, vals := range values {
		r := row - 1 + i
		for len(m.rows) <= r {
			m.rows = append(m.rows, nil)
		}
		for j, v := range vals {
			c := col + j
			for len(m.rows[r]) <= c {
				m.rows[r] = append(m.rows[r], "")
			}
			m.rows[r][c] = v
			updated++
		}
	}
	return updated, nil
}

func (m *memTable) Append(ctx context.Context, rows [][]string) (int, error) {
	if m.failAll {
		return 0, fmt.Errorf("backend down")
	}
	m.rows = append(m.rows, rows...)
	return len(rows), nil
}

func seededTable() *memTable {
	return &memTable{rows: [][]string{
		{"ID", "Idea", "Hashtag", "Caption", "Production", "Environment_Prompt", "Status_Publishing", "VIDEO_URL", "link-youtube"},
		{"3", "POV: you wake up on a train", "#pov", "morning", "for production", "old sleeper train", "pending", "", ""},
		{"7", "POV: last day of summer", "#summer", "golden hour", "done", "beach at dusk", "For Publishing", "http://v/7", ""},
		{"5", "POV: night market", "#food", "street eats", "FOR PRODUCTION", "neon market", "pending", "", ""},
	}}
}

func TestReadRowsCaseInsensitive(t *testing.T) {
	l := New(seededTable())
	ctx := context.Background()

	items := l.ReadRows(ctx, ColProduction, types.StatusForProduction)
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if items[0].ID != 3 || items[1].ID != 5 {
		t.Errorf("row order not preserved: %d, %d", items[0].ID, items[1].ID)
	}

	pub := l.ReadRows(ctx, ColPublishing, types.StatusForPublishing)
	if len(pub) != 1 || pub[0].ID != 7 {
		t.Errorf("publishing match failed: %+v", pub)
	}
}

func TestReadRowsIsIdempotent(t *testing.T) {
	l := New(seededTable())
	ctx := context.Background()

	first := l.ReadRows(ctx, ColProduction, types.StatusForProduction)
	second := l.ReadRows(ctx, ColProduction, types.StatusForProduction)
	if len(first) != len(second) {
		t.Errorf("reads disagree: %d then %d", len(first), len(second))
	}
}

func TestDequeueFirstIsFIFO(t *testing.T) {
	l := New(seededTable())

	item, ok := l.DequeueFirst(context.Background(), ColProduction, types.StatusForProduction)
	if !ok {
		t.Fatal("expected an item")
	}
	if item.ID != 3 {
		t.Errorf("got item %d, want the topmost match 3", item.ID)
	}
}

func TestDequeueFirstEmpty(t *testing.T) {
	l := New(&memTable{rows: [][]string{{"ID", "Idea"}}})
	if _, ok := l.DequeueFirst(context.Background(), ColProduction, types.StatusForProduction); ok {
		t.Error("header-only sheet should dequeue nothing")
	}
}

func TestNextID(t *testing.T) {
	l := New(seededTable())
	if got := l.NextID(context.Background()); got != 8 {
		t.Errorf("NextID = %d, want 8 (max 7 + 1)", got)
	}

	empty := New(&memTable{})
	if got := empty.NextID(context.Background()); got != 1 {
		t.Errorf("NextID on empty sheet = %d, want 1", got)
	}
}

func TestAppendRowsAssignsSequentialIDs(t *testing.T) {
	table := seededTable()
	l := New(table)

	items := []types.WorkItem{
		{Idea: "POV: a", Production: types.StatusForProduction, StatusPublishing: types.StatusPending},
		{Idea: "POV: b", Production: types.StatusForProduction, StatusPublishing: types.StatusPending},
		{Idea: "POV: c", Production: types.StatusForProduction, StatusPublishing: types.StatusPending},
	}
	if n := l.AppendRows(context.Background(), items); n != 3 {
		t.Fatalf("appended %d rows, want 3", n)
	}
	if items[0].ID != 8 || items[1].ID != 9 || items[2].ID != 10 {
		t.Errorf("IDs = %d,%d,%d, want 8,9,10", items[0].ID, items[1].ID, items[2].ID)
	}

	got, ok := l.FindByID(context.Background(), 9)
	if !ok || got.Idea != "POV: b" {
		t.Errorf("FindByID(9) = %+v, ok=%v", got, ok)
	}
}

func TestAppendRowsEmptySheetWritesHeader(t *testing.T) {
	table := &memTable{}
	l := New(table)

	n := l.AppendRows(context.Background(), []types.WorkItem{{Idea: "POV: first"}})
	if n != 1 {
		t.Fatalf("appended %d rows, want 1", n)
	}
	if len(table.rows) < 2 {
		t.Fatalf("expected header plus one row, got %d rows", len(table.rows))
	}
	if columnIndex(table.rows[0], ColID) < 0 {
		t.Error("header row missing ID column")
	}
	item, ok := l.FindByID(context.Background(), 1)
	if !ok || item.Idea != "POV: first" {
		t.Errorf("first item not readable back: %+v ok=%v", item, ok)
	}
}

func TestAppendRowsAddsMissingColumns(t *testing.T) {
	table := &memTable{rows: [][]string{
		{"ID", "Idea"},
		{"1", "POV: existing"},
	}}
	l := New(table)

	if n := l.AppendRows(context.Background(), []types.WorkItem{{Idea: "POV: new", Caption: "cap"}}); n != 1 {
		t.Fatal("append failed")
	}
	if columnIndex(table.rows[0], ColCaption) < 0 {
		t.Error("Caption column not added to header")
	}
	item, ok := l.FindByID(context.Background(), 2)
	if !ok || item.Caption != "cap" {
		t.Errorf("caption not written: %+v", item)
	}
}

func TestUpdateCellByID(t *testing.T) {
	table := seededTable()
	l := New(table)

	ok := l.UpdateCell(context.Background(), RowRef{ID: 5}, ColVideoURL, "http://v/5")
	if !ok {
		t.Fatal("update failed")
	}
	item, _ := l.FindByID(context.Background(), 5)
	if item.VideoURL != "http://v/5" {
		t.Errorf("VideoURL = %q", item.VideoURL)
	}
}

func TestUpdateCellByStatus(t *testing.T) {
	l := New(seededTable())

	ref := RowRef{StatusColumn: ColPublishing, StatusValue: types.StatusForPublishing}
	if !l.UpdateCell(context.Background(), ref, ColYouTube, "http://yt/7") {
		t.Fatal("update failed")
	}
	item, _ := l.FindByID(context.Background(), 7)
	if item.YouTubeLink != "http://yt/7" {
		t.Errorf("YouTubeLink = %q", item.YouTubeLink)
	}
}

func TestUpdateCellAddsMissingColumn(t *testing.T) {
	table := &memTable{rows: [][]string{
		{"ID", "Idea"},
		{"1", "POV: only"},
	}}
	l := New(table)

	if !l.UpdateCell(context.Background(), RowRef{ID: 1}, ColYouTube, "http://yt/1") {
		t.Fatal("update failed")
	}
	if columnIndex(table.rows[0], ColYouTube) < 0 {
		t.Error("missing column not appended to header")
	}
}

func TestUpdateCellRowNotFound(t *testing.T) {
	l := New(seededTable())
	if l.UpdateCell(context.Background(), RowRef{ID: 99}, ColVideoURL, "x") {
		t.Error("update against a missing row should report false")
	}
}

func TestBackendFailureDegrades(t *testing.T) {
	l := New(&memTable{failAll: true})
	ctx := context.Background()

	if items := l.ReadRows(ctx, ColProduction, types.StatusForProduction); items != nil {
		t.Error("ReadRows should degrade to nil on backend failure")
	}
	if _, ok := l.DequeueFirst(ctx, ColProduction, types.StatusForProduction); ok {
		t.Error("DequeueFirst should degrade to false")
	}
	if n := l.AppendRows(ctx, []types.WorkItem{{Idea: "x"}}); n != 0 {
		t.Error("AppendRows should degrade to 0")
	}
	if l.UpdateCell(ctx, RowRef{ID: 1}, ColVideoURL, "x") {
		t.Error("UpdateCell should degrade to false")
	}
}

func TestColumnHeaderTolerance(t *testing.T) {
	headers := []string{"id", "Status Publishing", "LINK-YOUTUBE"}
	if columnIndex(headers, ColID) != 0 {
		t.Error("lowercase header not matched")
	}
	if columnIndex(headers, ColPublishing) != 1 {
		t.Error("space variant not matched")
	}
	if columnIndex(headers, ColYouTube) != 2 {
		t.Error("uppercase header not matched")
	}
}
