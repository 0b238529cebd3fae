package ledger

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestCSVLedger(t *testing.T) (*CSVLedger, string) {
	t.Helper()
	dir := t.TempDir()
	l, err := NewCSVLedger(filepath.Join(dir, "attendance.csv"), filepath.Join(dir, "attendance_users"))
	if err != nil {
		t.Fatalf("NewCSVLedger() error: %v", err)
	}
	return l, dir
}

func mustAppend(t *testing.T, l Ledger, name string) Record {
	t.Helper()
	rec, err := l.Append(NewRecord(name, time.Date(2026, 9, 1, 9, 30, 0, 0, time.Local), "uploads/x.jpg"))
	if err != nil {
		t.Fatalf("Append(%s) error: %v", name, err)
	}
	return rec
}

func TestCSVAppendAllocatesSequentialIDs(t *testing.T) {
	l, _ := newTestCSVLedger(t)

	for i := 1; i <= 5; i++ {
		rec := mustAppend(t, l, "alice")
		if rec.ID != i {
			t.Errorf("append %d: global id = %d, want %d", i, rec.ID, i)
		}
	}

	// Global ids keep counting across names; per-name ids restart.
	rec := mustAppend(t, l, "bob")
	if rec.ID != 6 {
		t.Errorf("bob global id = %d, want 6", rec.ID)
	}
	bobs, err := l.QueryByName("bob")
	if err != nil {
		t.Fatalf("QueryByName() error: %v", err)
	}
	if len(bobs) != 1 || bobs[0].ID != 1 {
		t.Errorf("bob per-name records = %+v, want single id 1", bobs)
	}
}

func TestCSVScopesNeverDiverge(t *testing.T) {
	l, _ := newTestCSVLedger(t)
	for i := 0; i < 3; i++ {
		mustAppend(t, l, "alice")
	}
	global, err := l.Query(Filter{Name: "alice"})
	if err != nil {
		t.Fatalf("Query() error: %v", err)
	}
	perName, err := l.QueryByName("alice")
	if err != nil {
		t.Fatalf("QueryByName() error: %v", err)
	}
	if len(global) != len(perName) {
		t.Errorf("global scope has %d records, per-name has %d", len(global), len(perName))
	}
}

func TestCSVNextIDSkipsJunkRows(t *testing.T) {
	l, dir := newTestCSVLedger(t)
	path := filepath.Join(dir, "attendance.csv")
	body := "id,name,date,time,image_path\n" +
		"1,alice,2026-09-01,09:00:00,a.jpg\n" +
		"oops,bob,2026-09-01,09:01:00,b.jpg\n" +
		"7,carol,2026-09-01,09:02:00,c.jpg\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("seeding file: %v", err)
	}

	if got := l.NextID(path); got != 8 {
		t.Errorf("NextID = %d, want 8 (max numeric id + 1)", got)
	}

	records, err := l.Query(Filter{})
	if err != nil {
		t.Fatalf("Query() error: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("got %d records, want 2 (junk row skipped)", len(records))
	}
}

func TestCSVNextIDMissingFile(t *testing.T) {
	l, dir := newTestCSVLedger(t)
	if got := l.NextID(filepath.Join(dir, "nope.csv")); got != 1 {
		t.Errorf("NextID for missing file = %d, want 1", got)
	}
}

func TestCSVQueryOrderAndIdempotence(t *testing.T) {
	l, _ := newTestCSVLedger(t)
	mustAppend(t, l, "alice")
	mustAppend(t, l, "bob")
	mustAppend(t, l, "alice")

	first, err := l.Query(Filter{})
	if err != nil {
		t.Fatalf("Query() error: %v", err)
	}
	if len(first) != 3 {
		t.Fatalf("got %d records, want 3", len(first))
	}
	// Newest first.
	if first[0].ID != 3 || first[2].ID != 1 {
		t.Errorf("order = %d,%d,%d, want 3,2,1", first[0].ID, first[1].ID, first[2].ID)
	}

	second, err := l.Query(Filter{})
	if err != nil {
		t.Fatalf("Query() error: %v", err)
	}
	if len(second) != len(first) {
		t.Error("repeated query must return the same records")
	}
}

func TestCSVQueryFilters(t *testing.T) {
	l, _ := newTestCSVLedger(t)
	days := []string{"2026-08-30", "2026-08-31", "2026-09-01"}
	for i, day := range days {
		ts, _ := time.ParseInLocation(DateFormat+" "+TimeFormat, day+" 08:00:00", time.Local)
		name := "alice"
		if i == 1 {
			name = "bob"
		}
		if _, err := l.Append(NewRecord(name, ts, "")); err != nil {
			t.Fatal(err)
		}
	}

	byName, err := l.Query(Filter{Name: "bob"})
	if err != nil {
		t.Fatal(err)
	}
	if len(byName) != 1 || byName[0].Date != "2026-08-31" {
		t.Errorf("name filter = %+v", byName)
	}

	ranged, err := l.Query(Filter{DateFrom: "2026-08-31", DateTo: "2026-09-01"})
	if err != nil {
		t.Fatal(err)
	}
	if len(ranged) != 2 {
		t.Errorf("date range returned %d records, want 2", len(ranged))
	}

	limited, err := l.Query(Filter{Limit: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 || limited[0].ID != 3 {
		t.Errorf("limit filter = %+v, want newest record only", limited)
	}
}

func TestCSVNames(t *testing.T) {
	l, _ := newTestCSVLedger(t)
	mustAppend(t, l, "alice")
	mustAppend(t, l, "bob")
	mustAppend(t, l, "alice")

	got, err := l.Names()
	if err != nil {
		t.Fatalf("Names() error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("names = %v, want 2 entries", got)
	}
	joined := strings.Join(got, ",")
	if !strings.Contains(joined, "alice") || !strings.Contains(joined, "bob") {
		t.Errorf("names = %v", got)
	}
}

func TestCSVExport(t *testing.T) {
	l, _ := newTestCSVLedger(t)
	mustAppend(t, l, "alice")

	path, err := l.ExportCSV()
	if err != nil {
		t.Fatalf("ExportCSV() error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}
	if !strings.HasPrefix(string(data), "id,name,date,time,image_path\n") {
		t.Errorf("export missing header: %q", string(data))
	}
	if !strings.Contains(string(data), "1,alice,2026-09-01,09:30:00") {
		t.Errorf("export missing record: %q", string(data))
	}
}

func TestCSVExportMissing(t *testing.T) {
	l, dir := newTestCSVLedger(t)
	if err := os.Remove(filepath.Join(dir, "attendance.csv")); err != nil {
		t.Fatalf("removing ledger file: %v", err)
	}
	if _, err := l.ExportCSV(); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestCSVConcurrentAppendsSameName(t *testing.T) {
	l, _ := newTestCSVLedger(t)

	const n = 20
	done := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			_, err := l.Append(NewRecord("alice", time.Now(), ""))
			done <- err
		}()
	}
	for i := 0; i < n; i++ {
		if err := <-done; err != nil {
			t.Fatalf("concurrent append error: %v", err)
		}
	}

	records, err := l.QueryByName("alice")
	if err != nil {
		t.Fatalf("QueryByName() error: %v", err)
	}
	if len(records) != n {
		t.Fatalf("got %d records, want %d", len(records), n)
	}
	seen := map[int]bool{}
	for _, r := range records {
		if seen[r.ID] {
			t.Fatalf("duplicate per-name id %d", r.ID)
		}
		seen[r.ID] = true
	}
	for i := 1; i <= n; i++ {
		if !seen[i] {
			t.Errorf("missing per-name id %d", i)
		}
	}
}
