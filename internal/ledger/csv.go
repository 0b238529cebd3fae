package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// CSVLedger is the flat-file backend: one global CSV plus one CSV per name,
// all with the header `id,name,date,time,image_path`. The global and per-name
// rows for one event are written inside a single critical section so the two
// scopes cannot diverge in count. Different names only contend on the global
// lock, so recognitions for different people stay mostly independent.
type CSVLedger struct {
	globalPath string
	userDir    string

	globalMu sync.Mutex

	mu        sync.Mutex // guards nameLocks
	nameLocks map[string]*sync.Mutex
}

// NewCSVLedger creates the flat-file backend and initializes the global file
// with its header when it does not exist yet.
func NewCSVLedger(globalPath, userDir string) (*CSVLedger, error) {
	if err := os.MkdirAll(filepath.Dir(globalPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating ledger directory: %w", err)
	}
	if err := os.MkdirAll(userDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating per-user ledger directory: %w", err)
	}
	l := &CSVLedger{
		globalPath: globalPath,
		userDir:    userDir,
		nameLocks:  map[string]*sync.Mutex{},
	}
	if _, err := os.Stat(globalPath); os.IsNotExist(err) {
		if err := writeHeader(globalPath); err != nil {
			return nil, err
		}
	}
	return l, nil
}

func (l *CSVLedger) lockFor(name string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	if m, ok := l.nameLocks[name]; ok {
		return m
	}
	m := &sync.Mutex{}
	l.nameLocks[name] = m
	return m
}

func (l *CSVLedger) userPath(name string) string {
	return filepath.Join(l.userDir, name+".csv")
}

// NextID scans a scope's file and returns max(id)+1, starting at 1 for a
// missing or unreadable scope. Rows with non-numeric ids are skipped.
func (l *CSVLedger) NextID(path string) int {
	f, err := os.Open(path)
	if err != nil {
		return 1
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	maxID := 0
	first := true
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		if first {
			first = false
			continue // header
		}
		if len(row) == 0 {
			continue
		}
		id, err := strconv.Atoi(row[0])
		if err != nil {
			continue
		}
		if id > maxID {
			maxID = id
		}
	}
	return maxID + 1
}

// Append writes the event to both the global and the per-name scope under one
// lock pair, allocating each scope's next id. The returned record carries the
// global id.
func (l *CSVLedger) Append(rec Record) (Record, error) {
	nameMu := l.lockFor(rec.Name)
	nameMu.Lock()
	defer nameMu.Unlock()
	l.globalMu.Lock()
	defer l.globalMu.Unlock()

	globalID := l.NextID(l.globalPath)
	userPath := l.userPath(rec.Name)
	userID := l.NextID(userPath)

	if err := appendRow(l.globalPath, false, Record{
		ID: globalID, Name: rec.Name, Date: rec.Date, Time: rec.Time, ImagePath: rec.ImagePath,
	}); err != nil {
		return Record{}, fmt.Errorf("appending global record: %w", err)
	}

	_, statErr := os.Stat(userPath)
	newFile := os.IsNotExist(statErr)
	if err := appendRow(userPath, newFile, Record{
		ID: userID, Name: rec.Name, Date: rec.Date, Time: rec.Time, ImagePath: rec.ImagePath,
	}); err != nil {
		return Record{}, fmt.Errorf("appending per-user record: %w", err)
	}

	rec.ID = globalID
	return rec, nil
}

// Query reads the global scope, applies the filter and returns records newest
// first (reverse insertion order).
func (l *CSVLedger) Query(f Filter) ([]Record, error) {
	l.globalMu.Lock()
	records, err := readAll(l.globalPath)
	l.globalMu.Unlock()
	if err != nil {
		return nil, err
	}

	out := make([]Record, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		r := records[i]
		if f.Name != "" && r.Name != f.Name {
			continue
		}
		if f.DateFrom != "" && r.Date < f.DateFrom {
			continue
		}
		if f.DateTo != "" && r.Date > f.DateTo {
			continue
		}
		out = append(out, r)
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
	}
	return out, nil
}

// QueryByName reads one name's scope with its per-name ids, newest first.
func (l *CSVLedger) QueryByName(name string) ([]Record, error) {
	nameMu := l.lockFor(name)
	nameMu.Lock()
	records, err := readAll(l.userPath(name))
	nameMu.Unlock()
	if err != nil {
		return nil, err
	}
	// reverse in place
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}

// Names lists the names that have a per-name ledger file.
func (l *CSVLedger) Names() ([]string, error) {
	files, err := os.ReadDir(l.userDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading per-user ledger directory: %w", err)
	}
	var out []string
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(strings.ToLower(f.Name()), ".csv") {
			continue
		}
		out = append(out, strings.TrimSuffix(f.Name(), filepath.Ext(f.Name())))
	}
	return out, nil
}

// ExportCSV serves the global file itself; the on-disk format already is the
// export format.
func (l *CSVLedger) ExportCSV() (string, error) {
	if _, err := os.Stat(l.globalPath); err != nil {
		return "", ErrNotFound
	}
	return l.globalPath, nil
}

// Close is a no-op for the flat-file backend.
func (l *CSVLedger) Close() error { return nil }

func writeHeader(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("creating ledger file: %w", err)
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("writing ledger header: %w", err)
	}
	w.Flush()
	return w.Error()
}

func appendRow(path string, withHeader bool, rec Record) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if withHeader {
		if err := w.Write(header); err != nil {
			return err
		}
	}
	if err := w.Write([]string{
		strconv.Itoa(rec.ID), rec.Name, rec.Date, rec.Time, rec.ImagePath,
	}); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

// readAll parses a scope file leniently: malformed rows and rows with
// non-numeric ids are skipped instead of failing the whole read.
func readAll(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening ledger file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	var out []Record
	first := true
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		if first {
			first = false
			continue
		}
		if len(row) < 5 {
			continue
		}
		id, err := strconv.Atoi(row[0])
		if err != nil {
			continue
		}
		out = append(out, Record{ID: id, Name: row[1], Date: row[2], Time: row[3], ImagePath: row[4]})
	}
	return out, nil
}
