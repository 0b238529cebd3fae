package ledger

import (
	"database/sql"
	_ "embed"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schema string

// SQLiteLedger keeps one attendance table as the single source of truth.
// Per-name ids are derived with a window function instead of a second store,
// so the two scopes of an event can never diverge. The database assigns
// global ids, which removes the read-then-write id race of the flat files.
type SQLiteLedger struct {
	db         *sql.DB
	exportsDir string
}

// NewSQLiteLedger opens (or creates) the database at dbPath. Exports are
// rendered into exportsDir on demand.
func NewSQLiteLedger(dbPath, exportsDir string) (*SQLiteLedger, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &SQLiteLedger{db: db, exportsDir: exportsDir}, nil
}

// Append inserts the event and returns the record with its global id.
func (l *SQLiteLedger) Append(rec Record) (Record, error) {
	res, err := l.db.Exec(
		"INSERT INTO attendance (event_id, name, date, time, image_path) VALUES (?, ?, ?, ?, ?)",
		uuid.New().String(), rec.Name, rec.Date, rec.Time, rec.ImagePath,
	)
	if err != nil {
		return Record{}, fmt.Errorf("insert attendance: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Record{}, fmt.Errorf("read inserted id: %w", err)
	}
	rec.ID = int(id)
	return rec, nil
}

// Query returns filtered records newest first.
func (l *SQLiteLedger) Query(f Filter) ([]Record, error) {
	q := "SELECT id, name, date, time, image_path FROM attendance WHERE 1=1"
	var params []any
	if f.Name != "" {
		q += " AND name = ?"
		params = append(params, f.Name)
	}
	if f.DateFrom != "" {
		q += " AND date >= ?"
		params = append(params, f.DateFrom)
	}
	if f.DateTo != "" {
		q += " AND date <= ?"
		params = append(params, f.DateTo)
	}
	q += " ORDER BY id DESC"
	if f.Limit > 0 {
		q += " LIMIT ?"
		params = append(params, f.Limit)
	}
	return l.scanRecords(q, params...)
}

// QueryByName returns one name's records with per-name ids derived from the
// global sequence, newest first.
func (l *SQLiteLedger) QueryByName(name string) ([]Record, error) {
	q := `SELECT per_id, name, date, time, image_path FROM (
		SELECT id,
		       ROW_NUMBER() OVER (PARTITION BY name ORDER BY id) AS per_id,
		       name, date, time, image_path
		FROM attendance
	) WHERE name = ? ORDER BY id DESC`
	return l.scanRecords(q, name)
}

// Names lists the distinct names with at least one record.
func (l *SQLiteLedger) Names() ([]string, error) {
	rows, err := l.db.Query("SELECT DISTINCT name FROM attendance ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("query names: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan name: %w", err)
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// ExportCSV renders the global ledger into the exports directory in the flat
// `id,name,date,time,image_path` format, oldest first.
func (l *SQLiteLedger) ExportCSV() (string, error) {
	records, err := l.scanRecords("SELECT id, name, date, time, image_path FROM attendance ORDER BY id")
	if err != nil {
		return "", err
	}
	if len(records) == 0 {
		return "", ErrNotFound
	}

	if err := os.MkdirAll(l.exportsDir, 0o755); err != nil {
		return "", fmt.Errorf("creating exports directory: %w", err)
	}
	path := filepath.Join(l.exportsDir, "attendance.csv")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return "", fmt.Errorf("creating export file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return "", fmt.Errorf("writing export header: %w", err)
	}
	for _, r := range records {
		if err := w.Write([]string{
			strconv.Itoa(r.ID), r.Name, r.Date, r.Time, r.ImagePath,
		}); err != nil {
			return "", fmt.Errorf("writing export row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return path, nil
}

// Close closes the database connection.
func (l *SQLiteLedger) Close() error { return l.db.Close() }

func (l *SQLiteLedger) scanRecords(q string, params ...any) ([]Record, error) {
	rows, err := l.db.Query(q, params...)
	if err != nil {
		return nil, fmt.Errorf("query attendance: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		var imagePath sql.NullString
		if err := rows.Scan(&r.ID, &r.Name, &r.Date, &r.Time, &imagePath); err != nil {
			return nil, fmt.Errorf("scan attendance row: %w", err)
		}
		r.ImagePath = imagePath.String
		out = append(out, r)
	}
	return out, rows.Err()
}
