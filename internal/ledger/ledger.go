// Package ledger stores append-only attendance records. Two scopes of the
// same logical event are maintained: a global ledger and a per-name ledger,
// each with its own 1-based id sequence.
package ledger

import (
	"errors"
	"time"
)

// ErrNotFound is returned when an export is requested before any record exists.
var ErrNotFound = errors.New("ledger: no attendance data")

// Record is one logged attendance event. Date and Time are local civil
// strings so the on-disk format stays human-readable and stable.
type Record struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Date      string `json:"date"` // YYYY-MM-DD
	Time      string `json:"time"` // HH:MM:SS
	ImagePath string `json:"image_path"`
}

// Filter narrows a ledger query. Zero values mean "no constraint".
// Date bounds are inclusive and compare lexically (ISO dates sort correctly).
type Filter struct {
	Name     string
	DateFrom string
	DateTo   string
	Limit    int
}

// Ledger is the attendance store. Append assigns the record's global id;
// queries return records newest first.
type Ledger interface {
	Append(rec Record) (Record, error)
	Query(f Filter) ([]Record, error)
	// QueryByName returns one name's records with per-name ids.
	QueryByName(name string) ([]Record, error)
	// Names lists every name with at least one record.
	Names() ([]string, error)
	// ExportCSV returns the path of a CSV file with all global records,
	// or ErrNotFound when nothing has been logged yet.
	ExportCSV() (string, error)
	Close() error
}

// DateFormat and TimeFormat are the civil layouts used across the ledgers.
const (
	DateFormat = "2006-01-02"
	TimeFormat = "15:04:05"
)

// NewRecord builds an unsaved record stamped with the given local time.
func NewRecord(name string, now time.Time, imagePath string) Record {
	return Record{
		Name:      name,
		Date:      now.Format(DateFormat),
		Time:      now.Format(TimeFormat),
		ImagePath: imagePath,
	}
}

// header is the CSV schema shared by the global and per-name files.
var header = []string{"id", "name", "date", "time", "image_path"}
