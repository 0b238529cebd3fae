package handlers

import (
	"errors"
	"net/http"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/facegate/internal/ledger"
	"github.com/kozaktomas/facegate/internal/names"
)

// AttendanceHandler serves ledger reads and exports.
type AttendanceHandler struct {
	ledger  ledger.Ledger
	gallery GalleryNames
}

// GalleryNames is the slice of the gallery the attendance endpoints need.
type GalleryNames interface {
	Names() []string
}

// NewAttendanceHandler creates the attendance read handler.
func NewAttendanceHandler(l ledger.Ledger, g GalleryNames) *AttendanceHandler {
	return &AttendanceHandler{ledger: l, gallery: g}
}

// List handles GET /api/attendance with optional name/from/to/limit query
// filters over the global ledger.
func (h *AttendanceHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ledger.Filter{
		Name:     q.Get("name"),
		DateFrom: q.Get("from"),
		DateTo:   q.Get("to"),
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = n
	}

	records, err := h.ledger.Query(filter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"attendance": recordsOrEmpty(records),
	})
}

// ByName handles GET /api/attendance/{name}. The lookup tolerates case and
// diacritic differences against the recorded names.
func (h *AttendanceHandler) ByName(w http.ResponseWriter, r *http.Request) {
	requested := chi.URLParam(r, "name")

	canonical := requested
	if known, err := h.ledger.Names(); err == nil {
		for _, n := range known {
			if names.Equal(n, requested) {
				canonical = n
				break
			}
		}
	}

	records, err := h.ledger.QueryByName(canonical)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"attendance": recordsOrEmpty(records),
	})
}

// Users handles GET /api/users: the sorted union of enrolled names and names
// with ledger history.
func (h *AttendanceHandler) Users(w http.ResponseWriter, r *http.Request) {
	set := map[string]struct{}{}
	for _, n := range h.gallery.Names() {
		set[n] = struct{}{}
	}
	if logged, err := h.ledger.Names(); err == nil {
		for _, n := range logged {
			set[n] = struct{}{}
		}
	}

	users := make([]string, 0, len(set))
	for n := range set {
		users = append(users, n)
	}
	sort.Strings(users)

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"users":   users,
	})
}

// Export handles GET /export: the global ledger as a CSV download.
func (h *AttendanceHandler) Export(w http.ResponseWriter, r *http.Request) {
	path, err := h.ledger.ExportCSV()
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			respondError(w, http.StatusNotFound, "No attendance data found.")
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="attendance.csv"`)
	http.ServeFile(w, r, path)
}

// recordsOrEmpty keeps the JSON array present even with zero records.
func recordsOrEmpty(records []ledger.Record) []ledger.Record {
	if records == nil {
		return []ledger.Record{}
	}
	return records
}
