package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/kozaktomas/facegate/internal/attendance"
)

// RecognizeHandler runs the recognition pipeline on uploaded snapshots.
type RecognizeHandler struct {
	service *attendance.Service
}

// NewRecognizeHandler creates the recognition handler.
func NewRecognizeHandler(svc *attendance.Service) *RecognizeHandler {
	return &RecognizeHandler{service: svc}
}

// detectionEntry is the per-face response shape. The bounding box fields are
// flattened for compatibility with existing clients.
type detectionEntry struct {
	Status     string    `json:"status"`
	Name       string    `json:"name,omitempty"`
	Confidence float64   `json:"confidence,omitempty"`
	Top        int       `json:"top"`
	Right      int       `json:"right"`
	Bottom     int       `json:"bottom"`
	Left       int       `json:"left"`
	Logged     bool      `json:"logged"`
	Error      string    `json:"error,omitempty"`
	Descriptor []float64 `json:"descriptor,omitempty"`
}

// Recognize handles POST /api/recognize: one probe image in, one entry per
// detected face out.
func (h *RecognizeHandler) Recognize(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]any{
			"success": false, "message": "No image uploaded.",
		})
		return
	}
	file, _, err := r.FormFile("image")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]any{
			"success": false, "message": "No image uploaded.",
		})
		return
	}
	defer file.Close()

	imageData, err := io.ReadAll(file)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]any{
			"success": false, "message": "No image uploaded.",
		})
		return
	}

	result, err := h.service.Recognize(r.Context(), imageData)
	if err != nil {
		if errors.Is(err, attendance.ErrNoFaceDetected) {
			respondJSON(w, http.StatusBadRequest, map[string]any{
				"success": false, "message": "No face detected.",
			})
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	detections := make([]detectionEntry, 0, len(result.Faces))
	for _, f := range result.Faces {
		detections = append(detections, detectionEntry{
			Status:     f.Status,
			Name:       f.Name,
			Confidence: f.Confidence,
			Top:        f.Box.Top,
			Right:      f.Box.Right,
			Bottom:     f.Box.Bottom,
			Left:       f.Box.Left,
			Logged:     f.Logged,
			Error:      f.Error,
			Descriptor: f.Descriptor,
		})
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"detections": detections,
	})
}
