package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/kozaktomas/facegate/internal/gallery"
)

// RegisterHandler enrolls people in the gallery.
type RegisterHandler struct {
	gallery *gallery.Store
}

// NewRegisterHandler creates the enrollment handler.
func NewRegisterHandler(g *gallery.Store) *RegisterHandler {
	return &RegisterHandler{gallery: g}
}

// descriptorPayload is the JSON enrollment body: a name and a descriptor
// previously surfaced by a recognition of an unknown face.
type descriptorPayload struct {
	Name       string    `json:"name"`
	Descriptor []float64 `json:"descriptor"`
}

// Register handles POST /api/register. It accepts either a multipart form
// with `name` and `image` fields, or a JSON body with a precomputed
// descriptor.
func (h *RegisterHandler) Register(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		h.registerDescriptor(w, r)
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "Name and image required")
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	file, header, err := r.FormFile("image")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Name and image required")
		return
	}
	defer file.Close()

	if name == "" || header.Filename == "" {
		respondError(w, http.StatusBadRequest, "Invalid name or file")
		return
	}

	imageData, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid name or file")
		return
	}

	if err := h.gallery.EnrollImage(r.Context(), name, imageData); err != nil {
		if errors.Is(err, gallery.ErrNoFaceDetected) {
			respondError(w, http.StatusBadRequest, "No face detected in uploaded image.")
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": fmt.Sprintf("Face registered for %s.", name),
	})
}

func (h *RegisterHandler) registerDescriptor(w http.ResponseWriter, r *http.Request) {
	var payload descriptorPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	payload.Name = strings.TrimSpace(payload.Name)
	if payload.Name == "" || len(payload.Descriptor) == 0 {
		respondError(w, http.StatusBadRequest, "name and descriptor required")
		return
	}

	if err := h.gallery.EnrollDescriptor(payload.Name, payload.Descriptor); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": fmt.Sprintf("Face registered for %s.", payload.Name),
	})
}
