package encoder

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDetectFaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embed/face" {
			http.NotFound(w, r)
			return
		}
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		if _, _, err := r.FormFile("file"); err != nil {
			http.Error(w, "missing file part", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"faces_count": 2,
			"faces": []map[string]any{
				{
					"face_index": 0,
					"embedding":  []float64{0.1, 0.2, 0.3},
					"bbox":       []float64{10.4, 20.6, 110.0, 120.0},
					"det_score":  0.99,
				},
				{
					"face_index": 1,
					"embedding":  []float64{0.4, 0.5, 0.6},
					"bbox":       []float64{200, 30, 300, 130},
					"det_score":  0.87,
				},
			},
			"model": "buffalo_l",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	detections, err := client.DetectFaces(context.Background(), []byte{0xFF, 0xD8, 0xFF, 0xE0, 1, 2, 3, 4})
	if err != nil {
		t.Fatalf("DetectFaces() error: %v", err)
	}
	if len(detections) != 2 {
		t.Fatalf("got %d detections, want 2", len(detections))
	}

	first := detections[0]
	want := BoundingBox{Top: 21, Right: 110, Bottom: 120, Left: 10}
	if first.Box != want {
		t.Errorf("box = %+v, want %+v", first.Box, want)
	}
	if len(first.Descriptor) != 3 || first.Descriptor[0] != 0.1 {
		t.Errorf("descriptor = %v", first.Descriptor)
	}
	if first.Score != 0.99 {
		t.Errorf("score = %v, want 0.99", first.Score)
	}
}

func TestDetectFacesNoFaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"faces_count": 0, "faces": []any{}})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	detections, err := client.DetectFaces(context.Background(), []byte("not really an image"))
	if err != nil {
		t.Fatalf("DetectFaces() error: %v", err)
	}
	if len(detections) != 0 {
		t.Errorf("got %d detections, want 0", len(detections))
	}
}

func TestDetectFacesOracleError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if _, err := client.DetectFaces(context.Background(), []byte("img")); err == nil {
		t.Fatal("expected error from failing oracle")
	}
}

func TestDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"identical", []float64{1, 2, 3}, []float64{1, 2, 3}, 0},
		{"unit apart", []float64{0, 0}, []float64{1, 0}, 1},
		{"pythagorean", []float64{0, 0}, []float64{3, 4}, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Distance(tt.a, tt.b); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Distance(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestDistanceMismatchedLengths(t *testing.T) {
	if got := Distance([]float64{1, 2}, []float64{1, 2, 3}); !math.IsInf(got, 1) {
		t.Errorf("mismatched lengths: got %v, want +Inf", got)
	}
	if got := Distance(nil, nil); !math.IsInf(got, 1) {
		t.Errorf("empty descriptors: got %v, want +Inf", got)
	}
}

func TestDetectMIMEType(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"jpeg", []byte{0xFF, 0xD8, 0xFF, 0xE0, 0, 0, 0, 0}, "image/jpeg"},
		{"png", []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, "image/png"},
		{"gif", []byte("GIF89a**"), "image/gif"},
		{"unknown", []byte("plainold"), "application/octet-stream"},
		{"short", []byte{0xFF}, "application/octet-stream"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := detectMIMEType(tt.data); got != tt.want {
				t.Errorf("detectMIMEType = %q, want %q", got, tt.want)
			}
		})
	}
}
