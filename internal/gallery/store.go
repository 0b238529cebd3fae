// Package gallery holds the set of enrolled (name, descriptor) pairs that
// probe faces are matched against.
package gallery

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/kozaktomas/facegate/internal/encoder"
	"github.com/kozaktomas/facegate/internal/imaging"
)

// ErrNoFaceDetected is returned when an enrollment image contains no
// detectable face.
var ErrNoFaceDetected = errors.New("no face detected")

// Detector is the subset of the encoding oracle the gallery needs.
type Detector interface {
	DetectFaces(ctx context.Context, imageData []byte) ([]encoder.Detection, error)
}

// Entry is one enrolled person: a unique name and its reference descriptor.
type Entry struct {
	Name       string
	Descriptor []float64
}

// Store is the in-memory gallery, backed by a directory of reference images
// whose file stems are the enrolled names. Re-enrolling a name replaces its
// descriptor (last write wins). Enrollment images are assumed to be
// single-subject; when several faces are present the first detection is used.
type Store struct {
	mu      sync.RWMutex
	entries []Entry

	dir      string
	detector Detector
}

// New creates a gallery store backed by the given reference image directory.
func New(dir string, detector Detector) *Store {
	return &Store{dir: dir, detector: detector}
}

// Load scans the reference directory and builds the gallery. Files in which
// the oracle finds no face are skipped; an empty directory yields a valid,
// empty gallery. Returns the number of entries loaded.
func (s *Store) Load(ctx context.Context) (int, error) {
	files, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading gallery directory: %w", err)
	}

	var entries []Entry
	for _, f := range files {
		if f.IsDir() || !isImageFile(f.Name()) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, f.Name()))
		if err != nil {
			return 0, fmt.Errorf("reading %s: %w", f.Name(), err)
		}
		detections, err := s.detector.DetectFaces(ctx, data)
		if err != nil {
			return 0, fmt.Errorf("encoding %s: %w", f.Name(), err)
		}
		if len(detections) == 0 {
			continue
		}
		name := strings.TrimSuffix(f.Name(), filepath.Ext(f.Name()))
		entries = append(entries, Entry{Name: name, Descriptor: detections[0].Descriptor})
	}

	s.mu.Lock()
	s.entries = entries
	s.mu.Unlock()
	return len(entries), nil
}

// EnrollImage registers a name with a reference image. The image is persisted
// under the gallery directory so the entry survives restarts. Returns
// ErrNoFaceDetected when the oracle finds no face.
func (s *Store) EnrollImage(ctx context.Context, name string, imageData []byte) error {
	detections, err := s.detector.DetectFaces(ctx, imageData)
	if err != nil {
		return fmt.Errorf("encoding enrollment image: %w", err)
	}
	if len(detections) == 0 {
		return ErrNoFaceDetected
	}

	stored, err := imaging.Normalize(imageData, imaging.MaxStoredSize)
	if err != nil {
		return fmt.Errorf("preparing reference image: %w", err)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating gallery directory: %w", err)
	}
	path := filepath.Join(s.dir, name+".jpg")
	if err := os.WriteFile(path, stored, 0o644); err != nil {
		return fmt.Errorf("saving reference image: %w", err)
	}

	s.upsert(Entry{Name: name, Descriptor: detections[0].Descriptor})
	return nil
}

// EnrollDescriptor registers a name with an already-computed descriptor, e.g.
// one surfaced by a previous recognition of an unknown face. No reference
// image is stored, so the entry does not survive a restart.
func (s *Store) EnrollDescriptor(name string, descriptor []float64) error {
	if name == "" || len(descriptor) == 0 {
		return errors.New("name and descriptor required")
	}
	desc := make([]float64, len(descriptor))
	copy(desc, descriptor)
	s.upsert(Entry{Name: name, Descriptor: desc})
	return nil
}

func (s *Store) upsert(entry Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.entries {
		if s.entries[i].Name == entry.Name {
			s.entries[i] = entry
			return
		}
	}
	s.entries = append(s.entries, entry)
}

// Snapshot returns a copy of the gallery. Matches running against a snapshot
// see either the pre- or post-enrollment gallery, never a partial one.
func (s *Store) Snapshot() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Names returns the enrolled names in gallery order.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.Name
	}
	return out
}

func isImageFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png":
		return true
	}
	return false
}
