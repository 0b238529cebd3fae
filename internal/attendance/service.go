package attendance

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kozaktomas/facegate/internal/encoder"
	"github.com/kozaktomas/facegate/internal/gallery"
	"github.com/kozaktomas/facegate/internal/imaging"
	"github.com/kozaktomas/facegate/internal/ledger"
)

// ErrNoFaceDetected is returned when the probe image contains no detectable face.
var ErrNoFaceDetected = errors.New("no face detected")

// Detector is the face detection/encoding oracle.
type Detector interface {
	DetectFaces(ctx context.Context, imageData []byte) ([]encoder.Detection, error)
}

// Gallery provides the enrolled entries to match against.
type Gallery interface {
	Snapshot() []gallery.Entry
}

// Face is the per-face outcome of one recognition request.
type Face struct {
	Status     string              `json:"status"` // "recognized" or "unknown"
	Name       string              `json:"name,omitempty"`
	Confidence float64             `json:"confidence,omitempty"`
	Box        encoder.BoundingBox `json:"box"`
	Logged     bool                `json:"logged"`
	Error      string              `json:"error,omitempty"`
	Descriptor []float64           `json:"descriptor,omitempty"`
}

const (
	StatusRecognized = "recognized"
	StatusUnknown    = "unknown"
)

// Result aggregates the outcomes for every face in one probe image.
type Result struct {
	Faces []Face
}

// Options configures a Service.
type Options struct {
	Threshold float64
	Cooldown  time.Duration
	// UploadsDir receives the evidentiary snapshot for each logged event.
	UploadsDir string
	// ExposeDescriptors includes the raw descriptor in unknown-face results
	// so a client can enroll that exact face without re-uploading the image.
	ExposeDescriptors bool
	// Now is the clock used for timestamps and cooldowns; defaults to time.Now.
	Now func() time.Time
}

// Service orchestrates one probe image through detection, matching, cooldown
// gating and ledger writes.
type Service struct {
	detector Detector
	gallery  Gallery
	ledger   ledger.Ledger
	cooldown *CooldownTracker
	opts     Options
}

// NewService wires the recognition pipeline.
func NewService(detector Detector, gal Gallery, led ledger.Ledger, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		detector: detector,
		gallery:  gal,
		ledger:   led,
		cooldown: NewCooldownTracker(opts.Cooldown),
		opts:     opts,
	}
}

// Recognize runs the full pipeline on one probe image. Every detected face
// gets an independent outcome: a persistence failure for one face is reported
// in that face's entry and never aborts the others. Returns ErrNoFaceDetected
// when the oracle finds no faces at all.
func (s *Service) Recognize(ctx context.Context, imageData []byte) (*Result, error) {
	detections, err := s.detector.DetectFaces(ctx, imageData)
	if err != nil {
		return nil, fmt.Errorf("detecting faces: %w", err)
	}
	if len(detections) == 0 {
		return nil, ErrNoFaceDetected
	}

	entries := s.gallery.Snapshot()
	now := s.opts.Now()
	result := &Result{Faces: make([]Face, 0, len(detections))}

	for _, d := range detections {
		m := Match(d.Descriptor, entries, s.opts.Threshold)
		if !m.Recognized {
			face := Face{Status: StatusUnknown, Box: d.Box}
			if s.opts.ExposeDescriptors {
				face.Descriptor = d.Descriptor
			}
			result.Faces = append(result.Faces, face)
			continue
		}

		face := Face{
			Status:     StatusRecognized,
			Name:       m.Name,
			Confidence: Confidence(m.Distance),
			Box:        d.Box,
		}

		if s.cooldown.ShouldLog(m.Name, now) {
			if err := s.logEvent(m.Name, now, imageData); err != nil {
				log.Printf("attendance: logging %s failed: %v", m.Name, err)
				face.Error = err.Error()
			} else {
				face.Logged = true
			}
		}
		result.Faces = append(result.Faces, face)
	}

	return result, nil
}

// logEvent persists the snapshot, appends the attendance record to both
// ledger scopes and only then marks the cooldown.
func (s *Service) logEvent(name string, now time.Time, imageData []byte) error {
	imagePath, err := s.saveSnapshot(name, now, imageData)
	if err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	if _, err := s.ledger.Append(ledger.NewRecord(name, now, imagePath)); err != nil {
		return fmt.Errorf("appending record: %w", err)
	}
	s.cooldown.MarkLogged(name, now)
	return nil
}

// saveSnapshot writes the probe image as evidence for a logged event. The
// filename pattern {name}_{date}_{HH-MM-SS}.jpg keeps it filesystem-safe.
func (s *Service) saveSnapshot(name string, now time.Time, imageData []byte) (string, error) {
	stored, err := imaging.Normalize(imageData, imaging.MaxStoredSize)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.opts.UploadsDir, 0o755); err != nil {
		return "", err
	}
	fileTime := strings.ReplaceAll(now.Format(ledger.TimeFormat), ":", "-")
	filename := fmt.Sprintf("%s_%s_%s.jpg", name, now.Format(ledger.DateFormat), fileTime)
	path := filepath.Join(s.opts.UploadsDir, filename)
	if err := os.WriteFile(path, stored, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
