// Package attendance implements the recognition pipeline: matching probe
// descriptors against the gallery, gating repeats with a cooldown, and
// appending accepted events to the ledger.
package attendance

import (
	"github.com/kozaktomas/facegate/internal/encoder"
	"github.com/kozaktomas/facegate/internal/gallery"
)

// MatchResult is the outcome of matching one probe descriptor.
type MatchResult struct {
	Recognized bool
	Name       string
	Distance   float64
}

// Match scans the gallery for the entry nearest to the probe descriptor and
// accepts it when the distance is strictly below threshold. Ties go to the
// earlier gallery entry. An empty gallery always yields an unrecognized
// result.
func Match(descriptor []float64, entries []gallery.Entry, threshold float64) MatchResult {
	if len(entries) == 0 {
		return MatchResult{}
	}

	best := 0
	bestDist := encoder.Distance(descriptor, entries[0].Descriptor)
	for i := 1; i < len(entries); i++ {
		if d := encoder.Distance(descriptor, entries[i].Descriptor); d < bestDist {
			best = i
			bestDist = d
		}
	}

	if bestDist >= threshold {
		return MatchResult{}
	}
	return MatchResult{Recognized: true, Name: entries[best].Name, Distance: bestDist}
}

// Confidence derives the reported confidence from a match distance. The value
// is not clamped, so distances above 1 come out negative.
func Confidence(distance float64) float64 {
	return 1 - distance
}
