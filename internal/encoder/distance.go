package encoder

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Distance returns the Euclidean distance between two face descriptors.
// Lower means more similar. Descriptors of different lengths never match and
// are treated as infinitely far apart.
func Distance(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return math.Inf(1)
	}
	return floats.Distance(a, b, 2)
}
