package grading

import "math"

// Results are normalized to a 0-20 scale regardless of how many raw
// points an exam's questions add up to.
const (
	MaxScorePossible = 20.0
	PassThreshold    = 10.0

	GradeApproved = "approved"
	GradeFailed   = "failed"
)

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// Normalize rescales rawObtained/rawMax to [0, 20], rounded to two
// decimals. rawMax must be > 0.
func Normalize(rawObtained, rawMax float64) float64 {
	n := round2(rawObtained / rawMax * MaxScorePossible)
	if n < 0 {
		return 0
	}
	if n > MaxScorePossible {
		return MaxScorePossible
	}
	return n
}

// Label applies the canonical pass rule: >= 10.0 approves. Second-call
// eligibility is a scheduling workflow, not a grade label.
func Label(normalized float64) string {
	if normalized >= PassThreshold {
		return GradeApproved
	}
	return GradeFailed
}
