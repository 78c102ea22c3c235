package enrichment

import "math"

const epsilon = 1e-12

// Metrics are the derived sentiment fields stored on a course.
type Metrics struct {
	NumReviews int
	Avg        float64
	Smoothed   float64
}

// Equal reports whether m and o match within floating point noise.
func (m Metrics) Equal(o Metrics) bool {
	return m.NumReviews == o.NumReviews &&
		math.Abs(m.Avg-o.Avg) <= epsilon &&
		math.Abs(m.Smoothed-o.Smoothed) <= epsilon
}

// GlobalMean is the mean sentiment of every scored review in the corpus,
// or 0 when nothing is scored.
func GlobalMean(totals []CourseTotals) float64 {
	var sum float64
	var n int
	for _, t := range totals {
		sum += t.Sum
		n += t.Count
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// Compute derives a course's metrics from its n scored reviews summing to
// sum, shrunk toward globalMean with pseudocount c.
func Compute(n int, sum, globalMean, c float64) Metrics {
	m := Metrics{NumReviews: n}
	if n > 0 {
		m.Avg = sum / float64(n)
	}
	m.Smoothed = Smooth(n, sum, globalMean, c)
	return m
}

// Smooth returns (c*globalMean + sum) / (c + n), or globalMean when the
// denominator is zero.
func Smooth(n int, sum, globalMean, c float64) float64 {
	denom := c + float64(n)
	if denom == 0 {
		return globalMean
	}
	return (c*globalMean + sum) / denom
}
