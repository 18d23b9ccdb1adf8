package model

import (
	"math"
	"sort"
)

// quantile returns the p-quantile of values using linear interpolation
// between order statistics. Values need not be sorted.
func quantile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64{}, values...)
	sort.Float64s(sorted)
	return sortedQuantile(sorted, p)
}

func sortedQuantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}
	pos := p * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// tailProbability returns P(residual > threshold) under the empirical residual
// distribution, interpolating between order statistics so nearby lines do not
// produce identical step probabilities.
func tailProbability(sortedResiduals []float64, threshold float64) float64 {
	n := len(sortedResiduals)
	if n == 0 {
		return 0.5
	}
	if threshold < sortedResiduals[0] {
		return 1
	}
	if threshold >= sortedResiduals[n-1] {
		return 0
	}

	// Binary search the first residual above the threshold.
	idx := sort.SearchFloat64s(sortedResiduals, threshold)
	if idx < n && sortedResiduals[idx] == threshold {
		for idx < n && sortedResiduals[idx] == threshold {
			idx++
		}
		return float64(n-idx) / float64(n)
	}

	// Interpolate within the bracketing pair.
	lo := idx - 1
	span := sortedResiduals[idx] - sortedResiduals[lo]
	frac := 0.0
	if span > 0 {
		frac = (threshold - sortedResiduals[lo]) / span
	}
	cdf := (float64(lo) + frac) / float64(n-1)
	return clampProbability(1 - cdf)
}

func clampProbability(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

func meanStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	variance := 0.0
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	variance /= float64(len(values))
	return mean, math.Sqrt(variance)
}

// ReliabilityBucket is one decile of a reliability curve: predictions whose
// probability fell in the bucket, against the realized hit rate.
type ReliabilityBucket struct {
	Low           float64 `json:"low"`
	High          float64 `json:"high"`
	Count         int     `json:"count"`
	MeanPredicted float64 `json:"mean_predicted"`
	HitRate       float64 `json:"hit_rate"`
}

// Reliability buckets predicted probabilities and compares each bucket's mean
// prediction against the realized outcome frequency. Well-calibrated output
// tracks the diagonal.
func Reliability(predicted []float64, outcomes []bool, buckets int) []ReliabilityBucket {
	if buckets <= 0 {
		buckets = 10
	}
	out := make([]ReliabilityBucket, buckets)
	sums := make([]float64, buckets)
	hits := make([]int, buckets)
	counts := make([]int, buckets)

	for i, p := range predicted {
		idx := int(p * float64(buckets))
		if idx >= buckets {
			idx = buckets - 1
		}
		if idx < 0 {
			idx = 0
		}
		sums[idx] += p
		counts[idx]++
		if outcomes[i] {
			hits[idx]++
		}
	}

	for b := 0; b < buckets; b++ {
		out[b] = ReliabilityBucket{
			Low:   float64(b) / float64(buckets),
			High:  float64(b+1) / float64(buckets),
			Count: counts[b],
		}
		if counts[b] > 0 {
			out[b].MeanPredicted = sums[b] / float64(counts[b])
			out[b].HitRate = float64(hits[b]) / float64(counts[b])
		}
	}
	return out
}
