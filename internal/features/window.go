package features

import (
	"sort"
	"time"

	"github.com/yourusername/rebound-edge/internal/models"
)

// cutoff returns observations strictly before asOf, ordered by game date.
// Every window computation in this package goes through it; there is no code
// path that sees an observation at or after the cutoff date.
func cutoff(obs []*models.GameObservation, asOf time.Time) []*models.GameObservation {
	out := make([]*models.GameObservation, 0, len(obs))
	for _, o := range obs {
		if o.IsBefore(asOf) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GameDate.Before(out[j].GameDate) })
	return out
}

// lastN returns the trailing n observations from an ordered slice.
func lastN(obs []*models.GameObservation, n int) []*models.GameObservation {
	if len(obs) <= n {
		return obs
	}
	return obs[len(obs)-n:]
}

func meanRebounds(obs []*models.GameObservation) float64 {
	if len(obs) == 0 {
		return 0
	}
	sum := 0.0
	for _, o := range obs {
		sum += float64(o.Rebounds)
	}
	return sum / float64(len(obs))
}

func meanMinutes(obs []*models.GameObservation) float64 {
	if len(obs) == 0 {
		return 0
	}
	sum := 0.0
	for _, o := range obs {
		sum += o.MinutesPlayed
	}
	return sum / float64(len(obs))
}

// reboundsPer36 is the usage proxy: minutes-weighted rebound production.
func reboundsPer36(obs []*models.GameObservation) float64 {
	totalMinutes := 0.0
	totalRebounds := 0.0
	for _, o := range obs {
		totalMinutes += o.MinutesPlayed
		totalRebounds += float64(o.Rebounds)
	}
	if totalMinutes <= 0 {
		return 0
	}
	return totalRebounds / totalMinutes * 36.0
}

// minutesSlope fits a least-squares line through minutes over game index.
func minutesSlope(obs []*models.GameObservation) float64 {
	values := make([]float64, len(obs))
	xs := make([]float64, len(obs))
	for i, o := range obs {
		values[i] = o.MinutesPlayed
		xs[i] = float64(i)
	}
	return slope(xs, values)
}

// seasonTrend fits rebounds against days since the first observed game.
func seasonTrend(obs []*models.GameObservation) float64 {
	if len(obs) < 2 {
		return 0
	}
	origin := obs[0].GameDate
	xs := make([]float64, len(obs))
	values := make([]float64, len(obs))
	for i, o := range obs {
		xs[i] = o.GameDate.Sub(origin).Hours() / 24.0
		values[i] = float64(o.Rebounds)
	}
	return slope(xs, values)
}

// ewma computes an exponentially weighted moving average of rebounds,
// oldest to newest.
func ewma(obs []*models.GameObservation, alpha float64) float64 {
	if len(obs) == 0 {
		return 0
	}
	value := float64(obs[0].Rebounds)
	for _, o := range obs[1:] {
		value = alpha*float64(o.Rebounds) + (1-alpha)*value
	}
	return value
}

func slope(xs, ys []float64) float64 {
	n := float64(len(xs))
	if n < 2 {
		return 0
	}
	var sumX, sumY, sumXY, sumXX float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
		sumXY += xs[i] * ys[i]
		sumXX += xs[i] * xs[i]
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}

// teamGameTotals groups observations by game date and sums rebounds per game,
// keeping chronological order.
func teamGameTotals(obs []*models.GameObservation) []float64 {
	byDate := make(map[time.Time]float64)
	dates := make([]time.Time, 0)
	for _, o := range obs {
		if _, seen := byDate[o.GameDate]; !seen {
			dates = append(dates, o.GameDate)
		}
		byDate[o.GameDate] += float64(o.Rebounds)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	totals := make([]float64, len(dates))
	for i, d := range dates {
		totals[i] = byDate[d]
	}
	return totals
}

func meanFloat(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func trailing(values []float64, n int) []float64 {
	if len(values) <= n {
		return values
	}
	return values[len(values)-n:]
}
