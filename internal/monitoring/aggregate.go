package monitoring

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"cpu-monitoring/internal/domain"
)

// Bucket is the summary of every sample sharing one bucket key.
type Bucket struct {
	Key   time.Time
	Stats domain.Stats
}

// RoundHalfUp rounds to the given number of decimal places, halves going
// away from zero. The value is taken at its shortest decimal representation
// so 7.925 rounds to 7.93 rather than suffering binary representation error.
func RoundHalfUp(value float64, places int32) float64 {
	return decimal.NewFromFloat(value).Round(places).InexactFloat64()
}

// BucketKey maps a timestamp to its bucket: itself for minute, the hour
// for hour and the calendar date (midnight) for day.
func BucketKey(ts time.Time, g domain.Granularity, loc *time.Location) time.Time {
	local := ts.In(loc)
	switch g {
	case domain.GranularityHour:
		y, m, d := local.Date()
		return time.Date(y, m, d, local.Hour(), 0, 0, 0, loc)
	case domain.GranularityDay:
		return StartOfDay(local, loc)
	default:
		return local
	}
}

// Summarize computes min, max and the half-up rounded average. values must
// not be empty.
func Summarize(values []float64) domain.Stats {
	minUsage, maxUsage := values[0], values[0]
	sum := decimal.Zero

	for _, v := range values {
		if v < minUsage {
			minUsage = v
		}
		if v > maxUsage {
			maxUsage = v
		}
		sum = sum.Add(decimal.NewFromFloat(v))
	}

	avg := sum.Div(decimal.NewFromInt(int64(len(values)))).Round(2)

	return domain.Stats{
		MinUsage:     minUsage,
		MaxUsage:     maxUsage,
		AverageUsage: avg.InexactFloat64(),
	}
}

// GroupAndSummarize groups samples by BucketKey and returns one Bucket per
// non-empty group, ascending by key.
func GroupAndSummarize(samples []domain.Sample, g domain.Granularity, loc *time.Location) []Bucket {
	groups := make(map[int64][]float64)
	keys := make([]time.Time, 0)

	for _, s := range samples {
		key := BucketKey(s.Timestamp, g, loc)
		k := key.Unix()
		if _, ok := groups[k]; !ok {
			keys = append(keys, key)
		}
		groups[k] = append(groups[k], s.Usage)
	}

	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })

	buckets := make([]Bucket, 0, len(keys))
	for _, key := range keys {
		buckets = append(buckets, Bucket{Key: key, Stats: Summarize(groups[key.Unix()])})
	}
	return buckets
}
