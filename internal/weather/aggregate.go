package weather

import (
	"slices"
	"time"

	"github.com/i474232898/skimeister/internal/resort"
)

// MaxDays is the longest forecast kept.
const MaxDays = 7

// AggregateReadings buckets readings per UTC day. Each day takes the lowest
// minimum, the highest maximum and the summed snowfall; the symbol is picked
// by majority, ties going to the one seen first.
func AggregateReadings(readings []Reading) []resort.ForecastDay {
	type bucket struct {
		day     time.Time
		lo, hi  float64
		snow    float64
		counts  map[string]int
		symbols []string
	}

	var order []time.Time
	buckets := make(map[time.Time]*bucket)

	for _, r := range readings {
		day := midnightUTC(r.Timestamp)
		b, ok := buckets[day]
		if !ok {
			b = &bucket{day: day, lo: r.TempMinC, hi: r.TempMaxC, counts: make(map[string]int)}
			buckets[day] = b
			order = append(order, day)
		}
		b.lo = min(b.lo, r.TempMinC)
		b.hi = max(b.hi, r.TempMaxC)
		b.snow += r.SnowCm
		if r.Symbol != "" {
			if b.counts[r.Symbol] == 0 {
				b.symbols = append(b.symbols, r.Symbol)
			}
			b.counts[r.Symbol]++
		}
	}

	days := make([]resort.ForecastDay, 0, len(order))
	for _, d := range order {
		b := buckets[d]

		best := SymbolUnknown
		bestCount := 0
		for _, sym := range b.symbols {
			if b.counts[sym] > bestCount {
				best, bestCount = sym, b.counts[sym]
			}
		}

		days = append(days, resort.ForecastDay{
			Date:           b.day,
			TempMin:        resort.Ptr(b.lo),
			TempMax:        resort.Ptr(b.hi),
			Symbol:         best,
			SnowForecastCm: int(b.snow),
		})
	}
	return NormalizeDays(days)
}

// NormalizeDays truncates dates to midnight UTC, sorts them ascending and
// keeps at most MaxDays entries. The input is not modified.
func NormalizeDays(days []resort.ForecastDay) []resort.ForecastDay {
	if len(days) == 0 {
		return nil
	}
	out := slices.Clone(days)
	for i := range out {
		out[i].Date = midnightUTC(out[i].Date)
		if out[i].SnowForecastCm < 0 {
			out[i].SnowForecastCm = 0
		}
	}
	slices.SortStableFunc(out, func(a, b resort.ForecastDay) int {
		return a.Date.Compare(b.Date)
	})
	if len(out) > MaxDays {
		out = out[:MaxDays]
	}
	return out
}

func midnightUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
