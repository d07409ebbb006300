package filter

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/aluiziolira/smartmarket/models"
)

// DefaultHistogramBuckets is used when Summarize is given a non-positive bucket count.
const DefaultHistogramBuckets = 10

// Summary describes a filtered view. Price figures cover finite positive
// prices only; rating figures cover finite non-negative ratings.
type Summary struct {
	Count         int
	Priced        int
	PriceMin      float64
	PriceMax      float64
	PriceAvg      float64
	PriceMedian   float64
	PriceP25      float64
	PriceP75      float64
	PriceP90      float64
	Rated         int
	RatingAvg     float64
	DiscountCount int
	Histogram     []models.HistogramBucket
}

// Summarize computes view statistics and a price histogram with the given number of buckets.
func Summarize(items []models.Item, buckets int) Summary {
	if buckets <= 0 {
		buckets = DefaultHistogramBuckets
	}
	s := Summary{Count: len(items)}

	prices := make([]float64, 0, len(items))
	ratings := make([]float64, 0, len(items))
	for _, it := range items {
		if p, ok := it.Price.Float(); ok && p > 0 {
			prices = append(prices, p)
		}
		if r, ok := it.Rating.Float(); ok && r >= 0 {
			ratings = append(ratings, r)
		}
		if it.HasDiscount() {
			s.DiscountCount++
		}
	}

	s.Rated = len(ratings)
	if len(ratings) > 0 {
		s.RatingAvg = stat.Mean(ratings, nil)
	}

	s.Priced = len(prices)
	if len(prices) == 0 {
		return s
	}
	sort.Float64s(prices)
	s.PriceMin = floats.Min(prices)
	s.PriceMax = floats.Max(prices)
	s.PriceAvg = stat.Mean(prices, nil)
	s.PriceMedian = stat.Quantile(0.5, stat.Empirical, prices, nil)
	s.PriceP25 = stat.Quantile(0.25, stat.Empirical, prices, nil)
	s.PriceP75 = stat.Quantile(0.75, stat.Empirical, prices, nil)
	s.PriceP90 = stat.Quantile(0.9, stat.Empirical, prices, nil)
	s.Histogram = histogram(prices, buckets)
	return s
}

// histogram buckets sorted values into n equal-width ranges from min to max.
// The last range is closed so the maximum lands in it.
func histogram(sorted []float64, n int) []models.HistogramBucket {
	lo, hi := sorted[0], sorted[len(sorted)-1]
	var dividers []float64
	if lo == hi {
		dividers = []float64{lo, math.Nextafter(hi, math.Inf(1))}
	} else {
		dividers = floats.Span(make([]float64, n+1), lo, hi)
		dividers[n] = math.Nextafter(hi, math.Inf(1))
	}

	counts := stat.Histogram(nil, dividers, sorted, nil)
	out := make([]models.HistogramBucket, len(counts))
	for i, c := range counts {
		upper := dividers[i+1]
		if i == len(counts)-1 {
			upper = hi
		}
		out[i] = models.HistogramBucket{Min: dividers[i], Max: upper, Count: int(c)}
	}
	return out
}
