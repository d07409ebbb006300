package models

import "encoding/json"

// PriceSummary aggregates prices as reported by the analysis service.
type PriceSummary struct {
	Min    Number `json:"min"`
	Max    Number `json:"max"`
	Avg    Number `json:"avg"`
	Median Number `json:"median"`
}

// RatingSummary aggregates ratings as reported by the analysis service.
type RatingSummary struct {
	Min Number `json:"min"`
	Max Number `json:"max"`
	Avg Number `json:"avg"`
}

// AnalysisSummary is the headline block of an Analysis.
type AnalysisSummary struct {
	Count         int           `json:"count"`
	Price         PriceSummary  `json:"price"`
	Rating        RatingSummary `json:"rating"`
	DiscountCount int           `json:"discount_count"`
}

// HistogramBucket is one price bucket, inclusive of Min and exclusive of Max
// except for the last bucket, which also includes Max.
type HistogramBucket struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
}

// Sentiment summarises review polarity.
type Sentiment struct {
	Count    int    `json:"count"`
	Positive Number `json:"positive"`
	Negative Number `json:"negative"`
	Neutral  Number `json:"neutral"`
	AvgScore Number `json:"avg_score"`
}

// Analysis accompanies a SearchResult when the *_with_analysis endpoints are used.
// The reviews report is kept opaque; the client only passes it through.
type Analysis struct {
	Summary        AnalysisSummary   `json:"summary"`
	HistogramPrice []HistogramBucket `json:"histogram_price"`
	Sentiment      Sentiment         `json:"sentiment"`
	ReviewsReport  json.RawMessage   `json:"reviews_report,omitempty"`
}
