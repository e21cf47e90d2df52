package models

// Segment names, in the order inflation entries are derived.
var SegmentNames = []string{"low", "mid", "high"}

// YearBucket groups the prices captured in one year by price tier.
type YearBucket struct {
	Low  []float64
	Mid  []float64
	High []float64
}

// Tier returns the prices of the named segment.
func (b *YearBucket) Tier(segment string) []float64 {
	switch segment {
	case "low":
		return b.Low
	case "mid":
		return b.Mid
	case "high":
		return b.High
	}
	return nil
}

// SegmentStats holds descriptive statistics for one (year, tier) bucket.
// All fields are nil when the bucket is empty.
type SegmentStats struct {
	Average *float64 `json:"average"`
	Max     *float64 `json:"max"`
	Min     *float64 `json:"min"`
	Stdev   *float64 `json:"stdev"`
}

// AnalysisReport is the final pipeline artifact: human-readable inflation
// sentences, the year-over-year inflation table, and per-year segment
// statistics. Map keys marshal in ascending year order.
type AnalysisReport struct {
	InflationAnalysis    []string                           `json:"inflation_analysis"`
	InflationSummary     map[string]map[string]*float64     `json:"inflation_summary"`
	YearlySegmentSummary map[string]map[string]SegmentStats `json:"yearly_segment_summary"`
}
