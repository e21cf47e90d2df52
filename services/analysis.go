package services

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"inflation-pipeline/models"
	"inflation-pipeline/utils"
)

// Analyzer computes per-bucket statistics and year-over-year inflation rates
// over the segmented dataset.
type Analyzer struct {
	logger *utils.Logger
}

// NewAnalyzer creates an Analyzer.
func NewAnalyzer(logger *utils.Logger) *Analyzer {
	return &Analyzer{logger: logger}
}

// CalculateStatistics returns descriptive statistics over prices, rounded to
// 2 decimal places. An empty input yields all-nil fields; a single sample
// has a standard deviation of 0.
func CalculateStatistics(prices []float64) models.SegmentStats {
	if len(prices) == 0 {
		return models.SegmentStats{}
	}

	minVal, maxVal := prices[0], prices[0]
	var sum float64
	for _, p := range prices {
		sum += p
		if p < minVal {
			minVal = p
		}
		if p > maxVal {
			maxVal = p
		}
	}
	mean := sum / float64(len(prices))

	stdev := 0.0
	if len(prices) > 1 {
		var ss float64
		for _, p := range prices {
			d := p - mean
			ss += d * d
		}
		stdev = math.Sqrt(ss / float64(len(prices)-1))
	}

	return models.SegmentStats{
		Average: ptr(round2(mean)),
		Max:     ptr(round2(maxVal)),
		Min:     ptr(round2(minVal)),
		Stdev:   ptr(round2(stdev)),
	}
}

// BuildReport summarizes every (year, tier) bucket and derives the inflation
// rate of each tier between consecutive years. A rate is only computed when
// both years have a non-null, non-zero prior average; a rate of exactly zero
// produces no analysis sentence.
func (a *Analyzer) BuildReport(buckets map[string]*models.YearBucket) *models.AnalysisReport {
	summary := make(map[string]map[string]models.SegmentStats, len(buckets))
	for year, bucket := range buckets {
		stats := make(map[string]models.SegmentStats, len(models.SegmentNames))
		for _, segment := range models.SegmentNames {
			stats[segment] = CalculateStatistics(bucket.Tier(segment))
		}
		summary[year] = stats
	}

	years := make([]string, 0, len(summary))
	for year := range summary {
		years = append(years, year)
	}
	sort.Strings(years)

	inflation := make(map[string]map[string]*float64)
	analysis := make([]string, 0)

	for i := 1; i < len(years); i++ {
		prevYear, currYear := years[i-1], years[i]
		inflation[currYear] = make(map[string]*float64, len(models.SegmentNames))

		for _, segment := range models.SegmentNames {
			prevAvg := summary[prevYear][segment].Average
			currAvg := summary[currYear][segment].Average
			if prevAvg == nil || currAvg == nil || *prevAvg == 0 {
				inflation[currYear][segment] = nil
				continue
			}

			rate := (*currAvg - *prevAvg) / *prevAvg * 100
			rounded := round2(rate)
			inflation[currYear][segment] = &rounded

			switch {
			case rate > 0:
				analysis = append(analysis, fmt.Sprintf(
					"The inflation increased from year %s to %s by %s%% in the %s segment.",
					prevYear, currYear, formatRate(rounded), segment))
			case rate < 0:
				analysis = append(analysis, fmt.Sprintf(
					"The inflation decreased from year %s to %s by %s%% in the %s segment.",
					prevYear, currYear, formatRate(round2(math.Abs(rate))), segment))
			}
		}
	}

	a.logger.Info("[analysis] Summarized %d years, %d inflation findings", len(years), len(analysis))
	return &models.AnalysisReport{
		InflationAnalysis:    analysis,
		InflationSummary:     inflation,
		YearlySegmentSummary: summary,
	}
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

// formatRate renders a rate with the fewest digits needed, but always at
// least one decimal ("50.0", "33.33").
func formatRate(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func ptr(v float64) *float64 {
	return &v
}
