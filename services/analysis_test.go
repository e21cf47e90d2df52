package services

import (
	"strings"
	"testing"

	"inflation-pipeline/config"
	"inflation-pipeline/models"
)

func TestCalculateStatisticsEmpty(t *testing.T) {
	got := CalculateStatistics(nil)
	if got.Average != nil || got.Max != nil || got.Min != nil || got.Stdev != nil {
		t.Errorf("empty input: got %+v, want all nil", got)
	}
}

func TestCalculateStatisticsSingleSample(t *testing.T) {
	got := CalculateStatistics([]float64{150})
	if got.Average == nil || *got.Average != 150 {
		t.Errorf("average: got %v, want 150", got.Average)
	}
	if got.Max == nil || *got.Max != 150 || got.Min == nil || *got.Min != 150 {
		t.Errorf("min/max: got %v/%v, want 150/150", got.Min, got.Max)
	}
	if got.Stdev == nil || *got.Stdev != 0 {
		t.Errorf("stdev of single sample: got %v, want 0", got.Stdev)
	}
}

func TestCalculateStatisticsMultipleSamples(t *testing.T) {
	got := CalculateStatistics([]float64{100, 200, 300})
	if *got.Average != 200 || *got.Min != 100 || *got.Max != 300 {
		t.Errorf("got avg=%v min=%v max=%v", *got.Average, *got.Min, *got.Max)
	}
	// sample stdev of {100,200,300} = 100
	if *got.Stdev != 100 {
		t.Errorf("stdev: got %v, want 100", *got.Stdev)
	}
}

func TestCalculateStatisticsRounding(t *testing.T) {
	got := CalculateStatistics([]float64{100, 101})
	if *got.Average != 100.5 {
		t.Errorf("average: got %v, want 100.5", *got.Average)
	}
	// sample stdev of {100,101} = 0.7071... -> 0.71
	if *got.Stdev != 0.71 {
		t.Errorf("stdev: got %v, want 0.71", *got.Stdev)
	}
}

func TestBuildReportInflationDirection(t *testing.T) {
	a := NewAnalyzer(newTestLogger())

	// 2022's high tier is intentionally empty: its rate must be null.
	buckets := map[string]*models.YearBucket{
		"2021": {Low: []float64{100}, High: []float64{900}},
		"2022": {Low: []float64{150}},
	}

	report := a.BuildReport(buckets)

	low := report.InflationSummary["2022"]["low"]
	if low == nil || *low != 50.0 {
		t.Fatalf("low inflation 2021->2022: got %v, want 50", low)
	}
	if high := report.InflationSummary["2022"]["high"]; high != nil {
		t.Errorf("high inflation with empty 2022 bucket: got %v, want nil", *high)
	}

	if len(report.InflationAnalysis) != 1 {
		t.Fatalf("analysis sentences: got %v, want exactly one", report.InflationAnalysis)
	}
	sentence := report.InflationAnalysis[0]
	if !strings.Contains(sentence, "increased") || !strings.Contains(sentence, "by 50.0%") ||
		!strings.Contains(sentence, "low segment") {
		t.Errorf("unexpected sentence: %q", sentence)
	}
}

func TestBuildReportDecrease(t *testing.T) {
	a := NewAnalyzer(newTestLogger())

	buckets := map[string]*models.YearBucket{
		"2021": {Low: []float64{150}},
		"2022": {Low: []float64{100}},
	}
	report := a.BuildReport(buckets)

	rate := report.InflationSummary["2022"]["low"]
	if rate == nil || *rate != -33.33 {
		t.Fatalf("rate: got %v, want -33.33", rate)
	}

	sentence := report.InflationAnalysis[0]
	if !strings.Contains(sentence, "decreased") || !strings.Contains(sentence, "by 33.33%") {
		t.Errorf("unexpected sentence: %q", sentence)
	}
}

func TestBuildReportZeroRateHasNoSentence(t *testing.T) {
	a := NewAnalyzer(newTestLogger())

	buckets := map[string]*models.YearBucket{
		"2022": {Low: []float64{150}},
		"2023": {Low: []float64{150}},
	}
	report := a.BuildReport(buckets)

	rate := report.InflationSummary["2023"]["low"]
	if rate == nil || *rate != 0 {
		t.Fatalf("rate: got %v, want 0", rate)
	}
	if len(report.InflationAnalysis) != 0 {
		t.Errorf("zero rate must not produce a sentence, got %v", report.InflationAnalysis)
	}
}

func TestBuildReportYearOrdering(t *testing.T) {
	a := NewAnalyzer(newTestLogger())

	buckets := map[string]*models.YearBucket{
		"2023": {Low: []float64{200}},
		"2021": {Low: []float64{100}},
		"2022": {Low: []float64{150}},
	}
	report := a.BuildReport(buckets)

	// The first year has no prior, so only 2022 and 2023 get entries.
	if _, ok := report.InflationSummary["2021"]; ok {
		t.Error("2021 must not appear in the inflation summary")
	}
	if got := report.InflationSummary["2022"]["low"]; got == nil || *got != 50.0 {
		t.Errorf("2022 low: got %v, want 50", got)
	}
	if got := report.InflationSummary["2023"]["low"]; got == nil || *got != 33.33 {
		t.Errorf("2023 low: got %v, want 33.33", got)
	}

	// Sentences come out in (year, tier) iteration order.
	if len(report.InflationAnalysis) != 2 ||
		!strings.Contains(report.InflationAnalysis[0], "2021 to 2022") ||
		!strings.Contains(report.InflationAnalysis[1], "2022 to 2023") {
		t.Errorf("sentence order: %v", report.InflationAnalysis)
	}
}

func TestBuildReportEveryYearHasAllTiers(t *testing.T) {
	a := NewAnalyzer(newTestLogger())

	buckets := map[string]*models.YearBucket{
		"2022": {Mid: []float64{400}},
	}
	report := a.BuildReport(buckets)

	stats := report.YearlySegmentSummary["2022"]
	for _, segment := range models.SegmentNames {
		if _, ok := stats[segment]; !ok {
			t.Errorf("segment %s missing from yearly summary", segment)
		}
	}
	if stats["low"].Average != nil {
		t.Errorf("empty low tier: got %v, want nil average", *stats["low"].Average)
	}
	if stats["mid"].Average == nil || *stats["mid"].Average != 400 {
		t.Errorf("mid tier average: got %v, want 400", stats["mid"].Average)
	}
}

// End-to-end over cleaning, segmentation and analysis: two equal low-tier
// prices a year apart produce a 0.0 rate and no sentence.
func TestPipelineEqualAveragesAcrossYears(t *testing.T) {
	cfg := config.Load()
	cleaner := NewCleaner(newTestLogger(), cfg.Filter)
	segmenter := NewSegmenter(newTestLogger(), cfg.Segments)
	analyzer := NewAnalyzer(newTestLogger())

	widget, widgetKeep := cleaner.clean(rawRecord{
		Title:     "Widget",
		Price:     rawMsg(t, "$150"),
		FetchTime: strPtr("2023-01-05 10:00:00"),
	})
	gadget, gadgetKeep := cleaner.clean(rawRecord{
		Title:     "Gadget",
		Price:     rawMsg(t, "$150"),
		FetchTime: strPtr("2022-01-05 10:00:00"),
	})
	if !widgetKeep || !gadgetKeep {
		t.Fatal("both records must survive cleaning")
	}

	buckets := segmenter.Segment([]models.CleanRecord{widget, gadget})
	if len(buckets["2023"].Low) != 1 || len(buckets["2022"].Low) != 1 {
		t.Fatalf("segmentation: got %v", buckets)
	}

	report := analyzer.BuildReport(buckets)
	rate := report.InflationSummary["2023"]["low"]
	if rate == nil || *rate != 0.0 {
		t.Errorf("2023 low rate: got %v, want 0.0", rate)
	}
	if len(report.InflationAnalysis) != 0 {
		t.Errorf("expected no sentences, got %v", report.InflationAnalysis)
	}
}

func strPtr(s string) *string { return &s }
