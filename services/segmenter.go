package services

import (
	"inflation-pipeline/config"
	"inflation-pipeline/metrics"
	"inflation-pipeline/models"
	"inflation-pipeline/utils"
)

// Segmenter buckets cleaned records by capture year and price tier. Prices
// below the tier floor belong to no tier; that gap is deliberate and keeps
// junk near-zero prices out of the statistics.
type Segmenter struct {
	logger *utils.Logger
	rules  config.SegmentRules
}

// NewSegmenter creates a Segmenter with the given tier boundaries.
func NewSegmenter(logger *utils.Logger, rules config.SegmentRules) *Segmenter {
	return &Segmenter{logger: logger, rules: rules}
}

// Segment assigns each record with both a fetch time and a price to exactly
// one tier of its capture year. Records missing either field are skipped
// with a warning.
func (s *Segmenter) Segment(records []models.CleanRecord) map[string]*models.YearBucket {
	buckets := make(map[string]*models.YearBucket)

	for _, rec := range records {
		metrics.RowsProcessed.WithLabelValues("analyze").Inc()

		if rec.FetchTime == nil {
			s.logger.Warn("[segmenter] Record missing fetch_time, skipping: %s", rec.Title)
			metrics.RecordsDropped.WithLabelValues("analyze", "missing_fetch_time").Inc()
			continue
		}
		if rec.Price == nil {
			s.logger.Warn("[segmenter] Record missing price, skipping: %s", rec.Title)
			metrics.RecordsDropped.WithLabelValues("analyze", "missing_price").Inc()
			continue
		}
		year := rec.Year()
		if year == "" {
			s.logger.Warn("[segmenter] Record fetch_time too short, skipping: %q", *rec.FetchTime)
			metrics.RecordsDropped.WithLabelValues("analyze", "bad_fetch_time").Inc()
			continue
		}

		price := *rec.Price
		if price < s.rules.TierFloor {
			// Below the tier floor: excluded from every tier, and the year
			// only materializes when something lands in a tier.
			s.logger.Debug("[segmenter] Price %.2f below tier floor, excluded", price)
			continue
		}

		bucket, ok := buckets[year]
		if !ok {
			bucket = &models.YearBucket{}
			buckets[year] = bucket
		}

		switch {
		case price <= s.rules.LowMax:
			bucket.Low = append(bucket.Low, price)
		case price <= s.rules.MidMax:
			bucket.Mid = append(bucket.Mid, price)
		default:
			bucket.High = append(bucket.High, price)
		}
	}
	return buckets
}
