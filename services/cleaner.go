package services

import (
	"bufio"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/araddon/dateparse"

	"inflation-pipeline/config"
	"inflation-pipeline/metrics"
	"inflation-pipeline/models"
	"inflation-pipeline/utils"
)

// rawRecord is one NDJSON line as written by the extraction stage. Price is
// kept raw because historic batches carried it either as a string or as a
// bare number.
type rawRecord struct {
	Title     string           `json:"title"`
	Price     *json.RawMessage `json:"price"`
	URL       string           `json:"url"`
	FetchTime *string          `json:"fetch_time"`
}

// Cleaner normalizes extracted records and filters out noise and error
// pages, producing the canonical dataset.
type Cleaner struct {
	logger *utils.Logger
	rules  config.FilterRules
}

// NewCleaner creates a Cleaner applying the given filter rules.
func NewCleaner(logger *utils.Logger, rules config.FilterRules) *Cleaner {
	return &Cleaner{logger: logger, rules: rules}
}

// CleanLines processes one file's NDJSON content. Lines that fail to parse
// are skipped with a warning; survivors keep their input order.
func (c *Cleaner) CleanLines(r *bufio.Scanner) []models.CleanRecord {
	var kept []models.CleanRecord
	for r.Scan() {
		line := strings.TrimSpace(r.Text())
		if line == "" {
			continue
		}
		metrics.RowsProcessed.WithLabelValues("clean").Inc()

		var raw rawRecord
		if err := json.Unmarshal([]byte(line), &raw); err != nil {
			c.logger.Warn("[cleaner] Skipping line due to JSON decode error: %v", err)
			metrics.RecordsDropped.WithLabelValues("clean", "bad_json").Inc()
			continue
		}

		rec, keep := c.clean(raw)
		if keep {
			kept = append(kept, rec)
		} else {
			metrics.RecordsDropped.WithLabelValues("clean", "filtered").Inc()
		}
	}
	return kept
}

// clean normalizes one record and decides whether it survives the filter.
func (c *Cleaner) clean(raw rawRecord) (models.CleanRecord, bool) {
	price, priceAbsent := c.normalizePrice(raw.Price)

	rec := models.CleanRecord{
		Title:     raw.Title,
		Price:     price,
		URL:       raw.URL,
		FetchTime: c.normalizeFetchTime(raw.FetchTime),
	}
	return rec, c.keep(rec, priceAbsent)
}

// normalizePrice coerces the raw price into a number. The bool result marks
// the field as absent entirely, which the filter treats differently from an
// unparseable value.
func (c *Cleaner) normalizePrice(raw *json.RawMessage) (*float64, bool) {
	if raw == nil {
		return nil, true
	}

	var num float64
	if err := json.Unmarshal(*raw, &num); err == nil {
		return &num, false
	}

	var text string
	if err := json.Unmarshal(*raw, &text); err != nil {
		c.logger.Warn("[cleaner] Unable to read price value: %s", string(*raw))
		return nil, false
	}

	text = strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(text, "$", ""), ",", ""))
	val, err := strconv.ParseFloat(text, 64)
	if err != nil {
		c.logger.Warn("[cleaner] Unable to convert price to float: %q", text)
		return nil, false
	}
	return &val, false
}

// normalizeFetchTime re-renders a free-form timestamp as canonical ISO-8601.
func (c *Cleaner) normalizeFetchTime(ts *string) *string {
	if ts == nil || *ts == "" {
		return nil
	}

	t, err := dateparse.ParseAny(*ts)
	if err != nil {
		c.logger.Warn("[cleaner] Unable to parse fetch_time: %q", *ts)
		return nil
	}

	layout := "2006-01-02T15:04:05"
	if _, offset := t.Zone(); offset != 0 || hasExplicitZone(*ts) {
		layout = "2006-01-02T15:04:05-07:00"
	}
	iso := t.Format(layout)
	return &iso
}

// explicitZoneRegexp matches a trailing zone designator: "Z", a numeric
// offset, or a named UTC/GMT suffix. A zero offset parses to the same
// time.Time as a naive timestamp, so the raw text decides whether the
// canonical form carries an offset.
var explicitZoneRegexp = regexp.MustCompile(`(?i)(\dz|[+-]\d{2}:?\d{2}|\s(?:utc|gmt))$`)

func hasExplicitZone(raw string) bool {
	return explicitZoneRegexp.MatchString(strings.TrimSpace(raw))
}

// keep applies the filter policy: known error titles, promotional landing
// pages, and implausible prices are dropped.
func (c *Cleaner) keep(rec models.CleanRecord, priceAbsent bool) bool {
	for _, bad := range c.rules.ErrorTitles {
		if rec.Title == bad {
			return false
		}
	}

	lower := strings.ToLower(rec.Title)
	for _, promo := range c.rules.PromoTitles {
		if lower == promo {
			return false
		}
	}

	if priceAbsent {
		return true
	}
	if rec.Price == nil {
		return false
	}
	if *rec.Price < c.rules.MinPrice {
		return false
	}
	for _, year := range c.rules.ExcludedPrices {
		if *rec.Price == year {
			return false
		}
	}
	return true
}
