package services

import (
	"bufio"
	"encoding/json"
	"strings"
	"testing"

	"inflation-pipeline/config"
	"inflation-pipeline/models"
	"inflation-pipeline/utils"
)

func newTestLogger() *utils.Logger { return utils.NewLogger() }

func testRules() config.FilterRules {
	return config.Load().Filter
}

func rawMsg(t *testing.T, v any) *json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal %v: %v", v, err)
	}
	msg := json.RawMessage(data)
	return &msg
}

func TestNormalizePrice(t *testing.T) {
	c := NewCleaner(newTestLogger(), testRules())

	tests := []struct {
		raw  string
		want float64
	}{
		{"$1,299.00", 1299.00},
		{"$150", 150},
		{"150.50", 150.50},
		{" $99 ", 99},
		{"1,000,000", 1000000},
	}

	for _, tt := range tests {
		got, absent := c.normalizePrice(rawMsg(t, tt.raw))
		if absent {
			t.Errorf("normalizePrice(%q): unexpectedly absent", tt.raw)
			continue
		}
		if got == nil || *got != tt.want {
			t.Errorf("normalizePrice(%q): got %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestNormalizePriceFailures(t *testing.T) {
	c := NewCleaner(newTestLogger(), testRules())

	for _, raw := range []string{"No Price Found", "free", ""} {
		got, absent := c.normalizePrice(rawMsg(t, raw))
		if got != nil {
			t.Errorf("normalizePrice(%q): got %v, want nil", raw, *got)
		}
		if absent {
			t.Errorf("normalizePrice(%q): a present unparseable price is not absent", raw)
		}
	}
}

func TestNormalizePriceNumericInput(t *testing.T) {
	c := NewCleaner(newTestLogger(), testRules())

	got, absent := c.normalizePrice(rawMsg(t, 245.5))
	if absent || got == nil || *got != 245.5 {
		t.Errorf("numeric price passthrough: got %v (absent=%v), want 245.5", got, absent)
	}

	got, absent = c.normalizePrice(nil)
	if !absent || got != nil {
		t.Errorf("missing price field: got %v (absent=%v), want absent", got, absent)
	}
}

func TestNormalizeFetchTime(t *testing.T) {
	c := NewCleaner(newTestLogger(), testRules())

	tests := []struct {
		raw  string
		want string
	}{
		{"2023-01-05T10:00:00", "2023-01-05T10:00:00"},
		{"2023-01-05 10:00:00", "2023-01-05T10:00:00"},
		{"Jan 5, 2023 10:00:00", "2023-01-05T10:00:00"},
		// An explicit zone stays in the canonical form, zero offset included.
		{"2023-01-05T10:00:00Z", "2023-01-05T10:00:00+00:00"},
		{"2023-01-05T10:00:00+05:30", "2023-01-05T10:00:00+05:30"},
		{"2023-01-05T10:00:00-08:00", "2023-01-05T10:00:00-08:00"},
	}

	for _, tt := range tests {
		got := c.normalizeFetchTime(&tt.raw)
		if got == nil || *got != tt.want {
			t.Errorf("normalizeFetchTime(%q): got %v, want %q", tt.raw, got, tt.want)
		}
	}

	bad := "not a date"
	if got := c.normalizeFetchTime(&bad); got != nil {
		t.Errorf("normalizeFetchTime(%q): got %q, want nil", bad, *got)
	}
	if got := c.normalizeFetchTime(nil); got != nil {
		t.Errorf("normalizeFetchTime(nil): got %q, want nil", *got)
	}
}

func TestFilterTitles(t *testing.T) {
	c := NewCleaner(newTestLogger(), testRules())
	price := 150.0

	dropped := []string{
		"301 Moved Permanently",
		"Robot Check",
		"Sorry! Something went wrong!",
		"No Title Found",
		"Black Friday", // case-insensitive promo match
		"BLACK FRIDAY",
		"Amazon Prime Day",
		"error page",
	}
	for _, title := range dropped {
		rec := models.CleanRecord{Title: title, Price: &price}
		if c.keep(rec, false) {
			t.Errorf("keep(%q): got true, want false", title)
		}
	}

	rec := models.CleanRecord{Title: "Widget Pro 3000", Price: &price}
	if !c.keep(rec, false) {
		t.Errorf("keep(%q): got false, want true", rec.Title)
	}
}

func TestFilterPrices(t *testing.T) {
	c := NewCleaner(newTestLogger(), testRules())

	tests := []struct {
		price float64
		want  bool
	}{
		{150, true},
		{99, true},
		{98.99, false},
		{0, false},
		{2021, false}, // looks like a calendar year despite being >= 99
		{2024, false},
		{1996, false},
		{2025, true},
	}

	for _, tt := range tests {
		price := tt.price
		rec := models.CleanRecord{Title: "Widget", Price: &price}
		if got := c.keep(rec, false); got != tt.want {
			t.Errorf("keep(price=%v): got %v, want %v", tt.price, got, tt.want)
		}
	}

	// A record with no price field at all is retained; a present but
	// unparseable price is not.
	if !c.keep(models.CleanRecord{Title: "Widget"}, true) {
		t.Error("keep(absent price): got false, want true")
	}
	if c.keep(models.CleanRecord{Title: "Widget"}, false) {
		t.Error("keep(null price): got true, want false")
	}
}

func TestCleanLines(t *testing.T) {
	c := NewCleaner(newTestLogger(), testRules())

	input := strings.Join([]string{
		`{"title":"Widget","price":"$1,299.00","url":"https://example.com/w","fetch_time":"2023-01-05T10:00:00"}`,
		`not json at all`,
		`{"title":"Robot Check","price":"$500","url":"https://example.com/r"}`,
		`{"title":"Gadget","price":"No Price Found","url":"https://example.com/g"}`,
		``,
		`{"title":"Doohickey","price":"$150","url":"https://example.com/d","fetch_time":"garbage"}`,
	}, "\n")

	got := c.CleanLines(bufio.NewScanner(strings.NewReader(input)))
	if len(got) != 2 {
		t.Fatalf("CleanLines: got %d records, want 2", len(got))
	}

	if got[0].Title != "Widget" || got[0].Price == nil || *got[0].Price != 1299.00 {
		t.Errorf("first record: got %+v, want Widget @ 1299.00", got[0])
	}
	if got[0].FetchTime == nil || *got[0].FetchTime != "2023-01-05T10:00:00" {
		t.Errorf("first record fetch_time: got %v", got[0].FetchTime)
	}

	// Unparseable fetch_time nulls the field but keeps the record.
	if got[1].Title != "Doohickey" || got[1].FetchTime != nil {
		t.Errorf("second record: got %+v, want Doohickey with nil fetch_time", got[1])
	}
}
