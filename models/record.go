package models

// Sentinel values emitted when no extraction strategy matched. They are
// legitimate field values, not absence markers; the cleaning filter knows
// about them.
const (
	NoTitleFound = "No Title Found"
	NoPriceFound = "No Price Found"
)

// CaptureRow is one row of a columnar capture batch: a URL, the time it was
// fetched, and the location of its archived response.
type CaptureRow struct {
	URL              string `parquet:"url"`
	FetchTime        string `parquet:"fetch_time"`
	WarcFilename     string `parquet:"warc_filename"`
	WarcRecordOffset int64  `parquet:"warc_record_offset"`
	WarcRecordLength int64  `parquet:"warc_record_length"`
}

// ArchiveLocator identifies exactly one archived HTTP response inside a
// web-archive container.
type ArchiveLocator struct {
	ContainerName string
	ByteOffset    int64
	ByteLength    int64
	URL           string
	FetchTimeRaw  string
}

// Locator builds the archive locator for this row.
func (r CaptureRow) Locator() ArchiveLocator {
	return ArchiveLocator{
		ContainerName: r.WarcFilename,
		ByteOffset:    r.WarcRecordOffset,
		ByteLength:    r.WarcRecordLength,
		URL:           r.URL,
		FetchTimeRaw:  r.FetchTime,
	}
}

// ExtractedRecord holds unprocessed scraped fields straight from the archived
// page. This is written as one NDJSON line per record before any cleaning.
type ExtractedRecord struct {
	Title     string  `json:"title"`
	Price     string  `json:"price"`
	URL       string  `json:"url"`
	FetchTime *string `json:"fetch_time,omitempty"`
}

// CleanRecord is the normalized, filtered record forming the canonical
// dataset. Price is nil when the raw price did not parse; FetchTime is an
// ISO-8601 string or nil.
type CleanRecord struct {
	Title     string   `json:"title"`
	Price     *float64 `json:"price"`
	URL       string   `json:"url,omitempty"`
	FetchTime *string  `json:"fetch_time"`
}

// Year returns the 4-character capture year, or "" when FetchTime is missing
// or too short.
func (c CleanRecord) Year() string {
	if c.FetchTime == nil || len(*c.FetchTime) < 4 {
		return ""
	}
	return (*c.FetchTime)[:4]
}
