package models

import "sort"

// DeviceType is the literal device_type value stored in the warehouse.
type DeviceType string

const (
	DevicePC     DeviceType = "PC"
	DeviceMobile DeviceType = "모바일"
)

// Devices lists every device type in load order.
var Devices = []DeviceType{DevicePC, DeviceMobile}

// Client is one managed corporate entity: a keyword spreadsheet plus a
// destination dataset named after it.
type Client struct {
	ID   string
	Name string
}

// RawKeywordRow holds one spreadsheet row as read, before any cleaning.
type RawKeywordRow struct {
	CorporateID string
	BrandID     string
	Keyword     string
	KeywordType string
	Categories  [5]string
}

// KeywordRecord is a cleaned, validated spreadsheet row.
type KeywordRecord struct {
	CorporateID string
	BrandID     string
	Keyword     string
	KeywordType string
	Categories  [5]string
}

// DailyCount is the query count for one day; Date is "YYYY-MM-DD".
type DailyCount struct {
	Date  string
	Count int64
}

// Series is a list of daily counts ordered by date.
type Series []DailyCount

// Sort orders the series by date in place.
func (s Series) Sort() {
	sort.Slice(s, func(i, j int) bool { return s[i].Date < s[j].Date })
}

// After returns the points strictly later than date. An empty date keeps
// every point.
func (s Series) After(date string) Series {
	out := make(Series, 0, len(s))
	for _, p := range s {
		if date == "" || p.Date > date {
			out = append(out, p)
		}
	}
	return out
}

// KeywordTrend is the analyzer output for one keyword.
type KeywordTrend struct {
	Desktop Series
	Mobile  Series
}

// ForDevice returns the series matching device.
func (k *KeywordTrend) ForDevice(device DeviceType) Series {
	if k == nil {
		return nil
	}
	if device == DeviceMobile {
		return k.Mobile
	}
	return k.Desktop
}

// LatestDates maps device type to keyword to the most recent stored date.
type LatestDates map[DeviceType]map[string]string

// Get returns the stored date for the pair, or "" when none is recorded.
func (l LatestDates) Get(device DeviceType, keyword string) string {
	if l == nil {
		return ""
	}
	return l[device][keyword]
}

// Set records date for the pair.
func (l LatestDates) Set(device DeviceType, keyword, date string) {
	if l[device] == nil {
		l[device] = make(map[string]string)
	}
	l[device][keyword] = date
}

// Len returns the number of (device, keyword) pairs.
func (l LatestDates) Len() int {
	n := 0
	for _, m := range l {
		n += len(m)
	}
	return n
}

// Row is one (keyword, device, date) record: the unit of storage.
type Row struct {
	CorporateID string     `bigquery:"corporate_id"`
	BrandID     string     `bigquery:"brand_id"`
	Date        string     `bigquery:"date"`
	Keyword     string     `bigquery:"keyword"`
	KeywordType string     `bigquery:"keyword_type"`
	Category1   string     `bigquery:"category_1"`
	Category2   string     `bigquery:"category_2"`
	Category3   string     `bigquery:"category_3"`
	Category4   string     `bigquery:"category_4"`
	Category5   string     `bigquery:"category_5"`
	DeviceType  DeviceType `bigquery:"device_type"`
	Queries     int64      `bigquery:"queries"`
}

// SyncMode says whether a client is loaded from scratch or topped up.
type SyncMode string

const (
	ModeBackfill    SyncMode = "backfill"
	ModeIncremental SyncMode = "incremental"
)
