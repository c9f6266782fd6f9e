package models

import "time"

type Status string

const (
	StatusOpen   Status = "Open"
	StatusClosed Status = "Closed"
)

type ReportType string

const (
	ReportOpen         ReportType = "Open"
	ReportClosed       ReportType = "Closed"
	ReportSafety       ReportType = "Safety"
	ReportHousekeeping ReportType = "Housekeeping"
)

type DisciplineCategory string

const (
	CategorySW  DisciplineCategory = "SW"
	CategoryFW  DisciplineCategory = "FW"
	CategoryMEP DisciplineCategory = "MEP"
	CategoryHSE DisciplineCategory = "HSE"
)

// RawRecord is one form submission as fetched from the source API.
// Dates may be absent when the source row carries no parseable value.
type RawRecord struct {
	Description string     `json:"description"`
	Discipline  string     `json:"discipline"`
	Created     *time.Time `json:"created"`
	Closed      *time.Time `json:"closed"`
	Status      Status     `json:"status"`
	// Days between creation and close, when both dates are present.
	Days *int `json:"days,omitempty"`
}

// NormalizedRecord is a cleaned, classified record owned by the normalizer.
type NormalizedRecord struct {
	Description string             `json:"description"`
	Discipline  string             `json:"discipline"`
	Category    DisciplineCategory `json:"category"`
	Created     time.Time          `json:"created"`
	Closed      time.Time          `json:"closed,omitempty"`
	Status      Status             `json:"status"`
	Tower       string             `json:"tower"`
	Pours       []string           `json:"pours"`
	AgeDays     int                `json:"age_days"`
}

// SiteBucket accumulates one site's share of an aggregation. NCR reports use
// the category counters and pour histogram; Safety/Housekeeping reports use
// Count. Total always reflects the number of records attributed to the site.
type SiteBucket struct {
	Descriptions []string       `json:"descriptions"`
	CreatedDates []string       `json:"created_dates"`
	CloseDates   []string       `json:"close_dates"`
	Statuses     []string       `json:"statuses"`
	Disciplines  []string       `json:"disciplines,omitempty"`
	Pours        [][]string     `json:"pours,omitempty"`
	SW           int            `json:"sw"`
	FW           int            `json:"fw"`
	MEP          int            `json:"mep"`
	Count        int            `json:"count"`
	Total        int            `json:"total"`
	PoursCount   map[string]int `json:"pours_count,omitempty"`
}

func NewSiteBucket() *SiteBucket {
	return &SiteBucket{PoursCount: map[string]int{}}
}

// Aggregate is the result of one report-type aggregation run.
// Invariant: the sum of site totals equals GrandTotal equals the number of
// records fed into the aggregation.
type Aggregate struct {
	Report     ReportType             `json:"report"`
	Sites      map[string]*SiteBucket `json:"sites"`
	GrandTotal int                    `json:"grand_total"`
}

func NewAggregate(report ReportType) *Aggregate {
	return &Aggregate{Report: report, Sites: map[string]*SiteBucket{}}
}

func (a *Aggregate) Site(name string) *SiteBucket {
	b, ok := a.Sites[name]
	if !ok {
		b = NewSiteBucket()
		a.Sites[name] = b
	}
	return b
}

// SitesTotal sums the per-site totals; used to cross-check GrandTotal.
func (a *Aggregate) SitesTotal() int {
	sum := 0
	for _, b := range a.Sites {
		sum += b.Total
	}
	return sum
}
