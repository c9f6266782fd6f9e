// Package normalize turns raw source rows into cleaned, classified,
// deduplicated records ready for aggregation.
package normalize

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/eden-ncr/backend/internal/classify"
	"github.com/eden-ncr/backend/internal/models"
)

var (
	// ErrEmptyInput reports a nil or empty source table.
	ErrEmptyInput = errors.New("input table is empty")
	// ErrMissingUntil reports a missing cutoff date for an Open NCR report.
	ErrMissingUntil = errors.New("until date is required for open report")
	// ErrInvalidDateRange wraps unparseable date parameters.
	ErrInvalidDateRange = errors.New("invalid date range")
)

// Aging thresholds in days. NCR reports track records outstanding beyond
// three weeks; Safety and Housekeeping beyond one week.
const (
	NCRAgeDays     = 21
	KeywordAgeDays = 7
)

// KeywordKind selects the Safety or Housekeeping filter variant.
type KeywordKind int

const (
	KindSafety KeywordKind = iota
	KindHousekeeping
)

// Params bounds one normalization run. Start/End window Closed reports
// (creation date lower bound, close date upper bound); Until is the age
// reference for Open reports. Now anchors the Safety/Housekeeping Open age
// computation, which the source system pins to the invocation date.
type Params struct {
	Report models.ReportType
	Start  time.Time
	End    time.Time
	Until  time.Time
	Now    time.Time
	// AgeRef overrides Until as the Open-report age reference. The keyword
	// paths set it to Now: an until-date only bounds creation there.
	AgeRef time.Time
}

// NCR filters, classifies and deduplicates records for the Open or Closed
// NCR report. A zero-survivor run returns an empty slice and a nil error:
// callers must treat "no matches" and "bad input" differently.
func NCR(rows []models.RawRecord, p Params) ([]models.NormalizedRecord, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyInput
	}
	if p.Report != models.ReportOpen && p.Report != models.ReportClosed {
		return nil, fmt.Errorf("invalid report type %q", p.Report)
	}
	if p.Report == models.ReportOpen && p.Until.IsZero() {
		return nil, ErrMissingUntil
	}

	var out []models.NormalizedRecord
	seen := map[string]bool{}
	for _, row := range rows {
		rec, ok := normalizeOne(row, p, NCRAgeDays)
		if !ok {
			continue
		}
		cat, keep := classify.CategorizeDiscipline(row.Discipline)
		if !keep {
			continue
		}
		rec.Category = cat
		if cat == models.CategoryHSE {
			// HSE records belong to the Safety/Housekeeping paths only.
			continue
		}
		rec.Tower = classify.ResolveTower(rec.Description)
		rec.Pours = classify.ExtractPours(rec.Description)

		key := dedupKey(rec)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, rec)
	}
	return out, nil
}

// Keyword filters records for the Safety or Housekeeping report: HSE
// discipline (strictly for Housekeeping, or a safety keyword match for
// Safety), keyword match, age beyond seven days, deduplicated by
// description. Compound common-area descriptions fan out to one record per
// tower.
func Keyword(rows []models.RawRecord, p Params, kind KeywordKind) ([]models.NormalizedRecord, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyInput
	}

	var out []models.NormalizedRecord
	seen := map[string]bool{}
	for _, row := range rows {
		isHSE := strings.Contains(strings.ToLower(row.Discipline), "hse")
		switch kind {
		case KindHousekeeping:
			if !isHSE || !classify.IsHousekeeping(row.Description) {
				continue
			}
		case KindSafety:
			if !isHSE && !classify.IsSafety(row.Description) {
				continue
			}
		}

		rec, ok := normalizeOne(row, keywordParams(p), KeywordAgeDays)
		if !ok {
			continue
		}
		rec.Category = models.CategoryHSE
		rec.Discipline = "HSE"

		if seen[rec.Description] {
			continue
		}
		seen[rec.Description] = true

		for _, site := range classify.ResolveSafetySites(rec.Description) {
			fanned := rec
			fanned.Tower = site
			out = append(out, fanned)
		}
	}
	return out, nil
}

// keywordParams pins the Open age reference to the invocation date. The
// until-date, when given, only bounds creation.
func keywordParams(p Params) Params {
	if p.Report == models.ReportOpen {
		if p.Until.IsZero() {
			p.Until = p.Now
		}
		p.AgeRef = p.Now
	}
	return p
}

func normalizeOne(row models.RawRecord, p Params, minAge int) (models.NormalizedRecord, bool) {
	if row.Created == nil {
		return models.NormalizedRecord{}, false
	}
	desc := StripHTML(row.Description)
	if desc == "" {
		return models.NormalizedRecord{}, false
	}

	rec := models.NormalizedRecord{
		Description: desc,
		Discipline:  strings.TrimSpace(row.Discipline),
		Created:     *row.Created,
		Status:      row.Status,
	}

	switch p.Report {
	case models.ReportClosed:
		if row.Status != models.StatusClosed || row.Closed == nil {
			return models.NormalizedRecord{}, false
		}
		rec.Closed = *row.Closed
		rec.AgeDays = daysBetween(rec.Created, rec.Closed)
		if rec.AgeDays <= minAge {
			return models.NormalizedRecord{}, false
		}
		if !p.Start.IsZero() && rec.Created.Before(p.Start) {
			return models.NormalizedRecord{}, false
		}
		if !p.End.IsZero() && rec.Closed.After(p.End) {
			return models.NormalizedRecord{}, false
		}
	case models.ReportOpen:
		if row.Status != models.StatusOpen {
			return models.NormalizedRecord{}, false
		}
		if !p.Until.IsZero() && rec.Created.After(p.Until) {
			return models.NormalizedRecord{}, false
		}
		ref := p.Until
		if !p.AgeRef.IsZero() {
			ref = p.AgeRef
		}
		rec.AgeDays = daysBetween(rec.Created, ref)
		if rec.AgeDays <= minAge {
			return models.NormalizedRecord{}, false
		}
	default:
		return models.NormalizedRecord{}, false
	}
	return rec, true
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

// dedupKey projects a record onto its fully-normalized field tuple; two
// records with an identical tuple collapse to one.
func dedupKey(r models.NormalizedRecord) string {
	pours := append([]string(nil), r.Pours...)
	sort.Strings(pours)
	return strings.Join([]string{
		r.Description,
		r.Discipline,
		string(r.Category),
		r.Created.Format("2006-01-02"),
		r.Closed.Format("2006-01-02"),
		string(r.Status),
		r.Tower,
		strings.Join(pours, ","),
	}, "|")
}

// ParseDate accepts the date formats the HTTP layer and source API use.
// A failure is reported as ErrInvalidDateRange so report handlers can map it
// to a client error.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{"2006-01-02", "2006/01/02", "02-Jan-2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateRange, s)
}
