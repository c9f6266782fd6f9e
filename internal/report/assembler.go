// Package report folds aggregates into the site-by-category cross-tab and
// renders the xlsx workbooks.
package report

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/eden-ncr/backend/internal/models"
)

// Standard site rosters. The NCR summary uses short tower names; the
// Safety/Housekeeping summaries use the padded project names.
var (
	NCRSites     = []string{"Tower 4", "Tower 5", "Tower 6", "Tower 7", "Common_Area"}
	KeywordSites = []string{"Eden-Tower 04", "Eden-Tower 05", "Eden-Tower 06", "Eden-Tower 07", "Common_Area"}
	PourLevels   = []string{"Pour 1", "Pour 2"}
)

// Summary column order.
var Categories = []string{"Civil Finishing", "Structure Works", "MEP"}

var (
	towerCommonKeyRe = regexp.MustCompile(`(?i)(?:eden-)?tower-(\d+)(?:-(\d+))?-commonarea`)
	towerKeyRe       = regexp.MustCompile(`(?i)(?:eden-)?(?:tower|t)[- ]?(\d+)`)
)

// NormalizeSiteKey maps an aggregation site key onto roster names. A
// compound common-area key ("Eden-Tower-04-05-CommonArea") maps to both
// towers; unrecognized keys pass through unchanged.
func NormalizeSiteKey(site string, padded bool) []string {
	format := func(n int) string {
		if padded {
			return fmt.Sprintf("Eden-Tower %02d", n)
		}
		return fmt.Sprintf("Tower %d", n)
	}

	if m := towerCommonKeyRe.FindStringSubmatch(site); m != nil {
		first, _ := strconv.Atoi(m[1])
		if m[2] != "" {
			second, _ := strconv.Atoi(m[2])
			return []string{format(first), format(second)}
		}
		return []string{format(first)}
	}
	if strings.Contains(site, "CommonArea") || strings.Contains(site, "Common Area") {
		return []string{"Common_Area"}
	}
	if m := towerKeyRe.FindStringSubmatch(site); m != nil {
		n, _ := strconv.Atoi(m[1])
		return []string{format(n)}
	}
	return []string{site}
}

func isTowerCommonKey(site string) bool {
	return towerCommonKeyRe.MatchString(site)
}

// MapPourToLevel folds pour spellings onto the two tracked pour levels.
// Anything else, including higher pour numbers, lands in the common bucket.
func MapPourToLevel(pour string) string {
	s := strings.ToLower(strings.TrimSpace(pour))
	var numPart string
	switch {
	case strings.HasPrefix(s, "module "):
		numPart = strings.TrimPrefix(s, "module ")
	case strings.HasPrefix(s, "pour "):
		numPart = strings.TrimPrefix(s, "pour ")
	default:
		numPart = s
	}
	if n, err := strconv.Atoi(numPart); err == nil && n >= 1 && n <= len(PourLevels) {
		return fmt.Sprintf("Pour %d", n)
	}
	return "common"
}

// CategoryCounts is one cross-tab cell group in summary column order.
type CategoryCounts struct {
	CivilFinishing int
	StructureWorks int
	MEP            int
}

// add buckets a discipline tag. Unknown tags count as structure works,
// matching how unclassified remote output has always been handled.
func (c *CategoryCounts) add(tag string) {
	switch tag {
	case "FW":
		c.CivilFinishing++
	case "MEP", "HSE":
		c.MEP++
	default:
		c.StructureWorks++
	}
}

func (c CategoryCounts) Total() int {
	return c.CivilFinishing + c.StructureWorks + c.MEP
}

// Column returns the count for a summary column name.
func (c CategoryCounts) Column(name string) int {
	switch name {
	case "Civil Finishing":
		return c.CivilFinishing
	case "Structure Works":
		return c.StructureWorks
	case "MEP":
		return c.MEP
	}
	return 0
}

// PourBreakdown holds one pour level's resolved and open counts.
type PourBreakdown struct {
	Resolved CategoryCounts
	Open     CategoryCounts
}

func (p PourBreakdown) Total() int {
	return p.Resolved.Total() + p.Open.Total()
}

// NCRSiteRow is one site's slice of the NCR summary. Tower rows break out
// per pour level plus a common-description bucket; the Common_Area row has
// site-level counts only.
type NCRSiteRow struct {
	Site     string
	Resolved CategoryCounts
	Open     CategoryCounts
	Pours    map[string]*PourBreakdown
	Common   PourBreakdown
	HasPours bool
}

func (r NCRSiteRow) Total() int {
	return r.Resolved.Total() + r.Open.Total()
}

// NCRSummary is the assembled cross-tab for one resolved/open aggregate pair.
type NCRSummary struct {
	Rows []NCRSiteRow
}

// BuildNCRSummary distributes both aggregates over the standard site roster.
// Tower-specific common-area keys contribute to the owning tower's common
// bucket; plain common-area keys contribute to the Common_Area row.
func BuildNCRSummary(resolved, open *models.Aggregate) NCRSummary {
	var summary NCRSummary
	for _, site := range NCRSites {
		row := NCRSiteRow{Site: site, HasPours: site != "Common_Area", Pours: map[string]*PourBreakdown{}}
		for _, level := range PourLevels {
			row.Pours[level] = &PourBreakdown{}
		}

		accumulate(&row, resolved, site, false)
		accumulate(&row, open, site, true)

		if row.HasPours {
			for _, level := range PourLevels {
				pb := row.Pours[level]
				addCounts(&row.Resolved, pb.Resolved)
				addCounts(&row.Open, pb.Open)
			}
			addCounts(&row.Resolved, row.Common.Resolved)
			addCounts(&row.Open, row.Common.Open)
		}
		summary.Rows = append(summary.Rows, row)
	}
	return summary
}

func addCounts(dst *CategoryCounts, src CategoryCounts) {
	dst.CivilFinishing += src.CivilFinishing
	dst.StructureWorks += src.StructureWorks
	dst.MEP += src.MEP
}

func accumulate(row *NCRSiteRow, agg *models.Aggregate, site string, open bool) {
	if agg == nil {
		return
	}
	for key, bucket := range agg.Sites {
		if !containsString(NormalizeSiteKey(key, false), site) {
			continue
		}

		if site == "Common_Area" {
			if isTowerCommonKey(key) {
				continue
			}
			for _, d := range bucket.Disciplines {
				if open {
					row.Open.add(d)
				} else {
					row.Resolved.add(d)
				}
			}
			continue
		}

		if isTowerCommonKey(key) {
			for _, d := range bucket.Disciplines {
				side(&row.Common, open).add(d)
			}
			continue
		}

		for i, d := range bucket.Disciplines {
			pours := []string{"Common"}
			if i < len(bucket.Pours) && len(bucket.Pours[i]) > 0 {
				pours = bucket.Pours[i]
			}
			for _, pour := range pours {
				level := MapPourToLevel(pour)
				if pb, ok := row.Pours[level]; ok {
					side(pb, open).add(d)
				} else {
					side(&row.Common, open).add(d)
				}
			}
		}
	}
}

func side(pb *PourBreakdown, open bool) *CategoryCounts {
	if open {
		return &pb.Open
	}
	return &pb.Resolved
}

func containsString(in []string, s string) bool {
	for _, v := range in {
		if v == s {
			return true
		}
	}
	return false
}

// KeywordSummary is the per-site count table for a Safety or Housekeeping
// report. Counts cover the standard roster; keys that normalize onto a
// roster site are folded in.
type KeywordSummary struct {
	Report models.ReportType
	Counts map[string]int
	Total  int
}

func BuildKeywordSummary(agg *models.Aggregate) KeywordSummary {
	summary := KeywordSummary{Counts: map[string]int{}}
	if agg == nil {
		return summary
	}
	summary.Report = agg.Report
	for _, site := range KeywordSites {
		summary.Counts[site] = 0
	}
	for key, bucket := range agg.Sites {
		for _, norm := range NormalizeSiteKey(key, true) {
			summary.Counts[norm] += bucket.Count
		}
	}
	summary.Total = agg.GrandTotal
	return summary
}

// DetailRow is one flattened record line for a details sheet.
type DetailRow struct {
	Site        string
	Description string
	Created     string
	Closed      string
	Status      string
	Discipline  string
}

// DetailRows flattens an aggregate's per-site list columns. Compound
// common-area sites repeat their rows under each owning tower.
func DetailRows(agg *models.Aggregate, padded bool) []DetailRow {
	if agg == nil {
		return nil
	}
	var rows []DetailRow
	for key, bucket := range agg.Sites {
		for _, display := range NormalizeSiteKey(key, padded) {
			n := maxLen(bucket.Descriptions, bucket.CreatedDates, bucket.CloseDates, bucket.Statuses, bucket.Disciplines)
			for i := 0; i < n; i++ {
				rows = append(rows, DetailRow{
					Site:        display,
					Description: at(bucket.Descriptions, i),
					Created:     at(bucket.CreatedDates, i),
					Closed:      at(bucket.CloseDates, i),
					Status:      at(bucket.Statuses, i),
					Discipline:  at(bucket.Disciplines, i),
				})
			}
		}
	}
	return rows
}

func maxLen(lists ...[]string) int {
	n := 0
	for _, l := range lists {
		if len(l) > n {
			n = len(l)
		}
	}
	return n
}

func at(list []string, i int) string {
	if i < len(list) {
		return list[i]
	}
	return ""
}
