// Package classify maps free-text NCR descriptions and discipline tags to
// structured dimensions: pour labels, discipline category and tower/site.
// Every function is pure; each pattern tier is independently testable and
// the tiers compose first-match-wins.
package classify

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/eden-ncr/backend/internal/models"
)

const (
	PourCommon   = "Common"
	SiteCommon   = "Common_Area"
	SiteEdenClub = "Eden-Club"

	maxPourNumber = 50
	maxRangeSpan  = 20
)

var (
	commonMarkerRe = regexp.MustCompile(`(?i)common area|flat\s*no`)
	pourRangeRe    = regexp.MustCompile(`(?i)(?:pour|p)[-\s]*(\d+)[-\s]*(?:to|-)[-\s]*(\d+)`)
	pourListRe     = regexp.MustCompile(`(?i)(?:pour|p)[-\s]*([0-9,\s&and]+)`)
	pourSingleRe   = regexp.MustCompile(`(?i)(?:pour|p)[-\s]*(\d+)`)
	rangeContRe    = regexp.MustCompile(`^\s*(?:to|-)\s*\d+`)
	digitsRe       = regexp.MustCompile(`\d+`)

	towerRe       = regexp.MustCompile(`(?i)(tower|t)\s*-?\s*(\d+)`)
	twoTowerRe    = regexp.MustCompile(`(?i)(tower|t)\s*-?\s*(\d+)\s*([,&]|and)\s*(tower|t)?\s*-?\s*(\d+)`)
	flatNoRe      = regexp.MustCompile(`(?i)flat\s*no`)
	safetyTowerRe = regexp.MustCompile(`(?i)(?:eden-)?(?:tower|t)\s*-?\s*(\d+|2021|28)`)
	towerCommonRe = regexp.MustCompile(`(?i)(?:eden-)?tower-(\d+)(?:-(\d+))?-commonarea`)
)

// ExtractPours returns the set of pour labels referenced by a description.
// Tier order: common/flat-no marker, numeric range, comma list, individual
// reference. The first tier yielding labels wins; an unmatched description
// maps to the Common sentinel.
func ExtractPours(description string) []string {
	desc := strings.ToLower(description)
	if commonMarkerRe.MatchString(desc) {
		return []string{PourCommon}
	}

	pours := map[string]bool{}
	expandRanges(desc, pours)
	if len(pours) == 0 {
		collectLists(desc, pours)
	}
	if len(pours) == 0 {
		collectSingles(desc, pours)
	}
	if len(pours) == 0 {
		return []string{PourCommon}
	}

	out := make([]string, 0, len(pours))
	for p := range pours {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// expandRanges handles "pour 3 to 6", "P1-8". Ranges wider than maxRangeSpan
// or inverted ranges are rejected and fall through to the next tier.
func expandRanges(desc string, pours map[string]bool) {
	for _, m := range pourRangeRe.FindAllStringSubmatch(desc, -1) {
		start, err1 := strconv.Atoi(m[1])
		end, err2 := strconv.Atoi(m[2])
		if err1 != nil || err2 != nil {
			continue
		}
		if start <= end && end-start <= maxRangeSpan {
			for i := start; i <= end; i++ {
				pours[fmt.Sprintf("P%d", i)] = true
			}
		}
	}
}

// collectLists handles "pour 1,2, 3 & 4" and "P1, 2 and 5".
func collectLists(desc string, pours map[string]bool) {
	for _, m := range pourListRe.FindAllStringSubmatch(desc, -1) {
		for _, num := range digitsRe.FindAllString(m[1], -1) {
			n, err := strconv.Atoi(num)
			if err == nil && n <= maxPourNumber {
				pours[fmt.Sprintf("P%d", n)] = true
			}
		}
	}
}

// collectSingles handles lone "pour 5" / "P7" references. A match followed
// by a range continuation ("to 9", "-9") belongs to the range tier and is
// skipped; Go's regexp has no lookahead, so the tail is checked explicitly.
func collectSingles(desc string, pours map[string]bool) {
	for _, idx := range pourSingleRe.FindAllStringSubmatchIndex(desc, -1) {
		rest := desc[idx[1]:]
		if rangeContRe.MatchString(rest) {
			continue
		}
		n, err := strconv.Atoi(desc[idx[2]:idx[3]])
		if err == nil && n <= maxPourNumber {
			pours[fmt.Sprintf("P%d", n)] = true
		}
	}
}

// CategorizeDiscipline maps a raw discipline tag to a category. The second
// return is false when the record must be skipped entirely (empty tag or the
// literal "none").
func CategorizeDiscipline(tag string) (models.DisciplineCategory, bool) {
	d := strings.ToLower(strings.TrimSpace(tag))
	switch {
	case d == "" || d == "none":
		return "", false
	case strings.Contains(d, "hse"):
		return models.CategoryHSE, true
	case strings.Contains(d, "structure") || strings.Contains(d, "sw"):
		return models.CategorySW, true
	case strings.Contains(d, "civil") || strings.Contains(d, "finishing") || strings.Contains(d, "fw"):
		return models.CategoryFW, true
	default:
		return models.CategoryMEP, true
	}
}

// ResolveTower maps a description to a site identifier for NCR aggregation.
// Priority: clubhouse phrase, two-tower common area, flat-no with a tower
// number, explicit common area or no tower match, first tower match.
func ResolveTower(description string) string {
	desc := strings.ToLower(description)

	for _, phrase := range []string{"eden clubhouse", "eden-clubhouse", "eden club"} {
		if strings.Contains(desc, phrase) {
			return SiteEdenClub
		}
	}

	if m := twoTowerRe.FindStringSubmatch(desc); m != nil {
		return fmt.Sprintf("Eden-Tower-%s-%s-CommonArea", pad2(m[2]), pad2(m[5]))
	}

	towerMatch := towerRe.FindStringSubmatch(desc)
	if flatNoRe.MatchString(desc) && towerMatch != nil {
		return "Eden-Tower-" + pad2(towerMatch[2])
	}
	if strings.Contains(desc, "common area") || towerMatch == nil {
		return SiteCommon
	}
	return "Eden-Tower-" + pad2(towerMatch[2])
}

// ResolveSafetySites maps a description to one or more display sites for the
// Safety/Housekeeping paths. A compound tower common-area identifier
// ("tower-04-05-commonarea") fans out to both towers: the underlying record
// contributes to each tower's totals while remaining a single entity in the
// listing it came from.
func ResolveSafetySites(description string) []string {
	desc := strings.ToLower(description)

	if m := towerCommonRe.FindStringSubmatch(desc); m != nil {
		sites := []string{"Eden-Tower " + pad2(m[1])}
		if m[2] != "" {
			sites = append(sites, "Eden-Tower "+pad2(m[2]))
		}
		return sites
	}
	if strings.Contains(desc, "commonarea") || strings.Contains(desc, "common area") {
		return []string{SiteCommon}
	}
	if m := safetyTowerRe.FindStringSubmatch(desc); m != nil {
		return []string{"Eden-Tower " + pad2(m[1])}
	}
	return []string{SiteCommon}
}

func pad2(num string) string {
	if len(num) == 1 {
		return "0" + num
	}
	return num
}
