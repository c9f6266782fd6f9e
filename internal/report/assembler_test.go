package report

import (
	"reflect"
	"testing"

	"github.com/eden-ncr/backend/internal/models"
)

func TestNormalizeSiteKey(t *testing.T) {
	cases := []struct {
		site   string
		padded bool
		want   []string
	}{
		{"Eden-Tower-04", false, []string{"Tower 4"}},
		{"Eden-Tower-04", true, []string{"Eden-Tower 04"}},
		{"Eden-Tower-04-CommonArea", false, []string{"Tower 4"}},
		{"Eden-Tower-04-05-CommonArea", false, []string{"Tower 4", "Tower 5"}},
		{"Eden-Tower-04-05-CommonArea", true, []string{"Eden-Tower 04", "Eden-Tower 05"}},
		{"Common_Area", false, []string{"Common_Area"}},
		{"Some CommonArea zone", false, []string{"Common_Area"}},
		{"tower 7", false, []string{"Tower 7"}},
		{"T-6", true, []string{"Eden-Tower 06"}},
		{"Warehouse", false, []string{"Warehouse"}},
	}
	for _, c := range cases {
		got := NormalizeSiteKey(c.site, c.padded)
		if !reflect.DeepEqual(got, c.want) {
			t.Fatalf("NormalizeSiteKey(%q, %v) = %v, want %v", c.site, c.padded, got, c.want)
		}
	}
}

func TestMapPourToLevel(t *testing.T) {
	cases := map[string]string{
		"Pour 1":   "Pour 1",
		"pour 2":   "Pour 2",
		"Module 1": "Pour 1",
		"2":        "Pour 2",
		"Pour 3":   "common",
		"Common":   "common",
		"":         "common",
		"misc":     "common",
	}
	for in, want := range cases {
		if got := MapPourToLevel(in); got != want {
			t.Fatalf("MapPourToLevel(%q) = %q, want %q", in, got, want)
		}
	}
}

func fixtureAggregates() (*models.Aggregate, *models.Aggregate) {
	resolved := models.NewAggregate(models.ReportClosed)
	t4 := resolved.Site("Eden-Tower-04")
	t4.Descriptions = []string{"honeycombing", "tile hollowness"}
	t4.CreatedDates = []string{"10-Jan-2025", "12-Jan-2025"}
	t4.CloseDates = []string{"20-Feb-2025", "25-Feb-2025"}
	t4.Statuses = []string{"Closed", "Closed"}
	t4.Disciplines = []string{"SW", "FW"}
	t4.Pours = [][]string{{"Pour 1"}, {"Common"}}
	t4.SW, t4.FW, t4.Total = 1, 1, 2

	t4c := resolved.Site("Eden-Tower-04-CommonArea")
	t4c.Descriptions = []string{"lobby cable dressing"}
	t4c.Disciplines = []string{"MEP"}
	t4c.MEP, t4c.Total = 1, 1

	ca := resolved.Site("Common_Area")
	ca.Descriptions = []string{"boundary wall crack"}
	ca.Disciplines = []string{"SW"}
	ca.SW, ca.Total = 1, 1
	resolved.GrandTotal = 4

	open := models.NewAggregate(models.ReportOpen)
	t5 := open.Site("Eden-Tower-05")
	t5.Descriptions = []string{"seepage"}
	t5.Disciplines = []string{"FW"}
	t5.Pours = [][]string{{"Pour 2"}}
	t5.FW, t5.Total = 1, 1
	open.GrandTotal = 1

	return resolved, open
}

func TestBuildNCRSummary(t *testing.T) {
	resolved, open := fixtureAggregates()
	summary := BuildNCRSummary(resolved, open)
	if len(summary.Rows) != len(NCRSites) {
		t.Fatalf("expected %d rows, got %d", len(NCRSites), len(summary.Rows))
	}

	t4 := summary.Rows[0]
	if t4.Site != "Tower 4" {
		t.Fatalf("row order must follow the roster, got %s", t4.Site)
	}
	if got := t4.Pours["Pour 1"].Resolved.StructureWorks; got != 1 {
		t.Fatalf("SW pour 1 record must land in the Pour 1 bucket, got %d", got)
	}
	if got := t4.Common.Resolved.CivilFinishing; got != 1 {
		t.Fatalf("FW record with Common pour must land in the common bucket, got %d", got)
	}
	if got := t4.Common.Resolved.MEP; got != 1 {
		t.Fatalf("tower common-area record must land in the common bucket, got %d", got)
	}
	if t4.Total() != 3 {
		t.Fatalf("tower 4 total must be 3, got %d", t4.Total())
	}

	t5 := summary.Rows[1]
	if got := t5.Pours["Pour 2"].Open.CivilFinishing; got != 1 {
		t.Fatalf("open FW record must land in tower 5 pour 2, got %d", got)
	}

	ca := summary.Rows[len(summary.Rows)-1]
	if ca.Site != "Common_Area" || ca.HasPours {
		t.Fatalf("last row must be Common_Area without pour rows, got %+v", ca)
	}
	if ca.Resolved.StructureWorks != 1 || ca.Total() != 1 {
		t.Fatalf("general common-area record must count under Common_Area, got %+v", ca)
	}
}

func TestBuildKeywordSummary(t *testing.T) {
	agg := models.NewAggregate(models.ReportSafety)
	agg.Site("Eden-Tower 04").Count = 2
	agg.Site("Eden-Tower-06-07-CommonArea").Count = 1
	agg.GrandTotal = 4

	summary := BuildKeywordSummary(agg)
	if summary.Counts["Eden-Tower 04"] != 2 {
		t.Fatalf("tower counts must carry over, got %d", summary.Counts["Eden-Tower 04"])
	}
	if summary.Counts["Eden-Tower 06"] != 1 || summary.Counts["Eden-Tower 07"] != 1 {
		t.Fatalf("compound common area must credit both towers, got %v", summary.Counts)
	}
	if summary.Counts["Eden-Tower 05"] != 0 {
		t.Fatalf("roster sites must default to zero, got %d", summary.Counts["Eden-Tower 05"])
	}
	if summary.Total != 4 {
		t.Fatalf("total must mirror the aggregate grand total, got %d", summary.Total)
	}
}

func TestDetailRowsFanOut(t *testing.T) {
	agg := models.NewAggregate(models.ReportSafety)
	b := agg.Site("Eden-Tower-06-07-CommonArea")
	b.Descriptions = []string{"guard rails missing"}
	b.CreatedDates = []string{"10-Jan-2025"}
	b.Statuses = []string{"Open"}

	rows := DetailRows(agg, true)
	if len(rows) != 2 {
		t.Fatalf("compound site must repeat rows per tower, got %d", len(rows))
	}
	if rows[0].Site == rows[1].Site {
		t.Fatalf("fan-out sites must differ, got %s twice", rows[0].Site)
	}
	if rows[0].Closed != "" {
		t.Fatalf("missing close dates must pad as empty, got %q", rows[0].Closed)
	}
}
