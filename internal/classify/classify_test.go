package classify

import (
	"reflect"
	"testing"

	"github.com/eden-ncr/backend/internal/models"
)

func TestExtractPoursRange(t *testing.T) {
	got := ExtractPours("Honeycombing observed in pour 3 to 6 slab")
	want := []string{"P3", "P4", "P5", "P6"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestExtractPoursList(t *testing.T) {
	got := ExtractPours("Rebar cover missing at P1, 2 and 4")
	want := []string{"P1", "P2", "P4"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestExtractPoursCommonMarkerShortCircuits(t *testing.T) {
	got := ExtractPours("common area pour 3 leakage")
	if !reflect.DeepEqual(got, []string{PourCommon}) {
		t.Fatalf("common marker must win over pour patterns, got %v", got)
	}
}

func TestExtractPoursWideRangeRejected(t *testing.T) {
	// Span over 20 is rejected; the list tier then picks up the first number.
	got := ExtractPours("defect in pour 1 to 99")
	if !reflect.DeepEqual(got, []string{"P1"}) {
		t.Fatalf("expected fallthrough to the next tier, got %v", got)
	}
}

func TestExtractPoursSingle(t *testing.T) {
	got := ExtractPours("Plaster cracks near pour 5 lift lobby")
	if !reflect.DeepEqual(got, []string{"P5"}) {
		t.Fatalf("expected [P5], got %v", got)
	}
}

func TestExtractPoursSingleSkipsRangeContinuation(t *testing.T) {
	got := ExtractPours("pour 3 to 6")
	if !reflect.DeepEqual(got, []string{"P3", "P4", "P5", "P6"}) {
		t.Fatalf("range must not be double counted as singles, got %v", got)
	}
}

func TestExtractPoursDefault(t *testing.T) {
	got := ExtractPours("Water seepage at basement ramp")
	if !reflect.DeepEqual(got, []string{PourCommon}) {
		t.Fatalf("expected default Common, got %v", got)
	}
}

func TestExtractPoursOverLimitNumber(t *testing.T) {
	got := ExtractPours("pour 51 shuttering")
	if !reflect.DeepEqual(got, []string{PourCommon}) {
		t.Fatalf("pour numbers above 50 are ignored, got %v", got)
	}
}

func TestCategorizeDiscipline(t *testing.T) {
	cases := []struct {
		tag  string
		want models.DisciplineCategory
		keep bool
	}{
		{"Structural Works", models.CategorySW, true},
		{"SW", models.CategorySW, true},
		{"Civil Finishing", models.CategoryFW, true},
		{"FW", models.CategoryFW, true},
		{"HSE Safety", models.CategoryHSE, true},
		{"Electrical", models.CategoryMEP, true},
		{"Plumbing", models.CategoryMEP, true},
		{"", "", false},
		{"none", "", false},
		{"  None  ", "", false},
	}
	for _, c := range cases {
		got, keep := CategorizeDiscipline(c.tag)
		if keep != c.keep || got != c.want {
			t.Fatalf("tag %q: expected (%s,%v), got (%s,%v)", c.tag, c.want, c.keep, got, keep)
		}
	}
}

func TestResolveTowerClubhouse(t *testing.T) {
	if got := ResolveTower("Leakage at Eden Clubhouse roof, tower 5 side"); got != SiteEdenClub {
		t.Fatalf("clubhouse phrase must win, got %s", got)
	}
}

func TestResolveTowerCombined(t *testing.T) {
	got := ResolveTower("Podium slab between Tower 4 & 5 honeycombing")
	if got != "Eden-Tower-04-05-CommonArea" {
		t.Fatalf("expected combined common-area id, got %s", got)
	}
}

func TestResolveTowerFlatNo(t *testing.T) {
	got := ResolveTower("Flat no 702 tower 7 door alignment")
	if got != "Eden-Tower-07" {
		t.Fatalf("expected Eden-Tower-07, got %s", got)
	}
}

func TestResolveTowerCommonArea(t *testing.T) {
	if got := ResolveTower("common area drainage blocked"); got != SiteCommon {
		t.Fatalf("expected %s, got %s", SiteCommon, got)
	}
	if got := ResolveTower("scaffolding not tied"); got != SiteCommon {
		t.Fatalf("no tower match must map to %s, got %s", SiteCommon, got)
	}
}

func TestResolveTowerSingle(t *testing.T) {
	if got := ResolveTower("T-6 level 12 column out of plumb"); got != "Eden-Tower-06" {
		t.Fatalf("expected Eden-Tower-06, got %s", got)
	}
}

func TestResolveSafetySitesFanOut(t *testing.T) {
	got := ResolveSafetySites("Eden-Tower-04-05-CommonArea handrail missing")
	want := []string{"Eden-Tower 04", "Eden-Tower 05"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected fan-out %v, got %v", want, got)
	}
}

func TestResolveSafetySitesSingle(t *testing.T) {
	got := ResolveSafetySites("tower 6 worker without helmet")
	if !reflect.DeepEqual(got, []string{"Eden-Tower 06"}) {
		t.Fatalf("expected [Eden-Tower 06], got %v", got)
	}
}

func TestResolveSafetySitesDefault(t *testing.T) {
	got := ResolveSafetySites("material stacked on access road")
	if !reflect.DeepEqual(got, []string{SiteCommon}) {
		t.Fatalf("expected default %s, got %v", SiteCommon, got)
	}
}

func TestKeywordMatching(t *testing.T) {
	if !IsHousekeeping("Pile of garbage near tower 5 gate") {
		t.Fatalf("expected housekeeping match")
	}
	if IsHousekeeping("Column reinforcement exposed") {
		t.Fatalf("unexpected housekeeping match")
	}
	if !IsSafety("Labour working at edge without safety belt") {
		t.Fatalf("expected safety match")
	}
	if IsSafety("Paint shade mismatch in lobby") {
		t.Fatalf("unexpected safety match")
	}
}
