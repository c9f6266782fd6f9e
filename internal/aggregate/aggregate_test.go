package aggregate

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/eden-ncr/backend/internal/models"
	"github.com/eden-ncr/backend/internal/watsonx"
)

func rec(desc, tower string, cat models.DisciplineCategory, pours ...string) models.NormalizedRecord {
	if pours == nil {
		pours = []string{"Common"}
	}
	return models.NormalizedRecord{
		Description: desc,
		Discipline:  "Structural Works",
		Category:    cat,
		Created:     time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
		Status:      models.StatusOpen,
		Tower:       tower,
		Pours:       pours,
		AgeDays:     30,
	}
}

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{`{"a":1}`, `{"a":1}`, true},
		{"```json\n{\"a\":1}\n```", `{"a":1}`, true},
		{`noise before {"a":{"b":2}} noise after`, `{"a":{"b":2}}`, true},
		{`{"s":"brace } in string"}`, `{"s":"brace } in string"}`, true},
		{`no json here`, "", false},
		{`{"unbalanced":`, "", false},
	}
	for _, c := range cases {
		got, ok := ExtractJSON(c.in)
		if ok != c.ok || got != c.want {
			t.Fatalf("ExtractJSON(%q) = %q, %v; want %q, %v", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestRunEmptyInput(t *testing.T) {
	a := &Aggregator{Completer: &watsonx.MockCompleter{}}
	agg, err := a.Run(context.Background(), models.ReportOpen, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if agg.GrandTotal != 0 || len(agg.Sites) != 0 {
		t.Fatalf("empty input must yield empty aggregate, got %+v", agg)
	}
}

func TestRunMergesRemoteChunks(t *testing.T) {
	mock := &watsonx.MockCompleter{Func: func(_ string, _ watsonx.Params) (string, error) {
		return `{"Open":{"Sites":{"Tower 4":{
			"Descriptions":["honeycombing"],
			"Created Date (WET)":["10-Jan-2025"],
			"Expected Close Date (WET)":[""],
			"Status":["Open"],
			"Discipline":["Structural Works"],
			"Pours":[["Pour 1"]],
			"SW":2,"FW":0,"MEP":0,"Total":2,
			"PoursCount":{"Pour 1":2}
		}},"Grand_Total":2}}`, nil
	}}
	a := &Aggregator{Completer: mock, NCRChunkSize: 2}

	recs := []models.NormalizedRecord{
		rec("honeycombing a", "Tower 4", models.CategorySW, "Pour 1"),
		rec("honeycombing b", "Tower 4", models.CategorySW, "Pour 1"),
		rec("honeycombing c", "Tower 4", models.CategorySW, "Pour 1"),
		rec("honeycombing d", "Tower 4", models.CategorySW, "Pour 1"),
	}
	agg, err := a.Run(context.Background(), models.ReportOpen, recs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mock.Calls != 2 {
		t.Fatalf("expected 2 chunk calls, got %d", mock.Calls)
	}
	b := agg.Sites["Tower 4"]
	if b == nil || b.SW != 4 || b.Total != 4 {
		t.Fatalf("remote chunks must accumulate, got %+v", b)
	}
	if b.PoursCount["Pour 1"] != 4 {
		t.Fatalf("pour histogram must accumulate, got %v", b.PoursCount)
	}
	if agg.GrandTotal != 4 {
		t.Fatalf("grand total must equal record count, got %d", agg.GrandTotal)
	}
}

func TestRunGrandTotalIgnoresRemoteClaim(t *testing.T) {
	mock := &watsonx.MockCompleter{
		Response: `{"Open":{"Sites":{"Tower 5":{"Descriptions":[],"Created Date (WET)":[],
			"Expected Close Date (WET)":[],"Status":[],"Discipline":[],"Pours":[],
			"SW":1,"FW":0,"MEP":0,"Total":1,"PoursCount":{}}},"Grand_Total":999}}`,
	}
	a := &Aggregator{Completer: mock}
	agg, err := a.Run(context.Background(), models.ReportOpen, []models.NormalizedRecord{
		rec("leak", "Tower 5", models.CategorySW),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if agg.GrandTotal != 1 {
		t.Fatalf("inflated remote total must be ignored, got %d", agg.GrandTotal)
	}
}

func TestRunFallsBackOnCompleterError(t *testing.T) {
	mock := &watsonx.MockCompleter{Func: func(string, watsonx.Params) (string, error) {
		return "", errors.New("upstream down")
	}}
	a := &Aggregator{Completer: mock}
	recs := []models.NormalizedRecord{
		rec("honeycombing", "Eden-Tower-04", models.CategorySW, "Pour 1"),
		rec("tile hollowness", "Eden-Tower-04", models.CategoryFW, "Pour 2"),
		rec("cable dressing", "Eden-Tower-05", models.CategoryMEP),
	}
	agg, err := a.Run(context.Background(), models.ReportOpen, recs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t4 := agg.Sites["Eden-Tower-04"]
	if t4 == nil || t4.SW != 1 || t4.FW != 1 || t4.Total != 2 {
		t.Fatalf("local fallback must recount the chunk, got %+v", t4)
	}
	if t4.PoursCount["Pour 1"] != 1 || t4.PoursCount["Pour 2"] != 1 {
		t.Fatalf("local fallback must build the pour histogram, got %v", t4.PoursCount)
	}
	if agg.GrandTotal != 3 || agg.SitesTotal() != 3 {
		t.Fatalf("fallback totals must match record count, got grand=%d sites=%d", agg.GrandTotal, agg.SitesTotal())
	}
}

func TestRunFallsBackOnMalformedJSON(t *testing.T) {
	mock := &watsonx.MockCompleter{Response: "here is some python code instead of json"}
	a := &Aggregator{Completer: mock}
	agg, err := a.Run(context.Background(), models.ReportClosed, []models.NormalizedRecord{
		rec("plaster crack", "Eden-Tower-06", models.CategoryFW),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if agg.GrandTotal != 1 || agg.Sites["Eden-Tower-06"].FW != 1 {
		t.Fatalf("malformed response must trigger local recount, got %+v", agg)
	}
}

func TestRunChunkBoundaries(t *testing.T) {
	mock := &watsonx.MockCompleter{Func: func(string, watsonx.Params) (string, error) {
		return "", errors.New("force local path")
	}}
	a := &Aggregator{Completer: mock, NCRChunkSize: 20}
	recs := make([]models.NormalizedRecord, 25)
	for i := range recs {
		recs[i] = rec(fmt.Sprintf("defect %d", i), "Eden-Tower-07", models.CategorySW)
	}
	agg, err := a.Run(context.Background(), models.ReportOpen, recs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mock.Calls != 2 {
		t.Fatalf("25 records at chunk size 20 must need 2 chunks, got %d", mock.Calls)
	}
	if agg.GrandTotal != 25 || agg.SitesTotal() != 25 {
		t.Fatalf("totals must cover every record, got grand=%d sites=%d", agg.GrandTotal, agg.SitesTotal())
	}
}

func TestRunFallbackMatchesRemotePath(t *testing.T) {
	recs := []models.NormalizedRecord{
		rec("honeycombing", "Eden-Tower-04", models.CategorySW, "Pour 1"),
		rec("tile hollowness", "Eden-Tower-04", models.CategoryFW, "Pour 2"),
	}

	local := &Aggregator{Completer: &watsonx.MockCompleter{Func: func(string, watsonx.Params) (string, error) {
		return "", errors.New("forced")
	}}}
	localAgg, err := local.Run(context.Background(), models.ReportOpen, recs)
	if err != nil {
		t.Fatalf("local run: %v", err)
	}

	// A well-formed remote response describing the same grouping.
	remote := &Aggregator{Completer: &watsonx.MockCompleter{
		Response: `{"Open":{"Sites":{"Eden-Tower-04":{
			"Descriptions":["honeycombing","tile hollowness"],
			"Created Date (WET)":["10-Jan-2025","10-Jan-2025"],
			"Expected Close Date (WET)":["",""],
			"Status":["Open","Open"],
			"Discipline":["Structural Works","Structural Works"],
			"Pours":[["Pour 1"],["Pour 2"]],
			"SW":1,"FW":1,"MEP":0,"Total":2,
			"PoursCount":{"Pour 1":1,"Pour 2":1}
		}},"Grand_Total":2}}`,
	}}
	remoteAgg, err := remote.Run(context.Background(), models.ReportOpen, recs)
	if err != nil {
		t.Fatalf("remote run: %v", err)
	}

	lb, rb := localAgg.Sites["Eden-Tower-04"], remoteAgg.Sites["Eden-Tower-04"]
	if lb.SW != rb.SW || lb.FW != rb.FW || lb.MEP != rb.MEP || lb.Total != rb.Total {
		t.Fatalf("fallback counts must match the remote path: local %+v remote %+v", lb, rb)
	}
	if localAgg.GrandTotal != remoteAgg.GrandTotal {
		t.Fatalf("grand totals must match: %d vs %d", localAgg.GrandTotal, remoteAgg.GrandTotal)
	}
}

func TestRunMixedRemoteAndFallbackChunks(t *testing.T) {
	calls := 0
	mock := &watsonx.MockCompleter{Func: func(string, watsonx.Params) (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("timeout")
		}
		return `{"Open":{"Sites":{"Eden-Tower-07":{
			"Descriptions":[],"Created Date (WET)":[],"Expected Close Date (WET)":[],
			"Status":[],"Discipline":[],"Pours":[],
			"SW":5,"FW":0,"MEP":0,"Total":5,"PoursCount":{}
		}},"Grand_Total":5}}`, nil
	}}
	a := &Aggregator{Completer: mock, NCRChunkSize: 20}
	recs := make([]models.NormalizedRecord, 25)
	for i := range recs {
		recs[i] = rec(fmt.Sprintf("defect %d", i), "Eden-Tower-07", models.CategorySW)
	}
	agg, err := a.Run(context.Background(), models.ReportOpen, recs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if agg.GrandTotal != 25 {
		t.Fatalf("fallback chunk plus remote chunk must cover all 25 records, got %d", agg.GrandTotal)
	}
	if agg.Sites["Eden-Tower-07"].Total != 25 {
		t.Fatalf("site total must cover both paths, got %d", agg.Sites["Eden-Tower-07"].Total)
	}
}

func TestRunKeywordDedupsSiteLists(t *testing.T) {
	mock := &watsonx.MockCompleter{Func: func(string, watsonx.Params) (string, error) {
		return "", errors.New("force local path")
	}}
	a := &Aggregator{Completer: mock, KeywordChunkSize: 1}
	r := rec("garbage pile at gate", "Eden-Tower 04", models.CategoryHSE)
	agg, err := a.Run(context.Background(), models.ReportHousekeeping, []models.NormalizedRecord{r, r})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b := agg.Sites["Eden-Tower 04"]
	if len(b.Descriptions) != 1 {
		t.Fatalf("repeated descriptions must collapse after merge, got %v", b.Descriptions)
	}
	if b.Count != 2 || agg.GrandTotal != 2 {
		t.Fatalf("counts are not deduplicated, got count=%d grand=%d", b.Count, agg.GrandTotal)
	}
}

func TestRunKeywordRemoteCount(t *testing.T) {
	mock := &watsonx.MockCompleter{
		Response: `{"Safety":{"Sites":{"Eden-Tower 06":{"Descriptions":["no helmet"],
			"Created Date (WET)":["10-Jan-2025"],"Expected Close Date (WET)":[""],
			"Status":["Open"],"Count":1}},"Grand_Total":1}}`,
	}
	a := &Aggregator{Completer: mock}
	agg, err := a.Run(context.Background(), models.ReportSafety, []models.NormalizedRecord{
		rec("no helmet", "Eden-Tower 06", models.CategoryHSE),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b := agg.Sites["Eden-Tower 06"]
	if b == nil || b.Count != 1 || b.Total != 1 {
		t.Fatalf("remote keyword counts must merge, got %+v", b)
	}
	if agg.GrandTotal != 1 {
		t.Fatalf("grand total must equal record count, got %d", agg.GrandTotal)
	}
}
