// Package aggregate folds normalized records into per-site report totals.
// Chunks are sent to a remote model for grouping; any chunk whose response
// cannot be used is recounted locally from the records themselves, so a run
// always yields a complete aggregate.
package aggregate

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/eden-ncr/backend/internal/models"
	"github.com/eden-ncr/backend/internal/watsonx"
)

// Default chunk sizes. NCR chunks carry the full cross-tab payload;
// Safety/Housekeeping chunks are smaller because the per-record prompt
// overhead is higher relative to the response budget.
const (
	DefaultNCRChunkSize     = 20
	DefaultKeywordChunkSize = 10
)

// Aggregator runs chunked remote aggregation with local fallback.
type Aggregator struct {
	Completer        watsonx.Completer
	NCRChunkSize     int
	KeywordChunkSize int
}

// remoteSite mirrors the site object the model returns. NCR responses carry
// the category counters and pour histogram; keyword responses carry Count.
type remoteSite struct {
	Descriptions []string       `json:"Descriptions"`
	CreatedDates []string       `json:"Created Date (WET)"`
	CloseDates   []string       `json:"Expected Close Date (WET)"`
	Statuses     []string       `json:"Status"`
	Disciplines  []string       `json:"Discipline"`
	Pours        [][]string     `json:"Pours"`
	SW           int            `json:"SW"`
	FW           int            `json:"FW"`
	MEP          int            `json:"MEP"`
	Total        int            `json:"Total"`
	Count        int            `json:"Count"`
	PoursCount   map[string]int `json:"PoursCount"`
}

type remoteResult struct {
	Sites      map[string]remoteSite `json:"Sites"`
	GrandTotal int                   `json:"Grand_Total"`
}

// Run aggregates records for the given report type. An empty input yields
// an empty aggregate, not an error. The grand total always equals the
// number of input records; remote-reported totals are logged when they
// disagree but never trusted.
func (a *Aggregator) Run(ctx context.Context, report models.ReportType, recs []models.NormalizedRecord) (*models.Aggregate, error) {
	agg := models.NewAggregate(report)
	if len(recs) == 0 {
		return agg, nil
	}

	keyword := report == models.ReportSafety || report == models.ReportHousekeeping
	size := a.chunkSize(keyword)

	for start := 0; start < len(recs); start += size {
		end := start + size
		if end > len(recs) {
			end = len(recs)
		}
		chunk := recs[start:end]
		a.runChunk(ctx, agg, report, chunk, keyword)
	}

	if keyword {
		dedupSiteLists(agg)
	}
	if agg.SitesTotal() != agg.GrandTotal {
		log.Warn().
			Str("report", string(report)).
			Int("sites_total", agg.SitesTotal()).
			Int("grand_total", agg.GrandTotal).
			Msg("site totals do not sum to grand total")
	}
	return agg, nil
}

func (a *Aggregator) chunkSize(keyword bool) int {
	if keyword {
		if a.KeywordChunkSize > 0 {
			return a.KeywordChunkSize
		}
		return DefaultKeywordChunkSize
	}
	if a.NCRChunkSize > 0 {
		return a.NCRChunkSize
	}
	return DefaultNCRChunkSize
}

// runChunk tries the remote path and falls back to a local recount on any
// transport, parse, or shape failure. Either way the chunk contributes
// exactly len(chunk) to the grand total.
func (a *Aggregator) runChunk(ctx context.Context, agg *models.Aggregate, report models.ReportType, chunk []models.NormalizedRecord, keyword bool) {
	remote, ok := a.remoteChunk(ctx, report, chunk, keyword)
	if !ok {
		log.Warn().Str("report", string(report)).Int("records", len(chunk)).Msg("falling back to local count for chunk")
		localChunk(agg, chunk, keyword)
		return
	}

	if remote.GrandTotal != len(chunk) {
		log.Warn().
			Str("report", string(report)).
			Int("remote_total", remote.GrandTotal).
			Int("records", len(chunk)).
			Msg("remote grand total ignored, accruing by chunk length")
	}
	for site, data := range remote.Sites {
		b := agg.Site(site)
		b.Descriptions = append(b.Descriptions, data.Descriptions...)
		b.CreatedDates = append(b.CreatedDates, data.CreatedDates...)
		b.CloseDates = append(b.CloseDates, data.CloseDates...)
		b.Statuses = append(b.Statuses, data.Statuses...)
		b.Disciplines = append(b.Disciplines, data.Disciplines...)
		b.Pours = append(b.Pours, data.Pours...)
		if keyword {
			b.Count += data.Count
			b.Total += data.Count
		} else {
			b.SW += data.SW
			b.FW += data.FW
			b.MEP += data.MEP
			b.Total += data.Total
			for pour, n := range data.PoursCount {
				b.PoursCount[pour] += n
			}
		}
	}
	agg.GrandTotal += len(chunk)
}

func (a *Aggregator) remoteChunk(ctx context.Context, report models.ReportType, chunk []models.NormalizedRecord, keyword bool) (remoteResult, bool) {
	var prompt string
	var p watsonx.Params
	if keyword {
		prompt = buildKeywordPrompt(report, chunk)
		p = watsonx.Params{MaxNewTokens: 500, Temperature: 0.001}
	} else {
		prompt = buildNCRPrompt(report, chunk)
		p = watsonx.Params{MaxNewTokens: 5100, Temperature: 0}
	}

	text, err := a.Completer.Complete(ctx, prompt, p)
	if err != nil {
		log.Error().Err(err).Str("report", string(report)).Msg("chunk generation failed")
		return remoteResult{}, false
	}

	raw, ok := ExtractJSON(text)
	if !ok {
		log.Error().Str("report", string(report)).Msg("no JSON object in generated text")
		return remoteResult{}, false
	}
	var envelope map[string]remoteResult
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
		log.Error().Err(err).Str("report", string(report)).Msg("generated JSON does not parse")
		return remoteResult{}, false
	}
	result, ok := envelope[string(report)]
	if !ok || result.Sites == nil {
		log.Error().Str("report", string(report)).Msg("generated JSON missing report envelope")
		return remoteResult{}, false
	}
	return result, true
}

// localChunk recounts a chunk from the classifier output carried on each
// record. This produces the same bucket shape as a well-formed remote
// response.
func localChunk(agg *models.Aggregate, chunk []models.NormalizedRecord, keyword bool) {
	for _, rec := range chunk {
		b := agg.Site(rec.Tower)
		b.Descriptions = append(b.Descriptions, rec.Description)
		b.CreatedDates = append(b.CreatedDates, rec.Created.Format(wireDateLayout))
		closed := ""
		if !rec.Closed.IsZero() {
			closed = rec.Closed.Format(wireDateLayout)
		}
		b.CloseDates = append(b.CloseDates, closed)
		b.Statuses = append(b.Statuses, string(rec.Status))
		b.Disciplines = append(b.Disciplines, rec.Discipline)

		if keyword {
			b.Count++
		} else {
			b.Pours = append(b.Pours, rec.Pours)
			switch rec.Category {
			case models.CategorySW:
				b.SW++
			case models.CategoryFW:
				b.FW++
			case models.CategoryMEP:
				b.MEP++
			}
			for _, pour := range rec.Pours {
				b.PoursCount[pour]++
			}
		}
		b.Total++
		agg.GrandTotal++
	}
}

// dedupSiteLists collapses repeated entries in the per-site list columns.
// Safety records fan out per tower before chunking, so the same description
// can reach one site through several chunks.
func dedupSiteLists(agg *models.Aggregate) {
	for _, b := range agg.Sites {
		b.Descriptions = uniqueStrings(b.Descriptions)
		b.CreatedDates = uniqueStrings(b.CreatedDates)
		b.CloseDates = uniqueStrings(b.CloseDates)
		b.Statuses = uniqueStrings(b.Statuses)
	}
}

func uniqueStrings(in []string) []string {
	seen := map[string]bool{}
	out := in[:0]
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
