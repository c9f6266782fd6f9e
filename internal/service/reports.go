// Package service orchestrates the report pipelines: fetch, normalize,
// aggregate, assemble, render.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/eden-ncr/backend/internal/aggregate"
	"github.com/eden-ncr/backend/internal/asite"
	"github.com/eden-ncr/backend/internal/models"
	"github.com/eden-ncr/backend/internal/normalize"
	"github.com/eden-ncr/backend/internal/report"
	"github.com/eden-ncr/backend/internal/watsonx"
)

type ReportService struct {
	Fetcher          asite.Fetcher
	Completer        watsonx.Completer
	Project          string
	Form             string
	NCRChunkSize     int
	KeywordChunkSize int
	Logger           zerolog.Logger
	// Now is overridable for tests; zero means wall clock.
	Now func() time.Time
}

// ReportParams carries the report window. Start/End bound Closed records;
// Until is the Open-report age reference and defaults to today. Variant
// selects the Open or Closed run of a Safety/Housekeeping report; zero means
// Open.
type ReportParams struct {
	Start   time.Time
	End     time.Time
	Until   time.Time
	Variant models.ReportType
}

// NCRResult is one NCR run: both aggregates plus the rendered workbook.
type NCRResult struct {
	Resolved *models.Aggregate `json:"resolved"`
	Open     *models.Aggregate `json:"open"`
	Counts   map[string]int    `json:"counts"`
	Workbook *excelize.File    `json:"-"`
}

// KeywordResult is one Safety or Housekeeping run.
type KeywordResult struct {
	Aggregate *models.Aggregate `json:"aggregate"`
	Counts    map[string]int    `json:"counts"`
	Workbook  *excelize.File    `json:"-"`
}

// CombinedResult bundles every report into a single workbook: the NCR
// cross-tab plus the Closed and Open Safety and Housekeeping runs.
type CombinedResult struct {
	Resolved           *models.Aggregate `json:"resolved"`
	Open               *models.Aggregate `json:"open"`
	SafetyClosed       *models.Aggregate `json:"safety_closed"`
	SafetyOpen         *models.Aggregate `json:"safety_open"`
	HousekeepingClosed *models.Aggregate `json:"housekeeping_closed"`
	HousekeepingOpen   *models.Aggregate `json:"housekeeping_open"`
	Counts             map[string]int    `json:"counts"`
	Workbook           *excelize.File    `json:"-"`
}

func (s *ReportService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *ReportService) aggregator() *aggregate.Aggregator {
	return &aggregate.Aggregator{
		Completer:        s.Completer,
		NCRChunkSize:     s.NCRChunkSize,
		KeywordChunkSize: s.KeywordChunkSize,
	}
}

// Fetch pulls every raw record for the configured project and form.
func (s *ReportService) Fetch(ctx context.Context) ([]models.RawRecord, error) {
	start := time.Now()
	records, err := s.Fetcher.FetchProjectRecords(ctx, s.Project, s.Form)
	if err != nil {
		return nil, fmt.Errorf("fetch project records: %w", err)
	}
	s.Logger.Info().
		Int("records", len(records)).
		Dur("elapsed", time.Since(start)).
		Str("project", s.Project).
		Msg("fetched source records")
	return records, nil
}

// NCR runs the Closed and Open pipelines and renders the cross-tab workbook.
func (s *ReportService) NCR(ctx context.Context, p ReportParams) (NCRResult, error) {
	records, err := s.Fetch(ctx)
	if err != nil {
		return NCRResult{}, err
	}

	now := s.now()
	until := p.Until
	if until.IsZero() {
		until = now
	}

	closedRecs, err := normalize.NCR(records, normalize.Params{
		Report: models.ReportClosed,
		Start:  p.Start,
		End:    p.End,
	})
	if err != nil {
		return NCRResult{}, fmt.Errorf("normalize closed records: %w", err)
	}
	openRecs, err := normalize.NCR(records, normalize.Params{
		Report: models.ReportOpen,
		Until:  until,
	})
	if err != nil {
		return NCRResult{}, fmt.Errorf("normalize open records: %w", err)
	}

	agg := s.aggregator()
	resolved, err := agg.Run(ctx, models.ReportClosed, closedRecs)
	if err != nil {
		return NCRResult{}, err
	}
	open, err := agg.Run(ctx, models.ReportOpen, openRecs)
	if err != nil {
		return NCRResult{}, err
	}

	wb, err := report.NCRWorkbook(resolved, open, now)
	if err != nil {
		return NCRResult{}, fmt.Errorf("render workbook: %w", err)
	}

	result := NCRResult{
		Resolved: resolved,
		Open:     open,
		Workbook: wb,
		Counts: map[string]int{
			"fetched":  len(records),
			"resolved": resolved.GrandTotal,
			"open":     open.GrandTotal,
		},
	}
	s.Logger.Info().
		Int("resolved", resolved.GrandTotal).
		Int("open", open.GrandTotal).
		Msg("NCR report assembled")
	return result, nil
}

// Keyword runs the Safety or Housekeeping pipeline for the Open or Closed
// variant.
func (s *ReportService) Keyword(ctx context.Context, reportType models.ReportType, p ReportParams) (KeywordResult, error) {
	kind, err := keywordKind(reportType)
	if err != nil {
		return KeywordResult{}, err
	}
	variant, err := keywordVariant(p.Variant)
	if err != nil {
		return KeywordResult{}, err
	}

	records, err := s.Fetch(ctx)
	if err != nil {
		return KeywordResult{}, err
	}

	now := s.now()
	recs, err := normalize.Keyword(records, keywordNormParams(variant, p, now), kind)
	if err != nil {
		return KeywordResult{}, fmt.Errorf("normalize %s records: %w", reportType, err)
	}

	agg, err := s.aggregator().Run(ctx, reportType, recs)
	if err != nil {
		return KeywordResult{}, err
	}

	wb, err := report.KeywordWorkbook(agg, variant, now)
	if err != nil {
		return KeywordResult{}, fmt.Errorf("render workbook: %w", err)
	}

	s.Logger.Info().
		Str("report", string(reportType)).
		Str("variant", string(variant)).
		Int("records", agg.GrandTotal).
		Msg("keyword report assembled")
	return KeywordResult{
		Aggregate: agg,
		Workbook:  wb,
		Counts: map[string]int{
			"fetched": len(records),
			"matched": agg.GrandTotal,
		},
	}, nil
}

// Combined runs the NCR pipelines plus both variants of each keyword
// pipeline over a single fetch and renders one workbook.
func (s *ReportService) Combined(ctx context.Context, p ReportParams) (CombinedResult, error) {
	records, err := s.Fetch(ctx)
	if err != nil {
		return CombinedResult{}, err
	}

	now := s.now()
	until := p.Until
	if until.IsZero() {
		until = now
	}
	agg := s.aggregator()

	closedRecs, err := normalize.NCR(records, normalize.Params{Report: models.ReportClosed, Start: p.Start, End: p.End})
	if err != nil {
		return CombinedResult{}, fmt.Errorf("normalize closed records: %w", err)
	}
	openRecs, err := normalize.NCR(records, normalize.Params{Report: models.ReportOpen, Until: until})
	if err != nil {
		return CombinedResult{}, fmt.Errorf("normalize open records: %w", err)
	}

	resolved, err := agg.Run(ctx, models.ReportClosed, closedRecs)
	if err != nil {
		return CombinedResult{}, err
	}
	open, err := agg.Run(ctx, models.ReportOpen, openRecs)
	if err != nil {
		return CombinedResult{}, err
	}

	keyword := func(reportType, variant models.ReportType, kind normalize.KeywordKind) (*models.Aggregate, error) {
		recs, err := normalize.Keyword(records, keywordNormParams(variant, p, now), kind)
		if err != nil {
			return nil, fmt.Errorf("normalize %s %s records: %w", reportType, variant, err)
		}
		return agg.Run(ctx, reportType, recs)
	}
	safetyClosed, err := keyword(models.ReportSafety, models.ReportClosed, normalize.KindSafety)
	if err != nil {
		return CombinedResult{}, err
	}
	safetyOpen, err := keyword(models.ReportSafety, models.ReportOpen, normalize.KindSafety)
	if err != nil {
		return CombinedResult{}, err
	}
	houseClosed, err := keyword(models.ReportHousekeeping, models.ReportClosed, normalize.KindHousekeeping)
	if err != nil {
		return CombinedResult{}, err
	}
	houseOpen, err := keyword(models.ReportHousekeeping, models.ReportOpen, normalize.KindHousekeeping)
	if err != nil {
		return CombinedResult{}, err
	}

	wb, err := report.CombinedWorkbook(resolved, open, safetyClosed, safetyOpen, houseClosed, houseOpen, now)
	if err != nil {
		return CombinedResult{}, fmt.Errorf("render workbook: %w", err)
	}

	s.Logger.Info().
		Int("resolved", resolved.GrandTotal).
		Int("open", open.GrandTotal).
		Int("safety_closed", safetyClosed.GrandTotal).
		Int("safety_open", safetyOpen.GrandTotal).
		Int("housekeeping_closed", houseClosed.GrandTotal).
		Int("housekeeping_open", houseOpen.GrandTotal).
		Msg("combined report assembled")
	return CombinedResult{
		Resolved:           resolved,
		Open:               open,
		SafetyClosed:       safetyClosed,
		SafetyOpen:         safetyOpen,
		HousekeepingClosed: houseClosed,
		HousekeepingOpen:   houseOpen,
		Workbook:           wb,
		Counts: map[string]int{
			"fetched":             len(records),
			"resolved":            resolved.GrandTotal,
			"open":                open.GrandTotal,
			"safety_closed":       safetyClosed.GrandTotal,
			"safety_open":         safetyOpen.GrandTotal,
			"housekeeping_closed": houseClosed.GrandTotal,
			"housekeeping_open":   houseOpen.GrandTotal,
		},
	}, nil
}

func keywordKind(reportType models.ReportType) (normalize.KeywordKind, error) {
	switch reportType {
	case models.ReportSafety:
		return normalize.KindSafety, nil
	case models.ReportHousekeeping:
		return normalize.KindHousekeeping, nil
	}
	return 0, fmt.Errorf("report type %q is not a keyword report", reportType)
}

func keywordVariant(v models.ReportType) (models.ReportType, error) {
	switch v {
	case "", models.ReportOpen:
		return models.ReportOpen, nil
	case models.ReportClosed:
		return models.ReportClosed, nil
	}
	return "", fmt.Errorf("variant %q is not Open or Closed", v)
}

// keywordNormParams maps the report window onto one keyword variant: Closed
// runs take the Start/End window, Open runs take the creation cutoff and age
// against the invocation date.
func keywordNormParams(variant models.ReportType, p ReportParams, now time.Time) normalize.Params {
	if variant == models.ReportClosed {
		return normalize.Params{Report: models.ReportClosed, Start: p.Start, End: p.End}
	}
	return normalize.Params{Report: models.ReportOpen, Until: p.Until, Now: now}
}
