package report

import (
	"fmt"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/eden-ncr/backend/internal/models"
)

const maxSheetName = 31

// TruncateSheetName keeps sheet names inside the xlsx 31-character limit.
func TruncateSheetName(name string) string {
	if len(name) > maxSheetName {
		return name[:maxSheetName-3] + "..."
	}
	return name
}

func datePart(now time.Time) string {
	return fmt.Sprintf("%02d_%s_%d", now.Day(), now.Month(), now.Year())
}

type styles struct {
	title  int
	header int
	site   int
}

func newStyles(f *excelize.File) (styles, error) {
	title, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"FFFF00"}, Pattern: 1},
		Border:    boxBorder(),
	})
	if err != nil {
		return styles{}, err
	}
	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		Border:    boxBorder(),
	})
	if err != nil {
		return styles{}, err
	}
	site, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
		Border:    boxBorder(),
	})
	if err != nil {
		return styles{}, err
	}
	return styles{title: title, header: header, site: site}, nil
}

func boxBorder() []excelize.Border {
	return []excelize.Border{
		{Type: "left", Style: 1}, {Type: "right", Style: 1},
		{Type: "top", Style: 1}, {Type: "bottom", Style: 1},
	}
}

// NCRWorkbook renders the combined resolved/open summary plus one details
// sheet per aggregate.
func NCRWorkbook(resolved, open *models.Aggregate, now time.Time) (*excelize.File, error) {
	f := excelize.NewFile()
	st, err := newStyles(f)
	if err != nil {
		return nil, err
	}
	if err := writeNCRSummarySheet(f, st, resolved, open, now); err != nil {
		return nil, err
	}
	if err := writeDetailSheet(f, st, TruncateSheetName("Closed NCR Details "+datePart(now)), "Closed NCR Details", resolved, false); err != nil {
		return nil, err
	}
	if err := writeDetailSheet(f, st, TruncateSheetName("Open NCR Details "+datePart(now)), "Open NCR Details", open, false); err != nil {
		return nil, err
	}
	return f, nil
}

// KeywordWorkbook renders a Safety or Housekeeping summary plus details for
// one Open or Closed run.
func KeywordWorkbook(agg *models.Aggregate, variant models.ReportType, now time.Time) (*excelize.File, error) {
	f := excelize.NewFile()
	st, err := newStyles(f)
	if err != nil {
		return nil, err
	}
	if err := writeKeywordSheets(f, st, agg, variant, now, true); err != nil {
		return nil, err
	}
	return f, nil
}

// CombinedWorkbook renders every report into one workbook: the NCR cross-tab
// and its detail sheets, then the Closed and Open Safety and Housekeeping
// sheets.
func CombinedWorkbook(resolved, open, safetyClosed, safetyOpen, housekeepingClosed, housekeepingOpen *models.Aggregate, now time.Time) (*excelize.File, error) {
	f := excelize.NewFile()
	st, err := newStyles(f)
	if err != nil {
		return nil, err
	}
	if err := writeNCRSummarySheet(f, st, resolved, open, now); err != nil {
		return nil, err
	}
	if err := writeDetailSheet(f, st, TruncateSheetName("Closed NCR Details "+datePart(now)), "Closed NCR Details", resolved, false); err != nil {
		return nil, err
	}
	if err := writeDetailSheet(f, st, TruncateSheetName("Open NCR Details "+datePart(now)), "Open NCR Details", open, false); err != nil {
		return nil, err
	}
	keyword := []struct {
		agg     *models.Aggregate
		variant models.ReportType
	}{
		{safetyClosed, models.ReportClosed},
		{safetyOpen, models.ReportOpen},
		{housekeepingClosed, models.ReportClosed},
		{housekeepingOpen, models.ReportOpen},
	}
	for _, k := range keyword {
		if err := writeKeywordSheets(f, st, k.agg, k.variant, now, false); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func writeNCRSummarySheet(f *excelize.File, st styles, resolved, open *models.Aggregate, now time.Time) error {
	const sheet = "NCR Report"
	f.SetSheetName(f.GetSheetName(0), sheet)
	if err := f.SetColWidth(sheet, "A", "A", 20); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "B", "H", 12); err != nil {
		return err
	}

	if err := f.MergeCell(sheet, "A1", "H1"); err != nil {
		return err
	}
	f.SetCellValue(sheet, "A1", "NCR: "+datePart(now))
	f.SetCellStyle(sheet, "A1", "H1", st.title)

	f.SetCellValue(sheet, "A2", "Site")
	if err := f.MergeCell(sheet, "B2", "D2"); err != nil {
		return err
	}
	f.SetCellValue(sheet, "B2", "NCR resolved beyond 21 days")
	if err := f.MergeCell(sheet, "E2", "G2"); err != nil {
		return err
	}
	f.SetCellValue(sheet, "E2", "NCR open beyond 21 days")
	f.SetCellValue(sheet, "H2", "Total")
	f.SetCellStyle(sheet, "A2", "H2", st.header)

	for i, cat := range Categories {
		f.SetCellValue(sheet, cellAt(1+i, 3), cat)
		f.SetCellValue(sheet, cellAt(4+i, 3), cat)
	}
	f.SetCellStyle(sheet, "A3", "H3", st.header)

	summary := BuildNCRSummary(resolved, open)
	row := 4
	for _, site := range summary.Rows {
		f.SetCellValue(sheet, cellAt(0, row), site.Site)
		f.SetCellStyle(sheet, cellAt(0, row), cellAt(0, row), st.site)
		for i, cat := range Categories {
			f.SetCellValue(sheet, cellAt(1+i, row), site.Resolved.Column(cat))
			f.SetCellValue(sheet, cellAt(4+i, row), site.Open.Column(cat))
		}
		f.SetCellValue(sheet, cellAt(7, row), site.Total())
		row++

		if !site.HasPours {
			continue
		}
		for _, level := range PourLevels {
			pb := site.Pours[level]
			f.SetCellValue(sheet, cellAt(0, row), level)
			for i, cat := range Categories {
				f.SetCellValue(sheet, cellAt(1+i, row), pb.Resolved.Column(cat))
				f.SetCellValue(sheet, cellAt(4+i, row), pb.Open.Column(cat))
			}
			f.SetCellValue(sheet, cellAt(7, row), pb.Total())
			row++
		}
		f.SetCellValue(sheet, cellAt(0, row), "Common Description")
		for i, cat := range Categories {
			f.SetCellValue(sheet, cellAt(1+i, row), site.Common.Resolved.Column(cat))
			f.SetCellValue(sheet, cellAt(4+i, row), site.Common.Open.Column(cat))
		}
		f.SetCellValue(sheet, cellAt(7, row), site.Common.Total())
		row++
	}
	return nil
}

func writeKeywordSheets(f *excelize.File, st styles, agg *models.Aggregate, variant models.ReportType, now time.Time, first bool) error {
	report := models.ReportSafety
	if agg != nil {
		report = agg.Report
	}
	date := datePart(now)
	var summarySheet, detailsSheet, title string
	if first {
		// Standalone export: one variant, the sheet names stay unqualified.
		summarySheet = TruncateSheetName(fmt.Sprintf("%s NCR Report %s", report, date))
		detailsSheet = TruncateSheetName(fmt.Sprintf("%s NCR Details %s", report, date))
		title = fmt.Sprintf("%s: %s - %s", report, variant, date)
	} else {
		summarySheet = TruncateSheetName(fmt.Sprintf("%s NCR %s %s", report, variant, date))
		detailsSheet = TruncateSheetName(fmt.Sprintf("%s NCR %s Details %s", report, variant, date))
		title = fmt.Sprintf("%s NCR: %s - %s", report, date, variant)
	}

	if first {
		f.SetSheetName(f.GetSheetName(0), summarySheet)
	} else if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}
	if err := f.SetColWidth(summarySheet, "A", "A", 20); err != nil {
		return err
	}
	if err := f.SetColWidth(summarySheet, "B", "B", 15); err != nil {
		return err
	}

	if err := f.MergeCell(summarySheet, "A1", "B1"); err != nil {
		return err
	}
	f.SetCellValue(summarySheet, "A1", title)
	f.SetCellStyle(summarySheet, "A1", "B1", st.title)
	f.SetCellValue(summarySheet, "A2", "Site")
	f.SetCellValue(summarySheet, "B2", fmt.Sprintf("No. of %s NCRs beyond 7 days", report))
	f.SetCellStyle(summarySheet, "A2", "B2", st.header)

	summary := BuildKeywordSummary(agg)
	sites := append([]string(nil), KeywordSites...)
	sort.Strings(sites)
	row := 3
	for _, site := range sites {
		f.SetCellValue(summarySheet, cellAt(0, row), site)
		f.SetCellStyle(summarySheet, cellAt(0, row), cellAt(0, row), st.site)
		f.SetCellValue(summarySheet, cellAt(1, row), summary.Counts[site])
		row++
	}

	return writeDetailSheet(f, st, detailsSheet, title+" Details", agg, true)
}

func writeDetailSheet(f *excelize.File, st styles, sheet, title string, agg *models.Aggregate, padded bool) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", "A", 20); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "B", "B", 60); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "C", "F", 20); err != nil {
		return err
	}

	if err := f.MergeCell(sheet, "A1", "F1"); err != nil {
		return err
	}
	f.SetCellValue(sheet, "A1", title)
	f.SetCellStyle(sheet, "A1", "F1", st.title)

	headers := []string{"Site", "Description", "Created Date (WET)", "Expected Close Date (WET)", "Status", "Discipline"}
	for i, h := range headers {
		f.SetCellValue(sheet, cellAt(i, 2), h)
	}
	f.SetCellStyle(sheet, "A2", "F2", st.header)

	row := 3
	for _, d := range DetailRows(agg, padded) {
		discipline := d.Discipline
		if padded && discipline == "" {
			discipline = "HSE"
		}
		f.SetCellValue(sheet, cellAt(0, row), d.Site)
		f.SetCellValue(sheet, cellAt(1, row), d.Description)
		f.SetCellValue(sheet, cellAt(2, row), d.Created)
		f.SetCellValue(sheet, cellAt(3, row), d.Closed)
		f.SetCellValue(sheet, cellAt(4, row), d.Status)
		f.SetCellValue(sheet, cellAt(5, row), discipline)
		row++
	}
	return nil
}

func cellAt(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col+1, row)
	return name
}
