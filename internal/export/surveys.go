// Package export renders the admin survey listing as an XLSX workbook.
package export

import (
	"bytes"
	"fmt"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"
	"property-survey-backend/internal/models"
)

const (
	SurveysSheet = "Surveys"
	SummarySheet = "Summary"

	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type column struct {
	header string
	width  float64
	value  func(s *models.PropertySurvey) interface{}
}

var surveyColumns = []column{
	{"Property ID", 18, func(s *models.PropertySurvey) interface{} { return s.PropertyID }},
	{"Survey Number", 22, func(s *models.PropertySurvey) interface{} { return s.SurveyNumber }},
	{"Owner Name", 24, func(s *models.PropertySurvey) interface{} { return s.OwnerName }},
	{"Owner Phone", 16, func(s *models.PropertySurvey) interface{} { return str(s.OwnerPhone) }},
	{"Address", 36, func(s *models.PropertySurvey) interface{} { return s.PropertyAddress }},
	{"Locality", 18, func(s *models.PropertySurvey) interface{} { return str(s.Locality) }},
	{"Ward", 10, func(s *models.PropertySurvey) interface{} { return str(s.Ward) }},
	{"Zone", 12, func(s *models.PropertySurvey) interface{} { return s.Zone }},
	{"Property Type", 16, func(s *models.PropertySurvey) interface{} { return s.PropertyType }},
	{"Plot Area", 12, func(s *models.PropertySurvey) interface{} { return num(s.PlotArea) }},
	{"Built-up Area", 14, func(s *models.PropertySurvey) interface{} { return num(s.BuiltUpArea) }},
	{"Floors", 8, func(s *models.PropertySurvey) interface{} {
		if s.NumberOfFloors == nil {
			return nil
		}
		return *s.NumberOfFloors
	}},
	{"Survey Status", 14, func(s *models.PropertySurvey) interface{} { return string(s.SurveyStatus) }},
	{"Approval Status", 16, func(s *models.PropertySurvey) interface{} { return string(s.ApprovalStatus) }},
	{"Surveyed By", 38, func(s *models.PropertySurvey) interface{} { return s.SurveyedBy.String() }},
	{"Survey Date", 20, func(s *models.PropertySurvey) interface{} { return stamp(&s.SurveyDate) }},
	{"Submitted At", 20, func(s *models.PropertySurvey) interface{} { return stamp(s.SubmittedAt) }},
	{"Approved At", 20, func(s *models.PropertySurvey) interface{} { return stamp(s.ApprovedAt) }},
	{"Rejection Reason", 30, func(s *models.PropertySurvey) interface{} { return str(s.RejectionReason) }},
	{"Admin Notes", 30, func(s *models.PropertySurvey) interface{} { return str(s.AdminNotes) }},
	{"Edit Count", 10, func(s *models.PropertySurvey) interface{} { return s.EditCount }},
}

func str(p *string) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func num(p *float64) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func stamp(t *time.Time) interface{} {
	if t == nil || t.IsZero() {
		return nil
	}
	return t.UTC().Format("2006-01-02 15:04:05")
}

// Workbook builds a two-sheet workbook: one row per survey, then the
// aggregate counts for the same filter.
func Workbook(surveys []models.PropertySurvey, stats *models.SurveyStats) ([]byte, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(SurveysSheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for i, col := range surveyColumns {
		if err := setCell(f, SurveysSheet, i+1, 1, col.header); err != nil {
			f.Close()
			return nil, err
		}
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert column number: %w", err)
		}
		if err := f.SetColWidth(SurveysSheet, name, name, col.width); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(surveyColumns), 1)
	if err := f.SetCellStyle(SurveysSheet, "A1", last, headerStyle); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to set header style: %w", err)
	}

	for r := range surveys {
		for c, col := range surveyColumns {
			value := col.value(&surveys[r])
			if value == nil {
				continue
			}
			if err := setCell(f, SurveysSheet, c+1, r+2, value); err != nil {
				f.Close()
				return nil, err
			}
		}
	}

	if err := f.SetPanes(SurveysSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to freeze panes: %w", err)
	}

	if stats != nil {
		if err := writeSummary(f, stats, headerStyle); err != nil {
			f.Close()
			return nil, err
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSummary(f *excelize.File, stats *models.SurveyStats, headerStyle int) error {
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}

	rows := [][]interface{}{{"Group", "Value", "Total", "Pending Approval", "Approved", "Rejected"}}
	add := func(group, value string, c models.StatusCounts) {
		rows = append(rows, []interface{}{group, value, c.Total, c.PendingApproval, c.Approved, c.Rejected})
	}
	add("Overall", "", stats.Overall)
	for _, zone := range sortedKeys(stats.ByZone) {
		add("Zone", zone, stats.ByZone[zone])
	}
	for _, pt := range sortedKeys(stats.ByPropertyType) {
		add("Property Type", pt, stats.ByPropertyType[pt])
	}

	for r, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetSheetRow(SummarySheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write summary row %d: %w", r+1, err)
		}
	}
	return f.SetCellStyle(SummarySheet, "A1", "F1", headerStyle)
}

func sortedKeys(m map[string]models.StatusCounts) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func setCell(f *excelize.File, sheet string, col, row int, value interface{}) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("failed to convert coordinates: %w", err)
	}
	if err := f.SetCellValue(sheet, cell, value); err != nil {
		return fmt.Errorf("failed to set cell %s: %w", cell, err)
	}
	return nil
}
