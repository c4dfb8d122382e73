package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"property-survey-backend/internal/models"
)

func TestWorkbook_ReadBack(t *testing.T) {
	reason := "missing sketch"
	surveys := []models.PropertySurvey{
		{
			PropertyID:     "P-1",
			SurveyNumber:   "SRV-20240601-ABC123",
			SurveyDetails:  models.SurveyDetails{OwnerName: "Asha Rao", PropertyAddress: "1 Temple St", Zone: "North", PropertyType: "residential"},
			SurveyedBy:     uuid.New(),
			SurveyDate:     time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC),
			SurveyStatus:   models.SurveyStatusRejected,
			ApprovalStatus: models.ApprovalStatusRejected,
			EditCount:      2,
		},
		{
			PropertyID:     "P-2",
			SurveyNumber:   "SRV-20240602-DEF456",
			SurveyDetails:  models.SurveyDetails{OwnerName: "Vikram Shah", PropertyAddress: "9 Market Rd", Zone: "South", PropertyType: "commercial"},
			SurveyedBy:     uuid.New(),
			SurveyDate:     time.Date(2024, 6, 2, 8, 30, 0, 0, time.UTC),
			SurveyStatus:   models.SurveyStatusSubmitted,
			ApprovalStatus: models.ApprovalStatusPending,
		},
	}
	surveys[0].RejectionReason = &reason

	stats := models.NewSurveyStats()
	stats.Add("North", "residential", models.ApprovalStatusRejected, 1)
	stats.Add("South", "commercial", models.ApprovalStatusPending, 1)

	data, err := Workbook(surveys, stats)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SurveysSheet, SummarySheet}, f.GetSheetList())

	rows, err := f.GetRows(SurveysSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Property ID", rows[0][0])
	assert.Equal(t, "P-1", rows[1][0])
	assert.Equal(t, "Asha Rao", rows[1][2])
	assert.Contains(t, rows[1], "missing sketch")
	assert.Contains(t, rows[1], "2024-06-01 08:30:00")
	assert.Equal(t, "P-2", rows[2][0])

	summary, err := f.GetRows(SummarySheet)
	require.NoError(t, err)
	require.Len(t, summary, 6)
	assert.Equal(t, []string{"Overall", "", "2", "1", "0", "1"}, summary[1])
	assert.Equal(t, "North", summary[2][1])
}

func TestWorkbook_EmptyHasHeaderOnly(t *testing.T) {
	data, err := Workbook(nil, nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SurveysSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, []string{SurveysSheet}, f.GetSheetList())
}
