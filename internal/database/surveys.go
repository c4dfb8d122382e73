package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"property-survey-backend/internal/models"
)

var detailColumns = []string{
	"owner_name", "owner_phone", "property_address", "locality", "ward", "zone", "property_type",
	"plot_area", "built_up_area", "carpet_area", "number_of_floors",
	"construction_date", "last_tax_paid_date",
	"water_connection", "electricity_connection", "sewerage_connection",
	"latitude", "longitude", "remarks",
}

var surveyColumns = strings.Join(append(append([]string{"id", "property_id", "survey_number"}, detailColumns...),
	"surveyed_by", "survey_date", "survey_status", "approval_status", "submitted_at",
	"reviewed_by", "reviewed_at", "review_remarks",
	"approved_by", "approved_at", "rejection_reason", "admin_notes",
	"edit_count", "last_edit_comment", "last_edit_date", "last_edit_by",
	"created_at", "updated_at",
), ", ")

func detailArgs(d *models.SurveyDetails) []interface{} {
	return []interface{}{
		d.OwnerName, d.OwnerPhone, d.PropertyAddress, d.Locality, d.Ward, d.Zone, d.PropertyType,
		d.PlotArea, d.BuiltUpArea, d.CarpetArea, d.NumberOfFloors,
		d.ConstructionDate, d.LastTaxPaidDate,
		d.WaterConnection, d.ElectricityConnection, d.SewerageConnection,
		d.Latitude, d.Longitude, d.Remarks,
	}
}

func scanSurvey(row scanner) (*models.PropertySurvey, error) {
	var s models.PropertySurvey
	d := &s.SurveyDetails
	err := row.Scan(
		&s.ID, &s.PropertyID, &s.SurveyNumber,
		&d.OwnerName, &d.OwnerPhone, &d.PropertyAddress, &d.Locality, &d.Ward, &d.Zone, &d.PropertyType,
		&d.PlotArea, &d.BuiltUpArea, &d.CarpetArea, &d.NumberOfFloors,
		&d.ConstructionDate, &d.LastTaxPaidDate,
		&d.WaterConnection, &d.ElectricityConnection, &d.SewerageConnection,
		&d.Latitude, &d.Longitude, &d.Remarks,
		&s.SurveyedBy, &s.SurveyDate, &s.SurveyStatus, &s.ApprovalStatus, &s.SubmittedAt,
		&s.ReviewedBy, &s.ReviewedAt, &s.ReviewRemarks,
		&s.ApprovedBy, &s.ApprovedAt, &s.RejectionReason, &s.AdminNotes,
		&s.EditCount, &s.LastEditComment, &s.LastEditDate, &s.LastEditBy,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) CreateSurvey(ctx context.Context, s *models.PropertySurvey) error {
	cols := append(append([]string{"id", "property_id", "survey_number"}, detailColumns...),
		"surveyed_by", "survey_date", "survey_status", "approval_status")
	args := append(append([]interface{}{s.ID, s.PropertyID, s.SurveyNumber}, detailArgs(&s.SurveyDetails)...),
		s.SurveyedBy, s.SurveyDate, s.SurveyStatus, s.ApprovalStatus)

	query := fmt.Sprintf(`
		INSERT INTO property_surveys (%s)
		VALUES (%s)
		RETURNING created_at, updated_at
	`, strings.Join(cols, ", "), placeholders(1, len(args)))

	err := c.db.QueryRowContext(ctx, query, args...).Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create survey: %w", err)
	}
	return nil
}

func (c *Client) GetSurvey(ctx context.Context, id uuid.UUID) (*models.PropertySurvey, error) {
	return c.getSurveyWhere(ctx, "id = $1", id)
}

func (c *Client) GetSurveyByPropertyID(ctx context.Context, propertyID string) (*models.PropertySurvey, error) {
	return c.getSurveyWhere(ctx, "property_id = $1", propertyID)
}

func (c *Client) getSurveyWhere(ctx context.Context, cond string, arg interface{}) (*models.PropertySurvey, error) {
	row := c.db.QueryRowContext(ctx, "SELECT "+surveyColumns+" FROM property_surveys WHERE "+cond, arg)
	s, err := scanSurvey(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get survey: %w", err)
	}
	return s, nil
}

func (c *Client) ListSurveys(ctx context.Context, filter models.SurveyFilter) ([]models.PropertySurvey, int, error) {
	filter = filter.Normalize()
	where, args := buildSurveyWhere(filter)

	var total int
	if err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM property_surveys"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count surveys: %w", err)
	}

	query := fmt.Sprintf("SELECT %s FROM property_surveys%s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d",
		surveyColumns, where, len(args)+1, len(args)+2)
	rows, err := c.db.QueryContext(ctx, query, append(args, filter.PageSize, filter.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list surveys: %w", err)
	}
	defer rows.Close()

	surveys := make([]models.PropertySurvey, 0)
	for rows.Next() {
		s, err := scanSurvey(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan survey: %w", err)
		}
		surveys = append(surveys, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate surveys: %w", err)
	}

	return surveys, total, nil
}

// UpdateSurveyDetails overwrites the descriptive columns. A non-nil stamp
// increments edit_count in the same statement, so concurrent edits never
// lose an increment. The row must still match guard; otherwise nothing is
// written and ErrStateChanged is returned, also when the survey is gone.
func (c *Client) UpdateSurveyDetails(ctx context.Context, id uuid.UUID, guard models.EditGuard, details models.SurveyDetails, stamp *models.EditStamp) (*models.PropertySurvey, error) {
	args := append([]interface{}{id}, detailArgs(&details)...)
	sets := make([]string, 0, len(detailColumns)+4)
	for i, col := range detailColumns {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, i+2))
	}
	if stamp != nil {
		n := len(args)
		sets = append(sets,
			"edit_count = edit_count + 1",
			fmt.Sprintf("last_edit_comment = $%d", n+1),
			fmt.Sprintf("last_edit_date = $%d", n+2),
			fmt.Sprintf("last_edit_by = $%d", n+3),
		)
		args = append(args, stamp.Comment, stamp.At, stamp.By)
	}
	sets = append(sets, "updated_at = NOW()")

	n := len(args)
	args = append(args, string(guard.Status), guard.UpdatedAt)
	query := fmt.Sprintf("UPDATE property_surveys SET %s WHERE id = $1 AND survey_status = $%d AND updated_at = $%d RETURNING %s",
		strings.Join(sets, ", "), n+1, n+2, surveyColumns)

	s, err := scanSurvey(c.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStateChanged
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update survey: %w", err)
	}
	return s, nil
}

// MarkSubmitted reopens the approval gate and clears any earlier decision.
func (c *Client) MarkSubmitted(ctx context.Context, id uuid.UUID, at time.Time) (*models.PropertySurvey, error) {
	query := `
		UPDATE property_surveys
		SET survey_status = 'submitted',
			approval_status = 'pending_approval',
			submitted_at = $2,
			reviewed_by = NULL, reviewed_at = NULL, review_remarks = NULL,
			approved_by = NULL, approved_at = NULL, rejection_reason = NULL, admin_notes = NULL,
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + surveyColumns

	s, err := scanSurvey(c.db.QueryRowContext(ctx, query, id, at))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to submit survey: %w", err)
	}
	return s, nil
}

// RecordReview applies a legacy review; it only matches a submitted survey.
func (c *Client) RecordReview(ctx context.Context, id uuid.UUID, d models.ReviewDecision) (*models.PropertySurvey, error) {
	query := `
		UPDATE property_surveys
		SET survey_status = $2, reviewed_by = $3, reviewed_at = $4, review_remarks = $5, updated_at = NOW()
		WHERE id = $1 AND survey_status = 'submitted'
		RETURNING ` + surveyColumns

	s, err := scanSurvey(c.db.QueryRowContext(ctx, query, id, d.Status, d.ReviewerID, d.At, d.Remarks))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStateChanged
	}
	if err != nil {
		return nil, fmt.Errorf("failed to record review: %w", err)
	}
	return s, nil
}

// RecordApprovalDecision moves approval_status off pending_approval and
// mirrors the outcome into survey_status. Only one concurrent caller wins.
func (c *Client) RecordApprovalDecision(ctx context.Context, id uuid.UUID, d models.ApprovalDecision) (*models.PropertySurvey, error) {
	query := `
		UPDATE property_surveys
		SET approval_status = $2, survey_status = $3,
			approved_by = $4, approved_at = $5, rejection_reason = $6, admin_notes = $7,
			updated_at = NOW()
		WHERE id = $1 AND approval_status = 'pending_approval'
		RETURNING ` + surveyColumns

	s, err := scanSurvey(c.db.QueryRowContext(ctx, query,
		id, d.Status, d.SurveyStatus(), d.AdminID, d.At, d.RejectionReason, d.AdminNotes))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStateChanged
	}
	if err != nil {
		return nil, fmt.Errorf("failed to record approval decision: %w", err)
	}
	return s, nil
}

// SurveyStats aggregates with the same WHERE clause as ListSurveys.
func (c *Client) SurveyStats(ctx context.Context, filter models.SurveyFilter) (*models.SurveyStats, error) {
	where, args := buildSurveyWhere(filter)
	rows, err := c.db.QueryContext(ctx,
		"SELECT zone, property_type, approval_status, COUNT(*) FROM property_surveys"+where+
			" GROUP BY zone, property_type, approval_status", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate surveys: %w", err)
	}
	defer rows.Close()

	stats := models.NewSurveyStats()
	for rows.Next() {
		var (
			zone, propertyType string
			status             models.ApprovalStatus
			count              int
		)
		if err := rows.Scan(&zone, &propertyType, &status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan survey stats: %w", err)
		}
		stats.Add(zone, propertyType, status, count)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate survey stats: %w", err)
	}
	return stats, nil
}

func buildSurveyWhere(f models.SurveyFilter) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)
	add := func(cond string, v interface{}) {
		args = append(args, v)
		conds = append(conds, strings.ReplaceAll(cond, "?", fmt.Sprintf("$%d", len(args))))
	}

	if f.ApprovalStatus != "" {
		add("approval_status = ?", f.ApprovalStatus)
	}
	if f.SurveyStatus != "" {
		add("survey_status = ?", f.SurveyStatus)
	}
	if f.Zone != "" {
		add("zone = ?", f.Zone)
	}
	if f.PropertyType != "" {
		add("property_type = ?", f.PropertyType)
	}
	if f.SurveyedBy != nil {
		add("surveyed_by = ?", *f.SurveyedBy)
	}
	if f.From != nil {
		add("survey_date >= ?", *f.From)
	}
	if f.To != nil {
		add("survey_date < ?", *f.To)
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		add("(property_id ILIKE ? OR survey_number ILIKE ? OR owner_name ILIKE ?)", "%"+escapeLike(q)+"%")
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
