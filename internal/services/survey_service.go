package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"property-survey-backend/internal/apperror"
	"property-survey-backend/internal/assets"
	"property-survey-backend/internal/database"
	"property-survey-backend/internal/models"
)

// SurveyService owns survey records and the survey_status state machine.
type SurveyService struct {
	store  SurveyStore
	stats  StatsCache
	logger *zap.Logger
	now    func() time.Time
}

func NewSurveyService(store SurveyStore, stats StatsCache, logger *zap.Logger) *SurveyService {
	return &SurveyService{
		store:  store,
		stats:  statsCacheOrNop(stats),
		logger: logger,
		now:    utcNow,
	}
}

func (s *SurveyService) Create(ctx context.Context, caller models.Caller, req models.CreateSurveyRequest) (*models.PropertySurvey, error) {
	propertyID := strings.TrimSpace(req.PropertyID)
	if propertyID == "" {
		return nil, apperror.Field("property_id", "property_id is required")
	}
	if !assets.ValidPropertyID(propertyID) {
		return nil, apperror.Field("property_id", "property_id must be 1-64 letters, digits, '-' or '_'")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var details models.SurveyDetails
	req.ApplyTo(&details)
	if err := details.ValidateRequired(); err != nil {
		return nil, err
	}

	now := s.now()
	surveyNumber := strings.TrimSpace(req.SurveyNumber)
	if surveyNumber == "" {
		surveyNumber = generateSurveyNumber(now)
	}

	survey := &models.PropertySurvey{
		ID:             uuid.New(),
		PropertyID:     propertyID,
		SurveyNumber:   surveyNumber,
		SurveyDetails:  details,
		SurveyedBy:     caller.UserID,
		SurveyDate:     now,
		SurveyStatus:   models.SurveyStatusDraft,
		ApprovalStatus: models.ApprovalStatusPending,
	}

	if err := s.store.CreateSurvey(ctx, survey); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, apperror.Newf(apperror.KindConflict,
				"a survey with property_id %s or survey_number %s already exists", propertyID, surveyNumber)
		}
		return nil, storeError(err, "survey", s.logger)
	}
	s.stats.Invalidate(ctx)

	s.logger.Info("Survey created",
		zap.String("survey_id", survey.ID.String()),
		zap.String("property_id", propertyID),
		zap.String("surveyed_by", caller.UserID.String()),
	)
	return survey, nil
}

// generateSurveyNumber yields SRV-YYYYMMDD-XXXXXX.
func generateSurveyNumber(at time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("SRV-%s-%s", at.Format("20060102"), suffix)
}

func (s *SurveyService) Get(ctx context.Context, caller models.Caller, id uuid.UUID) (*models.PropertySurvey, error) {
	survey, err := s.store.GetSurvey(ctx, id)
	if err != nil {
		return nil, storeError(err, "survey", s.logger)
	}
	if err := canRead(caller, survey); err != nil {
		return nil, err
	}
	return survey, nil
}

func (s *SurveyService) GetByPropertyID(ctx context.Context, caller models.Caller, propertyID string) (*models.PropertySurvey, error) {
	survey, err := s.store.GetSurveyByPropertyID(ctx, propertyID)
	if err != nil {
		return nil, storeError(err, "survey", s.logger)
	}
	if err := canRead(caller, survey); err != nil {
		return nil, err
	}
	return survey, nil
}

func canRead(caller models.Caller, survey *models.PropertySurvey) error {
	if caller.Role.Elevated() || caller.Owns(survey) {
		return nil
	}
	return apperror.New(apperror.KindAccessDenied, "you can only view your own surveys")
}

// ListMine pages through the caller's own surveys.
func (s *SurveyService) ListMine(ctx context.Context, caller models.Caller, filter models.SurveyFilter) ([]models.PropertySurvey, int, error) {
	filter = filter.Normalize()
	filter.SurveyedBy = &caller.UserID

	surveys, total, err := s.store.ListSurveys(ctx, filter)
	if err != nil {
		return nil, 0, storeError(err, "survey", s.logger)
	}
	return surveys, total, nil
}

// maxEditAttempts bounds how often Update re-reads a survey that changed
// underneath it before giving up with a conflict.
const maxEditAttempts = 3

// Update edits descriptive fields in any status. Edits to a survey that has
// left draft must carry a comment and are counted. The edit is applied to the
// row it was computed from; if a submit or another edit lands first, the
// request is re-applied to the fresh row.
func (s *SurveyService) Update(ctx context.Context, caller models.Caller, id uuid.UUID, req models.UpdateSurveyRequest) (*models.PropertySurvey, error) {
	if req.Empty() {
		return nil, apperror.New(apperror.KindValidation, "no fields to update")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= maxEditAttempts; attempt++ {
		survey, err := s.store.GetSurvey(ctx, id)
		if err != nil {
			return nil, storeError(err, "survey", s.logger)
		}
		if !caller.Owns(survey) && caller.Role != models.RoleAdmin {
			return nil, apperror.New(apperror.KindAccessDenied, "only the surveyor or an admin can edit this survey")
		}

		details := survey.SurveyDetails
		req.ApplyTo(&details)
		if err := details.ValidateRequired(); err != nil {
			return nil, err
		}

		var stamp *models.EditStamp
		if survey.SurveyStatus != models.SurveyStatusDraft {
			comment := strings.TrimSpace(req.EditComment)
			if comment == "" {
				return nil, &apperror.Error{
					Kind:    apperror.KindEditCommentRequired,
					Message: fmt.Sprintf("edit_comment is required to edit a %s survey", survey.SurveyStatus),
					Field:   "edit_comment",
				}
			}
			stamp = &models.EditStamp{Comment: comment, By: caller.UserID, At: s.now()}
		}

		updated, err := s.store.UpdateSurveyDetails(ctx, id, survey.Guard(), details, stamp)
		if errors.Is(err, database.ErrStateChanged) {
			s.logger.Debug("Survey changed during edit, retrying",
				zap.String("survey_id", id.String()),
				zap.Int("attempt", attempt),
			)
			continue
		}
		if err != nil {
			return nil, storeError(err, "survey", s.logger)
		}
		s.stats.Invalidate(ctx)

		s.logger.Info("Survey updated",
			zap.String("survey_id", id.String()),
			zap.String("survey_status", string(updated.SurveyStatus)),
			zap.Int("edit_count", updated.EditCount),
			zap.String("edited_by", caller.UserID.String()),
		)
		return updated, nil
	}

	return nil, apperror.New(apperror.KindConflict, "survey kept changing during the edit, reload and retry")
}

// Submit moves the survey to submitted and reopens the approval gate. The
// surveyor may resubmit from any status; anyone else only from draft.
func (s *SurveyService) Submit(ctx context.Context, caller models.Caller, id uuid.UUID) (*models.PropertySurvey, error) {
	survey, err := s.store.GetSurvey(ctx, id)
	if err != nil {
		return nil, storeError(err, "survey", s.logger)
	}

	if !caller.Owns(survey) {
		if !caller.Role.Elevated() {
			return nil, apperror.New(apperror.KindAccessDenied, "only the surveyor can submit this survey")
		}
		if survey.SurveyStatus != models.SurveyStatusDraft {
			return nil, apperror.Newf(apperror.KindAccessDenied,
				"only the surveyor can resubmit a %s survey", survey.SurveyStatus)
		}
	}

	submitted, err := s.store.MarkSubmitted(ctx, id, s.now())
	if err != nil {
		return nil, storeError(err, "survey", s.logger)
	}
	s.stats.Invalidate(ctx)

	s.logger.Info("Survey submitted",
		zap.String("survey_id", id.String()),
		zap.String("previous_status", string(survey.SurveyStatus)),
		zap.String("submitted_by", caller.UserID.String()),
	)
	return submitted, nil
}

// Review is the single-field decision path: it sets survey_status directly
// and leaves approval_status alone.
func (s *SurveyService) Review(ctx context.Context, caller models.Caller, id uuid.UUID, req models.ReviewRequest) (*models.PropertySurvey, error) {
	if !caller.Role.Elevated() {
		return nil, apperror.New(apperror.KindAccessDenied, "only reviewers can review surveys")
	}

	var status models.SurveyStatus
	switch strings.ToLower(strings.TrimSpace(req.Action)) {
	case "approve":
		status = models.SurveyStatusApproved
	case "reject":
		status = models.SurveyStatusRejected
	default:
		return nil, apperror.Field("action", "action must be approve or reject")
	}

	survey, err := s.store.GetSurvey(ctx, id)
	if err != nil {
		return nil, storeError(err, "survey", s.logger)
	}
	if err := reviewable(survey.SurveyStatus); err != nil {
		return nil, err
	}

	reviewed, err := s.store.RecordReview(ctx, id, models.ReviewDecision{
		Status:     status,
		ReviewerID: caller.UserID,
		Remarks:    trimmedOrNil(req.Remarks),
		At:         s.now(),
	})
	if errors.Is(err, database.ErrStateChanged) {
		return nil, apperror.New(apperror.KindAlreadyDecided, "survey was reviewed by someone else")
	}
	if err != nil {
		return nil, storeError(err, "survey", s.logger)
	}
	s.stats.Invalidate(ctx)

	s.logger.Info("Survey reviewed",
		zap.String("survey_id", id.String()),
		zap.String("decision", string(status)),
		zap.String("reviewed_by", caller.UserID.String()),
	)
	return reviewed, nil
}

func reviewable(status models.SurveyStatus) error {
	switch {
	case status == models.SurveyStatusSubmitted:
		return nil
	case status.Decided():
		return apperror.Newf(apperror.KindAlreadyDecided, "survey is already %s", status)
	default:
		return apperror.Newf(apperror.KindInvalidState, "a %s survey cannot be reviewed", status)
	}
}

func trimmedOrNil(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}
