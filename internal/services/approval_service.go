package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"property-survey-backend/internal/apperror"
	"property-survey-backend/internal/database"
	"property-survey-backend/internal/export"
	"property-survey-backend/internal/models"
)

// DefaultExportLimit caps the rows a single export may contain.
const DefaultExportLimit = 10000

// ApprovalService is the admin decision layer over approval_status plus the
// reporting built on the same filter.
type ApprovalService struct {
	store       SurveyStore
	stats       StatsCache
	logger      *zap.Logger
	now         func() time.Time
	exportLimit int
}

func NewApprovalService(store SurveyStore, stats StatsCache, logger *zap.Logger) *ApprovalService {
	return &ApprovalService{
		store:       store,
		stats:       statsCacheOrNop(stats),
		logger:      logger,
		now:         utcNow,
		exportLimit: DefaultExportLimit,
	}
}

func requireAdmin(caller models.Caller) error {
	if caller.Role != models.RoleAdmin {
		return apperror.New(apperror.KindAccessDenied, "admin role required")
	}
	return nil
}

func (s *ApprovalService) Approve(ctx context.Context, caller models.Caller, propertyID string, req models.ApproveRequest) (*models.PropertySurvey, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	return s.decide(ctx, propertyID, models.ApprovalDecision{
		Status:     models.ApprovalStatusApproved,
		AdminID:    caller.UserID,
		AdminNotes: trimmedOrNil(req.AdminNotes),
		At:         s.now(),
	})
}

func (s *ApprovalService) Reject(ctx context.Context, caller models.Caller, propertyID string, req models.RejectRequest) (*models.PropertySurvey, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	reason := strings.TrimSpace(req.RejectionReason)
	if reason == "" {
		return nil, &apperror.Error{
			Kind:    apperror.KindReasonRequired,
			Message: "rejection_reason is required",
			Field:   "rejection_reason",
		}
	}
	return s.decide(ctx, propertyID, models.ApprovalDecision{
		Status:          models.ApprovalStatusRejected,
		AdminID:         caller.UserID,
		RejectionReason: &reason,
		AdminNotes:      trimmedOrNil(req.AdminNotes),
		At:              s.now(),
	})
}

// decide checks preconditions before writing; the write itself is guarded on
// approval_status so only one of several concurrent decisions lands.
func (s *ApprovalService) decide(ctx context.Context, propertyID string, d models.ApprovalDecision) (*models.PropertySurvey, error) {
	survey, err := s.store.GetSurveyByPropertyID(ctx, propertyID)
	if err != nil {
		return nil, storeError(err, "survey", s.logger)
	}
	if survey.SurveyStatus == models.SurveyStatusDraft {
		return nil, apperror.New(apperror.KindInvalidState, "a draft survey cannot be decided before it is submitted")
	}
	if survey.ApprovalStatus != models.ApprovalStatusPending {
		return nil, apperror.Newf(apperror.KindAlreadyDecided, "survey is already %s", survey.ApprovalStatus)
	}

	decided, err := s.store.RecordApprovalDecision(ctx, survey.ID, d)
	if errors.Is(err, database.ErrStateChanged) {
		return nil, apperror.New(apperror.KindAlreadyDecided, "survey was decided by someone else")
	}
	if err != nil {
		return nil, storeError(err, "survey", s.logger)
	}
	s.stats.Invalidate(ctx)

	s.logger.Info("Survey decision recorded",
		zap.String("property_id", propertyID),
		zap.String("approval_status", string(d.Status)),
		zap.String("admin_id", d.AdminID.String()),
	)
	return decided, nil
}

func (s *ApprovalService) List(ctx context.Context, caller models.Caller, filter models.SurveyFilter) ([]models.PropertySurvey, int, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, 0, err
	}
	surveys, total, err := s.store.ListSurveys(ctx, filter.Normalize())
	if err != nil {
		return nil, 0, storeError(err, "survey", s.logger)
	}
	return surveys, total, nil
}

// Stats aggregates with the listing's filter; pagination is ignored.
func (s *ApprovalService) Stats(ctx context.Context, caller models.Caller, filter models.SurveyFilter) (*models.SurveyStats, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	return s.cachedStats(ctx, filter)
}

func (s *ApprovalService) cachedStats(ctx context.Context, filter models.SurveyFilter) (*models.SurveyStats, error) {
	cached, key, ok := s.stats.Get(ctx, filter)
	if ok {
		return cached, nil
	}
	stats, err := s.store.SurveyStats(ctx, filter)
	if err != nil {
		return nil, storeError(err, "survey", s.logger)
	}
	s.stats.Set(ctx, key, stats)
	return stats, nil
}

// Export renders every survey matching filter, plus its statistics, as XLSX.
func (s *ApprovalService) Export(ctx context.Context, caller models.Caller, filter models.SurveyFilter) ([]byte, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}

	page := filter
	page.Page, page.PageSize = 1, models.MaxPageSize

	var all []models.PropertySurvey
	for {
		surveys, total, err := s.store.ListSurveys(ctx, page)
		if err != nil {
			return nil, storeError(err, "survey", s.logger)
		}
		if total > s.exportLimit {
			return nil, apperror.Newf(apperror.KindValidation,
				"export matches %d surveys, more than the limit of %d; narrow the filter", total, s.exportLimit)
		}
		all = append(all, surveys...)
		if len(surveys) == 0 || len(all) >= total {
			break
		}
		page.Page++
	}

	stats, err := s.cachedStats(ctx, filter)
	if err != nil {
		return nil, err
	}

	data, err := export.Workbook(all, stats)
	if err != nil {
		s.logger.Error("Failed to build export workbook", zap.Error(err))
		return nil, apperror.Wrap(apperror.KindInternal, "failed to build export", err)
	}

	s.logger.Info("Survey export generated", zap.Int("rows", len(all)), zap.Int("bytes", len(data)))
	return data, nil
}
