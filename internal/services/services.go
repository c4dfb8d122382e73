// Package services holds the survey lifecycle, the approval workflow and the
// asset store. Handlers call into these; persistence and the remote asset
// repository are injected.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"property-survey-backend/internal/apperror"
	"property-survey-backend/internal/database"
	"property-survey-backend/internal/models"
)

// SurveyStore is implemented by database.Client and database.MemoryStore.
type SurveyStore interface {
	CreateSurvey(ctx context.Context, s *models.PropertySurvey) error
	GetSurvey(ctx context.Context, id uuid.UUID) (*models.PropertySurvey, error)
	GetSurveyByPropertyID(ctx context.Context, propertyID string) (*models.PropertySurvey, error)
	ListSurveys(ctx context.Context, filter models.SurveyFilter) ([]models.PropertySurvey, int, error)
	UpdateSurveyDetails(ctx context.Context, id uuid.UUID, guard models.EditGuard, details models.SurveyDetails, stamp *models.EditStamp) (*models.PropertySurvey, error)
	MarkSubmitted(ctx context.Context, id uuid.UUID, at time.Time) (*models.PropertySurvey, error)
	RecordReview(ctx context.Context, id uuid.UUID, d models.ReviewDecision) (*models.PropertySurvey, error)
	RecordApprovalDecision(ctx context.Context, id uuid.UUID, d models.ApprovalDecision) (*models.PropertySurvey, error)
	SurveyStats(ctx context.Context, filter models.SurveyFilter) (*models.SurveyStats, error)
}

type ImageStore interface {
	CreateImage(ctx context.Context, img *models.PropertyImage) error
	GetImage(ctx context.Context, id uuid.UUID) (*models.PropertyImage, error)
	GetImageBySlot(ctx context.Context, propertyID string, imageType models.ImageType) (*models.PropertyImage, error)
	ListImages(ctx context.Context, propertyID string) ([]models.PropertyImage, error)
	DeleteImage(ctx context.Context, id uuid.UUID) error
}

// AssetRepository is the remote home of asset bytes (gitlab.Client or
// supabase.StorageClient). Errors carry apperror remote kinds.
type AssetRepository interface {
	Put(ctx context.Context, path string, data []byte, message string) error
	Get(ctx context.Context, path string) ([]byte, error)
	Delete(ctx context.Context, path string, message string) error
	PublicURL(path string) string
}

// StatsCache is implemented by cache.StatsCache.
type StatsCache interface {
	// Get returns the entry for filter and the key to Set it under. The key
	// is taken before the store is read.
	Get(ctx context.Context, filter models.SurveyFilter) (*models.SurveyStats, string, bool)
	Set(ctx context.Context, key string, stats *models.SurveyStats)
	Invalidate(ctx context.Context)
}

type nopStatsCache struct{}

func (nopStatsCache) Get(context.Context, models.SurveyFilter) (*models.SurveyStats, string, bool) {
	return nil, "", false
}

func (nopStatsCache) Set(context.Context, string, *models.SurveyStats) {}

func (nopStatsCache) Invalidate(context.Context) {}

func statsCacheOrNop(c StatsCache) StatsCache {
	if c == nil {
		return nopStatsCache{}
	}
	return c
}

func utcNow() time.Time {
	return time.Now().UTC()
}

// storeError converts database sentinels into caller-facing errors.
func storeError(err error, what string, logger *zap.Logger) error {
	switch {
	case errors.Is(err, database.ErrNotFound):
		return apperror.Newf(apperror.KindNotFound, "%s not found", what)
	case errors.Is(err, database.ErrDuplicate):
		return apperror.Newf(apperror.KindConflict, "%s already exists", what)
	default:
		logger.Error("Store operation failed", zap.String("entity", what), zap.Error(err))
		return apperror.Wrap(apperror.KindInternal, "internal error", err)
	}
}
