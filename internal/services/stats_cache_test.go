package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"property-survey-backend/internal/cache"
	"property-survey-backend/internal/database"
	"property-survey-backend/internal/models"
)

func setupRedisBackedServices(t *testing.T) (*SurveyService, *ApprovalService) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	store := database.NewMemoryStore()
	stats := cache.NewStatsCache(client, time.Hour, zap.NewNop())
	logger := zap.NewNop()
	return NewSurveyService(store, stats, logger), NewApprovalService(store, stats, logger)
}

// statsMatchListing asserts that cached statistics and a fresh listing agree
// for the same filter.
func statsMatchListing(t *testing.T, approvals *ApprovalService, filter models.SurveyFilter) *models.SurveyStats {
	t.Helper()
	ctx := context.Background()

	stats, err := approvals.Stats(ctx, admin(), filter)
	require.NoError(t, err)
	_, total, err := approvals.List(ctx, admin(), filter)
	require.NoError(t, err)
	assert.Equal(t, total, stats.Overall.Total)
	return stats
}

func TestStatsCache_FollowsCreate(t *testing.T) {
	surveys, approvals := setupRedisBackedServices(t)
	ctx := context.Background()

	_, err := surveys.Create(ctx, fieldExec(), createRequest("P-1"))
	require.NoError(t, err)
	stats := statsMatchListing(t, approvals, models.SurveyFilter{})
	assert.Equal(t, 1, stats.Overall.Total)

	_, err = surveys.Create(ctx, fieldExec(), createRequest("P-2"))
	require.NoError(t, err)
	stats = statsMatchListing(t, approvals, models.SurveyFilter{})
	assert.Equal(t, 2, stats.Overall.Total)
}

func TestStatsCache_FollowsZoneEdit(t *testing.T) {
	surveys, approvals := setupRedisBackedServices(t)
	ctx := context.Background()
	owner := fieldExec()

	s, err := surveys.Create(ctx, owner, createRequest("P-1"))
	require.NoError(t, err)
	stats := statsMatchListing(t, approvals, models.SurveyFilter{})
	assert.Equal(t, 1, stats.ByZone["North"].Total)

	_, err = surveys.Update(ctx, owner, s.ID, models.UpdateSurveyRequest{
		SurveyDetailsInput: models.SurveyDetailsInput{Zone: strPtr("South")},
	})
	require.NoError(t, err)

	stats = statsMatchListing(t, approvals, models.SurveyFilter{Zone: "South"})
	assert.Equal(t, 1, stats.Overall.Total)
	stats = statsMatchListing(t, approvals, models.SurveyFilter{})
	assert.Equal(t, 1, stats.ByZone["South"].Total)
	assert.NotContains(t, stats.ByZone, "North")
}

func TestStatsCache_FollowsLegacyReview(t *testing.T) {
	surveys, approvals := setupRedisBackedServices(t)
	ctx := context.Background()
	owner := fieldExec()

	s, err := surveys.Create(ctx, owner, createRequest("P-1"))
	require.NoError(t, err)
	_, err = surveys.Submit(ctx, owner, s.ID)
	require.NoError(t, err)

	approved := models.SurveyFilter{SurveyStatus: models.SurveyStatusApproved}
	stats := statsMatchListing(t, approvals, approved)
	assert.Equal(t, 0, stats.Overall.Total)

	_, err = surveys.Review(ctx, reviewer(), s.ID, models.ReviewRequest{Action: "approve"})
	require.NoError(t, err)

	stats = statsMatchListing(t, approvals, approved)
	assert.Equal(t, 1, stats.Overall.Total)
}
