package database

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"property-survey-backend/internal/models"
)

func TestMemoryStore_SurveyUniqueness(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.CreateSurvey(ctx, newSurvey()))

	dupProperty := newSurvey()
	dupProperty.SurveyNumber = "SRV-002"
	assert.ErrorIs(t, store.CreateSurvey(ctx, dupProperty), ErrDuplicate)

	dupNumber := newSurvey()
	dupNumber.PropertyID = "PROP-002"
	assert.ErrorIs(t, store.CreateSurvey(ctx, dupNumber), ErrDuplicate)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	s := newSurvey()
	require.NoError(t, store.CreateSurvey(ctx, s))

	got, err := store.GetSurvey(ctx, s.ID)
	require.NoError(t, err)
	got.OwnerName = "mutated"

	again, err := store.GetSurvey(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "Meera Iyer", again.OwnerName)
}

func TestMemoryStore_SingleDecisionWins(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	s := newSurvey()
	require.NoError(t, store.CreateSurvey(ctx, s))
	_, err := store.MarkSubmitted(ctx, s.ID, time.Now().UTC())
	require.NoError(t, err)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			status := models.ApprovalStatusApproved
			if i%2 == 1 {
				status = models.ApprovalStatusRejected
			}
			_, err := store.RecordApprovalDecision(ctx, s.ID, models.ApprovalDecision{
				Status:  status,
				AdminID: uuid.New(),
				At:      time.Now().UTC(),
			})
			if err == nil {
				mu.Lock()
				success++
				mu.Unlock()
			} else {
				assert.ErrorIs(t, err, ErrStateChanged)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, success)
	got, err := store.GetSurvey(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, string(got.ApprovalStatus), string(got.SurveyStatus))
}

func TestMemoryStore_UpdateRequiresCurrentGuard(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	s := newSurvey()
	require.NoError(t, store.CreateSurvey(ctx, s))
	draft := s.Guard()

	details := s.SurveyDetails
	details.OwnerName = "First Edit"
	first, err := store.UpdateSurveyDetails(ctx, s.ID, draft, details, nil)
	require.NoError(t, err)

	// A second edit computed from the same read loses.
	details.OwnerName = "Second Edit"
	_, err = store.UpdateSurveyDetails(ctx, s.ID, draft, details, nil)
	assert.ErrorIs(t, err, ErrStateChanged)

	// A submit in between also invalidates the guard.
	_, err = store.MarkSubmitted(ctx, s.ID, time.Now().UTC())
	require.NoError(t, err)
	_, err = store.UpdateSurveyDetails(ctx, s.ID, first.Guard(), details, nil)
	assert.ErrorIs(t, err, ErrStateChanged)

	got, err := store.GetSurvey(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "First Edit", got.OwnerName)
	assert.Equal(t, 0, got.EditCount)

	_, err = store.UpdateSurveyDetails(ctx, uuid.New(), draft, details, nil)
	assert.ErrorIs(t, err, ErrStateChanged)
}

func TestMemoryStore_MarkSubmittedClearsDecision(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	s := newSurvey()
	require.NoError(t, store.CreateSurvey(ctx, s))
	_, err := store.MarkSubmitted(ctx, s.ID, time.Now().UTC())
	require.NoError(t, err)

	reason := "blurry sketch"
	_, err = store.RecordApprovalDecision(ctx, s.ID, models.ApprovalDecision{
		Status:          models.ApprovalStatusRejected,
		AdminID:         uuid.New(),
		RejectionReason: &reason,
		At:              time.Now().UTC(),
	})
	require.NoError(t, err)

	got, err := store.MarkSubmitted(ctx, s.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalStatusPending, got.ApprovalStatus)
	assert.Equal(t, models.SurveyStatusSubmitted, got.SurveyStatus)
	assert.Nil(t, got.RejectionReason)
	assert.Nil(t, got.ApprovedBy)
}

func TestMemoryStore_ListAndStatsAgree(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for i, zone := range []string{"North", "North", "South"} {
		s := newSurvey()
		s.ID = uuid.New()
		s.PropertyID = "PROP-" + string(rune('A'+i))
		s.SurveyNumber = "SRV-" + string(rune('A'+i))
		s.Zone = zone
		require.NoError(t, store.CreateSurvey(ctx, s))
	}

	filter := models.SurveyFilter{Zone: "North", PageSize: 1}
	page, total, err := store.ListSurveys(ctx, filter)
	require.NoError(t, err)
	assert.Len(t, page, 1)
	assert.Equal(t, 2, total)

	stats, err := store.SurveyStats(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, total, stats.Overall.Total)
}

func TestMemoryStore_ImageSlot(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	img := &models.PropertyImage{ID: uuid.New(), PropertyID: "PROP-001", ImageType: models.ImageTypeSignature}
	require.NoError(t, store.CreateImage(ctx, img))

	clash := &models.PropertyImage{ID: uuid.New(), PropertyID: "PROP-001", ImageType: models.ImageTypeSignature}
	assert.ErrorIs(t, store.CreateImage(ctx, clash), ErrDuplicate)

	got, err := store.GetImageBySlot(ctx, "PROP-001", models.ImageTypeSignature)
	require.NoError(t, err)
	assert.Equal(t, img.ID, got.ID)

	require.NoError(t, store.DeleteImage(ctx, img.ID))
	assert.ErrorIs(t, store.DeleteImage(ctx, img.ID), ErrNotFound)

	images, err := store.ListImages(ctx, "PROP-001")
	require.NoError(t, err)
	assert.Empty(t, images)
}
