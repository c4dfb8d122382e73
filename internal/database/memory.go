package database

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"property-survey-backend/internal/models"
)

// MemoryStore is an in-process survey and image store with the same
// uniqueness and conditional-update rules as the Postgres Client. It backs
// tests and local runs without DATABASE_URL.
type MemoryStore struct {
	mu      sync.RWMutex
	surveys map[uuid.UUID]*models.PropertySurvey
	images  map[uuid.UUID]*models.PropertyImage
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		surveys: make(map[uuid.UUID]*models.PropertySurvey),
		images:  make(map[uuid.UUID]*models.PropertyImage),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// touch advances updated_at, strictly, so an EditGuard taken before a write
// never matches after it.
func (m *MemoryStore) touch(s *models.PropertySurvey) {
	now := m.now()
	if !now.After(s.UpdatedAt) {
		now = s.UpdatedAt.Add(time.Microsecond)
	}
	s.UpdatedAt = now
}

func cloneSurvey(s *models.PropertySurvey) *models.PropertySurvey {
	c := *s
	return &c
}

func (m *MemoryStore) CreateSurvey(_ context.Context, s *models.PropertySurvey) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.surveys {
		if existing.ID == s.ID || existing.PropertyID == s.PropertyID || existing.SurveyNumber == s.SurveyNumber {
			return ErrDuplicate
		}
	}

	now := m.now()
	s.CreatedAt, s.UpdatedAt = now, now
	m.surveys[s.ID] = cloneSurvey(s)
	return nil
}

func (m *MemoryStore) GetSurvey(_ context.Context, id uuid.UUID) (*models.PropertySurvey, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.surveys[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneSurvey(s), nil
}

func (m *MemoryStore) GetSurveyByPropertyID(_ context.Context, propertyID string) (*models.PropertySurvey, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, s := range m.surveys {
		if s.PropertyID == propertyID {
			return cloneSurvey(s), nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) matching(filter models.SurveyFilter) []*models.PropertySurvey {
	out := make([]*models.PropertySurvey, 0)
	for _, s := range m.surveys {
		if filter.Matches(s) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

func (m *MemoryStore) ListSurveys(_ context.Context, filter models.SurveyFilter) ([]models.PropertySurvey, int, error) {
	filter = filter.Normalize()

	m.mu.RLock()
	defer m.mu.RUnlock()

	all := m.matching(filter)
	page := make([]models.PropertySurvey, 0, filter.PageSize)
	for i := filter.Offset(); i < len(all) && len(page) < filter.PageSize; i++ {
		page = append(page, *all[i])
	}
	return page, len(all), nil
}

func (m *MemoryStore) UpdateSurveyDetails(_ context.Context, id uuid.UUID, guard models.EditGuard, details models.SurveyDetails, stamp *models.EditStamp) (*models.PropertySurvey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.surveys[id]
	if !ok || s.SurveyStatus != guard.Status || !s.UpdatedAt.Equal(guard.UpdatedAt) {
		return nil, ErrStateChanged
	}
	s.SurveyDetails = details
	if stamp != nil {
		s.EditCount++
		comment, by, at := stamp.Comment, stamp.By, stamp.At
		s.LastEditComment, s.LastEditBy, s.LastEditDate = &comment, &by, &at
	}
	m.touch(s)
	return cloneSurvey(s), nil
}

func (m *MemoryStore) MarkSubmitted(_ context.Context, id uuid.UUID, at time.Time) (*models.PropertySurvey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.surveys[id]
	if !ok {
		return nil, ErrNotFound
	}
	s.SurveyStatus = models.SurveyStatusSubmitted
	s.ApprovalStatus = models.ApprovalStatusPending
	s.SubmittedAt = &at
	s.ReviewedBy, s.ReviewedAt, s.ReviewRemarks = nil, nil, nil
	s.ApprovedBy, s.ApprovedAt, s.RejectionReason, s.AdminNotes = nil, nil, nil, nil
	m.touch(s)
	return cloneSurvey(s), nil
}

func (m *MemoryStore) RecordReview(_ context.Context, id uuid.UUID, d models.ReviewDecision) (*models.PropertySurvey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.surveys[id]
	if !ok || s.SurveyStatus != models.SurveyStatusSubmitted {
		return nil, ErrStateChanged
	}
	reviewer, at := d.ReviewerID, d.At
	s.SurveyStatus = d.Status
	s.ReviewedBy, s.ReviewedAt, s.ReviewRemarks = &reviewer, &at, d.Remarks
	m.touch(s)
	return cloneSurvey(s), nil
}

func (m *MemoryStore) RecordApprovalDecision(_ context.Context, id uuid.UUID, d models.ApprovalDecision) (*models.PropertySurvey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.surveys[id]
	if !ok || s.ApprovalStatus != models.ApprovalStatusPending {
		return nil, ErrStateChanged
	}
	admin, at := d.AdminID, d.At
	s.ApprovalStatus = d.Status
	s.SurveyStatus = d.SurveyStatus()
	s.ApprovedBy, s.ApprovedAt = &admin, &at
	s.RejectionReason, s.AdminNotes = d.RejectionReason, d.AdminNotes
	m.touch(s)
	return cloneSurvey(s), nil
}

func (m *MemoryStore) SurveyStats(_ context.Context, filter models.SurveyFilter) (*models.SurveyStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := models.NewSurveyStats()
	for _, s := range m.matching(filter) {
		stats.Add(s.Zone, s.PropertyType, s.ApprovalStatus, 1)
	}
	return stats, nil
}

func (m *MemoryStore) CreateImage(_ context.Context, img *models.PropertyImage) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.images {
		if existing.ID == img.ID || (existing.PropertyID == img.PropertyID && existing.ImageType == img.ImageType) {
			return ErrDuplicate
		}
	}
	c := *img
	m.images[img.ID] = &c
	return nil
}

func (m *MemoryStore) GetImage(_ context.Context, id uuid.UUID) (*models.PropertyImage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	img, ok := m.images[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := *img
	return &c, nil
}

func (m *MemoryStore) GetImageBySlot(_ context.Context, propertyID string, imageType models.ImageType) (*models.PropertyImage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, img := range m.images {
		if img.PropertyID == propertyID && img.ImageType == imageType {
			c := *img
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) ListImages(_ context.Context, propertyID string) ([]models.PropertyImage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	images := make([]models.PropertyImage, 0)
	for _, img := range m.images {
		if img.PropertyID == propertyID {
			images = append(images, *img)
		}
	}
	sort.Slice(images, func(i, j int) bool { return images[i].ImageType < images[j].ImageType })
	return images, nil
}

func (m *MemoryStore) DeleteImage(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.images[id]; !ok {
		return ErrNotFound
	}
	delete(m.images, id)
	return nil
}
