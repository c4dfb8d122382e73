package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"property-survey-backend/internal/apperror"
	"property-survey-backend/internal/models"
)

// fakeRepo is an in-memory AssetRepository with switchable failures.
type fakeRepo struct {
	mu       sync.Mutex
	objects  map[string][]byte
	failPut  bool
	failGet  bool
	failDel  bool
	putCalls int
	delCalls []string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{objects: make(map[string][]byte)}
}

func (r *fakeRepo) Put(_ context.Context, path string, data []byte, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.putCalls++
	if r.failPut {
		return apperror.New(apperror.KindRemoteWrite, "asset repository rejected the write (status 500)")
	}
	r.objects[path] = append([]byte(nil), data...)
	return nil
}

func (r *fakeRepo) Get(_ context.Context, path string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failGet {
		return nil, apperror.New(apperror.KindRemoteRead, "asset repository read failed (status 503)")
	}
	data, ok := r.objects[path]
	if !ok {
		return nil, apperror.New(apperror.KindRemoteNotFound, "asset content is missing from the repository")
	}
	return append([]byte(nil), data...), nil
}

func (r *fakeRepo) Delete(_ context.Context, path string, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delCalls = append(r.delCalls, path)
	if r.failDel {
		return apperror.New(apperror.KindRemoteDelete, "asset repository rejected the delete (status 500)")
	}
	delete(r.objects, path)
	return nil
}

func (r *fakeRepo) PublicURL(path string) string {
	return "https://repo.example.com/-/raw/main/" + path
}

func (r *fakeRepo) has(path string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.objects[path]
	return ok
}

// countingCache records invalidations.
type countingCache struct {
	mu          sync.Mutex
	entries     map[string]*models.SurveyStats
	invalidated int
}

func newCountingCache() *countingCache {
	return &countingCache{entries: make(map[string]*models.SurveyStats)}
}

func (c *countingCache) Get(_ context.Context, f models.SurveyFilter) (*models.SurveyStats, string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := fmt.Sprintf("%d:%s", c.invalidated, f.CacheKey())
	s, ok := c.entries[key]
	return s, key, ok
}

func (c *countingCache) Set(_ context.Context, key string, s *models.SurveyStats) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = s
}

func (c *countingCache) Invalidate(context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated++
	c.entries = make(map[string]*models.SurveyStats)
}

func fieldExec() models.Caller {
	return models.Caller{UserID: uuid.New(), Role: models.RoleFieldExecutive}
}

func admin() models.Caller {
	return models.Caller{UserID: uuid.New(), Role: models.RoleAdmin}
}

func reviewer() models.Caller {
	return models.Caller{UserID: uuid.New(), Role: models.RoleReviewer}
}

func strPtr(s string) *string { return &s }

func uuidSuffix() string { return uuid.NewString()[:8] }
