package supabase

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"property-survey-backend/internal/apperror"
	"property-survey-backend/internal/config"
)

var (
	pngBytes  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")
	heicBytes = []byte("\x00\x00\x00\x18ftypheic\x00\x00\x00\x00mif1heic")
)

func newTestClient(t *testing.T, handler http.HandlerFunc, timeout time.Duration) *StorageClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewStorageClient(config.SupabaseConfig{
		URL:           srv.URL,
		Key:           "service-role",
		StorageBucket: "property-images",
		Timeout:       timeout,
	}, zap.NewNop())
}

func TestStorageClient_PublicURL(t *testing.T) {
	client := NewStorageClient(config.SupabaseConfig{
		URL:           "https://abc.supabase.co/",
		Key:           "service-role",
		StorageBucket: "property-images",
	}, zap.NewNop())

	assert.Equal(t,
		"https://abc.supabase.co/storage/v1/object/public/property-images/surveys/2024/06/P-1/owner_photo_20240601080000.jpg",
		client.PublicURL("surveys/2024/06/P-1/owner_photo_20240601080000.jpg"))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, isNotFound(errors.New("Object not found")))
	assert.True(t, isNotFound(errors.New("status 404")))
	assert.False(t, isNotFound(errors.New("connection refused")))
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "image/png", contentType(pngBytes))
	assert.Equal(t, "image/heic", contentType(heicBytes))
}

func TestStorageClient_PutSendsDetectedType(t *testing.T) {
	var (
		mu   sync.Mutex
		got  string
		path string
		body []byte
	)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		got = r.Header.Get("Content-Type")
		path = r.URL.Path
		body, _ = io.ReadAll(r.Body)
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"Key":"property-images/surveys/P-1/owner_photo.heic"}`))
	}, time.Second)

	require.NoError(t, client.Put(context.Background(), "surveys/P-1/owner_photo.heic", heicBytes, "Add owner photo"))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "image/heic", got)
	assert.True(t, strings.HasSuffix(path, "/object/property-images/surveys/P-1/owner_photo.heic"), path)
	assert.Equal(t, heicBytes, body)
}

func TestStorageClient_TimesOut(t *testing.T) {
	release := make(chan struct{})
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, 50*time.Millisecond)
	// Registered after the server's Close, so it runs first.
	t.Cleanup(func() { close(release) })

	ctx := context.Background()
	start := time.Now()

	err := client.Put(ctx, "surveys/P-1/a.png", pngBytes, "Add a")
	assert.Equal(t, apperror.KindRemoteWrite, apperror.KindOf(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	_, err = client.Get(ctx, "surveys/P-1/a.png")
	assert.Equal(t, apperror.KindRemoteRead, apperror.KindOf(err))

	err = client.Delete(ctx, "surveys/P-1/a.png", "Remove a")
	assert.Equal(t, apperror.KindRemoteDelete, apperror.KindOf(err))

	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestStorageClient_HonoursCallerContext(t *testing.T) {
	release := make(chan struct{})
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, time.Minute)
	t.Cleanup(func() { close(release) })

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Get(ctx, "surveys/P-1/a.png")
	assert.Equal(t, apperror.KindRemoteRead, apperror.KindOf(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
