package gitlab

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"property-survey-backend/internal/apperror"
	"property-survey-backend/internal/config"
)

const (
	testPath    = "surveys/2024/06/P-1/sketch_photo_20240601080000.png"
	encodedPath = "surveys%2F2024%2F06%2FP-1%2Fsketch_photo_20240601080000.png"
	filesPrefix = "/api/v4/projects/42/repository/files/"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(config.GitLabConfig{
		APIURL:        server.URL + "/api/v4",
		ProjectID:     "42",
		Token:         "glpat-test",
		Branch:        "main",
		PublicURL:     "https://gitlab.example.com/city/survey-assets",
		AuthorName:    "Survey Bot",
		AuthorEmail:   "bot@example.com",
		Timeout:       2 * time.Second,
		RetryCount:    2,
		RetryWaitTime: time.Millisecond,
		RetryMaxWait:  5 * time.Millisecond,
	}, zap.NewNop())
}

func TestPut_SendsCommitRequest(t *testing.T) {
	var got putFileRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, filesPrefix+encodedPath, r.URL.EscapedPath())
		assert.Equal(t, "glpat-test", r.Header.Get("PRIVATE-TOKEN"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	})

	err := client.Put(context.Background(), testPath, []byte("image-bytes"), "Upload sketch_photo for property P-1")
	require.NoError(t, err)

	assert.Equal(t, "main", got.Branch)
	assert.Equal(t, "base64", got.Encoding)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("image-bytes")), got.Content)
	assert.Equal(t, "Survey Bot", got.AuthorName)
}

func TestPut_RetriesServerErrors(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusCreated)
	})

	require.NoError(t, client.Put(context.Background(), testPath, []byte("x"), "msg"))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestPut_RejectedDoesNotLeakBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"A file with this name already exists; token glpat-secret"}`))
	})

	err := client.Put(context.Background(), testPath, []byte("x"), "msg")
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindRemoteWrite))
	assert.NotContains(t, err.Error(), "glpat-secret")
}

func TestGet(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, filesPrefix+encodedPath+"/raw", r.URL.EscapedPath())
		assert.Equal(t, "main", r.URL.Query().Get("ref"))
		w.Write([]byte("raw-content"))
	})

	data, err := client.Get(context.Background(), testPath)
	require.NoError(t, err)
	assert.Equal(t, []byte("raw-content"), data)
}

func TestGet_Errors(t *testing.T) {
	notFound := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	_, err := notFound.Get(context.Background(), testPath)
	assert.True(t, apperror.IsKind(err, apperror.KindRemoteNotFound))

	forbidden := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	_, err = forbidden.Get(context.Background(), testPath)
	assert.True(t, apperror.IsKind(err, apperror.KindRemoteRead))
}

func TestDelete(t *testing.T) {
	var got deleteFileRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, client.Delete(context.Background(), testPath, "Remove sketch_photo for property P-1"))
	assert.Equal(t, "main", got.Branch)
	assert.Equal(t, "Remove sketch_photo for property P-1", got.CommitMessage)
}

func TestDelete_MissingIsSoft(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	assert.NoError(t, client.Delete(context.Background(), testPath, "msg"))
}

func TestDelete_Failure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	err := client.Delete(context.Background(), testPath, "msg")
	assert.True(t, apperror.IsKind(err, apperror.KindRemoteDelete))
}

func TestPublicURL(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	assert.Equal(t,
		"https://gitlab.example.com/city/survey-assets/-/raw/main/"+testPath,
		client.PublicURL(testPath))
}
