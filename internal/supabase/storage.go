package supabase

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	storage "github.com/supabase-community/storage-go"
	"go.uber.org/zap"
	"property-survey-backend/internal/apperror"
	"property-survey-backend/internal/config"
)

// StorageClient keeps survey assets in a Supabase Storage bucket. It is the
// alternative to the GitLab repository backend.
type StorageClient struct {
	key     string
	bucket  string
	baseURL string
	timeout time.Duration
	logger  *zap.Logger
}

func NewStorageClient(cfg config.SupabaseConfig, logger *zap.Logger) *StorageClient {
	return &StorageClient{
		key:     cfg.Key,
		bucket:  cfg.StorageBucket,
		baseURL: strings.TrimRight(cfg.URL, "/"),
		timeout: cfg.Timeout,
		logger:  logger,
	}
}

// api returns a fresh storage-go client. The library keeps per-request
// headers on the client itself, so a client is never shared between calls.
func (s *StorageClient) api() *storage.Client {
	return storage.NewClient(s.baseURL+"/storage/v1", s.key, nil)
}

// call runs fn until it returns, ctx ends, or the configured timeout passes.
// storage-go takes no context, so an abandoned call finishes in the
// background and its result is dropped.
func (s *StorageClient) call(ctx context.Context, fn func(*storage.Client) error) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	done := make(chan error, 1)
	go func() { done <- fn(s.api()) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func contentType(data []byte) string {
	return mimetype.Detect(data).String()
}

// Put uploads data at path, overwriting any existing object. Supabase has no
// commit log, so message is only logged.
func (s *StorageClient) Put(ctx context.Context, path string, data []byte, message string) error {
	ct := contentType(data)
	upsert := true
	err := s.call(ctx, func(api *storage.Client) error {
		_, err := api.UploadFile(s.bucket, path, bytes.NewReader(data), storage.FileOptions{
			ContentType: &ct,
			Upsert:      &upsert,
		})
		return err
	})
	if err != nil {
		s.logger.Error("Supabase upload failed", zap.String("remote_path", path), zap.Error(err))
		return apperror.Wrap(apperror.KindRemoteWrite, "asset storage rejected the write", err)
	}

	s.logger.Debug("Supabase upload confirmed",
		zap.String("remote_path", path),
		zap.String("content_type", ct),
		zap.String("message", message),
	)
	return nil
}

func (s *StorageClient) Get(ctx context.Context, path string) ([]byte, error) {
	var data []byte
	err := s.call(ctx, func(api *storage.Client) error {
		var err error
		data, err = api.DownloadFile(s.bucket, path)
		return err
	})
	if err != nil {
		if ctx.Err() == nil && isNotFound(err) {
			return nil, apperror.New(apperror.KindRemoteNotFound, "asset content is missing from storage")
		}
		s.logger.Error("Supabase download failed", zap.String("remote_path", path), zap.Error(err))
		return nil, apperror.Wrap(apperror.KindRemoteRead, "asset storage read failed", err)
	}
	return data, nil
}

// Delete removes the object. Supabase reports success for paths that do not exist.
func (s *StorageClient) Delete(ctx context.Context, path string, message string) error {
	err := s.call(ctx, func(api *storage.Client) error {
		_, err := api.RemoveFile(s.bucket, []string{path})
		return err
	})
	if err != nil {
		s.logger.Error("Supabase delete failed", zap.String("remote_path", path), zap.Error(err))
		return apperror.Wrap(apperror.KindRemoteDelete, "asset storage rejected the delete", err)
	}
	s.logger.Debug("Supabase delete confirmed", zap.String("remote_path", path), zap.String("message", message))
	return nil
}

func (s *StorageClient) PublicURL(path string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, s.bucket, path)
}

func isNotFound(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not found") || strings.Contains(msg, "404")
}
