// Package gitlab stores survey assets as files in a GitLab repository, one
// commit per write or delete, through the repository files API.
package gitlab

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"property-survey-backend/internal/apperror"
	"property-survey-backend/internal/config"
)

type Client struct {
	httpClient  *resty.Client
	branch      string
	publicURL   string
	authorName  string
	authorEmail string
	logger      *zap.Logger
}

type putFileRequest struct {
	Branch        string `json:"branch"`
	Content       string `json:"content"`
	Encoding      string `json:"encoding"`
	CommitMessage string `json:"commit_message"`
	AuthorName    string `json:"author_name,omitempty"`
	AuthorEmail   string `json:"author_email,omitempty"`
}

type deleteFileRequest struct {
	Branch        string `json:"branch"`
	CommitMessage string `json:"commit_message"`
	AuthorName    string `json:"author_name,omitempty"`
	AuthorEmail   string `json:"author_email,omitempty"`
}

func NewClient(cfg config.GitLabConfig, logger *zap.Logger) *Client {
	baseURL := fmt.Sprintf("%s/projects/%s/repository",
		strings.TrimRight(cfg.APIURL, "/"), url.PathEscape(cfg.ProjectID))

	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(cfg.RetryWaitTime).
		SetRetryMaxWaitTime(cfg.RetryMaxWait).
		SetHeader("PRIVATE-TOKEN", cfg.Token).
		SetHeader("Accept", "application/json").
		// Writes target a fixed path on a fixed branch, so replays are idempotent.
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return r != nil && r.StatusCode() >= http.StatusInternalServerError
		})

	return &Client{
		httpClient:  httpClient,
		branch:      cfg.Branch,
		publicURL:   strings.TrimRight(cfg.PublicURL, "/"),
		authorName:  cfg.AuthorName,
		authorEmail: cfg.AuthorEmail,
		logger:      logger,
	}
}

// encodePath escapes a repository path into a single URL segment, as the
// files API expects (slashes become %2F).
func encodePath(p string) string {
	return strings.ReplaceAll(url.PathEscape(p), "/", "%2F")
}

// Put commits data at path, creating or overwriting the file.
func (c *Client) Put(ctx context.Context, path string, data []byte, message string) error {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(putFileRequest{
			Branch:        c.branch,
			Content:       base64.StdEncoding.EncodeToString(data),
			Encoding:      "base64",
			CommitMessage: message,
			AuthorName:    c.authorName,
			AuthorEmail:   c.authorEmail,
		}).
		Put("/files/" + encodePath(path))
	if err != nil {
		c.logger.Error("GitLab put failed", zap.String("remote_path", path), zap.Error(err))
		return apperror.Wrap(apperror.KindRemoteWrite, "asset repository unavailable", err)
	}

	switch resp.StatusCode() {
	case http.StatusOK, http.StatusCreated:
		c.logger.Debug("GitLab put confirmed", zap.String("remote_path", path), zap.Int("bytes", len(data)))
		return nil
	default:
		c.logRejected("put", path, resp)
		return apperror.Newf(apperror.KindRemoteWrite, "asset repository rejected the write (status %d)", resp.StatusCode())
	}
}

// Get returns the raw bytes stored at path on the configured branch.
func (c *Client) Get(ctx context.Context, path string) ([]byte, error) {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("ref", c.branch).
		Get("/files/" + encodePath(path) + "/raw")
	if err != nil {
		c.logger.Error("GitLab get failed", zap.String("remote_path", path), zap.Error(err))
		return nil, apperror.Wrap(apperror.KindRemoteRead, "asset repository unavailable", err)
	}

	switch resp.StatusCode() {
	case http.StatusOK:
		return resp.Body(), nil
	case http.StatusNotFound:
		return nil, apperror.New(apperror.KindRemoteNotFound, "asset content is missing from the repository")
	default:
		c.logRejected("get", path, resp)
		return nil, apperror.Newf(apperror.KindRemoteRead, "asset repository read failed (status %d)", resp.StatusCode())
	}
}

// Delete removes path in a new commit. A path that is already gone is logged
// and treated as success.
func (c *Client) Delete(ctx context.Context, path string, message string) error {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(deleteFileRequest{
			Branch:        c.branch,
			CommitMessage: message,
			AuthorName:    c.authorName,
			AuthorEmail:   c.authorEmail,
		}).
		Delete("/files/" + encodePath(path))
	if err != nil {
		c.logger.Error("GitLab delete failed", zap.String("remote_path", path), zap.Error(err))
		return apperror.Wrap(apperror.KindRemoteDelete, "asset repository unavailable", err)
	}

	switch resp.StatusCode() {
	case http.StatusNoContent, http.StatusOK:
		return nil
	case http.StatusNotFound:
		c.logger.Warn("GitLab delete of missing file ignored", zap.String("remote_path", path))
		return nil
	default:
		c.logRejected("delete", path, resp)
		return apperror.Newf(apperror.KindRemoteDelete, "asset repository rejected the delete (status %d)", resp.StatusCode())
	}
}

// PublicURL is the web raw-file link for path on the configured branch.
func (c *Client) PublicURL(path string) string {
	return fmt.Sprintf("%s/-/raw/%s/%s", c.publicURL, url.PathEscape(c.branch), path)
}

func (c *Client) logRejected(op, path string, resp *resty.Response) {
	body := resp.String()
	if len(body) > 256 {
		body = body[:256]
	}
	c.logger.Error("GitLab rejected request",
		zap.String("op", op),
		zap.String("remote_path", path),
		zap.Int("status_code", resp.StatusCode()),
		zap.String("response", body),
	)
}
