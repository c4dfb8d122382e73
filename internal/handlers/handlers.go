package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"property-survey-backend/internal/apperror"
	"property-survey-backend/internal/middleware"
	"property-survey-backend/internal/models"
)

// respondError renders err as a models.ErrorResponse. The wrapped cause is
// logged for server-side failures and never sent to the client.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	kind := apperror.KindOf(err)
	status := apperror.HTTPStatus(kind)

	response := models.ErrorResponse{Error: string(kind)}
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		response.Message = appErr.Message
		response.Field = appErr.Field
	}
	if kind == apperror.KindInternal {
		response.Message = "internal server error"
	}

	if status >= http.StatusInternalServerError {
		logger.Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
	}
	c.JSON(status, response)
}

func getCaller(c *gin.Context) (models.Caller, bool) {
	caller, ok := middleware.CallerFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "user id not found"})
		return models.Caller{}, false
	}
	return caller, true
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   string(apperror.KindValidation),
			Message: "invalid " + name,
			Field:   name,
		})
		return uuid.Nil, false
	}
	return id, true
}

// parseFilter reads the listing query parameters shared by the admin
// listing, statistics and export.
func parseFilter(c *gin.Context) (models.SurveyFilter, error) {
	var f models.SurveyFilter

	for name, dst := range map[string]*int{"page": &f.Page, "page_size": &f.PageSize} {
		raw := c.Query(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return f, apperror.Field(name, name+" must be a positive integer")
		}
		*dst = n
	}

	if raw := c.Query("approval_status"); raw != "" {
		f.ApprovalStatus = models.ApprovalStatus(raw)
		if !f.ApprovalStatus.Valid() {
			return f, apperror.Field("approval_status", "unknown approval_status")
		}
	}
	if raw := c.Query("survey_status"); raw != "" {
		f.SurveyStatus = models.SurveyStatus(raw)
		if !f.SurveyStatus.Valid() {
			return f, apperror.Field("survey_status", "unknown survey_status")
		}
	}

	f.Zone = strings.TrimSpace(c.Query("zone"))
	f.PropertyType = strings.TrimSpace(c.Query("property_type"))
	f.Search = c.Query("search")

	if raw := c.Query("from"); raw != "" {
		if f.From = models.ParseLenientDate(raw); f.From == nil {
			return f, apperror.Field("from", "from is not a recognised date")
		}
	}
	if raw := c.Query("to"); raw != "" {
		if f.To = models.ParseLenientDate(raw); f.To == nil {
			return f, apperror.Field("to", "to is not a recognised date")
		}
	}

	return f.Normalize(), nil
}

// bindStrict decodes a JSON body into dst and rejects unknown fields, so
// identity and status columns cannot ride along in a request. An empty body
// yields io.EOF unwrapped for handlers whose body is optional.
func bindStrict(c *gin.Context, dst interface{}) error {
	if c.Request.Body == nil {
		return io.EOF
	}
	decoder := json.NewDecoder(c.Request.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func bindError(err error) error {
	return apperror.Wrap(apperror.KindValidation, "invalid request body", err)
}
