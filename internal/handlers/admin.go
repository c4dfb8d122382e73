package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"property-survey-backend/internal/export"
	"property-survey-backend/internal/models"
	"property-survey-backend/internal/services"
)

type AdminHandler struct {
	approvals *services.ApprovalService
	logger    *zap.Logger
}

func NewAdminHandler(approvals *services.ApprovalService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		approvals: approvals,
		logger:    logger,
	}
}

// ListSurveys godoc
// @Summary     List all surveys
// @Tags        admin
// @Produce     json
// @Security    Bearer
// @Param       page            query int    false "Page (1-based)"
// @Param       page_size       query int    false "Page size (max 100)"
// @Param       approval_status query string false "pending_approval, approved or rejected"
// @Param       survey_status   query string false "Lifecycle status"
// @Param       zone            query string false "Zone"
// @Param       property_type   query string false "Property type"
// @Param       search          query string false "Matches property id, survey number or owner name"
// @Param       from            query string false "Survey date lower bound (inclusive)"
// @Param       to              query string false "Survey date upper bound (exclusive)"
// @Success     200 {object} models.SurveyListResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     403 {object} models.ErrorResponse
// @Router      /admin/surveys [get]
func (h *AdminHandler) ListSurveys(c *gin.Context) {
	caller, ok := getCaller(c)
	if !ok {
		return
	}

	filter, err := parseFilter(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	surveys, total, err := h.approvals.List(c.Request.Context(), caller, filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, models.SurveyListResponse{
		Surveys:  surveys,
		Total:    total,
		Page:     filter.Page,
		PageSize: filter.PageSize,
	})
}

// Stats godoc
// @Summary     Survey statistics
// @Description Counts by approval status, overall and per zone and property type. Accepts the listing filters.
// @Tags        admin
// @Produce     json
// @Security    Bearer
// @Success     200 {object} models.SurveyStats
// @Failure     403 {object} models.ErrorResponse
// @Router      /admin/surveys/stats [get]
func (h *AdminHandler) Stats(c *gin.Context) {
	caller, ok := getCaller(c)
	if !ok {
		return
	}

	filter, err := parseFilter(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	stats, err := h.approvals.Stats(c.Request.Context(), caller, filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// Export godoc
// @Summary     Export surveys as XLSX
// @Description Exports every survey matching the listing filters.
// @Tags        admin
// @Produce     application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security    Bearer
// @Success     200 {file} file
// @Failure     400 {object} models.ErrorResponse
// @Failure     403 {object} models.ErrorResponse
// @Router      /admin/surveys/export [get]
func (h *AdminHandler) Export(c *gin.Context) {
	caller, ok := getCaller(c)
	if !ok {
		return
	}

	filter, err := parseFilter(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	data, err := h.approvals.Export(c.Request.Context(), caller, filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	fileName := fmt.Sprintf("surveys_%s.xlsx", time.Now().UTC().Format("20060102_150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	c.Data(http.StatusOK, export.ContentType, data)
}

// Approve godoc
// @Summary     Approve a survey
// @Tags        admin
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       property_id path string                true  "Property ID"
// @Param       request     body models.ApproveRequest false "Optional admin notes"
// @Success     200 {object} models.PropertySurvey
// @Failure     403 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Router      /admin/surveys/{property_id}/approve [post]
func (h *AdminHandler) Approve(c *gin.Context) {
	caller, ok := getCaller(c)
	if !ok {
		return
	}

	// The body is optional
	var req models.ApproveRequest
	if err := bindStrict(c, &req); err != nil && !errors.Is(err, io.EOF) {
		respondError(c, h.logger, bindError(err))
		return
	}

	survey, err := h.approvals.Approve(c.Request.Context(), caller, c.Param("property_id"), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, survey)
}

// Reject godoc
// @Summary     Reject a survey
// @Tags        admin
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       property_id path string               true "Property ID"
// @Param       request     body models.RejectRequest true "Rejection reason and optional admin notes"
// @Success     200 {object} models.PropertySurvey
// @Failure     400 {object} models.ErrorResponse
// @Failure     403 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Router      /admin/surveys/{property_id}/reject [post]
func (h *AdminHandler) Reject(c *gin.Context) {
	caller, ok := getCaller(c)
	if !ok {
		return
	}

	var req models.RejectRequest
	if err := bindStrict(c, &req); err != nil {
		respondError(c, h.logger, bindError(err))
		return
	}

	survey, err := h.approvals.Reject(c.Request.Context(), caller, c.Param("property_id"), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, survey)
}
