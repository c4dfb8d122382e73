package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"property-survey-backend/internal/models"
	"property-survey-backend/internal/services"
)

type SurveysHandler struct {
	surveys *services.SurveyService
	logger  *zap.Logger
}

func NewSurveysHandler(surveys *services.SurveyService, logger *zap.Logger) *SurveysHandler {
	return &SurveysHandler{
		surveys: surveys,
		logger:  logger,
	}
}

// CreateSurvey godoc
// @Summary     Create a property survey
// @Description Creates a draft survey owned by the caller. The survey number is generated when omitted.
// @Tags        surveys
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.CreateSurveyRequest true "Survey details"
// @Success     201 {object} models.PropertySurvey
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Router      /surveys [post]
func (h *SurveysHandler) CreateSurvey(c *gin.Context) {
	caller, ok := getCaller(c)
	if !ok {
		return
	}

	var req models.CreateSurveyRequest
	if err := bindStrict(c, &req); err != nil {
		respondError(c, h.logger, bindError(err))
		return
	}

	survey, err := h.surveys.Create(c.Request.Context(), caller, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, survey)
}

// ListSurveys godoc
// @Summary     List my surveys
// @Tags        surveys
// @Produce     json
// @Security    Bearer
// @Param       page      query int    false "Page (1-based)"
// @Param       page_size query int    false "Page size (max 100)"
// @Param       search    query string false "Matches property id, survey number or owner name"
// @Success     200 {object} models.SurveyListResponse
// @Failure     400 {object} models.ErrorResponse
// @Router      /surveys [get]
func (h *SurveysHandler) ListSurveys(c *gin.Context) {
	caller, ok := getCaller(c)
	if !ok {
		return
	}

	filter, err := parseFilter(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	surveys, total, err := h.surveys.ListMine(c.Request.Context(), caller, filter)
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

// GetSurvey godoc
// @Summary     Get a survey
// @Tags        surveys
// @Produce     json
// @Security    Bearer
// @Param       id path string true "Survey ID (UUID)"
// @Success     200 {object} models.PropertySurvey
// @Failure     403 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /surveys/{id} [get]
func (h *SurveysHandler) GetSurvey(c *gin.Context) {
	caller, ok := getCaller(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	survey, err := h.surveys.Get(c.Request.Context(), caller, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, survey)
}

// UpdateSurvey godoc
// @Summary     Edit a survey
// @Description Edits outside the draft state require edit_comment and are counted.
// @Tags        surveys
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       id      path string                     true "Survey ID (UUID)"
// @Param       request body models.UpdateSurveyRequest true "Fields to change"
// @Success     200 {object} models.PropertySurvey
// @Failure     400 {object} models.ErrorResponse
// @Failure     403 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /surveys/{id} [patch]
func (h *SurveysHandler) UpdateSurvey(c *gin.Context) {
	caller, ok := getCaller(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req models.UpdateSurveyRequest
	if err := bindStrict(c, &req); err != nil {
		respondError(c, h.logger, bindError(err))
		return
	}

	survey, err := h.surveys.Update(c.Request.Context(), caller, id, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, survey)
}

// SubmitSurvey godoc
// @Summary     Submit a survey for review
// @Tags        surveys
// @Produce     json
// @Security    Bearer
// @Param       id path string true "Survey ID (UUID)"
// @Success     200 {object} models.PropertySurvey
// @Failure     403 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /surveys/{id}/submit [post]
func (h *SurveysHandler) SubmitSurvey(c *gin.Context) {
	caller, ok := getCaller(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	survey, err := h.surveys.Submit(c.Request.Context(), caller, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, survey)
}

// ReviewSurvey godoc
// @Summary     Review a submitted survey
// @Tags        surveys
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       id      path string               true "Survey ID (UUID)"
// @Param       request body models.ReviewRequest true "approve or reject, with optional remarks"
// @Success     200 {object} models.PropertySurvey
// @Failure     400 {object} models.ErrorResponse
// @Failure     403 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Router      /surveys/{id}/review [post]
func (h *SurveysHandler) ReviewSurvey(c *gin.Context) {
	caller, ok := getCaller(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req models.ReviewRequest
	if err := bindStrict(c, &req); err != nil {
		respondError(c, h.logger, bindError(err))
		return
	}

	survey, err := h.surveys.Review(c.Request.Context(), caller, id, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, survey)
}
