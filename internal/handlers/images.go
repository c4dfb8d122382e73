package handlers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"property-survey-backend/internal/apperror"
	"property-survey-backend/internal/models"
	"property-survey-backend/internal/services"
)

type ImagesHandler struct {
	assets   *services.AssetService
	maxBytes int64
	logger   *zap.Logger
}

func NewImagesHandler(assets *services.AssetService, maxBytes int64, logger *zap.Logger) *ImagesHandler {
	return &ImagesHandler{
		assets:   assets,
		maxBytes: maxBytes,
		logger:   logger,
	}
}

// UploadImage godoc
// @Summary     Upload a survey image
// @Description Installs the image in its (property_id, image_type) slot, replacing any previous occupant.
// @Description The cleanup field reports what happened to the replaced image: none, cleaned or cleanup_failed.
// @Tags        images
// @Accept      multipart/form-data
// @Produce     json
// @Security    Bearer
// @Param       property_id formData string true "Property ID"
// @Param       image_type  formData string true "owner_photo, signature, sketch_photo, property_front, property_side, property_back or document_photo"
// @Param       file        formData file   true "Image file"
// @Success     201 {object} models.ImageUploadResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     403 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Failure     502 {object} models.ErrorResponse
// @Router      /images [post]
func (h *ImagesHandler) UploadImage(c *gin.Context) {
	caller, ok := getCaller(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondError(c, h.logger, apperror.Field("file", "file is required"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, h.logger, apperror.Wrap(apperror.KindInvalidAsset, "failed to open uploaded file", err))
		return
	}
	defer file.Close()

	// Read one byte past the limit so the validator sees oversized files
	data, err := io.ReadAll(io.LimitReader(file, h.maxBytes+1))
	if err != nil {
		respondError(c, h.logger, apperror.Wrap(apperror.KindInvalidAsset, "failed to read uploaded file", err))
		return
	}

	result, err := h.assets.Upload(c.Request.Context(), caller, services.UploadInput{
		PropertyID: c.PostForm("property_id"),
		ImageType:  models.ImageType(c.PostForm("image_type")),
		Data:       data,
		FileName:   fileHeader.Filename,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	img := result.Image
	c.JSON(http.StatusCreated, models.ImageUploadResponse{
		ID:         img.ID.String(),
		ImageType:  img.ImageType,
		FileName:   img.FileName,
		FileSize:   img.FileSize,
		MimeType:   img.MimeType,
		UploadedAt: img.UploadedAt,
		Cleanup:    string(result.Cleanup),
	})
}

// GetImage godoc
// @Summary     Download an image
// @Description Streams the stored bytes with the Content-Type recorded at upload.
// @Tags        images
// @Produce     image/jpeg,image/png,image/webp,image/heic
// @Security    Bearer
// @Param       id path string true "Image ID (UUID)"
// @Success     200 {file} file
// @Failure     404 {object} models.ErrorResponse
// @Failure     502 {object} models.ErrorResponse
// @Router      /images/{id} [get]
func (h *ImagesHandler) GetImage(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	img, data, err := h.assets.Fetch(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Header("Content-Length", strconv.Itoa(len(data)))
	c.Header("Cache-Control", "private, max-age=300")
	c.Data(http.StatusOK, img.MimeType, data)
}

// DeleteImage godoc
// @Summary     Delete an image
// @Tags        images
// @Security    Bearer
// @Param       id path string true "Image ID (UUID)"
// @Success     204
// @Failure     403 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     502 {object} models.ErrorResponse
// @Router      /images/{id} [delete]
func (h *ImagesHandler) DeleteImage(c *gin.Context) {
	caller, ok := getCaller(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.assets.Delete(c.Request.Context(), caller, id); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListImages godoc
// @Summary     List the live images of a property
// @Tags        images
// @Produce     json
// @Security    Bearer
// @Param       property_id path string true "Property ID"
// @Success     200 {object} models.ImageListResponse
// @Failure     400 {object} models.ErrorResponse
// @Router      /properties/{property_id}/images [get]
func (h *ImagesHandler) ListImages(c *gin.Context) {
	images, err := h.assets.List(c.Request.Context(), c.Param("property_id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if images == nil {
		images = []models.PropertyImage{}
	}

	c.JSON(http.StatusOK, models.ImageListResponse{Images: images})
}
