package services

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"property-survey-backend/internal/apperror"
	"property-survey-backend/internal/assets"
	"property-survey-backend/internal/database"
	"property-survey-backend/internal/models"
)

// CleanupOutcome records what happened to the previous occupant of a slot
// during an upload.
type CleanupOutcome string

const (
	CleanupNone   CleanupOutcome = "none"
	CleanupDone   CleanupOutcome = "cleaned"
	CleanupFailed CleanupOutcome = "cleanup_failed"
)

type UploadInput struct {
	PropertyID string
	ImageType  models.ImageType
	Data       []byte
	FileName   string
}

type UploadResult struct {
	Image   *models.PropertyImage
	Cleanup CleanupOutcome
}

// AssetService keeps one live image per (property, image type) slot, with the
// row in the relational store pointing at bytes in the remote repository.
type AssetService struct {
	images    ImageStore
	surveys   SurveyStore
	repo      AssetRepository
	validator *assets.Validator
	repoRoot  string
	logger    *zap.Logger
	now       func() time.Time
}

func NewAssetService(
	images ImageStore,
	surveys SurveyStore,
	repo AssetRepository,
	validator *assets.Validator,
	repoRoot string,
	logger *zap.Logger,
) *AssetService {
	return &AssetService{
		images:    images,
		surveys:   surveys,
		repo:      repo,
		validator: validator,
		repoRoot:  repoRoot,
		logger:    logger,
		now:       utcNow,
	}
}

// Upload replaces whatever occupies the slot. Cleanup of the old occupant is
// best effort. The row insert is the commit point.
func (s *AssetService) Upload(ctx context.Context, caller models.Caller, in UploadInput) (*UploadResult, error) {
	detected, err := s.validator.Validate(in.PropertyID, in.ImageType, in.Data, in.FileName)
	if err != nil {
		return nil, err
	}

	existing, err := s.images.GetImageBySlot(ctx, in.PropertyID, in.ImageType)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return nil, storeError(err, "image", s.logger)
	}
	if err := s.authorize(ctx, caller, in.PropertyID, existing); err != nil {
		return nil, err
	}

	cleanup := CleanupNone
	if existing != nil {
		cleanup = s.cleanupSlot(ctx, existing)
	}

	at := s.now()
	remotePath := assets.BuildPath(s.repoRoot, in.PropertyID, in.ImageType, detected.Extension, at)
	message := assets.CommitMessage("Upload", in.PropertyID, in.ImageType)
	if err := s.repo.Put(ctx, remotePath, in.Data, message); err != nil {
		s.logger.Error("Asset upload failed",
			zap.String("property_id", in.PropertyID),
			zap.String("image_type", string(in.ImageType)),
			zap.String("remote_path", remotePath),
			zap.Error(err),
		)
		return nil, apperror.Wrap(apperror.KindUploadFailed, "failed to store the file in the asset repository", err)
	}

	img := &models.PropertyImage{
		ID:         uuid.New(),
		PropertyID: in.PropertyID,
		ImageType:  in.ImageType,
		RemotePath: remotePath,
		RemoteURL:  s.repo.PublicURL(remotePath),
		FileName:   cleanFileName(in.FileName, in.ImageType, detected.Extension),
		FileSize:   int64(len(in.Data)),
		MimeType:   detected.MimeType,
		UploadedBy: caller.UserID,
		UploadedAt: at,
	}
	if err := s.images.CreateImage(ctx, img); err != nil {
		s.logger.Warn("Image row not written, remote object orphaned",
			zap.String("property_id", in.PropertyID),
			zap.String("image_type", string(in.ImageType)),
			zap.String("remote_path", remotePath),
			zap.Error(err),
		)
		if errors.Is(err, database.ErrDuplicate) {
			return nil, apperror.New(apperror.KindConflict, "another upload for this slot finished first")
		}
		return nil, storeError(err, "image", s.logger)
	}

	s.logger.Info("Asset uploaded",
		zap.String("image_id", img.ID.String()),
		zap.String("property_id", in.PropertyID),
		zap.String("image_type", string(in.ImageType)),
		zap.String("remote_path", remotePath),
		zap.String("cleanup", string(cleanup)),
	)
	return &UploadResult{Image: img, Cleanup: cleanup}, nil
}

// cleanupSlot removes the previous occupant: remote object first, then the row
// regardless, so the slot is free for the new insert even when the remote
// object is left behind.
func (s *AssetService) cleanupSlot(ctx context.Context, old *models.PropertyImage) CleanupOutcome {
	outcome := CleanupDone
	fields := []zap.Field{
		zap.String("property_id", old.PropertyID),
		zap.String("image_type", string(old.ImageType)),
		zap.String("remote_path", old.RemotePath),
	}

	message := assets.CommitMessage("Replace", old.PropertyID, old.ImageType)
	if err := s.repo.Delete(ctx, old.RemotePath, message); err != nil {
		outcome = CleanupFailed
		s.logger.Warn("Superseded asset left in repository", append(fields, zap.Error(err))...)
	}
	if err := s.images.DeleteImage(ctx, old.ID); err != nil && !errors.Is(err, database.ErrNotFound) {
		outcome = CleanupFailed
		s.logger.Warn("Superseded image row not deleted", append(fields, zap.Error(err))...)
	}

	s.logger.Info("Slot cleanup finished", append(fields, zap.String("outcome", string(outcome)))...)
	return outcome
}

// Fetch resolves the row, then reads the bytes. A missing row is NotFound; a
// missing or unreadable remote object keeps its remote kind.
func (s *AssetService) Fetch(ctx context.Context, id uuid.UUID) (*models.PropertyImage, []byte, error) {
	img, err := s.images.GetImage(ctx, id)
	if err != nil {
		return nil, nil, storeError(err, "image", s.logger)
	}

	data, err := s.repo.Get(ctx, img.RemotePath)
	if err != nil {
		s.logger.Warn("Asset read failed",
			zap.String("image_id", id.String()),
			zap.String("remote_path", img.RemotePath),
			zap.Error(err),
		)
		return nil, nil, err
	}
	return img, data, nil
}

// Delete removes the remote object, then the row. A failed remote delete
// keeps the row.
func (s *AssetService) Delete(ctx context.Context, caller models.Caller, id uuid.UUID) error {
	img, err := s.images.GetImage(ctx, id)
	if err != nil {
		return storeError(err, "image", s.logger)
	}
	if err := s.authorize(ctx, caller, img.PropertyID, img); err != nil {
		return err
	}

	message := assets.CommitMessage("Delete", img.PropertyID, img.ImageType)
	if err := s.repo.Delete(ctx, img.RemotePath, message); err != nil {
		s.logger.Error("Asset delete aborted, row kept",
			zap.String("image_id", id.String()),
			zap.String("remote_path", img.RemotePath),
			zap.Error(err),
		)
		return err
	}

	if err := s.images.DeleteImage(ctx, id); err != nil {
		return storeError(err, "image", s.logger)
	}

	s.logger.Info("Asset deleted",
		zap.String("image_id", id.String()),
		zap.String("property_id", img.PropertyID),
		zap.String("image_type", string(img.ImageType)),
		zap.String("deleted_by", caller.UserID.String()),
	)
	return nil
}

func (s *AssetService) List(ctx context.Context, propertyID string) ([]models.PropertyImage, error) {
	if !assets.ValidPropertyID(propertyID) {
		return nil, apperror.Field("property_id", "invalid property_id")
	}
	images, err := s.images.ListImages(ctx, propertyID)
	if err != nil {
		return nil, storeError(err, "image", s.logger)
	}
	return images, nil
}

// authorize lets elevated roles through. Otherwise the caller must own the
// survey for propertyID or, when no survey row exists yet, have uploaded the
// current occupant (if any).
func (s *AssetService) authorize(ctx context.Context, caller models.Caller, propertyID string, current *models.PropertyImage) error {
	if caller.Role.Elevated() {
		return nil
	}

	survey, err := s.surveys.GetSurveyByPropertyID(ctx, propertyID)
	switch {
	case err == nil:
		if caller.Owns(survey) {
			return nil
		}
	case errors.Is(err, database.ErrNotFound):
		if current == nil || current.UploadedBy == caller.UserID {
			return nil
		}
	default:
		return storeError(err, "survey", s.logger)
	}
	return apperror.New(apperror.KindAccessDenied, "you can only manage images of your own surveys")
}

func cleanFileName(name string, imageType models.ImageType, ext string) string {
	name = strings.TrimSpace(filepath.Base(strings.ReplaceAll(name, "\\", "/")))
	if name == "" || name == "." || name == "/" {
		return string(imageType) + ext
	}
	if len(name) > 255 {
		name = name[len(name)-255:]
	}
	return name
}
