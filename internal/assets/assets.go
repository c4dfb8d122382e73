// Package assets validates survey photographs and lays out where they live
// in the remote repository.
package assets

import (
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"property-survey-backend/internal/apperror"
	"property-survey-backend/internal/config"
	"property-survey-backend/internal/models"
)

// Property ids become path segments, so they are restricted to a safe alphabet.
var propertyIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

func ValidPropertyID(id string) bool {
	return propertyIDPattern.MatchString(id)
}

// Validator checks uploads against the configured size limit and MIME allow-list.
type Validator struct {
	maxSize int64
	allowed []string
}

func NewValidator(cfg config.AssetsConfig) *Validator {
	return &Validator{maxSize: cfg.MaxFileSizeBytes, allowed: cfg.AllowedMIMETypes}
}

// Detected is the sniffed content type of an accepted upload.
type Detected struct {
	MimeType  string
	Extension string
}

// Validate sniffs the content rather than trusting the client's Content-Type.
func (v *Validator) Validate(propertyID string, imageType models.ImageType, data []byte, fileName string) (*Detected, error) {
	if !ValidPropertyID(propertyID) {
		return nil, apperror.Field("property_id", "property_id must be 1-64 letters, digits, '-' or '_'")
	}
	if !imageType.Valid() {
		return nil, &apperror.Error{
			Kind:    apperror.KindInvalidAsset,
			Message: fmt.Sprintf("unknown image_type %q", imageType),
			Field:   "image_type",
		}
	}
	if len(data) == 0 {
		return nil, &apperror.Error{Kind: apperror.KindInvalidAsset, Message: "file is empty", Field: "file"}
	}
	if int64(len(data)) > v.maxSize {
		return nil, &apperror.Error{
			Kind:    apperror.KindInvalidAsset,
			Message: fmt.Sprintf("file exceeds the %d byte limit", v.maxSize),
			Field:   "file",
		}
	}

	mtype := mimetype.Detect(data)
	for _, allowed := range v.allowed {
		if mtype.Is(allowed) {
			return &Detected{MimeType: allowed, Extension: extension(mtype, fileName)}, nil
		}
	}
	return nil, &apperror.Error{
		Kind:    apperror.KindInvalidAsset,
		Message: fmt.Sprintf("file type %s is not allowed", mtype.String()),
		Field:   "file",
	}
}

func extension(mtype *mimetype.MIME, fileName string) string {
	if ext := mtype.Extension(); ext != "" {
		return ext
	}
	return strings.ToLower(filepath.Ext(fileName))
}

// BuildPath returns {root}/{YYYY}/{MM}/{propertyID}/{imageType}_{timestamp}{ext}.
// The date parts and timestamp are always taken in UTC.
func BuildPath(root, propertyID string, imageType models.ImageType, ext string, at time.Time) string {
	at = at.UTC()
	name := fmt.Sprintf("%s_%s%s", imageType, at.Format("20060102150405"), ext)
	return path.Join(strings.Trim(root, "/"), at.Format("2006"), at.Format("01"), propertyID, name)
}

// CommitMessage describes a repository change for the commit log.
func CommitMessage(action, propertyID string, imageType models.ImageType) string {
	return fmt.Sprintf("%s %s for property %s", action, imageType, propertyID)
}
