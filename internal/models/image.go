package models

import (
	"time"

	"github.com/google/uuid"
)

// ImageType names a slot: at most one live image exists per property and type.
type ImageType string

const (
	ImageTypeOwnerPhoto    ImageType = "owner_photo"
	ImageTypeSignature     ImageType = "signature"
	ImageTypeSketchPhoto   ImageType = "sketch_photo"
	ImageTypePropertyFront ImageType = "property_front"
	ImageTypePropertySide  ImageType = "property_side"
	ImageTypePropertyBack  ImageType = "property_back"
	ImageTypeDocumentPhoto ImageType = "document_photo"
)

var imageTypes = []ImageType{
	ImageTypeOwnerPhoto,
	ImageTypeSignature,
	ImageTypeSketchPhoto,
	ImageTypePropertyFront,
	ImageTypePropertySide,
	ImageTypePropertyBack,
	ImageTypeDocumentPhoto,
}

func ImageTypes() []ImageType {
	out := make([]ImageType, len(imageTypes))
	copy(out, imageTypes)
	return out
}

func (t ImageType) Valid() bool {
	for _, it := range imageTypes {
		if it == t {
			return true
		}
	}
	return false
}

type PropertyImage struct {
	ID         uuid.UUID `json:"id"`
	PropertyID string    `json:"property_id"`
	ImageType  ImageType `json:"image_type"`
	RemotePath string    `json:"remote_path"`
	RemoteURL  string    `json:"remote_url"`
	FileName   string    `json:"file_name"`
	FileSize   int64     `json:"file_size"`
	MimeType   string    `json:"mime_type"`
	UploadedBy uuid.UUID `json:"uploaded_by"`
	UploadedAt time.Time `json:"uploaded_at"`
}
