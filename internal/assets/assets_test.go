package assets

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"property-survey-backend/internal/apperror"
	"property-survey-backend/internal/config"
	"property-survey-backend/internal/models"
)

var (
	pngHeader  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")
	jpegHeader = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00, 0x01}
)

func newValidator() *Validator {
	return NewValidator(config.Default().Assets)
}

func TestBuildPath_UsesUTC(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	// 2024-01-01 02:15:09 IST is still 2023-12-31 in UTC.
	at := time.Date(2024, 1, 1, 2, 15, 9, 0, ist)

	got := BuildPath("/surveys/", "P-1", models.ImageTypeSketchPhoto, ".jpg", at)
	assert.Equal(t, "surveys/2023/12/P-1/sketch_photo_20231231204509.jpg", got)
}

func TestValidate_AcceptsSniffedImages(t *testing.T) {
	v := newValidator()

	d, err := v.Validate("P-1", models.ImageTypeOwnerPhoto, pngHeader, "upload.bin")
	require.NoError(t, err)
	assert.Equal(t, "image/png", d.MimeType)
	assert.Equal(t, ".png", d.Extension)

	d, err = v.Validate("P-1", models.ImageTypeSignature, jpegHeader, "sig.jpeg")
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", d.MimeType)
}

func TestValidate_Rejections(t *testing.T) {
	v := NewValidator(config.AssetsConfig{MaxFileSizeBytes: 64, AllowedMIMETypes: []string{"image/png"}})

	tests := []struct {
		name       string
		propertyID string
		imageType  models.ImageType
		data       []byte
		kind       apperror.Kind
	}{
		{"bad property id", "../etc", models.ImageTypeOwnerPhoto, pngHeader, apperror.KindValidation},
		{"unknown slot", "P-1", models.ImageType("selfie"), pngHeader, apperror.KindInvalidAsset},
		{"empty", "P-1", models.ImageTypeOwnerPhoto, nil, apperror.KindInvalidAsset},
		{"too large", "P-1", models.ImageTypeOwnerPhoto, append(pngHeader, bytes.Repeat([]byte{0}, 64)...), apperror.KindInvalidAsset},
		{"not allowed", "P-1", models.ImageTypeOwnerPhoto, []byte("%PDF-1.4 hello"), apperror.KindInvalidAsset},
		{"jpeg not on list", "P-1", models.ImageTypeOwnerPhoto, jpegHeader, apperror.KindInvalidAsset},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Validate(tt.propertyID, tt.imageType, tt.data, "f")
			require.Error(t, err)
			assert.Equal(t, tt.kind, apperror.KindOf(err))
		})
	}
}

func TestValidPropertyID(t *testing.T) {
	assert.True(t, ValidPropertyID("PROP_2024-001"))
	assert.False(t, ValidPropertyID(""))
	assert.False(t, ValidPropertyID("a/b"))
}
