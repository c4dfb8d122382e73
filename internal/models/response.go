package models

import "time"

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Field   string `json:"field,omitempty"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

type SurveyListResponse struct {
	Surveys  []PropertySurvey `json:"surveys"`
	Total    int              `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
}

// ImageUploadResponse is the caller-facing view of a freshly installed asset.
type ImageUploadResponse struct {
	ID         string    `json:"id"`
	ImageType  ImageType `json:"image_type"`
	FileName   string    `json:"file_name"`
	FileSize   int64     `json:"file_size"`
	MimeType   string    `json:"mime_type"`
	UploadedAt time.Time `json:"uploaded_at"`
	Cleanup    string    `json:"cleanup,omitempty"`
}

type ImageListResponse struct {
	Images []PropertyImage `json:"images"`
}
