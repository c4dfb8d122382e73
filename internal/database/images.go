package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"property-survey-backend/internal/models"
)

const imageColumns = "id, property_id, image_type, remote_path, remote_url, file_name, file_size, mime_type, uploaded_by, uploaded_at"

func scanImage(row scanner) (*models.PropertyImage, error) {
	var img models.PropertyImage
	err := row.Scan(
		&img.ID, &img.PropertyID, &img.ImageType, &img.RemotePath, &img.RemoteURL,
		&img.FileName, &img.FileSize, &img.MimeType, &img.UploadedBy, &img.UploadedAt,
	)
	if err != nil {
		return nil, err
	}
	return &img, nil
}

// CreateImage inserts the slot row. ErrDuplicate means another upload won the
// (property_id, image_type) slot in the meantime.
func (c *Client) CreateImage(ctx context.Context, img *models.PropertyImage) error {
	query := `
		INSERT INTO property_images (` + imageColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := c.db.ExecContext(ctx, query,
		img.ID, img.PropertyID, img.ImageType, img.RemotePath, img.RemoteURL,
		img.FileName, img.FileSize, img.MimeType, img.UploadedBy, img.UploadedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create image: %w", err)
	}
	return nil
}

func (c *Client) GetImage(ctx context.Context, id uuid.UUID) (*models.PropertyImage, error) {
	img, err := scanImage(c.db.QueryRowContext(ctx,
		"SELECT "+imageColumns+" FROM property_images WHERE id = $1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get image: %w", err)
	}
	return img, nil
}

func (c *Client) GetImageBySlot(ctx context.Context, propertyID string, imageType models.ImageType) (*models.PropertyImage, error) {
	img, err := scanImage(c.db.QueryRowContext(ctx,
		"SELECT "+imageColumns+" FROM property_images WHERE property_id = $1 AND image_type = $2",
		propertyID, imageType))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get image: %w", err)
	}
	return img, nil
}

func (c *Client) ListImages(ctx context.Context, propertyID string) ([]models.PropertyImage, error) {
	rows, err := c.db.QueryContext(ctx,
		"SELECT "+imageColumns+" FROM property_images WHERE property_id = $1 ORDER BY image_type",
		propertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}
	defer rows.Close()

	images := make([]models.PropertyImage, 0)
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan image: %w", err)
		}
		images = append(images, *img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate images: %w", err)
	}
	return images, nil
}

func (c *Client) DeleteImage(ctx context.Context, id uuid.UUID) error {
	result, err := c.db.ExecContext(ctx, "DELETE FROM property_images WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
