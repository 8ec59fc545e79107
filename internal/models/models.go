package models

import "time"

type Status string

const (
	StatusUploaded   Status = "Uploaded"
	StatusProcessing Status = "Processing"
	StatusCompleted  Status = "Completed"
	StatusFailed     Status = "Failed"
)

// EnhancementType labels the fixed pipeline applied to every image.
const EnhancementType = "Grayscale + Sharpening"

type ImageRecord struct {
	ID                string     `db:"id"`
	OriginalImageName string     `db:"original_image_name"`
	OriginalImagePath string     `db:"original_image_path"`
	EnhancedImagePath string     `db:"enhanced_image_path"` // empty until enhancement succeeds
	UploadDate        time.Time  `db:"upload_date"`
	EnhancementDate   *time.Time `db:"enhancement_date"`
	EnhancementType   string     `db:"enhancement_type"`
	Status            Status     `db:"status"`
	ProcessingTime    float64    `db:"processing_time"` // seconds
	FileSize          int64      `db:"file_size"`
	MimeType          string     `db:"mime_type"`
}

type UploadResponse struct {
	Success          bool   `json:"success"`
	ImageID          string `json:"imageId"`
	OriginalImageURL string `json:"originalImageUrl"`
	Message          string `json:"message"`
}

type EnhanceResponse struct {
	Success          bool    `json:"success"`
	EnhancedImageURL string  `json:"enhancedImageUrl"`
	ProcessingTime   float64 `json:"processingTime"`
	EnhancementType  string  `json:"enhancementType"`
	Message          string  `json:"message"`
}

type HistoryItem struct {
	ID                string  `json:"id"`
	OriginalImageName string  `json:"originalImageName"`
	EnhancedImageName *string `json:"enhancedImageName"`
	UploadDate        string  `json:"uploadDate"` // ISO-8601
	EnhancementType   string  `json:"enhancementType"`
	Status            Status  `json:"status"`
	ProcessingTime    float64 `json:"processingTime"`
}

type HistoryResponse struct {
	Success bool          `json:"success"`
	Data    []HistoryItem `json:"data"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
