// Package service implements the image lifecycle: upload, enhancement with
// its status transitions, history and file resolution for serving.
package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"imageenhancer/internal/apperr"
	"imageenhancer/internal/enhance"
	"imageenhancer/internal/events"
	"imageenhancer/internal/metrics"
	"imageenhancer/internal/models"
)

const historyLimit = 50

// RecordStore is the persistence contract the controller depends on.
// SetProcessing must be conditional: it fails with a conflict when the
// record is already Processing.
type RecordStore interface {
	Create(ctx context.Context, rec *models.ImageRecord) error
	Get(ctx context.Context, id string) (*models.ImageRecord, error)
	SetProcessing(ctx context.Context, id string) error
	SetCompleted(ctx context.Context, id, enhancedPath string, date time.Time, seconds float64) error
	SetFailed(ctx context.Context, id string) error
	History(ctx context.Context, limit int) ([]models.ImageRecord, error)
}

var allowedExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

type Service struct {
	store    RecordStore
	files    *FileStore
	pub      events.Publisher
	log      *zap.Logger
	maxBytes int64
}

func New(store RecordStore, files *FileStore, pub events.Publisher, log *zap.Logger, maxBytes int64) *Service {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Service{store: store, files: files, pub: pub, log: log, maxBytes: maxBytes}
}

// Upload validates the file, persists it and creates the record in status
// Uploaded. Any failure after the file hit the disk removes it again.
func (s *Service) Upload(ctx context.Context, filename string, size int64, r io.Reader) (*models.ImageRecord, error) {
	const op = "service.Upload"

	ext := strings.ToLower(filepath.Ext(filename))
	mimeType, ok := allowedExtensions[ext]
	if !ok {
		metrics.Uploads.WithLabelValues("rejected").Inc()
		return nil, apperr.Wrap(apperr.ErrValidation, op, "Only JPG, JPEG, and PNG files are allowed", nil)
	}
	if size > s.maxBytes {
		metrics.Uploads.WithLabelValues("rejected").Inc()
		return nil, apperr.Wrap(apperr.ErrValidation, op, "File size exceeds 10MB limit", nil)
	}

	id := uuid.New().String()
	path, err := s.files.SaveOriginal(id, ext, r)
	if err != nil {
		metrics.Uploads.WithLabelValues("error").Inc()
		s.files.Cleanup(id, ext)
		return nil, apperr.Wrap(apperr.ErrStorage, op, "save original", err)
	}

	rec := &models.ImageRecord{
		ID:                id,
		OriginalImageName: filename,
		OriginalImagePath: path,
		UploadDate:        time.Now().UTC(),
		Status:            models.StatusUploaded,
		FileSize:          size,
		MimeType:          mimeType,
	}
	if err := s.store.Create(ctx, rec); err != nil {
		metrics.Uploads.WithLabelValues("error").Inc()
		s.files.Cleanup(id, ext)
		return nil, apperr.Wrap(apperr.ErrStorage, op, "create record", err)
	}

	metrics.Uploads.WithLabelValues("success").Inc()
	s.pub.Publish(ctx, events.EventUploaded, id, string(models.StatusUploaded))
	s.log.Info("image uploaded",
		zap.String("image_id", id),
		zap.String("filename", filename),
		zap.Int64("size", size))
	return rec, nil
}

// Enhance runs the pipeline for an uploaded image. The record moves to
// Processing first; every attempt ends in Completed or Failed.
func (s *Service) Enhance(ctx context.Context, id string) (*models.ImageRecord, error) {
	const op = "service.Enhance"

	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.store.SetProcessing(ctx, id); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(rec.OriginalImagePath)
	if err != nil {
		return nil, s.fail(ctx, id, apperr.Wrap(apperr.ErrStorage, op, "read original", err))
	}

	result, seconds, err := enhance.Enhance(data)
	if err != nil {
		return nil, s.fail(ctx, id, err)
	}

	enhancedPath, err := s.files.WriteEnhanced(id, result)
	if err != nil {
		return nil, s.fail(ctx, id, apperr.Wrap(apperr.ErrStorage, op, "write enhanced", err))
	}

	now := time.Now().UTC()
	if err := s.store.SetCompleted(ctx, id, enhancedPath, now, seconds); err != nil {
		return nil, s.fail(ctx, id, err)
	}

	rec.Status = models.StatusCompleted
	rec.EnhancedImagePath = enhancedPath
	rec.EnhancementDate = &now
	rec.EnhancementType = models.EnhancementType
	rec.ProcessingTime = seconds

	metrics.Enhancements.WithLabelValues("success").Inc()
	metrics.EnhancementSeconds.Observe(seconds)
	s.pub.Publish(ctx, events.EventEnhanced, id, string(models.StatusCompleted))
	s.log.Info("image enhanced",
		zap.String("image_id", id),
		zap.Float64("seconds", seconds))
	return rec, nil
}

func (s *Service) fail(ctx context.Context, id string, cause error) error {
	metrics.Enhancements.WithLabelValues("error").Inc()
	if err := s.store.SetFailed(ctx, id); err != nil {
		s.log.Error("mark failed", zap.String("image_id", id), zap.Error(err))
	}
	s.pub.Publish(ctx, events.EventEnhanceFailed, id, string(models.StatusFailed))
	s.log.Error("enhancement failed", zap.String("image_id", id), zap.Error(cause))
	return cause
}

// History lists records with at least one enhancement attempt recorded,
// newest upload first, capped at 50.
func (s *Service) History(ctx context.Context) ([]models.HistoryItem, error) {
	records, err := s.store.History(ctx, historyLimit)
	if err != nil {
		return nil, err
	}

	items := make([]models.HistoryItem, 0, len(records))
	for _, rec := range records {
		item := models.HistoryItem{
			ID:                rec.ID,
			OriginalImageName: rec.OriginalImageName,
			UploadDate:        rec.UploadDate.UTC().Format(time.RFC3339),
			EnhancementType:   rec.EnhancementType,
			Status:            rec.Status,
			ProcessingTime:    rec.ProcessingTime,
		}
		if item.EnhancementType == "" {
			item.EnhancementType = models.EnhancementType
		}
		if rec.EnhancedImagePath != "" {
			name := fmt.Sprintf("enhanced_%s.png", rec.OriginalImageName)
			item.EnhancedImageName = &name
		}
		items = append(items, item)
	}
	return items, nil
}

// ServedFile is a file resolved for streaming back to a client.
type ServedFile struct {
	Path     string
	MimeType string
	Name     string
}

// Original resolves the stored original. A record whose file vanished from
// disk reports not-found rather than an internal failure.
func (s *Service) Original(ctx context.Context, id string) (*ServedFile, error) {
	const op = "service.Original"

	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(rec.OriginalImagePath); err != nil {
		return nil, apperr.Wrap(apperr.ErrNotFound, op, "Image file not found", err)
	}
	return &ServedFile{
		Path:     rec.OriginalImagePath,
		MimeType: rec.MimeType,
		Name:     rec.OriginalImageName,
	}, nil
}

// Enhanced resolves the enhanced PNG for serving.
func (s *Service) Enhanced(ctx context.Context, id string) (*ServedFile, error) {
	const op = "service.Enhanced"

	rec, err := s.enhancedRecord(ctx, op, id)
	if err != nil {
		return nil, err
	}
	return &ServedFile{
		Path:     rec.EnhancedImagePath,
		MimeType: "image/png",
		Name:     fmt.Sprintf("enhanced_%s.png", rec.OriginalImageName),
	}, nil
}

// Download resolves the enhanced PNG with the attachment filename
// enhanced_{originalStem}_{id[:8]}.png.
func (s *Service) Download(ctx context.Context, id string) (*ServedFile, error) {
	const op = "service.Download"

	rec, err := s.enhancedRecord(ctx, op, id)
	if err != nil {
		return nil, err
	}
	stem := strings.TrimSuffix(rec.OriginalImageName, filepath.Ext(rec.OriginalImageName))
	short := rec.ID
	if len(short) > 8 {
		short = short[:8]
	}
	return &ServedFile{
		Path:     rec.EnhancedImagePath,
		MimeType: "image/png",
		Name:     fmt.Sprintf("enhanced_%s_%s.png", stem, short),
	}, nil
}

func (s *Service) enhancedRecord(ctx context.Context, op, id string) (*models.ImageRecord, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.EnhancedImagePath == "" {
		return nil, apperr.Wrap(apperr.ErrNotFound, op, "Enhanced image not available", nil)
	}
	if _, err := os.Stat(rec.EnhancedImagePath); err != nil {
		return nil, apperr.Wrap(apperr.ErrNotFound, op, "Enhanced image file not found", err)
	}
	return rec, nil
}
