package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"imageenhancer/internal/apperr"
	"imageenhancer/internal/models"
)

type Storage struct {
	pool *pgxpool.Pool
	db   *sql.DB // for migrations
}

func New(ctx context.Context, dsn string) (*Storage, error) {
	const op = "storage.New"

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrStorage, op, "connect", err)
	}

	db := stdlib.OpenDBFromPool(pool)
	if err := runMigrations(db); err != nil {
		db.Close()
		pool.Close()
		return nil, apperr.Wrap(apperr.ErrStorage, op, "migrate", err)
	}

	return &Storage{pool: pool, db: db}, nil
}

func (s *Storage) Close() {
	s.db.Close()
	s.pool.Close()
}

func (s *Storage) Create(ctx context.Context, rec *models.ImageRecord) error {
	const op = "storage.Create"
	_, err := s.pool.Exec(ctx,
		`INSERT INTO images (id, original_image_name, original_image_path, enhanced_image_path,
		                     upload_date, enhancement_date, enhancement_type, status,
		                     processing_time, file_size, mime_type)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		rec.ID, rec.OriginalImageName, rec.OriginalImagePath, rec.EnhancedImagePath,
		rec.UploadDate, rec.EnhancementDate, rec.EnhancementType, rec.Status,
		rec.ProcessingTime, rec.FileSize, rec.MimeType)
	if err != nil {
		return apperr.Wrap(apperr.ErrStorage, op, "insert", err)
	}
	return nil
}

func (s *Storage) Get(ctx context.Context, id string) (*models.ImageRecord, error) {
	const op = "storage.Get"
	var rec models.ImageRecord
	err := s.pool.QueryRow(ctx,
		`SELECT id, original_image_name, original_image_path, enhanced_image_path,
		        upload_date, enhancement_date, enhancement_type, status,
		        processing_time, file_size, mime_type
		 FROM images WHERE id = $1`, id).
		Scan(&rec.ID, &rec.OriginalImageName, &rec.OriginalImagePath, &rec.EnhancedImagePath,
			&rec.UploadDate, &rec.EnhancementDate, &rec.EnhancementType, &rec.Status,
			&rec.ProcessingTime, &rec.FileSize, &rec.MimeType)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.Wrap(apperr.ErrNotFound, op, "Image not found", nil)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrStorage, op, "query", err)
	}
	return &rec, nil
}

// SetProcessing moves a record into Processing with a conditional update so
// two concurrent enhancement requests cannot both claim the same record.
func (s *Storage) SetProcessing(ctx context.Context, id string) error {
	const op = "storage.SetProcessing"
	tag, err := s.pool.Exec(ctx,
		`UPDATE images SET status = $2 WHERE id = $1 AND status <> $2`,
		id, models.StatusProcessing)
	if err != nil {
		return apperr.Wrap(apperr.ErrStorage, op, "update", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := s.Get(ctx, id); err != nil {
			return err
		}
		return apperr.Wrap(apperr.ErrConflict, op, "Image is already being processed", nil)
	}
	return nil
}

func (s *Storage) SetCompleted(ctx context.Context, id, enhancedPath string, date time.Time, seconds float64) error {
	const op = "storage.SetCompleted"
	_, err := s.pool.Exec(ctx,
		`UPDATE images
		 SET status = $2, enhanced_image_path = $3, enhancement_date = $4,
		     enhancement_type = $5, processing_time = $6
		 WHERE id = $1`,
		id, models.StatusCompleted, enhancedPath, date, models.EnhancementType, seconds)
	if err != nil {
		return apperr.Wrap(apperr.ErrStorage, op, "update", err)
	}
	return nil
}

func (s *Storage) SetFailed(ctx context.Context, id string) error {
	const op = "storage.SetFailed"
	_, err := s.pool.Exec(ctx,
		`UPDATE images SET status = $2 WHERE id = $1`, id, models.StatusFailed)
	if err != nil {
		return apperr.Wrap(apperr.ErrStorage, op, "update", err)
	}
	return nil
}

// History returns records that have seen an enhancement attempt (or one in
// flight), newest upload first, capped at limit.
func (s *Storage) History(ctx context.Context, limit int) ([]models.ImageRecord, error) {
	const op = "storage.History"
	rows, err := s.pool.Query(ctx,
		`SELECT id, original_image_name, original_image_path, enhanced_image_path,
		        upload_date, enhancement_date, enhancement_type, status,
		        processing_time, file_size, mime_type
		 FROM images
		 WHERE status = ANY($1)
		 ORDER BY upload_date DESC
		 LIMIT $2`,
		[]string{string(models.StatusCompleted), string(models.StatusProcessing), string(models.StatusFailed)}, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrStorage, op, "query", err)
	}
	defer rows.Close()

	var records []models.ImageRecord
	for rows.Next() {
		var rec models.ImageRecord
		if err := rows.Scan(&rec.ID, &rec.OriginalImageName, &rec.OriginalImagePath, &rec.EnhancedImagePath,
			&rec.UploadDate, &rec.EnhancementDate, &rec.EnhancementType, &rec.Status,
			&rec.ProcessingTime, &rec.FileSize, &rec.MimeType); err != nil {
			return nil, apperr.Wrap(apperr.ErrStorage, op, "scan", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.ErrStorage, op, "rows", err)
	}
	return records, nil
}

func (s *Storage) Delete(ctx context.Context, id string) error {
	const op = "storage.Delete"
	_, err := s.pool.Exec(ctx, `DELETE FROM images WHERE id = $1`, id)
	if err != nil {
		return apperr.Wrap(apperr.ErrStorage, op, "delete", err)
	}
	return nil
}
