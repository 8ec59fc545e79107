package storage_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imageenhancer/internal/apperr"
	"imageenhancer/internal/models"
	"imageenhancer/internal/storage"
)

// Requires a reachable Postgres; skipped otherwise. Migrations are resolved
// relative to the repo root.
func setupStorage(t *testing.T) *storage.Storage {
	t.Helper()
	dsn := os.Getenv("IMAGEENHANCER_TEST_DB")
	if dsn == "" {
		t.Skip("IMAGEENHANCER_TEST_DB env not set")
	}
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir("../.."))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	s, err := storage.New(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func newRecord() *models.ImageRecord {
	return &models.ImageRecord{
		ID:                uuid.New().String(),
		OriginalImageName: "photo.png",
		OriginalImagePath: "/tmp/photo.png",
		UploadDate:        time.Now().UTC().Truncate(time.Microsecond),
		Status:            models.StatusUploaded,
		FileSize:          1234,
		MimeType:          "image/png",
	}
}

func TestCreateGetRoundtrip(t *testing.T) {
	s := setupStorage(t)
	ctx := context.Background()

	rec := newRecord()
	require.NoError(t, s.Create(ctx, rec))
	t.Cleanup(func() { _ = s.Delete(ctx, rec.ID) })

	got, err := s.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, models.StatusUploaded, got.Status)
	assert.Equal(t, int64(1234), got.FileSize)
	assert.Nil(t, got.EnhancementDate)
}

func TestGetUnknownIsNotFound(t *testing.T) {
	s := setupStorage(t)

	_, err := s.Get(context.Background(), uuid.New().String())
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestSetProcessingGuard(t *testing.T) {
	s := setupStorage(t)
	ctx := context.Background()

	rec := newRecord()
	require.NoError(t, s.Create(ctx, rec))
	t.Cleanup(func() { _ = s.Delete(ctx, rec.ID) })

	require.NoError(t, s.SetProcessing(ctx, rec.ID))

	err := s.SetProcessing(ctx, rec.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrConflict))

	err = s.SetProcessing(ctx, uuid.New().String())
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestCompleteAndFailTransitions(t *testing.T) {
	s := setupStorage(t)
	ctx := context.Background()

	rec := newRecord()
	require.NoError(t, s.Create(ctx, rec))
	t.Cleanup(func() { _ = s.Delete(ctx, rec.ID) })

	require.NoError(t, s.SetProcessing(ctx, rec.ID))
	now := time.Now().UTC().Truncate(time.Microsecond)
	require.NoError(t, s.SetCompleted(ctx, rec.ID, "/tmp/enhanced.png", now, 0.42))

	got, err := s.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status)
	assert.Equal(t, "/tmp/enhanced.png", got.EnhancedImagePath)
	assert.Equal(t, models.EnhancementType, got.EnhancementType)
	assert.InDelta(t, 0.42, got.ProcessingTime, 1e-9)
	require.NotNil(t, got.EnhancementDate)

	require.NoError(t, s.SetFailed(ctx, rec.ID))
	got, err = s.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, got.Status)
}

func TestHistoryFilterOrderLimit(t *testing.T) {
	s := setupStorage(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(time.Hour).Truncate(time.Microsecond)
	var ids []string
	for i := 0; i < 3; i++ {
		rec := newRecord()
		rec.OriginalImageName = fmt.Sprintf("h-%d.png", i)
		rec.UploadDate = base.Add(time.Duration(i) * time.Minute)
		rec.Status = models.StatusCompleted
		require.NoError(t, s.Create(ctx, rec))
		ids = append(ids, rec.ID)
	}
	uploadedOnly := newRecord()
	uploadedOnly.UploadDate = base.Add(time.Hour)
	require.NoError(t, s.Create(ctx, uploadedOnly))
	ids = append(ids, uploadedOnly.ID)
	t.Cleanup(func() {
		for _, id := range ids {
			_ = s.Delete(ctx, id)
		}
	})

	records, err := s.History(ctx, 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "h-2.png", records[0].OriginalImageName)
	assert.Equal(t, "h-1.png", records[1].OriginalImageName)
	for _, rec := range records {
		assert.NotEqual(t, models.StatusUploaded, rec.Status)
	}
}
