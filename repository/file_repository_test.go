package repository_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/cppla/filehub/config"
	"github.com/cppla/filehub/models"
	"github.com/cppla/filehub/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	cfg := config.AppConfig{
		DBDriver:    config.DriverSQLite,
		DatabaseURI: filepath.Join(t.TempDir(), "filehub.db"),
		LogLevel:    "silent",
	}
	db, err := config.InitDatabase(cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func newFile(i int) *models.File {
	return &models.File{
		FileSize:      int64(100 + i),
		FilePath:      fmt.Sprintf("media/text_plain/uploaded-2024-12-04 15-40-3%d: f%d.txt", i, i),
		FileFormat:    "text/plain",
		FileOldName:   fmt.Sprintf("f%d.txt", i),
		FileNewName:   fmt.Sprintf("uploaded-2024-12-04 15-40-3%d: f%d.txt", i, i),
		FileExtension: ".txt",
	}
}

func TestInsertAssignsIDAndTimestamps(t *testing.T) {
	repo := repository.NewFileRepository(newTestDB(t))
	f := newFile(1)

	require.NoError(t, repo.Insert(context.Background(), f))

	assert.NotEqual(t, uuid.Nil, f.ID)
	assert.False(t, f.CreatedAt.IsZero())
	assert.False(t, f.UpdatedAt.IsZero())
}

func TestGetByIDRoundTrip(t *testing.T) {
	repo := repository.NewFileRepository(newTestDB(t))
	ctx := context.Background()
	f := newFile(2)
	require.NoError(t, repo.Insert(ctx, f))

	got, err := repo.GetByID(ctx, f.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, f.ID, got.ID)
	assert.Equal(t, f.FileSize, got.FileSize)
	assert.Equal(t, f.FilePath, got.FilePath)
	assert.Equal(t, f.FileFormat, got.FileFormat)
	assert.Equal(t, f.FileOldName, got.FileOldName)
	assert.Equal(t, f.FileNewName, got.FileNewName)
	assert.Equal(t, f.FileExtension, got.FileExtension)
	assert.True(t, f.CreatedAt.Equal(got.CreatedAt))
}

func TestGetByIDUnknown(t *testing.T) {
	repo := repository.NewFileRepository(newTestDB(t))

	got, err := repo.GetByID(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGetByIDHidesSoftDeleted(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewFileRepository(db)
	ctx := context.Background()
	f := newFile(3)
	require.NoError(t, repo.Insert(ctx, f))
	require.NoError(t, db.Delete(&models.File{}, "id = ?", f.ID).Error)

	got, err := repo.GetByID(ctx, f.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	total, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestListPagination(t *testing.T) {
	repo := repository.NewFileRepository(newTestDB(t))
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Insert(ctx, newFile(i)))
	}

	all, err := repo.List(ctx, repository.MaxPageSize, 1)
	require.NoError(t, err)
	require.Len(t, all, 5)

	var paged []models.File
	for page := 1; page <= 3; page++ {
		items, err := repo.List(ctx, 2, page)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(items), 2)
		paged = append(paged, items...)
	}
	require.Len(t, paged, 5)
	for i := range all {
		assert.Equal(t, all[i].ID, paged[i].ID)
	}

	beyond, err := repo.List(ctx, 2, 10)
	require.NoError(t, err)
	assert.NotNil(t, beyond)
	assert.Empty(t, beyond)

	total, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
}

func TestListEmptyTable(t *testing.T) {
	repo := repository.NewFileRepository(newTestDB(t))

	items, err := repo.List(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestListRejectsInvalidPage(t *testing.T) {
	repo := repository.NewFileRepository(newTestDB(t))
	ctx := context.Background()

	for _, tc := range []struct{ size, number int }{{0, 1}, {101, 1}, {1, 0}, {-1, -1}} {
		_, err := repo.List(ctx, tc.size, tc.number)
		assert.ErrorIs(t, err, repository.ErrInvalidPage, "size=%d number=%d", tc.size, tc.number)
	}
}
