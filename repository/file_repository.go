// Package repository is the only code that reads or writes the files table.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/cppla/filehub/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MaxPageSize = 100
)

// ErrInvalidPage is returned for a page size outside [1, MaxPageSize] or a page number below 1.
var ErrInvalidPage = errors.New("invalid page")

type FileRepository struct {
	db *gorm.DB
}

func NewFileRepository(db *gorm.DB) *FileRepository {
	return &FileRepository{db: db}
}

// Insert persists f in its own transaction. The id and timestamps are filled
// in on f once it returns.
func (r *FileRepository) Insert(ctx context.Context, f *models.File) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(f).Error
	})
	if err != nil {
		return fmt.Errorf("insert file: %w", err)
	}
	return nil
}

// GetByID returns nil, nil when no live row has that id.
func (r *FileRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.File, error) {
	var f models.File
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get file %s: %w", id, err)
	}
	return &f, nil
}

// List returns one page in insertion order. Pages past the end are empty.
func (r *FileRepository) List(ctx context.Context, pageSize, pageNumber int) ([]models.File, error) {
	if pageSize < 1 || pageSize > MaxPageSize || pageNumber < 1 {
		return nil, fmt.Errorf("%w: size=%d number=%d", ErrInvalidPage, pageSize, pageNumber)
	}
	files := []models.File{}
	err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Order("id ASC").
		Offset(pageSize * (pageNumber - 1)).
		Limit(pageSize).
		Find(&files).Error
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	return files, nil
}

// Count returns the number of live rows.
func (r *FileRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.File{}).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("count files: %w", err)
	}
	return total, nil
}
