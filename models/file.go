package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// File is the metadata record of one stored upload. Rows are immutable once created.
type File struct {
	ID            uuid.UUID      `gorm:"type:varchar(36);primaryKey" json:"id"`
	FileSize      int64          `gorm:"not null" json:"file_size"`
	FilePath      string         `gorm:"size:255;not null" json:"file_path"` // relative to the storage base dir
	FileFormat    string         `gorm:"size:255;not null" json:"file_format"`
	FileOldName   string         `gorm:"size:255;not null" json:"file_old_name"`
	FileNewName   string         `gorm:"size:255;not null" json:"file_new_name"`
	FileExtension string         `gorm:"size:255;not null" json:"file_extension"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName pins the table name shared with the SQL migrations.
func (File) TableName() string { return "files" }

// BeforeCreate assigns the id and timestamps when the caller did not.
func (f *File) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	now := time.Now().UTC()
	if f.CreatedAt.IsZero() {
		f.CreatedAt = now
	}
	f.UpdatedAt = now
	return nil
}

// BeforeUpdate refreshes UpdatedAt.
func (f *File) BeforeUpdate(tx *gorm.DB) error {
	f.UpdatedAt = time.Now().UTC()
	return nil
}

// FileView is the public JSON shape of a File.
type FileView struct {
	ID            uuid.UUID `json:"id"`
	FileSize      int64     `json:"file_size"`
	FileFormat    string    `json:"file_format"`
	FileOldName   string    `json:"file_old_name"`
	FileNewName   string    `json:"file_new_name"`
	FileExtension string    `json:"file_extension"`
	FilePath      string    `json:"file_path"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (f *File) View() FileView {
	return FileView{
		ID:            f.ID,
		FileSize:      f.FileSize,
		FileFormat:    f.FileFormat,
		FileOldName:   f.FileOldName,
		FileNewName:   f.FileNewName,
		FileExtension: f.FileExtension,
		FilePath:      f.FilePath,
		CreatedAt:     f.CreatedAt,
		UpdatedAt:     f.UpdatedAt,
	}
}

// Views maps a slice of records; a nil input yields an empty, non-nil slice.
func Views(files []File) []FileView {
	out := make([]FileView, 0, len(files))
	for i := range files {
		out = append(out, files[i].View())
	}
	return out
}
