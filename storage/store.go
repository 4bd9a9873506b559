package storage

import (
	"context"
	"io"

	"github.com/cppla/filehub/models"
	"go.uber.org/zap"
)

// Store runs the disk half of an upload: derive destination, write bytes,
// build metadata. It never touches the database.
type Store struct {
	baseDir string
	deriver *Deriver
	log     *zap.Logger
}

// NewStore writes uploads under uploadDir and records paths relative to baseDir.
func NewStore(baseDir, uploadDir string, log *zap.Logger) *Store {
	return &Store{baseDir: baseDir, deriver: NewDeriver(uploadDir), log: log}
}

// WithDeriver swaps the path deriver, for tests that pin the clock.
func (s *Store) WithDeriver(d *Deriver) *Store {
	s.deriver = d
	return s
}

// Init creates the upload directory.
func (s *Store) Init() error {
	return s.deriver.EnsureRoot()
}

// Save persists src and returns the metadata of the stored file.
// Errors wrap ErrMalformedStream, ErrDiskIO or the context error.
func (s *Store) Save(ctx context.Context, src io.Reader, originalName, contentType string, strategy WriteStrategy) (*models.File, error) {
	dest, err := s.deriver.Derive(contentType, originalName)
	if err != nil {
		s.log.Warn("prepare upload destination failed", zap.String("content_type", contentType), zap.Error(err))
		return nil, err
	}

	n, err := WriteFile(ctx, src, dest.Path, strategy)
	if err != nil {
		s.log.Warn("save upload failed",
			zap.String("path", dest.Path),
			zap.Stringer("strategy", strategy),
			zap.Int64("written", n),
			zap.Error(err),
		)
		return nil, err
	}

	record, err := BuildMetadata(Written{
		OriginalName: originalName,
		ContentType:  contentType,
		Destination:  dest,
		Size:         n,
	}, s.baseDir)
	if err != nil {
		return nil, err
	}
	s.log.Debug("upload stored", zap.String("path", record.FilePath), zap.Int64("size", n), zap.Stringer("strategy", strategy))
	return record, nil
}
