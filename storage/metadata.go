package storage

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cppla/filehub/models"
)

// Written describes a file that has just been persisted.
type Written struct {
	OriginalName string
	ContentType  string
	Destination  Destination
	Size         int64
}

// BuildMetadata turns a written file into an unsaved models.File. FilePath is
// relative to baseDir and uses forward slashes.
func BuildMetadata(w Written, baseDir string) (*models.File, error) {
	rel, err := relativePath(baseDir, w.Destination.Path)
	if err != nil {
		return nil, err
	}
	contentType := w.ContentType
	if strings.TrimSpace(contentType) == "" {
		contentType = DefaultContentType
	}
	return &models.File{
		FileSize:      w.Size,
		FilePath:      rel,
		FileFormat:    contentType,
		FileOldName:   w.OriginalName,
		FileNewName:   w.Destination.Name,
		FileExtension: Suffix(rel),
	}, nil
}

func relativePath(baseDir, path string) (string, error) {
	base, err := filepath.Abs(baseDir)
	if err != nil {
		return "", fmt.Errorf("resolve base dir %s: %w", baseDir, err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve path %s: %w", path, err)
	}
	rel, err := filepath.Rel(base, abs)
	if err != nil {
		return "", fmt.Errorf("relative path of %s: %w", path, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %s is outside base dir %s", path, baseDir)
	}
	return filepath.ToSlash(rel), nil
}

// Suffix returns the extension of the last path element including the dot.
// A name with no dot, a leading dot only, or a trailing dot has no suffix:
// "a.txt" -> ".txt", "a.tar.gz" -> ".gz", ".bashrc" -> "", "a." -> "".
func Suffix(path string) string {
	name := path
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	i := strings.LastIndex(name, ".")
	if i <= 0 || i == len(name)-1 {
		return ""
	}
	return name[i:]
}
