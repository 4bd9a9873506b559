// Package storage persists uploaded bytes on local disk and describes them
// as models.File records.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	filenamePrefix     = "uploaded-"
	filenameTimeLayout = "2006-01-02 15-04-05"

	// DefaultContentType replaces an empty declared content type.
	DefaultContentType = "application/octet-stream"
	unknownFolder      = "unknown"
)

// Destination is where one upload is written.
type Destination struct {
	Dir  string // absolute-or-base-relative target directory
	Name string // generated filename
	Path string // Dir joined with Name
}

// Deriver produces target directories and unique filenames under root.
type Deriver struct {
	root string
	now  func() time.Time
}

func NewDeriver(root string) *Deriver {
	return &Deriver{root: root, now: time.Now}
}

// WithClock replaces the wall clock, for tests.
func (d *Deriver) WithClock(now func() time.Time) *Deriver {
	d.now = now
	return d
}

// Root returns the upload directory.
func (d *Deriver) Root() string { return d.root }

// EnsureRoot creates the upload directory with parents.
func (d *Deriver) EnsureRoot() error {
	if err := os.MkdirAll(d.root, 0o755); err != nil {
		return fmt.Errorf("%w: create upload dir %s: %w", ErrDiskIO, d.root, err)
	}
	return nil
}

// TargetFolder returns root/<content type folder>, creating it if missing.
func (d *Deriver) TargetFolder(contentType string) (string, error) {
	dir := filepath.Join(d.root, ContentTypeFolder(contentType))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: create target folder %s: %w", ErrDiskIO, dir, err)
	}
	return dir, nil
}

// NewFilename returns "uploaded-<YYYY-MM-DD HH-MM-SS>: <original>".
// Two uploads of the same name within one second collide.
func (d *Deriver) NewFilename(original string) string {
	now := d.now()
	return filenamePrefix + now.Format(filenameTimeLayout) + ": " + baseName(original, now)
}

// baseName keeps the last element of original. Names that would not survive
// as a path element ("", ".", "/") fall back to file_<unix nanos>.
func baseName(original string, now time.Time) string {
	name := filepath.Base(original)
	if name == "." || name == "" || name == string(filepath.Separator) {
		return fmt.Sprintf("file_%d", now.UnixNano())
	}
	return name
}

// Derive resolves the full destination for one upload.
func (d *Deriver) Derive(contentType, original string) (Destination, error) {
	dir, err := d.TargetFolder(contentType)
	if err != nil {
		return Destination{}, err
	}
	name := d.NewFilename(original)
	return Destination{Dir: dir, Name: name, Path: filepath.Join(dir, name)}, nil
}

// ContentTypeFolder maps a MIME type to a single path segment,
// e.g. "text/plain" -> "text_plain".
func ContentTypeFolder(contentType string) string {
	ct := strings.TrimSpace(contentType)
	if ct == "" {
		ct = DefaultContentType
	}
	folder := strings.NewReplacer("/", "_", `\`, "_").Replace(ct)
	if folder == "" || folder == "." || folder == ".." {
		return unknownFolder
	}
	return folder
}
