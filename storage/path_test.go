package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() time.Time {
	return time.Date(2024, 12, 4, 15, 40, 30, 0, time.Local)
}

func TestContentTypeFolder(t *testing.T) {
	tests := []struct {
		contentType string
		want        string
	}{
		{"text/plain", "text_plain"},
		{"application/vnd.ms-excel", "application_vnd.ms-excel"},
		{"", "application_octet-stream"},
		{"   ", "application_octet-stream"},
		{".", "unknown"},
		{"..", "unknown"},
		{`a\b/c`, "a_b_c"},
		{"../../etc", ".._.._etc"},
	}
	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			assert.Equal(t, tt.want, ContentTypeFolder(tt.contentType))
		})
	}
}

func TestNewFilename(t *testing.T) {
	d := NewDeriver(t.TempDir()).WithClock(fixedClock)
	assert.Equal(t, "uploaded-2024-12-04 15-40-30: report.txt", d.NewFilename("report.txt"))
}

func TestNewFilenameFallsBackForUnusableNames(t *testing.T) {
	d := NewDeriver(t.TempDir()).WithClock(fixedClock)
	fallback := fmt.Sprintf("uploaded-2024-12-04 15-40-30: file_%d", fixedClock().UnixNano())

	for _, name := range []string{"/", "", "."} {
		assert.Equal(t, fallback, d.NewFilename(name), "name %q", name)
	}
	assert.Equal(t, "uploaded-2024-12-04 15-40-30: b.txt", d.NewFilename("a/b.txt"))
}

func TestDeriveNameMatchesPathForSlashName(t *testing.T) {
	d := NewDeriver(t.TempDir()).WithClock(fixedClock)
	dest, err := d.Derive("text/plain", "/")
	require.NoError(t, err)
	assert.Equal(t, dest.Name, filepath.Base(dest.Path))
}

func TestDeriveCreatesTargetFolder(t *testing.T) {
	root := filepath.Join(t.TempDir(), "media")
	d := NewDeriver(root).WithClock(fixedClock)

	dest, err := d.Derive("text/plain", "common_text.txt")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "text_plain"), dest.Dir)
	assert.Equal(t, "uploaded-2024-12-04 15-40-30: common_text.txt", dest.Name)
	assert.Equal(t, filepath.Join(dest.Dir, dest.Name), dest.Path)

	info, err := os.Stat(dest.Dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestDeriveIsIdempotentForExistingFolder(t *testing.T) {
	root := t.TempDir()
	d := NewDeriver(root)
	_, err := d.Derive("image/png", "a.png")
	require.NoError(t, err)
	_, err = d.Derive("image/png", "b.png")
	require.NoError(t, err)
}

func TestTargetFolderFailsWhenRootIsAFile(t *testing.T) {
	root := filepath.Join(t.TempDir(), "media")
	require.NoError(t, os.WriteFile(root, []byte("x"), 0o644))

	_, err := NewDeriver(root).TargetFolder("text/plain")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDiskIO)
}
