package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSuffix(t *testing.T) {
	tests := map[string]string{
		"media/text_plain/uploaded-2024-12-04 15-40-30: a.txt": ".txt",
		"a.tar.gz":              ".gz",
		"media/x/README":        "",
		".bashrc":               "",
		"archive.":              "",
		"dir.d/file":            "",
		"uploaded-...: name.md": ".md",
	}
	for in, want := range tests {
		assert.Equal(t, want, Suffix(in), in)
	}
}

func TestBuildMetadata(t *testing.T) {
	base := t.TempDir()
	dest := Destination{
		Dir:  filepath.Join(base, "media", "text_plain"),
		Name: "uploaded-2024-12-04 15-40-30: notes.txt",
	}
	dest.Path = filepath.Join(dest.Dir, dest.Name)

	f, err := BuildMetadata(Written{
		OriginalName: "notes.txt",
		ContentType:  "text/plain",
		Destination:  dest,
		Size:         42,
	}, base)
	require.NoError(t, err)

	assert.Equal(t, "media/text_plain/uploaded-2024-12-04 15-40-30: notes.txt", f.FilePath)
	assert.Equal(t, int64(42), f.FileSize)
	assert.Equal(t, "text/plain", f.FileFormat)
	assert.Equal(t, "notes.txt", f.FileOldName)
	assert.Equal(t, dest.Name, f.FileNewName)
	assert.Equal(t, ".txt", f.FileExtension)
}

func TestBuildMetadataRejectsPathOutsideBase(t *testing.T) {
	base := filepath.Join(t.TempDir(), "base")
	_, err := BuildMetadata(Written{
		Destination: Destination{Path: filepath.Join(base, "..", "elsewhere", "f.txt")},
	}, base)
	assert.Error(t, err)
}

func TestStoreSave(t *testing.T) {
	base := t.TempDir()
	upload := filepath.Join(base, "media")
	store := NewStore(base, upload, zap.NewNop()).WithDeriver(NewDeriver(upload).WithClock(fixedClock))
	require.NoError(t, store.Init())

	payload := bytes.Repeat([]byte("x"), 2048)
	f, err := store.Save(context.Background(), bytes.NewReader(payload), "common_text.txt", "text/plain", Chunked(100))
	require.NoError(t, err)

	assert.Equal(t, "media/text_plain/uploaded-2024-12-04 15-40-30: common_text.txt", f.FilePath)
	assert.Equal(t, int64(len(payload)), f.FileSize)
	assert.Equal(t, ".txt", f.FileExtension)

	got, err := os.ReadFile(filepath.Join(base, filepath.FromSlash(f.FilePath)))
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestStoreSaveEmptyContentType(t *testing.T) {
	base := t.TempDir()
	store := NewStore(base, filepath.Join(base, "media"), zap.NewNop())

	f, err := store.Save(context.Background(), bytes.NewReader([]byte("data")), "blob", "", WholeBody())
	require.NoError(t, err)
	assert.Equal(t, DefaultContentType, f.FileFormat)
	assert.Contains(t, f.FilePath, "media/application_octet-stream/")
	assert.Empty(t, f.FileExtension)
}
