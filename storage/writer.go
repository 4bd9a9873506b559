package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

var (
	// ErrMalformedStream means the upload source could not be read.
	ErrMalformedStream = errors.New("malformed upload stream")
	// ErrDiskIO means the destination could not be opened, written or closed.
	ErrDiskIO = errors.New("disk i/o failure")
)

// WriteStrategy selects how bytes move from the upload to disk.
// The zero value is whole-body mode.
type WriteStrategy struct {
	chunkSize int
}

// WholeBody reads the entire payload and writes it in one call.
func WholeBody() WriteStrategy { return WriteStrategy{} }

// Chunked reads and writes at most size bytes at a time.
func Chunked(size int) WriteStrategy { return WriteStrategy{chunkSize: size} }

// ResolveStrategy picks chunked mode only when large is set and a positive
// chunk size is given.
func ResolveStrategy(large bool, chunkSize *int) WriteStrategy {
	if large && chunkSize != nil && *chunkSize > 0 {
		return Chunked(*chunkSize)
	}
	return WholeBody()
}

func (s WriteStrategy) IsChunked() bool { return s.chunkSize > 0 }

func (s WriteStrategy) ChunkSize() int { return s.chunkSize }

// Mode is "chunked" or "whole".
func (s WriteStrategy) Mode() string {
	if s.IsChunked() {
		return "chunked"
	}
	return "whole"
}

func (s WriteStrategy) String() string {
	if s.IsChunked() {
		return fmt.Sprintf("chunked(%d)", s.chunkSize)
	}
	return "whole"
}

// WriteFile copies src to path using strategy and returns the bytes written.
// The destination is created or truncated. A partially written file is left
// in place on failure.
func WriteFile(ctx context.Context, src io.Reader, path string, strategy WriteStrategy) (written int64, err error) {
	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, fmt.Errorf("%w: open %s: %w", ErrDiskIO, path, err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: close %s: %w", ErrDiskIO, path, cerr)
		}
	}()

	if strategy.IsChunked() {
		return writeChunked(ctx, src, out, strategy.chunkSize)
	}
	return writeWhole(src, out)
}

func writeWhole(src io.Reader, out io.Writer) (int64, error) {
	content, err := io.ReadAll(src)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrMalformedStream, err)
	}
	n, err := out.Write(content)
	if err != nil {
		return int64(n), fmt.Errorf("%w: write: %w", ErrDiskIO, err)
	}
	return int64(n), nil
}

// maxChunkBuffer bounds the per-chunk allocation for oversized chunk sizes.
const maxChunkBuffer = 32 << 20

func writeChunked(ctx context.Context, src io.Reader, out io.Writer, size int) (int64, error) {
	buf := make([]byte, min(size, maxChunkBuffer))
	var written int64
	for {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		n, rerr := io.ReadFull(src, buf)
		if n > 0 {
			w, werr := out.Write(buf[:n])
			written += int64(w)
			if werr != nil {
				return written, fmt.Errorf("%w: write: %w", ErrDiskIO, werr)
			}
		}
		switch {
		case rerr == nil:
		case errors.Is(rerr, io.EOF), errors.Is(rerr, io.ErrUnexpectedEOF):
			return written, nil
		default:
			return written, fmt.Errorf("%w: %w", ErrMalformedStream, rerr)
		}
	}
}
