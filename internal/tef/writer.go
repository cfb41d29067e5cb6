package tef

import (
	"os"
	"path/filepath"

	"github.com/hance08/tefpos/internal/constants"
)

// RequestWriter deposits request records in the engine's request directory.
// The engine polls for the final filename, so the record is staged under the
// temp name and renamed into place in one filesystem operation; a poller can
// only ever see the previous file, nothing, or the new complete file.
type RequestWriter struct {
	dir   string
	codec *Codec
}

func NewRequestWriter(dir string, codec *Codec) *RequestWriter {
	return &RequestWriter{dir: dir, codec: codec}
}

func (w *RequestWriter) Write(rec Record) error {
	data, err := w.codec.Encode(rec)
	if err != nil {
		return newIOFailure("failed to encode request: %w", err)
	}

	tmpPath := filepath.Join(w.dir, constants.RequestTempFile)
	finalPath := filepath.Join(w.dir, constants.RequestFile)

	if err := w.writeTemp(tmpPath, data); err != nil {
		os.Remove(tmpPath)
		return err
	}

	// A leftover final file from a crashed cycle would make the rename
	// semantics platform-dependent; clear it first.
	if err := os.Remove(finalPath); err != nil && !os.IsNotExist(err) {
		os.Remove(tmpPath)
		return newIOFailure("failed to remove stale request file: %w", err)
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return newIOFailure("failed to publish request file: %w", err)
	}

	return nil
}

func (w *RequestWriter) writeTemp(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return newIOFailure("failed to create request temp file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		return newIOFailure("failed to write request temp file: %w", err)
	}

	if err := f.Sync(); err != nil {
		f.Close()
		return newIOFailure("failed to flush request temp file: %w", err)
	}

	if err := f.Close(); err != nil {
		return newIOFailure("failed to close request temp file: %w", err)
	}

	return nil
}
