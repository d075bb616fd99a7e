// Package ndjson writes device series as newline-delimited JSON files.
package ndjson

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/couchcryptid/storm-data-rainsim/internal/domain"
	"github.com/couchcryptid/storm-data-rainsim/internal/pipeline"
)

// FileExt is appended to the device name to form the file name.
const FileExt = ".ndjson"

// Sink writes one <dir>/<device>.ndjson file per device, truncating any
// existing file. It implements pipeline.Sink.
type Sink struct {
	dir string
}

// NewSink creates a file sink rooted at dir.
func NewSink(dir string) *Sink {
	return &Sink{dir: dir}
}

// Path returns the file a device's series is written to.
func (s *Sink) Path(deviceName string) string {
	return filepath.Join(s.dir, deviceName+FileExt)
}

func (s *Sink) Open(_ context.Context, _ string, d domain.Device) (pipeline.SeriesWriter, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, &domain.IOError{Op: "create directory", Path: s.dir, Err: err}
	}
	path := s.Path(d.Name)
	f, err := os.Create(path)
	if err != nil {
		return nil, &domain.IOError{Op: "open", Path: path, Err: err}
	}
	bw := bufio.NewWriter(f)
	return &fileWriter{path: path, f: f, bw: bw, enc: json.NewEncoder(bw)}, nil
}

type fileWriter struct {
	path string
	f    *os.File
	bw   *bufio.Writer
	enc  *json.Encoder
}

// Write encodes one sample followed by a newline.
func (w *fileWriter) Write(_ context.Context, s domain.Sample) error {
	if err := w.enc.Encode(s); err != nil {
		return &domain.IOError{Op: "write", Path: w.path, Err: err}
	}
	return nil
}

func (w *fileWriter) Destination() string { return w.path }

// Close flushes buffered samples and closes the file. The file is closed even
// when the flush fails.
func (w *fileWriter) Close() error {
	flushErr := w.bw.Flush()
	closeErr := w.f.Close()
	if err := errors.Join(flushErr, closeErr); err != nil {
		return &domain.IOError{Op: "close", Path: w.path, Err: err}
	}
	return nil
}
