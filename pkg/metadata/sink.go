package metadata

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"

	"github.com/matzehuels/spatialgen/pkg/errors"
)

// Sink persists records. The path is the record's location in the scene
// tree and doubles as its key.
type Sink interface {
	Write(ctx context.Context, path string, rec Record) error
}

// FileSink writes each record as a JSON file.
type FileSink struct{}

// Write encodes rec and atomically replaces the file at path.
func (FileSink) Write(ctx context.Context, path string, rec Record) error {
	data, err := Encode(rec)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode %s", path)
	}
	if err := writeAtomic(path, data); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "write %s", path)
	}
	return nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// MultiSink writes to every sink and joins their errors.
type MultiSink []Sink

// Write implements Sink.
func (m MultiSink) Write(ctx context.Context, path string, rec Record) error {
	var errs []error
	for _, s := range m {
		if err := s.Write(ctx, path, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

var (
	_ Sink = FileSink{}
	_ Sink = MultiSink(nil)
)
