package rosbag

import (
	"io"
	"os"

	"github.com/gofrs/flock"
)

// Source is the random-access byte source a Reader parses a bag from
// (spec §6's "Filelike" contract: size() and read(offset, length)). Any
// io.ReaderAt with a way to report its length satisfies it, which is
// most of what Go's standard library already offers (*os.File,
// *bytes.Reader, *io.SectionReader).
type Source interface {
	io.ReaderAt
	Size() (int64, error)
}

// Sink is the write side of the Filelike contract, needed only by
// producer tooling that seek-patches a bag header after the fact (spec
// §9's "forward-patched index position").
type Sink interface {
	io.WriterAt
	Close() error
}

// FileSource adapts an *os.File to Source.
type FileSource struct {
	f *os.File
}

// OpenFileSource opens name for reading and wraps it as a Source.
func OpenFileSource(name string) (*FileSource, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	return &FileSource{f: f}, nil
}

// ReadAt implements io.ReaderAt.
func (s *FileSource) ReadAt(p []byte, off int64) (int, error) {
	return s.f.ReadAt(p, off)
}

// Size returns the file's current length.
func (s *FileSource) Size() (int64, error) {
	fi, err := s.f.Stat()
	if err != nil {
		return 0, err
	}
	return fi.Size(), nil
}

// Close closes the underlying file.
func (s *FileSource) Close() error {
	return s.f.Close()
}

// FileSink adapts an *os.File to Sink, holding an advisory lock for the
// file's lifetime so that at most one writer composes into it at a time
// (spec §5: "writes are single-writer"). The lock is released on Close.
type FileSink struct {
	f    *os.File
	lock *flock.Flock
}

// CreateFileSink creates (or truncates) name, wraps it as a Sink, and
// takes an exclusive advisory lock on it. It returns an error if the
// file is already locked by another writer.
func CreateFileSink(name string) (*FileSink, error) {
	lock := flock.New(name + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, err
	}
	if !locked {
		return nil, os.ErrPermission
	}
	f, err := os.Create(name)
	if err != nil {
		_ = lock.Unlock()
		return nil, err
	}
	return &FileSink{f: f, lock: lock}, nil
}

// WriteAt implements io.WriterAt.
func (s *FileSink) WriteAt(p []byte, off int64) (int, error) {
	return s.f.WriteAt(p, off)
}

// Close flushes, closes the underlying file, and releases the write
// lock.
func (s *FileSink) Close() error {
	closeErr := s.f.Close()
	if err := s.lock.Unlock(); err != nil && closeErr == nil {
		closeErr = err
	}
	return closeErr
}
