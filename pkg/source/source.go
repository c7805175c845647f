// pkg/source/source.go
package source

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
)

// Source is a sequential byte stream that can be replayed from the start.
//
// Open (re)positions the stream at its first byte. ReadChunk fills p with
// the next bytes and returns how many it wrote; a result of zero bytes with
// a nil error or io.EOF marks the end of the stream. Close releases what
// Open acquired and is called once for every successful Open.
type Source interface {
	Open() error
	ReadChunk(p []byte) (int, error)
	Close() error
}

// ErrNotOpen is returned by ReadChunk before Open or after Close.
var ErrNotOpen = errors.New("source: not open")

// maxEmptyReads bounds how often ReadChunk retries a reader that returns
// no data and no error before giving up with io.ErrNoProgress.
const maxEmptyReads = 100

// stream adapts anything that can produce a fresh io.ReadCloser to Source.
type stream struct {
	name string
	open func() (io.ReadCloser, error)
	rc   io.ReadCloser
}

func (s *stream) Open() error {
	if s.rc != nil {
		s.rc.Close()
		s.rc = nil
	}
	rc, err := s.open()
	if err != nil {
		return err
	}
	s.rc = rc
	return nil
}

func (s *stream) ReadChunk(p []byte) (int, error) {
	if s.rc == nil {
		return 0, ErrNotOpen
	}
	if len(p) == 0 {
		return 0, nil
	}
	for i := 0; i < maxEmptyReads; i++ {
		n, err := s.rc.Read(p)
		if n > 0 || err != nil {
			return n, err
		}
	}
	return 0, io.ErrNoProgress
}

func (s *stream) Close() error {
	if s.rc == nil {
		return nil
	}
	err := s.rc.Close()
	s.rc = nil
	return err
}

func (s *stream) String() string { return s.name }

// File streams the raw contents of the file at path.
func File(path string) Source {
	return &stream{
		name: path,
		open: func() (io.ReadCloser, error) {
			f, err := os.Open(path)
			if err != nil {
				return nil, err
			}
			return f, nil
		},
	}
}

// Bytes streams an in-memory byte slice. The slice must not be modified
// while the source is in use.
func Bytes(b []byte) Source {
	return &stream{
		name: fmt.Sprintf("bytes[%d]", len(b)),
		open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(b)), nil
		},
	}
}

// Reader streams whatever open returns. open is called on every Open, so
// it must hand out a reader positioned at the start of the stream. If the
// reader is also an io.Closer it is closed on Close.
func Reader(name string, open func() (io.Reader, error)) Source {
	return &stream{
		name: name,
		open: func() (io.ReadCloser, error) {
			r, err := open()
			if err != nil {
				return nil, err
			}
			if rc, ok := r.(io.ReadCloser); ok {
				return rc, nil
			}
			return io.NopCloser(r), nil
		},
	}
}
