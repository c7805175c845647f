// pkg/source/decompress.go
package source

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"
)

type decoder func(r io.Reader) (io.ReadCloser, error)

// decoders are keyed by lower-case file extension.
var decoders = map[string]decoder{
	".gz": func(r io.Reader) (io.ReadCloser, error) {
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, err
		}
		return zr, nil
	},
	".zst": func(r io.Reader) (io.ReadCloser, error) {
		d, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return d.IOReadCloser(), nil
	},
	".xz": func(r io.Reader) (io.ReadCloser, error) {
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(xr), nil
	},
	".lz4": func(r io.Reader) (io.ReadCloser, error) {
		return io.NopCloser(lz4.NewReader(r)), nil
	},
}

// Compressed reports whether Open would decompress the file at path.
func Compressed(path string) bool {
	_, ok := decoders[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Open streams the file at path, transparently decompressing .gz, .zst,
// .xz and .lz4 files so that their content rather than their container is
// fingerprinted. Other files are streamed as-is.
func Open(path string) Source {
	dec, ok := decoders[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return File(path)
	}
	return &stream{
		name: path,
		open: func() (io.ReadCloser, error) {
			f, err := os.Open(path)
			if err != nil {
				return nil, err
			}
			r, err := dec(f)
			if err != nil {
				f.Close()
				return nil, fmt.Errorf("decompress %s: %w", path, err)
			}
			return &layered{Reader: r, closers: []io.Closer{r, f}}, nil
		},
	}
}

// layered closes a decoder before the file underneath it.
type layered struct {
	io.Reader
	closers []io.Closer
}

func (l *layered) Close() error {
	var first error
	for _, c := range l.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
