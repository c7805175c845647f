// pkg/source/context.go
package source

import "context"

type ctxSource struct {
	ctx context.Context
	Source
}

// WithContext returns a Source whose Open and ReadChunk fail with ctx.Err()
// once ctx is done. It is how callers cancel a fingerprint computation.
func WithContext(ctx context.Context, src Source) Source {
	return &ctxSource{ctx: ctx, Source: src}
}

func (s *ctxSource) Open() error {
	if err := s.ctx.Err(); err != nil {
		return err
	}
	return s.Source.Open()
}

func (s *ctxSource) ReadChunk(p []byte) (int, error) {
	if err := s.ctx.Err(); err != nil {
		return 0, err
	}
	return s.Source.ReadChunk(p)
}
