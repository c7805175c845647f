// pkg/service/service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/dattu/rollsim/pkg/fingerprint"
	"github.com/dattu/rollsim/pkg/protocol"
	"github.com/dattu/rollsim/pkg/source"
	"github.com/dattu/rollsim/pkg/storage"
	"github.com/prometheus/client_golang/prometheus"
)

/* ------------------------------------------------------------------------ */
/* Prometheus metrics                                                       */
/* ------------------------------------------------------------------------ */

// Metrics are the service's collectors. Register them once per registry.
type Metrics struct {
	CompareTotal    prometheus.Counter
	CompareErrors   prometheus.Counter
	CompareLatency  prometheus.Histogram
	BytesHashed     prometheus.Counter
	FingerprintSize prometheus.Histogram
}

func NewMetrics() *Metrics {
	return &Metrics{
		CompareTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rollsim_compare_total",
			Help: "Total Compare RPC calls.",
		}),
		CompareErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rollsim_compare_errors_total",
			Help: "Compare RPC calls that failed.",
		}),
		CompareLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "rollsim_compare_duration_seconds",
			Help:    "Latency of Compare RPCs.",
			Buckets: prometheus.DefBuckets,
		}),
		BytesHashed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rollsim_bytes_hashed_total",
			Help: "Bytes read by the rolling hash.",
		}),
		FingerprintSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "rollsim_fingerprint_set_size",
			Help:    "Distinct sampled checksums per fingerprinted object.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 12),
		}),
	}
}

// MustRegister registers every collector with r.
func (m *Metrics) MustRegister(r prometheus.Registerer) {
	r.MustRegister(m.CompareTotal, m.CompareErrors, m.CompareLatency, m.BytesHashed, m.FingerprintSize)
}

/* ------------------------------------------------------------------------ */
/* server                                                                   */
/* ------------------------------------------------------------------------ */

// Server answers similarity queries about objects stored under a data dir.
type Server struct {
	dataDir string
	cfg     fingerprint.Config
	results *storage.ResultLog
	metrics *Metrics
	now     func() time.Time
}

var _ protocol.SimilarityServer = (*Server)(nil)

// New returns a Server. results may be nil to skip the result log.
func New(dataDir string, cfg fingerprint.Config, results *storage.ResultLog, m *Metrics) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, err
	}
	if m == nil {
		m = NewMetrics()
	}
	return &Server{dataDir: abs, cfg: cfg, results: results, metrics: m, now: time.Now}, nil
}

var errOutsideDataDir = errors.New("path escapes data dir")

// resolve maps a client path onto the data dir.
func (s *Server) resolve(p string) (string, error) {
	full := filepath.Join(s.dataDir, filepath.FromSlash(p))
	if full != s.dataDir && !strings.HasPrefix(full, s.dataDir+string(filepath.Separator)) {
		return "", fmt.Errorf("%q: %w", p, errOutsideDataDir)
	}
	return full, nil
}

func (s *Server) fingerprint(ctx context.Context, p string) (*fingerprint.Set, fingerprint.Stats, error) {
	full, err := s.resolve(p)
	if err != nil {
		return nil, fingerprint.Stats{}, err
	}
	e, err := fingerprint.New(source.WithContext(ctx, source.Open(full)), s.cfg)
	if err != nil {
		return nil, fingerprint.Stats{}, err
	}
	set, err := e.Fingerprints()
	st := e.Stats()
	if err != nil {
		return nil, st, err
	}
	s.metrics.BytesHashed.Add(float64(st.Bytes))
	s.metrics.FingerprintSize.Observe(float64(set.Len()))
	return set, st, nil
}

/* ------------------------------------------------------------------------ */
/* RPC – Compare                                                            */
/* ------------------------------------------------------------------------ */

func (s *Server) Compare(ctx context.Context, req *protocol.CompareRequest) (*protocol.CompareResponse, error) {
	timer := prometheus.NewTimer(s.metrics.CompareLatency)
	defer timer.ObserveDuration()
	s.metrics.CompareTotal.Inc()

	log.Printf("[Compare] %s ~ %s", req.A, req.B)

	fail := func(err error) (*protocol.CompareResponse, error) {
		s.metrics.CompareErrors.Inc()
		log.Printf("[Compare] %s ~ %s: %v", req.A, req.B, err)
		return &protocol.CompareResponse{Ok: false, Error: err.Error()}, nil
	}

	a, _, err := s.fingerprint(ctx, req.A)
	if err != nil {
		return fail(err)
	}
	b, _, err := s.fingerprint(ctx, req.B)
	if err != nil {
		return fail(err)
	}
	score, err := fingerprint.Similarity(a, b)
	if err != nil {
		return fail(err)
	}

	if s.results != nil {
		rec := storage.Record{A: req.A, B: req.B, Score: score, At: s.now()}
		if err := s.results.Append(rec); err != nil {
			log.Printf("[Compare] result log: %v", err)
		}
	}
	return &protocol.CompareResponse{Ok: true, Score: score, SetA: a.Len(), SetB: b.Len()}, nil
}

/* ------------------------------------------------------------------------ */
/* RPC – Fingerprint                                                        */
/* ------------------------------------------------------------------------ */

func (s *Server) Fingerprint(ctx context.Context, req *protocol.FingerprintRequest) (*protocol.FingerprintResponse, error) {
	set, st, err := s.fingerprint(ctx, req.Path)
	if err != nil {
		log.Printf("[Fingerprint] %s: %v", req.Path, err)
		return &protocol.FingerprintResponse{Ok: false, Error: err.Error()}, nil
	}
	log.Printf("[Fingerprint] %s bytes=%d windows=%d selected=%d", req.Path, st.Bytes, st.Windows, set.Len())
	return &protocol.FingerprintResponse{Ok: true, Bytes: st.Bytes, Windows: st.Windows, Selected: set.Len()}, nil
}

/* ------------------------------------------------------------------------ */
/* GC                                                                       */
/* ------------------------------------------------------------------------ */

// GCLoop expires logged results older than ttl every ttl/2 until ctx ends.
func (s *Server) GCLoop(ctx context.Context, ttl time.Duration) {
	if s.results == nil || ttl <= 0 {
		return
	}
	tick := time.NewTicker(ttl / 2)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			n, err := s.results.Expire(s.now(), ttl)
			if err != nil {
				log.Printf("GC results: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("GC removed %d results", n)
			}
		}
	}
}
