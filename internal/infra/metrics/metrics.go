package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

const namespace = "feedback_portal"

var (
	JobsProcessed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "summary_jobs_processed_total",
		Help:      "Summary jobs moved to a terminal status",
	}, []string{"kind", "status"})

	Batches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "summary_batches_total",
		Help:      "Summary batches executed by the worker",
	}, []string{"kind", "result"})

	GenerationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "summary_generation_seconds",
		Help:      "Time spent regenerating one summary snapshot",
		Buckets:   []float64{0.01, 0.1, 0.5, 1, 5, 15, 30, 60},
	}, []string{"mode"})

	WorkerRunning = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "summary_worker_running",
		Help:      "1 while the summary worker loop is running",
	})

	StaleRequeued = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "summary_jobs_requeued_total",
		Help:      "Processing jobs put back to pending after going stale",
	})

	CatastrophicFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "summary_worker_failures_total",
		Help:      "Poll iterations that failed outside per-batch handling",
	})
)

func init() {
	prometheus.MustRegister(JobsProcessed, Batches, GenerationSeconds, WorkerRunning, StaleRequeued, CatastrophicFailures)
}

// Server exposes /metrics on its own listener.
type Server struct {
	srv *http.Server
	log *logrus.Entry
}

func NewServer(addr string, log *logrus.Entry) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &Server{
		srv: &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		log: log,
	}
}

func (s *Server) Start() {
	go func() {
		s.log.WithField("addr", s.srv.Addr).Info("Metrics server listening")
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.WithError(err).Error("Metrics server stopped")
		}
	}()
}

func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
