package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/danmuck/imcctl/internal/protocol"
	"github.com/danmuck/imcctl/internal/protocol/parser"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "imc",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"server", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "imc",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"server", "method", "path", "status"},
	)
	framesDecoded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "imc",
			Subsystem: "parser",
			Name:      "frames_decoded_total",
			Help:      "Frames decoded by stream parsers.",
		},
		[]string{"stream", "type"},
	)
	framesRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "imc",
			Subsystem: "parser",
			Name:      "frames_rejected_total",
			Help:      "Candidate frames rejected by stream parsers.",
		},
		[]string{"stream", "reason"},
	)
	frameSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "imc",
			Subsystem: "parser",
			Name:      "frame_size_bytes",
			Help:      "Size of decoded frames in bytes.",
			Buckets:   prometheus.ExponentialBuckets(32, 2, 12),
		},
		[]string{"stream"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, framesDecoded, framesRejected, frameSize)
	})
}

func RecordHTTPRequest(server, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(server, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(server, method, path, statusLabel).Observe(duration.Seconds())
}

// ParserMetrics is a parser observer exporting frame outcomes for one
// stream.
type ParserMetrics struct {
	stream string
}

var _ parser.Observer = (*ParserMetrics)(nil)

func NewParserMetrics(stream string) *ParserMetrics {
	RegisterMetrics()
	return &ParserMetrics{stream: stream}
}

func (p *ParserMetrics) FrameDecoded(m protocol.Message) {
	framesDecoded.WithLabelValues(p.stream, m.Name()).Inc()
	frameSize.WithLabelValues(p.stream).Observe(float64(protocol.SerializationSize(m)))
}

func (p *ParserMetrics) FrameRejected(reason error) {
	framesRejected.WithLabelValues(p.stream, parser.Reason(reason)).Inc()
}
