package observability

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/danmuck/imcctl/internal/protocol"
	"github.com/danmuck/imcctl/internal/protocol/parser"
)

const shutdownTimeout = 5 * time.Second

// Monitor serves the state of a parsed stream over HTTP. It observes the
// parser and receives counter snapshots from the goroutine feeding it.
type Monitor struct {
	Name    string
	Addr    string
	Started time.Time

	router   *gin.Engine
	registry *protocol.Registry

	mu      sync.RWMutex
	stats   parser.Stats
	byType  map[string]uint64
	rejects map[string]uint64
	last    *Summary
}

var _ parser.Observer = (*Monitor)(nil)

func NewMonitor(name, addr string, reg *protocol.Registry, corsOrigins []string) *Monitor {
	RegisterMetrics()
	if reg == nil {
		reg = protocol.DefaultRegistry()
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(ComponentLogger("monitor")))
	r.Use(RequestMetricsMiddleware(name))
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(corsOrigins),
		AllowMethods: []string{"GET"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	m := &Monitor{
		Name:     name,
		Addr:     addr,
		Started:  time.Now(),
		router:   r,
		registry: reg,
		byType:   make(map[string]uint64),
		rejects:  make(map[string]uint64),
	}
	m.registerRoutes()
	return m
}

func (m *Monitor) HTTPRouter() *gin.Engine {
	return m.router
}

func (m *Monitor) FrameDecoded(msg protocol.Message) {
	s := Summarize(msg)
	m.mu.Lock()
	m.byType[s.Name]++
	m.last = &s
	m.mu.Unlock()
}

func (m *Monitor) FrameRejected(reason error) {
	m.mu.Lock()
	m.rejects[parser.Reason(reason)]++
	m.mu.Unlock()
}

// UpdateStats records the latest parser counters.
func (m *Monitor) UpdateStats(st parser.Stats) {
	m.mu.Lock()
	m.stats = st
	m.mu.Unlock()
}

// TypeCount is the number of frames decoded for one message type.
type TypeCount struct {
	Name  string `json:"name"`
	Count uint64 `json:"count"`
}

func (m *Monitor) snapshot() (parser.Stats, []TypeCount, map[string]uint64, *Summary) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	counts := make([]TypeCount, 0, len(m.byType))
	for name, n := range m.byType {
		counts = append(counts, TypeCount{Name: name, Count: n})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Name < counts[j].Name
	})
	rejects := make(map[string]uint64, len(m.rejects))
	for k, v := range m.rejects {
		rejects[k] = v
	}
	var last *Summary
	if m.last != nil {
		s := *m.last
		last = &s
	}
	return m.stats, counts, rejects, last
}

func (m *Monitor) registerRoutes() {
	m.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(m.Started).String(),
			"service": m.Name,
		})
	})

	m.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	m.router.GET("/stats", func(c *gin.Context) {
		stats, counts, rejects, last := m.snapshot()
		c.JSON(http.StatusOK, gin.H{
			"stats":    stats,
			"messages": counts,
			"rejects":  rejects,
			"last":     last,
		})
	})

	m.router.GET("/types", func(c *gin.Context) {
		entries := m.registry.Entries()
		out := make([]gin.H, 0, len(entries))
		for _, e := range entries {
			out = append(out, gin.H{"id": e.ID, "name": e.Name})
		}
		c.JSON(http.StatusOK, gin.H{"types": out})
	})
}

// Serve runs the HTTP server until ctx is cancelled.
func (m *Monitor) Serve(ctx context.Context) error {
	srv := &http.Server{Addr: m.Addr, Handler: m.router}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", m.Addr).Str("service", m.Name).Msg("monitor listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}
