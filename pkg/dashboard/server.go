package dashboard

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"gonum.org/v1/plot/vg"

	"github.com/sudorandom/polio-dashboard/pkg/charts"
	"github.com/sudorandom/polio-dashboard/pkg/geo"
	"github.com/sudorandom/polio-dashboard/pkg/metrics"
)

// Options tune the server. Zero values select the defaults.
type Options struct {
	Logger        zerolog.Logger
	Metrics       *metrics.Metrics
	FrameInterval time.Duration
	PreviewWidth  vg.Length
	PreviewHeight vg.Length
}

// Server serves a Bundle. Every response body is rendered once in
// NewServer; handlers only copy bytes.
type Server struct {
	bundle        *Bundle
	logger        zerolog.Logger
	metrics       *metrics.Metrics
	frameInterval time.Duration
	upgrader      websocket.Upgrader

	specs      map[string][]byte
	tabs       map[Tab][]byte
	incomePNG  []byte
	framePNG   map[string][]byte
	frameGeo   map[string][]byte
	frameIndex map[string]int
}

func NewServer(b *Bundle, opts Options) (*Server, error) {
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = charts.FrameDuration * time.Millisecond
	}
	if opts.PreviewWidth == 0 {
		opts.PreviewWidth = 16 * vg.Inch
	}
	if opts.PreviewHeight == 0 {
		opts.PreviewHeight = 7.5 * vg.Inch
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}

	s := &Server{
		bundle:        b,
		logger:        opts.Logger,
		metrics:       opts.Metrics,
		frameInterval: opts.FrameInterval,
		tabs:          make(map[Tab][]byte),
		framePNG:      make(map[string][]byte),
		frameGeo:      make(map[string][]byte),
		frameIndex:    make(map[string]int),
	}

	var err error
	if s.specs, err = b.Encode(); err != nil {
		return nil, err
	}
	for _, tab := range Tabs {
		d, err := Content(tab, b)
		if err != nil {
			return nil, err
		}
		if s.tabs[tab], err = json.Marshal(d); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := charts.RenderIncomePNG(&buf, &b.Income, opts.PreviewWidth, opts.PreviewHeight); err != nil {
		return nil, fmt.Errorf("income preview: %w", err)
	}
	s.incomePNG = bytes.Clone(buf.Bytes())

	proj := geo.FitProjector(1700, 850)
	for i, period := range b.Map.FrameNames() {
		s.frameIndex[period] = i
		buf.Reset()
		if err := charts.RenderFramePNG(&buf, &b.Map, period, proj, opts.PreviewWidth, opts.PreviewHeight); err != nil {
			return nil, fmt.Errorf("frame %s preview: %w", period, err)
		}
		s.framePNG[period] = bytes.Clone(buf.Bytes())

		fc, err := charts.FramePoints(&b.Map, period)
		if err != nil {
			return nil, err
		}
		if s.frameGeo[period], err = fc.MarshalJSON(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Router wires every route.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(s.instrument)

	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/tabs/{tab}", s.handleTab).Methods(http.MethodGet)
	api.HandleFunc("/charts/income.png", s.handleIncomePNG).Methods(http.MethodGet)
	api.HandleFunc("/charts/map/frames/{period:[0-9-]+}.geojson", s.handleFrameGeoJSON).Methods(http.MethodGet)
	api.HandleFunc("/charts/map/frames/{period:[0-9-]+}.png", s.handleFramePNG).Methods(http.MethodGet)
	api.HandleFunc("/charts/{spec}", s.handleSpec).Methods(http.MethodGet)

	r.HandleFunc("/ws/map", s.handlePlayback)
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string, readTimeout, writeTimeout time.Duration) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("Dashboard listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	s.logger.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(indexHTML)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]any{
		"status":        "ok",
		"income_series": len(s.bundle.Income.Data),
		"map_frames":    len(s.bundle.Map.Frames),
	})
}

func (s *Server) handleTab(w http.ResponseWriter, r *http.Request) {
	body, ok := s.tabs[Tab(mux.Vars(r)["tab"])]
	if !ok {
		respondError(w, fmt.Sprintf("%q: %v", mux.Vars(r)["tab"], ErrUnknownTab), http.StatusNotFound)
		return
	}
	respondRaw(w, "application/json", body)
}

func (s *Server) handleSpec(w http.ResponseWriter, r *http.Request) {
	body, ok := s.specs[mux.Vars(r)["spec"]]
	if !ok {
		respondError(w, "unknown chart", http.StatusNotFound)
		return
	}
	respondRaw(w, "application/json", body)
}

func (s *Server) handleIncomePNG(w http.ResponseWriter, r *http.Request) {
	respondRaw(w, "image/png", s.incomePNG)
}

func (s *Server) handleFramePNG(w http.ResponseWriter, r *http.Request) {
	body, ok := s.framePNG[mux.Vars(r)["period"]]
	if !ok {
		respondError(w, charts.ErrUnknownFrame.Error(), http.StatusNotFound)
		return
	}
	respondRaw(w, "image/png", body)
}

func (s *Server) handleFrameGeoJSON(w http.ResponseWriter, r *http.Request) {
	body, ok := s.frameGeo[mux.Vars(r)["period"]]
	if !ok {
		respondError(w, charts.ErrUnknownFrame.Error(), http.StatusNotFound)
		return
	}
	respondRaw(w, "application/geo+json", body)
}

func respondJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": message,
	})
}

func respondRaw(w http.ResponseWriter, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Hijack lets websocket upgrades pass through the instrumentation.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := "unmatched"
		if cur := mux.CurrentRoute(r); cur != nil {
			if tmpl, err := cur.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		s.metrics.HTTPDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		s.metrics.HTTPRequests.WithLabelValues(route, fmt.Sprint(rec.status)).Inc()
	})
}
