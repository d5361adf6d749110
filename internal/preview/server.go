package preview

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vango-dev/carbon/internal/manifest"
	"github.com/vango-dev/carbon/pkg/middleware"
	"github.com/vango-dev/carbon/pkg/render"
	"github.com/vango-dev/carbon/pkg/router"
)

// Sources returns the templates to render with.
type Sources func(ctx context.Context) ([]render.Source, error)

// Config configures a preview Server.
type Config struct {
	// Addr is the listen address used by Run.
	Addr string

	// Origin is the origin routers strip from absolute URLs. Empty means the
	// origin of each request.
	Origin string

	Manifest *manifest.Manifest
	Router   router.ConfigPatch
	Sources  Sources

	// Metrics, when set, observes every session router and is served on
	// /metrics from Gatherer (default: prometheus.DefaultGatherer).
	Metrics  *middleware.Metrics
	Gatherer prometheus.Gatherer

	Tracing *middleware.Tracing

	Logger          *slog.Logger
	ShutdownTimeout time.Duration
}

// Server renders routes over HTTP and keeps one router per WebSocket
// session, pushing a re-render whenever the session navigates.
type Server struct {
	cfg      Config
	logger   *slog.Logger
	upgrader websocket.Upgrader
	handler  http.Handler

	mu       sync.RWMutex
	sources  []render.Source
	gen      uint64
	sessions map[*session]struct{}

	// beforeRegister runs between a session's first render and its
	// registration. Tests use it to land a Reload in that window.
	beforeRegister func()
}

// New creates a Server and loads its templates.
func New(ctx context.Context, cfg Config) (*Server, error) {
	if cfg.Sources == nil {
		return nil, fmt.Errorf("preview: no template sources")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 5 * time.Second
	}
	if cfg.Manifest == nil {
		cfg.Manifest = &manifest.Manifest{}
	}
	cfg.Origin = strings.TrimSuffix(cfg.Origin, "/")

	// Surface manifest errors now rather than on the first request.
	if err := cfg.Manifest.Apply(router.New(router.WithConfig(cfg.Router))); err != nil {
		return nil, err
	}

	s := &Server{
		cfg:      cfg,
		logger:   cfg.Logger,
		sessions: make(map[*session]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true // local preview only
			},
		},
	}
	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	s.handler = s.routes()
	return s, nil
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(s.accessLog)

	r.Get("/_carbon/ws", s.handleWebSocket)
	r.Get("/_carbon/client.js", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
		w.Write([]byte(clientScript))
	})
	r.Get("/_carbon/routes", s.handleRoutes)
	if s.cfg.Metrics != nil {
		gatherer := s.cfg.Gatherer
		if gatherer == nil {
			gatherer = prometheus.DefaultGatherer
		}
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	r.Get("/*", s.handlePage)
	return r
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", chimw.GetReqID(r.Context()),
		)
	})
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Reload fetches the template sources again and re-renders every session.
// Sources that fail to parse are rejected and the previous set stays.
func (s *Server) Reload(ctx context.Context) error {
	sources, err := s.cfg.Sources(ctx)
	if err != nil {
		return fmt.Errorf("preview: load templates: %w", err)
	}
	sources = append(builtinSources(), sources...)

	// Parse once with placeholder funcs to reject broken templates early.
	probe := render.NewHTML(router.New().TemplateFuncs())
	if err := probe.Load(sources); err != nil {
		return fmt.Errorf("preview: %w", err)
	}

	s.mu.Lock()
	s.sources = sources
	s.gen++
	gen := s.gen
	sessions := make([]*session, 0, len(s.sessions))
	for sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.reload(gen, sources)
	}
	s.logger.Info("templates loaded", "count", len(sources), "sessions", len(sessions))
	return nil
}

// SessionCount returns the number of open WebSocket sessions.
func (s *Server) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Run serves on cfg.Addr until ctx is cancelled, then shuts down.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("preview server starting", "address", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != http.ErrServerClosed {
			return err
		}
		return nil
	case <-ctx.Done():
		s.logger.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		s.closeSessions()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) closeSessions() {
	s.mu.RLock()
	sessions := make([]*session, 0, len(s.sessions))
	for sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.RUnlock()
	for _, sess := range sessions {
		sess.conn.Close()
	}
}

// snapshot returns the current template sources and their generation.
func (s *Server) snapshot() ([]render.Source, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sources, s.gen
}

// newRouter builds a router with the manifest routes and a template
// registry bound to it, loaded with sources.
func (s *Server) newRouter(origin string, history router.History, sources []render.Source) (*router.Router, *render.HTML, error) {
	html := render.NewHTML()
	opts := []router.Option{
		router.WithTemplates(html),
		router.WithHistory(history),
		router.WithOrigin(origin),
		router.WithLogger(s.logger),
		router.WithConfig(s.cfg.Router),
	}
	if s.cfg.Metrics != nil {
		opts = append(opts, router.WithObserver(s.cfg.Metrics))
	}
	if s.cfg.Tracing != nil {
		opts = append(opts, router.WithObserver(s.cfg.Tracing))
	}
	rt := router.New(opts...)
	if err := s.cfg.Manifest.Apply(rt); err != nil {
		return nil, nil, err
	}
	html.Funcs(rt.TemplateFuncs())
	if err := html.Load(sources); err != nil {
		return nil, nil, err
	}
	return rt, html, nil
}

func (s *Server) originFor(r *http.Request) string {
	if s.cfg.Origin != "" {
		return s.cfg.Origin
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	origin := s.originFor(r)
	target := r.URL.RequestURI()
	history := router.NewMemoryHistory(origin + target)

	sources, _ := s.snapshot()
	rt, _, err := s.newRouter(origin, history, sources)
	if err != nil {
		s.logger.Error("build router", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	rt.GoURL(target)
	first := rt.Active()
	c := rt.Current(router.NonReactive())

	if assigned := history.Assigned(); len(assigned) > 0 {
		http.Redirect(w, r, assigned[len(assigned)-1], http.StatusFound)
		return
	}
	if nav := rt.Active(); nav != first {
		http.Redirect(w, r, nav.URL, http.StatusFound)
		return
	}

	var buf bytes.Buffer
	if err := render.Region(&buf, c, pageRegion(rt)); err != nil {
		s.logger.Error("render page", "url", target, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if c.Status() == router.StatusNotFound {
		w.WriteHeader(http.StatusNotFound)
	}
	w.Write(injectClient(buf.Bytes()))
}

type routeInfo struct {
	Name    string   `json:"name"`
	Path    string   `json:"path"`
	Params  []string `json:"params,omitempty"`
	Regions []string `json:"regions,omitempty"`
}

func (s *Server) handleRoutes(w http.ResponseWriter, r *http.Request) {
	sources, _ := s.snapshot()
	rt, _, err := s.newRouter(s.originFor(r), nil, sources)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	var out []routeInfo
	for _, route := range rt.Table().Routes() {
		info := routeInfo{Name: route.Name, Path: route.Template, Params: route.Pattern.Names()}
		for name := range route.Regions {
			info.Regions = append(info.Regions, name)
		}
		sort.Strings(info.Regions)
		out = append(out, info)
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

// pageRegion is the region rendered as the whole page: the layout region,
// or the content region when there is no layout.
func pageRegion(rt *router.Router) string {
	cfg := rt.Config()
	if cfg.LayoutRegion != "" {
		return cfg.LayoutRegion
	}
	return cfg.ContentRegion
}

const clientTag = `<script src="/_carbon/client.js" defer></script>`

func injectClient(page []byte) []byte {
	i := bytes.LastIndex(page, []byte("</body>"))
	if i < 0 {
		return append(page, clientTag...)
	}
	out := make([]byte, 0, len(page)+len(clientTag))
	out = append(out, page[:i]...)
	out = append(out, clientTag...)
	return append(out, page[i:]...)
}
