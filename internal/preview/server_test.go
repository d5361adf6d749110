package preview

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/vango-dev/carbon/internal/manifest"
	"github.com/vango-dev/carbon/pkg/middleware"
	"github.com/vango-dev/carbon/pkg/render"
)

const testManifest = `
routes:
  - name: home
    path: /
    template: home
  - name: user
    path: /users/{id}
    layout: layout
    template: user_show
    regions:
      layout:
        data:
          title: "User {id}"
  - name: old
    path: /u/{id}
    redirect: /users/{id}
  - name: away
    path: /away
    redirect: https://elsewhere.test/x
`

type fakeSources struct {
	mu      sync.Mutex
	sources []render.Source
}

func (f *fakeSources) set(sources ...render.Source) {
	f.mu.Lock()
	f.sources = sources
	f.mu.Unlock()
}

func (f *fakeSources) load(context.Context) ([]render.Source, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sources, nil
}

func defaultSources() []render.Source {
	return []render.Source{
		{Name: "layout", Text: `<html><head><title>{{ .title }}</title></head><body><nav>{{ if isActive "user" }}user{{ end }}</nav>{{ view .yield }}</body></html>`},
		{Name: "home", Text: `<p>home</p>`},
		{Name: "user_show", Text: `<h1>User {{ .id }}</h1><a href="{{ url "user" "id" 9 }}">next</a>`},
	}
}

func newTestServer(t *testing.T, opts ...func(*Config)) (*Server, *fakeSources) {
	t.Helper()
	m, err := manifest.Parse("routes.yaml", strings.NewReader(testManifest))
	if err != nil {
		t.Fatal(err)
	}
	src := &fakeSources{}
	src.set(defaultSources()...)

	cfg := Config{
		Manifest: m,
		Sources:  src.load,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	srv, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return srv, src
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestPage(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name     string
		path     string
		status   int
		contains []string
		location string
	}{
		{
			name:   "route with layout",
			path:   "/users/5",
			status: http.StatusOK,
			contains: []string{
				"<title>User 5</title>",
				"<nav>user</nav>",
				"<h1>User 5</h1>",
				`href="/users/9"`,
				clientTag + "</body>",
			},
		},
		{
			name:     "default layout",
			path:     "/",
			status:   http.StatusOK,
			contains: []string{"<title>carbon</title>", "<p>home</p>"},
		},
		{
			name:     "not found",
			path:     "/nope",
			status:   http.StatusNotFound,
			contains: []string{"<h1>Not found</h1>"},
		},
		{
			name:     "redirect hook",
			path:     "/u/5",
			status:   http.StatusFound,
			location: "/users/5",
		},
		{
			name:     "foreign redirect",
			path:     "/away",
			status:   http.StatusFound,
			location: "https://elsewhere.test/x",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, srv.Handler(), tt.path)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d\n%s", rec.Code, tt.status, rec.Body.String())
			}
			for _, want := range tt.contains {
				if !strings.Contains(rec.Body.String(), want) {
					t.Errorf("body missing %q:\n%s", want, rec.Body.String())
				}
			}
			if tt.location != "" && rec.Header().Get("Location") != tt.location {
				t.Errorf("Location = %q, want %q", rec.Header().Get("Location"), tt.location)
			}
		})
	}
}

func TestRoutesAndClient(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := get(t, srv.Handler(), "/_carbon/routes")
	var routes []routeInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &routes); err != nil {
		t.Fatalf("decode routes: %v", err)
	}
	if len(routes) != 4 || routes[1].Name != "user" || routes[1].Path != "/users/{id}" {
		t.Fatalf("routes = %+v", routes)
	}
	if len(routes[1].Params) != 1 || routes[1].Params[0] != "id" {
		t.Errorf("params = %v", routes[1].Params)
	}
	if strings.Join(routes[1].Regions, ",") != "content,layout" {
		t.Errorf("regions = %v", routes[1].Regions)
	}

	rec = get(t, srv.Handler(), "/_carbon/client.js")
	if !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/javascript") || !strings.Contains(rec.Body.String(), "/_carbon/ws") {
		t.Errorf("client.js = %d %q", rec.Code, rec.Header().Get("Content-Type"))
	}

	if rec := get(t, srv.Handler(), "/metrics"); rec.Code != http.StatusNotFound && strings.Contains(rec.Body.String(), "# HELP") {
		t.Error("/metrics should not be served without metrics")
	}
}

func TestReloadRejectsBrokenTemplates(t *testing.T) {
	srv, src := newTestServer(t)

	src.set(render.Source{Name: "home", Text: "{{ .broken "})
	if err := srv.Reload(context.Background()); err == nil {
		t.Fatal("Reload() should fail on a parse error")
	}
	if rec := get(t, srv.Handler(), "/"); !strings.Contains(rec.Body.String(), "<p>home</p>") {
		t.Errorf("previous templates were dropped:\n%s", rec.Body.String())
	}

	src.set(render.Source{Name: "home", Text: "<p>v2</p>"})
	if err := srv.Reload(context.Background()); err != nil {
		t.Fatal(err)
	}
	if rec := get(t, srv.Handler(), "/"); !strings.Contains(rec.Body.String(), "<p>v2</p>") {
		t.Errorf("reloaded templates not used:\n%s", rec.Body.String())
	}
}

func TestNewErrors(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Error("New() without sources should fail")
	}

	m, err := manifest.Parse("routes.yaml", strings.NewReader("routes:\n  - name: a\n    path: /{x}/{x}\n"))
	if err != nil {
		t.Fatal(err)
	}
	_, err = New(context.Background(), Config{
		Manifest: m,
		Sources:  (&fakeSources{}).load,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err == nil {
		t.Error("New() with an invalid manifest should fail")
	}
}

type client struct {
	t    *testing.T
	conn *websocket.Conn
}

func dial(t *testing.T, ts *httptest.Server, url string) *client {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/_carbon/ws?url=" + url
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return &client{t: t, conn: conn}
}

func (c *client) send(msg Message) {
	c.t.Helper()
	if err := c.conn.WriteJSON(msg); err != nil {
		c.t.Fatalf("send: %v", err)
	}
}

func (c *client) read(wantType string) Message {
	c.t.Helper()
	c.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg Message
	if err := c.conn.ReadJSON(&msg); err != nil {
		c.t.Fatalf("read: %v", err)
	}
	if msg.Type != wantType {
		c.t.Fatalf("message type = %q, want %q (%+v)", msg.Type, wantType, msg)
	}
	return msg
}

func TestSession(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := middleware.NewMetrics(middleware.WithRegistry(reg))
	srv, src := newTestServer(t, func(c *Config) {
		c.Metrics = metrics
		c.Gatherer = reg
	})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	c := dial(t, ts, "/users/1")

	first := c.read(TypeRender)
	if first.URL != "/users/1" || first.Route != "user" || first.Status != "found" {
		t.Errorf("first render = %+v", first)
	}
	if !strings.Contains(first.HTML, "<h1>User 1</h1>") {
		t.Errorf("first render html = %q", first.HTML)
	}
	waitSessions(t, srv, 1)

	t.Run("navigate", func(t *testing.T) {
		c.send(Message{Type: TypeNavigate, URL: "/users/2"})
		if push := c.read(TypePush); push.URL != ts.URL+"/users/2" {
			t.Errorf("push url = %q", push.URL)
		}
		if r := c.read(TypeRender); !strings.Contains(r.HTML, "<h1>User 2</h1>") {
			t.Errorf("render html = %q", r.HTML)
		}
	})

	t.Run("intercepted click", func(t *testing.T) {
		href := ts.URL + "/users/3"
		c.send(Message{Type: TypeClick, Href: href, Attrs: map[string]string{"href": "/users/3"}})
		if push := c.read(TypePush); push.URL != href {
			t.Errorf("push url = %q", push.URL)
		}
		if r := c.read(TypeRender); r.URL != "/users/3" {
			t.Errorf("render url = %q", r.URL)
		}
	})

	t.Run("foreign click", func(t *testing.T) {
		c.send(Message{Type: TypeClick, Href: "https://example.org/x"})
		if a := c.read(TypeAssign); a.URL != "https://example.org/x" {
			t.Errorf("assign url = %q", a.URL)
		}
	})

	t.Run("popstate", func(t *testing.T) {
		c.send(Message{Type: TypePopState, URL: "/users/1"})
		if r := c.read(TypeRender); r.URL != "/users/1" {
			t.Errorf("render url = %q (popstate must not push)", r.URL)
		}
	})

	t.Run("not found", func(t *testing.T) {
		c.send(Message{Type: TypeNavigate, URL: "/missing"})
		c.read(TypePush)
		if r := c.read(TypeRender); r.Status != "not_found" {
			t.Errorf("status = %q", r.Status)
		}
	})

	t.Run("reload", func(t *testing.T) {
		sources := defaultSources()
		sources = append(sources, render.Source{Name: "carbon__default_not_found", Text: "<h1>Gone</h1>"})
		src.set(sources...)
		if err := srv.Reload(context.Background()); err != nil {
			t.Fatal(err)
		}
		if r := c.read(TypeRender); !strings.Contains(r.HTML, "<h1>Gone</h1>") {
			t.Errorf("render after reload = %q", r.HTML)
		}
	})

	t.Run("bad messages", func(t *testing.T) {
		c.send(Message{Type: "dance"})
		if e := c.read(TypeError); !strings.Contains(e.Error, "dance") {
			t.Errorf("error = %q", e.Error)
		}
		if err := c.conn.WriteMessage(websocket.TextMessage, []byte("{")); err != nil {
			t.Fatal(err)
		}
		c.read(TypeError)
	})

	rec := get(t, srv.Handler(), "/metrics")
	if !strings.Contains(rec.Body.String(), "carbon_router_sessions_active 1") {
		t.Errorf("metrics missing active session:\n%s", rec.Body.String())
	}

	c.conn.Close()
	waitSessions(t, srv, 0)
}

func waitSessions(t *testing.T, srv *Server, n int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for srv.SessionCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("SessionCount() = %d, want %d", srv.SessionCount(), n)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestInjectClient(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"<body>x</body>", "<body>x" + clientTag + "</body>"},
		{"<p>fragment</p>", "<p>fragment</p>" + clientTag},
	}
	for _, tt := range tests {
		if got := string(injectClient([]byte(tt.in))); got != tt.want {
			t.Errorf("injectClient(%q) = %q", tt.in, got)
		}
	}
}

func TestSessionCatchesUpWithReloadBeforeRegistration(t *testing.T) {
	srv, src := newTestServer(t)
	srv.beforeRegister = func() {
		srv.beforeRegister = nil
		sources := defaultSources()
		sources[1] = render.Source{Name: "home", Text: `<p>fresh</p>`}
		src.set(sources...)
		if err := srv.Reload(context.Background()); err != nil {
			t.Errorf("Reload() error: %v", err)
		}
	}
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	c := dial(t, ts, "/")
	if r := c.read(TypeRender); !strings.Contains(r.HTML, "<p>home</p>") {
		t.Errorf("first render = %q", r.HTML)
	}
	if r := c.read(TypeRender); !strings.Contains(r.HTML, "<p>fresh</p>") {
		t.Errorf("render after catching up = %q", r.HTML)
	}
	waitSessions(t, srv, 1)
}
