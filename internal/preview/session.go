package preview

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vango-dev/carbon/pkg/reactive"
	"github.com/vango-dev/carbon/pkg/render"
	"github.com/vango-dev/carbon/pkg/router"
)

// Message types exchanged with the browser.
const (
	// Browser to server.
	TypeNavigate = "navigate"
	TypeClick    = "click"
	TypePopState = "popstate"

	// Server to browser.
	TypeRender = "render"
	TypePush   = "push"
	TypeAssign = "assign"
	TypeError  = "error"
)

const (
	maxMessageSize = 64 << 10
	writeTimeout   = 10 * time.Second
)

// Message is a JSON WebSocket message.
type Message struct {
	Type     string            `json:"type"`
	URL      string            `json:"url,omitempty"`
	Href     string            `json:"href,omitempty"`
	Attrs    map[string]string `json:"attrs,omitempty"`
	Modified bool              `json:"modified,omitempty"`
	HTML     string            `json:"html,omitempty"`
	Status   string            `json:"status,omitempty"`
	Route    string            `json:"route,omitempty"`
	Error    string            `json:"error,omitempty"`
}

// socketHistory forwards history changes to the browser.
type socketHistory struct {
	mu   sync.Mutex
	loc  string
	send func(Message) error
}

func (h *socketHistory) Location() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.loc
}

func (h *socketHistory) Push(url string) error {
	h.set(url)
	return h.send(Message{Type: TypePush, URL: url})
}

func (h *socketHistory) Assign(url string) error {
	return h.send(Message{Type: TypeAssign, URL: url})
}

func (h *socketHistory) set(url string) {
	h.mu.Lock()
	h.loc = url
	h.mu.Unlock()
}

type session struct {
	srv     *Server
	conn    *websocket.Conn
	writeMu sync.Mutex
	logger  *slog.Logger

	origin  string
	history *socketHistory
	router  *router.Router
	html    *render.HTML
	comp    *reactive.Computation

	// reloadMu guards gen, the generation of the loaded template sources.
	reloadMu sync.Mutex
	gen      uint64
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.wsError("upgrade", err)
		return
	}
	conn.SetReadLimit(maxMessageSize)

	target := r.URL.Query().Get("url")
	if target == "" {
		target = "/"
	}
	origin := s.originFor(r)

	sess := &session{
		srv:    s,
		conn:   conn,
		origin: origin,
		logger: s.logger.With("remote", r.RemoteAddr),
	}
	sess.history = &socketHistory{loc: origin + target, send: sess.send}

	sources, gen := s.snapshot()
	sess.gen = gen
	sess.router, sess.html, err = s.newRouter(origin, sess.history, sources)
	if err != nil {
		sess.send(Message{Type: TypeError, Error: err.Error()})
		conn.Close()
		return
	}

	sess.router.GoURL(target)
	sess.comp = reactive.Autorun(func(*reactive.Computation) {
		sess.render(sess.router.Current())
	})

	if s.beforeRegister != nil {
		s.beforeRegister()
	}

	// A Reload that ran since the snapshot did not see this session.
	s.mu.Lock()
	s.sessions[sess] = struct{}{}
	latest, latestGen := s.sources, s.gen
	s.mu.Unlock()
	if latestGen != gen {
		sess.reload(latestGen, latest)
	}
	if s.cfg.Metrics != nil {
		s.cfg.Metrics.SessionOpened()
	}

	defer func() {
		s.mu.Lock()
		delete(s.sessions, sess)
		s.mu.Unlock()
		sess.comp.Stop()
		if s.cfg.Metrics != nil {
			s.cfg.Metrics.SessionClosed()
		}
		conn.Close()
	}()

	sess.readLoop()
}

func (s *Server) wsError(kind string, err error) {
	s.logger.Warn("websocket error", "type", kind, "error", err)
	if s.cfg.Metrics != nil {
		s.cfg.Metrics.WebSocketError(kind)
	}
}

func (sess *session) readLoop() {
	for {
		_, data, err := sess.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure) {
				sess.srv.wsError("read", err)
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			sess.srv.wsError("decode", err)
			sess.send(Message{Type: TypeError, Error: "invalid message"})
			continue
		}
		sess.handle(msg)
	}
}

func (sess *session) handle(msg Message) {
	switch msg.Type {
	case TypeNavigate:
		sess.router.GoURL(msg.URL)

	case TypePopState:
		// The browser already moved; only the router follows.
		sess.history.set(sess.absolute(msg.URL))
		sess.router.GoURL(msg.URL)

	case TypeClick:
		link := router.Link{Href: msg.Href, Attrs: msg.Attrs, Modified: msg.Modified}
		if !sess.router.InterceptLink(link) {
			sess.send(Message{Type: TypeAssign, URL: msg.Href})
		}

	default:
		sess.logger.Debug("unknown message", "type", msg.Type)
		sess.send(Message{Type: TypeError, Error: "unknown message type " + msg.Type})
	}
}

func (sess *session) absolute(url string) string {
	if strings.Contains(url, "://") {
		return url
	}
	return sess.origin + url
}

// render sends the page region of c.
func (sess *session) render(c *router.Controller) {
	var b strings.Builder
	if err := render.Region(&b, c, pageRegion(sess.router)); err != nil {
		sess.send(Message{Type: TypeError, URL: c.Navigation().URL, Error: err.Error()})
		return
	}
	sess.send(Message{
		Type:   TypeRender,
		URL:    c.Navigation().URL,
		Status: string(c.Status()),
		Route:  c.RouteName(),
		HTML:   b.String(),
	})
}

// reload loads sources unless the session already has a newer generation.
func (sess *session) reload(gen uint64, sources []render.Source) {
	sess.reloadMu.Lock()
	defer sess.reloadMu.Unlock()
	if gen <= sess.gen {
		return
	}
	sess.gen = gen
	if err := sess.html.Load(sources); err != nil {
		sess.send(Message{Type: TypeError, Error: err.Error()})
		return
	}
	sess.comp.Invalidate()
}

func (sess *session) send(msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	sess.writeMu.Lock()
	defer sess.writeMu.Unlock()
	sess.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := sess.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		sess.srv.wsError("write", err)
		return err
	}
	return nil
}
