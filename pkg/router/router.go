package router

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vango-dev/carbon/pkg/reactive"
	"github.com/vango-dev/carbon/pkg/render"
	"github.com/vango-dev/carbon/pkg/routepath"
)

// maxRedirects bounds how many navigations made by before-hooks a single
// Current call follows.
const maxRedirects = 8

// Navigation is one value of the active URL cell. Every GoURL call creates
// a new Navigation, so navigating twice to the same URL is two navigations.
type Navigation struct {
	URL string
	Seq uint64
}

// cacheEntry holds the controller of one navigation. once makes concurrent
// readers wait for materialization and the before-hook.
type cacheEntry struct {
	nav  *Navigation
	ctrl *Controller
	once sync.Once
}

// Router maps the active URL to a Controller.
//
// Routes are registered with Add before navigation begins. GoURL and Go
// change the active URL; Current returns the Controller for it, creating it
// and running the route's before-hook on first access. Current reads the
// active URL through a reactive cell, so a reactive.Computation calling
// Current runs again on every navigation.
//
// A Router is safe for concurrent use.
type Router struct {
	table     *Table
	templates render.Registry
	history   History
	origin    string
	logger    *slog.Logger
	observers []Observer

	active *reactive.Cell[*Navigation]
	seq    atomic.Uint64

	mu        sync.RWMutex
	config    Config
	cache     *cacheEntry
	navigated bool
}

// Option configures a Router.
type Option func(*Router)

// WithTemplates sets the registry region templates are resolved in.
func WithTemplates(reg render.Registry) Option {
	return func(r *Router) {
		r.templates = reg
	}
}

// WithHistory sets the address-bar collaborator.
func WithHistory(h History) Option {
	return func(r *Router) {
		r.history = h
	}
}

// WithOrigin sets the origin stripped from absolute URLs, e.g.
// "http://localhost:3000". Without it the origin of the history's location
// is used.
func WithOrigin(origin string) Option {
	return func(r *Router) {
		r.origin = origin
	}
}

// WithLogger sets the logger. The default logger discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(r *Router) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithObserver adds an observer of navigations and materializations.
func WithObserver(o Observer) Option {
	return func(r *Router) {
		if o != nil {
			r.observers = append(r.observers, o)
		}
	}
}

// WithConfig applies p to the default configuration.
func WithConfig(p ConfigPatch) Option {
	return func(r *Router) {
		r.config.merge(p)
	}
}

// New creates a Router with the default configuration and no routes.
func New(opts ...Option) *Router {
	r := &Router{
		table:  NewTable(),
		logger: slog.New(noopHandler{}),
		active: reactive.NewCell[*Navigation](nil),
		config: DefaultConfig(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Table returns the router's route table.
func (r *Router) Table() *Table {
	return r.table
}

// Templates returns the template registry, or nil.
func (r *Router) Templates() render.Registry {
	return r.templates
}

// Configure merges p into the live configuration. Controllers created
// before the call keep the configuration they were built with.
func (r *Router) Configure(p ConfigPatch) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.config.merge(p)
}

// GetConfig returns a configuration value by key.
func (r *Router) GetConfig(key string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.config.get(key)
}

// Config returns a snapshot of the configuration.
func (r *Router) Config() Config {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.config.clone()
}

// Add registers a route. See Table.Add for the semantics of repeated
// names. The Template and Data shorthands apply to the configured content
// region; Add fails with *AmbiguousRegionError if there is none.
func (r *Router) Add(name, tmpl string, opts RouteOptions) error {
	r.mu.RLock()
	content := r.config.ContentRegion
	navigated := r.navigated
	r.mu.RUnlock()

	if navigated {
		r.logger.Warn("route registered after navigation began", "route", name)
	}

	if opts.Template != "" || len(opts.Data) > 0 {
		if content == "" {
			return &AmbiguousRegionError{Route: name}
		}
		regions := cloneRegions(opts.Regions)
		if regions == nil {
			regions = make(map[string]RegionConfig, 1)
		}
		rc := regions[content]
		if opts.Template != "" {
			rc.Template = opts.Template
		}
		rc.Data = append(rc.Data, opts.Data...)
		regions[content] = rc

		opts.Regions = regions
		opts.Template = ""
		opts.Data = nil
	}

	return r.table.Add(name, tmpl, opts)
}

// URLOption configures URL.
type URLOption func(*urlOptions)

type urlOptions struct {
	check bool
}

// Check makes URL fail instead of returning "".
func Check() URLOption {
	return func(o *urlOptions) {
		o.check = true
	}
}

// URL builds the URL of a named route. Without Check, unknown routes and
// missing parameters yield "" and a nil error.
func (r *Router) URL(name string, params Params, opts ...URLOption) (string, error) {
	var o urlOptions
	for _, opt := range opts {
		opt(&o)
	}
	return r.table.BuildURL(name, params, o.check)
}

// Go navigates to a named route. Unknown routes and missing parameters are
// errors.
func (r *Router) Go(name string, params Params) error {
	url, err := r.URL(name, params, Check())
	if err != nil {
		return err
	}
	r.GoURL(url)
	return nil
}

// GoURL navigates to href.
//
// Absolute URLs of the router's origin are reduced to their path. URLs of
// another origin are handed to History.Assign and leave the router
// untouched. The history is asked to push the new address if it differs
// from its current location.
func (r *Router) GoURL(href string) {
	origin := r.originFor()
	url, err := routepath.Normalize(origin, href)
	if errors.Is(err, routepath.ErrForeignOrigin) {
		r.logger.Debug("leaving origin", "url", href)
		if r.history != nil {
			if err := r.history.Assign(href); err != nil {
				r.logger.Warn("history assign failed", "url", href, "error", err)
			}
		}
		return
	}
	if err != nil {
		r.logger.Warn("ignoring navigation", "url", href, "error", err)
		return
	}

	pushed := r.push(origin, url)

	nav := &Navigation{URL: url, Seq: r.seq.Add(1)}
	prev := r.active.Peek()

	r.mu.Lock()
	r.navigated = true
	r.mu.Unlock()

	event := NavigationEvent{
		URL:    url,
		Seq:    nav.Seq,
		Time:   time.Now(),
		Pushed: pushed,
	}
	if prev != nil {
		event.Previous = prev.URL
	}
	for _, o := range r.observers {
		o.ObserveNavigation(event)
	}

	// Set re-runs dependent computations on this goroutine.
	r.logger.Debug("navigate", "url", url, "seq", nav.Seq)
	r.active.Set(nav)
}

// originFor returns the configured origin or the origin of the history's
// location.
func (r *Router) originFor() string {
	if r.origin != "" || r.history == nil {
		return r.origin
	}
	return routepath.Origin(r.history.Location())
}

func (r *Router) push(origin, url string) bool {
	if r.history == nil {
		return false
	}
	abs := routepath.Absolute(origin, url)
	if abs == r.history.Location() {
		return false
	}
	err := r.history.Push(abs)
	if errors.Is(err, ErrPushUnsupported) {
		err = r.history.Assign(abs)
	}
	if err != nil {
		r.logger.Warn("history update failed", "url", abs, "error", err)
		return false
	}
	return true
}

// Start performs the initial navigation to the history's location when
// AutoLoad is enabled.
func (r *Router) Start() {
	r.mu.RLock()
	autoLoad := r.config.AutoLoad
	r.mu.RUnlock()

	if autoLoad && r.history != nil {
		r.GoURL(r.history.Location())
	}
}

// Active returns the active navigation without subscribing, or nil before
// the first navigation.
func (r *Router) Active() *Navigation {
	return r.active.Peek()
}

// CurrentOption configures Current.
type CurrentOption func(*currentOptions)

type currentOptions struct {
	nonReactive bool
}

// NonReactive makes Current read the active URL without subscribing the
// running computation.
func NonReactive() CurrentOption {
	return func(o *currentOptions) {
		o.nonReactive = true
	}
}

// Current returns the Controller of the active URL.
//
// The first call after a navigation builds the controller and runs its
// before-hook; later calls return the same controller until the next
// navigation. Concurrent first calls wait for the hook. If the hook
// navigates, Current follows and returns the controller of the new URL.
func (r *Router) Current(opts ...CurrentOption) *Controller {
	var o currentOptions
	for _, opt := range opts {
		opt(&o)
	}

	var nav *Navigation
	if o.nonReactive {
		nav = r.active.Peek()
	} else {
		nav = r.active.Get()
	}

	redirects := 0
	for {
		entry, ok := r.entry(nav)
		if !ok {
			// Superseded before anyone built it; its hook never runs.
			nav = r.active.Peek()
			continue
		}
		entry.once.Do(func() {
			entry.ctrl = r.materialize(nav)
		})

		latest := r.active.Peek()
		if latest == nav {
			return entry.ctrl
		}
		if redirects == maxRedirects {
			r.logger.Warn("redirect limit reached", "url", latest.URL, "limit", maxRedirects)
			return entry.ctrl
		}
		redirects++
		nav = latest
	}
}

// entry returns the cache entry of nav. Only the active navigation gets a
// new entry, so a navigation is materialized at most once; for a superseded
// navigation without an entry it reports false.
func (r *Router) entry(nav *Navigation) (*cacheEntry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cache != nil && r.cache.nav == nav {
		return r.cache, true
	}
	if nav != r.active.Peek() {
		return nil, false
	}
	r.cache = &cacheEntry{nav: nav}
	return r.cache, true
}

// materialize builds the controller of nav and runs its before-hook.
func (r *Router) materialize(nav *Navigation) *Controller {
	start := time.Now()

	r.mu.RLock()
	cfg := r.config
	r.mu.RUnlock()

	c := &Controller{
		status:        StatusLoading,
		templates:     r.templates,
		layoutRegion:  cfg.LayoutRegion,
		contentRegion: cfg.ContentRegion,
		contentKey:    cfg.ContentKey,
		params:        make(Params),
		regions:       make(regionSet),
	}
	c.regions.apply(cfg.Regions)

	switch {
	case nav == nil:
		c.regions.apply(cfg.Loading)

	default:
		c.nav = *nav
		c.path, c.rawQuery, c.fragment = routepath.Split(nav.URL)
		match, ok := r.table.MatchURL(c.path)
		if !ok {
			c.status = StatusNotFound
			c.regions.apply(cfg.NotFound)
			break
		}
		c.status = StatusFound
		c.route = match.Route
		c.params = match.Params
		c.before = match.Route.Before
		c.regions.apply(match.Route.Regions)
	}

	hookRan := c.runBefore()

	r.logger.Debug("materialize",
		"url", c.nav.URL,
		"status", string(c.status),
		"route", c.RouteName(),
		"before_hook", hookRan,
	)

	if len(r.observers) > 0 {
		event := MaterializeEvent{
			URL:      c.nav.URL,
			Seq:      c.nav.Seq,
			Route:    c.RouteName(),
			Status:   c.status,
			HookRan:  hookRan,
			Start:    start,
			Duration: time.Since(start),
		}
		for _, o := range r.observers {
			o.ObserveMaterialize(event)
		}
	}
	return c
}

// noopHandler discards all log records.
type noopHandler struct{}

func (noopHandler) Enabled(context.Context, slog.Level) bool { return false }

func (noopHandler) Handle(context.Context, slog.Record) error { return nil }

func (n noopHandler) WithAttrs([]slog.Attr) slog.Handler { return n }

func (n noopHandler) WithGroup(string) slog.Handler { return n }
