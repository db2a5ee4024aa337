package browser

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// Hit is one response observed for an intercept alias.
type Hit struct {
	Method string
	URL    string
	Status int
}

type route struct {
	method   string
	glob     string
	re       *regexp.Regexp
	hits     []Hit
	consumed int
	notify   chan struct{}
}

// Intercepts is the alias registry behind Intercept and Wait. Playwright
// delivers responses on its own goroutine, so every method locks.
type Intercepts struct {
	mu     sync.Mutex
	routes map[string]*route
}

func NewIntercepts() *Intercepts {
	return &Intercepts{routes: map[string]*route{}}
}

// Register starts recording responses to method requests whose URL
// matches glob under alias. An empty method matches any method.
// Re-registering an alias resets it.
func (r *Intercepts) Register(alias, method, glob string) error {
	re, err := GlobToRegexp(glob)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes[alias] = &route{method: strings.ToUpper(method), glob: glob, re: re, notify: make(chan struct{})}
	return nil
}

// Observe records a response against every matching alias.
func (r *Intercepts) Observe(method, url string, status int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rt := range r.routes {
		if rt.method != "" && !strings.EqualFold(rt.method, method) {
			continue
		}
		if !rt.re.MatchString(url) {
			continue
		}
		rt.hits = append(rt.hits, Hit{Method: method, URL: url, Status: status})
		close(rt.notify)
		rt.notify = make(chan struct{})
	}
}

// Wait returns the next unconsumed response for alias, blocking until
// one arrives or ctx ends. Each response satisfies exactly one Wait.
func (r *Intercepts) Wait(ctx context.Context, alias string) (Hit, error) {
	for {
		r.mu.Lock()
		rt, ok := r.routes[alias]
		if !ok {
			r.mu.Unlock()
			return Hit{}, fmt.Errorf("wait @%s: alias was never intercepted", alias)
		}
		if rt.consumed < len(rt.hits) {
			hit := rt.hits[rt.consumed]
			rt.consumed++
			r.mu.Unlock()
			return hit, nil
		}
		ch := rt.notify
		what := strings.TrimSpace(rt.method + " " + rt.glob)
		r.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return Hit{}, fmt.Errorf("wait @%s (%s): %w", alias, what, ctx.Err())
		}
	}
}

// Hits returns every response recorded for alias so far.
func (r *Intercepts) Hits(alias string) []Hit {
	r.mu.Lock()
	defer r.mu.Unlock()
	rt, ok := r.routes[alias]
	if !ok {
		return nil
	}
	return append([]Hit(nil), rt.hits...)
}

// GlobToRegexp compiles a URL glob: ** matches across slashes, * within
// one path segment, ? one character.
func GlobToRegexp(glob string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^")
	for i := 0; i < len(glob); i++ {
		c := glob[i]
		switch {
		case c == '*' && i+1 < len(glob) && glob[i+1] == '*':
			b.WriteString(".*")
			i++
		case c == '*':
			b.WriteString("[^/]*")
		case c == '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	b.WriteString("$")
	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, fmt.Errorf("invalid url glob %q: %w", glob, err)
	}
	return re, nil
}

// Intercept registers alias for responses to method requests matching
// glob; method "" matches any.
func (h *Helper) Intercept(alias, method, glob string) error {
	return h.intercepts.Register(alias, method, glob)
}

// Wait blocks until the next response for alias, bounded by the browser
// timeout when ctx has no deadline.
func (h *Helper) Wait(ctx context.Context, alias string) (Hit, error) {
	ctx, cancel := h.withTimeout(ctx)
	defer cancel()
	hit, err := h.intercepts.Wait(ctx, alias)
	if err == nil {
		h.log.Debug().Str("alias", alias).Str("url", hit.URL).Int("status", hit.Status).Msg("intercept satisfied")
	}
	return hit, err
}
