package resilience

import "sync"

type flightCall struct {
	done chan struct{}
	val  any
	err  error
}

// Group deduplicates concurrent calls for the same key. Callers piggybacking
// on another caller's in-flight request receive its result verbatim.
// The zero value is ready to use.
type Group struct {
	mu    sync.Mutex
	calls map[string]*flightCall
}

// Do runs fn for key, or waits for the in-flight run if one already exists.
// shared reports whether the result was shared with at least one other caller.
func (g *Group) Do(key string, fn func() (any, error)) (v any, err error, shared bool) {
	g.mu.Lock()
	if g.calls == nil {
		g.calls = make(map[string]*flightCall)
	}
	if c, ok := g.calls[key]; ok {
		g.mu.Unlock()
		<-c.done
		return c.val, c.err, true
	}

	c := &flightCall{done: make(chan struct{})}
	g.calls[key] = c
	g.mu.Unlock()

	c.val, c.err = fn()

	g.mu.Lock()
	delete(g.calls, key)
	g.mu.Unlock()
	close(c.done)

	return c.val, c.err, false
}
