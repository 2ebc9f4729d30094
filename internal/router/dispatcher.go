package router

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

type subscription struct {
	id     uint64
	method string // "" matches every method
	fn     Listener
}

// Dispatcher fans server notifications out to registered listeners.
// Listeners run synchronously in registration order; notifications are not
// buffered, so a listener only sees frames that arrive after it subscribed.
type Dispatcher struct {
	logger *slog.Logger

	mu     sync.Mutex
	subs   []*subscription // copy-on-write
	nextID uint64

	dispatched atomic.Int64
	delivered  atomic.Int64
	unobserved atomic.Int64
	panics     atomic.Int64
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		logger: logger.With("component", "dispatcher"),
	}
}

// Subscribe registers fn for every notification. The returned function
// removes it and is safe to call more than once.
func (d *Dispatcher) Subscribe(fn Listener) func() {
	return d.add("", fn)
}

// SubscribeMethod registers fn for notifications with the given method.
func (d *Dispatcher) SubscribeMethod(method string, fn Listener) func() {
	return d.add(method, fn)
}

func (d *Dispatcher) add(method string, fn Listener) func() {
	d.mu.Lock()
	d.nextID++
	s := &subscription{id: d.nextID, method: method, fn: fn}
	subs := make([]*subscription, len(d.subs), len(d.subs)+1)
	copy(subs, d.subs)
	d.subs = append(subs, s)
	d.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { d.remove(s.id) })
	}
}

func (d *Dispatcher) remove(id uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	subs := make([]*subscription, 0, len(d.subs))
	for _, s := range d.subs {
		if s.id != id {
			subs = append(subs, s)
		}
	}
	d.subs = subs
}

// Dispatch delivers n to every matching listener.
func (d *Dispatcher) Dispatch(n Notification) {
	d.dispatched.Add(1)

	d.mu.Lock()
	subs := d.subs
	d.mu.Unlock()

	var delivered int64
	for _, s := range subs {
		if s.method != "" && s.method != n.Method {
			continue
		}
		d.deliver(s, n)
		delivered++
	}

	if delivered == 0 {
		d.unobserved.Add(1)
		d.logger.Debug("notification had no listeners", "method", n.Method)
		return
	}
	d.delivered.Add(delivered)
}

func (d *Dispatcher) deliver(s *subscription, n Notification) {
	defer func() {
		if r := recover(); r != nil {
			d.panics.Add(1)
			d.logger.Error("notification listener panicked",
				"method", n.Method,
				"listener", s.id,
				"panic", r,
			)
		}
	}()
	s.fn(n)
}

// Len returns the number of registered listeners.
func (d *Dispatcher) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.subs)
}

// Stats returns current statistics.
func (d *Dispatcher) Stats() DispatcherStats {
	return DispatcherStats{
		Dispatched: d.dispatched.Load(),
		Delivered:  d.delivered.Load(),
		Unobserved: d.unobserved.Load(),
		Panics:     d.panics.Load(),
		Listeners:  d.Len(),
	}
}
