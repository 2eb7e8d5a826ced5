package multicast

import (
	"fmt"
	"sync"
	"time"

	"github.com/mykube-run/krefresh/pkg/log"
	"github.com/mykube-run/krefresh/pkg/types"
	"github.com/panjf2000/ants/v2"
)

var _ types.Publisher = (*Multicaster)(nil)

// Multicaster publishes BroadcastEvents to every subscribed listener. Listeners are
// called on the publishing goroutine unless the Multicaster was created with NewAsync.
type Multicaster struct {
	mu        sync.RWMutex
	listeners []types.BroadcastListener
	pool      *ants.Pool // nil when synchronous
	lg        log.Logger
}

// New creates a synchronous Multicaster
func New(lg log.Logger) *Multicaster {
	if lg == nil {
		lg = log.DefaultLogger
	}
	return &Multicaster{lg: lg}
}

// NewAsync creates a Multicaster delivering events on a goroutine pool of given size.
// Delivery order across listeners is not guaranteed.
func NewAsync(size int, lg log.Logger) (*Multicaster, error) {
	m := New(lg)
	pool, err := ants.NewPool(size, ants.WithExpiryDuration(time.Second*10))
	if err != nil {
		return nil, fmt.Errorf("failed to create broadcast pool: %w", err)
	}
	m.pool = pool
	return m, nil
}

// Subscribe adds a listener
func (m *Multicaster) Subscribe(l types.BroadcastListener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, l)
}

// Publish delivers evt to all listeners. Listener errors are logged.
func (m *Multicaster) Publish(evt *types.BroadcastEvent) {
	m.mu.RLock()
	ls := make([]types.BroadcastListener, len(m.listeners))
	copy(ls, m.listeners)
	m.mu.RUnlock()

	for i := range ls {
		l := ls[i]
		if m.pool == nil {
			m.deliver(l, evt)
			continue
		}
		if err := m.pool.Submit(func() { m.deliver(l, evt) }); err != nil {
			m.lg.Error(fmt.Sprintf("failed to submit %v: %v", evt, err))
		}
	}
}

// Close releases the goroutine pool, if any
func (m *Multicaster) Close() error {
	if m.pool != nil {
		m.pool.Release()
	}
	return nil
}

func (m *Multicaster) deliver(l types.BroadcastListener, evt *types.BroadcastEvent) {
	if err := l.OnBroadcast(evt); err != nil {
		m.lg.Error(fmt.Sprintf("broadcast listener failed on %v: %v", evt, err))
	}
}
