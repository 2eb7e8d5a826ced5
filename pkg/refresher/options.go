package refresher

import (
	"github.com/mykube-run/krefresh/pkg/log"
	"github.com/mykube-run/krefresh/pkg/types"
)

// Options customizes how a Dispatcher gates events and what it runs around a refresh.
type Options struct {
	// AcceptBroadcast decides whether a relevant broadcast event triggers a refresh.
	// Defaults to false: broadcasts come before the direct event of the same update.
	AcceptBroadcast func(evt *types.BroadcastEvent) bool
	// AcceptDirect decides whether a direct change event triggers a refresh, defaults to true.
	AcceptDirect func(evt *types.DirectChangeEvent) bool
	// PreRefresh runs right before the refresh
	PreRefresh func(evt types.ChangeEvent)
	// PostRefresh runs after a successful refresh
	PostRefresh func(evt types.ChangeEvent)
	Logger      log.Logger
	Metrics     *Metrics
}

// NewOptions returns options with the default gates and no-op hooks
func NewOptions() *Options {
	return &Options{
		AcceptBroadcast: func(*types.BroadcastEvent) bool { return false },
		AcceptDirect:    func(*types.DirectChangeEvent) bool { return true },
		PreRefresh:      func(types.ChangeEvent) {},
		PostRefresh:     func(types.ChangeEvent) {},
		Logger:          log.New("krefresh.dispatcher"),
	}
}

// WithAcceptBroadcast replaces the broadcast gate
func (o *Options) WithAcceptBroadcast(fn func(evt *types.BroadcastEvent) bool) *Options {
	o.AcceptBroadcast = fn
	return o
}

// WithAcceptDirect replaces the direct change gate
func (o *Options) WithAcceptDirect(fn func(evt *types.DirectChangeEvent) bool) *Options {
	o.AcceptDirect = fn
	return o
}

// WithPreRefresh specifies a hook called before each refresh
func (o *Options) WithPreRefresh(fn func(evt types.ChangeEvent)) *Options {
	o.PreRefresh = fn
	return o
}

// WithPostRefresh specifies a hook called after each successful refresh
func (o *Options) WithPostRefresh(fn func(evt types.ChangeEvent)) *Options {
	o.PostRefresh = fn
	return o
}

// WithLogger specifies a custom logger
func (o *Options) WithLogger(lg log.Logger) *Options {
	o.Logger = lg
	return o
}

// WithMetrics enables dispatch metrics
func (o *Options) WithMetrics(m *Metrics) *Options {
	o.Metrics = m
	return o
}

// complete fills nil fields left by callers building Options by hand
func (o *Options) complete() *Options {
	def := NewOptions()
	if o == nil {
		return def
	}
	if o.AcceptBroadcast == nil {
		o.AcceptBroadcast = def.AcceptBroadcast
	}
	if o.AcceptDirect == nil {
		o.AcceptDirect = def.AcceptDirect
	}
	if o.PreRefresh == nil {
		o.PreRefresh = def.PreRefresh
	}
	if o.PostRefresh == nil {
		o.PostRefresh = def.PostRefresh
	}
	if o.Logger == nil {
		o.Logger = def.Logger
	}
	return o
}
