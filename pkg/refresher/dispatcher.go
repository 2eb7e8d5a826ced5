package refresher

import (
	"fmt"

	"github.com/mykube-run/krefresh/pkg/types"
	"go.uber.org/atomic"
)

// WatchRegistry is the registry a Dispatcher filters events against, see registry.Registry
type WatchRegistry interface {
	Register(meta types.ConfigMeta)
	Snapshot() []types.ConfigMeta
	IsWatched(dataId string) bool
	Empty() bool
}

var (
	_ types.Listener          = (*Dispatcher)(nil)
	_ types.BroadcastListener = (*Dispatcher)(nil)
)

// Dispatcher receives change notifications from both channels and decides whether
// each of them triggers a refresh. It owns no goroutine, every event is handled on
// the caller's goroutine and concurrent calls are safe.
type Dispatcher struct {
	reg       WatchRegistry
	refresher types.Refresher
	opt       *Options
	counter   *atomic.Int64
}

// NewDispatcher creates a Dispatcher, opt may be nil to use NewOptions()
func NewDispatcher(reg WatchRegistry, refresher types.Refresher, opt *Options) *Dispatcher {
	return &Dispatcher{
		reg:       reg,
		refresher: refresher,
		opt:       opt.complete(),
		counter:   atomic.NewInt64(0),
	}
}

// OnBroadcast implements types.BroadcastListener
func (d *Dispatcher) OnBroadcast(evt *types.BroadcastEvent) error {
	return d.Dispatch(evt)
}

// ReceiveConfigChange implements types.Listener
func (d *Dispatcher) ReceiveConfigChange(evt *types.DirectChangeEvent) error {
	return d.Dispatch(evt)
}

// Dispatch filters, gates and, when accepted, refreshes exactly once for evt.
// A refresh error is returned to the caller, the post refresh hook is skipped in that case.
func (d *Dispatcher) Dispatch(evt types.ChangeEvent) error {
	if evt == nil {
		return nil
	}
	ch := evt.Channel()
	if !d.relevant(evt) {
		d.opt.Metrics.observe(ch, OutcomeIrrelevant)
		return nil
	}
	if !d.accept(evt) {
		d.opt.Metrics.observe(ch, OutcomeRejected)
		return nil
	}

	d.opt.PreRefresh(evt)
	n := d.counter.Inc()
	d.opt.Logger.Info(fmt.Sprintf("dynamic refresh on %v, counter: %v", evt, n))
	if err := d.refresher.Refresh(); err != nil {
		d.opt.Metrics.observe(ch, OutcomeFailed)
		return fmt.Errorf("refresh on %v failed: %w", evt, err)
	}
	d.opt.Metrics.observe(ch, OutcomeRefreshed)
	d.opt.PostRefresh(evt)
	return nil
}

// Counter returns the number of refreshes started so far
func (d *Dispatcher) Counter() int64 {
	return d.counter.Load()
}

// relevant drops everything while nothing is registered, and broadcasts for data ids
// nobody watches. Direct events were subscribed for explicitly and skip the data id check.
func (d *Dispatcher) relevant(evt types.ChangeEvent) bool {
	if d.reg.Empty() {
		return false
	}
	if _, ok := evt.(*types.BroadcastEvent); ok {
		return d.reg.IsWatched(evt.GetDataID())
	}
	return true
}

func (d *Dispatcher) accept(evt types.ChangeEvent) bool {
	switch e := evt.(type) {
	case *types.BroadcastEvent:
		return d.opt.AcceptBroadcast(e)
	case *types.DirectChangeEvent:
		return d.opt.AcceptDirect(e)
	default:
		return false
	}
}
