package refresher

import (
	"fmt"

	"github.com/mykube-run/krefresh/pkg/multicast"
	"github.com/mykube-run/krefresh/pkg/registry"
	"github.com/mykube-run/krefresh/pkg/types"
)

// RefresherFactory builds the refresh hook once client and registry exist
type RefresherFactory func(client types.ConfigClient, reg *registry.Registry) types.Refresher

// Bridge is a fully wired listener bridge
type Bridge struct {
	Broadcaster *multicast.Multicaster
	Client      types.ConfigClient
	Registry    *registry.Registry
	Dispatcher  *Dispatcher
	Registrar   *Registrar
}

// New connects the config center described by opt and subscribes the resources chosen
// by reg, opt.Registration() is used when reg is nil. dopt may be nil for default gates.
func New(opt *BootstrapOption, newRefresher RefresherFactory, reg Registration, dopt *Options) (*Bridge, error) {
	if opt == nil {
		return nil, fmt.Errorf("bootstrap option must be provided")
	}
	if newRefresher == nil {
		return nil, ErrNoRefresher
	}
	if reg == nil {
		if err := opt.Validate(); err != nil {
			return nil, fmt.Errorf("invalid bootstrap option: %w", err)
		}
		reg = opt.Registration()
	}

	var (
		mc  *multicast.Multicaster
		err error
	)
	if opt.AsyncBroadcast > 0 {
		if mc, err = multicast.NewAsync(opt.AsyncBroadcast, opt.Logger); err != nil {
			return nil, err
		}
	} else {
		mc = multicast.New(opt.Logger)
	}
	client, err := NewConfigClient(opt, mc)
	if err != nil {
		_ = mc.Close()
		return nil, fmt.Errorf("failed to create config client: %w", err)
	}

	b := &Bridge{
		Broadcaster: mc,
		Client:      client,
		Registry:    registry.New(),
	}
	rf := newRefresher(client, b.Registry)
	if rf == nil {
		_ = b.Close()
		return nil, ErrNoRefresher
	}
	b.Dispatcher = NewDispatcher(b.Registry, rf, dopt)
	b.Registrar = NewRegistrar(b.Dispatcher, mc, opt.Environment(), opt.Logger)
	if err = b.Registrar.Bootstrap(reg, client); err != nil {
		_ = b.Close()
		return nil, err
	}
	return b, nil
}

// Refresh triggers a refresh outside of any notification, e.g. right after bootstrap
func (b *Bridge) Refresh() error {
	return b.Dispatcher.refresher.Refresh()
}

// Close stops the config client and the broadcaster
func (b *Bridge) Close() error {
	err := b.Client.Close()
	if e := b.Broadcaster.Close(); err == nil {
		err = e
	}
	return err
}
