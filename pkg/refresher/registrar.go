package refresher

import (
	"fmt"
	"sync"

	"github.com/mykube-run/krefresh/pkg/log"
	"github.com/mykube-run/krefresh/pkg/types"
	"github.com/mykube-run/krefresh/pkg/utils"
)

// Broadcaster is where the dispatcher subscribes for broadcast events, see multicast.Multicaster
type Broadcaster interface {
	Subscribe(l types.BroadcastListener)
}

// Registration decides which resources to watch, in which groups. It is the
// integration point of the bridge, everything else has defaults.
type Registration interface {
	RegisterListeners(r *Registrar, clients []types.ConfigClient) error
}

// RegistrationFunc adapts a function to Registration
type RegistrationFunc func(r *Registrar, clients []types.ConfigClient) error

func (fn RegistrationFunc) RegisterListeners(r *Registrar, clients []types.ConfigClient) error {
	return fn(r, clients)
}

// Registrar subscribes a Dispatcher to config clients at bootstrap time.
type Registrar struct {
	d    *Dispatcher
	bc   Broadcaster
	env  Environment
	lg   log.Logger
	once sync.Once
}

// NewRegistrar creates a Registrar. bc may be nil when no broadcast is available,
// env defaults to an empty PropertyMap (OS environment only).
func NewRegistrar(d *Dispatcher, bc Broadcaster, env Environment, lg log.Logger) *Registrar {
	if env == nil {
		env = PropertyMap{}
	}
	if lg == nil {
		lg = log.New("krefresh.registrar")
	}
	return &Registrar{d: d, bc: bc, env: env, lg: lg}
}

// Bootstrap runs the registration against given clients
func (r *Registrar) Bootstrap(reg Registration, clients ...types.ConfigClient) error {
	if reg == nil {
		return ErrNoRegistration
	}
	return reg.RegisterListeners(r, clients)
}

// Subscribe adds the dispatcher as listener of (group, dataId) and records the resource
// in the registry. Empty group means types.DefaultGroup. Client errors are returned
// as *SubscriptionError without retrying.
func (r *Registrar) Subscribe(client types.ConfigClient, group, dataId string) error {
	meta := types.NewConfigMeta(group, dataId, "")
	r.subscribeBroadcast()

	if err := client.AddListener(meta.DataID, meta.GroupID, r.d); err != nil {
		return &SubscriptionError{GroupID: meta.GroupID, DataID: meta.DataID, Err: err}
	}
	r.d.reg.Register(meta)
	r.lg.Info(fmt.Sprintf("registered dynamic refresh listener, meta: [dataId: %v, group: %v]", meta.DataID, meta.GroupID))
	return nil
}

// SubscribeTemplate resolves template's "{}" placeholder with the application name,
// then subscribes to the resulting data id.
func (r *Registrar) SubscribeTemplate(client types.ConfigClient, group, template string) error {
	dataId, err := r.Resolve(template)
	if err != nil {
		return err
	}
	return r.Subscribe(client, group, dataId)
}

// Resolve fills template with the application name
func (r *Registrar) Resolve(template string) (string, error) {
	app := r.env.Property(AppKey)
	if app == "" {
		return "", fmt.Errorf("resolving %q: %w", template, ErrAppNameNotFound)
	}
	return utils.Format(template, app), nil
}

func (r *Registrar) subscribeBroadcast() {
	if r.bc == nil {
		return
	}
	r.once.Do(func() {
		r.bc.Subscribe(r.d)
	})
}

// StaticRegistration subscribes a fixed list of templates and data ids in one group,
// on every given client.
type StaticRegistration struct {
	Group     string
	Templates []string
	DataIds   []string
}

func (s StaticRegistration) RegisterListeners(r *Registrar, clients []types.ConfigClient) error {
	for _, c := range clients {
		for _, tpl := range s.Templates {
			if err := r.SubscribeTemplate(c, s.Group, tpl); err != nil {
				return err
			}
		}
		for _, id := range s.DataIds {
			if err := r.Subscribe(c, s.Group, id); err != nil {
				return err
			}
		}
	}
	return nil
}
