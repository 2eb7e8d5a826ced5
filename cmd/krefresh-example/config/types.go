package config

import (
	"github.com/mykube-run/krefresh/pkg/reload"
)

// Proxy reload proxy
// ------------------
var Proxy = &proxy{c: new(Sample)}

type proxy struct {
	c *Sample
}

func (p *proxy) Get() interface{} {
	return *p.c
}

func (p *proxy) Populate(fn func(interface{}) error) error {
	return fn(p.c)
}

func (p *proxy) New() reload.ConfigProxy {
	return &proxy{c: new(Sample)}
}

func (p *proxy) Value() Sample {
	return *p.c
}

// Sample config
// -------------
type Sample struct {
	DB          Database    `mapstructure:"db"`
	FeatureGate FeatureGate `mapstructure:"featureGate"`
}

type Database struct {
	Address string `mapstructure:"address"`
}

type FeatureGate struct {
	EnableXXX bool `mapstructure:"enableXXX"`
}
