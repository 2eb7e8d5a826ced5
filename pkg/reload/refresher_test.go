package reload

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/mykube-run/krefresh/pkg/registry"
	"github.com/mykube-run/krefresh/pkg/types"
)

// Test ConfigProxy definition
// ---------------------------
type proxy struct {
	c *testConfig
}

func newProxy() *proxy {
	return &proxy{c: new(testConfig)}
}

func (p *proxy) Get() interface{} {
	return *p.c
}

func (p *proxy) Populate(fn func(interface{}) error) error {
	return fn(p.c)
}

func (p *proxy) New() ConfigProxy {
	return &proxy{c: new(testConfig)}
}

// Test config definition
// ----------------------
type testConfig struct {
	IntVal int            `mapstructure:"int"`
	StrVal string         `mapstructure:"str"`
	ArrVal []string       `mapstructure:"arr"`
	MapVal map[string]int `mapstructure:"map"`
	Child  childConfig    `mapstructure:"child"`
}

type childConfig struct {
	IntVal int    `mapstructure:"int"`
	StrVal string `mapstructure:"str"`
}

// Test config client
// ------------------
var errDesigned = fmt.Errorf("designed error")

type fakeClient struct {
	mu       sync.Mutex
	contents map[string]string
	fail     bool
}

func (f *fakeClient) AddListener(dataId, group string, l types.Listener) error { return nil }
func (f *fakeClient) Close() error                                             { return nil }

func (f *fakeClient) GetConfig(dataId, group string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return "", errDesigned
	}
	v, ok := f.contents[group+"/"+dataId]
	if !ok {
		return "", fmt.Errorf("config not found")
	}
	return v, nil
}

func (f *fakeClient) set(dataId, content string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.contents[types.DefaultGroup+"/"+dataId] = content
}

const (
	conf1 = `{"int": 42, "str": "foo", "arr": ["bar", "zee"], "map": {"foo": 42}, "child": {"int": 42, "str": "foo"}}`
	conf2 = `
int: 36
str: another string
arr: foo
map:
  bar: 36
child:
  int: 36
  str: bar
`
)

func setup(t *testing.T) (*fakeClient, *registry.Registry, *proxy) {
	t.Helper()
	client := &fakeClient{contents: make(map[string]string)}
	reg := registry.New()
	return client, reg, newProxy()
}

// Tests
// -----
func TestRefresher_Refresh(t *testing.T) {
	var (
		client, reg, p = setup(t)
		calls          = 0
		prevInt        = -1
		handler        = ConfigUpdateHandler{
			Name: "test",
			Handle: func(prev, cur interface{}) error {
				pc, ok1 := prev.(testConfig)
				cc, ok2 := cur.(testConfig)
				if !ok1 || !ok2 {
					return fmt.Errorf("invalid config type")
				}
				if cc.IntVal == 0 {
					return fmt.Errorf("new config should be decoded before handlers run")
				}
				prevInt = pc.IntVal
				calls++
				return nil
			},
		}
	)
	client.set("svc-a.json", conf1)
	reg.Register(types.NewConfigMeta("", "svc-a.json", ""))
	r := New(p, client, reg, handler)

	if err := r.Refresh(); err != nil {
		t.Fatalf("error refreshing: %v", err)
	}
	checkConf1(p.Get().(testConfig), t)
	if calls != 1 || prevInt != 0 {
		t.Fatalf("handler should see the empty config as previous, calls: %v, prev: %v", calls, prevInt)
	}

	// Same content, nothing happens
	if err := r.Refresh(); err != nil {
		t.Fatalf("error refreshing: %v", err)
	}
	if calls != 1 {
		t.Fatalf("handler should not be called on unchanged config")
	}

	// Changed content, yaml with weakly typed array
	client.set("svc-a.json", `{"int": 36, "str": "another string", "arr": "foo", "map": {"bar": 36}, "child": {"int": 36, "str": "bar"}}`)
	if err := r.Refresh(); err != nil {
		t.Fatalf("error refreshing: %v", err)
	}
	checkConf2(p.Get().(testConfig), t)
	if calls != 2 || prevInt != 42 {
		t.Fatalf("handler should see previous config, calls: %v, prev: %v", calls, prevInt)
	}
}

func TestRefresher_MergesInRegistrationOrder(t *testing.T) {
	client, reg, p := setup(t)
	client.set("base.yaml", "int: 1\nstr: base\nchild:\n  int: 1\n  str: base\n")
	client.set("svc-a.yaml", "int: 2\nchild:\n  str: override\n")
	reg.Register(types.NewConfigMeta("", "base.yaml", ""))
	reg.Register(types.NewConfigMeta("", "svc-a.yaml", ""))

	if err := New(p, client, reg).Refresh(); err != nil {
		t.Fatalf("error refreshing: %v", err)
	}
	c := p.Get().(testConfig)
	if c.IntVal != 2 || c.StrVal != "base" {
		t.Fatalf("later configs should override earlier ones: %+v", c)
	}
	if c.Child.IntVal != 1 || c.Child.StrVal != "override" {
		t.Fatalf("nested maps should be merged: %+v", c.Child)
	}
}

func TestRefresher_FallsBackToLastKnownContent(t *testing.T) {
	client, reg, p := setup(t)
	client.set("svc-a.yaml", conf2)
	reg.Register(types.NewConfigMeta("", "svc-a.yaml", ""))
	r := New(p, client, reg)

	if err := r.Refresh(); err != nil {
		t.Fatalf("error refreshing: %v", err)
	}
	client.fail = true
	if err := r.Refresh(); err != nil {
		t.Fatalf("refresh should use last known content, got: %v", err)
	}
	checkConf2(p.Get().(testConfig), t)

	// Nothing known about a newly registered config
	reg.Register(types.NewConfigMeta("", "svc-b.yaml", ""))
	if err := r.Refresh(); !errors.Is(err, errDesigned) {
		t.Fatalf("expected designed error, got %v", err)
	}
}

func TestRefresher_HandlerError(t *testing.T) {
	client, reg, p := setup(t)
	client.set("svc-a.json", conf1)
	reg.Register(types.NewConfigMeta("", "svc-a.json", ""))

	failing := ConfigUpdateHandler{
		Name:   "failing",
		Handle: func(prev, cur interface{}) error { return errDesigned },
	}
	r := New(p, client, reg, NOOPHandler, failing)
	if err := r.Refresh(); !errors.Is(err, errDesigned) {
		t.Fatalf("expected handler error, got %v", err)
	}
	if p.Get().(testConfig).IntVal != 0 {
		t.Fatalf("live config should not be touched when a handler fails")
	}

	// The failed refresh is not remembered, a later refresh retries the same content
	r = New(p, client, reg)
	if err := r.Refresh(); err != nil {
		t.Fatalf("error refreshing: %v", err)
	}
	checkConf1(p.Get().(testConfig), t)
}

func TestRefresher_ParseError(t *testing.T) {
	client, reg, p := setup(t)
	client.set("svc-a.json", "{")
	reg.Register(types.NewConfigMeta("", "svc-a.json", ""))
	if err := New(p, client, reg).Refresh(); err == nil {
		t.Fatalf("expected parse error")
	}
}

func checkConf1(conf testConfig, t *testing.T) {
	t.Helper()
	if conf.IntVal != 42 || conf.StrVal != "foo" {
		t.Fatalf("invalid config before update: %+v", conf)
	}
	if len(conf.ArrVal) != 2 || conf.ArrVal[0] != "bar" || conf.ArrVal[1] != "zee" {
		t.Fatalf("invalid config before update, arr val: %v", conf.ArrVal)
	}
	if len(conf.MapVal) != 1 || conf.MapVal["foo"] != 42 {
		t.Fatalf("invalid config before update, map val: %v", conf.MapVal)
	}
	if conf.Child.IntVal != 42 || conf.Child.StrVal != "foo" {
		t.Fatalf("invalid config before update, child val: %v", conf.Child)
	}
}

func checkConf2(conf testConfig, t *testing.T) {
	t.Helper()
	if conf.IntVal != 36 || conf.StrVal != "another string" {
		t.Fatalf("invalid config after update: %+v", conf)
	}
	if len(conf.ArrVal) != 1 || conf.ArrVal[0] != "foo" {
		t.Fatalf("invalid config after update, arr val: %v", conf.ArrVal)
	}
	if len(conf.MapVal) != 1 || conf.MapVal["bar"] != 36 {
		t.Fatalf("invalid config after update, map val: %v", conf.MapVal)
	}
	if conf.Child.IntVal != 36 || conf.Child.StrVal != "bar" {
		t.Fatalf("invalid config after update, child val: %v", conf.Child)
	}
}
