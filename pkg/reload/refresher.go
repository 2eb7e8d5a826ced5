package reload

import (
	"fmt"
	"strings"
	"sync"

	"github.com/mitchellh/mapstructure"
	"github.com/mykube-run/krefresh/pkg/caching"
	"github.com/mykube-run/krefresh/pkg/log"
	"github.com/mykube-run/krefresh/pkg/parser"
	"github.com/mykube-run/krefresh/pkg/types"
	"github.com/mykube-run/krefresh/pkg/utils"
)

// MetaProvider lists the resources to read on refresh, see registry.Registry
type MetaProvider interface {
	Snapshot() []types.ConfigMeta
}

var _ types.Refresher = (*Refresher)(nil)

// Refresher re-reads every registered config from a config client and populates them,
// merged in registration order, into a ConfigProxy.
type Refresher struct {
	mu       sync.Mutex
	proxy    ConfigProxy
	client   types.ConfigClient
	metas    MetaProvider
	cache    *caching.ContentCache
	handlers []ConfigUpdateHandler
	lg       log.Logger

	lastMd5 string
}

// New creates a Refresher. Handlers are called sequentially on every effective refresh.
func New(proxy ConfigProxy, client types.ConfigClient, metas MetaProvider, hdl ...ConfigUpdateHandler) *Refresher {
	return &Refresher{
		proxy:    proxy,
		client:   client,
		metas:    metas,
		cache:    caching.NewContentCache(0, nil),
		handlers: hdl,
		lg:       log.New("krefresh.reload"),
	}
}

// Register registers extra update handlers after creation
func (r *Refresher) Register(hdl ...ConfigUpdateHandler) *Refresher {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers = append(r.handlers, hdl...)
	return r
}

// WithLogger specifies a custom logger
func (r *Refresher) WithLogger(lg log.Logger) *Refresher {
	r.lg = lg
	return r
}

// Refresh reads all configs and updates the proxy. Nothing happens when merged
// content did not change since last refresh.
func (r *Refresher) Refresh() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, sum, err := r.read()
	if err != nil {
		return err
	}
	if sum == r.lastMd5 {
		r.lg.Trace("config was not changed and will be ignored (having the same md5)")
		return nil
	}

	// Read in new config
	next := r.proxy.New()
	if err = next.Populate(decodeFn(data)); err != nil {
		return fmt.Errorf("error decoding new config: %w", err)
	}

	// Handle config change
	for _, hdl := range r.handlers {
		if err = hdl.Handle(r.proxy.Get(), next.Get()); err != nil {
			return fmt.Errorf("handler [%s] failed: %w", hdl.Name, err)
		}
		r.lg.Trace(fmt.Sprintf("handler [%s] finished", hdl.Name))
	}

	// Populate the new config back to the live config
	if err = r.proxy.Populate(decodeFn(data)); err != nil {
		return fmt.Errorf("error decoding new config: %w", err)
	}
	r.lastMd5 = sum
	r.lg.Info(fmt.Sprintf("refreshed config, md5: %v", sum))
	return nil
}

// read fetches and merges every registered config, returning the merged map and
// an md5 over all contents
func (r *Refresher) read() (map[string]interface{}, string, error) {
	var (
		merged = make(map[string]interface{})
		sb     strings.Builder
	)
	for _, m := range r.metas.Snapshot() {
		meta := m
		content, err := r.cache.Fetch(meta.Key(), func(string) (string, error) {
			return r.client.GetConfig(meta.DataID, meta.GroupID)
		})
		if err != nil {
			return nil, "", fmt.Errorf("error reading config %v: %w", meta, err)
		}
		v, err := parser.Parse(content, contentType(meta))
		if err != nil {
			return nil, "", fmt.Errorf("error parsing config %v: %w", meta, err)
		}
		merge(merged, v)
		sb.WriteString(meta.Key())
		sb.WriteString("\n")
		sb.WriteString(content)
		sb.WriteString("\n")
	}
	return merged, utils.Md5([]byte(sb.String())), nil
}

// contentType prefers what the data id extension says over the meta type
func contentType(meta types.ConfigMeta) string {
	if ext := parser.TypeOf(meta.DataID); ext != types.DefaultType {
		return ext
	}
	return meta.Type
}

// merge deep merges src into dst, later values win
func merge(dst, src map[string]interface{}) {
	for k, sv := range src {
		sm, sok := sv.(map[string]interface{})
		dm, dok := dst[k].(map[string]interface{})
		if sok && dok {
			merge(dm, sm)
			continue
		}
		dst[k] = sv
	}
}

func decodeFn(data map[string]interface{}) func(interface{}) error {
	return func(v interface{}) error {
		dc := &mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			ZeroFields:       true, // this must be set to avoid array/map being merged
			Result:           v,
		}
		decoder, err := mapstructure.NewDecoder(dc)
		if err != nil {
			return err
		}
		return decoder.Decode(data)
	}
}
