package source

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/consul/api"
	"github.com/mykube-run/krefresh/pkg/log"
	"github.com/mykube-run/krefresh/pkg/types"
)

// ConsulWaitTime is the longest a blocking query is held by consul
var ConsulWaitTime = time.Second * 5

var _ types.ConfigClient = (*Consul)(nil)

// Consul delivers consul KV changes to listeners. Each listened key is watched by
// its own blocking query loop, keys are "group/dataId".
type Consul struct {
	*notifier
	lg     log.Logger
	client *api.Client
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewConsulClient(addr string, pub types.Publisher, lg log.Logger) (*Consul, error) {
	if lg == nil {
		lg = log.New("krefresh.consul")
	}
	cfg := api.DefaultConfig()
	cfg.Address = addr
	client, err := api.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create consul client: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Consul{
		notifier: newNotifier("", pub, lg),
		lg:       lg,
		client:   client,
		ctx:      ctx,
		cancel:   cancel,
	}
	return s, nil
}

func (s *Consul) AddListener(dataId, group string, l types.Listener) error {
	first, err := s.add(group, dataId, l)
	if err != nil || !first {
		return err
	}

	pair, meta, err := s.client.KV().Get(genKey(group, dataId), nil)
	if err != nil {
		s.remove(group, dataId)
		return fmt.Errorf("failed to read config: %w", err)
	}
	var idx uint64
	if meta != nil {
		idx = meta.LastIndex
	}
	if pair != nil {
		s.seed(group, dataId, string(pair.Value))
	}

	s.wg.Add(1)
	go s.watch(group, dataId, idx)
	return nil
}

func (s *Consul) GetConfig(dataId, group string) (string, error) {
	pair, _, err := s.client.KV().Get(genKey(group, dataId), nil)
	if err != nil {
		return "", fmt.Errorf("failed to read config: %w", err)
	}
	if pair == nil {
		return "", fmt.Errorf("config key does not exist")
	}
	return string(pair.Value), nil
}

func (s *Consul) Close() error {
	if s.close() {
		s.cancel()
		s.wg.Wait()
	}
	return nil
}

func (s *Consul) watch(group, dataId string, lastIndex uint64) {
	defer s.wg.Done()
	key := genKey(group, dataId)
	for {
		if s.ctx.Err() != nil {
			s.lg.Trace("consul watcher has been closed, stop watching")
			return
		}
		// Blocks for at most ConsulWaitTime
		opts := &api.QueryOptions{WaitIndex: lastIndex, WaitTime: ConsulWaitTime}
		pair, meta, err := s.client.KV().Get(key, opts.WithContext(s.ctx))
		if err != nil {
			if s.ctx.Err() != nil {
				continue
			}
			s.lg.Error(fmt.Sprintf("error watching config %v: %v", key, err))
			time.Sleep(time.Second)
			continue
		}
		if meta == nil {
			continue
		}
		var changed bool
		if lastIndex, changed = nextIndex(lastIndex, meta.LastIndex); !changed || pair == nil {
			continue
		}
		s.lg.Trace(fmt.Sprintf("key: %v, new index: %v", key, lastIndex))
		s.notify(group, dataId, string(pair.Value))
	}
}

// nextIndex returns the wait index of the next blocking query, and whether cur reports a change.
// An index going backwards (e.g. after a raft snapshot restore) resets the wait index to 0.
func nextIndex(last, cur uint64) (uint64, bool) {
	switch {
	case cur < last:
		return 0, false
	case cur == last:
		return last, false
	}
	return cur, true
}
