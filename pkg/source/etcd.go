package source

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mykube-run/krefresh/pkg/log"
	"github.com/mykube-run/krefresh/pkg/types"
	clientv3 "go.etcd.io/etcd/client/v3"
)

var _ types.ConfigClient = (*Etcd)(nil)

// Etcd delivers etcd v3 key changes to listeners, keys are "group/dataId". Deletes are ignored.
type Etcd struct {
	*notifier
	lg     log.Logger
	client *clientv3.Client
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewEtcdClient(addrs []string, pub types.Publisher, lg log.Logger) (*Etcd, error) {
	if lg == nil {
		lg = log.New("krefresh.etcd")
	}
	cfg := clientv3.Config{
		Endpoints:            addrs,
		AutoSyncInterval:     time.Minute,
		DialTimeout:          time.Second * 2,
		DialKeepAliveTime:    time.Second * 5,
		DialKeepAliveTimeout: time.Second * 2,
	}
	client, err := clientv3.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create etcd client: %w", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Etcd{
		notifier: newNotifier("", pub, lg),
		lg:       lg,
		client:   client,
		ctx:      ctx,
		cancel:   cancel,
	}
	return s, nil
}

func (s *Etcd) AddListener(dataId, group string, l types.Listener) error {
	first, err := s.add(group, dataId, l)
	if err != nil || !first {
		return err
	}

	key := genKey(group, dataId)
	resp, err := s.client.Get(s.ctx, key)
	if err != nil {
		s.remove(group, dataId)
		return fmt.Errorf("failed to read config: %w", err)
	}
	if len(resp.Kvs) > 0 {
		s.seed(group, dataId, string(resp.Kvs[0].Value))
	}

	// Watch from the revision right after what has been read
	c := s.client.Watch(s.ctx, key, clientv3.WithRev(resp.Header.Revision+1))
	s.wg.Add(1)
	go s.watch(group, dataId, c)
	return nil
}

func (s *Etcd) GetConfig(dataId, group string) (string, error) {
	resp, err := s.client.Get(s.ctx, genKey(group, dataId))
	if err != nil {
		return "", fmt.Errorf("failed to read config: %w", err)
	}
	if len(resp.Kvs) == 0 {
		return "", fmt.Errorf("config key does not exist")
	}
	return string(resp.Kvs[0].Value), nil
}

func (s *Etcd) Close() error {
	if !s.close() {
		return nil
	}
	s.cancel()
	s.wg.Wait()
	return s.client.Close()
}

func (s *Etcd) watch(group, dataId string, c clientv3.WatchChan) {
	defer s.wg.Done()
	for resp := range c {
		if err := resp.Err(); err != nil {
			s.lg.Error(fmt.Sprintf("etcd watch error: %v, stop watching", err))
			return
		}
		for _, v := range resp.Events {
			if v.Type == clientv3.EventTypeDelete {
				continue
			}
			s.lg.Trace(fmt.Sprintf("key: %v, new version: %v", v.Kv.Key, v.Kv.Version))
			s.notify(group, dataId, string(v.Kv.Value))
		}
	}
	s.lg.Trace("etcd watcher has been closed, stop watching")
}
