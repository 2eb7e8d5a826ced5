package source

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/mykube-run/krefresh/pkg/log"
	"github.com/mykube-run/krefresh/pkg/types"
	"github.com/nacos-group/nacos-sdk-go/clients"
	"github.com/nacos-group/nacos-sdk-go/common/constant"
	"github.com/nacos-group/nacos-sdk-go/vo"
)

var (
	NacosTimeout  uint64 = 5000
	NacosLogDir          = "/tmp/nacos/log"
	NacosCacheDir        = "/tmp/nacos/cache"
	NacosLogLevel        = "warn"
)

// nacosAPI is the part of nacos config_client.IConfigClient used here
type nacosAPI interface {
	GetConfig(param vo.ConfigParam) (string, error)
	ListenConfig(param vo.ConfigParam) error
	CancelListenConfig(param vo.ConfigParam) error
}

var _ types.ConfigClient = (*Nacos)(nil)

// Nacos delivers nacos config changes to listeners
type Nacos struct {
	*notifier
	lg     log.Logger
	client nacosAPI
}

// NewNacosClient connects nacos servers in given namespace
func NewNacosClient(addrs []string, namespace string, pub types.Publisher, lg log.Logger) (*Nacos, error) {
	cfg := constant.ClientConfig{
		NamespaceId:         namespace,
		TimeoutMs:           NacosTimeout,
		NotLoadCacheAtStart: true,
		LogDir:              NacosLogDir,
		CacheDir:            NacosCacheDir,
		LogLevel:            NacosLogLevel,
	}
	scs, err := ParseNacosAddrs(addrs)
	if err != nil {
		return nil, err
	}
	client, err := clients.NewConfigClient(vo.NacosClientParam{
		ClientConfig:  &cfg,
		ServerConfigs: scs,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create nacos config client: %w", err)
	}
	return newNacos(client, namespace, pub, lg), nil
}

func newNacos(client nacosAPI, namespace string, pub types.Publisher, lg log.Logger) *Nacos {
	if lg == nil {
		lg = log.New("krefresh.nacos")
	}
	return &Nacos{
		notifier: newNotifier(namespace, pub, lg),
		lg:       lg,
		client:   client,
	}
}

// AddListener listens (group, dataId) on nacos, the first listener of a key seeds its last content
func (s *Nacos) AddListener(dataId, group string, l types.Listener) error {
	first, err := s.add(group, dataId, l)
	if err != nil || !first {
		return err
	}

	if v, err := s.GetConfig(dataId, group); err == nil {
		s.seed(group, dataId, v)
	} else {
		s.lg.Warn(fmt.Sprintf("failed to read initial config, group: %v, dataId: %v: %v", group, dataId, err))
	}

	fn := func(namespace, group, dataId, data string) {
		s.notify(group, dataId, data)
	}
	err = s.client.ListenConfig(vo.ConfigParam{
		DataId:   dataId,
		Group:    group,
		OnChange: fn,
	})
	if err != nil {
		s.remove(group, dataId)
		return fmt.Errorf("failed to listen nacos config: %w", err)
	}
	return nil
}

func (s *Nacos) GetConfig(dataId, group string) (string, error) {
	v, err := s.client.GetConfig(vo.ConfigParam{
		DataId: dataId,
		Group:  group,
	})
	if err != nil {
		return "", fmt.Errorf("failed to read config: %w", err)
	}
	return v, nil
}

// Close cancels all listening
func (s *Nacos) Close() error {
	if !s.close() {
		return nil
	}
	for _, k := range s.keys() {
		if err := s.client.CancelListenConfig(vo.ConfigParam{
			DataId: k[1],
			Group:  k[0],
		}); err != nil {
			return err
		}
	}
	return nil
}

func ParseNacosAddrs(addrs []string) ([]constant.ServerConfig, error) {
	scs := make([]constant.ServerConfig, 0, len(addrs))
	for _, v := range addrs {
		sc := constant.ServerConfig{}
		if !strings.HasPrefix(v, "http") {
			v = "http://" + v
		}
		u, err := url.Parse(v)
		if err != nil {
			return nil, fmt.Errorf("failed to parse url (%v): %w", v, err)
		}
		sc.Scheme = u.Scheme
		port, err := strconv.Atoi(u.Port())
		if err != nil {
			return nil, fmt.Errorf("failed to parse port (%v): %w", v, err)
		}
		sc.Port = uint64(port)
		sc.IpAddr = u.Hostname()
		sc.ContextPath = u.Path
		scs = append(scs, sc)
	}
	return scs, nil
}
