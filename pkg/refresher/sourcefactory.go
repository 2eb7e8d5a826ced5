package refresher

import (
	"fmt"

	"github.com/mykube-run/krefresh/pkg/source"
	"github.com/mykube-run/krefresh/pkg/types"
)

// NewConfigClient creates the config client selected by opt.Type, broadcasting to pub
func NewConfigClient(opt *BootstrapOption, pub types.Publisher) (types.ConfigClient, error) {
	if len(opt.Addrs) == 0 {
		return nil, fmt.Errorf("config center address not provided")
	}
	switch opt.Type {
	case types.File:
		return source.NewFileClient(opt.Addrs[0], pub, opt.Logger)
	case types.Consul:
		return source.NewConsulClient(opt.Addrs[0], pub, opt.Logger)
	case types.Etcd:
		return source.NewEtcdClient(opt.Addrs, pub, opt.Logger)
	case types.Nacos:
		return source.NewNacosClient(opt.Addrs, opt.Namespace, pub, opt.Logger)
	default:
		return nil, fmt.Errorf("unsupported config center type: %v", opt.Type)
	}
}
