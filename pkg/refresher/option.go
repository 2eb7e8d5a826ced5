package refresher

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mykube-run/krefresh/pkg/log"
	"github.com/mykube-run/krefresh/pkg/types"
	"github.com/mykube-run/krefresh/pkg/utils"
)

// BootstrapOption specifies the config center to connect and the resources to watch.
type BootstrapOption struct {
	Type      types.ConfigClientType
	Addrs     []string
	Namespace string
	Group     string
	AppName   string
	Templates []string // data id templates, "{}" is replaced by AppName
	DataIds   []string
	// AsyncBroadcast delivers broadcast events on a goroutine pool of this size, 0 means synchronously
	AsyncBroadcast int
	Logger         log.Logger
}

// NewBootstrapOption initializes a bootstrap option
func NewBootstrapOption() *BootstrapOption {
	return &BootstrapOption{
		Group:  types.DefaultGroup,
		Logger: log.DefaultLogger,
	}
}

// NewBootstrapOptionFromEnvFlag reads options from command line flags, falling back to environment variables
func NewBootstrapOptionFromEnvFlag() *BootstrapOption {
	opt := NewBootstrapOption()
	opt.parseEnvFlags(os.Args[1:])
	return opt
}

// WithType specifies config center type
func (opt *BootstrapOption) WithType(typ types.ConfigClientType) *BootstrapOption {
	opt.Type = typ
	return opt
}

// WithAddr adds an address to the option. For file config centers this is the root directory.
func (opt *BootstrapOption) WithAddr(addr string) *BootstrapOption {
	opt.Addrs = append(opt.Addrs, addr)
	return opt
}

// WithAddrs replaces option's addrs with given value
func (opt *BootstrapOption) WithAddrs(addrs []string) *BootstrapOption {
	opt.Addrs = addrs
	return opt
}

// WithNamespace specifies config namespace (nacos only)
func (opt *BootstrapOption) WithNamespace(ns string) *BootstrapOption {
	opt.Namespace = ns
	return opt
}

// WithGroup specifies config group
func (opt *BootstrapOption) WithGroup(group string) *BootstrapOption {
	opt.Group = group
	return opt
}

// WithAppName specifies the application name used to resolve templates
func (opt *BootstrapOption) WithAppName(name string) *BootstrapOption {
	opt.AppName = name
	return opt
}

// WithTemplate adds a data id template, e.g. "{}-dynamic.yaml"
func (opt *BootstrapOption) WithTemplate(tpl string) *BootstrapOption {
	opt.Templates = append(opt.Templates, tpl)
	return opt
}

// WithDataId adds a plain data id
func (opt *BootstrapOption) WithDataId(id string) *BootstrapOption {
	opt.DataIds = append(opt.DataIds, id)
	return opt
}

// WithAsyncBroadcast delivers broadcast events on a goroutine pool of given size
func (opt *BootstrapOption) WithAsyncBroadcast(size int) *BootstrapOption {
	opt.AsyncBroadcast = size
	return opt
}

// WithLogger specifies a custom logger to the option
func (opt *BootstrapOption) WithLogger(lg log.Logger) *BootstrapOption {
	opt.Logger = lg
	return opt
}

// Environment returns the Environment templates are resolved against
func (opt *BootstrapOption) Environment() Environment {
	return PropertyMap{AppKey: opt.AppName}
}

// Registration returns a StaticRegistration of the configured templates and data ids
func (opt *BootstrapOption) Registration() Registration {
	return StaticRegistration{
		Group:     opt.Group,
		Templates: opt.Templates,
		DataIds:   opt.DataIds,
	}
}

// Validate checks option values
func (opt *BootstrapOption) Validate() error {
	if opt.Type == "" {
		return fmt.Errorf("config center type not provided")
	}
	switch opt.Type {
	case types.File, types.Consul, types.Etcd, types.Nacos:
	default:
		return fmt.Errorf("unsupported config center type: %v", opt.Type)
	}
	if len(opt.Addrs) == 0 {
		return fmt.Errorf("config center address not provided")
	}
	if len(opt.Templates) == 0 && len(opt.DataIds) == 0 {
		return fmt.Errorf("neither data id nor data id template provided")
	}
	if opt.AsyncBroadcast < 0 {
		return fmt.Errorf("invalid async broadcast pool size: %v", opt.AsyncBroadcast)
	}
	return nil
}

func (opt *BootstrapOption) parseEnvFlags(args []string) {
	fs := flag.NewFlagSet("krefresh", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var (
		typ       = fs.String("krefresh-type", "", "Config center type. Available options: file, etcd, consul, nacos.")
		ip        = fs.String("krefresh-ip", "", "Config center ip, optional.")
		port      = fs.String("krefresh-port", "", "Config center port, only required when krefresh-ip is provided.")
		addr      = fs.String("krefresh-addr", "", "Config center address, multiple addresses can be given comma separated, e.g. 'ip1:8848,ip2:8848'.")
		namespace = fs.String("krefresh-namespace", "", "Config center namespace, optional.")
		group     = fs.String("krefresh-group", "", "Config group, defaults to DEFAULT_GROUP.")
		app       = fs.String("krefresh-app-name", "", "Application name, used to resolve data id templates.")
		templates = fs.String("krefresh-templates", "", "Comma separated data id templates, e.g. '{}-dynamic.yaml'.")
		dataIds   = fs.String("krefresh-data-ids", "", "Comma separated data ids.")
		async     = fs.String("krefresh-async", "", "Broadcast goroutine pool size, 0 for synchronous broadcast.")
	)
	// Only krefresh flags are parsed, everything else belongs to the application
	_ = fs.Parse(ownFlags(args))

	env := func(v *string, key string) string {
		return utils.If(*v != "", *v, os.Getenv(key)).(string)
	}
	otyp := env(typ, "KREFRESH_TYPE")
	oip := env(ip, "KREFRESH_IP")
	oport := env(port, "KREFRESH_PORT")
	oaddr := env(addr, "KREFRESH_ADDR")
	ons := env(namespace, "KREFRESH_NAMESPACE")
	ogroup := env(group, "KREFRESH_GROUP")
	oapp := env(app, "KREFRESH_APP_NAME")
	otpl := env(templates, "KREFRESH_TEMPLATES")
	oids := env(dataIds, "KREFRESH_DATA_IDS")
	oasync := env(async, "KREFRESH_ASYNC")

	opt.Type = types.ConfigClientType(otyp)
	opt.Namespace = ons
	if ogroup != "" {
		opt.Group = ogroup
	}
	opt.AppName = oapp
	opt.Templates = utils.ParseCommaSeparated(otpl)
	opt.DataIds = utils.ParseCommaSeparated(oids)
	if n, err := strconv.Atoi(oasync); err == nil && n > 0 {
		opt.AsyncBroadcast = n
	}
	addrs := utils.ParseCommaSeparated(oaddr)
	if len(addrs) == 0 && oip != "" {
		addrs = append(addrs, fmt.Sprintf("%v:%v", oip, oport))
	}
	opt.Addrs = addrs
}

// ownFlags picks "--krefresh-*" flags and their values out of args. All krefresh flags
// take a value, given either as "--krefresh-x=v" or as the next argument.
func ownFlags(args []string) []string {
	out := make([]string, 0)
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			break
		}
		name := strings.TrimLeft(a, "-")
		if name == a || !strings.HasPrefix(name, "krefresh-") {
			continue
		}
		out = append(out, a)
		if !strings.Contains(name, "=") && i+1 < len(args) {
			out = append(out, args[i+1])
			i++
		}
	}
	return out
}
