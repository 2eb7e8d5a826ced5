package types

// Listener receives DirectChangeEvents for the (group, dataId) it was added for.
type Listener interface {
	ReceiveConfigChange(evt *DirectChangeEvent) error
}

// BroadcastListener receives every BroadcastEvent published in the process.
type BroadcastListener interface {
	OnBroadcast(evt *BroadcastEvent) error
}

// Publisher fans BroadcastEvents out to BroadcastListeners.
type Publisher interface {
	Publish(evt *BroadcastEvent)
}

// ConfigClient is a configuration center client, responsible for reading config
// content and delivering change notifications to listeners.
type ConfigClient interface {
	AddListener(dataId, group string, l Listener) error
	GetConfig(dataId, group string) (string, error)
	Close() error
}

// ConfigClientType specifies config centers that krefresh currently supports.
type ConfigClientType string

const (
	File   ConfigClientType = "file"
	Etcd   ConfigClientType = "etcd" // etcd v3
	Consul ConfigClientType = "consul"
	Nacos  ConfigClientType = "nacos"
)

// Refresher re-reads in-process configuration from its sources.
type Refresher interface {
	Refresh() error
}

// RefreshFunc adapts a plain function to Refresher
type RefreshFunc func() error

func (fn RefreshFunc) Refresh() error {
	return fn()
}
