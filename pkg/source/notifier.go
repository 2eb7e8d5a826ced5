package source

import (
	"fmt"
	"strings"
	"sync"

	"github.com/mykube-run/krefresh/pkg/log"
	"github.com/mykube-run/krefresh/pkg/parser"
	"github.com/mykube-run/krefresh/pkg/types"
	"github.com/mykube-run/krefresh/pkg/utils"
)

// ErrClosed is returned when adding listeners to a closed client
var ErrClosed = fmt.Errorf("config client has been closed")

// notifier keeps listeners and last seen content per key, and turns new
// content into a broadcast followed by direct change events.
type notifier struct {
	lg        log.Logger
	pub       types.Publisher
	namespace string

	mu        sync.RWMutex
	listeners map[string][]types.Listener
	last      map[string]string // key -> last content
	closed    bool
}

func newNotifier(namespace string, pub types.Publisher, lg log.Logger) *notifier {
	if lg == nil {
		lg = log.DefaultLogger
	}
	return &notifier{
		lg:        lg,
		pub:       pub,
		namespace: namespace,
		listeners: make(map[string][]types.Listener),
		last:      make(map[string]string),
	}
}

// add appends l to the key's listeners, first reports whether the key was not listened before
func (n *notifier) add(group, dataId string, l types.Listener) (first bool, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return false, ErrClosed
	}
	k := genKey(group, dataId)
	_, ok := n.listeners[k]
	n.listeners[k] = append(n.listeners[k], l)
	return !ok, nil
}

// remove drops all listeners of key, used when subscribing to the backend failed
func (n *notifier) remove(group, dataId string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	k := genKey(group, dataId)
	delete(n.listeners, k)
	delete(n.last, k)
}

// seed records initial content so that the first change has a meaningful diff
func (n *notifier) seed(group, dataId, content string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.last[genKey(group, dataId)] = content
}

// keys returns all listened (group, dataId) pairs
func (n *notifier) keys() [][2]string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([][2]string, 0, len(n.listeners))
	for k := range n.listeners {
		g, id := splitKey(k)
		out = append(out, [2]string{g, id})
	}
	return out
}

// close marks the notifier closed, returns false if it was already closed
func (n *notifier) close() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return false
	}
	n.closed = true
	return true
}

func (n *notifier) isClosed() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.closed
}

// notify delivers content of (group, dataId). Unchanged content is ignored.
func (n *notifier) notify(group, dataId, content string) {
	k := genKey(group, dataId)

	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		n.lg.Trace("config client has been closed, ignore event")
		return
	}
	prev, seen := n.last[k]
	if seen && prev == content {
		n.mu.Unlock()
		n.lg.Trace(fmt.Sprintf("config %v was not changed and will be ignored", k))
		return
	}
	n.last[k] = content
	ls := make([]types.Listener, len(n.listeners[k]))
	copy(ls, n.listeners[k])
	n.mu.Unlock()

	typ := parser.TypeOf(dataId)
	n.lg.Trace(fmt.Sprintf("namespace: %v, group: %v, dataId: %v, md5: %v", n.namespace, group, dataId, utils.Md5([]byte(content))))

	// Broadcast always goes first
	if n.pub != nil {
		n.pub.Publish(&types.BroadcastEvent{
			Namespace: n.namespace,
			GroupID:   group,
			DataID:    dataId,
			Type:      typ,
			Content:   content,
		})
	}

	changes, err := parser.Compare(prev, content, typ)
	if err != nil {
		n.lg.Warn(fmt.Sprintf("failed to compute changes of %v: %v", k, err))
	} else {
		n.lg.Debug(fmt.Sprintf("config %v changed keys: %v", k, parser.Keys(changes)))
	}
	for _, l := range ls {
		evt := &types.DirectChangeEvent{GroupID: group, DataID: dataId, Changes: changes}
		if err := l.ReceiveConfigChange(evt); err != nil {
			n.lg.Error(fmt.Sprintf("listener failed on %v: %v", evt, err))
		}
	}
}

func genKey(group, key string) string {
	if group != "" {
		key = group + "/" + key
	}
	return key
}

func splitKey(k string) (group, dataId string) {
	if g, id, ok := strings.Cut(k, "/"); ok {
		return g, id
	}
	return "", k
}
