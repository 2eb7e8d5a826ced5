package types

import "fmt"

// Channel names the notification channel an event was delivered through
type Channel string

const (
	// ChannelBroadcast is delivered for every config the process receives
	ChannelBroadcast Channel = "broadcast"
	// ChannelDirect is delivered to listeners registered for one (group, dataId)
	ChannelDirect Channel = "direct"
)

// ChangeEvent is either a *BroadcastEvent or a *DirectChangeEvent.
type ChangeEvent interface {
	Channel() Channel
	GetDataID() string
	isChangeEvent()
}

// BroadcastEvent is published for every received configuration, whether or not
// anyone asked for it. It always arrives before the DirectChangeEvent of the same update.
type BroadcastEvent struct {
	Namespace string
	GroupID   string
	DataID    string
	Type      string
	Content   string
}

func (e *BroadcastEvent) Channel() Channel  { return ChannelBroadcast }
func (e *BroadcastEvent) GetDataID() string { return e.DataID }
func (e *BroadcastEvent) isChangeEvent()    {}

func (e *BroadcastEvent) String() string {
	return fmt.Sprintf("broadcast[%v:%v:%v]", e.GroupID, e.DataID, e.Type)
}

// DirectChangeEvent is delivered to a listener registered against a specific
// (group, dataId), carrying key level differences between previous and current content.
type DirectChangeEvent struct {
	GroupID string
	DataID  string
	Changes map[string]ConfigChangeItem
}

func (e *DirectChangeEvent) Channel() Channel  { return ChannelDirect }
func (e *DirectChangeEvent) GetDataID() string { return e.DataID }
func (e *DirectChangeEvent) isChangeEvent()    {}

func (e *DirectChangeEvent) String() string {
	return fmt.Sprintf("direct[%v:%v], changes: %v", e.GroupID, e.DataID, len(e.Changes))
}

// PropertyChangeType is the kind of change applied to a single key
type PropertyChangeType int

const (
	Added PropertyChangeType = iota
	Modified
	Deleted
)

func (t PropertyChangeType) String() string {
	switch t {
	case Added:
		return "ADDED"
	case Modified:
		return "MODIFIED"
	case Deleted:
		return "DELETED"
	}
	return "UNKNOWN"
}

// ConfigChangeItem describes how one flattened key changed
type ConfigChangeItem struct {
	Key      string
	OldValue string
	NewValue string
	Type     PropertyChangeType
}
