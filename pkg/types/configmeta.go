package types

import "fmt"

const (
	// DefaultGroup is the group used when none is given
	DefaultGroup = "DEFAULT_GROUP"
	// DefaultType is the content format assumed for watched resources
	DefaultType = "yaml"
)

// ConfigMeta identifies one watched configuration resource. It is a comparable
// value and two metas are the same resource iff all three fields are equal.
type ConfigMeta struct {
	GroupID string
	DataID  string
	Type    string
}

// NewConfigMeta creates a ConfigMeta, empty group and type fall back to DefaultGroup and DefaultType
func NewConfigMeta(group, dataId, typ string) ConfigMeta {
	if group == "" {
		group = DefaultGroup
	}
	if typ == "" {
		typ = DefaultType
	}
	return ConfigMeta{GroupID: group, DataID: dataId, Type: typ}
}

// Key returns "group/dataId", used as cache key
func (m ConfigMeta) Key() string {
	return m.GroupID + "/" + m.DataID
}

func (m ConfigMeta) String() string {
	return fmt.Sprintf("[%v:%v:%v]", m.GroupID, m.DataID, m.Type)
}
