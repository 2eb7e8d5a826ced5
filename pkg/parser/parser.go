package parser

import (
	"fmt"
	"path"
	"sort"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/magiconair/properties"
	"github.com/mykube-run/krefresh/pkg/types"
	"gopkg.in/yaml.v3"
)

const (
	YAML       = "yaml"
	JSON       = "json"
	Properties = "properties"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// TypeOf guesses content type from data id extension, defaults to types.DefaultType
func TypeOf(dataId string) string {
	switch strings.ToLower(strings.TrimPrefix(path.Ext(dataId), ".")) {
	case "yaml", "yml":
		return YAML
	case "json":
		return JSON
	case "properties":
		return Properties
	}
	return types.DefaultType
}

// Parse decodes content into a nested map. Empty content yields an empty map.
func Parse(content, typ string) (map[string]interface{}, error) {
	out := make(map[string]interface{})
	if strings.TrimSpace(content) == "" {
		return out, nil
	}

	var err error
	switch strings.ToLower(typ) {
	case YAML, "yml", "":
		err = yaml.Unmarshal([]byte(content), &out)
	case JSON:
		err = json.UnmarshalFromString(content, &out)
	case Properties:
		err = parseProperties(content, out)
	default:
		return nil, fmt.Errorf("unsupported config type: %v", typ)
	}
	if err != nil {
		return nil, fmt.Errorf("error parsing %v content: %w", typ, err)
	}
	return out, nil
}

// Flatten converts a nested map to dotted keys, e.g. {"db": {"addr": "x"}} -> {"db.addr": "x"}.
// Sequence items are keyed as "key[i]".
func Flatten(m map[string]interface{}) map[string]string {
	out := make(map[string]string)
	flatten("", m, out)
	return out
}

// Compare parses both contents and returns the changed keys
func Compare(prev, cur, typ string) (map[string]types.ConfigChangeItem, error) {
	pm, err := Parse(prev, typ)
	if err != nil {
		return nil, err
	}
	cm, err := Parse(cur, typ)
	if err != nil {
		return nil, err
	}
	pf, cf := Flatten(pm), Flatten(cm)

	changes := make(map[string]types.ConfigChangeItem)
	for k, ov := range pf {
		nv, ok := cf[k]
		if !ok {
			changes[k] = types.ConfigChangeItem{Key: k, OldValue: ov, Type: types.Deleted}
			continue
		}
		if nv != ov {
			changes[k] = types.ConfigChangeItem{Key: k, OldValue: ov, NewValue: nv, Type: types.Modified}
		}
	}
	for k, nv := range cf {
		if _, ok := pf[k]; !ok {
			changes[k] = types.ConfigChangeItem{Key: k, NewValue: nv, Type: types.Added}
		}
	}
	return changes, nil
}

// Keys returns sorted keys of changes, handy for logging
func Keys(changes map[string]types.ConfigChangeItem) []string {
	keys := make([]string, 0, len(changes))
	for k := range changes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func flatten(prefix string, v interface{}, out map[string]string) {
	switch vv := v.(type) {
	case map[string]interface{}:
		if len(vv) == 0 && prefix != "" {
			out[prefix] = ""
		}
		for k, child := range vv {
			flatten(join(prefix, k), child, out)
		}
	case map[interface{}]interface{}:
		for k, child := range vv {
			flatten(join(prefix, fmt.Sprint(k)), child, out)
		}
	case []interface{}:
		if len(vv) == 0 {
			out[prefix] = ""
		}
		for i, child := range vv {
			flatten(fmt.Sprintf("%v[%d]", prefix, i), child, out)
		}
	case nil:
		out[prefix] = ""
	default:
		out[prefix] = fmt.Sprint(vv)
	}
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// parseProperties reads Java style properties, dotted keys become nested maps.
// ${} references are kept as is.
func parseProperties(content string, out map[string]interface{}) error {
	l := &properties.Loader{Encoding: properties.UTF8, DisableExpansion: true}
	p, err := l.LoadBytes([]byte(content))
	if err != nil {
		return err
	}
	keys := p.Keys()
	sort.Strings(keys)
	for _, k := range keys {
		v, _ := p.Get(k)
		if err = setPath(out, strings.Split(k, "."), v); err != nil {
			return fmt.Errorf("invalid property %v: %w", k, err)
		}
	}
	return nil
}

func setPath(m map[string]interface{}, keys []string, val string) error {
	for i, k := range keys {
		if i == len(keys)-1 {
			if _, ok := m[k].(map[string]interface{}); ok {
				return fmt.Errorf("key %v conflicts with a nested key", strings.Join(keys, "."))
			}
			m[k] = val
			return nil
		}
		child, ok := m[k]
		if !ok {
			nm := make(map[string]interface{})
			m[k] = nm
			m = nm
			continue
		}
		nm, ok := child.(map[string]interface{})
		if !ok {
			return fmt.Errorf("key %v conflicts with a scalar key", strings.Join(keys[:i+1], "."))
		}
		m = nm
	}
	return nil
}
