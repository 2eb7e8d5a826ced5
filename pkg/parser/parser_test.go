package parser

import (
	"strings"
	"testing"

	"github.com/mykube-run/krefresh/pkg/types"
)

const (
	yaml1 = `
server:
  port: 8080
  host: localhost
features: [a, b]
`
	yaml2 = `
server:
  port: 9090
features: [a, b, c]
timeout: 5s
`
)

func TestTypeOf(t *testing.T) {
	cases := map[string]string{
		"svc-a.yaml":       YAML,
		"svc-a.YML":        YAML,
		"svc-a.json":       JSON,
		"svc-a.properties": Properties,
		"svc-a":            types.DefaultType,
		"svc-a.txt":        types.DefaultType,
	}
	for id, want := range cases {
		if got := TypeOf(id); got != want {
			t.Fatalf("TypeOf(%v): expected %v, got %v", id, want, got)
		}
	}
}

func TestParseAndFlatten(t *testing.T) {
	m, err := Parse(yaml1, YAML)
	if err != nil {
		t.Fatalf("error parsing yaml: %v", err)
	}
	f := Flatten(m)
	if f["server.port"] != "8080" || f["server.host"] != "localhost" {
		t.Fatalf("unexpected flattened yaml: %v", f)
	}
	if f["features[0]"] != "a" || f["features[1]"] != "b" {
		t.Fatalf("unexpected flattened sequence: %v", f)
	}

	m, err = Parse(`{"server": {"port": 8080}, "debug": true}`, JSON)
	if err != nil {
		t.Fatalf("error parsing json: %v", err)
	}
	f = Flatten(m)
	if f["server.port"] != "8080" || f["debug"] != "true" {
		t.Fatalf("unexpected flattened json: %v", f)
	}

	m, err = Parse("# comment\nserver.port=8080\nserver.host: localhost\n\n", Properties)
	if err != nil {
		t.Fatalf("error parsing properties: %v", err)
	}
	f = Flatten(m)
	if f["server.port"] != "8080" || f["server.host"] != "localhost" {
		t.Fatalf("unexpected flattened properties: %v", f)
	}
}

func TestParseErrors(t *testing.T) {
	if _, err := Parse("a: [", YAML); err == nil {
		t.Fatalf("expected yaml error")
	}
	if _, err := Parse("{", JSON); err == nil {
		t.Fatalf("expected json error")
	}
	if _, err := Parse("a.b=1\na=2", Properties); err == nil {
		t.Fatalf("expected conflicting properties error")
	}
	if _, err := Parse("a=1", "xml"); err == nil {
		t.Fatalf("expected unsupported type error")
	}
	m, err := Parse("   ", JSON)
	if err != nil || len(m) != 0 {
		t.Fatalf("blank content should parse to an empty map, got %v, %v", m, err)
	}
}

func TestCompare(t *testing.T) {
	changes, err := Compare(yaml1, yaml2, YAML)
	if err != nil {
		t.Fatalf("error comparing: %v", err)
	}
	expect := map[string]types.PropertyChangeType{
		"server.port": types.Modified,
		"server.host": types.Deleted,
		"features[2]": types.Added,
		"timeout":     types.Added,
	}
	if len(changes) != len(expect) {
		t.Fatalf("expected %v changes, got %v", len(expect), Keys(changes))
	}
	for k, typ := range expect {
		c, ok := changes[k]
		if !ok {
			t.Fatalf("missing change for %v", k)
		}
		if c.Type != typ {
			t.Fatalf("change type of %v: expected %v, got %v", k, typ, c.Type)
		}
	}
	if c := changes["server.port"]; c.OldValue != "8080" || c.NewValue != "9090" {
		t.Fatalf("unexpected modified item: %+v", c)
	}
}

func TestCompareFromEmpty(t *testing.T) {
	changes, err := Compare("", "a: 1\nb: 2", YAML)
	if err != nil {
		t.Fatalf("error comparing: %v", err)
	}
	if len(changes) != 2 || changes["a"].Type != types.Added {
		t.Fatalf("everything should be added: %v", changes)
	}

	changes, err = Compare("a: 1", "a: 1", YAML)
	if err != nil || len(changes) != 0 {
		t.Fatalf("identical content should produce no change, got %v, %v", changes, err)
	}
}

func TestParseJavaProperties(t *testing.T) {
	content := "! comment\n" +
		"db.url=jdbc:mysql://h\\\n  :3306/db\n" +
		"key\\:x=1\n" +
		"a b\n" +
		"path = ${HOME}/data\n"
	m, err := Parse(content, Properties)
	if err != nil {
		t.Fatalf("error parsing properties: %v", err)
	}
	f := Flatten(m)
	expect := map[string]string{
		"db.url": "jdbc:mysql://h:3306/db",
		"key:x":  "1",
		"a":      "b",
		"path":   "${HOME}/data",
	}
	for k, v := range expect {
		if f[k] != v {
			t.Fatalf("%v: expected %q, got %q (%v)", k, v, f[k], f)
		}
	}

	changes, err := Compare(content, strings.Replace(content, "a b", "a c", 1), Properties)
	if err != nil {
		t.Fatalf("error comparing properties: %v", err)
	}
	if len(changes) != 1 || changes["a"].NewValue != "c" || changes["a"].Type != types.Modified {
		t.Fatalf("unexpected changes: %v", changes)
	}
}
