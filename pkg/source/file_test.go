package source

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mykube-run/krefresh/pkg/types"
)

func waitChange(t *testing.T, c chan *types.DirectChangeEvent, key, value string) *types.DirectChangeEvent {
	t.Helper()
	timeout := time.After(time.Second * 5)
	for {
		select {
		case evt := <-c:
			// Writes may be observed in several steps (truncate, then write)
			if evt.Changes[key].NewValue == value {
				return evt
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %v=%v", key, value)
			return nil
		}
	}
}

func TestFile_AddListener(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "biz"), 0755); err != nil {
		t.Fatalf("error creating group directory: %v", err)
	}
	p := filepath.Join(dir, "svc-a.yaml")
	if err := os.WriteFile(p, []byte("a: 1\n"), 0644); err != nil {
		t.Fatalf("error writing config: %v", err)
	}

	pub := &publisher{}
	s, err := NewFileClient(dir, pub, nil)
	if err != nil {
		t.Fatalf("error creating file client: %v", err)
	}
	defer func() { _ = s.Close() }()

	r := &recorder{c: make(chan *types.DirectChangeEvent, 16)}
	if err = s.AddListener("svc-a.yaml", types.DefaultGroup, r); err != nil {
		t.Fatalf("error adding listener: %v", err)
	}
	r2 := &recorder{c: make(chan *types.DirectChangeEvent, 16)}
	if err = s.AddListener("svc-b.yaml", "biz", r2); err != nil {
		t.Fatalf("error adding listener in group: %v", err)
	}

	if err = os.WriteFile(p, []byte("a: 2\n"), 0644); err != nil {
		t.Fatalf("error writing config: %v", err)
	}
	evt := waitChange(t, r.c, "a", "2")
	if evt.DataID != "svc-a.yaml" || evt.GroupID != types.DefaultGroup {
		t.Fatalf("unexpected event: %v", evt)
	}

	// Created after the listener was added
	if err = os.WriteFile(filepath.Join(dir, "biz", "svc-b.yaml"), []byte("b: 1\n"), 0644); err != nil {
		t.Fatalf("error writing config: %v", err)
	}
	evt = waitChange(t, r2.c, "b", "1")
	if evt.GroupID != "biz" {
		t.Fatalf("unexpected event: %v", evt)
	}

	v, err := s.GetConfig("svc-b.yaml", "biz")
	if err != nil || v != "b: 1\n" {
		t.Fatalf("unexpected config: %q, %v", v, err)
	}
	if pub.count() == 0 {
		t.Fatalf("changes should be broadcast")
	}
}

func TestFile_Errors(t *testing.T) {
	if _, err := NewFileClient(filepath.Join(t.TempDir(), "missing"), nil, nil); err == nil {
		t.Fatalf("expected error on missing directory")
	}

	s, err := NewFileClient(t.TempDir(), nil, nil)
	if err != nil {
		t.Fatalf("error creating file client: %v", err)
	}
	if _, err = s.GetConfig("missing.yaml", ""); err == nil {
		t.Fatalf("expected error reading missing config")
	}
	if err = s.AddListener("svc-a.yaml", "missing-group", &recorder{}); err == nil {
		t.Fatalf("expected error watching a missing group directory")
	}
	if err = s.Close(); err != nil {
		t.Fatalf("error closing: %v", err)
	}
	if err = s.Close(); err != nil {
		t.Fatalf("closing twice should be a no-op: %v", err)
	}
}
