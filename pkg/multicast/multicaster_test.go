package multicast

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/mykube-run/krefresh/pkg/types"
)

type recorder struct {
	mu   sync.Mutex
	got  []string
	err  error
	done chan struct{}
}

func (r *recorder) OnBroadcast(evt *types.BroadcastEvent) error {
	r.mu.Lock()
	r.got = append(r.got, evt.DataID)
	r.mu.Unlock()
	if r.done != nil {
		r.done <- struct{}{}
	}
	return r.err
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.got)
}

func TestMulticaster_Publish(t *testing.T) {
	m := New(nil)
	r1, r2 := &recorder{}, &recorder{err: fmt.Errorf("designed error")}
	m.Subscribe(r1)
	m.Subscribe(r2)

	m.Publish(&types.BroadcastEvent{DataID: "a.yaml"})
	m.Publish(&types.BroadcastEvent{DataID: "b.yaml"})

	if r1.count() != 2 || r2.count() != 2 {
		t.Fatalf("every listener should receive every event, got %v and %v", r1.got, r2.got)
	}
	if r1.got[0] != "a.yaml" || r1.got[1] != "b.yaml" {
		t.Fatalf("synchronous delivery should keep publish order: %v", r1.got)
	}
}

func TestMulticaster_PublishWithoutListeners(t *testing.T) {
	m := New(nil)
	m.Publish(&types.BroadcastEvent{DataID: "a.yaml"})
}

func TestMulticaster_Async(t *testing.T) {
	m, err := NewAsync(4, nil)
	if err != nil {
		t.Fatalf("error creating async multicaster: %v", err)
	}
	defer func() { _ = m.Close() }()

	r := &recorder{done: make(chan struct{}, 8)}
	m.Subscribe(r)
	for i := 0; i < 8; i++ {
		m.Publish(&types.BroadcastEvent{DataID: fmt.Sprintf("%d.yaml", i)})
	}
	for i := 0; i < 8; i++ {
		select {
		case <-r.done:
		case <-time.After(time.Second * 2):
			t.Fatalf("timed out waiting for event %d", i)
		}
	}
	if r.count() != 8 {
		t.Fatalf("expected 8 events, got %v", r.count())
	}
}
