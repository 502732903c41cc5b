package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/edgefoundry/tag-runtime/engine"
	"github.com/edgefoundry/tag-runtime/registry"
	"github.com/edgefoundry/tag-runtime/tag"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "events.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func TestRecordsAndQueries(t *testing.T) {
	j := openTestJournal(t)

	base := time.Now()
	for i, typ := range []tag.EventType{tag.EventCreating, tag.EventReady, tag.EventRead} {
		j.OnTagEvent(tag.Event{
			At:      base.Add(time.Duration(i) * time.Millisecond),
			Key:     "plc1/Motor1",
			Type:    typ,
			Elapsed: 500 * time.Microsecond,
		})
	}
	j.OnTagEvent(tag.Event{
		At:   base.Add(time.Second),
		Key:  "plc1/Motor2",
		Type: tag.EventFaulted,
		Code: -3,
	})
	j.Flush()

	recent, err := j.Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 4 {
		t.Fatalf("recent rows = %d, want 4", len(recent))
	}
	if recent[0].Key != "plc1/Motor2" || recent[0].Code != -3 {
		t.Fatalf("newest row = %+v, want Motor2 fault", recent[0])
	}

	byKey, err := j.ByKey("plc1/Motor1", 10)
	if err != nil {
		t.Fatalf("ByKey: %v", err)
	}
	if len(byKey) != 3 {
		t.Fatalf("Motor1 rows = %d, want 3", len(byKey))
	}
	if byKey[0].Type != "read" {
		t.Fatalf("newest Motor1 row type = %q, want read", byKey[0].Type)
	}
	for _, r := range byKey {
		if r.ID == "" {
			t.Fatal("row without id")
		}
	}
}

func TestObservesRegistryTraffic(t *testing.T) {
	j := openTestJournal(t)

	sim := engine.NewSim()
	reg := registry.New(sim, registry.Options{
		Entry: tag.Options{
			PollInterval:  time.Millisecond,
			CreateTimeout: time.Second,
			OpTimeout:     time.Second,
		},
		Observers: []tag.Observer{j},
	})
	defer reg.Close()

	ctx := context.Background()
	ref, err := reg.GetOrCreate(ctx, "plc1/Motor1", "elem_size=4&sim_latency=1ms")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if err := ref.Entry().Read(ctx, 0); err != nil {
		t.Fatalf("Read: %v", err)
	}
	ref.Close()
	j.Flush()

	rows, err := j.ByKey("plc1/Motor1", 10)
	if err != nil {
		t.Fatalf("ByKey: %v", err)
	}
	types := make(map[string]bool)
	for _, r := range rows {
		types[r.Type] = true
	}
	for _, want := range []string{"creating", "ready", "read"} {
		if !types[want] {
			t.Fatalf("journal rows %v missing %q", rows, want)
		}
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	j, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := j.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := j.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	// Late events are dropped, not a panic.
	j.OnTagEvent(tag.Event{Key: "plc1/Late", Type: tag.EventRead})
}
