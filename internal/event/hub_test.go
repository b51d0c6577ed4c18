package event

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacquetc/qleany-sub001/internal/model"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	h := NewHub()
	t.Cleanup(h.Stop)
	return h
}

func TestOrigin_String(t *testing.T) {
	assert.Equal(t, "direct_access/entity/created", DirectAccess(model.KindEntity, Created).String())
	assert.Equal(t, "direct_access/all/reset", AllReset().String())
	assert.Equal(t, "handling_manifest/loaded", HandlingManifest(Loaded).String())
}

func TestRelationshipData(t *testing.T) {
	assert.Equal(t, "fields:1,2,3", RelationshipData("fields", []model.EntityID{1, 2, 3}))
	assert.Equal(t, "fields:", RelationshipData("fields", nil))
}

func TestHub_FlushPreservesOrder(t *testing.T) {
	h := newTestHub(t)

	for i := 1; i <= 100; i++ {
		h.Publish(Event{Origin: DirectAccess(model.KindField, Created), IDs: []model.EntityID{model.EntityID(i)}})
	}
	h.Flush()

	events := h.Take()
	require.Len(t, events, 100)
	for i, e := range events {
		assert.Equal(t, model.EntityID(i+1), e.IDs[0])
	}
	assert.Empty(t, h.Take(), "Take clears the shared slice")
}

func TestHub_ConsumerMovesEventsInBackground(t *testing.T) {
	h := newTestHub(t)
	h.Publish(Event{Origin: HandlingManifest(Saved)})

	require.Eventually(t, func() bool {
		h.mu.Lock()
		defer h.mu.Unlock()
		return len(h.pending) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestHub_StopDrainsAndDropsLatePublishes(t *testing.T) {
	h := NewHub()
	h.Publish(Event{Origin: UndoRedo(Undone)})
	h.Stop()
	h.Stop()

	assert.True(t, h.Stopped())
	assert.Len(t, h.Take(), 1)

	h.Publish(Event{Origin: UndoRedo(Redone)})
	h.Flush()
	assert.Empty(t, h.Take())
}

func TestHub_ConcurrentPublishers(t *testing.T) {
	h := newTestHub(t)

	var wg sync.WaitGroup
	for p := 0; p < 8; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				h.Publish(Event{Origin: DirectAccess(model.KindFile, Updated)})
			}
		}()
	}
	wg.Wait()
	h.Flush()

	assert.Len(t, h.Take(), 400)
}

func TestDispatcher_RoutesByOrigin(t *testing.T) {
	h := newTestHub(t)
	d := NewDispatcher(h, 0)

	var created, all []Event
	d.Subscribe(DirectAccess(model.KindEntity, Created), func(e Event) { created = append(created, e) })
	d.SubscribeAll(func(e Event) { all = append(all, e) })

	h.Publish(Event{Origin: DirectAccess(model.KindEntity, Created), IDs: []model.EntityID{1}})
	h.Publish(Event{Origin: DirectAccess(model.KindEntity, Removed), IDs: []model.EntityID{1}})
	h.Flush()

	assert.Equal(t, 2, d.Dispatch())
	require.Len(t, created, 1)
	assert.Equal(t, []model.EntityID{1}, created[0].IDs)
	assert.Len(t, all, 2)
}

func TestDispatcher_Unsubscribe(t *testing.T) {
	h := newTestHub(t)
	d := NewDispatcher(h, 0)

	calls := 0
	unsubscribe := d.Subscribe(AllReset(), func(Event) { calls++ })
	unsubscribe()

	h.Publish(Event{Origin: AllReset()})
	h.Flush()
	d.Dispatch()
	assert.Zero(t, calls)
}

func TestDispatcher_LateSubscriberSeesOnlyFutureEvents(t *testing.T) {
	h := newTestHub(t)
	d := NewDispatcher(h, 0)

	h.Publish(Event{Origin: HandlingManifest(Loaded)})
	h.Flush()
	d.Dispatch()

	var seen []Origin
	d.SubscribeAll(func(e Event) { seen = append(seen, e.Origin) })

	h.Publish(Event{Origin: HandlingManifest(Closed)})
	h.Flush()
	d.Dispatch()

	assert.Equal(t, []Origin{HandlingManifest(Closed)}, seen)
}

func TestDispatcher_RunStopsOnContext(t *testing.T) {
	h := newTestHub(t)
	d := NewDispatcher(h, 5*time.Millisecond)

	got := make(chan Event, 1)
	d.Subscribe(LongOperation(Finished), func(e Event) { got <- e })

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- d.Run(ctx) }()

	h.Publish(Event{Origin: LongOperation(Finished), Data: "op-1"})

	select {
	case e := <-got:
		assert.Equal(t, "op-1", e.Data)
	case <-time.After(2 * time.Second):
		t.Fatal("event was not dispatched")
	}

	cancel()
	assert.ErrorIs(t, <-errc, context.Canceled)
}
