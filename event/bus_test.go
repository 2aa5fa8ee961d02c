package event_test

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/nicholidev/eco-mentor/event"
)

type testEvent struct {
	kind string
	n    int
}

func (e testEvent) Kind() string { return e.kind }

func TestBus_PublishReachesSubscribers(t *testing.T) {
	t.Parallel()
	b := event.NewBus(slog.Default())

	var got []int
	b.Subscribe("product-changed", func(_ context.Context, evt event.Event) {
		got = append(got, evt.(testEvent).n)
	})
	b.Subscribe("product-changed", func(_ context.Context, evt event.Event) {
		got = append(got, evt.(testEvent).n*10)
	})

	b.Publish(context.Background(), testEvent{kind: "product-changed", n: 7})

	if len(got) != 2 || got[0] != 7 || got[1] != 70 {
		t.Fatalf("handlers saw %v, want [7 70]", got)
	}
}

func TestBus_KindIsolation(t *testing.T) {
	t.Parallel()
	b := event.NewBus(slog.Default())

	called := false
	b.Subscribe("tax-rate-changed", func(_ context.Context, _ event.Event) {
		called = true
	})

	b.Publish(context.Background(), testEvent{kind: "product-changed"})

	if called {
		t.Fatal("handler for a different kind was invoked")
	}
}

func TestBus_PanickingHandlerDoesNotStopOthers(t *testing.T) {
	t.Parallel()
	b := event.NewBus(slog.Default())

	b.Subscribe("collection-modified", func(_ context.Context, _ event.Event) {
		panic("handler bug")
	})
	reached := false
	b.Subscribe("collection-modified", func(_ context.Context, _ event.Event) {
		reached = true
	})

	b.Publish(context.Background(), testEvent{kind: "collection-modified"})

	if !reached {
		t.Fatal("handler after panicking one was not invoked")
	}
}

func TestBus_ConcurrentPublish(t *testing.T) {
	t.Parallel()
	b := event.NewBus(slog.Default())

	var mu sync.Mutex
	count := 0
	b.Subscribe("variant-changed", func(_ context.Context, _ event.Event) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.Publish(context.Background(), testEvent{kind: "variant-changed"})
		}()
	}
	wg.Wait()

	if count != 50 {
		t.Fatalf("handler ran %d times, want 50", count)
	}
}

func TestBus_SubscriberCount(t *testing.T) {
	t.Parallel()
	b := event.NewBus(slog.Default())

	if got := b.SubscriberCount("none"); got != 0 {
		t.Errorf("SubscriberCount(none) = %d, want 0", got)
	}
	b.Subscribe("x", func(_ context.Context, _ event.Event) {})
	b.Subscribe("x", func(_ context.Context, _ event.Event) {})
	if got := b.SubscriberCount("x"); got != 2 {
		t.Errorf("SubscriberCount(x) = %d, want 2", got)
	}
}
