package events

import (
	"sync"
	"testing"
	"time"
)

func TestSubscribeReceivesMatchingType(t *testing.T) {
	bus := NewBus()

	var mu sync.Mutex
	var received []Event
	done := make(chan struct{}, 1)

	bus.Subscribe(EventSignalUpdate, func(e Event) {
		mu.Lock()
		received = append(received, e)
		mu.Unlock()
		done <- struct{}{}
	})

	bus.PublishSignalUpdate("BTCUSDT", 0.42, 0.7, "BULLISH")

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("subscriber not invoked")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 1 {
		t.Fatalf("got %d events, want 1", len(received))
	}
	if received[0].Data["symbol"] != "BTCUSDT" {
		t.Errorf("symbol = %v", received[0].Data["symbol"])
	}
	if received[0].Timestamp.IsZero() {
		t.Error("timestamp should be set on publish")
	}
}

func TestSubscriberIgnoresOtherTypes(t *testing.T) {
	bus := NewBus()

	called := make(chan struct{}, 1)
	bus.Subscribe(EventTradeExecuted, func(e Event) {
		called <- struct{}{}
	})

	bus.PublishPriceUpdate("ETHUSDT", 3180.25)

	select {
	case <-called:
		t.Fatal("subscriber invoked for wrong event type")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSubscribeAll(t *testing.T) {
	bus := NewBus()

	var count int
	var mu sync.Mutex
	var wg sync.WaitGroup
	wg.Add(2)

	bus.SubscribeAll(func(e Event) {
		mu.Lock()
		count++
		mu.Unlock()
		wg.Done()
	})

	bus.PublishPriceUpdate("BTCUSDT", 67250.50)
	bus.PublishTradeRejected("user-1", "BTCUSDT", []string{"CONFIDENCE_TOO_LOW"})

	waitDone := make(chan struct{})
	go func() { wg.Wait(); close(waitDone) }()

	select {
	case <-waitDone:
	case <-time.After(time.Second):
		t.Fatal("all-event subscriber missed events")
	}

	mu.Lock()
	defer mu.Unlock()
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
}

func TestTradeRejectedCarriesUserAndReasons(t *testing.T) {
	bus := NewBus()

	got := make(chan Event, 1)
	bus.Subscribe(EventTradeRejected, func(e Event) { got <- e })

	bus.PublishTradeRejected("user-7", "SOLUSDT", []string{"POSITION_TOO_LARGE", "SYMBOL_NOT_ALLOWED"})

	select {
	case e := <-got:
		if e.UserID != "user-7" {
			t.Errorf("UserID = %s", e.UserID)
		}
		reasons, ok := e.Data["reasons"].([]string)
		if !ok || len(reasons) != 2 {
			t.Errorf("reasons = %v", e.Data["reasons"])
		}
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}
