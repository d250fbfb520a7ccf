package events

import (
	"sync"
	"time"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventSignalUpdate      EventType = "SIGNAL_UPDATE"
	EventStrategyGenerated EventType = "STRATEGY_GENERATED"
	EventTradeExecuted     EventType = "TRADE_EXECUTED"
	EventTradeRejected     EventType = "TRADE_REJECTED"
	EventPriceUpdate       EventType = "PRICE_UPDATE"
	EventProfileUpdated    EventType = "PROFILE_UPDATED"
	EventError             EventType = "ERROR"
)

// Event represents a system event
type Event struct {
	Type      EventType              `json:"type"`
	UserID    string                 `json:"userId,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

// Subscriber is a function that handles events
type Subscriber func(Event)

// Bus manages event publishing and subscriptions
type Bus struct {
	mu          sync.RWMutex
	subscribers map[EventType][]Subscriber
	allSubs     []Subscriber
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		subscribers: make(map[EventType][]Subscriber),
		allSubs:     make([]Subscriber, 0),
	}
}

// Subscribe registers a subscriber for a specific event type
func (b *Bus) Subscribe(eventType EventType, subscriber Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.subscribers[eventType] = append(b.subscribers[eventType], subscriber)
}

// SubscribeAll registers a subscriber for all events
func (b *Bus) SubscribeAll(subscriber Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.allSubs = append(b.allSubs, subscriber)
}

// Publish sends an event to all subscribers. Handlers run in their own
// goroutines so a slow subscriber cannot block the publisher.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if subs, ok := b.subscribers[event.Type]; ok {
		for _, sub := range subs {
			go sub(event)
		}
	}

	for _, sub := range b.allSubs {
		go sub(event)
	}
}

// PublishSignalUpdate publishes a freshly aggregated signal for a symbol
func (b *Bus) PublishSignalUpdate(symbol string, compositeScore, compositeConfidence float64, direction string) {
	b.Publish(Event{
		Type: EventSignalUpdate,
		Data: map[string]interface{}{
			"symbol":               symbol,
			"composite_score":      compositeScore,
			"composite_confidence": compositeConfidence,
			"direction":            direction,
		},
	})
}

// PublishStrategyGenerated publishes a strategy generation result for a user
func (b *Bus) PublishStrategyGenerated(userID string, strategyID, name, riskLevel string, allocationCount int) {
	b.Publish(Event{
		Type:   EventStrategyGenerated,
		UserID: userID,
		Data: map[string]interface{}{
			"strategy_id":      strategyID,
			"name":             name,
			"risk_level":       riskLevel,
			"allocation_count": allocationCount,
		},
	})
}

// PublishTradeExecuted publishes a completed trade execution
func (b *Bus) PublishTradeExecuted(userID, symbol, side string, price, quantity float64, orderID int64) {
	b.Publish(Event{
		Type:   EventTradeExecuted,
		UserID: userID,
		Data: map[string]interface{}{
			"symbol":   symbol,
			"side":     side,
			"price":    price,
			"quantity": quantity,
			"order_id": orderID,
		},
	})
}

// PublishTradeRejected publishes a risk-gate rejection with its reasons
func (b *Bus) PublishTradeRejected(userID, symbol string, reasons []string) {
	b.Publish(Event{
		Type:   EventTradeRejected,
		UserID: userID,
		Data: map[string]interface{}{
			"symbol":  symbol,
			"reasons": reasons,
		},
	})
}

// PublishPriceUpdate publishes a price update event
func (b *Bus) PublishPriceUpdate(symbol string, price float64) {
	b.Publish(Event{
		Type: EventPriceUpdate,
		Data: map[string]interface{}{
			"symbol": symbol,
			"price":  price,
		},
	})
}

// PublishProfileUpdated publishes a risk profile change
func (b *Bus) PublishProfileUpdated(userID string, fields []string) {
	b.Publish(Event{
		Type:   EventProfileUpdated,
		UserID: userID,
		Data: map[string]interface{}{
			"updated_fields": fields,
		},
	})
}

// PublishError publishes an error event
func (b *Bus) PublishError(source, message string, err error) {
	data := map[string]interface{}{
		"source":  source,
		"message": message,
	}
	if err != nil {
		data["error"] = err.Error()
	}
	b.Publish(Event{
		Type: EventError,
		Data: data,
	})
}
