package events

import "sync"

// EventType represents the type of event
type EventType string

// Define event types
const (
	EventStateChanged      EventType = "STATE_CHANGED"
	EventNotice            EventType = "NOTICE"
	EventConnectionChanged EventType = "CONNECTION_CHANGED"

	allEvents EventType = "*"
)

// Event represents an event in the system
type Event struct {
	Type    EventType
	GameID  string // Optional, can be empty for non-game events
	Payload interface{}
}

// Handler is a function that processes events
type Handler func(event Event)

type subscription struct {
	id      uint64
	handler Handler
}

// Publisher is the central event publisher. Handlers run synchronously on the
// publishing goroutine, in subscription order, so they observe events in the
// order they happened and must not block.
type Publisher struct {
	mu          sync.RWMutex
	nextID      uint64
	subscribers map[EventType][]subscription
}

// NewPublisher creates a new event publisher
func NewPublisher() *Publisher {
	return &Publisher{
		subscribers: make(map[EventType][]subscription),
	}
}

// Subscribe registers a handler for a specific event type. The returned
// function removes it again.
func (p *Publisher) Subscribe(eventType EventType, handler Handler) func() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.nextID++
	id := p.nextID
	p.subscribers[eventType] = append(p.subscribers[eventType], subscription{id: id, handler: handler})

	return func() { p.unsubscribe(eventType, id) }
}

// SubscribeAll registers a handler for all event types
func (p *Publisher) SubscribeAll(handler Handler) func() {
	return p.Subscribe(allEvents, handler)
}

// Publish broadcasts an event to all subscribers including "all events" handlers
func (p *Publisher) Publish(event Event) {
	p.mu.RLock()
	handlers := make([]Handler, 0, len(p.subscribers[event.Type])+len(p.subscribers[allEvents]))
	for _, s := range p.subscribers[event.Type] {
		handlers = append(handlers, s.handler)
	}
	for _, s := range p.subscribers[allEvents] {
		handlers = append(handlers, s.handler)
	}
	p.mu.RUnlock()

	for _, handler := range handlers {
		handler(event)
	}
}

func (p *Publisher) unsubscribe(eventType EventType, id uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	subs := p.subscribers[eventType]
	for i, s := range subs {
		if s.id == id {
			p.subscribers[eventType] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}
