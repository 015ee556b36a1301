package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"dormitory/constants"
	"dormitory/services/cache"
	"dormitory/services/logger"
	"dormitory/services/notification"
)

// DomainEvent is published once per committed mutation.
type DomainEvent struct {
	Name        string
	BookingID   uint
	StudentID   uint
	RoomNumbers []string
	// Domains lists the cache domains the mutation made stale.
	Domains []string
	// Channels lists the notification channels that should hear about it.
	Channels   []string
	Payload    interface{}
	OccurredAt time.Time
}

// EventHandler reacts to a committed mutation. Its failure never reaches the caller.
type EventHandler interface {
	Handle(ctx context.Context, evt DomainEvent) error
}

type EventHandlerFunc func(ctx context.Context, evt DomainEvent) error

func (f EventHandlerFunc) Handle(ctx context.Context, evt DomainEvent) error {
	return f(ctx, evt)
}

type namedHandler struct {
	name    string
	handler EventHandler
}

// EventBus fans events out to handlers on their own goroutines.
type EventBus struct {
	logger   logger.Logger
	timeout  time.Duration
	mu       sync.RWMutex
	handlers []namedHandler
	wg       sync.WaitGroup
}

func NewEventBus(log logger.Logger, timeout time.Duration) *EventBus {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &EventBus{logger: log, timeout: timeout}
}

func (b *EventBus) Subscribe(name string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, namedHandler{name: name, handler: handler})
}

// Publish returns immediately.
func (b *EventBus) Publish(evt DomainEvent) {
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now()
	}

	b.mu.RLock()
	handlers := make([]namedHandler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	for _, h := range handlers {
		b.wg.Add(1)
		go b.dispatch(h, evt)
	}
}

func (b *EventBus) dispatch(h namedHandler, evt DomainEvent) {
	defer b.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler %s panicked on %s: %v", h.name, evt.Name, r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()

	if err := h.handler.Handle(ctx, evt); err != nil {
		b.logger.Warn("event handler %s failed on %s: %v", h.name, evt.Name, err)
	}
}

// Wait blocks until every dispatched handler has returned.
func (b *EventBus) Wait() {
	b.wg.Wait()
}

// CacheInvalidationHandler drops cache entries made stale by an event.
type CacheInvalidationHandler struct {
	cache cache.Invalidator
}

func NewCacheInvalidationHandler(c cache.Invalidator) *CacheInvalidationHandler {
	return &CacheInvalidationHandler{cache: c}
}

func (h *CacheInvalidationHandler) Handle(ctx context.Context, evt DomainEvent) error {
	var errs []error
	for _, domain := range evt.Domains {
		for _, scope := range invalidationScopes(domain, evt) {
			if err := h.cache.Invalidate(ctx, domain, scope); err != nil {
				errs = append(errs, fmt.Errorf("invalidate %s:%s: %w", domain, scope, err))
			}
		}
	}
	return errors.Join(errs...)
}

func invalidationScopes(domain string, evt DomainEvent) []string {
	switch domain {
	case constants.CacheDomainRooms:
		if len(evt.RoomNumbers) == 0 {
			return []string{""}
		}
		return evt.RoomNumbers
	case constants.CacheDomainBookings:
		if evt.StudentID == 0 {
			return []string{""}
		}
		return []string{studentScope(evt.StudentID)}
	case constants.CacheDomainUsers:
		if evt.StudentID == 0 {
			return []string{""}
		}
		return []string{strconv.FormatUint(uint64(evt.StudentID), 10)}
	default:
		return []string{""}
	}
}

func studentScope(studentID uint) string {
	return "student:" + strconv.FormatUint(uint64(studentID), 10)
}

// NotificationHandler forwards an event to each of its channels.
type NotificationHandler struct {
	notifier notification.Notifier
}

func NewNotificationHandler(n notification.Notifier) *NotificationHandler {
	return &NotificationHandler{notifier: n}
}

func (h *NotificationHandler) Handle(ctx context.Context, evt DomainEvent) error {
	var errs []error
	for _, channel := range evt.Channels {
		if err := h.notifier.Notify(ctx, channel, evt.Name, evt.Payload); err != nil {
			errs = append(errs, fmt.Errorf("notify %s: %w", channel, err))
		}
	}
	return errors.Join(errs...)
}
