package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"dormitory/constants"
	apperrors "dormitory/errors"
	"dormitory/services/logger"
)

var (
	adminActor = Actor{ID: 900, Role: constants.RoleAdmin}
)

func studentActor(id uint) Actor {
	return Actor{ID: id, Role: constants.RoleStudent}
}

type recordingHandler struct {
	mu     sync.Mutex
	events []DomainEvent
}

func (h *recordingHandler) Handle(_ context.Context, evt DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, evt)
	return nil
}

func (h *recordingHandler) named(name string) []DomainEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []DomainEvent
	for _, e := range h.events {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.events)
}

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

// now advances one second per call so ledger rows get distinct assigned dates.
func (c *testClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

type harness struct {
	store    *memStore
	bus      *EventBus
	recorded *recordingHandler
	bookings *BookingService
	rooms    *RoomService
	academic *AcademicService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := newMemStore()
	repo := store.repository()
	log := logger.NewNopLogger()
	locks := NewRoomLocks()
	bus := NewEventBus(log, time.Second)
	recorded := &recordingHandler{}
	bus.Subscribe("recorder", recorded)

	clock := &testClock{t: time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)}

	bookings := NewBookingService(BookingServiceOptions{Repo: repo, Locks: locks, Events: bus, Logger: log})
	bookings.now = clock.now
	rooms := NewRoomService(RoomServiceOptions{Repo: repo, Locks: locks, Events: bus, Logger: log})
	academic := NewAcademicService(AcademicServiceOptions{Repo: repo, Locks: locks, Events: bus, Logger: log})
	academic.now = clock.now

	return &harness{
		store:    store,
		bus:      bus,
		recorded: recorded,
		bookings: bookings,
		rooms:    rooms,
		academic: academic,
	}
}

// book creates a booking for a student and fails the test on error.
func (h *harness) book(t *testing.T, studentID uint, room string) uint {
	t.Helper()
	b, err := h.bookings.CreateBooking(context.Background(), studentActor(studentID), room, true)
	if err != nil {
		t.Fatalf("CreateBooking(student %d, %s) error: %v", studentID, room, err)
	}
	return b.ID
}

// assertConsistent checks that every room's counter matches its ledger and fits its capacity.
func (h *harness) assertConsistent(t *testing.T) {
	t.Helper()
	h.store.mu.Lock()
	numbers := make([]string, 0, len(h.store.state.rooms))
	for n := range h.store.state.rooms {
		numbers = append(numbers, n)
	}
	h.store.mu.Unlock()

	for _, n := range numbers {
		room := h.store.room(n)
		active := h.store.activeAssignments(n)
		if room.CurrentOccupancy != active {
			t.Errorf("room %s occupancy %d, ledger has %d", n, room.CurrentOccupancy, active)
		}
		if active > room.Capacity {
			t.Errorf("room %s holds %d over capacity %d", n, active, room.Capacity)
		}
	}
}

func assertCode(t *testing.T, err error, code apperrors.ErrorCode) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s, got nil", code)
	}
	if !apperrors.HasCode(err, code) {
		t.Fatalf("expected %s, got %v", code, err)
	}
}

func assertKind(t *testing.T, err error, kind apperrors.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	if got := apperrors.KindOf(err); got != kind {
		t.Fatalf("expected %s error, got %s (%v)", kind, got, err)
	}
}
