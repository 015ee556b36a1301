package models

import (
	"fmt"
	"time"

	"dormitory/constants"
	"dormitory/errors"
)

// BookingState describes which moves a booking can make from its current status.
type BookingState interface {
	Status() string
	HoldsBed() bool
	CanMoveTo(status string) bool
}

var holdingStatuses = []string{
	constants.BookingStatusActive,
	constants.BookingStatusPending,
	constants.BookingStatusConfirmed,
}

// holdingState covers active, pending and confirmed bookings. They share one
// bed, so moving between them does not touch the ledger.
type holdingState struct {
	status string
}

func (s *holdingState) Status() string { return s.status }

func (s *holdingState) HoldsBed() bool { return true }

func (s *holdingState) CanMoveTo(status string) bool {
	return status != s.status && isKnownStatus(status)
}

// InactiveState is a booking superseded by a semester transition.
type InactiveState struct{}

func (s *InactiveState) Status() string { return constants.BookingStatusInactive }

func (s *InactiveState) HoldsBed() bool { return false }

func (s *InactiveState) CanMoveTo(status string) bool {
	return status == constants.BookingStatusCancelled || status == constants.BookingStatusCompleted
}

// CancelledState is terminal.
type CancelledState struct{}

func (s *CancelledState) Status() string { return constants.BookingStatusCancelled }

func (s *CancelledState) HoldsBed() bool { return false }

func (s *CancelledState) CanMoveTo(string) bool { return false }

// CompletedState is terminal.
type CompletedState struct{}

func (s *CompletedState) Status() string { return constants.BookingStatusCompleted }

func (s *CompletedState) HoldsBed() bool { return false }

func (s *CompletedState) CanMoveTo(string) bool { return false }

// GetBookingState returns the state for a booking status.
func GetBookingState(status string) BookingState {
	switch status {
	case constants.BookingStatusActive, constants.BookingStatusPending, constants.BookingStatusConfirmed:
		return &holdingState{status: status}
	case constants.BookingStatusInactive:
		return &InactiveState{}
	case constants.BookingStatusCancelled:
		return &CancelledState{}
	case constants.BookingStatusCompleted:
		return &CompletedState{}
	default:
		return &CancelledState{}
	}
}

// IsHoldingStatus reports whether a booking in this status occupies a bed.
func IsHoldingStatus(status string) bool {
	for _, s := range holdingStatuses {
		if s == status {
			return true
		}
	}
	return false
}

func isKnownStatus(status string) bool {
	for _, s := range constants.BookingStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// TransitionTo moves the booking to status, stamping cancellation fields when
// the move is a cancellation.
func (b *Booking) TransitionTo(status, reason string, at time.Time) error {
	state := GetBookingState(b.Status)
	if !state.CanMoveTo(status) {
		return errors.Conflict(errors.ErrCodeInvalidTransition,
			fmt.Sprintf("Booking %d cannot move from %s to %s", b.ID, b.Status, status))
	}
	b.Status = status
	if status == constants.BookingStatusCancelled {
		cancelledAt := at
		b.CancelledAt = &cancelledAt
		b.CancellationReason = reason
	}
	return nil
}
