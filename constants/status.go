package constants

import "strconv"

// Booking status
const (
	BookingStatusActive    = "active"
	BookingStatusInactive  = "inactive"
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusCancelled = "cancelled"
	BookingStatusCompleted = "completed"
)

var BookingStatuses = []string{
	BookingStatusActive,
	BookingStatusInactive,
	BookingStatusPending,
	BookingStatusConfirmed,
	BookingStatusCancelled,
	BookingStatusCompleted,
}

// Payment status
const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusRefunded = "refunded"
)

var PaymentStatuses = []string{
	PaymentStatusPending,
	PaymentStatusPaid,
	PaymentStatusRefunded,
}

// Assignment status
const (
	AssignmentStatusActive   = "active"
	AssignmentStatusInactive = "inactive"
)

// Room type
const (
	RoomTypeSingle = "single"
	RoomTypeDouble = "double"
	RoomTypeTriple = "triple"
	RoomTypeQuad   = "quad"
)

// RoomTypeCapacity is the number of beds each room type is built with.
var RoomTypeCapacity = map[string]int{
	RoomTypeSingle: 1,
	RoomTypeDouble: 2,
	RoomTypeTriple: 3,
	RoomTypeQuad:   4,
}

const (
	MinRoomCapacity = 1
	MaxRoomCapacity = 4
)

// Gender
const (
	GenderMale   = "male"
	GenderFemale = "female"
)

// User role
const (
	RoleStudent    = 0
	RoleAdmin      = 1
	RoleSuperAdmin = 2
)

// Semester
const (
	SemesterFirst  = "1"
	SemesterSecond = "2"
)

// Cache domains
const (
	CacheDomainRooms    = "rooms"
	CacheDomainBookings = "bookings"
	CacheDomainUsers    = "users"
)

// Notification channels
const (
	ChannelAdminBroadcast  = "admin-broadcast"
	ChannelGlobalBroadcast = "global-broadcast"
	userChannelPrefix      = "user:"
)

func UserChannel(userID uint) string {
	return userChannelPrefix + strconv.FormatUint(uint64(userID), 10)
}

// ParseUserChannel returns the user id addressed by a user:<id> channel.
func ParseUserChannel(channel string) (uint, bool) {
	if len(channel) <= len(userChannelPrefix) || channel[:len(userChannelPrefix)] != userChannelPrefix {
		return 0, false
	}
	id, err := strconv.ParseUint(channel[len(userChannelPrefix):], 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

// Notification events
const (
	EventBookingCreated         = "booking:created"
	EventBookingCancelled       = "booking:cancelled"
	EventBookingStatusChanged   = "booking:status-changed"
	EventBookingPaymentUpdated  = "booking:payment-updated"
	EventBookingTransferred     = "booking:transferred"
	EventBookingDeleted         = "booking:deleted"
	EventBookingsCleared        = "bookings:cleared"
	EventRoomAvailability       = "room:availability-changed"
	EventRoomDeleted            = "room:deleted"
	EventRoomsSynced            = "rooms:synced"
	EventBookingsArchived       = "bookings:archived"
	EventSemesterTransitioned   = "semester:transitioned"
	EventAcademicSettingsUpdate = "academic-settings:updated"
)
