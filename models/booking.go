package models

import "time"

type Booking struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	StudentID          uint       `gorm:"not null;index" json:"studentId"`
	RoomNumber         string     `gorm:"size:16;not null;index" json:"roomNumber"`
	CreatedByAdmin     *uint      `json:"createdByAdmin,omitempty"`
	Status             string     `gorm:"size:16;not null;default:active;index" json:"status"`
	PaymentStatus      string     `gorm:"size:16;not null;default:pending" json:"paymentStatus"`
	PaymentMethod      string     `gorm:"size:64" json:"paymentMethod,omitempty"`
	TermsAgreed        bool       `gorm:"not null;default:false" json:"termsAgreed"`
	CancellationReason string     `gorm:"size:500" json:"cancellationReason,omitempty"`
	CancelledAt        *time.Time `json:"cancelledAt,omitempty"`
	AcademicYear       string     `gorm:"size:9;index:idx_bookings_period" json:"academicYear"`
	Semester           string     `gorm:"size:8;index:idx_bookings_period" json:"semester"`
	CreatedAt          time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt          time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
	Room               *Room      `gorm:"foreignKey:RoomNumber;references:RoomNumber" json:"room,omitempty"`
	Student            *User      `gorm:"foreignKey:StudentID" json:"student,omitempty"`
}

// HoldsBed reports whether the booking still claims a bed in its room.
func (b *Booking) HoldsBed() bool {
	return GetBookingState(b.Status).HoldsBed()
}
