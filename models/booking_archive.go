package models

import (
	"time"

	"gorm.io/datatypes"
)

// BookingArchive is an immutable snapshot of a booking taken before it is purged.
type BookingArchive struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	OriginalBookingID uint           `gorm:"not null;index" json:"originalBookingId"`
	StudentID         uint           `gorm:"not null;index" json:"studentId"`
	RoomNumber        string         `gorm:"size:16;not null" json:"roomNumber"`
	Status            string         `gorm:"size:16;not null" json:"status"`
	PaymentStatus     string         `gorm:"size:16;not null" json:"paymentStatus"`
	AcademicYear      string         `gorm:"size:9;index:idx_archives_period" json:"academicYear"`
	Semester          string         `gorm:"size:8;index:idx_archives_period" json:"semester"`
	BookedAt          time.Time      `json:"bookedAt"`
	Snapshot          datatypes.JSON `json:"snapshot"`
	ArchivedBy        *uint          `json:"archivedBy,omitempty"`
	ArchivedAt        time.Time      `gorm:"not null" json:"archivedAt"`
}
