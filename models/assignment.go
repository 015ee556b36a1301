package models

import "time"

// Assignment is the occupancy ledger: one row per (room, student) pair,
// reactivated in place when the student returns to the same room.
type Assignment struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	RoomNumber   string     `gorm:"size:16;not null;uniqueIndex:idx_assignments_room_student" json:"roomNumber"`
	StudentID    uint       `gorm:"not null;uniqueIndex:idx_assignments_room_student;index" json:"studentId"`
	Status       string     `gorm:"size:16;not null;index" json:"status"`
	AssignedDate time.Time  `gorm:"not null" json:"assignedDate"`
	ReleasedAt   *time.Time `json:"releasedAt,omitempty"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
}

// Occupant is an active assignment joined with the student's gender.
type Occupant struct {
	StudentID    uint      `json:"studentId"`
	Gender       string    `json:"gender"`
	AssignedDate time.Time `json:"assignedDate"`
}
