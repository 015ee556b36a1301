package models

import (
	"fmt"
	"time"

	"dormitory/constants"

	"github.com/lib/pq"
)

type Room struct {
	RoomNumber       string         `json:"roomNumber" gorm:"primaryKey;size:16"`
	RoomType         string         `json:"roomType" gorm:"size:16;not null"`
	Capacity         int            `json:"capacity" gorm:"not null"`
	CurrentOccupancy int            `json:"currentOccupancy" gorm:"not null;default:0"`
	IsAvailable      bool           `json:"isAvailable" gorm:"not null;default:true"`
	Floor            int            `json:"floor"`
	Features         pq.StringArray `json:"features" gorm:"type:text[]"`
	CreatedAt        time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt        time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (r *Room) ValidateCapacity() error {
	if r.Capacity < constants.MinRoomCapacity || r.Capacity > constants.MaxRoomCapacity {
		return fmt.Errorf("invalid capacity: %d, must be between %d and %d",
			r.Capacity, constants.MinRoomCapacity, constants.MaxRoomCapacity)
	}
	if want, ok := constants.RoomTypeCapacity[r.RoomType]; ok && want != r.Capacity {
		return fmt.Errorf("room type %s holds %d students, got capacity %d", r.RoomType, want, r.Capacity)
	}
	return nil
}

// Vacancies is derived from the stored occupancy and is only as fresh as the last sync.
func (r *Room) Vacancies() int {
	if r.CurrentOccupancy >= r.Capacity {
		return 0
	}
	return r.Capacity - r.CurrentOccupancy
}
