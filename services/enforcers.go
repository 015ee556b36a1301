package services

import (
	"context"
	"errors"
	"fmt"

	apperrors "dormitory/errors"
	"dormitory/models"
	"dormitory/repository"

	"gorm.io/gorm"
)

// CanAdmit reports whether one more active assignment fits in the room.
func CanAdmit(capacity, activeCount int) bool {
	return activeCount < capacity
}

// GenderDecision is the outcome of a gender compatibility check.
// RoomGender is empty when the room has no occupant with a recorded gender.
type GenderDecision struct {
	Allowed    bool
	RoomGender string
}

// CheckGender applies first-occupant-wins: the earliest active occupant with a
// recorded gender decides who else may join. occupants must be oldest first.
func CheckGender(occupants []models.Occupant, candidate string) GenderDecision {
	for _, o := range occupants {
		roomGender := models.NormalizeGender(o.Gender)
		if roomGender == "" {
			continue
		}
		return GenderDecision{
			Allowed:    roomGender == models.NormalizeGender(candidate),
			RoomGender: roomGender,
		}
	}
	return GenderDecision{Allowed: true}
}

// Admission is a capacity decision for one room.
type Admission struct {
	Allowed  bool
	Active   int
	Capacity int
}

// CanAdmitRoom counts the room's active assignments and checks them against its capacity.
func CanAdmitRoom(ctx context.Context, repo *repository.Repository, roomNumber string) (Admission, error) {
	room, err := repo.Room.GetByNumber(ctx, roomNumber)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Admission{}, roomNotFound(ctx, repo, roomNumber)
	}
	if err != nil {
		return Admission{}, err
	}
	active, err := repo.Assignment.CountActive(ctx, roomNumber)
	if err != nil {
		return Admission{}, err
	}
	return Admission{
		Allowed:  CanAdmit(room.Capacity, active),
		Active:   active,
		Capacity: room.Capacity,
	}, nil
}

// CheckRoomGender checks a candidate against the room's current occupants.
func CheckRoomGender(ctx context.Context, repo *repository.Repository, roomNumber, gender string) (GenderDecision, error) {
	occupants, err := repo.Assignment.ActiveOccupants(ctx, roomNumber)
	if err != nil {
		return GenderDecision{}, err
	}
	return CheckGender(occupants, gender), nil
}

// checkAdmission runs the capacity check, then the gender check, against
// ledger state read inside the caller's transaction.
func checkAdmission(ctx context.Context, tx *repository.Repository, room *models.Room, student *models.User) error {
	if models.NormalizeGender(student.Gender) == "" {
		return apperrors.BadRequest(apperrors.ErrCodeInvalidInput,
			fmt.Sprintf("Student %d has no gender on record", student.ID))
	}

	admission, err := CanAdmitRoom(ctx, tx, room.RoomNumber)
	if err != nil {
		return err
	}
	if !admission.Allowed {
		return apperrors.Conflict(apperrors.ErrCodeRoomFull,
			fmt.Sprintf("Room %s is full (%d/%d)", room.RoomNumber, admission.Active, admission.Capacity))
	}

	decision, err := CheckRoomGender(ctx, tx, room.RoomNumber, student.Gender)
	if err != nil {
		return err
	}
	if !decision.Allowed {
		return apperrors.Conflict(apperrors.ErrCodeGenderMismatch,
			fmt.Sprintf("Room %s is occupied by %s students", room.RoomNumber, decision.RoomGender))
	}
	return nil
}
