package repository

import (
	"errors"

	apperrors "dormitory/errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Constraint names created by the migrations.
const (
	ConstraintActiveBooking    = "uq_bookings_active_student"
	ConstraintActiveAssignment = "uq_assignments_active_student"
	ConstraintRoomOccupancy    = "ck_rooms_occupancy"
	ConstraintRoomCapacity     = "ck_rooms_capacity"

	pgUniqueViolation = "23505"
	pgCheckViolation  = "23514"
)

// translateError turns constraint violations that back the admission rules
// into the same conflicts the services raise.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch {
	case pgErr.Code == pgUniqueViolation &&
		(pgErr.ConstraintName == ConstraintActiveBooking || pgErr.ConstraintName == ConstraintActiveAssignment):
		return apperrors.Conflict(apperrors.ErrCodeDuplicateActiveBooking, "Student already has an active booking")
	case pgErr.Code == pgCheckViolation && pgErr.ConstraintName == ConstraintRoomOccupancy:
		return apperrors.Conflict(apperrors.ErrCodeRoomFull, "Room is at full capacity")
	}
	return err
}
