package services

import (
	"fmt"

	"dormitory/constants"
	apperrors "dormitory/errors"
	"dormitory/services/logger"
)

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID   uint
	Role int
}

// SystemActor runs scheduled jobs. It has no user id.
var SystemActor = Actor{Role: constants.RoleSuperAdmin}

func (a Actor) IsAdmin() bool {
	return a.Role == constants.RoleAdmin || a.Role == constants.RoleSuperAdmin
}

func (a Actor) IsSystem() bool {
	return a.ID == 0 && a.Role == constants.RoleSuperAdmin
}

// userRef is nil for the system actor.
func (a Actor) userRef() *uint {
	if a.IsSystem() {
		return nil
	}
	id := a.ID
	return &id
}

func (a Actor) String() string {
	if a.IsSystem() {
		return "system"
	}
	return fmt.Sprintf("user %d", a.ID)
}

func requireAdmin(a Actor) error {
	if !a.IsAdmin() {
		return apperrors.Forbidden("Administrator role required")
	}
	return nil
}

func requireOwnerOrAdmin(a Actor, ownerID uint) error {
	if a.IsAdmin() || a.ID == ownerID {
		return nil
	}
	return apperrors.Forbidden("You can only manage your own bookings")
}

// failure passes AppErrors through and hides anything else behind a DB_ERROR.
func failure(log logger.Logger, op string, err error) error {
	if err == nil {
		return nil
	}
	if apperrors.IsAppError(err) {
		return err
	}
	log.Error("%s failed: %v", op, err)
	return apperrors.Internal(fmt.Sprintf("Could not %s", op), err)
}
