package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dormitory/constants"
	apperrors "dormitory/errors"
	"dormitory/models"
	"dormitory/repository"
	"dormitory/services/cache"
	"dormitory/services/logger"
	"dormitory/validator"

	"gorm.io/gorm"
)

// BookingService owns every write to bookings and the occupancy ledger.
type BookingService struct {
	repo   *repository.Repository
	locks  *RoomLocks
	sync   *OccupancySync
	events *EventBus
	cache  cache.Cache
	logger logger.Logger
	now    func() time.Time
}

type BookingServiceOptions struct {
	Repo   *repository.Repository
	Locks  *RoomLocks
	Events *EventBus
	Cache  cache.Cache
	Logger logger.Logger
}

func NewBookingService(opts BookingServiceOptions) *BookingService {
	if opts.Logger == nil {
		opts.Logger = logger.NewNopLogger()
	}
	if opts.Locks == nil {
		opts.Locks = NewRoomLocks()
	}
	if opts.Events == nil {
		opts.Events = NewEventBus(opts.Logger, 0)
	}
	if opts.Cache == nil {
		opts.Cache = cache.NopCache{}
	}
	return &BookingService{
		repo:   opts.Repo,
		locks:  opts.Locks,
		sync:   NewOccupancySync(opts.Logger),
		events: opts.Events,
		cache:  opts.Cache,
		logger: opts.Logger,
		now:    time.Now,
	}
}

// CreateBooking books a bed for the calling student.
func (s *BookingService) CreateBooking(ctx context.Context, actor Actor, roomNumber string, termsAgreed bool) (*models.Booking, error) {
	return s.admit(ctx, actor.ID, roomNumber, termsAgreed, false, nil)
}

// CreateBookingForStudent books a bed on a student's behalf. It is allowed
// while self-service booking is locked.
func (s *BookingService) CreateBookingForStudent(ctx context.Context, actor Actor, studentID uint, roomNumber string, termsAgreed bool) (*models.Booking, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.admit(ctx, studentID, roomNumber, termsAgreed, true, actor.userRef())
}

// admit books a bed. byAdmin bypasses the booking lock; createdBy is nil for
// self-service and for the system actor.
func (s *BookingService) admit(ctx context.Context, studentID uint, rawRoom string, termsAgreed, byAdmin bool, createdBy *uint) (*models.Booking, error) {
	if !termsAgreed {
		return nil, apperrors.BadRequest(apperrors.ErrCodeTermsNotAgreed, "The dormitory terms must be accepted before booking")
	}
	roomNumber, err := validator.NormalizeRoomNumber(rawRoom)
	if err != nil {
		return nil, err
	}

	guard := s.locks.Shared()
	defer guard.Release()
	guard.Student(studentID)
	guard.Rooms(roomNumber)

	var booking *models.Booking
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		room, err := lockRoom(ctx, tx, roomNumber)
		if err != nil {
			return err
		}

		student, err := tx.User.GetByID(ctx, studentID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound(apperrors.ErrCodeStudentNotFound, fmt.Sprintf("Student %d not found", studentID))
		}
		if err != nil {
			return err
		}

		settings, err := tx.Settings.Get(ctx)
		if err != nil {
			return err
		}
		if !byAdmin && settings.BookingsLocked {
			return apperrors.Conflict(apperrors.ErrCodeBookingsLocked, "Booking is closed for the current semester")
		}

		if err := ensureNoActiveBooking(ctx, tx, studentID); err != nil {
			return err
		}
		if !room.IsAvailable {
			return apperrors.Conflict(apperrors.ErrCodeRoomUnavailable, fmt.Sprintf("Room %s is not open for booking", room.RoomNumber))
		}
		if err := checkAdmission(ctx, tx, room, student); err != nil {
			return err
		}

		now := s.now()
		booking = &models.Booking{
			StudentID:      studentID,
			RoomNumber:     roomNumber,
			CreatedByAdmin: createdBy,
			Status:         constants.BookingStatusActive,
			PaymentStatus:  constants.PaymentStatusPending,
			TermsAgreed:    true,
			AcademicYear:   settings.CurrentAcademicYear,
			Semester:       settings.CurrentSemester,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := tx.Booking.Create(ctx, booking); err != nil {
			return err
		}
		if _, err := tx.Assignment.Activate(ctx, roomNumber, studentID, now); err != nil {
			return err
		}
		occupancy, err := s.sync.Sync(ctx, tx, roomNumber)
		if err != nil {
			return err
		}
		room.CurrentOccupancy = occupancy
		booking.Room = room
		return nil
	})
	if err != nil {
		return nil, failure(s.logger, "create booking", err)
	}

	s.logger.Info("booking %d created for student %d in room %s", booking.ID, studentID, roomNumber)
	s.publish(constants.EventBookingCreated, booking, []string{roomNumber},
		constants.UserChannel(studentID), constants.ChannelAdminBroadcast, constants.ChannelGlobalBroadcast)
	return booking, nil
}

// CancelBooking cancels a booking and frees its bed. Owners and admins only.
func (s *BookingService) CancelBooking(ctx context.Context, actor Actor, bookingID uint, reason string) (*models.Booking, error) {
	guard := s.locks.Shared()
	defer guard.Release()

	booking, err := s.lockBooking(ctx, guard, bookingID, func(b *models.Booking) error {
		return requireOwnerOrAdmin(actor, b.StudentID)
	})
	if err != nil {
		return nil, err
	}

	var released bool
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		current, err := reloadBooking(ctx, tx, booking.ID)
		if err != nil {
			return err
		}
		if _, err := tx.Room.LockForUpdate(ctx, current.RoomNumber); err != nil {
			return err
		}

		held := current.HoldsBed()
		if err := current.TransitionTo(constants.BookingStatusCancelled, reason, s.now()); err != nil {
			return err
		}
		if err := tx.Booking.Update(ctx, current); err != nil {
			return err
		}
		if held {
			if err := s.release(ctx, tx, current); err != nil {
				return err
			}
			released = true
		}
		booking = current
		return nil
	})
	if err != nil {
		return nil, failure(s.logger, "cancel booking", err)
	}

	s.logger.Info("booking %d cancelled by %s", booking.ID, actor)
	channels := []string{constants.UserChannel(booking.StudentID)}
	if released {
		channels = append(channels, constants.ChannelGlobalBroadcast)
	}
	s.publish(constants.EventBookingCancelled, booking, []string{booking.RoomNumber}, channels...)
	return booking, nil
}

// UpdateBookingStatus sets any valid status the current one can move to.
// Leaving a bed-holding status frees the bed.
func (s *BookingService) UpdateBookingStatus(ctx context.Context, actor Actor, bookingID uint, status string) (*models.Booking, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := validator.ValidateBookingStatus(status); err != nil {
		return nil, err
	}

	guard := s.locks.Shared()
	defer guard.Release()

	booking, err := s.lockBooking(ctx, guard, bookingID, nil)
	if err != nil {
		return nil, err
	}

	var released bool
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		current, err := reloadBooking(ctx, tx, booking.ID)
		if err != nil {
			return err
		}
		if _, err := tx.Room.LockForUpdate(ctx, current.RoomNumber); err != nil {
			return err
		}

		held := current.HoldsBed()
		if err := current.TransitionTo(status, "Cancelled by administrator", s.now()); err != nil {
			return err
		}
		if err := tx.Booking.Update(ctx, current); err != nil {
			return err
		}
		if held && !current.HoldsBed() {
			if err := s.release(ctx, tx, current); err != nil {
				return err
			}
			released = true
		}
		booking = current
		return nil
	})
	if err != nil {
		return nil, failure(s.logger, "update booking status", err)
	}

	s.logger.Info("booking %d moved to %s by %s", booking.ID, status, actor)
	channels := []string{constants.UserChannel(booking.StudentID)}
	if released {
		channels = append(channels, constants.ChannelGlobalBroadcast)
	}
	s.publish(constants.EventBookingStatusChanged, booking, []string{booking.RoomNumber}, channels...)
	return booking, nil
}

// UpdatePaymentStatus records a payment change. A pending booking becomes
// confirmed once it is paid.
func (s *BookingService) UpdatePaymentStatus(ctx context.Context, actor Actor, bookingID uint, paymentStatus, paymentMethod string) (*models.Booking, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := validator.ValidatePaymentStatus(paymentStatus); err != nil {
		return nil, err
	}

	guard := s.locks.Shared()
	defer guard.Release()

	booking, err := s.lockBooking(ctx, guard, bookingID, nil)
	if err != nil {
		return nil, err
	}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		current, err := reloadBooking(ctx, tx, booking.ID)
		if err != nil {
			return err
		}
		current.PaymentStatus = paymentStatus
		if paymentMethod != "" {
			current.PaymentMethod = paymentMethod
		}
		if paymentStatus == constants.PaymentStatusPaid && current.Status == constants.BookingStatusPending {
			current.Status = constants.BookingStatusConfirmed
		}
		if err := tx.Booking.Update(ctx, current); err != nil {
			return err
		}
		booking = current
		return nil
	})
	if err != nil {
		return nil, failure(s.logger, "update payment status", err)
	}

	s.logger.Info("booking %d payment set to %s by %s", booking.ID, paymentStatus, actor)
	s.publish(constants.EventBookingPaymentUpdated, booking, nil, constants.UserChannel(booking.StudentID))
	return booking, nil
}

// TransferBookingRoom moves a bed-holding booking to another room. The
// destination goes through the same capacity and gender checks as a new booking.
func (s *BookingService) TransferBookingRoom(ctx context.Context, actor Actor, bookingID uint, newRoom string) (*models.Booking, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	target, err := validator.NormalizeRoomNumber(newRoom)
	if err != nil {
		return nil, err
	}

	guard := s.locks.Shared()
	defer guard.Release()

	booking, err := s.lockBooking(ctx, guard, bookingID, nil, target)
	if err != nil {
		return nil, err
	}
	source := booking.RoomNumber

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		current, err := reloadBooking(ctx, tx, booking.ID)
		if err != nil {
			return err
		}
		if !current.HoldsBed() {
			return apperrors.Conflict(apperrors.ErrCodeInvalidTransition,
				fmt.Sprintf("Booking %d is %s and holds no bed to transfer", current.ID, current.Status))
		}
		if current.RoomNumber == target {
			return apperrors.Conflict(apperrors.ErrCodeInvalidTransition,
				fmt.Sprintf("Booking %d is already in room %s", current.ID, target))
		}

		rooms, err := tx.Room.LockForUpdate(ctx, current.RoomNumber, target)
		if err != nil {
			return err
		}
		dest := findRoom(rooms, target)
		if dest == nil {
			return roomNotFound(ctx, tx, target)
		}

		student, err := tx.User.GetByID(ctx, current.StudentID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound(apperrors.ErrCodeStudentNotFound, fmt.Sprintf("Student %d not found", current.StudentID))
		}
		if err != nil {
			return err
		}
		if !dest.IsAvailable {
			return apperrors.Conflict(apperrors.ErrCodeRoomUnavailable, fmt.Sprintf("Room %s is not open for booking", target))
		}
		if err := checkAdmission(ctx, tx, dest, student); err != nil {
			return err
		}

		now := s.now()
		if _, err := tx.Assignment.Deactivate(ctx, current.RoomNumber, current.StudentID, now); err != nil {
			return err
		}
		if _, err := tx.Assignment.Activate(ctx, target, current.StudentID, now); err != nil {
			return err
		}
		current.RoomNumber = target
		current.Room = nil
		if err := tx.Booking.Update(ctx, current); err != nil {
			return err
		}
		counts, err := s.sync.SyncRooms(ctx, tx, []string{source, target})
		if err != nil {
			return err
		}
		dest.CurrentOccupancy = counts[target]
		current.Room = dest
		booking = current
		return nil
	})
	if err != nil {
		return nil, failure(s.logger, "transfer booking", err)
	}

	s.logger.Info("booking %d transferred from %s to %s by %s", booking.ID, source, target, actor)
	s.publish(constants.EventBookingTransferred, booking, []string{source, target},
		constants.UserChannel(booking.StudentID), constants.ChannelAdminBroadcast, constants.ChannelGlobalBroadcast)
	return booking, nil
}

// DeleteBooking removes a booking. If it still held a bed, the ledger row is
// removed with it so no ghost occupant is left behind.
func (s *BookingService) DeleteBooking(ctx context.Context, actor Actor, bookingID uint) error {
	guard := s.locks.Shared()
	defer guard.Release()

	booking, err := s.lockBooking(ctx, guard, bookingID, func(b *models.Booking) error {
		return requireOwnerOrAdmin(actor, b.StudentID)
	})
	if err != nil {
		return err
	}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		current, err := reloadBooking(ctx, tx, booking.ID)
		if err != nil {
			return err
		}
		if current.HoldsBed() {
			if _, err := tx.Room.LockForUpdate(ctx, current.RoomNumber); err != nil {
				return err
			}
			if _, err := tx.Assignment.DeleteActive(ctx, current.RoomNumber, current.StudentID); err != nil {
				return err
			}
			if _, err := s.sync.Sync(ctx, tx, current.RoomNumber); err != nil {
				return err
			}
		}
		if err := tx.Booking.Delete(ctx, current.ID); err != nil {
			return err
		}
		booking = current
		return nil
	})
	if err != nil {
		return failure(s.logger, "delete booking", err)
	}

	s.logger.Info("booking %d deleted by %s", booking.ID, actor)
	s.publish(constants.EventBookingDeleted, booking, []string{booking.RoomNumber},
		constants.UserChannel(booking.StudentID), constants.ChannelAdminBroadcast, constants.ChannelGlobalBroadcast)
	return nil
}

// ClearAllBookings deletes every booking and ledger row, then resets the
// occupancy of each room that held someone.
func (s *BookingService) ClearAllBookings(ctx context.Context, actor Actor) (int64, error) {
	if err := requireAdmin(actor); err != nil {
		return 0, err
	}

	guard := s.locks.Exclusive()
	defer guard.Release()

	var deleted int64
	var rooms []string
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		numbers, err := tx.Room.ListNumbers(ctx)
		if err != nil {
			return err
		}
		if _, err := tx.Room.LockForUpdate(ctx, numbers...); err != nil {
			return err
		}
		occupied, err := tx.Assignment.RoomsWithActive(ctx)
		if err != nil {
			return err
		}
		deleted, err = tx.Booking.DeleteAll(ctx)
		if err != nil {
			return err
		}
		if _, err := tx.Assignment.DeleteAll(ctx); err != nil {
			return err
		}
		if _, err := s.sync.SyncRooms(ctx, tx, occupied); err != nil {
			return err
		}
		rooms = occupied
		return nil
	})
	if err != nil {
		return 0, failure(s.logger, "clear bookings", err)
	}

	s.logger.Warn("all bookings cleared by %s (%d deleted)", actor, deleted)
	s.events.Publish(DomainEvent{
		Name:        constants.EventBookingsCleared,
		RoomNumbers: rooms,
		Domains:     []string{constants.CacheDomainRooms, constants.CacheDomainBookings, constants.CacheDomainUsers},
		Channels:    []string{constants.ChannelAdminBroadcast, constants.ChannelGlobalBroadcast},
		Payload:     map[string]interface{}{"deleted": deleted},
	})
	return deleted, nil
}

// GetBooking returns one booking to its owner or an admin.
func (s *BookingService) GetBooking(ctx context.Context, actor Actor, bookingID uint) (*models.Booking, error) {
	booking, err := reloadBooking(ctx, s.repo, bookingID)
	if err != nil {
		return nil, failure(s.logger, "load booking", err)
	}
	if err := requireOwnerOrAdmin(actor, booking.StudentID); err != nil {
		return nil, err
	}
	return booking, nil
}

func (s *BookingService) ListBookings(ctx context.Context, actor Actor, filter repository.BookingFilter) ([]models.Booking, int64, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, 0, err
	}
	if filter.Status != "" {
		if err := validator.ValidateBookingStatus(filter.Status); err != nil {
			return nil, 0, err
		}
	}
	if filter.RoomNumber != "" {
		number, err := validator.NormalizeRoomNumber(filter.RoomNumber)
		if err != nil {
			return nil, 0, err
		}
		filter.RoomNumber = number
	}
	bookings, total, err := s.repo.Booking.List(ctx, filter)
	if err != nil {
		return nil, 0, failure(s.logger, "list bookings", err)
	}
	return bookings, total, nil
}

// MyBookings lists the caller's bookings, newest first. Only the booking rows
// are cached; their rooms are read fresh so occupancy follows other
// students' bookings.
func (s *BookingService) MyBookings(ctx context.Context, actor Actor) ([]models.Booking, error) {
	key := cache.Key(constants.CacheDomainBookings, studentScope(actor.ID))

	var bookings []models.Booking
	found, err := s.cache.Get(ctx, key, &bookings)
	if err != nil {
		s.logger.Warn("cache read %s failed: %v", key, err)
	}
	if !found {
		bookings, err = s.repo.Booking.ListByStudent(ctx, actor.ID)
		if err != nil {
			return nil, failure(s.logger, "list bookings", err)
		}
		for i := range bookings {
			bookings[i].Room = nil
		}
		if err := s.cache.Set(ctx, key, bookings); err != nil {
			s.logger.Warn("cache write %s failed: %v", key, err)
		}
	}

	if err := s.attachRooms(ctx, bookings); err != nil {
		return nil, failure(s.logger, "list bookings", err)
	}
	return bookings, nil
}

func (s *BookingService) attachRooms(ctx context.Context, bookings []models.Booking) error {
	rooms := make(map[string]*models.Room)
	for i := range bookings {
		number := bookings[i].RoomNumber
		room, ok := rooms[number]
		if !ok {
			loaded, err := s.repo.Room.GetByNumber(ctx, number)
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			room = loaded
			rooms[number] = room
		}
		bookings[i].Room = room
	}
	return nil
}

// lockBooking reads the booking, authorizes it, locks its student and then
// its room plus any extra rooms. The student lock pins the room, so the
// second read is authoritative.
func (s *BookingService) lockBooking(ctx context.Context, guard *Guard, bookingID uint, authorize func(*models.Booking) error, extraRooms ...string) (*models.Booking, error) {
	booking, err := reloadBooking(ctx, s.repo, bookingID)
	if err != nil {
		return nil, failure(s.logger, "load booking", err)
	}
	if authorize != nil {
		if err := authorize(booking); err != nil {
			return nil, err
		}
	}

	guard.Student(booking.StudentID)
	booking, err = reloadBooking(ctx, s.repo, bookingID)
	if err != nil {
		return nil, failure(s.logger, "load booking", err)
	}
	guard.Rooms(append([]string{booking.RoomNumber}, extraRooms...)...)
	return booking, nil
}

func (s *BookingService) release(ctx context.Context, tx *repository.Repository, b *models.Booking) error {
	if _, err := tx.Assignment.Deactivate(ctx, b.RoomNumber, b.StudentID, s.now()); err != nil {
		return err
	}
	_, err := s.sync.Sync(ctx, tx, b.RoomNumber)
	return err
}

func (s *BookingService) publish(name string, booking *models.Booking, rooms []string, channels ...string) {
	domains := []string{constants.CacheDomainBookings}
	if len(rooms) > 0 {
		// the student's residence changed with the room
		domains = append(domains, constants.CacheDomainRooms, constants.CacheDomainUsers)
	}
	s.events.Publish(DomainEvent{
		Name:        name,
		BookingID:   booking.ID,
		StudentID:   booking.StudentID,
		RoomNumbers: rooms,
		Domains:     domains,
		Channels:    channels,
		Payload:     *booking,
	})
}

func ensureNoActiveBooking(ctx context.Context, tx *repository.Repository, studentID uint) error {
	existing, err := tx.Booking.FindActiveByStudent(ctx, studentID)
	if err != nil {
		return err
	}
	if existing != nil {
		return apperrors.Conflict(apperrors.ErrCodeDuplicateActiveBooking,
			fmt.Sprintf("Student %d already has active booking %d in room %s", studentID, existing.ID, existing.RoomNumber))
	}
	assignment, err := tx.Assignment.FindActiveByStudent(ctx, studentID)
	if err != nil {
		return err
	}
	if assignment != nil {
		return apperrors.Conflict(apperrors.ErrCodeDuplicateActiveBooking,
			fmt.Sprintf("Student %d already occupies room %s", studentID, assignment.RoomNumber))
	}
	return nil
}

func reloadBooking(ctx context.Context, repo *repository.Repository, bookingID uint) (*models.Booking, error) {
	booking, err := repo.Booking.GetByID(ctx, bookingID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound(apperrors.ErrCodeBookingNotFound, fmt.Sprintf("Booking %d not found", bookingID))
	}
	return booking, err
}

func lockRoom(ctx context.Context, tx *repository.Repository, roomNumber string) (*models.Room, error) {
	rooms, err := tx.Room.LockForUpdate(ctx, roomNumber)
	if err != nil {
		return nil, err
	}
	room := findRoom(rooms, roomNumber)
	if room == nil {
		return nil, roomNotFound(ctx, tx, roomNumber)
	}
	return room, nil
}

func findRoom(rooms []models.Room, number string) *models.Room {
	for i := range rooms {
		if rooms[i].RoomNumber == number {
			return &rooms[i]
		}
	}
	return nil
}
