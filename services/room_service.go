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

type RoomService struct {
	repo   *repository.Repository
	locks  *RoomLocks
	sync   *OccupancySync
	events *EventBus
	cache  cache.Cache
	logger logger.Logger
}

type RoomServiceOptions struct {
	Repo   *repository.Repository
	Locks  *RoomLocks
	Events *EventBus
	Cache  cache.Cache
	Logger logger.Logger
}

func NewRoomService(opts RoomServiceOptions) *RoomService {
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
	return &RoomService{
		repo:   opts.Repo,
		locks:  opts.Locks,
		sync:   NewOccupancySync(opts.Logger),
		events: opts.Events,
		cache:  opts.Cache,
		logger: opts.Logger,
	}
}

type RoomFilter struct {
	RoomType      string
	AvailableOnly bool
	// Gender keeps only rooms a student of this gender could join.
	Gender string
}

// ListRooms reads the full room list through the cache and filters it in memory.
func (s *RoomService) ListRooms(ctx context.Context, filter RoomFilter) ([]models.Room, error) {
	if err := validator.ValidateRoomType(filter.RoomType); err != nil {
		return nil, err
	}

	key := cache.AllKey(constants.CacheDomainRooms)
	var rooms []models.Room
	found, err := s.cache.Get(ctx, key, &rooms)
	if err != nil {
		s.logger.Warn("cache read %s failed: %v", key, err)
	}
	if !found {
		rooms, err = s.repo.Room.List(ctx, repository.RoomFilter{})
		if err != nil {
			return nil, failure(s.logger, "list rooms", err)
		}
		if err := s.cache.Set(ctx, key, rooms); err != nil {
			s.logger.Warn("cache write %s failed: %v", key, err)
		}
	}

	result := make([]models.Room, 0, len(rooms))
	for _, room := range rooms {
		if filter.RoomType != "" && room.RoomType != filter.RoomType {
			continue
		}
		if filter.AvailableOnly && (!room.IsAvailable || room.Vacancies() == 0) {
			continue
		}
		if filter.Gender != "" && room.CurrentOccupancy > 0 {
			decision, err := CheckRoomGender(ctx, s.repo, room.RoomNumber, filter.Gender)
			if err != nil {
				return nil, failure(s.logger, "check room gender", err)
			}
			if !decision.Allowed {
				continue
			}
		}
		result = append(result, room)
	}
	return result, nil
}

func (s *RoomService) GetRoom(ctx context.Context, roomNumber string) (*models.Room, error) {
	number, err := validator.NormalizeRoomNumber(roomNumber)
	if err != nil {
		return nil, err
	}

	key := cache.Key(constants.CacheDomainRooms, number)
	var room models.Room
	found, err := s.cache.Get(ctx, key, &room)
	if err != nil {
		s.logger.Warn("cache read %s failed: %v", key, err)
	}
	if found {
		return &room, nil
	}

	loaded, err := s.repo.Room.GetByNumber(ctx, number)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, roomNotFound(ctx, s.repo, number)
	}
	if err != nil {
		return nil, failure(s.logger, "load room", err)
	}
	if err := s.cache.Set(ctx, key, loaded); err != nil {
		s.logger.Warn("cache write %s failed: %v", key, err)
	}
	return loaded, nil
}

// SetRoomAvailability opens or closes a room for booking. A room with
// occupants cannot be closed, and a room whose capacity does not fit its
// type cannot be opened.
func (s *RoomService) SetRoomAvailability(ctx context.Context, actor Actor, roomNumber string, available bool) (*models.Room, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	number, err := validator.NormalizeRoomNumber(roomNumber)
	if err != nil {
		return nil, err
	}

	guard := s.locks.Shared()
	defer guard.Release()
	guard.Rooms(number)

	var room *models.Room
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		locked, err := lockRoom(ctx, tx, number)
		if err != nil {
			return err
		}
		if !available {
			if err := ensureVacant(ctx, tx, locked, "closed"); err != nil {
				return err
			}
		} else if err := locked.ValidateCapacity(); err != nil {
			return apperrors.BadRequest(apperrors.ErrCodeInvalidInput, fmt.Sprintf("Room %s cannot be opened: %v", number, err))
		}
		if err := tx.Room.SetAvailability(ctx, number, available); err != nil {
			return err
		}
		locked.IsAvailable = available
		room = locked
		return nil
	})
	if err != nil {
		return nil, failure(s.logger, "set room availability", err)
	}

	s.logger.Info("room %s availability set to %t by %s", number, available, actor)
	s.events.Publish(DomainEvent{
		Name:        constants.EventRoomAvailability,
		RoomNumbers: []string{number},
		Domains:     []string{constants.CacheDomainRooms},
		Channels:    []string{constants.ChannelAdminBroadcast, constants.ChannelGlobalBroadcast},
		Payload:     *room,
	})
	return room, nil
}

// DeleteRoom removes an empty room.
func (s *RoomService) DeleteRoom(ctx context.Context, actor Actor, roomNumber string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	number, err := validator.NormalizeRoomNumber(roomNumber)
	if err != nil {
		return err
	}

	guard := s.locks.Shared()
	defer guard.Release()
	guard.Rooms(number)

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		locked, err := lockRoom(ctx, tx, number)
		if err != nil {
			return err
		}
		if err := ensureVacant(ctx, tx, locked, "deleted"); err != nil {
			return err
		}
		return tx.Room.Delete(ctx, number)
	})
	if err != nil {
		return failure(s.logger, "delete room", err)
	}

	s.logger.Info("room %s deleted by %s", number, actor)
	s.events.Publish(DomainEvent{
		Name:        constants.EventRoomDeleted,
		RoomNumbers: []string{number},
		Domains:     []string{constants.CacheDomainRooms},
		Channels:    []string{constants.ChannelAdminBroadcast, constants.ChannelGlobalBroadcast},
		Payload:     map[string]string{"roomNumber": number},
	})
	return nil
}

// SyncRoom recomputes one room's occupancy from the ledger.
func (s *RoomService) SyncRoom(ctx context.Context, actor Actor, roomNumber string) (*models.Room, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	number, err := validator.NormalizeRoomNumber(roomNumber)
	if err != nil {
		return nil, err
	}

	guard := s.locks.Shared()
	defer guard.Release()
	guard.Rooms(number)

	var room *models.Room
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		locked, err := lockRoom(ctx, tx, number)
		if err != nil {
			return err
		}
		count, err := s.sync.Sync(ctx, tx, number)
		if err != nil {
			return err
		}
		locked.CurrentOccupancy = count
		room = locked
		return nil
	})
	if err != nil {
		return nil, failure(s.logger, "sync room", err)
	}

	s.events.Publish(DomainEvent{
		Name:        constants.EventRoomsSynced,
		RoomNumbers: []string{number},
		Domains:     []string{constants.CacheDomainRooms},
		Channels:    []string{constants.ChannelAdminBroadcast},
		Payload:     map[string]int{number: room.CurrentOccupancy},
	})
	return room, nil
}

// SyncAllRooms recomputes every room's occupancy.
func (s *RoomService) SyncAllRooms(ctx context.Context, actor Actor) (map[string]int, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	guard := s.locks.Exclusive()
	defer guard.Release()

	start := time.Now()
	var counts map[string]int
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		numbers, err := tx.Room.ListNumbers(ctx)
		if err != nil {
			return err
		}
		if _, err := tx.Room.LockForUpdate(ctx, numbers...); err != nil {
			return err
		}
		counts, err = s.sync.SyncRooms(ctx, tx, numbers)
		return err
	})
	if err != nil {
		return nil, failure(s.logger, "sync rooms", err)
	}

	s.logger.Info("synced %d rooms in %s", len(counts), time.Since(start))
	s.events.Publish(DomainEvent{
		Name:     constants.EventRoomsSynced,
		Domains:  []string{constants.CacheDomainRooms},
		Channels: []string{constants.ChannelAdminBroadcast},
		Payload:  counts,
	})
	return counts, nil
}

func ensureVacant(ctx context.Context, tx *repository.Repository, room *models.Room, action string) error {
	active, err := tx.Assignment.CountActive(ctx, room.RoomNumber)
	if err != nil {
		return err
	}
	if active > 0 {
		return apperrors.Conflict(apperrors.ErrCodeRoomOccupied,
			fmt.Sprintf("Room %s has %d occupant(s) and cannot be %s", room.RoomNumber, active, action))
	}
	return nil
}
