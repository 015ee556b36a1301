package services

import (
	"context"
	"fmt"
	"time"

	"dormitory/constants"
	apperrors "dormitory/errors"
	"dormitory/models"
	"dormitory/repository"
	"dormitory/services/logger"
	"dormitory/validator"

	"github.com/goccy/go-json"
	"gorm.io/datatypes"
)

// AcademicService manages the academic calendar: the settings row, semester
// transitions and archiving of past bookings.
type AcademicService struct {
	repo   *repository.Repository
	locks  *RoomLocks
	sync   *OccupancySync
	events *EventBus
	logger logger.Logger
	now    func() time.Time
}

type AcademicServiceOptions struct {
	Repo   *repository.Repository
	Locks  *RoomLocks
	Events *EventBus
	Logger logger.Logger
}

func NewAcademicService(opts AcademicServiceOptions) *AcademicService {
	if opts.Logger == nil {
		opts.Logger = logger.NewNopLogger()
	}
	if opts.Locks == nil {
		opts.Locks = NewRoomLocks()
	}
	if opts.Events == nil {
		opts.Events = NewEventBus(opts.Logger, 0)
	}
	return &AcademicService{
		repo:   opts.Repo,
		locks:  opts.Locks,
		sync:   NewOccupancySync(opts.Logger),
		events: opts.Events,
		logger: opts.Logger,
		now:    time.Now,
	}
}

type ArchiveResult struct {
	AcademicYear string   `json:"academicYear"`
	Semester     string   `json:"semester,omitempty"`
	Archived     int      `json:"archived"`
	Released     int      `json:"released"`
	Rooms        []string `json:"rooms"`
}

type TransitionResult struct {
	FromAcademicYear string   `json:"fromAcademicYear"`
	FromSemester     string   `json:"fromSemester"`
	ToAcademicYear   string   `json:"toAcademicYear"`
	ToSemester       string   `json:"toSemester"`
	Superseded       int      `json:"superseded"`
	Rooms            []string `json:"rooms"`
}

func (s *AcademicService) GetSettings(ctx context.Context) (*models.AcademicSettings, error) {
	settings, err := s.repo.Settings.Get(ctx)
	if err != nil {
		return nil, failure(s.logger, "load academic settings", err)
	}
	return settings, nil
}

// SetBookingsLocked opens or closes self-service booking.
func (s *AcademicService) SetBookingsLocked(ctx context.Context, actor Actor, locked bool) (*models.AcademicSettings, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	var settings *models.AcademicSettings
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		current, err := tx.Settings.Get(ctx)
		if err != nil {
			return err
		}
		current.BookingsLocked = locked
		current.UpdatedBy = actor.userRef()
		if err := tx.Settings.Update(ctx, current); err != nil {
			return err
		}
		settings = current
		return nil
	})
	if err != nil {
		return nil, failure(s.logger, "update academic settings", err)
	}

	s.logger.Info("bookings locked=%t set by %s", locked, actor)
	s.events.Publish(DomainEvent{
		Name:     constants.EventAcademicSettingsUpdate,
		Channels: []string{constants.ChannelGlobalBroadcast},
		Payload:  *settings,
	})
	return settings, nil
}

// TransitionSemester advances the calendar by one semester. Active bookings of
// the semester being closed become inactive and release their beds in the same
// transaction.
func (s *AcademicService) TransitionSemester(ctx context.Context, actor Actor) (*TransitionResult, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	guard := s.locks.Exclusive()
	defer guard.Release()

	var result *TransitionResult
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		settings, err := tx.Settings.Get(ctx)
		if err != nil {
			return err
		}
		nextYear, nextSemester, err := models.NextPeriod(settings.CurrentAcademicYear, settings.CurrentSemester)
		if err != nil {
			return apperrors.Internal("Academic settings hold an invalid period", err)
		}

		superseded, err := tx.Booking.FindByPeriodAndStatus(ctx,
			settings.CurrentAcademicYear, settings.CurrentSemester, constants.BookingStatusActive)
		if err != nil {
			return err
		}

		ids := make([]uint, 0, len(superseded))
		rooms := make([]string, 0, len(superseded))
		now := s.now()
		for _, b := range superseded {
			ids = append(ids, b.ID)
			rooms = append(rooms, b.RoomNumber)
			if _, err := tx.Assignment.Deactivate(ctx, b.RoomNumber, b.StudentID, now); err != nil {
				return err
			}
		}
		if _, err := tx.Booking.UpdateStatusByIDs(ctx, ids, constants.BookingStatusInactive); err != nil {
			return err
		}
		synced, err := s.sync.SyncRooms(ctx, tx, rooms)
		if err != nil {
			return err
		}

		result = &TransitionResult{
			FromAcademicYear: settings.CurrentAcademicYear,
			FromSemester:     settings.CurrentSemester,
			ToAcademicYear:   nextYear,
			ToSemester:       nextSemester,
			Superseded:       len(ids),
			Rooms:            sortedKeys(synced),
		}

		settings.CurrentAcademicYear = nextYear
		settings.CurrentSemester = nextSemester
		settings.UpdatedBy = actor.userRef()
		return tx.Settings.Update(ctx, settings)
	})
	if err != nil {
		return nil, failure(s.logger, "transition semester", err)
	}

	s.logger.Info("semester moved from %s/%s to %s/%s by %s, %d bookings superseded",
		result.FromAcademicYear, result.FromSemester, result.ToAcademicYear, result.ToSemester, actor, result.Superseded)
	s.events.Publish(DomainEvent{
		Name:        constants.EventSemesterTransitioned,
		RoomNumbers: result.Rooms,
		Domains:     []string{constants.CacheDomainRooms, constants.CacheDomainBookings},
		Channels:    []string{constants.ChannelAdminBroadcast, constants.ChannelGlobalBroadcast},
		Payload:     *result,
	})
	return result, nil
}

// ArchiveOldBookings snapshots every booking of a period into the archive and
// purges the originals. Bookings that still hold a bed release it first.
// An empty semester archives the whole academic year.
func (s *AcademicService) ArchiveOldBookings(ctx context.Context, actor Actor, academicYear, semester string) (*ArchiveResult, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := validator.ValidateAcademicPeriod(academicYear, semester); err != nil {
		return nil, err
	}

	guard := s.locks.Exclusive()
	defer guard.Release()

	result := &ArchiveResult{AcademicYear: academicYear, Semester: semester, Rooms: []string{}}
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		bookings, err := tx.Booking.FindByPeriod(ctx, academicYear, semester)
		if err != nil {
			return err
		}
		if len(bookings) == 0 {
			return nil
		}

		now := s.now()
		archives := make([]models.BookingArchive, 0, len(bookings))
		ids := make([]uint, 0, len(bookings))
		var rooms []string
		for i := range bookings {
			b := &bookings[i]
			archive, err := snapshotBooking(b, actor.userRef(), now)
			if err != nil {
				return err
			}
			archives = append(archives, archive)
			ids = append(ids, b.ID)

			if b.HoldsBed() {
				if _, err := tx.Assignment.Deactivate(ctx, b.RoomNumber, b.StudentID, now); err != nil {
					return err
				}
				rooms = append(rooms, b.RoomNumber)
				result.Released++
			}
		}

		if err := tx.Archive.CreateBatch(ctx, archives); err != nil {
			return err
		}
		if _, err := tx.Booking.DeleteByIDs(ctx, ids); err != nil {
			return err
		}
		synced, err := s.sync.SyncRooms(ctx, tx, rooms)
		if err != nil {
			return err
		}
		result.Archived = len(archives)
		result.Rooms = sortedKeys(synced)
		return nil
	})
	if err != nil {
		return nil, failure(s.logger, "archive bookings", err)
	}

	s.logger.Info("archived %d bookings of %s/%s by %s (%d beds released)",
		result.Archived, academicYear, semester, actor, result.Released)
	if result.Archived > 0 {
		s.events.Publish(DomainEvent{
			Name:        constants.EventBookingsArchived,
			RoomNumbers: result.Rooms,
			Domains:     []string{constants.CacheDomainBookings, constants.CacheDomainRooms},
			Channels:    []string{constants.ChannelAdminBroadcast},
			Payload:     *result,
		})
	}
	return result, nil
}

// ListArchive returns archived bookings of a period.
func (s *AcademicService) ListArchive(ctx context.Context, actor Actor, academicYear, semester string) ([]models.BookingArchive, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := validator.ValidateAcademicPeriod(academicYear, semester); err != nil {
		return nil, err
	}
	archives, err := s.repo.Archive.List(ctx, academicYear, semester)
	if err != nil {
		return nil, failure(s.logger, "list archive", err)
	}
	return archives, nil
}

// ArchivePreviousYear archives the academic year before the current one.
// The scheduled job calls it with SystemActor.
func (s *AcademicService) ArchivePreviousYear(ctx context.Context, actor Actor) (*ArchiveResult, error) {
	settings, err := s.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	previous, err := models.PreviousAcademicYear(settings.CurrentAcademicYear)
	if err != nil {
		return nil, apperrors.Internal("Academic settings hold an invalid period", err)
	}
	return s.ArchiveOldBookings(ctx, actor, previous, "")
}

func snapshotBooking(b *models.Booking, archivedBy *uint, at time.Time) (models.BookingArchive, error) {
	b.Room = nil
	b.Student = nil
	raw, err := json.Marshal(b)
	if err != nil {
		return models.BookingArchive{}, fmt.Errorf("snapshot booking %d: %w", b.ID, err)
	}
	return models.BookingArchive{
		OriginalBookingID: b.ID,
		StudentID:         b.StudentID,
		RoomNumber:        b.RoomNumber,
		Status:            b.Status,
		PaymentStatus:     b.PaymentStatus,
		AcademicYear:      b.AcademicYear,
		Semester:          b.Semester,
		BookedAt:          b.CreatedAt,
		Snapshot:          datatypes.JSON(raw),
		ArchivedBy:        archivedBy,
		ArchivedAt:        at,
	}, nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return uniqueSorted(keys)
}
