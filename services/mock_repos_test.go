package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"dormitory/constants"
	apperrors "dormitory/errors"
	"dormitory/models"
	"dormitory/repository"

	"gorm.io/gorm"
)

// ── In-memory store shared by every mock repository ──

type memState struct {
	rooms       map[string]models.Room
	users       map[uint]models.User
	bookings    map[uint]models.Booking
	assignments map[string]models.Assignment
	archives    []models.BookingArchive
	settings    models.AcademicSettings
	nextID      uint
}

type memStore struct {
	txMu   sync.Mutex
	mu     sync.Mutex
	state  memState
	failOn map[string]error
}

func newMemStore() *memStore {
	return &memStore{
		state: memState{
			rooms:       make(map[string]models.Room),
			users:       make(map[uint]models.User),
			bookings:    make(map[uint]models.Booking),
			assignments: make(map[string]models.Assignment),
			settings: models.AcademicSettings{
				ID:                  models.AcademicSettingsID,
				CurrentAcademicYear: "2025-2026",
				CurrentSemester:     constants.SemesterFirst,
			},
		},
		failOn: make(map[string]error),
	}
}

func (s *memStore) snapshot() memState {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := memState{
		rooms:       make(map[string]models.Room, len(s.state.rooms)),
		users:       make(map[uint]models.User, len(s.state.users)),
		bookings:    make(map[uint]models.Booking, len(s.state.bookings)),
		assignments: make(map[string]models.Assignment, len(s.state.assignments)),
		archives:    append([]models.BookingArchive(nil), s.state.archives...),
		settings:    s.state.settings,
		nextID:      s.state.nextID,
	}
	for k, v := range s.state.rooms {
		snap.rooms[k] = v
	}
	for k, v := range s.state.users {
		snap.users[k] = v
	}
	for k, v := range s.state.bookings {
		snap.bookings[k] = v
	}
	for k, v := range s.state.assignments {
		snap.assignments[k] = v
	}
	return snap
}

func (s *memStore) restore(snap memState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = snap
}

func (s *memStore) fail(op string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failOn[op]
}

func (s *memStore) id() uint {
	s.state.nextID++
	return s.state.nextID
}

func assignmentKey(room string, studentID uint) string {
	return fmt.Sprintf("%s|%d", room, studentID)
}

func (s *memStore) repository() *repository.Repository {
	repo := s.plainRepository()
	repo.RunInTx = func(ctx context.Context, fn func(tx *repository.Repository) error) error {
		s.txMu.Lock()
		defer s.txMu.Unlock()
		snap := s.snapshot()
		if err := fn(s.plainRepository()); err != nil {
			s.restore(snap)
			return err
		}
		return nil
	}
	return repo
}

func (s *memStore) plainRepository() *repository.Repository {
	return &repository.Repository{
		Room:       &mockRoomRepo{s},
		Assignment: &mockAssignmentRepo{s},
		Booking:    &mockBookingRepo{s},
		Archive:    &mockArchiveRepo{s},
		Settings:   &mockSettingsRepo{s},
		User:       &mockUserRepo{s},
	}
}

// ── Fixtures ──

func (s *memStore) addRoom(number string, capacity int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	roomType := constants.RoomTypeSingle
	for t, c := range constants.RoomTypeCapacity {
		if c == capacity {
			roomType = t
		}
	}
	s.state.rooms[number] = models.Room{RoomNumber: number, RoomType: roomType, Capacity: capacity, IsAvailable: true}
}

func (s *memStore) addStudent(id uint, gender string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.users[id] = models.User{ID: id, Role: constants.RoleStudent, Gender: gender}
}

func (s *memStore) room(number string) models.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.rooms[number]
}

func (s *memStore) activeAssignments(room string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, a := range s.state.assignments {
		if a.RoomNumber == room && a.Status == constants.AssignmentStatusActive {
			n++
		}
	}
	return n
}

func (s *memStore) totalActiveAssignments() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, a := range s.state.assignments {
		if a.Status == constants.AssignmentStatusActive {
			n++
		}
	}
	return n
}

func (s *memStore) counts() (bookings, assignments int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.bookings), len(s.state.assignments)
}

// ── Mock RoomRepository ──

type mockRoomRepo struct{ s *memStore }

func (m *mockRoomRepo) GetByNumber(_ context.Context, number string) (*models.Room, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	room, ok := m.s.state.rooms[number]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &room, nil
}

func (m *mockRoomRepo) List(_ context.Context, filter repository.RoomFilter) ([]models.Room, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var rooms []models.Room
	for _, r := range m.s.state.rooms {
		if filter.RoomType != "" && r.RoomType != filter.RoomType {
			continue
		}
		if filter.AvailableOnly && (!r.IsAvailable || r.CurrentOccupancy >= r.Capacity) {
			continue
		}
		rooms = append(rooms, r)
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].RoomNumber < rooms[j].RoomNumber })
	return rooms, nil
}

func (m *mockRoomRepo) ListNumbers(_ context.Context) ([]string, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	numbers := make([]string, 0, len(m.s.state.rooms))
	for n := range m.s.state.rooms {
		numbers = append(numbers, n)
	}
	sort.Strings(numbers)
	return numbers, nil
}

func (m *mockRoomRepo) LockForUpdate(_ context.Context, numbers ...string) ([]models.Room, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var rooms []models.Room
	for _, n := range uniqueSorted(numbers) {
		if r, ok := m.s.state.rooms[n]; ok {
			rooms = append(rooms, r)
		}
	}
	return rooms, nil
}

func (m *mockRoomRepo) UpdateOccupancy(_ context.Context, number string, occupancy int) error {
	if err := m.s.fail("room.update_occupancy"); err != nil {
		return err
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	room, ok := m.s.state.rooms[number]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if occupancy < 0 || occupancy > room.Capacity {
		return apperrors.Conflict(apperrors.ErrCodeRoomFull, "Room is at full capacity")
	}
	room.CurrentOccupancy = occupancy
	m.s.state.rooms[number] = room
	return nil
}

func (m *mockRoomRepo) SetAvailability(_ context.Context, number string, available bool) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	room, ok := m.s.state.rooms[number]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	room.IsAvailable = available
	m.s.state.rooms[number] = room
	return nil
}

func (m *mockRoomRepo) Delete(_ context.Context, number string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.state.rooms[number]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.s.state.rooms, number)
	for k, a := range m.s.state.assignments {
		if a.RoomNumber == number {
			delete(m.s.state.assignments, k)
		}
	}
	return nil
}

// ── Mock AssignmentRepository ──

type mockAssignmentRepo struct{ s *memStore }

func (m *mockAssignmentRepo) CountActive(_ context.Context, roomNumber string) (int, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	n := 0
	for _, a := range m.s.state.assignments {
		if a.RoomNumber == roomNumber && a.Status == constants.AssignmentStatusActive {
			n++
		}
	}
	return n, nil
}

func (m *mockAssignmentRepo) ActiveOccupants(_ context.Context, roomNumber string) ([]models.Occupant, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var active []models.Assignment
	for _, a := range m.s.state.assignments {
		if a.RoomNumber == roomNumber && a.Status == constants.AssignmentStatusActive {
			active = append(active, a)
		}
	}
	sort.Slice(active, func(i, j int) bool {
		if !active[i].AssignedDate.Equal(active[j].AssignedDate) {
			return active[i].AssignedDate.Before(active[j].AssignedDate)
		}
		return active[i].ID < active[j].ID
	})
	occupants := make([]models.Occupant, 0, len(active))
	for _, a := range active {
		occupants = append(occupants, models.Occupant{
			StudentID:    a.StudentID,
			Gender:       m.s.state.users[a.StudentID].Gender,
			AssignedDate: a.AssignedDate,
		})
	}
	return occupants, nil
}

func (m *mockAssignmentRepo) FindActiveByStudent(_ context.Context, studentID uint) (*models.Assignment, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, a := range m.s.state.assignments {
		if a.StudentID == studentID && a.Status == constants.AssignmentStatusActive {
			return &a, nil
		}
	}
	return nil, nil
}

func (m *mockAssignmentRepo) Activate(_ context.Context, roomNumber string, studentID uint, at time.Time) (*models.Assignment, error) {
	if err := m.s.fail("assignment.activate"); err != nil {
		return nil, err
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, a := range m.s.state.assignments {
		if a.StudentID == studentID && a.Status == constants.AssignmentStatusActive && a.RoomNumber != roomNumber {
			return nil, apperrors.Conflict(apperrors.ErrCodeDuplicateActiveBooking, "Student already has an active booking")
		}
	}
	key := assignmentKey(roomNumber, studentID)
	a, ok := m.s.state.assignments[key]
	if !ok {
		a = models.Assignment{ID: m.s.id(), RoomNumber: roomNumber, StudentID: studentID, CreatedAt: at}
	}
	a.Status = constants.AssignmentStatusActive
	a.AssignedDate = at
	a.ReleasedAt = nil
	a.UpdatedAt = at
	m.s.state.assignments[key] = a
	return &a, nil
}

func (m *mockAssignmentRepo) Deactivate(_ context.Context, roomNumber string, studentID uint, at time.Time) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	key := assignmentKey(roomNumber, studentID)
	a, ok := m.s.state.assignments[key]
	if !ok || a.Status != constants.AssignmentStatusActive {
		return 0, nil
	}
	a.Status = constants.AssignmentStatusInactive
	released := at
	a.ReleasedAt = &released
	m.s.state.assignments[key] = a
	return 1, nil
}

func (m *mockAssignmentRepo) DeleteActive(_ context.Context, roomNumber string, studentID uint) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	key := assignmentKey(roomNumber, studentID)
	a, ok := m.s.state.assignments[key]
	if !ok || a.Status != constants.AssignmentStatusActive {
		return 0, nil
	}
	delete(m.s.state.assignments, key)
	return 1, nil
}

func (m *mockAssignmentRepo) RoomsWithActive(_ context.Context) ([]string, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var rooms []string
	for _, a := range m.s.state.assignments {
		if a.Status == constants.AssignmentStatusActive {
			rooms = append(rooms, a.RoomNumber)
		}
	}
	return uniqueSorted(rooms), nil
}

func (m *mockAssignmentRepo) DeleteAll(_ context.Context) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	n := int64(len(m.s.state.assignments))
	m.s.state.assignments = make(map[string]models.Assignment)
	return n, nil
}

// ── Mock BookingRepository ──

type mockBookingRepo struct{ s *memStore }

func (m *mockBookingRepo) withRoom(b models.Booking) *models.Booking {
	if room, ok := m.s.state.rooms[b.RoomNumber]; ok {
		b.Room = &room
	}
	return &b
}

func (m *mockBookingRepo) Create(_ context.Context, booking *models.Booking) error {
	if err := m.s.fail("booking.create"); err != nil {
		return err
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if booking.Status == constants.BookingStatusActive {
		for _, b := range m.s.state.bookings {
			if b.StudentID == booking.StudentID && b.Status == constants.BookingStatusActive {
				return apperrors.Conflict(apperrors.ErrCodeDuplicateActiveBooking, "Student already has an active booking")
			}
		}
	}
	booking.ID = m.s.id()
	stored := *booking
	stored.Room = nil
	m.s.state.bookings[booking.ID] = stored
	return nil
}

func (m *mockBookingRepo) GetByID(_ context.Context, id uint) (*models.Booking, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	b, ok := m.s.state.bookings[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return m.withRoom(b), nil
}

func (m *mockBookingRepo) FindActiveByStudent(_ context.Context, studentID uint) (*models.Booking, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, b := range m.s.state.bookings {
		if b.StudentID == studentID && b.Status == constants.BookingStatusActive {
			return &b, nil
		}
	}
	return nil, nil
}

func (m *mockBookingRepo) List(_ context.Context, filter repository.BookingFilter) ([]models.Booking, int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var all []models.Booking
	for _, b := range m.s.state.bookings {
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		if filter.RoomNumber != "" && b.RoomNumber != filter.RoomNumber {
			continue
		}
		if filter.StudentID != 0 && b.StudentID != filter.StudentID {
			continue
		}
		if filter.AcademicYear != "" && b.AcademicYear != filter.AcademicYear {
			continue
		}
		if filter.Semester != "" && b.Semester != filter.Semester {
			continue
		}
		all = append(all, *m.withRoom(b))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	total := int64(len(all))
	if filter.Limit > 0 {
		start := (filter.Page - 1) * filter.Limit
		if start < 0 {
			start = 0
		}
		if start > len(all) {
			start = len(all)
		}
		end := start + filter.Limit
		if end > len(all) {
			end = len(all)
		}
		all = all[start:end]
	}
	return all, total, nil
}

func (m *mockBookingRepo) ListByStudent(_ context.Context, studentID uint) ([]models.Booking, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []models.Booking
	for _, b := range m.s.state.bookings {
		if b.StudentID == studentID {
			out = append(out, *m.withRoom(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *mockBookingRepo) Update(_ context.Context, booking *models.Booking) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.state.bookings[booking.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	stored := *booking
	stored.Room = nil
	m.s.state.bookings[booking.ID] = stored
	return nil
}

func (m *mockBookingRepo) Delete(_ context.Context, id uint) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.state.bookings[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.s.state.bookings, id)
	return nil
}

func (m *mockBookingRepo) DeleteAll(_ context.Context) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	n := int64(len(m.s.state.bookings))
	m.s.state.bookings = make(map[uint]models.Booking)
	return n, nil
}

func (m *mockBookingRepo) FindByPeriod(ctx context.Context, academicYear, semester string) ([]models.Booking, error) {
	return m.FindByPeriodAndStatus(ctx, academicYear, semester, "")
}

func (m *mockBookingRepo) FindByPeriodAndStatus(_ context.Context, academicYear, semester, status string) ([]models.Booking, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []models.Booking
	for _, b := range m.s.state.bookings {
		if b.AcademicYear != academicYear {
			continue
		}
		if semester != "" && b.Semester != semester {
			continue
		}
		if status != "" && b.Status != status {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockBookingRepo) UpdateStatusByIDs(_ context.Context, ids []uint, status string) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var n int64
	for _, id := range ids {
		if b, ok := m.s.state.bookings[id]; ok {
			b.Status = status
			m.s.state.bookings[id] = b
			n++
		}
	}
	return n, nil
}

func (m *mockBookingRepo) DeleteByIDs(_ context.Context, ids []uint) (int64, error) {
	if err := m.s.fail("booking.delete_by_ids"); err != nil {
		return 0, err
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var n int64
	for _, id := range ids {
		if _, ok := m.s.state.bookings[id]; ok {
			delete(m.s.state.bookings, id)
			n++
		}
	}
	return n, nil
}

// ── Mock ArchiveRepository ──

type mockArchiveRepo struct{ s *memStore }

func (m *mockArchiveRepo) CreateBatch(_ context.Context, archives []models.BookingArchive) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, a := range archives {
		a.ID = m.s.id()
		m.s.state.archives = append(m.s.state.archives, a)
	}
	return nil
}

func (m *mockArchiveRepo) List(_ context.Context, academicYear, semester string) ([]models.BookingArchive, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []models.BookingArchive
	for _, a := range m.s.state.archives {
		if a.AcademicYear == academicYear && (semester == "" || a.Semester == semester) {
			out = append(out, a)
		}
	}
	return out, nil
}

// ── Mock SettingsRepository ──

type mockSettingsRepo struct{ s *memStore }

func (m *mockSettingsRepo) Get(_ context.Context) (*models.AcademicSettings, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	settings := m.s.state.settings
	return &settings, nil
}

func (m *mockSettingsRepo) Update(_ context.Context, settings *models.AcademicSettings) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.state.settings = *settings
	return nil
}

// ── Mock UserRepository ──

type mockUserRepo struct{ s *memStore }

func (m *mockUserRepo) GetByID(_ context.Context, id uint) (*models.User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	u, ok := m.s.state.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &u, nil
}
