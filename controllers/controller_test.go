package controllers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"dormitory/constants"
	apperrors "dormitory/errors"
	"dormitory/middleware"
	"dormitory/models"
	"dormitory/repository"
	"dormitory/services"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ── Mock services ──

type mockBookingService struct {
	booking    *models.Booking
	bookings   []models.Booking
	total      int64
	deleted    int64
	err        error
	lastActor  services.Actor
	lastFilter repository.BookingFilter
	lastReason string
}

func (m *mockBookingService) CreateBooking(_ context.Context, actor services.Actor, _ string, _ bool) (*models.Booking, error) {
	m.lastActor = actor
	return m.booking, m.err
}
func (m *mockBookingService) CreateBookingForStudent(_ context.Context, actor services.Actor, _ uint, _ string, _ bool) (*models.Booking, error) {
	m.lastActor = actor
	return m.booking, m.err
}
func (m *mockBookingService) CancelBooking(_ context.Context, _ services.Actor, _ uint, reason string) (*models.Booking, error) {
	m.lastReason = reason
	return m.booking, m.err
}
func (m *mockBookingService) UpdateBookingStatus(context.Context, services.Actor, uint, string) (*models.Booking, error) {
	return m.booking, m.err
}
func (m *mockBookingService) UpdatePaymentStatus(context.Context, services.Actor, uint, string, string) (*models.Booking, error) {
	return m.booking, m.err
}
func (m *mockBookingService) TransferBookingRoom(context.Context, services.Actor, uint, string) (*models.Booking, error) {
	return m.booking, m.err
}
func (m *mockBookingService) DeleteBooking(context.Context, services.Actor, uint) error {
	return m.err
}
func (m *mockBookingService) ClearAllBookings(context.Context, services.Actor) (int64, error) {
	return m.deleted, m.err
}
func (m *mockBookingService) GetBooking(context.Context, services.Actor, uint) (*models.Booking, error) {
	return m.booking, m.err
}
func (m *mockBookingService) ListBookings(_ context.Context, _ services.Actor, filter repository.BookingFilter) ([]models.Booking, int64, error) {
	m.lastFilter = filter
	return m.bookings, m.total, m.err
}
func (m *mockBookingService) MyBookings(context.Context, services.Actor) ([]models.Booking, error) {
	return m.bookings, m.err
}

type mockRoomService struct {
	room       *models.Room
	rooms      []models.Room
	counts     map[string]int
	err        error
	lastFilter services.RoomFilter
	available  bool
}

func (m *mockRoomService) ListRooms(_ context.Context, filter services.RoomFilter) ([]models.Room, error) {
	m.lastFilter = filter
	return m.rooms, m.err
}
func (m *mockRoomService) GetRoom(context.Context, string) (*models.Room, error) {
	return m.room, m.err
}
func (m *mockRoomService) SetRoomAvailability(_ context.Context, _ services.Actor, _ string, available bool) (*models.Room, error) {
	m.available = available
	return m.room, m.err
}
func (m *mockRoomService) DeleteRoom(context.Context, services.Actor, string) error {
	return m.err
}
func (m *mockRoomService) SyncRoom(context.Context, services.Actor, string) (*models.Room, error) {
	return m.room, m.err
}
func (m *mockRoomService) SyncAllRooms(context.Context, services.Actor) (map[string]int, error) {
	return m.counts, m.err
}

type mockAcademicService struct {
	settings   *models.AcademicSettings
	transition *services.TransitionResult
	archive    *services.ArchiveResult
	err        error
	lastPeriod [2]string
}

func (m *mockAcademicService) GetSettings(context.Context) (*models.AcademicSettings, error) {
	return m.settings, m.err
}
func (m *mockAcademicService) SetBookingsLocked(_ context.Context, _ services.Actor, locked bool) (*models.AcademicSettings, error) {
	if m.settings != nil {
		m.settings.BookingsLocked = locked
	}
	return m.settings, m.err
}
func (m *mockAcademicService) TransitionSemester(context.Context, services.Actor) (*services.TransitionResult, error) {
	return m.transition, m.err
}
func (m *mockAcademicService) ArchiveOldBookings(_ context.Context, _ services.Actor, year, semester string) (*services.ArchiveResult, error) {
	m.lastPeriod = [2]string{year, semester}
	return m.archive, m.err
}
func (m *mockAcademicService) ListArchive(context.Context, services.Actor, string, string) ([]models.BookingArchive, error) {
	return nil, m.err
}

// ── Helpers ──

// withActor stands in for AuthMiddleware.
func withActor(id uint, role int) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDKey, id)
		c.Set(middleware.UserRoleKey, role)
		c.Next()
	}
}

type envelope struct {
	Code       int             `json:"code"`
	Mess       string          `json:"mess"`
	Data       json.RawMessage `json:"data"`
	ErrorCode  string          `json:"errorCode"`
	Suggestion string          `json:"suggestion"`
	Pagination *struct {
		Page  int `json:"page"`
		Limit int `json:"limit"`
		Total int `json:"total"`
	} `json:"pagination"`
}

func perform(t *testing.T, r *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			t.Fatalf("response is not JSON: %s", w.Body.String())
		}
	}
	return w, env
}

func sampleBooking() *models.Booking {
	return &models.Booking{
		ID:            11,
		StudentID:     5,
		RoomNumber:    "A101",
		Status:        constants.BookingStatusActive,
		PaymentStatus: constants.PaymentStatusPending,
		TermsAgreed:   true,
		AcademicYear:  "2025-2026",
		Semester:      constants.SemesterFirst,
		Room:          &models.Room{RoomNumber: "A101", RoomType: constants.RoomTypeDouble, Capacity: 2, CurrentOccupancy: 1, IsAvailable: true},
	}
}

// ── Booking handlers ──

func TestCreateBookingHandler(t *testing.T) {
	tests := []struct {
		name       string
		body       interface{}
		serviceErr error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "created",
			body:       map[string]interface{}{"roomNumber": "A101", "termsAgreed": true},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "missing room number",
			body:       map[string]interface{}{"termsAgreed": true},
			wantStatus: http.StatusBadRequest,
			wantCode:   string(apperrors.ErrCodeInvalidInput),
		},
		{
			name:       "room full",
			body:       map[string]interface{}{"roomNumber": "A101", "termsAgreed": true},
			serviceErr: apperrors.Conflict(apperrors.ErrCodeRoomFull, "Room A101 is full (2/2)"),
			wantStatus: http.StatusConflict,
			wantCode:   string(apperrors.ErrCodeRoomFull),
		},
		{
			name:       "internal error hides cause",
			body:       map[string]interface{}{"roomNumber": "A101", "termsAgreed": true},
			serviceErr: apperrors.Internal("Could not create booking", context.DeadlineExceeded),
			wantStatus: http.StatusInternalServerError,
			wantCode:   string(apperrors.ErrCodeDBError),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockBookingService{booking: sampleBooking(), err: tt.serviceErr}
			r := gin.New()
			r.POST("/bookings", withActor(5, constants.RoleStudent), NewBookingController(svc).CreateBooking)

			w, env := perform(t, r, http.MethodPost, "/bookings", tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if env.ErrorCode != tt.wantCode {
				t.Errorf("errorCode = %q, want %q", env.ErrorCode, tt.wantCode)
			}
			if tt.wantStatus == http.StatusInternalServerError && env.Mess != "Internal server error" {
				t.Errorf("internal detail leaked: %q", env.Mess)
			}
			if tt.wantStatus == http.StatusCreated && svc.lastActor.ID != 5 {
				t.Errorf("actor = %+v", svc.lastActor)
			}
		})
	}
}

func TestHandlersRequireActor(t *testing.T) {
	svc := &mockBookingService{booking: sampleBooking()}
	r := gin.New()
	r.POST("/bookings", NewBookingController(svc).CreateBooking)

	w, _ := perform(t, r, http.MethodPost, "/bookings", map[string]interface{}{"roomNumber": "A101"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestCancelBookingHandler(t *testing.T) {
	svc := &mockBookingService{booking: sampleBooking()}
	r := gin.New()
	r.PUT("/bookings/:id/cancel", withActor(5, constants.RoleStudent), NewBookingController(svc).CancelBooking)

	w, _ := perform(t, r, http.MethodPut, "/bookings/abc/cancel", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad id status = %d", w.Code)
	}

	w, _ = perform(t, r, http.MethodPut, "/bookings/11/cancel", map[string]string{"reason": "graduating"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", w.Code, w.Body.String())
	}
	if svc.lastReason != "graduating" {
		t.Errorf("reason = %q", svc.lastReason)
	}

	svc.err = apperrors.Forbidden("You can only manage your own bookings")
	w, env := perform(t, r, http.MethodPut, "/bookings/11/cancel", nil)
	if w.Code != http.StatusForbidden || env.ErrorCode != string(apperrors.ErrCodeForbidden) {
		t.Errorf("status = %d code = %s", w.Code, env.ErrorCode)
	}
}

func TestListBookingsHandler(t *testing.T) {
	svc := &mockBookingService{bookings: []models.Booking{*sampleBooking()}, total: 41}
	r := gin.New()
	r.GET("/admin/bookings", withActor(1, constants.RoleAdmin), NewBookingController(svc).ListBookings)

	w, env := perform(t, r, http.MethodGet, "/admin/bookings?status=active&page=3&limit=20&semester=1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", w.Code, w.Body.String())
	}
	if svc.lastFilter.Status != "active" || svc.lastFilter.Page != 3 || svc.lastFilter.Semester != "1" {
		t.Errorf("filter = %+v", svc.lastFilter)
	}
	if env.Pagination == nil || env.Pagination.Total != 41 || env.Pagination.Limit != 20 {
		t.Errorf("pagination = %+v", env.Pagination)
	}

	w, _ = perform(t, r, http.MethodGet, "/admin/bookings?semester=3", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid semester status = %d", w.Code)
	}

	_, _ = perform(t, r, http.MethodGet, "/admin/bookings", nil)
	if svc.lastFilter.Page != 1 || svc.lastFilter.Limit != 20 {
		t.Errorf("default paging = %d/%d", svc.lastFilter.Page, svc.lastFilter.Limit)
	}
}

func TestClearAllBookingsHandler(t *testing.T) {
	svc := &mockBookingService{deleted: 7}
	r := gin.New()
	r.DELETE("/admin/bookings", withActor(1, constants.RoleAdmin), NewBookingController(svc).ClearAllBookings)

	w, env := perform(t, r, http.MethodDelete, "/admin/bookings", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var data struct {
		Deleted int64 `json:"deleted"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil || data.Deleted != 7 {
		t.Errorf("data = %s", env.Data)
	}
}

// ── Room handlers ──

func TestGetRoomNotFoundCarriesSuggestion(t *testing.T) {
	notFound := apperrors.NotFound(apperrors.ErrCodeRoomNotFound, "Room A110 not found, did you mean A101?")
	notFound.Suggestion = "A101"
	svc := &mockRoomService{err: notFound}
	r := gin.New()
	r.GET("/rooms/:number", NewRoomController(svc).GetRoom)

	w, env := perform(t, r, http.MethodGet, "/rooms/A110", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
	if env.Suggestion != "A101" || env.ErrorCode != string(apperrors.ErrCodeRoomNotFound) {
		t.Errorf("unexpected body %s", w.Body.String())
	}
}

func TestListRoomsHandler(t *testing.T) {
	svc := &mockRoomService{rooms: []models.Room{{RoomNumber: "A101", Capacity: 2, CurrentOccupancy: 1, IsAvailable: true}}}
	r := gin.New()
	r.GET("/rooms", NewRoomController(svc).ListRooms)

	w, env := perform(t, r, http.MethodGet, "/rooms?availableOnly=true&gender=female", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", w.Code, w.Body.String())
	}
	if !svc.lastFilter.AvailableOnly || svc.lastFilter.Gender != constants.GenderFemale {
		t.Errorf("filter = %+v", svc.lastFilter)
	}
	var rooms []struct {
		RoomNumber string `json:"roomNumber"`
		Vacancies  int    `json:"vacancies"`
	}
	if err := json.Unmarshal(env.Data, &rooms); err != nil || len(rooms) != 1 || rooms[0].Vacancies != 1 {
		t.Errorf("data = %s", env.Data)
	}

	w, _ = perform(t, r, http.MethodGet, "/rooms?gender=other", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid gender status = %d", w.Code)
	}
}

func TestSetRoomAvailabilityHandler(t *testing.T) {
	svc := &mockRoomService{room: &models.Room{RoomNumber: "A101", Capacity: 2}}
	r := gin.New()
	r.PUT("/admin/rooms/:number/availability", withActor(1, constants.RoleAdmin), NewRoomController(svc).SetRoomAvailability)

	w, _ := perform(t, r, http.MethodPut, "/admin/rooms/A101/availability", map[string]interface{}{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing isAvailable status = %d", w.Code)
	}

	w, _ = perform(t, r, http.MethodPut, "/admin/rooms/A101/availability", map[string]interface{}{"isAvailable": false})
	if w.Code != http.StatusOK || svc.available {
		t.Errorf("status = %d available = %t", w.Code, svc.available)
	}

	svc.err = apperrors.Conflict(apperrors.ErrCodeRoomOccupied, "Room A101 has 1 occupant(s) and cannot be closed")
	w, env := perform(t, r, http.MethodPut, "/admin/rooms/A101/availability", map[string]interface{}{"isAvailable": false})
	if w.Code != http.StatusConflict || env.ErrorCode != string(apperrors.ErrCodeRoomOccupied) {
		t.Errorf("status = %d code = %s", w.Code, env.ErrorCode)
	}
}

// ── Academic handlers ──

func TestAcademicHandlers(t *testing.T) {
	svc := &mockAcademicService{
		settings: &models.AcademicSettings{CurrentAcademicYear: "2025-2026", CurrentSemester: "1"},
		archive:  &services.ArchiveResult{AcademicYear: "2024-2025", Archived: 3, Rooms: []string{}},
	}
	ctrl := NewAcademicController(svc)
	r := gin.New()
	r.GET("/academic-settings", ctrl.GetSettings)
	admin := r.Group("/admin", withActor(1, constants.RoleAdmin))
	admin.PUT("/academic-settings", ctrl.UpdateSettings)
	admin.POST("/archive", ctrl.ArchiveOldBookings)

	w, _ := perform(t, r, http.MethodGet, "/academic-settings", nil)
	if w.Code != http.StatusOK {
		t.Errorf("get settings status = %d", w.Code)
	}

	w, _ = perform(t, r, http.MethodPut, "/admin/academic-settings", map[string]interface{}{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing bookingsLocked status = %d", w.Code)
	}
	w, _ = perform(t, r, http.MethodPut, "/admin/academic-settings", map[string]interface{}{"bookingsLocked": true})
	if w.Code != http.StatusOK || !svc.settings.BookingsLocked {
		t.Errorf("status = %d locked = %t", w.Code, svc.settings.BookingsLocked)
	}

	w, _ = perform(t, r, http.MethodPost, "/admin/archive", map[string]string{"academicYear": "2024-2025", "semester": "5"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid semester status = %d", w.Code)
	}
	w, _ = perform(t, r, http.MethodPost, "/admin/archive", map[string]string{"academicYear": "2024-2025"})
	if w.Code != http.StatusOK || svc.lastPeriod != [2]string{"2024-2025", ""} {
		t.Errorf("status = %d period = %v", w.Code, svc.lastPeriod)
	}
}
