package controllers

import (
	"context"

	"dormitory/dto"
	"dormitory/models"
	"dormitory/repository"
	"dormitory/response"
	"dormitory/services"
	"dormitory/validator"

	"github.com/gin-gonic/gin"
)

// BookingService is the booking surface the HTTP layer depends on.
type BookingService interface {
	CreateBooking(ctx context.Context, actor services.Actor, roomNumber string, termsAgreed bool) (*models.Booking, error)
	CreateBookingForStudent(ctx context.Context, actor services.Actor, studentID uint, roomNumber string, termsAgreed bool) (*models.Booking, error)
	CancelBooking(ctx context.Context, actor services.Actor, bookingID uint, reason string) (*models.Booking, error)
	UpdateBookingStatus(ctx context.Context, actor services.Actor, bookingID uint, status string) (*models.Booking, error)
	UpdatePaymentStatus(ctx context.Context, actor services.Actor, bookingID uint, paymentStatus, paymentMethod string) (*models.Booking, error)
	TransferBookingRoom(ctx context.Context, actor services.Actor, bookingID uint, newRoom string) (*models.Booking, error)
	DeleteBooking(ctx context.Context, actor services.Actor, bookingID uint) error
	ClearAllBookings(ctx context.Context, actor services.Actor) (int64, error)
	GetBooking(ctx context.Context, actor services.Actor, bookingID uint) (*models.Booking, error)
	ListBookings(ctx context.Context, actor services.Actor, filter repository.BookingFilter) ([]models.Booking, int64, error)
	MyBookings(ctx context.Context, actor services.Actor) ([]models.Booking, error)
}

type BookingController struct {
	bookings BookingService
}

func NewBookingController(bookings BookingService) *BookingController {
	return &BookingController{bookings: bookings}
}

// CreateBooking godoc
// @Summary  Book a bed for the calling student
// @Tags     bookings
// @Accept   json
// @Produce  json
// @Param    body body dto.CreateBookingRequest true "Booking request"
// @Success  201 {object} response.Response
// @Failure  409 {object} response.ErrorResponse
// @Router   /bookings [post]
func (ctrl *BookingController) CreateBooking(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req dto.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "roomNumber is required")
		return
	}

	booking, err := ctrl.bookings.CreateBooking(c.Request.Context(), actor, req.RoomNumber, req.TermsAgreed)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, dto.ToBookingResponse(booking))
}

// CreateBookingForStudent godoc
// @Summary  Book a bed on a student's behalf
// @Tags     admin
// @Accept   json
// @Produce  json
// @Param    body body dto.AdminCreateBookingRequest true "Booking request"
// @Success  201 {object} response.Response
// @Router   /admin/bookings [post]
func (ctrl *BookingController) CreateBookingForStudent(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req dto.AdminCreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "studentId and roomNumber are required")
		return
	}

	booking, err := ctrl.bookings.CreateBookingForStudent(c.Request.Context(), actor, req.StudentID, req.RoomNumber, req.TermsAgreed)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, dto.ToBookingResponse(booking))
}

// CancelBooking godoc
// @Summary  Cancel a booking and free its bed
// @Tags     bookings
// @Param    id   path int                      true  "Booking ID"
// @Param    body body dto.CancelBookingRequest false "Reason"
// @Success  200 {object} response.Response
// @Router   /bookings/{id}/cancel [put]
func (ctrl *BookingController) CancelBooking(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.CancelBookingRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "reason must be at most 500 characters")
			return
		}
	}

	booking, err := ctrl.bookings.CancelBooking(c.Request.Context(), actor, id, req.Reason)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, dto.ToBookingResponse(booking))
}

// @Summary  Change a booking's status
// @Tags     admin
// @Param    id   path int                            true "Booking ID"
// @Param    body body dto.UpdateBookingStatusRequest true "New status"
// @Success  200 {object} response.Response
// @Router   /admin/bookings/{id}/status [put]
func (ctrl *BookingController) UpdateBookingStatus(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateBookingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "status is required")
		return
	}

	booking, err := ctrl.bookings.UpdateBookingStatus(c.Request.Context(), actor, id, req.Status)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, dto.ToBookingResponse(booking))
}

// @Summary  Record a payment change
// @Tags     admin
// @Param    id   path int                            true "Booking ID"
// @Param    body body dto.UpdatePaymentStatusRequest true "Payment"
// @Success  200 {object} response.Response
// @Router   /admin/bookings/{id}/payment [put]
func (ctrl *BookingController) UpdatePaymentStatus(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.UpdatePaymentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "paymentStatus is required")
		return
	}

	booking, err := ctrl.bookings.UpdatePaymentStatus(c.Request.Context(), actor, id, req.PaymentStatus, req.PaymentMethod)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, dto.ToBookingResponse(booking))
}

// @Summary  Move a booking to another room
// @Tags     admin
// @Param    id   path int                        true "Booking ID"
// @Param    body body dto.TransferBookingRequest true "Destination"
// @Success  200 {object} response.Response
// @Router   /admin/bookings/{id}/room [put]
func (ctrl *BookingController) TransferBookingRoom(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.TransferBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "roomNumber is required")
		return
	}

	booking, err := ctrl.bookings.TransferBookingRoom(c.Request.Context(), actor, id, req.RoomNumber)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, dto.ToBookingResponse(booking))
}

// @Summary  Delete a booking
// @Tags     bookings
// @Param    id path int true "Booking ID"
// @Success  200 {object} response.Response
// @Router   /bookings/{id} [delete]
func (ctrl *BookingController) DeleteBooking(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.bookings.DeleteBooking(c.Request.Context(), actor, id); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"id": id})
}

// @Summary  Delete every booking and reset all rooms
// @Tags     admin
// @Success  200 {object} response.Response
// @Router   /admin/bookings [delete]
func (ctrl *BookingController) ClearAllBookings(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	deleted, err := ctrl.bookings.ClearAllBookings(c.Request.Context(), actor)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": deleted})
}

// @Summary  Get one booking
// @Tags     bookings
// @Param    id path int true "Booking ID"
// @Success  200 {object} response.Response
// @Router   /bookings/{id} [get]
func (ctrl *BookingController) GetBooking(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	booking, err := ctrl.bookings.GetBooking(c.Request.Context(), actor, id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, dto.ToBookingResponse(booking))
}

// @Summary  List bookings
// @Tags     admin
// @Param    status       query string false "Booking status"
// @Param    roomNumber   query string false "Room number"
// @Param    academicYear query string false "Academic year, e.g. 2025-2026"
// @Param    semester     query string false "Semester (1 or 2)"
// @Param    page         query int    false "Page"
// @Param    limit        query int    false "Page size"
// @Success  200 {object} response.Response
// @Router   /admin/bookings [get]
func (ctrl *BookingController) ListBookings(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var query dto.BookingListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}
	if err := validator.ValidateStruct(&query); err != nil {
		response.FromError(c, err)
		return
	}
	query.Normalize()

	bookings, total, err := ctrl.bookings.ListBookings(c.Request.Context(), actor, repository.BookingFilter{
		Status:       query.Status,
		RoomNumber:   query.RoomNumber,
		StudentID:    query.StudentID,
		AcademicYear: query.AcademicYear,
		Semester:     query.Semester,
		Page:         query.Page,
		Limit:        query.Limit,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessWithPagination(c, dto.ToBookingResponses(bookings), query.Page, query.Limit, int(total))
}

// @Summary  List the caller's bookings
// @Tags     bookings
// @Success  200 {object} response.Response
// @Router   /bookings/me [get]
func (ctrl *BookingController) MyBookings(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	bookings, err := ctrl.bookings.MyBookings(c.Request.Context(), actor)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, dto.ToBookingResponses(bookings))
}
