package dto

import (
	"time"

	"dormitory/models"
)

// CreateBookingRequest is a student's own booking request.
type CreateBookingRequest struct {
	RoomNumber  string `json:"roomNumber" binding:"required"`
	TermsAgreed bool   `json:"termsAgreed"`
}

// AdminCreateBookingRequest books a bed on a student's behalf.
type AdminCreateBookingRequest struct {
	StudentID   uint   `json:"studentId" binding:"required"`
	RoomNumber  string `json:"roomNumber" binding:"required"`
	TermsAgreed bool   `json:"termsAgreed"`
}

type CancelBookingRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

type UpdateBookingStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type UpdatePaymentStatusRequest struct {
	PaymentStatus string `json:"paymentStatus" binding:"required"`
	PaymentMethod string `json:"paymentMethod" binding:"max=50"`
}

type TransferBookingRequest struct {
	RoomNumber string `json:"roomNumber" binding:"required"`
}

// BookingListQuery filters the admin booking list.
type BookingListQuery struct {
	PageQuery
	Status       string `form:"status"`
	RoomNumber   string `form:"roomNumber"`
	StudentID    uint   `form:"studentId"`
	AcademicYear string `form:"academicYear" validate:"omitempty,len=9"`
	Semester     string `form:"semester" validate:"omitempty,oneof=1 2"`
}

type BookingResponse struct {
	ID                 uint          `json:"id"`
	StudentID          uint          `json:"studentId"`
	RoomNumber         string        `json:"roomNumber"`
	CreatedByAdmin     *uint         `json:"createdByAdmin,omitempty"`
	Status             string        `json:"status"`
	PaymentStatus      string        `json:"paymentStatus"`
	PaymentMethod      string        `json:"paymentMethod,omitempty"`
	TermsAgreed        bool          `json:"termsAgreed"`
	CancellationReason string        `json:"cancellationReason,omitempty"`
	CancelledAt        *time.Time    `json:"cancelledAt,omitempty"`
	AcademicYear       string        `json:"academicYear"`
	Semester           string        `json:"semester"`
	CreatedAt          time.Time     `json:"createdAt"`
	UpdatedAt          time.Time     `json:"updatedAt"`
	Room               *RoomResponse `json:"room,omitempty"`
}

func ToBookingResponse(b *models.Booking) BookingResponse {
	resp := BookingResponse{
		ID:                 b.ID,
		StudentID:          b.StudentID,
		RoomNumber:         b.RoomNumber,
		CreatedByAdmin:     b.CreatedByAdmin,
		Status:             b.Status,
		PaymentStatus:      b.PaymentStatus,
		PaymentMethod:      b.PaymentMethod,
		TermsAgreed:        b.TermsAgreed,
		CancellationReason: b.CancellationReason,
		CancelledAt:        b.CancelledAt,
		AcademicYear:       b.AcademicYear,
		Semester:           b.Semester,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}
	if b.Room != nil {
		room := ToRoomResponse(b.Room)
		resp.Room = &room
	}
	return resp
}

func ToBookingResponses(bookings []models.Booking) []BookingResponse {
	out := make([]BookingResponse, 0, len(bookings))
	for i := range bookings {
		out = append(out, ToBookingResponse(&bookings[i]))
	}
	return out
}
