package controllers

import (
	"context"

	"dormitory/dto"
	"dormitory/models"
	"dormitory/response"
	"dormitory/services"
	"dormitory/validator"

	"github.com/gin-gonic/gin"
)

type AcademicService interface {
	GetSettings(ctx context.Context) (*models.AcademicSettings, error)
	SetBookingsLocked(ctx context.Context, actor services.Actor, locked bool) (*models.AcademicSettings, error)
	TransitionSemester(ctx context.Context, actor services.Actor) (*services.TransitionResult, error)
	ArchiveOldBookings(ctx context.Context, actor services.Actor, academicYear, semester string) (*services.ArchiveResult, error)
	ListArchive(ctx context.Context, actor services.Actor, academicYear, semester string) ([]models.BookingArchive, error)
}

type AcademicController struct {
	academic AcademicService
}

func NewAcademicController(academic AcademicService) *AcademicController {
	return &AcademicController{academic: academic}
}

// @Summary  Current academic period and booking lock
// @Tags     academic
// @Success  200 {object} response.Response
// @Router   /academic-settings [get]
func (ctrl *AcademicController) GetSettings(c *gin.Context) {
	settings, err := ctrl.academic.GetSettings(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, settings)
}

// @Summary  Lock or unlock self-service booking
// @Tags     admin
// @Param    body body dto.AcademicSettingsRequest true "Settings"
// @Success  200 {object} response.Response
// @Router   /admin/academic-settings [put]
func (ctrl *AcademicController) UpdateSettings(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req dto.AcademicSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "bookingsLocked is required")
		return
	}

	settings, err := ctrl.academic.SetBookingsLocked(c.Request.Context(), actor, *req.BookingsLocked)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, settings)
}

// @Summary  Advance to the next semester
// @Tags     admin
// @Success  200 {object} response.Response
// @Router   /admin/semester/transition [post]
func (ctrl *AcademicController) TransitionSemester(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	result, err := ctrl.academic.TransitionSemester(c.Request.Context(), actor)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, result)
}

// @Summary  Archive and purge the bookings of a period
// @Tags     admin
// @Param    body body dto.ArchiveRequest true "Period"
// @Success  200 {object} response.Response
// @Router   /admin/archive [post]
func (ctrl *AcademicController) ArchiveOldBookings(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req dto.ArchiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "academicYear is required and semester must be 1 or 2")
		return
	}

	result, err := ctrl.academic.ArchiveOldBookings(c.Request.Context(), actor, req.AcademicYear, req.Semester)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, result)
}

// @Summary  List archived bookings of a period
// @Tags     admin
// @Param    academicYear query string true  "Academic year"
// @Param    semester     query string false "Semester"
// @Success  200 {object} response.Response
// @Router   /admin/archive [get]
func (ctrl *AcademicController) ListArchive(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var query dto.ArchiveListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}
	if err := validator.ValidateStruct(&query); err != nil {
		response.FromError(c, err)
		return
	}

	archives, err := ctrl.academic.ListArchive(c.Request.Context(), actor, query.AcademicYear, query.Semester)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, archives)
}
