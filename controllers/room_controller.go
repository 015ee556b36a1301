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

type RoomService interface {
	ListRooms(ctx context.Context, filter services.RoomFilter) ([]models.Room, error)
	GetRoom(ctx context.Context, roomNumber string) (*models.Room, error)
	SetRoomAvailability(ctx context.Context, actor services.Actor, roomNumber string, available bool) (*models.Room, error)
	DeleteRoom(ctx context.Context, actor services.Actor, roomNumber string) error
	SyncRoom(ctx context.Context, actor services.Actor, roomNumber string) (*models.Room, error)
	SyncAllRooms(ctx context.Context, actor services.Actor) (map[string]int, error)
}

type RoomController struct {
	rooms RoomService
}

func NewRoomController(rooms RoomService) *RoomController {
	return &RoomController{rooms: rooms}
}

// ListRooms godoc
// @Summary  List rooms
// @Tags     rooms
// @Param    roomType      query string false "single, double, triple or quad"
// @Param    availableOnly query bool   false "Only rooms with a free bed"
// @Param    gender        query string false "Only rooms this gender may join"
// @Success  200 {object} response.Response
// @Router   /rooms [get]
func (ctrl *RoomController) ListRooms(c *gin.Context) {
	var query dto.RoomListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}
	if err := validator.ValidateStruct(&query); err != nil {
		response.FromError(c, err)
		return
	}

	rooms, err := ctrl.rooms.ListRooms(c.Request.Context(), services.RoomFilter{
		RoomType:      query.RoomType,
		AvailableOnly: query.AvailableOnly,
		Gender:        query.Gender,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, dto.ToRoomResponses(rooms))
}

// @Summary  Get one room
// @Tags     rooms
// @Param    number path string true "Room number"
// @Success  200 {object} response.Response
// @Failure  404 {object} response.ErrorResponse
// @Router   /rooms/{number} [get]
func (ctrl *RoomController) GetRoom(c *gin.Context) {
	room, err := ctrl.rooms.GetRoom(c.Request.Context(), c.Param("number"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, dto.ToRoomResponse(room))
}

// @Summary  Open or close a room for booking
// @Tags     admin
// @Param    number path string                      true "Room number"
// @Param    body   body dto.RoomAvailabilityRequest true "Availability"
// @Success  200 {object} response.Response
// @Router   /admin/rooms/{number}/availability [put]
func (ctrl *RoomController) SetRoomAvailability(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req dto.RoomAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "isAvailable is required")
		return
	}

	room, err := ctrl.rooms.SetRoomAvailability(c.Request.Context(), actor, c.Param("number"), *req.IsAvailable)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, dto.ToRoomResponse(room))
}

// @Summary  Delete an empty room
// @Tags     admin
// @Param    number path string true "Room number"
// @Success  200 {object} response.Response
// @Router   /admin/rooms/{number} [delete]
func (ctrl *RoomController) DeleteRoom(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	number := c.Param("number")
	if err := ctrl.rooms.DeleteRoom(c.Request.Context(), actor, number); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"roomNumber": number})
}

// @Summary  Recompute one room's occupancy
// @Tags     admin
// @Param    number path string true "Room number"
// @Success  200 {object} response.Response
// @Router   /admin/rooms/{number}/sync [post]
func (ctrl *RoomController) SyncRoom(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	room, err := ctrl.rooms.SyncRoom(c.Request.Context(), actor, c.Param("number"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, dto.ToRoomResponse(room))
}

// @Summary  Recompute every room's occupancy
// @Tags     admin
// @Success  200 {object} response.Response
// @Router   /admin/rooms/sync [post]
func (ctrl *RoomController) SyncAllRooms(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	counts, err := ctrl.rooms.SyncAllRooms(c.Request.Context(), actor)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, counts)
}
