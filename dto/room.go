package dto

import "dormitory/models"

type RoomListQuery struct {
	RoomType      string `form:"roomType"`
	AvailableOnly bool   `form:"availableOnly"`
	Gender        string `form:"gender" validate:"omitempty,oneof=male female"`
}

type RoomAvailabilityRequest struct {
	IsAvailable *bool `json:"isAvailable" binding:"required"`
}

type RoomResponse struct {
	RoomNumber       string   `json:"roomNumber"`
	RoomType         string   `json:"roomType"`
	Capacity         int      `json:"capacity"`
	CurrentOccupancy int      `json:"currentOccupancy"`
	Vacancies        int      `json:"vacancies"`
	IsAvailable      bool     `json:"isAvailable"`
	Floor            int      `json:"floor"`
	Features         []string `json:"features"`
}

func ToRoomResponse(r *models.Room) RoomResponse {
	features := []string(r.Features)
	if features == nil {
		features = []string{}
	}
	return RoomResponse{
		RoomNumber:       r.RoomNumber,
		RoomType:         r.RoomType,
		Capacity:         r.Capacity,
		CurrentOccupancy: r.CurrentOccupancy,
		Vacancies:        r.Vacancies(),
		IsAvailable:      r.IsAvailable,
		Floor:            r.Floor,
		Features:         features,
	}
}

func ToRoomResponses(rooms []models.Room) []RoomResponse {
	out := make([]RoomResponse, 0, len(rooms))
	for i := range rooms {
		out = append(out, ToRoomResponse(&rooms[i]))
	}
	return out
}
