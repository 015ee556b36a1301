package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	apperrors "dormitory/errors"
	"dormitory/repository"
	"dormitory/services/logger"

	"gorm.io/gorm"
)

// OccupancySync rewrites Room.CurrentOccupancy from the ledger. It never
// increments or decrements, so running it twice changes nothing.
type OccupancySync struct {
	logger logger.Logger
}

func NewOccupancySync(log logger.Logger) *OccupancySync {
	return &OccupancySync{logger: log}
}

// Sync must run inside the transaction that changed the ledger.
func (s *OccupancySync) Sync(ctx context.Context, tx *repository.Repository, roomNumber string) (int, error) {
	count, err := tx.Assignment.CountActive(ctx, roomNumber)
	if err != nil {
		return 0, err
	}
	err = tx.Room.UpdateOccupancy(ctx, roomNumber, count)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, apperrors.NotFound(apperrors.ErrCodeRoomNotFound, fmt.Sprintf("Room %s not found", roomNumber))
	}
	if err != nil {
		return 0, err
	}
	s.logger.Debug("room %s occupancy synced to %d", roomNumber, count)
	return count, nil
}

// SyncRooms syncs each distinct room once, in sorted order.
func (s *OccupancySync) SyncRooms(ctx context.Context, tx *repository.Repository, roomNumbers []string) (map[string]int, error) {
	rooms := uniqueSorted(roomNumbers)
	result := make(map[string]int, len(rooms))
	for _, number := range rooms {
		count, err := s.Sync(ctx, tx, number)
		if err != nil {
			return nil, err
		}
		result[number] = count
	}
	return result, nil
}

func uniqueSorted(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
