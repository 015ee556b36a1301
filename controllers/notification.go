package controllers

import (
	"sync"

	"dormitory/services/logger"
	"dormitory/services/notification"

	"github.com/gin-gonic/gin"
	"github.com/olahol/melody"
)

// NotificationController upgrades authenticated callers to websocket
// sessions tagged with their id and role, which is what channel routing reads.
type NotificationController struct {
	logger logger.Logger
	melody *melody.Melody

	mu       sync.Mutex
	sessions map[uint]int
}

type NotificationControllerOptions struct {
	Logger logger.Logger
}

func NewNotificationController(opts NotificationControllerOptions, m *melody.Melody) *NotificationController {
	if opts.Logger == nil {
		opts.Logger = logger.NewNopLogger()
	}
	ctrl := &NotificationController{
		logger:   opts.Logger,
		melody:   m,
		sessions: make(map[uint]int),
	}
	m.HandleConnect(ctrl.onConnect)
	m.HandleDisconnect(ctrl.onDisconnect)
	return ctrl
}

// @Summary  Subscribe to booking notifications
// @Tags     notifications
// @Param    token query string true "JWT"
// @Router   /ws [get]
func (ctrl *NotificationController) HandleWS(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	keys := map[string]interface{}{
		notification.SessionUserID:   actor.ID,
		notification.SessionUserRole: actor.Role,
	}
	if err := ctrl.melody.HandleRequestWithKeys(c.Writer, c.Request, keys); err != nil {
		ctrl.logger.Warn("websocket upgrade for user %d failed: %v", actor.ID, err)
	}
}

// ConnectedSessions reports how many sessions a user has open.
func (ctrl *NotificationController) ConnectedSessions(userID uint) int {
	ctrl.mu.Lock()
	defer ctrl.mu.Unlock()
	return ctrl.sessions[userID]
}

func (ctrl *NotificationController) onConnect(s *melody.Session) {
	userID, ok := sessionUserID(s)
	if !ok {
		return
	}
	ctrl.mu.Lock()
	ctrl.sessions[userID]++
	ctrl.mu.Unlock()
	ctrl.logger.Info("websocket session opened for user %d", userID)
}

func (ctrl *NotificationController) onDisconnect(s *melody.Session) {
	userID, ok := sessionUserID(s)
	if !ok {
		return
	}
	ctrl.mu.Lock()
	if ctrl.sessions[userID] <= 1 {
		delete(ctrl.sessions, userID)
	} else {
		ctrl.sessions[userID]--
	}
	ctrl.mu.Unlock()
	ctrl.logger.Info("websocket session closed for user %d", userID)
}

func sessionUserID(s *melody.Session) (uint, bool) {
	raw, ok := s.Get(notification.SessionUserID)
	if !ok {
		return 0, false
	}
	id, ok := raw.(uint)
	return id, ok
}
