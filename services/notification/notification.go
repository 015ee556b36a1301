package notification

import (
	"context"
	"fmt"
	"time"

	"dormitory/constants"

	"github.com/goccy/go-json"
	"github.com/olahol/melody"
)

// Session keys set on every websocket connection.
const (
	SessionUserID   = "userID"
	SessionUserRole = "userRole"
)

// Notifier pushes an event to every subscriber of a channel.
type Notifier interface {
	Notify(ctx context.Context, channel, event string, payload interface{}) error
}

type MelodyService struct {
	m *melody.Melody
}

func NewMelodyService(m *melody.Melody) *MelodyService {
	return &MelodyService{m: m}
}

func (s *MelodyService) Notify(ctx context.Context, channel, event string, payload interface{}) error {
	if s.m == nil {
		return fmt.Errorf("melody instance is nil")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	match, err := Audience(channel)
	if err != nil {
		return err
	}

	msg, err := NewMessageBuilder(channel, event, payload).Build()
	if err != nil {
		return err
	}

	return s.m.BroadcastFilter(msg, func(session *melody.Session) bool {
		userID, _ := session.Get(SessionUserID)
		role, _ := session.Get(SessionUserRole)
		id, _ := userID.(uint)
		r, ok := role.(int)
		if !ok {
			r = -1
		}
		return match(id, r)
	})
}

// Audience returns the predicate selecting the sessions a channel reaches.
func Audience(channel string) (func(userID uint, role int) bool, error) {
	switch channel {
	case constants.ChannelGlobalBroadcast:
		return func(uint, int) bool { return true }, nil
	case constants.ChannelAdminBroadcast:
		return func(_ uint, role int) bool {
			return role == constants.RoleAdmin || role == constants.RoleSuperAdmin
		}, nil
	}
	if target, ok := constants.ParseUserChannel(channel); ok {
		return func(userID uint, _ int) bool { return userID == target }, nil
	}
	return nil, fmt.Errorf("unknown notification channel %q", channel)
}

// Message is the JSON envelope written to websocket clients.
type Message struct {
	Channel string      `json:"channel"`
	Event   string      `json:"event"`
	Payload interface{} `json:"payload,omitempty"`
	SentAt  time.Time   `json:"sentAt"`
}

type MessageBuilder struct {
	channel string
	event   string
	payload interface{}
	now     func() time.Time
}

func NewMessageBuilder(channel, event string, payload interface{}) *MessageBuilder {
	return &MessageBuilder{
		channel: channel,
		event:   event,
		payload: payload,
		now:     time.Now,
	}
}

func (b *MessageBuilder) Build() ([]byte, error) {
	return json.Marshal(Message{
		Channel: b.channel,
		Event:   b.event,
		Payload: b.payload,
		SentAt:  b.now().UTC(),
	})
}
