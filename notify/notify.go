package notify

import (
	"context"

	"github.com/Riciboyz/threads-backend/db/model"
	"github.com/Riciboyz/threads-backend/ws"
	expo "github.com/oliveroneill/exponent-server-sdk-golang/sdk"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Dispatcher persists a notification, relays it to the recipient's topic and
// pushes to any of their sessions that registered an Expo push token.
type Dispatcher struct {
	db     *gorm.DB
	hub    *ws.Hub
	push   *expo.PushClient
	logger *logrus.Logger
}

func NewDispatcher(db *gorm.DB, hub *ws.Hub, logger *logrus.Logger) *Dispatcher {
	return &Dispatcher{
		db:     db,
		hub:    hub,
		push:   expo.NewPushClient(nil),
		logger: logger,
	}
}

// Dispatch is best effort: a failed relay or push never fails the request
// that triggered it. Self-notifications are suppressed.
func (d *Dispatcher) Dispatch(ctx context.Context, n *model.Notification) {
	if n.UserID == "" || n.UserID == n.ActorID {
		return
	}
	if err := d.db.WithContext(ctx).Create(n).Error; err != nil {
		d.logger.WithError(err).Error("notify: persist")
		return
	}
	d.hub.Publish(ws.EventNewNotification, n, ws.UserTopic(n.UserID))
	go d.pushOut(n)
}

func (d *Dispatcher) pushOut(n *model.Notification) {
	var sessions []model.Session
	if err := d.db.Where("user_id = ? AND push_token <> ''", n.UserID).Find(&sessions).Error; err != nil {
		d.logger.WithError(err).Error("notify: load push tokens")
		return
	}
	for _, s := range sessions {
		token, err := expo.NewExponentPushToken(s.PushToken)
		if err != nil {
			continue
		}
		resp, err := d.push.Publish(&expo.PushMessage{
			To:    []expo.ExponentPushToken{token},
			Title: "Threads",
			Body:  n.Message,
			Sound: "default",
		})
		if err != nil {
			d.logger.WithError(err).Warn("notify: push")
			continue
		}
		if err := resp.ValidateResponse(); err != nil {
			d.logger.WithError(err).Warn("notify: push rejected")
		}
	}
}
