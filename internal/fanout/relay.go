package fanout

import (
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

const pushSubjectPrefix = "push.user."

// relayFrame is the wire form of a push travelling between instances.
type relayFrame struct {
	UserID   uuid.UUID `json:"userId"`
	Envelope Envelope  `json:"envelope"`
}

// Relay bridges pushes across instances through NATS. Every instance
// publishes each push and subscribes to the shared subject, so whichever
// instance holds the recipient's sessions delivers it. Local delivery
// happens through the same subscription, keeping exactly one path.
type Relay struct {
	nc     *nats.Conn
	hub    *Hub
	sub    *nats.Subscription
	logger *slog.Logger
}

func NewRelay(nc *nats.Conn, hub *Hub, logger *slog.Logger) *Relay {
	if logger == nil {
		logger = slog.Default()
	}
	return &Relay{nc: nc, hub: hub, logger: logger}
}

// Start subscribes to the push subject and delivers incoming frames to
// the local hub.
func (r *Relay) Start() error {
	sub, err := r.nc.Subscribe(pushSubjectPrefix+"*", func(msg *nats.Msg) {
		var frame relayFrame
		if err := json.Unmarshal(msg.Data, &frame); err != nil {
			r.logger.Error("failed to decode relay frame", "error", err)
			return
		}
		r.hub.PushToUser(frame.UserID, frame.Envelope)
	})
	if err != nil {
		return err
	}
	r.sub = sub
	return nil
}

// PushToUser publishes the envelope for the user. Failures are logged and
// swallowed: push delivery is best-effort and never an error for the caller.
func (r *Relay) PushToUser(userID uuid.UUID, env Envelope) {
	frame := relayFrame{UserID: userID, Envelope: env}
	data, err := json.Marshal(frame)
	if err != nil {
		r.logger.Error("failed to marshal relay frame", "user", userID, "error", err)
		return
	}
	if err := r.nc.Publish(pushSubjectPrefix+userID.String(), data); err != nil {
		r.logger.Error("failed to publish push", "user", userID, "error", err)
	}
}

// Close drops the subscription.
func (r *Relay) Close() {
	if r.sub != nil {
		r.sub.Unsubscribe()
	}
}
