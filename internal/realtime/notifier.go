package realtime

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Event is the envelope pushed over the socket and published to redis.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
	At   time.Time   `json:"at"`
}

func NotificationChannel(userID uuid.UUID) string {
	return "notifications:" + userID.String()
}

// Notifier fans an event out to the user's open sockets on this node and to
// the redis channel other nodes and workers subscribe to. Either side may be nil.
type Notifier struct {
	Hub *Hub
	RDB *redis.Client
}

func NewNotifier(hub *Hub, rdb *redis.Client) *Notifier {
	return &Notifier{Hub: hub, RDB: rdb}
}

func (n *Notifier) Notify(ctx context.Context, userID uuid.UUID, event string, payload any) {
	ev := Event{Type: event, Data: payload, At: time.Now()}

	if n.Hub != nil {
		n.Hub.SendToUser(userID, ev)
	}
	if n.RDB == nil {
		return
	}
	b, err := json.Marshal(ev)
	if err != nil {
		log.Printf("Notifier: marshal %s: %v", event, err)
		return
	}
	if err := n.RDB.Publish(ctx, NotificationChannel(userID), b).Err(); err != nil {
		log.Printf("Notifier: publish %s to %s: %v", event, userID, err)
	}
}
