package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Item is a notification that could not reach the primary store and waits
// locally for redelivery.
type Item struct {
	ID           string          `json:"id"`
	UserID       string          `json:"user_id"`
	Notification json.RawMessage `json:"notification"`
	Retries      int             `json:"retries"`
	Timestamp    time.Time       `json:"timestamp"`

	bucketKey []byte
}

func (i *Item) normalize() {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	if i.Timestamp.IsZero() {
		i.Timestamp = time.Now()
	}
}
