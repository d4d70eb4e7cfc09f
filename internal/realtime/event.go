package realtime

import (
	"encoding/json"
	"fmt"

	"github.com/sahayakapp/sahayak-core/internal/domain"
)

// messagesCollection is the remote collection whose create events carry chat
// messages. The push transport delivers creates for every collection; all
// filtering happens client-side.
const messagesCollection = "messages"

// pushEvent is the wire shape of one push stream event.
type pushEvent struct {
	Type       string          `json:"type"`
	Collection string          `json:"collection"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// parseEvent decodes a raw push frame. The second return is false for events
// this layer does not care about (non-create operations, other collections).
func parseEvent(data []byte) (domain.Message, bool, error) {
	var raw pushEvent
	if err := json.Unmarshal(data, &raw); err != nil {
		return domain.Message{}, false, fmt.Errorf("unmarshal event: %w", err)
	}

	if raw.Type != "create" || raw.Collection != messagesCollection || len(raw.Payload) == 0 {
		return domain.Message{}, false, nil
	}

	var msg domain.Message
	if err := json.Unmarshal(raw.Payload, &msg); err != nil {
		return domain.Message{}, false, fmt.Errorf("unmarshal message payload: %w", err)
	}
	if msg.ID == "" || msg.Channel == "" {
		return domain.Message{}, false, fmt.Errorf("message event missing id or channel")
	}

	return msg, true, nil
}
