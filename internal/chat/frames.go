package chat

import (
	"encoding/json"

	"github.com/workboardhq/workboard/pkg/models"
)

// EventKind classifies an event on the manager's outbound stream.
type EventKind string

const (
	// EventMessage is an inbound chat message.
	EventMessage EventKind = "message"
	// EventPresence signals a contact's presence changed.
	EventPresence EventKind = "presence"
	// EventState reports a state machine transition.
	EventState EventKind = "state"
	// EventError reports that the reconnect policy is exhausted and the
	// channel is staying down.
	EventError EventKind = "error"
)

// Event is one item on the manager's event stream. Exactly one of the
// payload fields is set, matching Kind.
type Event struct {
	Kind     EventKind
	Message  *models.ChatMessage
	Presence *Presence
	State    State
	Err      error
}

// Presence is a live presence update for a single contact.
type Presence struct {
	ContactID int64
	Online    bool
}

// inboundFrame is the superset shape of everything the server pushes.
// Pointers distinguish absent fields from zero values during
// classification.
type inboundFrame struct {
	SenderID  *int64  `json:"senderId"`
	Content   *string `json:"content"`
	Timestamp int64   `json:"timestamp"`
	Online    *bool   `json:"online"`
}

// classifyFrame decodes one wire frame and maps it onto an event by shape:
// senderId plus content is a chat message, senderId alone is a presence
// update (online unless the frame says otherwise). Anything else is
// unrecognized and dropped without failing the connection.
func classifyFrame(data []byte) (Event, bool) {
	var frame inboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return Event{}, false
	}
	if frame.SenderID == nil {
		return Event{}, false
	}
	if frame.Content != nil {
		return Event{
			Kind: EventMessage,
			Message: &models.ChatMessage{
				SenderID:  *frame.SenderID,
				Content:   *frame.Content,
				Timestamp: frame.Timestamp,
			},
		}, true
	}
	online := true
	if frame.Online != nil {
		online = *frame.Online
	}
	return Event{
		Kind:     EventPresence,
		Presence: &Presence{ContactID: *frame.SenderID, Online: online},
	}, true
}
