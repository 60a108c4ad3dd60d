package models

// Contact is a roster entry. Online is volatile: it is written only by live
// presence events arriving on the channel, never by roster refreshes, so a
// stale fetch cannot clobber live state.
type Contact struct {
	ID          int64  `json:"id"`
	DisplayName string `json:"name"`
	Online      bool   `json:"online"`
}

// ChatMessage is an inbound chat frame. Messages are immutable once created;
// their ordering key is arrival order on the channel (the server assigns no
// sequence numbers).
type ChatMessage struct {
	SenderID  int64  `json:"senderId"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"` // unix milliseconds, client-assigned
}

// OutboundMessage is the frame written to the channel for a send. The
// timestamp is assigned by the sending client in unix milliseconds.
type OutboundMessage struct {
	ReceiverID int64  `json:"receiverId"`
	Content    string `json:"content"`
	Timestamp  int64  `json:"timestamp"`
}
