// Package models contains the wire and domain types shared by the WorkBoard
// client core: the backend's response envelope, chat frames, roster entries,
// and the HR records returned by the REST API.
package models

import "encoding/json"

// EnvelopeCodeOK is the only envelope code that represents a semantically
// successful call. Any other value is a business error, regardless of the
// HTTP transport status the envelope arrived with.
const EnvelopeCodeOK = 200

// Envelope is the uniform JSON wrapper returned by every non-binary backend
// route. Data is kept raw so callers decode it into their own types and the
// bytes round-trip untouched through the request pipeline.
type Envelope struct {
	Code      int             `json:"code"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

// OK reports whether the envelope represents a successful call.
func (e *Envelope) OK() bool {
	return e.Code == EnvelopeCodeOK
}
