package websocket

import "encoding/json"

// Message defines the structure for websocket messages.
type Message struct {
	Action  string      `json:"action"`
	Payload interface{} `json:"payload"`
}

// Encode marshals a message for sending on a client channel. Marshal errors
// are impossible for the payload types used here, so they are swallowed.
func (m Message) Encode() []byte {
	b, _ := json.Marshal(m)
	return b
}
