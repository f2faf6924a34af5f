// Package hub fans dashboard messages out to websocket subscribers through
// a single channel-driven loop.
package hub

// MessageType indicates the websocket message format.
type MessageType int

const (
	// JSONMessage is a JSON-encoded text frame.
	JSONMessage MessageType = iota
	// BinaryMessage is raw binary data such as a JPEG preview frame.
	BinaryMessage
)

// Message is one frame to deliver to every subscriber.
type Message struct {
	Type MessageType
	Data []byte
}

// NewJSONMessage wraps pre-encoded JSON.
func NewJSONMessage(data []byte) Message {
	return Message{Type: JSONMessage, Data: data}
}

// NewBinaryMessage wraps binary data.
func NewBinaryMessage(data []byte) Message {
	return Message{Type: BinaryMessage, Data: data}
}
