package protocol

import "encoding/json"

// Message types shared by the observer stream.
const (
	TypeSubscribe = "SUBSCRIBE"
	TypeTick      = "TICK"
	TypeTerrain   = "TERRAIN"
	TypeError     = "ERROR"
)

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}

// ErrorMsg reports a rejected client message before the connection closes.
type ErrorMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
	Code            string `json:"code"`
	Message         string `json:"message"`
}

func NewError(version, code, message string) ErrorMsg {
	return ErrorMsg{Type: TypeError, ProtocolVersion: version, Code: code, Message: message}
}
