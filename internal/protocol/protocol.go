package protocol

import "encoding/json"

const Version = "1.0"

// Message types.
const (
	TypeHello   = "HELLO"
	TypeWelcome = "WELCOME"
	TypeError   = "ERROR"

	TypeCheckChat     = "CHECK_CHAT"
	TypeChatResult    = "CHAT_RESULT"
	TypeCheckInteract = "CHECK_INTERACT"
	TypeInteractRes   = "INTERACT_RESULT"
	TypeCheckRegion   = "CHECK_REGION"
	TypeRegionResult  = "REGION_RESULT"
	TypeCheckBan      = "CHECK_BAN"
	TypeBanResult     = "BAN_RESULT"
)

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
	ReqID           string `json:"req_id,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}
