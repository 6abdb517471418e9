package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Client          string `json:"client"`
	// MaxQueue bounds pending outbound messages for this session.
	MaxQueue int `json:"max_queue,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string       `json:"type"`
	ProtocolVersion string       `json:"protocol_version"`
	SessionID       string       `json:"session_id"`
	Rules           RulesSummary `json:"rules"`
}

type RulesSummary struct {
	BannedWords    int    `json:"banned_words"`
	ChatAction     string `json:"chat_action"`
	AccessTrust    string `json:"access_trust"`
	ContainerTrust string `json:"container_trust"`
	Explodable     string `json:"explodable"`
}

type CheckChatMsg struct {
	Type   string `json:"type"`
	ReqID  string `json:"req_id"`
	Player string `json:"player"`
	Text   string `json:"text"`
}

type ChatResultMsg struct {
	Type    string `json:"type"`
	ReqID   string `json:"req_id"`
	Flagged bool   `json:"flagged"`
	Action  string `json:"action"`
	Text    string `json:"text"`
}

type CheckInteractMsg struct {
	Type    string `json:"type"`
	ReqID   string `json:"req_id"`
	Player  string `json:"player"`
	TypeID  *int   `json:"type_id"`
	Variant int    `json:"variant"`
}

type InteractResultMsg struct {
	Type       string `json:"type"`
	ReqID      string `json:"req_id"`
	Trust      string `json:"trust"`
	Explodable bool   `json:"explodable"`
}

type CheckRegionMsg struct {
	Type   string `json:"type"`
	ReqID  string `json:"req_id"`
	Player string `json:"player"`
	Min    [3]int `json:"min"`
	Max    [3]int `json:"max"`
}

type RegionResultMsg struct {
	Type    string `json:"type"`
	ReqID   string `json:"req_id"`
	Allowed bool   `json:"allowed"`
}

type CheckBanMsg struct {
	Type  string `json:"type"`
	ReqID string `json:"req_id"`
	IP    string `json:"ip"`
}

type BanResultMsg struct {
	Type      string `json:"type"`
	ReqID     string `json:"req_id"`
	Banned    bool   `json:"banned"`
	Reason    string `json:"reason,omitempty"`
	ExpiresAt string `json:"expires_at,omitempty"`
}

type ErrorMsg struct {
	Type    string `json:"type"`
	ReqID   string `json:"req_id,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewError(reqID, code, msg string) ErrorMsg {
	return ErrorMsg{Type: TypeError, ReqID: reqID, Code: code, Message: msg}
}
