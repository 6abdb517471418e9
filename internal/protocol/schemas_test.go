package protocol_test

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"claimguard.ai/internal/protocol"
)

func compileSchema(t *testing.T, name string) *jsonschema.Schema {
	t.Helper()
	p := filepath.Join("..", "..", "schemas", name)
	s, err := jsonschema.Compile(p)
	if err != nil {
		t.Fatalf("compile %s: %v", name, err)
	}
	return s
}

// asJSON round-trips v so the validator sees plain JSON values.
func asJSON(t *testing.T, v any) any {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return out
}

func TestSchemas_ValidateMessages(t *testing.T) {
	hello := compileSchema(t, "hello.schema.json")
	welcome := compileSchema(t, "welcome.schema.json")
	check := compileSchema(t, "check.schema.json")
	result := compileSchema(t, "result.schema.json")

	typeID := 54
	valid := []struct {
		s *jsonschema.Schema
		v any
	}{
		{hello, protocol.HelloMsg{Type: protocol.TypeHello, ProtocolVersion: protocol.Version, Client: "paper-1.20", MaxQueue: 8}},
		{welcome, protocol.WelcomeMsg{
			Type: protocol.TypeWelcome, ProtocolVersion: protocol.Version, SessionID: "s1",
			Rules: protocol.RulesSummary{BannedWords: 2, ChatAction: "BLOCK", AccessTrust: "69:*:lever 77:0: ", ContainerTrust: "", Explodable: "46:*:tnt "},
		}},
		{check, protocol.CheckChatMsg{Type: protocol.TypeCheckChat, ReqID: "1", Player: "p", Text: "hi"}},
		{check, protocol.CheckInteractMsg{Type: protocol.TypeCheckInteract, ReqID: "2", Player: "p", TypeID: &typeID, Variant: 3}},
		{check, protocol.CheckRegionMsg{Type: protocol.TypeCheckRegion, ReqID: "3", Player: "p", Min: [3]int{0, 0, 0}, Max: [3]int{1, 2, 3}}},
		{check, protocol.CheckBanMsg{Type: protocol.TypeCheckBan, ReqID: "4", IP: "10.0.0.1"}},
		{result, protocol.ChatResultMsg{Type: protocol.TypeChatResult, ReqID: "1", Flagged: true, Action: "CENSOR", Text: "****"}},
		{result, protocol.InteractResultMsg{Type: protocol.TypeInteractRes, ReqID: "2", Trust: "CONTAINER"}},
		{result, protocol.RegionResultMsg{Type: protocol.TypeRegionResult, ReqID: "3", Allowed: true}},
		{result, protocol.BanResultMsg{Type: protocol.TypeBanResult, ReqID: "4", Banned: true, Reason: "grief"}},
		{result, protocol.NewError("5", protocol.ErrBadRequest, "bad")},
	}
	for i, tc := range valid {
		if err := tc.s.Validate(asJSON(t, tc.v)); err != nil {
			t.Fatalf("case %d: validate: %v", i, err)
		}
	}

	badVariant := protocol.CheckInteractMsg{Type: protocol.TypeCheckInteract, ReqID: "2", TypeID: &typeID, Variant: 300}
	if err := check.Validate(asJSON(t, badVariant)); err == nil {
		t.Fatalf("expected variant out of range to fail")
	}
	if err := check.Validate(asJSON(t, protocol.CheckBanMsg{Type: protocol.TypeCheckBan, ReqID: "4"})); err == nil {
		t.Fatalf("expected missing ip to fail")
	}
	if err := result.Validate(asJSON(t, protocol.NewError("", "oops", "x"))); err == nil {
		t.Fatalf("expected bad code to fail")
	}
}
