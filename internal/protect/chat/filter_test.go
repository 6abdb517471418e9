package chat

import "testing"

func TestFilter_Block(t *testing.T) {
	f := NewFilter([]string{"griefer"}, "")
	if f.Action() != ActionBlock {
		t.Fatalf("default action=%q", f.Action())
	}
	v := f.Check("you GRIEFER!")
	if !v.Flagged || v.Text != "you GRIEFER!" {
		t.Fatalf("unexpected verdict: %#v", v)
	}
	v = f.Check("griefers are bad")
	if v.Flagged {
		t.Fatalf("partial word should not flag: %#v", v)
	}
}

func TestFilter_Censor(t *testing.T) {
	f := NewFilter([]string{"darn", "ünfair"}, "censor")
	v := f.Check("Darn, this is ÜNFAIR darn")
	if !v.Flagged || v.Action != ActionCensor {
		t.Fatalf("unexpected verdict: %#v", v)
	}
	if v.Text != "****, this is ****** ****" {
		t.Fatalf("censored=%q", v.Text)
	}
}

func TestFilter_EmptyList(t *testing.T) {
	f := NewFilter(nil, ActionCensor)
	if f.Len() != 0 {
		t.Fatalf("len=%d", f.Len())
	}
	if v := f.Check("anything at all"); v.Flagged || v.Text != "anything at all" {
		t.Fatalf("unexpected verdict: %#v", v)
	}
}
