package chat

import (
	"strings"
	"unicode/utf8"

	"claimguard.ai/internal/protect/words"
)

const (
	ActionBlock  = "BLOCK"
	ActionCensor = "CENSOR"
)

type Verdict struct {
	Flagged bool
	Action  string
	// Text is what may be relayed: the original text, or the censored text
	// when Action is CENSOR.
	Text string
}

type Filter struct {
	finder *words.Finder
	action string
}

func NewFilter(list []string, action string) *Filter {
	action = strings.ToUpper(strings.TrimSpace(action))
	if action != ActionCensor {
		action = ActionBlock
	}
	return &Filter{finder: words.New(list), action: action}
}

func (f *Filter) Action() string { return f.action }
func (f *Filter) Len() int       { return f.finder.Len() }

func (f *Filter) Check(text string) Verdict {
	v := Verdict{Action: f.action, Text: text}
	if !f.finder.HasMatch(text) {
		return v
	}
	v.Flagged = true
	if f.action == ActionCensor {
		v.Text, _ = f.finder.Replace(text, mask)
	}
	return v
}

func mask(w string) string {
	return strings.Repeat("*", utf8.RuneCountInString(w))
}
