package materials

import (
	"strings"
	"unicode"
)

// Collection keeps entries sorted by TypeID; entries with equal TypeID stay
// in insertion order. Add is the only way entries get in, and Contains relies
// on that ordering to stop early. Not safe for concurrent mutation.
type Collection struct {
	entries []Info
}

func NewCollection(infos ...Info) *Collection {
	c := &Collection{}
	for _, in := range infos {
		c.Add(in)
	}
	return c
}

// ParseCollection reads the space-separated form produced by String.
// Tokens that do not parse are skipped.
func ParseCollection(s string) *Collection {
	c := &Collection{}
	for _, tok := range strings.Fields(s) {
		if in, ok := Parse(tok); ok {
			c.Add(in)
		}
	}
	return c
}

func (c *Collection) Add(in Info) {
	i := 0
	for ; i < len(c.entries); i++ {
		if c.entries[i].TypeID > in.TypeID {
			break
		}
	}
	c.entries = append(c.entries, Info{})
	copy(c.entries[i+1:], c.entries[i:])
	c.entries[i] = in
}

func (c *Collection) Contains(in Info) bool {
	ok, _ := c.scan(in)
	return ok
}

// scan returns the match result and how many entries were inspected.
func (c *Collection) scan(in Info) (bool, int) {
	if c == nil {
		return false, 0
	}
	for i, e := range c.entries {
		if e.TypeID > in.TypeID {
			return false, i + 1
		}
		if e.TypeID == in.TypeID && (e.AllVariants || e.Variant == in.Variant) {
			return true, i + 1
		}
	}
	return false, len(c.entries)
}

func (c *Collection) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}

func (c *Collection) Clear() { c.entries = nil }

func (c *Collection) Entries() []Info {
	if c == nil {
		return nil
	}
	out := make([]Info, len(c.entries))
	copy(out, c.entries)
	return out
}

// String renders every entry followed by a space. Whitespace inside a
// description becomes '_' so each entry stays a single token; the mapping
// is lossy, so parsing the result yields "oak_log" for "oak log".
func (c *Collection) String() string {
	if c == nil {
		return ""
	}
	var b strings.Builder
	for _, e := range c.entries {
		e.Description = strings.Map(func(r rune) rune {
			if unicode.IsSpace(r) {
				return '_'
			}
			return r
		}, e.Description)
		b.WriteString(e.String())
		b.WriteByte(' ')
	}
	return b.String()
}
