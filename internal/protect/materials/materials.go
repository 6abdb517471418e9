package materials

import (
	"strconv"
	"strings"
)

// Info identifies a block/item type, optionally narrowed to one variant
// (data value). Description is display metadata and never affects matching.
type Info struct {
	TypeID      int
	Variant     uint8
	AllVariants bool
	Description string
}

func Exact(typeID int, variant uint8, desc string) Info {
	return Info{TypeID: typeID, Variant: variant, Description: desc}
}

func Any(typeID int, desc string) Info {
	return Info{TypeID: typeID, AllVariants: true, Description: desc}
}

// Same reports whether a and b describe the same entry, ignoring Description.
func (a Info) Same(b Info) bool {
	if a.TypeID != b.TypeID || a.AllVariants != b.AllVariants {
		return false
	}
	return a.AllVariants || a.Variant == b.Variant
}

// String renders "typeId:variant:description" with "*" for all variants.
// The description is written as is, so the form is not whitespace-safe:
// a description containing spaces does not survive Collection parsing.
func (a Info) String() string {
	v := "*"
	if !a.AllVariants {
		v = strconv.Itoa(int(a.Variant))
	}
	return strconv.Itoa(a.TypeID) + ":" + v + ":" + a.Description
}

// Parse reads one "typeId:variant-or-star:description" token. Malformed
// input yields ok=false; callers skip such entries.
func Parse(s string) (Info, bool) {
	if s == "" {
		return Info{}, false
	}
	parts := strings.SplitN(s, ":", 3)
	if len(parts) < 3 {
		return Info{}, false
	}
	typeID, err := strconv.Atoi(parts[0])
	if err != nil {
		return Info{}, false
	}
	if parts[1] == "*" {
		return Any(typeID, parts[2]), true
	}
	v, err := strconv.ParseUint(parts[1], 10, 8)
	if err != nil {
		return Info{}, false
	}
	return Exact(typeID, uint8(v), parts[2]), true
}
