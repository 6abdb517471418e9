// Package words matches configured words against free text as whole words,
// case-insensitively, with Unicode-aware word boundaries.
package words

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// wordClass is the Unicode equivalent of \w (Go's \w is ASCII only),
// including letter numbers and the ZWNJ/ZWJ join controls.
const wordClass = `\p{L}\p{M}\p{Nd}\p{Nl}\p{Pc}\x{200C}\x{200D}`

// Finder is immutable after New and safe for concurrent use.
type Finder struct {
	words []string
	re    *regexp.Regexp
}

func New(list []string) *Finder {
	f := &Finder{}
	alts := make([]string, 0, len(list))
	for _, w := range list {
		if strings.TrimSpace(w) == "" {
			continue
		}
		f.words = append(f.words, w)
		alts = append(alts, regexp.QuoteMeta(w))
	}
	if len(alts) == 0 {
		return f
	}
	// Group 1 is the word itself; the boundary runes around it are consumed.
	pattern := `(?i)(?:^|[^` + wordClass + `])(` + strings.Join(alts, "|") + `)(?:$|[^` + wordClass + `])`
	f.re = regexp.MustCompile(pattern)
	return f
}

func (f *Finder) HasMatch(text string) bool {
	if f == nil || f.re == nil {
		return false
	}
	return f.re.MatchString(text)
}

// Replace returns text with every whole-word occurrence replaced by repl(word).
// Boundary runes are kept. Adjacent occurrences separated by a single
// non-word rune are all replaced.
func (f *Finder) Replace(text string, repl func(word string) string) (string, int) {
	if f == nil || f.re == nil || text == "" {
		return text, 0
	}
	var (
		b     strings.Builder
		n     int
		pos   int
		wrote int
	)
	for pos <= len(text) {
		loc := f.re.FindStringSubmatchIndex(text[pos:])
		if loc == nil {
			break
		}
		start, end := pos+loc[2], pos+loc[3]
		// A slice starting mid-text lets ^ match; the rune before pos must
		// still be a boundary.
		if start == pos && pos > 0 {
			if r, _ := utf8.DecodeLastRuneInString(text[:pos]); isWordRune(r) {
				_, size := utf8.DecodeRuneInString(text[pos:])
				if size == 0 {
					break
				}
				pos += size
				continue
			}
		}
		b.WriteString(text[wrote:start])
		b.WriteString(repl(text[start:end]))
		wrote = end
		n++
		pos = end
	}
	if n == 0 {
		return text, 0
	}
	b.WriteString(text[wrote:])
	return b.String(), n
}

// Words returns the effective word list (blank entries removed, others as given).
func (f *Finder) Words() []string {
	if f == nil {
		return nil
	}
	out := make([]string, len(f.words))
	copy(out, f.words)
	return out
}

func (f *Finder) Len() int {
	if f == nil {
		return 0
	}
	return len(f.words)
}

func isWordRune(r rune) bool {
	switch r {
	case '\u200c', '\u200d':
		return true
	}
	return unicode.IsLetter(r) || unicode.In(r, unicode.M, unicode.Nd, unicode.Nl, unicode.Pc)
}
