package guardrail

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// HiddenThreat flags an invisible or direction-altering character found
// in a query. These characters can smuggle injection phrases past the
// substring matcher, so ScanHidden runs before term matching.
type HiddenThreat struct {
	Category  string `json:"category"` // zero-width | bidi-override | tag-char
	Position  int    `json:"position"` // byte offset in the input
	Codepoint string `json:"codepoint"`
}

// HiddenScan holds the result of scanning a query for hidden characters.
// Stripped is the input with every flagged rune removed; it is what the
// injection matcher should see.
type HiddenScan struct {
	Clean    bool           `json:"clean"`
	Threats  []HiddenThreat `json:"threats,omitempty"`
	Stripped string         `json:"-"`
}

// ScanHidden inspects a query for zero-width, bidirectional-override and
// Unicode tag characters. Findings are advisory: they are recorded in the
// audit entry but never block the query on their own.
func ScanHidden(text string) HiddenScan {
	scan := HiddenScan{Clean: true}
	var stripped strings.Builder

	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])

		if cat := hiddenCategory(r); cat != "" {
			scan.Clean = false
			scan.Threats = append(scan.Threats, HiddenThreat{
				Category:  cat,
				Position:  i,
				Codepoint: fmt.Sprintf("U+%04X", r),
			})
			i += size
			continue
		}

		stripped.WriteRune(r)
		i += size
	}

	scan.Stripped = stripped.String()
	return scan
}

func hiddenCategory(r rune) string {
	switch r {
	case '\u200B', // ZERO WIDTH SPACE
		'\u200C', // ZERO WIDTH NON-JOINER
		'\u200D', // ZERO WIDTH JOINER
		'\uFEFF', // ZERO WIDTH NO-BREAK SPACE (BOM)
		'\u2060', // WORD JOINER
		'\u200E', // LEFT-TO-RIGHT MARK
		'\u200F': // RIGHT-TO-LEFT MARK
		return "zero-width"
	case '\u202A', '\u202B', '\u202C', '\u202D', '\u202E',
		'\u2066', '\u2067', '\u2068', '\u2069':
		return "bidi-override"
	}
	if r >= 0xE0001 && r <= 0xE007F {
		return "tag-char"
	}
	return ""
}
