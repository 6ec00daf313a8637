// Package ngram extracts the fixed-width byte n-grams used as presence
// features. The same rule runs when compiling the corpus and when scoring a
// query, so both sides must go through Extract.
package ngram

import "fmt"

// Variant selects the n-gram encoding of a deployment.
type Variant string

const (
	// Trigram keeps 3-byte windows made only of ASCII letters.
	Trigram Variant = "trigram"
	// Digram keeps 2-byte windows that contain no space byte.
	Digram Variant = "digram"
)

// Default is the encoding used by the live classifier.
const Default = Trigram

// ParseVariant converts a configuration string to a Variant.
func ParseVariant(s string) (Variant, error) {
	switch Variant(s) {
	case Trigram, Digram:
		return Variant(s), nil
	default:
		return "", fmt.Errorf("ngram: unknown variant %q (want trigram or digram)", s)
	}
}

// Width returns the window size of the variant in bytes.
func (v Variant) Width() int {
	if v == Digram {
		return 2
	}
	return 3
}

func (v Variant) String() string { return string(v) }

// Extract returns the distinct n-grams of s in first-occurrence order.
// Windows slide over bytes, not runes. Kept windows are ASCII-lower-cased.
func Extract(v Variant, s string) []string {
	width := v.Width()
	if len(s) < width {
		return nil
	}

	var out []string
	seen := make(map[string]struct{}, len(s))
	buf := make([]byte, width)
	for i := 0; i+width <= len(s); i++ {
		window := s[i : i+width]
		if !keep(v, window) {
			continue
		}
		for j := 0; j < width; j++ {
			buf[j] = toLower(window[j])
		}
		g := string(buf)
		if _, dup := seen[g]; dup {
			continue
		}
		seen[g] = struct{}{}
		out = append(out, g)
	}
	return out
}

func keep(v Variant, window string) bool {
	for i := 0; i < len(window); i++ {
		b := window[i]
		if v == Digram {
			if b == ' ' {
				return false
			}
		} else if !isAlpha(b) {
			return false
		}
	}
	return true
}

func isAlpha(b byte) bool {
	return ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z')
}

func toLower(b byte) byte {
	if 'A' <= b && b <= 'Z' {
		return b + ('a' - 'A')
	}
	return b
}
