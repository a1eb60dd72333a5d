// internal/rules/modes.go
package rules

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/solatis/rulekeeper/internal/types"
)

/*
 * Substitution passes shared by the baseline and accelerated engines.
 *
 * Substring pass: each rule, in the order given, replaces every occurrence of
 * its matching key in the accumulated result. Rule N's output is rule N+1's
 * input, so rules cascade. This is intentional and is exactly what the
 * conflict analyzer reports as circular or chained.
 *
 * Word pass: text is split into alternating runs of whitespace and
 * non-whitespace. Whitespace runs are copied verbatim so spacing survives
 * byte for byte. A non-whitespace token is replaced only when it equals a
 * matching key of at least MinWordKeyLen codepoints; there is no partial
 * token substitution.
 *
 * Both passes are direction-symmetric: decode swaps the roles of pattern
 * and replacement through Rule.Key / Rule.Target.
 */

// applySubstring runs a global sequential replace for each rule in order.
// Rules must already be filtered to non-empty keys.
func applySubstring(text string, ordered []types.Rule, dir types.Direction) string {
	for _, r := range ordered {
		text = strings.ReplaceAll(text, r.Key(dir), r.Target(dir))
	}
	return text
}

// applyWord replaces whole tokens found in exact. Keys shorter than
// MinWordKeyLen never match, even if exact holds them.
func applyWord(text string, exact map[string]types.Rule, dir types.Direction) string {
	if len(exact) == 0 {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))
	changed := false

	for start := 0; start < len(text); {
		end, space := nextRun(text, start)
		tok := text[start:end]
		if !space && utf8.RuneCountInString(tok) >= MinWordKeyLen {
			if r, ok := exact[tok]; ok {
				b.WriteString(r.Target(dir))
				changed = true
				start = end
				continue
			}
		}
		b.WriteString(tok)
		start = end
	}

	if !changed {
		return text
	}
	return b.String()
}

// nextRun returns the end offset of the whitespace or non-whitespace run
// starting at start, and whether that run is whitespace.
func nextRun(text string, start int) (int, bool) {
	r, size := utf8.DecodeRuneInString(text[start:])
	space := unicode.IsSpace(r)
	i := start + size
	for i < len(text) {
		r, size = utf8.DecodeRuneInString(text[i:])
		if unicode.IsSpace(r) != space {
			break
		}
		i += size
	}
	return i, space
}

// chunkRunes splits text every size codepoints. The last chunk may be shorter.
func chunkRunes(text string, size int) []string {
	chunks := make([]string, 0, utf8.RuneCountInString(text)/size+1)
	start, count := 0, 0
	for i := range text {
		if count == size {
			chunks = append(chunks, text[start:i])
			start, count = i, 0
		}
		count++
	}
	return append(chunks, text[start:])
}
