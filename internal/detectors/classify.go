package detectors

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/keyguard/keyguard/internal/types"
)

const contextRadius = 50

var credentialWords = []string{"api", "key", "token", "secret"}

// Scan classifies a text span and returns one Finding per accepted,
// non-overlapping match across the provider pattern table. Providers are
// walked in table order; a later provider's match that overlaps an already
// claimed span is dropped, so each region of the input is attributed at
// most once. The function is pure: no I/O, no retained state, and
// malformed input simply yields no findings.
func Scan(text string, line int, path string) []types.Finding {
	type positioned struct {
		start   int
		finding types.Finding
	}
	var hits []positioned
	var claimed [][2]int

	for _, prov := range providerOrder {
		re := providerPatterns[prov]
		for _, loc := range re.FindAllStringIndex(text, -1) {
			if overlaps(claimed, loc[0], loc[1]) {
				continue
			}
			key := text[loc[0]:loc[1]]
			if ZeroDensity(key) > zeroDensityLimit {
				continue
			}
			if distinctChars(key) < 8 {
				continue
			}
			provider := prov
			if provider == types.Generic {
				if specific := IdentifyProvider(key); specific != types.Generic {
					provider = specific
				}
			}
			claimed = append(claimed, [2]int{loc[0], loc[1]})
			hits = append(hits, positioned{loc[0], types.Finding{
				Provider:   provider,
				Key:        key,
				Confidence: confidence(provider, key),
				Context:    contextWindow(text, loc[0], loc[1]),
				Line:       line,
				Path:       path,
			}})
		}
	}
	// Matches never reorder relative to their position in the input.
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].start < hits[j].start })
	var out []types.Finding
	for _, h := range hits {
		out = append(out, h.finding)
	}
	return out
}

// ScanLines runs Scan over content line by line, preserving line order.
func ScanLines(content string, path string) []types.Finding {
	var out []types.Finding
	for i, line := range strings.Split(content, "\n") {
		out = append(out, Scan(strings.TrimSuffix(line, "\r"), i+1, path)...)
	}
	return out
}

func overlaps(claimed [][2]int, start, end int) bool {
	for _, c := range claimed {
		if start < c[1] && end > c[0] {
			return true
		}
	}
	return false
}

func confidence(provider types.Provider, key string) types.Confidence {
	if distinctiveProviders[provider] {
		return types.ConfHigh
	}
	if provider == types.Generic {
		if IsHighEntropy(key) && containsCredentialWord(key) {
			return types.ConfMed
		}
		return types.ConfLow
	}
	if IsHighEntropy(key) {
		return types.ConfMed
	}
	return types.ConfLow
}

func containsCredentialWord(key string) bool {
	lower := strings.ToLower(key)
	for _, w := range credentialWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// contextWindow extracts a fixed-radius window around the match, marking
// truncated edges with ellipses and bracketing the match itself. Window
// edges snap outward to rune boundaries so multi-byte characters are
// never split.
func contextWindow(text string, start, end int) string {
	lo := start - contextRadius
	if lo < 0 {
		lo = 0
	}
	for lo > 0 && !utf8.RuneStart(text[lo]) {
		lo--
	}
	hi := end + contextRadius
	if hi > len(text) {
		hi = len(text)
	}
	for hi < len(text) && !utf8.RuneStart(text[hi]) {
		hi++
	}
	var b strings.Builder
	if lo > 0 {
		b.WriteString("...")
	}
	b.WriteString(text[lo:start])
	b.WriteByte('[')
	b.WriteString(text[start:end])
	b.WriteByte(']')
	b.WriteString(text[end:hi])
	if hi < len(text) {
		b.WriteString("...")
	}
	return b.String()
}
