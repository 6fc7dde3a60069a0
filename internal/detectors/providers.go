package detectors

import (
	"regexp"
	"strings"

	"github.com/keyguard/keyguard/internal/types"
)

// providerOrder fixes the iteration order over the pattern table. The order
// decides which provider claims a span when two patterns overlap (OpenAI
// before Stability for plain sk- keys, Together before AlephAlpha for bare
// 64-char tokens).
var providerOrder = []types.Provider{
	types.OpenAI,
	types.Anthropic,
	types.Azure,
	types.Gemini,
	types.HuggingFace,
	types.Cohere,
	types.Mistral,
	types.Stability,
	types.Replicate,
	types.Clarifai,
	types.Together,
	types.AI21,
	types.DeepInfra,
	types.AlephAlpha,
	types.Groq,
	types.Generic,
}

var providerPatterns = map[types.Provider]*regexp.Regexp{
	types.OpenAI:      regexp.MustCompile(`(sk-[A-Za-z0-9]{48}|sk-proj-[A-Za-z0-9_-]{68,}|sk-admin-[A-Za-z0-9_-]{90,})`),
	types.Anthropic:   regexp.MustCompile(`sk-ant-[A-Za-z0-9]{40}`),
	types.Azure:       regexp.MustCompile(`(?:azure-api-key-|api-key-azure-)[A-Za-z0-9]{32}`),
	types.Gemini:      regexp.MustCompile(`AIza[A-Za-z0-9_-]{35}`),
	types.HuggingFace: regexp.MustCompile(`hf_[A-Za-z0-9]{34}`),
	types.Cohere:      regexp.MustCompile(`(?:co-|cohere-api-key-)[A-Za-z0-9]{40}`),
	types.Mistral:     regexp.MustCompile(`(?:mistral-|mst-)[A-Za-z0-9]{32}`),
	types.Stability:   regexp.MustCompile(`sk-[A-Za-z0-9]{48}`),
	types.Replicate:   regexp.MustCompile(`r8_[A-Za-z0-9]{40}`),
	types.Clarifai:    regexp.MustCompile(`Key-[A-Za-z0-9]{32}`),
	types.Together:    regexp.MustCompile(`[A-Za-z0-9]{64}`),
	types.AI21:        regexp.MustCompile(`(?:ai21-|ai21j-)[A-Za-z0-9]{32}`),
	types.DeepInfra:   regexp.MustCompile(`(?:deepinfra-|di-)[A-Za-z0-9]{40}`),
	types.AlephAlpha:  regexp.MustCompile(`[A-Za-z0-9]{64}`),
	types.Groq:        regexp.MustCompile(`gsk_[A-Za-z0-9]{48}`),
	types.Generic:     regexp.MustCompile(`(?i)(?:api[-_]?key|secret[-_]?key|access[-_]?token)[-_][A-Za-z0-9]{30,90}`),
}

// prefixRule maps a distinctive key prefix to its candidate providers.
// Rules are checked in declaration order so longer or more specific
// prefixes (sk-ant-, sk-proj-) win over shared ones (sk-). A rule with
// several candidates is resolved by re-testing the full key against each
// candidate's own pattern.
type prefixRule struct {
	prefix     string
	candidates []types.Provider
}

var prefixRules = []prefixRule{
	{"sk-ant-", []types.Provider{types.Anthropic}},
	{"hf_", []types.Provider{types.HuggingFace}},
	{"sk-proj-", []types.Provider{types.OpenAI}},
	{"sk-admin-", []types.Provider{types.OpenAI}},
	{"sk-", []types.Provider{types.OpenAI, types.Stability}},
	{"AIza", []types.Provider{types.Gemini}},
	{"r8_", []types.Provider{types.Replicate}},
	{"Key-", []types.Provider{types.Clarifai}},
	{"gsk_", []types.Provider{types.Groq}},
	{"co-", []types.Provider{types.Cohere}},
	{"cohere-api-key-", []types.Provider{types.Cohere}},
	{"mistral-", []types.Provider{types.Mistral}},
	{"mst-", []types.Provider{types.Mistral}},
	{"ai21-", []types.Provider{types.AI21}},
	{"ai21j-", []types.Provider{types.AI21}},
	{"azure-api-key-", []types.Provider{types.Azure}},
	{"api-key-azure-", []types.Provider{types.Azure}},
	{"deepinfra-", []types.Provider{types.DeepInfra}},
	{"di-", []types.Provider{types.DeepInfra}},
}

// distinctiveProviders have a fixed prefix and length, so a pattern match
// alone warrants high confidence.
var distinctiveProviders = map[types.Provider]bool{
	types.OpenAI:      true,
	types.Anthropic:   true,
	types.Gemini:      true,
	types.HuggingFace: true,
	types.Replicate:   true,
	types.Clarifai:    true,
	types.Groq:        true,
}

// Providers returns the configured provider IDs in table order.
func Providers() []types.Provider {
	out := make([]types.Provider, len(providerOrder))
	copy(out, providerOrder)
	return out
}

// Pattern returns the regex for a provider, or nil for unknown providers.
func Pattern(p types.Provider) *regexp.Regexp {
	return providerPatterns[p]
}

func fullMatch(p types.Provider, key string) bool {
	re := providerPatterns[p]
	if re == nil {
		return false
	}
	loc := re.FindStringIndex(key)
	return loc != nil && loc[0] == 0 && loc[1] == len(key)
}

// IdentifyProvider attributes a key to a specific provider by prefix,
// falling back to a full-pattern match over the whole table. Returns
// Generic when nothing matches.
func IdentifyProvider(key string) types.Provider {
	for _, rule := range prefixRules {
		if !strings.HasPrefix(key, rule.prefix) {
			continue
		}
		if len(rule.candidates) == 1 {
			return rule.candidates[0]
		}
		for _, cand := range rule.candidates {
			if fullMatch(cand, key) {
				return cand
			}
		}
	}
	for _, p := range providerOrder {
		if fullMatch(p, key) {
			return p
		}
	}
	return types.Generic
}
