package types

// Provider identifies the AI service a key format belongs to, or GENERIC
// when a key could not be attributed to a specific vendor.
type Provider string

const (
	OpenAI      Provider = "openai"
	Anthropic   Provider = "anthropic"
	Azure       Provider = "azure"
	Gemini      Provider = "gemini"
	HuggingFace Provider = "huggingface"
	Cohere      Provider = "cohere"
	Mistral     Provider = "mistral"
	Stability   Provider = "stability"
	Replicate   Provider = "replicate"
	Clarifai    Provider = "clarifai"
	Together    Provider = "together"
	AI21        Provider = "ai21"
	DeepInfra   Provider = "deepinfra"
	AlephAlpha  Provider = "aleph_alpha"
	Groq        Provider = "groq"
	Generic     Provider = "generic"
)

// Confidence is an ordered certainty tier assigned at classification time.
type Confidence int

const (
	ConfLow Confidence = iota + 1
	ConfMed
	ConfHigh
)

func (c Confidence) String() string {
	switch c {
	case ConfHigh:
		return "high"
	case ConfMed:
		return "medium"
	default:
		return "low"
	}
}

// ParseConfidence maps a stored confidence label back to its tier.
// Unrecognized labels land on ConfLow.
func ParseConfidence(s string) Confidence {
	switch s {
	case "high":
		return ConfHigh
	case "medium":
		return ConfMed
	default:
		return ConfLow
	}
}

// Status is the liveness result of validating a key against its provider.
type Status string

const (
	StatusValid   Status = "valid"
	StatusInvalid Status = "invalid"
	StatusExpired Status = "expired"
	StatusUnknown Status = "unknown"
)

// Finding describes one detected credential candidate. Key holds the exact
// matched substring and is never truncated here; redaction is a reporting
// concern. Valid is nil until a validator pass has run.
type Finding struct {
	Provider   Provider   `json:"provider"`
	Key        string     `json:"key"`
	Confidence Confidence `json:"confidence"`
	Context    string     `json:"context,omitempty"`
	Line       int        `json:"line,omitempty"` // 1-based, 0 if unknown
	Path       string     `json:"path,omitempty"` // file path or source label
	Valid      *bool      `json:"valid,omitempty"`
}
