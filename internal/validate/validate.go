// Package validate probes provider APIs to check whether detected keys
// are live. Each provider gets a cheap authenticated endpoint; responses
// map onto a small status vocabulary. Results are memoized and probes
// are rate limited per provider.
package validate

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/keyguard/keyguard/internal/detectors"
	"github.com/keyguard/keyguard/internal/log"
	"github.com/keyguard/keyguard/internal/types"
)

const (
	probeTimeout = 10 * time.Second
	memoTTL      = 5 * time.Minute
	rateWindow   = time.Minute
)

type endpoint struct {
	method  string
	url     string
	headers func(key string) http.Header
	body    string
}

func bearer(key string) http.Header {
	return http.Header{"Authorization": {"Bearer " + key}}
}

func defaultEndpoints() map[types.Provider]endpoint {
	return map[types.Provider]endpoint{
		types.OpenAI: {
			method:  http.MethodGet,
			url:     "https://api.openai.com/v1/models",
			headers: bearer,
		},
		types.Anthropic: {
			method: http.MethodPost,
			url:    "https://api.anthropic.com/v1/messages",
			headers: func(key string) http.Header {
				return http.Header{
					"x-api-key":         {key},
					"anthropic-version": {"2023-06-01"},
					"Content-Type":      {"application/json"},
				}
			},
			body: `{"model":"claude-3-haiku-20240307","max_tokens":1,"messages":[{"role":"user","content":"hi"}]}`,
		},
		types.Azure: {
			method:  http.MethodGet,
			url:     "https://management.azure.com/subscriptions?api-version=2020-01-01",
			headers: bearer,
		},
		types.Gemini: {
			method: http.MethodGet,
			url:    "https://generativelanguage.googleapis.com/v1beta/models",
			headers: func(key string) http.Header {
				return http.Header{"X-Goog-Api-Key": {key}}
			},
		},
		types.HuggingFace: {
			method:  http.MethodGet,
			url:     "https://huggingface.co/api/whoami-v2",
			headers: bearer,
		},
		types.Cohere: {
			method:  http.MethodGet,
			url:     "https://api.cohere.ai/v1/models",
			headers: bearer,
		},
		types.Mistral: {
			method:  http.MethodGet,
			url:     "https://api.mistral.ai/v1/models",
			headers: bearer,
		},
	}
}

// requestBudgets caps probes per provider per minute.
var requestBudgets = map[types.Provider]int{
	types.OpenAI:      60,
	types.Anthropic:   60,
	types.Azure:       30,
	types.Gemini:      60,
	types.HuggingFace: 30,
	types.Cohere:      60,
	types.Mistral:     60,
	types.Generic:     10,
}

const defaultBudget = 10

// testWords mark keys that are obviously synthetic.
var testWords = []string{"test", "example", "fake", "demo", "sample", "placeholder"}

// Validator checks keys against provider APIs.
type Validator struct {
	client    *http.Client
	endpoints map[types.Provider]endpoint
	memo      *ttlcache.Cache[string, types.Status]
	limiter   *rateLimiter
}

// New builds a Validator with default endpoints and budgets.
func New() *Validator {
	return &Validator{
		client:    &http.Client{Timeout: probeTimeout},
		endpoints: defaultEndpoints(),
		memo: ttlcache.New[string, types.Status](
			ttlcache.WithTTL[string, types.Status](memoTTL),
		),
		limiter: newRateLimiter(),
	}
}

// Validate resolves a key to a status. Structurally impossible keys are
// settled without a network call, and repeat lookups within the memo TTL
// reuse the earlier answer.
func (v *Validator) Validate(ctx context.Context, provider types.Provider, key string) types.Status {
	if status, ok := v.precheck(provider, key); ok {
		return status
	}
	if item := v.memo.Get(key); item != nil {
		return item.Value()
	}

	v.limiter.wait(provider)
	status := v.probe(ctx, provider, key)
	if status != types.StatusUnknown {
		v.memo.Set(key, status, ttlcache.DefaultTTL)
	}
	return status
}

// ValidateFindings annotates findings in place with a liveness verdict.
// Low-confidence findings are not worth a probe and are left unannotated,
// though progress still fires for them so callers can track totals.
func (v *Validator) ValidateFindings(ctx context.Context, findings []types.Finding, progress func()) []types.Finding {
	for i := range findings {
		if findings[i].Confidence > types.ConfLow {
			status := v.Validate(ctx, findings[i].Provider, findings[i].Key)
			valid := status == types.StatusValid
			findings[i].Valid = &valid
		}
		if progress != nil {
			progress()
		}
	}
	return findings
}

// precheck settles keys that cannot be live without touching the network.
// Structural format checks run first, then providers with no probe
// endpoint settle as unknown before the cheaper heuristics.
func (v *Validator) precheck(provider types.Provider, key string) (types.Status, bool) {
	if provider == types.Generic {
		return types.StatusUnknown, true
	}

	switch provider {
	case types.OpenAI:
		if !strings.HasPrefix(key, "sk-") || len(key) < 40 {
			return types.StatusInvalid, true
		}
	case types.Anthropic:
		if !strings.HasPrefix(key, "sk-ant-") {
			return types.StatusInvalid, true
		}
	case types.HuggingFace:
		if !strings.HasPrefix(key, "hf_") {
			return types.StatusInvalid, true
		}
	case types.Gemini:
		if !strings.HasPrefix(key, "AIza") {
			return types.StatusInvalid, true
		}
	}

	if _, ok := v.endpoints[provider]; !ok {
		return types.StatusUnknown, true
	}

	lower := strings.ToLower(key)
	for _, w := range testWords {
		if strings.Contains(lower, w) {
			return types.StatusInvalid, true
		}
	}
	if detectors.ZeroDensity(key) > 0.4 {
		return types.StatusInvalid, true
	}
	return "", false
}

func (v *Validator) probe(ctx context.Context, provider types.Provider, key string) types.Status {
	ep, ok := v.endpoints[provider]
	if !ok {
		return types.StatusUnknown
	}

	var body io.Reader
	if ep.body != "" {
		body = strings.NewReader(ep.body)
	}
	req, err := http.NewRequestWithContext(ctx, ep.method, ep.url, body)
	if err != nil {
		return types.StatusUnknown
	}
	req.Header = ep.headers(key)

	resp, err := v.client.Do(req)
	if err != nil {
		log.Debugf("validation probe for %s failed: %v", provider, err)
		return types.StatusUnknown
	}
	defer resp.Body.Close()
	payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	switch resp.StatusCode {
	case http.StatusOK:
		if provider == types.OpenAI && !hasModelList(payload) {
			return types.StatusInvalid
		}
		return types.StatusValid
	case http.StatusUnauthorized:
		return types.StatusInvalid
	case http.StatusForbidden:
		if strings.Contains(strings.ToLower(string(payload)), "expired") {
			return types.StatusExpired
		}
		return types.StatusValid
	default:
		log.Debugf("validation probe for %s returned %d", provider, resp.StatusCode)
		return types.StatusUnknown
	}
}

// hasModelList reports whether an OpenAI 200 body actually carries a
// model listing. Some proxies answer 200 to everything.
func hasModelList(payload []byte) bool {
	var doc struct {
		Data []json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(payload, &doc); err != nil {
		return false
	}
	return len(doc.Data) > 0
}

// rateLimiter enforces per-provider probe budgets over a sliding window.
type rateLimiter struct {
	mu     sync.Mutex
	events map[types.Provider][]time.Time
	now    func() time.Time
	sleep  func(time.Duration)
}

func newRateLimiter() *rateLimiter {
	return &rateLimiter{
		events: make(map[types.Provider][]time.Time),
		now:    time.Now,
		sleep:  time.Sleep,
	}
}

// wait blocks until the provider has budget for one more probe, then
// records the probe.
func (l *rateLimiter) wait(provider types.Provider) {
	budget, ok := requestBudgets[provider]
	if !ok {
		budget = defaultBudget
	}
	for {
		l.mu.Lock()
		now := l.now()
		events := l.events[provider]
		for len(events) > 0 && now.Sub(events[0]) >= rateWindow {
			events = events[1:]
		}
		if len(events) < budget {
			l.events[provider] = append(events, now)
			l.mu.Unlock()
			return
		}
		pause := rateWindow - now.Sub(events[0])
		l.events[provider] = events
		l.mu.Unlock()
		log.Debugf("rate limit reached for %s, pausing %s", provider, pause)
		l.sleep(pause)
	}
}
