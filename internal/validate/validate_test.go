package validate

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/keyguard/keyguard/internal/types"
)

const liveOpenAIKey = "sk-abcdefghijklmnopqrstuvwxyzABCDEFGHIJ12345678KLMN"

// newStubValidator points the OpenAI endpoint at an httptest server.
func newStubValidator(t *testing.T, handler http.HandlerFunc) *Validator {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	v := New()
	ep := v.endpoints[types.OpenAI]
	ep.url = srv.URL + "/v1/models"
	v.endpoints[types.OpenAI] = ep
	return v
}

func TestValidateUnauthorized(t *testing.T) {
	v := newStubValidator(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer "+liveOpenAIKey, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusUnauthorized)
	})

	status := v.Validate(context.Background(), types.OpenAI, liveOpenAIKey)
	require.Equal(t, types.StatusInvalid, status)
}

func TestValidateOKRequiresModelList(t *testing.T) {
	body := `{"data":[{"id":"gpt-4"}]}`
	v := newStubValidator(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, body)
	})

	require.Equal(t, types.StatusValid, v.Validate(context.Background(), types.OpenAI, liveOpenAIKey))

	// A captive portal answering 200 with an HTML page is not a live key.
	body = `<html>welcome</html>`
	v.memo.DeleteAll()
	require.Equal(t, types.StatusInvalid, v.Validate(context.Background(), types.OpenAI, liveOpenAIKey))

	// An empty model listing means the key did not really authenticate.
	body = `{"data":[]}`
	v.memo.DeleteAll()
	require.Equal(t, types.StatusInvalid, v.Validate(context.Background(), types.OpenAI, liveOpenAIKey))
}

func TestValidateForbidden(t *testing.T) {
	body := `{"error":"key has expired"}`
	v := newStubValidator(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, body)
	})

	require.Equal(t, types.StatusExpired, v.Validate(context.Background(), types.OpenAI, liveOpenAIKey))

	// 403 without an expiry hint means the key authenticated but lacks a
	// permission, which still proves it is live.
	body = `{"error":"insufficient_quota"}`
	v.memo.DeleteAll()
	require.Equal(t, types.StatusValid, v.Validate(context.Background(), types.OpenAI, liveOpenAIKey))
}

func TestValidateServerErrorIsUnknown(t *testing.T) {
	v := newStubValidator(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	require.Equal(t, types.StatusUnknown, v.Validate(context.Background(), types.OpenAI, liveOpenAIKey))
}

func TestValidateMemoizes(t *testing.T) {
	var hits int
	v := newStubValidator(t, func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusUnauthorized)
	})

	v.Validate(context.Background(), types.OpenAI, liveOpenAIKey)
	v.Validate(context.Background(), types.OpenAI, liveOpenAIKey)
	require.Equal(t, 1, hits)
}

func TestPrechecks(t *testing.T) {
	cases := []struct {
		name     string
		provider types.Provider
		key      string
		want     types.Status
	}{
		{"generic never probed", types.Generic, "api_key-abcdefghijklmnopqrstuvwxyzABCDE12345", types.StatusUnknown},
		{"test word", types.OpenAI, "sk-test1234567890abcdefghijklmnopqrstuvwxyzABCDEF", types.StatusInvalid},
		{"placeholder zeros", types.OpenAI, "sk-000000000000000000000000abcdefghijklmnopqrstuv", types.StatusInvalid},
		{"openai too short", types.OpenAI, "sk-abcdef", types.StatusInvalid},
		{"anthropic wrong prefix", types.Anthropic, "sk-abcdefghijklmnopqrstuvwxyzABCDEFGHIJ12345678KL", types.StatusInvalid},
		{"huggingface wrong prefix", types.HuggingFace, "sk-abcdefghijklmnopqrstuvwxyzABCDEFGHIJ12345678KL", types.StatusInvalid},
		{"gemini wrong prefix", types.Gemini, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJ123", types.StatusInvalid},
		{"no endpoint for provider", types.Replicate, "r8_demoabcdefghijklmnopqrstuvwxyzABCDE12", types.StatusUnknown},
		{"no endpoint trumps test word", types.Stability, "sk-testabcdefghijklmnopqrstuvwxyzABCDEFGHIJ12345", types.StatusUnknown},
	}
	v := New()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, settled := v.precheck(tc.provider, tc.key)
			require.True(t, settled)
			require.Equal(t, tc.want, status)
		})
	}

	_, settled := v.precheck(types.OpenAI, liveOpenAIKey)
	require.False(t, settled)
}

func TestValidateFindings(t *testing.T) {
	v := newStubValidator(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	findings := []types.Finding{
		{Provider: types.OpenAI, Key: liveOpenAIKey, Confidence: types.ConfHigh},
		{Provider: types.Generic, Key: "api_key-abcdefghijklmnopqrstuvwxyzABCDE12345", Confidence: types.ConfLow},
	}
	var ticks int
	out := v.ValidateFindings(context.Background(), findings, func() { ticks++ })

	require.Equal(t, 2, ticks)
	require.NotNil(t, out[0].Valid)
	require.False(t, *out[0].Valid)
	require.Nil(t, out[1].Valid, "low-confidence findings are not probed")
}

func TestRateLimiterBlocksOverBudget(t *testing.T) {
	clock := time.Unix(1700000000, 0)
	var slept []time.Duration
	l := newRateLimiter()
	l.now = func() time.Time { return clock }
	l.sleep = func(d time.Duration) {
		slept = append(slept, d)
		clock = clock.Add(d)
	}

	budget := requestBudgets[types.Generic]
	for i := 0; i < budget; i++ {
		l.wait(types.Generic)
	}
	require.Empty(t, slept)

	l.wait(types.Generic)
	require.Equal(t, []time.Duration{rateWindow}, slept)

	// After the window rolls over there is budget again.
	l.wait(types.Generic)
	require.Len(t, slept, 1)
}

func TestRateLimiterWindowExpiry(t *testing.T) {
	clock := time.Unix(1700000000, 0)
	l := newRateLimiter()
	l.now = func() time.Time { return clock }
	l.sleep = func(d time.Duration) { t.Fatalf("unexpected sleep of %s", d) }

	budget := requestBudgets[types.HuggingFace]
	for i := 0; i < budget; i++ {
		l.wait(types.HuggingFace)
	}
	clock = clock.Add(rateWindow)
	l.wait(types.HuggingFace)
}
