package chat

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/keyguard/keyguard/internal/types"
)

const chatAnthropicKey = "sk-ant-REDACTED"

func newStubScanner(t *testing.T, handler http.HandlerFunc) *Scanner {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	s, err := NewScanner(Config{Token: "xoxb-test", APIURL: srv.URL + "/"})
	require.NoError(t, err)
	s.now = func() time.Time { return time.Unix(1700000000, 0) }
	return s
}

func TestNewScannerRequiresToken(t *testing.T) {
	_, err := NewScanner(Config{})
	require.Error(t, err)
}

func TestScanChannelByID(t *testing.T) {
	var sawList bool
	s := newStubScanner(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "conversations.list"):
			sawList = true
			http.Error(w, "unexpected", http.StatusInternalServerError)
		case strings.HasSuffix(r.URL.Path, "conversations.history"):
			fmt.Fprintf(w, `{"ok":true,"has_more":false,"messages":[
				{"type":"message","user":"U123","ts":"1700000000.000100",
				 "text":"deploy with %s please",
				 "attachments":[{"text":"backup copy %s"}]},
				{"type":"message","user":"U456","ts":"1700000100.000100","text":"all clear"}
			]}`, chatAnthropicKey, chatAnthropicKey)
		default:
			http.Error(w, "not found", http.StatusNotFound)
		}
	})

	findings, err := s.ScanChannel(context.Background(), "C0123456789")
	require.NoError(t, err)
	require.False(t, sawList, "channel IDs should not trigger a lookup")
	require.Len(t, findings, 2)

	require.Equal(t, types.Anthropic, findings[0].Provider)
	require.True(t, strings.HasPrefix(findings[0].Context,
		"Slack message from user U123 at 2023-11-14 22:13:20: "))
	require.Contains(t, findings[1].Context, "(attachment)")
}

func TestScanChannelResolvesName(t *testing.T) {
	s := newStubScanner(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "conversations.list"):
			fmt.Fprint(w, `{"ok":true,
				"channels":[{"id":"C0AAAAAAAAA","name":"random"},{"id":"C0BBBBBBBBB","name":"general"}],
				"response_metadata":{"next_cursor":""}}`)
		case strings.HasSuffix(r.URL.Path, "conversations.history"):
			require.Equal(t, "C0BBBBBBBBB", r.FormValue("channel"))
			fmt.Fprintf(w, `{"ok":true,"has_more":false,"messages":[
				{"type":"message","user":"U123","ts":"1700000000.000100","text":"%s"}]}`, chatAnthropicKey)
		default:
			http.Error(w, "not found", http.StatusNotFound)
		}
	})

	findings, err := s.ScanChannel(context.Background(), "#general")
	require.NoError(t, err)
	require.Len(t, findings, 1)
}

func TestScanChannelMissingName(t *testing.T) {
	s := newStubScanner(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ok":true,"channels":[],"response_metadata":{"next_cursor":""}}`)
	})

	_, err := s.ScanChannel(context.Background(), "nope")
	require.Error(t, err)
	require.Contains(t, err.Error(), `"nope" not found`)
}

func TestFetchHistoryPagination(t *testing.T) {
	var pages int
	s := newStubScanner(t, func(w http.ResponseWriter, r *http.Request) {
		pages++
		if r.FormValue("cursor") == "" {
			fmt.Fprint(w, `{"ok":true,"has_more":true,
				"messages":[{"type":"message","user":"U1","ts":"1.0","text":"a"}],
				"response_metadata":{"next_cursor":"page2"}}`)
			return
		}
		fmt.Fprint(w, `{"ok":true,"has_more":false,
			"messages":[{"type":"message","user":"U2","ts":"2.0","text":"b"}]}`)
	})

	msgs, err := s.fetchHistory(context.Background(), "C0123456789", time.Unix(0, 0))
	require.NoError(t, err)
	require.Equal(t, 2, pages)
	require.Len(t, msgs, 2)
}

func TestFetchHistoryMessageCap(t *testing.T) {
	s := newStubScanner(t, func(w http.ResponseWriter, r *http.Request) {
		var b strings.Builder
		b.WriteString(`{"ok":true,"has_more":true,"messages":[`)
		for i := 0; i < 100; i++ {
			if i > 0 {
				b.WriteByte(',')
			}
			fmt.Fprintf(&b, `{"type":"message","user":"U1","ts":"%d.0","text":"m"}`, i)
		}
		b.WriteString(`],"response_metadata":{"next_cursor":"more"}}`)
		fmt.Fprint(w, b.String())
	})
	s.maxMessages = 150

	msgs, err := s.fetchHistory(context.Background(), "C0123456789", time.Unix(0, 0))
	require.NoError(t, err)
	require.Len(t, msgs, 150)
}
