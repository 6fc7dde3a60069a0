// Package chat scans Slack channel history for credential material. It
// pages through conversations.history within a bounded time window and
// message cap, classifying each message body and attachment body
// independently.
package chat

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/slack-go/slack"

	"github.com/keyguard/keyguard/internal/detectors"
	"github.com/keyguard/keyguard/internal/log"
	"github.com/keyguard/keyguard/internal/types"
)

const (
	defaultDaysBack    = 30
	defaultMaxMessages = 1000
	pageSize           = 100 // Slack API maximum per page
)

// Config controls a channel scan.
type Config struct {
	Token       string
	DaysBack    int           // history window, default 30
	MaxMessages int           // message cap, default 1000
	Timeout     time.Duration // per-request timeout, default 10s
	APIURL      string        // override for tests
	HTTPClient  *http.Client
}

// Scanner pages Slack history and classifies message text.
type Scanner struct {
	client      *slack.Client
	daysBack    int
	maxMessages int
	timeout     time.Duration
	now         func() time.Time
}

// NewScanner builds a Scanner. The token is required.
func NewScanner(cfg Config) (*Scanner, error) {
	if cfg.Token == "" {
		return nil, errors.New("slack API token required")
	}
	var opts []slack.Option
	if cfg.APIURL != "" {
		opts = append(opts, slack.OptionAPIURL(cfg.APIURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, slack.OptionHTTPClient(cfg.HTTPClient))
	}
	s := &Scanner{
		client:      slack.New(cfg.Token, opts...),
		daysBack:    cfg.DaysBack,
		maxMessages: cfg.MaxMessages,
		timeout:     cfg.Timeout,
		now:         time.Now,
	}
	if s.daysBack <= 0 {
		s.daysBack = defaultDaysBack
	}
	if s.maxMessages <= 0 {
		s.maxMessages = defaultMaxMessages
	}
	if s.timeout <= 0 {
		s.timeout = 10 * time.Second
	}
	return s, nil
}

// ResolveChannel maps a channel name (with or without leading #) to its
// ID, searching public then private channels. A missing channel is an
// error: it points at a configuration mistake, not noisy input.
func (s *Scanner) ResolveChannel(ctx context.Context, name string) (string, error) {
	name = strings.TrimPrefix(name, "#")
	for _, kinds := range [][]string{{"public_channel"}, {"private_channel"}} {
		cursor := ""
		for {
			reqCtx, cancel := context.WithTimeout(ctx, s.timeout)
			channels, next, err := s.client.GetConversationsContext(reqCtx, &slack.GetConversationsParameters{
				Types:  kinds,
				Limit:  200,
				Cursor: cursor,
			})
			cancel()
			if err != nil {
				return "", fmt.Errorf("error fetching channels: %w", err)
			}
			for _, ch := range channels {
				if ch.Name == name {
					return ch.ID, nil
				}
			}
			if next == "" {
				break
			}
			cursor = next
		}
	}
	return "", fmt.Errorf("channel %q not found", name)
}

// ScanChannel scans a channel's history. channel may be a name or an ID.
func (s *Scanner) ScanChannel(ctx context.Context, channel string) ([]types.Finding, error) {
	channelID := channel
	if !looksLikeChannelID(channel) {
		id, err := s.ResolveChannel(ctx, channel)
		if err != nil {
			return nil, err
		}
		channelID = id
	}

	oldest := s.now().AddDate(0, 0, -s.daysBack)
	messages, err := s.fetchHistory(ctx, channelID, oldest)
	if err != nil {
		return nil, err
	}

	var out []types.Finding
	for _, msg := range messages {
		user := msg.User
		if user == "" {
			user = "unknown"
		}
		origin := fmt.Sprintf("Slack message from user %s at %s", user, formatTS(msg.Timestamp))
		for _, f := range detectors.Scan(msg.Text, 0, channelID) {
			f.Context = origin + ": " + f.Context
			out = append(out, f)
		}
		for _, att := range msg.Attachments {
			for _, f := range detectors.Scan(att.Text, 0, channelID) {
				f.Context = origin + " (attachment): " + f.Context
				out = append(out, f)
			}
		}
	}
	return out, nil
}

func (s *Scanner) fetchHistory(ctx context.Context, channelID string, oldest time.Time) ([]slack.Message, error) {
	var all []slack.Message
	cursor := ""
	for {
		reqCtx, cancel := context.WithTimeout(ctx, s.timeout)
		resp, err := s.client.GetConversationHistoryContext(reqCtx, &slack.GetConversationHistoryParameters{
			ChannelID: channelID,
			Limit:     pageSize,
			Oldest:    fmt.Sprintf("%d.000000", oldest.Unix()),
			Cursor:    cursor,
		})
		cancel()
		if err != nil {
			return nil, fmt.Errorf("error fetching messages: %w", err)
		}
		all = append(all, resp.Messages...)
		if len(all) >= s.maxMessages {
			all = all[:s.maxMessages]
			break
		}
		cursor = resp.ResponseMetaData.NextCursor
		if cursor == "" || !resp.HasMore {
			break
		}
	}
	log.Debugf("fetched %d slack messages from %s", len(all), channelID)
	return all, nil
}

func looksLikeChannelID(s string) bool {
	return len(s) == 11 && strings.HasPrefix(s, "C")
}

// formatTS renders a Slack epoch timestamp like "1700000000.000100" as a
// human-readable UTC time.
func formatTS(ts string) string {
	secs := ts
	if i := strings.IndexByte(ts, '.'); i >= 0 {
		secs = ts[:i]
	}
	n, err := strconv.ParseInt(secs, 10, 64)
	if err != nil {
		return ts
	}
	return time.Unix(n, 0).UTC().Format("2006-01-02 15:04:05")
}
