package ci

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/keyguard/keyguard/internal/types"
)

const (
	githubAPIBase = "https://api.github.com"
	fetchTimeout  = 15 * time.Second
)

// RemoteScanner pulls workflow files straight from the GitHub contents
// API, so a repository can be checked without cloning it. A token is
// only needed for private repositories.
type RemoteScanner struct {
	client  *http.Client
	apiBase string
	token   string
}

// NewRemoteScanner builds a scanner against api.github.com. token may be
// empty for public repositories.
func NewRemoteScanner(token string) *RemoteScanner {
	return &RemoteScanner{
		client:  &http.Client{Timeout: fetchTimeout},
		apiBase: githubAPIBase,
		token:   token,
	}
}

type contentEntry struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Type string `json:"type"`
}

// ScanRepo scans the workflows of repo ("owner/name"). With a workflowFile
// it fetches just that file; otherwise it lists .github/workflows and
// scans every YAML file found there. An unreachable repository or listing
// is an error, so CI callers can tell "nothing found" from "could not look".
func (r *RemoteScanner) ScanRepo(ctx context.Context, repo, workflowFile string) ([]types.Finding, error) {
	if workflowFile != "" {
		content, err := r.fetchFile(ctx, repo, workflowFile)
		if err != nil {
			return nil, err
		}
		return ParseGitHubActions(workflowFile, content), nil
	}

	entries, err := r.listWorkflows(ctx, repo)
	if err != nil {
		return nil, err
	}
	var out []types.Finding
	for _, e := range entries {
		if e.Type != "file" {
			continue
		}
		if !strings.HasSuffix(e.Name, ".yml") && !strings.HasSuffix(e.Name, ".yaml") {
			continue
		}
		content, err := r.fetchFile(ctx, repo, e.Path)
		if err != nil {
			return nil, err
		}
		out = append(out, ParseGitHubActions(e.Path, content)...)
	}
	return out, nil
}

func (r *RemoteScanner) listWorkflows(ctx context.Context, repo string) ([]contentEntry, error) {
	url := fmt.Sprintf("%s/repos/%s/contents/.github/workflows", r.apiBase, repo)
	payload, err := r.get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("listing workflows of %s: %w", repo, err)
	}
	var entries []contentEntry
	if err := json.Unmarshal(payload, &entries); err != nil {
		return nil, fmt.Errorf("listing workflows of %s: %w", repo, err)
	}
	return entries, nil
}

// fetchFile retrieves one file through the contents API. GitHub returns
// the body base64 encoded with embedded newlines.
func (r *RemoteScanner) fetchFile(ctx context.Context, repo, path string) ([]byte, error) {
	url := fmt.Sprintf("%s/repos/%s/contents/%s", r.apiBase, repo, path)
	payload, err := r.get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetching %s from %s: %w", path, repo, err)
	}
	var doc struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("fetching %s from %s: %w", path, repo, err)
	}
	if doc.Content == "" {
		return nil, fmt.Errorf("fetching %s from %s: response carries no content", path, repo)
	}
	raw, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(doc.Content, "\n", ""))
	if err != nil {
		return nil, fmt.Errorf("fetching %s from %s: %w", path, repo, err)
	}
	return raw, nil
}

func (r *RemoteScanner) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if r.token != "" {
		req.Header.Set("Authorization", "token "+r.token)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GitHub API returned %d", resp.StatusCode)
	}
	return body, nil
}
