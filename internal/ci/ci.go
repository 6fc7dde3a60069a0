// Package ci parses CI pipeline definitions and feeds every string that
// could carry a credential through the classifier. Two dialects are
// understood: GitHub Actions workflows (jobs/steps) and GitLab CI
// (variables/script). Malformed YAML yields zero findings, never an error.
package ci

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/keyguard/keyguard/internal/detectors"
	"github.com/keyguard/keyguard/internal/log"
	"github.com/keyguard/keyguard/internal/types"
)

// Reserved top-level GitLab CI keys that are not jobs.
var gitlabReservedKeys = map[string]bool{
	"stages":    true,
	"variables": true,
	"workflow":  true,
	"default":   true,
	"include":   true,
}

type ghStep struct {
	Env map[string]interface{} `yaml:"env"`
	Run string                 `yaml:"run"`
}

type ghJob struct {
	Env   map[string]interface{} `yaml:"env"`
	Steps []ghStep               `yaml:"steps"`
}

type ghWorkflow struct {
	Env  map[string]interface{} `yaml:"env"`
	Jobs map[string]ghJob       `yaml:"jobs"`
}

// ParseGitHubActions extracts candidate strings from a GitHub Actions
// workflow: job env vars, step env vars, step run commands, and
// workflow-level env vars. Each finding's context is prefixed with its
// structural origin.
func ParseGitHubActions(path string, content []byte) []types.Finding {
	var wf ghWorkflow
	if err := yaml.Unmarshal(content, &wf); err != nil {
		log.Debugf("unparseable workflow %s: %v", path, err)
		return nil
	}
	var out []types.Finding

	for _, job := range sortedKeys(wf.Jobs) {
		cfg := wf.Jobs[job]
		for _, name := range sortedKeys(cfg.Env) {
			if v, ok := cfg.Env[name].(string); ok {
				out = append(out, classify(v, path,
					fmt.Sprintf("GitHub Actions job '%s' env var '%s'", job, name))...)
			}
		}
		for idx, step := range cfg.Steps {
			for _, name := range sortedKeys(step.Env) {
				if v, ok := step.Env[name].(string); ok {
					out = append(out, classify(v, path,
						fmt.Sprintf("GitHub Actions job '%s' step %d env var '%s'", job, idx, name))...)
				}
			}
			if step.Run != "" {
				out = append(out, classify(step.Run, path,
					fmt.Sprintf("GitHub Actions job '%s' step %d run command", job, idx))...)
			}
		}
	}
	for _, name := range sortedKeys(wf.Env) {
		if v, ok := wf.Env[name].(string); ok {
			out = append(out, classify(v, path,
				fmt.Sprintf("GitHub Actions workflow env var '%s'", name))...)
		}
	}
	return out
}

// ParseGitLabCI extracts candidate strings from a GitLab CI config:
// the top-level variables block plus per-job variables, script,
// before_script, and after_script. Reserved top-level keys are not
// treated as jobs.
func ParseGitLabCI(path string, content []byte) []types.Finding {
	var doc map[string]interface{}
	if err := yaml.Unmarshal(content, &doc); err != nil {
		log.Debugf("unparseable CI config %s: %v", path, err)
		return nil
	}
	var out []types.Finding

	if vars, ok := doc["variables"].(map[string]interface{}); ok {
		for _, name := range sortedKeys(vars) {
			if v, ok := vars[name].(string); ok {
				out = append(out, classify(v, path,
					fmt.Sprintf("GitLab CI variables section '%s'", name))...)
			}
		}
	}

	for _, job := range sortedKeys(doc) {
		if gitlabReservedKeys[job] {
			continue
		}
		cfg, ok := doc[job].(map[string]interface{})
		if !ok {
			continue
		}
		if vars, ok := cfg["variables"].(map[string]interface{}); ok {
			for _, name := range sortedKeys(vars) {
				if v, ok := vars[name].(string); ok {
					out = append(out, classify(v, path,
						fmt.Sprintf("GitLab CI job '%s' variable '%s'", job, name))...)
				}
			}
		}
		out = append(out, scriptLines(cfg["script"], path,
			fmt.Sprintf("GitLab CI job '%s' script line", job))...)
		for _, section := range []string{"before_script", "after_script"} {
			out = append(out, scriptLines(cfg[section], path,
				fmt.Sprintf("GitLab CI job '%s' %s line", job, section))...)
		}
	}
	return out
}

func scriptLines(v interface{}, path, prefix string) []types.Finding {
	var out []types.Finding
	switch script := v.(type) {
	case []interface{}:
		for idx, line := range script {
			if s, ok := line.(string); ok {
				out = append(out, classify(s, path, fmt.Sprintf("%s %d", prefix, idx))...)
			}
		}
	case string:
		out = append(out, classify(script, path, fmt.Sprintf("%s %d", prefix, 0))...)
	}
	return out
}

func classify(text, path, origin string) []types.Finding {
	fs := detectors.Scan(text, 0, path)
	for i := range fs {
		fs[i].Context = origin + ": " + fs[i].Context
	}
	return fs
}

// ScanFile parses one manifest, choosing the dialect by file name:
// .gitlab-ci.yml uses the GitLab dialect, everything else the GitHub
// Actions dialect. Unreadable files are an error; unparseable content is
// not.
func ScanFile(path string) ([]types.Finding, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read manifest %q: %w", path, err)
	}
	if strings.HasPrefix(filepath.Base(path), ".gitlab-ci") {
		return ParseGitLabCI(path, b), nil
	}
	return ParseGitHubActions(path, b), nil
}

// ScanWorkflowDir scans all pipeline definitions under root: every
// .yml/.yaml in .github/workflows plus a top-level .gitlab-ci.yml.
func ScanWorkflowDir(root string) []types.Finding {
	var out []types.Finding
	wfDir := filepath.Join(root, ".github", "workflows")
	entries, err := os.ReadDir(wfDir)
	if err == nil {
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			name := e.Name()
			if !strings.HasSuffix(name, ".yml") && !strings.HasSuffix(name, ".yaml") {
				continue
			}
			if fs, err := ScanFile(filepath.Join(wfDir, name)); err == nil {
				out = append(out, fs...)
			}
		}
	}
	if fs, err := ScanFile(filepath.Join(root, ".gitlab-ci.yml")); err == nil {
		out = append(out, fs...)
	}
	return out
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
