package keyguard

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

const cliKey = "sk-ant-REDACTED"

func runCLI(t *testing.T, args ...string) (*bytes.Buffer, error) {
	t.Helper()
	// run as subprocess to avoid os.Exit in-process
	cmd := exec.Command("go", append([]string{"run", "."}, args...)...)
	cmd.Dir = filepath.Clean(filepath.Join("..", ".."))
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = os.Stderr
	err := cmd.Run()
	return &out, err
}

func TestCLI_Scan_JSON_Shape(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "secrets.txt"), []byte("key = "+cliKey+"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	out, err := runCLI(t, "scan", "--json", "--fail-on", "never", "--no-cache", "-p", dir)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	var arr []map[string]any
	if err := json.Unmarshal(out.Bytes(), &arr); err != nil {
		t.Fatalf("json unmarshal: %v\n%s", err, out.String())
	}
	if len(arr) != 1 {
		t.Fatalf("expected one finding, got %d", len(arr))
	}
	if arr[0]["provider"] != "anthropic" {
		t.Fatalf("expected anthropic finding, got %v", arr[0]["provider"])
	}
}

func TestCLI_Scan_FailOnExitCode(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "secrets.txt"), []byte(cliKey+"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := runCLI(t, "scan", "--json", "--fail-on", "medium", "--no-cache", "-p", dir)
	var exitErr *exec.ExitError
	if err == nil {
		t.Fatal("expected nonzero exit for high-confidence finding at fail-on medium")
	}
	if !errors.As(err, &exitErr) || exitErr.ExitCode() != 1 {
		t.Fatalf("expected exit code 1, got %v", err)
	}
}

func TestCLI_Providers_JSON(t *testing.T) {
	out, err := runCLI(t, "providers", "--json")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	var arr []map[string]any
	if err := json.Unmarshal(out.Bytes(), &arr); err != nil {
		t.Fatalf("json unmarshal: %v\n%s", err, out.String())
	}
	if len(arr) == 0 {
		t.Fatal("expected provider listing")
	}
	last := arr[len(arr)-1]
	if last["provider"] != "generic" {
		t.Fatalf("generic should be listed last, got %v", last["provider"])
	}
}

func TestCLI_CI_ScansManifest(t *testing.T) {
	dir := t.TempDir()
	manifest := "jobs:\n  build:\n    env:\n      KEY: " + cliKey + "\n"
	p := filepath.Join(dir, "workflow.yml")
	if err := os.WriteFile(p, []byte(manifest), 0644); err != nil {
		t.Fatal(err)
	}
	out, err := runCLI(t, "ci", "--json", "--fail-on", "never", p)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	var arr []map[string]any
	if err := json.Unmarshal(out.Bytes(), &arr); err != nil {
		t.Fatalf("json unmarshal: %v\n%s", err, out.String())
	}
	if len(arr) != 1 {
		t.Fatalf("expected one finding, got %d\n%s", len(arr), out.String())
	}
}
