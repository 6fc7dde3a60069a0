package core

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/keyguard/keyguard/internal/types"
)

const coreKey = "sk-ant-REDACTED"

func TestScanTextAndJSONRoundTrip(t *testing.T) {
	findings := ScanText("key = "+coreKey+"\n", "snippet")
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(findings))
	}
	if findings[0].Provider != types.Anthropic {
		t.Fatalf("expected anthropic, got %s", findings[0].Provider)
	}

	var buf bytes.Buffer
	if err := MarshalFindings(&buf, findings); err != nil {
		t.Fatalf("marshal: %v", err)
	}
	back, err := UnmarshalFindings(&buf)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(back) != 1 || back[0].Key != coreKey || back[0].Provider != findings[0].Provider {
		t.Fatalf("round trip mismatch: %#v", back)
	}
}

func TestMarshalFindingsNilIsEmptyArray(t *testing.T) {
	var buf bytes.Buffer
	if err := MarshalFindings(&buf, nil); err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if got := buf.String(); got != "[]\n" {
		t.Fatalf("nil findings marshalled as %q, want []", got)
	}
}

func TestScanFacade(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "notes.txt"), []byte(coreKey+"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	findings, err := Scan(Config{Root: root, NoCache: true})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(findings))
	}
}

func TestProvidersIncludesGenericLast(t *testing.T) {
	ps := Providers()
	if len(ps) == 0 {
		t.Fatal("no providers")
	}
	if ps[len(ps)-1] != types.Generic {
		t.Fatalf("generic must come last, got %s", ps[len(ps)-1])
	}
}
