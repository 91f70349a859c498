package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Yates-Labs/beacon/internal/dialogue"
	"github.com/Yates-Labs/beacon/internal/orchestrator"
)

// run executes the root command with args and returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")}, args...))
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		ingestJSON, ingestDryRun, ingestDir = false, false, ""
		writeConfig = ""
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func writeCorpus(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"assistive-technology/screen-readers.txt": "Title: Screen readers\nSource URL: https://example.org/sr\nContent:\nScreen readers speak the text on the screen aloud.",
		"learning/dyslexia.md":                    "# Dyslexia\n\nDyslexia affects reading. Phonics instruction helps.",
	}
	for name, body := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func TestCommandsRegistered(t *testing.T) {
	want := []string{"ask", "chat", "chunk", "config", "ingest", "mcp", "serve"}
	got := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		got[c.Name()] = true
	}
	for _, name := range want {
		if !got[name] {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestIngestDryRunJSON(t *testing.T) {
	root := writeCorpus(t)

	out, err := run(t, "ingest", "--dry-run", "--json", "--dir", root)
	if err != nil {
		t.Fatalf("ingest --dry-run: %v\n%s", err, out)
	}

	var report orchestrator.IngestReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("report is not JSON: %v\n%s", err, out)
	}
	if report.Documents != 2 {
		t.Errorf("Documents = %d, want 2", report.Documents)
	}
	if !report.DryRun {
		t.Error("DryRun = false, want true")
	}
	if report.Indexed != 0 {
		t.Errorf("Indexed = %d, want 0 on a dry run", report.Indexed)
	}
	if len(report.Categories) != 2 || report.Categories[0].Category != "assistive-technology" {
		t.Errorf("Categories = %+v", report.Categories)
	}
}

func TestIngestDryRunTable(t *testing.T) {
	root := writeCorpus(t)

	out, err := run(t, "ingest", "--dry-run", "--dir", root)
	if err != nil {
		t.Fatalf("ingest --dry-run: %v", err)
	}
	for _, s := range []string{"dry run", "CATEGORY", "learning", "assistive-technology"} {
		if !strings.Contains(out, s) {
			t.Errorf("output missing %q:\n%s", s, out)
		}
	}
}

func TestConfigWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "beacon.yaml")

	if _, err := run(t, "config", "--write", path); err != nil {
		t.Fatalf("config --write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "chunker:") {
		t.Errorf("saved config missing chunker section:\n%s", data)
	}
	if strings.Contains(string(data), "api_key") {
		t.Error("saved config must not contain API keys")
	}
}

func TestSourceList(t *testing.T) {
	resp := dialogue.Response{
		SourceTitles: []string{"Screen readers", ""},
		SourceURLs:   []string{"https://example.org/sr", "https://example.org/dys"},
	}
	got := sourceList(resp)
	want := []string{"Screen readers - https://example.org/sr", "https://example.org/dys"}
	if len(got) != len(want) {
		t.Fatalf("sourceList() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sourceList()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestGenerationErrorHidesProviderDetail(t *testing.T) {
	if err := generationError(nil); err != nil {
		t.Errorf("generationError(nil) = %v, want nil", err)
	}

	provider := errors.New("openai: 401 Unauthorized: invalid api key sk-test-123")
	err := generationError(provider)
	if !errors.Is(err, errGenerationFailed) {
		t.Fatalf("generationError() = %v, want %v", err, errGenerationFailed)
	}
	if strings.Contains(err.Error(), "sk-test") || strings.Contains(err.Error(), "401") {
		t.Errorf("error leaks provider detail: %q", err)
	}
}
