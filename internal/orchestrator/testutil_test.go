package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Yates-Labs/beacon/internal/config"
	"github.com/Yates-Labs/beacon/internal/narrative"
	"github.com/Yates-Labs/beacon/internal/rag"
)

// vocabulary gives topicEmbedder one dimension per term plus a constant bias.
var vocabulary = []string{"screen", "reader", "dyslexia", "phonics", "ada", "law"}

// topicEmbedder counts vocabulary terms, so texts about the same topic land
// close together without a real model.
type topicEmbedder struct {
	calls int
}

func (e *topicEmbedder) Embed(ctx context.Context, texts []string) ([]rag.EmbeddingRecord, error) {
	e.calls++
	records := make([]rag.EmbeddingRecord, len(texts))
	for i, text := range texts {
		lower := strings.ToLower(text)
		vec := make([]float32, len(vocabulary)+1)
		for j, term := range vocabulary {
			vec[j] = float32(strings.Count(lower, term))
		}
		vec[len(vocabulary)] = 0.1
		records[i] = rag.EmbeddingRecord{Text: text, Embedding: vec, Index: i, Model: "topic"}
	}
	return records, nil
}

func (e *topicEmbedder) GetModel() string  { return "topic" }
func (e *topicEmbedder) GetDimension() int { return len(vocabulary) + 1 }

type fixture struct {
	svc      *Service
	root     string
	embedder *topicEmbedder
	store    *rag.ChromemStore
	llm      *narrative.MockLLM
}

func newFixture(t *testing.T, llm *narrative.MockLLM) *fixture {
	t.Helper()

	root := t.TempDir()
	writeCorpusFile(t, root, "assistive-tech/screen-readers.txt",
		"Title: Screen readers\nSource URL: https://example.org/screen-readers\n\nContent:\n"+
			"Screen readers convert on-screen text to speech. A screen reader helps blind students use course materials.\n")
	writeCorpusFile(t, root, "learning-disabilities/dyslexia.md",
		"Title: Dyslexia\nSource URL: https://example.org/dyslexia\n\nContent:\n"+
			"# Dyslexia\n\nDyslexia affects decoding. Structured phonics instruction helps.\n")
	writeCorpusFile(t, root, "policy/empty.txt", "Title: Empty\n\nContent:\n")

	cfg := config.Default()
	cfg.Corpus.Dir = root
	cfg.Corpus.Workers = 2
	cfg.Embedder.Dimension = len(vocabulary) + 1

	store, err := rag.NewChromemStore(rag.ChromemConfig{Collection: "test", Dimension: len(vocabulary) + 1})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	if llm == nil {
		llm = narrative.NewMockLLM("")
	}
	embedder := &topicEmbedder{}
	svc, err := NewWithDeps(cfg, Deps{Embedder: embedder, Store: store, LLM: llm})
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	t.Cleanup(func() { svc.Close() })

	return &fixture{svc: svc, root: root, embedder: embedder, store: store, llm: llm}
}

func writeCorpusFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}
