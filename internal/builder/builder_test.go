package builder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/sohae-kim/portfolio-chat/internal/store"
)

// fakeEmbedder returns a distinct deterministic vector per call.
type fakeEmbedder struct {
	dim   int
	calls int
	fail  bool
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.fail {
		return nil, fmt.Errorf("embedder down")
	}
	vec := make([]float32, f.dim)
	vec[f.calls%f.dim] = 1
	f.calls++
	return vec, nil
}

func TestBuildFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	contentPath := filepath.Join(dir, "content.json")
	storePath := filepath.Join(dir, "embeddings.json")
	content := `[
		{"id":"about","title":"About","text":"Sohae Kim is an ML engineer."},
		{"id":"skills","title":"Skills","text":"Machine learning and MLOps."}
	]`
	if err := os.WriteFile(contentPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write content: %v", err)
	}

	b := New(&fakeEmbedder{dim: 4}, nil)
	if err := b.BuildFile(context.Background(), contentPath, storePath); err != nil {
		t.Fatalf("BuildFile: %v", err)
	}

	st, err := store.Load(storePath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if st.Len() != 2 || st.Dim() != 4 {
		t.Fatalf("unexpected store: len=%d dim=%d", st.Len(), st.Dim())
	}
	// Persisted text is the authored text, not the sanitised embedding input.
	if st.All()[0].Text != "Sohae Kim is an ML engineer." {
		t.Fatalf("unexpected text: %q", st.All()[0].Text)
	}
}

func TestBuildEmbedderFailureAborts(t *testing.T) {
	b := New(&fakeEmbedder{dim: 2, fail: true}, nil)
	_, err := b.Build(context.Background(), []ContentItem{
		{ID: "about", Title: "About", Text: "text"},
	})
	if err == nil {
		t.Fatalf("expected error from failing embedder")
	}
}

func TestBuildRejectsEmptyContent(t *testing.T) {
	b := New(&fakeEmbedder{dim: 2}, nil)
	if _, err := b.Build(context.Background(), nil); err == nil {
		t.Fatalf("expected error on empty content")
	}
	if _, err := b.Build(context.Background(), []ContentItem{{ID: "x", Title: "X", Text: "<script></script>"}}); err == nil {
		t.Fatalf("expected error on unusable text")
	}
}

func TestBuildDuplicateIDFails(t *testing.T) {
	b := New(&fakeEmbedder{dim: 2}, nil)
	_, err := b.Build(context.Background(), []ContentItem{
		{ID: "about", Title: "About", Text: "one"},
		{ID: "about", Title: "About again", Text: "two"},
	})
	if _, ok := err.(*store.MalformedStoreError); !ok {
		t.Fatalf("expected MalformedStoreError, got %v", err)
	}
}
