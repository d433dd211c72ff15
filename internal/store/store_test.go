package store

import (
	"os"
	"path/filepath"
	"testing"
)

func validChunks() []Chunk {
	return []Chunk{
		{ID: "about", Title: "About", Text: "ML engineer.", Embedding: []float32{1, 0, 0}},
		{ID: "skills", Title: "Skills", Text: "Python, Go.", Embedding: []float32{0, 1, 0}},
	}
}

func TestNewValid(t *testing.T) {
	st, err := New(validChunks())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if st.Len() != 2 {
		t.Fatalf("expected 2 chunks, got %d", st.Len())
	}
	if st.Dim() != 3 {
		t.Fatalf("expected dim 3, got %d", st.Dim())
	}
	if st.All()[0].ID != "about" {
		t.Fatalf("build order not preserved: %+v", st.All())
	}
}

func TestNewRejectsDimensionMismatch(t *testing.T) {
	chunks := validChunks()
	chunks[1].Embedding = []float32{0, 1}
	_, err := New(chunks)
	merr, ok := err.(*MalformedStoreError)
	if !ok {
		t.Fatalf("expected MalformedStoreError, got %v", err)
	}
	if merr.Index != 1 || merr.ID != "skills" {
		t.Fatalf("wrong offending chunk: %+v", merr)
	}
}

func TestNewRejectsDuplicateID(t *testing.T) {
	chunks := validChunks()
	chunks[1].ID = "about"
	_, err := New(chunks)
	if _, ok := err.(*MalformedStoreError); !ok {
		t.Fatalf("expected MalformedStoreError, got %v", err)
	}
}

func TestNewRejectsEmptyFields(t *testing.T) {
	for _, tc := range []struct {
		name   string
		mutate func(*Chunk)
	}{
		{"empty id", func(c *Chunk) { c.ID = "" }},
		{"empty text", func(c *Chunk) { c.Text = "" }},
		{"empty embedding", func(c *Chunk) { c.Embedding = nil }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			chunks := validChunks()
			tc.mutate(&chunks[0])
			if _, err := New(chunks); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestWriteLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data", "embeddings.json")

	st, err := New(validChunks())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := st.Write(path); err != nil {
		t.Fatalf("Write: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Len() != st.Len() || loaded.Dim() != st.Dim() {
		t.Fatalf("round trip mismatch: %d/%d vs %d/%d", loaded.Len(), loaded.Dim(), st.Len(), st.Dim())
	}
	if loaded.All()[1].Title != "Skills" {
		t.Fatalf("unexpected chunk after reload: %+v", loaded.All()[1])
	}
}

func TestLoadRejectsMixedDimensions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "embeddings.json")
	payload := `{"chunks":[
		{"id":"a","title":"A","text":"x","embedding":[1,0]},
		{"id":"b","title":"B","text":"y","embedding":[1,0,0]}
	]}`
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	_, err := Load(path)
	if _, ok := err.(*MalformedStoreError); !ok {
		t.Fatalf("expected MalformedStoreError, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
