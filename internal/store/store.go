package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Chunk is one indexed unit of portfolio content: a section title, the raw
// text handed to the LLM as context, and the embedding vector computed for
// that text at build time.
type Chunk struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Text      string    `json:"text"`
	Embedding []float32 `json:"embedding"`
}

// Store is the immutable embedding corpus. It is produced offline by the
// index builder and loaded wholesale at server startup; nothing mutates it
// afterwards, so concurrent readers need no locking.
type Store struct {
	chunks []Chunk
	dim    int
}

// storeFile is the persisted representation.
type storeFile struct {
	Chunks []Chunk `json:"chunks"`
}

// MalformedStoreError reports the first chunk that fails validation.
// It is fatal: the server must refuse to start rather than rank against a
// corrupt index.
type MalformedStoreError struct {
	Index  int
	ID     string
	Reason string
}

func (e *MalformedStoreError) Error() string {
	return fmt.Sprintf("malformed store: chunk %d (id %q): %s", e.Index, e.ID, e.Reason)
}

// New validates chunks and wraps them in a Store. Validation: non-empty id
// and text, unique ids, and identical embedding length across all chunks.
func New(chunks []Chunk) (*Store, error) {
	seen := make(map[string]struct{}, len(chunks))
	dim := 0
	for i, ch := range chunks {
		if ch.ID == "" {
			return nil, &MalformedStoreError{Index: i, ID: ch.ID, Reason: "empty id"}
		}
		if ch.Text == "" {
			return nil, &MalformedStoreError{Index: i, ID: ch.ID, Reason: "empty text"}
		}
		if _, dup := seen[ch.ID]; dup {
			return nil, &MalformedStoreError{Index: i, ID: ch.ID, Reason: "duplicate id"}
		}
		seen[ch.ID] = struct{}{}
		if len(ch.Embedding) == 0 {
			return nil, &MalformedStoreError{Index: i, ID: ch.ID, Reason: "empty embedding"}
		}
		if dim == 0 {
			dim = len(ch.Embedding)
		} else if len(ch.Embedding) != dim {
			return nil, &MalformedStoreError{Index: i, ID: ch.ID,
				Reason: fmt.Sprintf("embedding dimension %d, want %d", len(ch.Embedding), dim)}
		}
	}
	return &Store{chunks: chunks, dim: dim}, nil
}

// Load reads and validates a persisted store file.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read store %s: %w", path, err)
	}
	var f storeFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse store %s: %w", path, err)
	}
	return New(f.Chunks)
}

// Write persists the store in the same format Load reads. Only the offline
// builder uses this; the serving path never writes.
func (s *Store) Write(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(storeFile{Chunks: s.chunks})
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// All returns the full corpus in build order. Callers must not mutate it.
func (s *Store) All() []Chunk { return s.chunks }

// Len returns the number of chunks.
func (s *Store) Len() int { return len(s.chunks) }

// Dim returns the embedding dimensionality shared by every chunk.
func (s *Store) Dim() int { return s.dim }
