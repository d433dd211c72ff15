// Package builder produces the embedding store offline: it reads the
// authored portfolio content, embeds each section, and persists the result
// for the server to load read-only.
package builder

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/sohae-kim/portfolio-chat/internal/guard"
	"github.com/sohae-kim/portfolio-chat/internal/provider"
	"github.com/sohae-kim/portfolio-chat/internal/store"
)

// ContentItem is one authored portfolio section, before embedding.
type ContentItem struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Text  string `json:"text"`
}

// Builder embeds authored content into a store.
type Builder struct {
	embedder provider.Embedder
	logger   *log.Logger
}

// New creates a Builder. A nil logger logs to the standard logger with an
// [INDEX] prefix.
func New(embedder provider.Embedder, logger *log.Logger) *Builder {
	if logger == nil {
		logger = log.New(log.Writer(), "[INDEX] ", log.LstdFlags)
	}
	return &Builder{embedder: embedder, logger: logger}
}

// LoadContent reads the authored content JSON: an array of
// {"id","title","text"} objects.
func LoadContent(path string) ([]ContentItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read content %s: %w", path, err)
	}
	var items []ContentItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parse content %s: %w", path, err)
	}
	return items, nil
}

// Build embeds every content item and assembles a validated store. The
// text sent to the embedder is sanitised the same way questions are at
// query time, so build-time and query-time vectors live in the same space.
// Store-level invariants (unique ids, uniform dimension) are enforced by
// store.New, so a misbehaving embedder fails the build instead of
// producing a corrupt index.
func (b *Builder) Build(ctx context.Context, items []ContentItem) (*store.Store, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("no content items to index")
	}
	chunks := make([]store.Chunk, 0, len(items))
	for _, item := range items {
		text := guard.Sanitize(item.Text)
		if text == "" {
			return nil, fmt.Errorf("content item %q has no usable text", item.ID)
		}
		vec, err := b.embedder.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed %q: %w", item.ID, err)
		}
		b.logger.Printf("embedded %s (%d dims)", item.ID, len(vec))
		chunks = append(chunks, store.Chunk{
			ID:        item.ID,
			Title:     item.Title,
			Text:      item.Text,
			Embedding: vec,
		})
	}
	return store.New(chunks)
}

// BuildFile runs the whole offline step: content file in, store file out.
func (b *Builder) BuildFile(ctx context.Context, contentPath, storePath string) error {
	items, err := LoadContent(contentPath)
	if err != nil {
		return err
	}
	st, err := b.Build(ctx, items)
	if err != nil {
		return err
	}
	if err := st.Write(storePath); err != nil {
		return fmt.Errorf("write store %s: %w", storePath, err)
	}
	b.logger.Printf("wrote %d chunks to %s", st.Len(), storePath)
	return nil
}
