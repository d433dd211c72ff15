package retrieval

import (
	"strings"
	"testing"

	"github.com/sohae-kim/portfolio-chat/internal/store"
)

func result(id, title, text string, score float64) Result {
	return Result{Chunk: store.Chunk{ID: id, Title: title, Text: text}, Score: score}
}

func TestAssembleConcatenatesInRankOrder(t *testing.T) {
	ctx, refs := Assemble([]Result{
		result("exp", "Experience", "Samsung Display, MIT.", 0.9),
		result("edu", "Education", "PhD from MIT.", 0.8),
	}, 1000)

	if !strings.HasPrefix(ctx, "## Experience\nSamsung Display, MIT.") {
		t.Fatalf("unexpected context start: %q", ctx)
	}
	if !strings.Contains(ctx, "\n\n## Education\nPhD from MIT.") {
		t.Fatalf("second chunk missing or misplaced: %q", ctx)
	}
	if len(refs) != 2 || refs[0].Title != "Experience" || refs[1].Title != "Education" {
		t.Fatalf("unexpected references: %+v", refs)
	}
}

func TestAssembleNeverExceedsBudget(t *testing.T) {
	results := []Result{
		result("a", "A", strings.Repeat("x", 40), 0.9),
		result("b", "B", strings.Repeat("y", 40), 0.8),
		result("c", "C", strings.Repeat("z", 40), 0.7),
	}
	for _, budget := range []int{0, 10, 45, 50, 100, 500} {
		ctx, _ := Assemble(results, budget)
		if len(ctx) > budget {
			t.Fatalf("budget %d exceeded: context is %d chars", budget, len(ctx))
		}
	}
}

func TestAssembleStopsAtFirstOversizedChunk(t *testing.T) {
	// The middle chunk does not fit; the smaller third chunk must not be
	// pulled in past it, relevance order beats packing.
	results := []Result{
		result("a", "A", "short", 0.9),
		result("b", "B", strings.Repeat("x", 200), 0.8),
		result("c", "C", "tiny", 0.7),
	}
	ctx, refs := Assemble(results, 60)
	if strings.Contains(ctx, "tiny") {
		t.Fatalf("lower-ranked chunk included after a skip: %q", ctx)
	}
	if len(refs) != 1 || refs[0].ID != "a" {
		t.Fatalf("unexpected references: %+v", refs)
	}
}

func TestAssembleOversizedFirstChunk(t *testing.T) {
	// The worked example: budget smaller than the only chunk's text ->
	// empty context, no references.
	results := []Result{result("exp", "Experience", strings.Repeat("x", 100), 1.0)}
	ctx, refs := Assemble(results, 50)
	if ctx != "" {
		t.Fatalf("expected empty context, got %q", ctx)
	}
	if len(refs) != 0 {
		t.Fatalf("expected no references, got %+v", refs)
	}
}

func TestAssembleDeduplicatesTitles(t *testing.T) {
	results := []Result{
		result("p1", "Projects", "First project.", 0.9),
		result("p2", "Projects", "Second project.", 0.8),
	}
	ctx, refs := Assemble(results, 1000)
	if !strings.Contains(ctx, "First project.") || !strings.Contains(ctx, "Second project.") {
		t.Fatalf("both chunks should be present: %q", ctx)
	}
	if len(refs) != 1 || refs[0].Title != "Projects" {
		t.Fatalf("expected one deduplicated reference, got %+v", refs)
	}
}

func TestAssembleReferencesOnlyIncludedChunks(t *testing.T) {
	results := []Result{
		result("a", "A", "fits", 0.9),
		result("b", "B", strings.Repeat("x", 500), 0.8),
	}
	ctx, refs := Assemble(results, 40)
	for _, ref := range refs {
		if !strings.Contains(ctx, "## "+ref.Title) {
			t.Fatalf("reference %q not present in context %q", ref.Title, ctx)
		}
	}
	if len(refs) != 1 {
		t.Fatalf("expected 1 reference, got %+v", refs)
	}
}

func TestAssembleEmptyInput(t *testing.T) {
	ctx, refs := Assemble(nil, 1000)
	if ctx != "" || len(refs) != 0 {
		t.Fatalf("expected empty output, got %q / %+v", ctx, refs)
	}
}
