package retrieval

import "strings"

// Reference points a visitor back at the portfolio section a chunk came
// from. ID is the section anchor used to build the deep link.
type Reference struct {
	Title string
	ID    string
}

// Assemble concatenates ranked chunk texts, each under its section title,
// into the context block for the answer generator, staying within
// maxContextChars. Chunks are taken in rank order; one that would overflow
// the budget is skipped whole and assembly stops there, so a lower-ranked
// chunk never displaces a higher-ranked one. Chunks are never truncated.
//
// The returned references are the deduplicated titles of the chunks that
// actually made it into the context, in inclusion order.
func Assemble(results []Result, maxContextChars int) (string, []Reference) {
	var b strings.Builder
	var refs []Reference
	seen := make(map[string]struct{})

	for _, r := range results {
		block := "## " + r.Chunk.Title + "\n" + r.Chunk.Text
		need := len(block)
		if b.Len() > 0 {
			need += 2 // separating blank line
		}
		if b.Len()+need > maxContextChars {
			break
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(block)
		if _, ok := seen[r.Chunk.Title]; !ok {
			seen[r.Chunk.Title] = struct{}{}
			refs = append(refs, Reference{Title: r.Chunk.Title, ID: r.Chunk.ID})
		}
	}
	return b.String(), refs
}
