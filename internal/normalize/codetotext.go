package normalize

import (
	"fmt"
	"strings"

	"github.com/kkkqkx123/codegraph-parser/internal/model"
)

// DescribeEntity renders a short natural-language description of an entity,
// the code-to-text conversion spec.md §4.4 requires as an input to any
// downstream embedding or summarization step. Plain string building, not a
// templating library, matching how the rest of this codebase formats
// one-line descriptions.
func DescribeEntity(e model.Entity) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", e.Type, orUnnamed(e.Name))
	if e.Metadata.Language != "" {
		fmt.Fprintf(&b, " (%s)", e.Metadata.Language)
	}
	fmt.Fprintf(&b, ", lines %d-%d", e.StartLine, e.EndLine)
	return b.String()
}

// DescribeRelationship renders a short natural-language description of a
// relationship edge.
func DescribeRelationship(r model.Relationship) string {
	return fmt.Sprintf("%s -> %s: %s", r.SourceId, r.TargetId, r.Type)
}

func orUnnamed(name string) string {
	if name == "" {
		return "<unnamed>"
	}
	return name
}
