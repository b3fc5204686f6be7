package chunking

import (
	"math"
	"strings"
	"testing"

	"github.com/kkkqkx123/codegraph-parser/internal/langspec"
)

func TestBoundaryScoreNonzeroAtBlankLineBetweenFunctions(t *testing.T) {
	spec := langspec.Get("go")
	lines := strings.Split("func f() {\n\treturn\n}\n\nfunc g() {\n\treturn\n}\n", "\n")
	depths := ComputeDepths(lines)

	blankIdx := -1
	for i, l := range lines {
		if strings.TrimSpace(l) == "" {
			blankIdx = i
			break
		}
	}
	if blankIdx == -1 {
		t.Fatal("fixture has no blank line")
	}

	score := BoundaryScore(lines, blankIdx, depths, spec)
	if score <= 0 {
		t.Errorf("expected a nonzero score at the blank line preceding a function, got %v", score)
	}
}

func TestBoundaryScoreSyntacticTermOnlyForUnknownLanguageMidLine(t *testing.T) {
	lines := []string{"x := 1", "y := 2"}
	depths := ComputeDepths(lines)
	score := BoundaryScore(lines, 0, depths, nil)
	// With no spec only the default Syntactic weight applies to a depth-0
	// non-blank line: 0.3 * 0.3.
	if math.Abs(score-0.09) > 1e-9 {
		t.Errorf("expected 0.09 for a non-blank line with no spec, got %v", score)
	}
}

func TestComputeDepthsTracksBraceBalance(t *testing.T) {
	lines := []string{"func f() {", "  if true {", "    return", "  }", "}"}
	depths := ComputeDepths(lines)
	want := []int{1, 2, 2, 1, 0}
	for i, w := range want {
		if depths[i] != w {
			t.Errorf("depths[%d] = %d, want %d", i, depths[i], w)
		}
	}
}
