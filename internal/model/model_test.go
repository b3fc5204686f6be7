package model

import (
	"strings"
	"testing"
)

func TestNodeId(t *testing.T) {
	tests := []struct {
		nodeType string
		row      int
		col      int
		want     string
	}{
		{"function_declaration", 0, 0, "function_declaration:0:0"},
		{"class_declaration", 12, 4, "class_declaration:12:4"},
	}

	for _, tt := range tests {
		if got := NodeId(tt.nodeType, tt.row, tt.col); got != tt.want {
			t.Errorf("NodeId(%q, %d, %d) = %q, want %q", tt.nodeType, tt.row, tt.col, got, tt.want)
		}
	}
}

func TestNodeIdStableAcrossCalls(t *testing.T) {
	a := NodeId("method_declaration", 5, 2)
	b := NodeId("method_declaration", 5, 2)
	if a != b {
		t.Errorf("NodeId is not deterministic: %q != %q", a, b)
	}
}

func TestCodeChunkLineCount(t *testing.T) {
	c := CodeChunk{StartLine: 10, EndLine: 19}
	if got := c.LineCount(); got != 10 {
		t.Errorf("LineCount() = %d, want 10", got)
	}
}

func TestEntityRelationshipTypesAreDisjoint(t *testing.T) {
	for st := range EntityTypes {
		if RelationshipTypes[st] {
			t.Errorf("StandardType %q is classified as both an entity and a relationship type", st)
		}
	}
}

func TestComplexityBaseline(t *testing.T) {
	if got := Complexity("single line, no brackets"); got != 1 {
		t.Errorf("Complexity(single short line) = %d, want 1", got)
	}
}

func TestComplexitySizeTermBoundsAtTen(t *testing.T) {
	content := strings.Repeat("x\n", 500)
	if got := Complexity(content); got != 10 {
		t.Errorf("Complexity(500 lines, no nesting) = %d, want size term bounded at 10", got)
	}
}

func TestComplexityNestingTermBoundsAtFive(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 20; i++ {
		b.WriteString("{")
	}
	for i := 0; i < 20; i++ {
		b.WriteString("}")
	}
	if got := Complexity(b.String()); got != 1+5 {
		t.Errorf("Complexity(20-deep nesting, 1 line) = %d, want size(1) + nesting bounded at 5 = 6", got)
	}
}

func TestComplexityCombinesSizeAndNesting(t *testing.T) {
	content := strings.Repeat("line\n", 25) + "if (a) { if (b) { if (c) { x() } } }\n"
	got := Complexity(content)
	// 27 total lines -> size = 1 + 27/10 = 3; deepest nesting is 4
	// (the innermost x() call sits 4 bracket pairs deep) -> nesting = 4.
	if got != 7 {
		t.Errorf("Complexity(27 lines, depth 4) = %d, want 7", got)
	}
}
