package chunking

import (
	"strings"

	"github.com/kkkqkx123/codegraph-parser/internal/langspec"
)

// ComputeDepths returns the cumulative bracket/brace/paren depth after each
// line, the same running balance SymbolBalanceStrategy uses to find
// zero-depth cut points. BoundaryScore reuses it to decide is_syntactically
// _safe without re-scanning the file per candidate line.
func ComputeDepths(lines []string) []int {
	depths := make([]int, len(lines))
	depth := 0
	for i, line := range lines {
		depth += symbolDelta(line)
		depths[i] = depth
	}
	return depths
}

// BoundaryScore implements the weighted boundary-scoring formula of spec.md
// §4.2.5:
//
//	score = w.syntactic * 0.3 * is_syntactically_safe
//	      + w.function  * 0.40 * is_function_end
//	      + w.class     * 0.40 * is_class_end
//	      + w.method    * 0.35 * is_method_end
//	      + w.import    * 0.20 * is_import_end
//	      + w.logical   * 0.50 * is_empty_with_logical_separation
//	      + w.comment   * 0.10 * is_comment_block_end
//
// evaluated for the line at lines[idx], using a +/-3 line context window to
// look past trailing blank lines for the construct a candidate split
// actually follows. depths is the cumulative symbol-depth array from
// ComputeDepths. A nil spec (unknown language) falls back to the blank-line
// and syntactic-depth terms only.
func BoundaryScore(lines []string, idx int, depths []int, spec *langspec.Spec) float64 {
	const window = 3
	trimmed := strings.TrimSpace(lines[idx])

	syntacticallySafe := depths[idx] == 0

	nextNonBlank := nextNonBlankLine(lines, idx, window)
	prevNonBlank := idx > 0 && strings.TrimSpace(lines[idx-1]) != ""

	isFunctionEnd := nextNonBlank != "" && spec != nil && spec.FunctionBoundaryPattern != nil &&
		spec.FunctionBoundaryPattern.MatchString(nextNonBlank)
	isClassEnd := nextNonBlank != "" && spec != nil && spec.ClassBoundaryPattern != nil &&
		spec.ClassBoundaryPattern.MatchString(nextNonBlank)
	isMethodEnd := isFunctionEnd

	isImportEnd := spec != nil && spec.ImportLinePattern != nil &&
		spec.ImportLinePattern.MatchString(lines[idx]) &&
		!(nextNonBlank != "" && spec.ImportLinePattern.MatchString(nextNonBlank))

	isLogicalGap := trimmed == "" && prevNonBlank

	isCommentBlockEnd := false
	if spec != nil && trimmed != "" {
		for _, prefix := range spec.CommentPrefixes {
			if strings.HasPrefix(trimmed, prefix) {
				isCommentBlockEnd = nextNonBlank == "" || !hasCommentPrefix(nextNonBlank, spec.CommentPrefixes)
				break
			}
		}
	}

	w := BoundaryWeightsOrZero(spec)

	score := 0.0
	if syntacticallySafe {
		score += w.Syntactic * 0.3
	}
	if isFunctionEnd {
		score += w.Function * 0.40
	}
	if isClassEnd {
		score += w.Class * 0.40
	}
	if isMethodEnd {
		score += w.Method * 0.35
	}
	if isImportEnd {
		score += w.Import * 0.20
	}
	if isLogicalGap {
		score += w.Logical * 0.50
	}
	if isCommentBlockEnd {
		score += w.Comment * 0.10
	}

	if score > 1.0 {
		score = 1.0
	}
	if score < 0 {
		score = 0
	}
	return score
}

// BoundaryWeightsOrZero returns spec.Boundary, or, when spec is nil, a
// permissive default (Syntactic 0.3, Logical 0.5, every other weight zero)
// so unknown languages still split on blank lines.
func BoundaryWeightsOrZero(spec *langspec.Spec) langspec.BoundaryWeights {
	if spec == nil {
		return langspec.BoundaryWeights{Syntactic: 0.3, Logical: 0.5}
	}
	return spec.Boundary
}

func hasCommentPrefix(line string, prefixes []string) bool {
	trimmed := strings.TrimSpace(line)
	for _, prefix := range prefixes {
		if strings.HasPrefix(trimmed, prefix) {
			return true
		}
	}
	return false
}

func nextNonBlankLine(lines []string, from, window int) string {
	limit := from + 1 + window
	if limit > len(lines) {
		limit = len(lines)
	}
	for i := from + 1; i < limit; i++ {
		if strings.TrimSpace(lines[i]) != "" {
			return lines[i]
		}
	}
	return ""
}

// findGoodSplitPoint scans forward from `from` up to `lookahead` lines for
// the highest-scoring boundary at or above `threshold`, mirroring the
// original implementation's bounded lookahead in createLineChunks. Returns -1 if none
// clears the threshold.
func findGoodSplitPoint(lines []string, from, lookahead int, depths []int, spec *langspec.Spec, threshold float64) int {
	best := -1
	bestScore := threshold
	limit := from + lookahead
	if limit > len(lines) {
		limit = len(lines)
	}
	for i := from; i < limit; i++ {
		score := BoundaryScore(lines, i, depths, spec)
		if score >= bestScore {
			best = i
			bestScore = score
			if score >= 1.0 {
				break
			}
		}
	}
	return best
}
