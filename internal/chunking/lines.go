package chunking

import "strings"

// splitLines splits content into lines without the trailing newline,
// matching the line numbering every strategy and the validator use
// (1-based, inclusive ranges over this slice).
func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	return strings.Split(content, "\n")
}

func joinLines(lines []string) string {
	return strings.Join(lines, "\n")
}
