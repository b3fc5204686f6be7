package ignore

import "testing"

func TestShouldIgnoreMatchesDirectoryGlob(t *testing.T) {
	m := NewMatcher([]string{"node_modules/**", "*.iml"})

	tests := []struct {
		path string
		want bool
	}{
		{"node_modules/left-pad/index.js", true},
		{"src/main.go", false},
		{"project.iml", true},
	}

	for _, tt := range tests {
		if got := m.ShouldIgnore(tt.path); got != tt.want {
			t.Errorf("ShouldIgnore(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestShouldIgnoreNestedDoubleStarGlob(t *testing.T) {
	m := NewMatcher([]string{"**/*.min.js"})

	if !m.ShouldIgnore("dist/vendor/jquery.min.js") {
		t.Error("expected nested .min.js path to be ignored")
	}
	if m.ShouldIgnore("src/app.js") {
		t.Error("did not expect a plain .js file to be ignored")
	}
}

func TestDefaultPatternsNonEmpty(t *testing.T) {
	if len(DefaultPatterns()) == 0 {
		t.Error("expected a non-empty default pattern set")
	}
}
