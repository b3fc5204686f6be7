package perr

import (
	"errors"
	"testing"
)

func TestPipelineErrorUnwrap(t *testing.T) {
	root := errors.New("boom")
	err := New(KindParseError, "chunking", root)

	if !errors.Is(err, root) {
		t.Error("expected errors.Is to see through PipelineError to the wrapped error")
	}

	var pe *PipelineError
	if !errors.As(err, &pe) {
		t.Fatal("expected errors.As to recover *PipelineError")
	}
	if pe.Kind != KindParseError {
		t.Errorf("Kind = %v, want KindParseError", pe.Kind)
	}
}

func TestPipelineErrorMessageIncludesStageAndKind(t *testing.T) {
	err := New(KindCacheError, "cache", errors.New("lru full"))
	msg := err.Error()
	if msg != "cache: cache_error: lru full" {
		t.Errorf("Error() = %q", msg)
	}
}

func TestWrapFormatsMessage(t *testing.T) {
	err := Wrap(KindConfigError, "config", "missing key %q", "sink.host")
	if err.Kind != KindConfigError {
		t.Errorf("Kind = %v, want KindConfigError", err.Kind)
	}
	if err.Error() != `config: config_error: missing key "sink.host"` {
		t.Errorf("Error() = %q", err.Error())
	}
}
