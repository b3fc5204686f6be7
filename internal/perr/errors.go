// Package perr defines the pipeline's error taxonomy (spec.md §7): a closed
// set of Kind values carried on a PipelineError that still composes with
// errors.Is/errors.As/%w the way every file in that lineage wraps errors.
package perr

import "fmt"

// Kind is the closed set of pipeline failure categories (spec.md §7).
type Kind int

const (
	KindUnknown Kind = iota
	KindInputError
	KindDetectionFallback
	KindParseError
	KindChunkingFallback
	KindPostProcessError
	KindNormalizationError
	KindCacheError
	KindMergeError
	KindConfigError
)

func (k Kind) String() string {
	switch k {
	case KindInputError:
		return "input_error"
	case KindDetectionFallback:
		return "detection_fallback"
	case KindParseError:
		return "parse_error"
	case KindChunkingFallback:
		return "chunking_fallback"
	case KindPostProcessError:
		return "post_process_error"
	case KindNormalizationError:
		return "normalization_error"
	case KindCacheError:
		return "cache_error"
	case KindMergeError:
		return "merge_error"
	case KindConfigError:
		return "config_error"
	default:
		return "unknown"
	}
}

// PipelineError wraps an underlying error with a taxonomy Kind and the stage
// that produced it, so callers can errors.As to recover the Kind while the
// chain still prints and unwraps normally.
type PipelineError struct {
	Kind  Kind
	Stage string
	Err   error
}

func (e *PipelineError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Stage, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Stage, e.Kind, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// New wraps err with a Kind and the stage name that observed the failure.
func New(kind Kind, stage string, err error) *PipelineError {
	return &PipelineError{Kind: kind, Stage: stage, Err: err}
}

// Wrap is a convenience for fmt.Errorf-style wrapping under a taxonomy Kind.
func Wrap(kind Kind, stage, format string, args ...any) *PipelineError {
	return &PipelineError{Kind: kind, Stage: stage, Err: fmt.Errorf(format, args...)}
}
