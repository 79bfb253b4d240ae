package domain

import (
	"errors"
	"fmt"
)

var (
	ErrChunkNotFound = errors.New("chunk not found")
	ErrInvalidInput  = errors.New("invalid input")
	// ErrSemanticUnavailable marks embedding/vector-index failures that
	// the pipeline recovers from by degrading to lexical-only ranking.
	ErrSemanticUnavailable = errors.New("semantic ranking unavailable")
	// ErrCorpusUnavailable is fatal: the corpus/index cannot be read at
	// all and no ranking can be produced.
	ErrCorpusUnavailable = errors.New("corpus unavailable")
	ErrTemporary         = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
