package internalerr

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrDuplicate        = errors.New("duplicate entry")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrInvalidConfig    = errors.New("invalid configuration")
)

// Sentinel errors for the build pipeline
var (
	ErrEmptyVocabulary = errors.New("empty vocabulary")
	ErrShapeMismatch   = errors.New("shape mismatch")
	ErrStageFailure    = errors.New("stage failure")
	ErrPairSimilarity  = errors.New("pair similarity failed")
	ErrUnknownToken    = errors.New("unknown token")
	ErrZeroVector      = errors.New("zero vector")
	ErrNonFinite       = errors.New("non-finite value")
)

// ShapeMismatchError reports a provider output whose row count disagrees
// with the vocabulary size.
type ShapeMismatchError struct {
	What     string // "coordinates", "clusters", ...
	Expected int
	Actual   int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("shape mismatch: %s has %d rows, expected %d", e.What, e.Actual, e.Expected)
}

// Is reports ErrShapeMismatch as the error category.
func (e *ShapeMismatchError) Is(target error) bool {
	return target == ErrShapeMismatch
}

// StageError wraps the failure of one named pipeline stage.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Is reports ErrStageFailure as the error category.
func (e *StageError) Is(target error) bool {
	return target == ErrStageFailure
}

// PairSimilarityError records one failed similarity lookup. It is never
// returned from a build; builds collect these as warnings.
type PairSimilarityError struct {
	A, B string
	Err  error
}

func (e *PairSimilarityError) Error() string {
	return fmt.Sprintf("similarity(%q, %q): %v", e.A, e.B, e.Err)
}

func (e *PairSimilarityError) Unwrap() error { return e.Err }

// Is reports ErrPairSimilarity as the error category.
func (e *PairSimilarityError) Is(target error) bool {
	return target == ErrPairSimilarity
}
