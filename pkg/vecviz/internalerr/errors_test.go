package internalerr

import (
	"errors"
	"fmt"
	"testing"
)

func TestShapeMismatchError(t *testing.T) {
	err := fmt.Errorf("build: %w", &ShapeMismatchError{What: "coordinates", Expected: 8, Actual: 7})
	if !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("expected ErrShapeMismatch, got %v", err)
	}
	var sm *ShapeMismatchError
	if !errors.As(err, &sm) {
		t.Fatal("expected errors.As to find ShapeMismatchError")
	}
	if sm.Expected != 8 || sm.Actual != 7 {
		t.Errorf("unexpected payload %+v", sm)
	}
}

func TestStageErrorUnwraps(t *testing.T) {
	err := &StageError{Stage: "projection", Err: ErrNonFinite}
	if !errors.Is(err, ErrStageFailure) {
		t.Error("stage error should match ErrStageFailure")
	}
	if !errors.Is(err, ErrNonFinite) {
		t.Error("stage error should unwrap to its cause")
	}
	if errors.Is(err, ErrShapeMismatch) {
		t.Error("stage error matched an unrelated sentinel")
	}
}

func TestPairSimilarityError(t *testing.T) {
	err := &PairSimilarityError{A: "x", B: "y", Err: ErrUnknownToken}
	if !errors.Is(err, ErrPairSimilarity) || !errors.Is(err, ErrUnknownToken) {
		t.Errorf("unexpected error chain for %v", err)
	}
	if got := err.Error(); got != `similarity("x", "y"): unknown token` {
		t.Errorf("Error() = %q", got)
	}
}
