package adjust

import (
	"testing"

	"github.com/nyx-moment/moment/internal/errors"
)

func TestResolve_KnownAdjustments(t *testing.T) {
	e := New()
	for _, name := range KnownAdjustments() {
		result, err := e.Resolve(name)
		if err != nil {
			t.Fatalf("unexpected error for %s: %v", name, err)
		}
		if result.AdjustmentType != name {
			t.Errorf("expected AdjustmentType %s, got %s", name, result.AdjustmentType)
		}
	}
}

func TestResolve_RuntimeAdjustmentsSetDelta(t *testing.T) {
	e := New()

	shorter, _ := e.Resolve("shorter")
	if shorter.Delta.MaxRuntimeMinutes != 100 {
		t.Errorf("expected max runtime 100, got %d", shorter.Delta.MaxRuntimeMinutes)
	}

	longer, _ := e.Resolve("longer")
	if longer.Delta.MinRuntimeMinutes != 150 {
		t.Errorf("expected min runtime 150, got %d", longer.Delta.MinRuntimeMinutes)
	}
}

func TestResolve_SuffixAdjustmentsCarryNoDelta(t *testing.T) {
	e := New()
	lighter, _ := e.Resolve("lighter")
	if lighter.QuerySuffix == "" {
		t.Error("expected non-empty query suffix for lighter")
	}
	var zero = lighter.Delta
	if zero.MaxRuntimeMinutes != 0 || zero.MinRuntimeMinutes != 0 {
		t.Error("expected lighter to carry no runtime delta")
	}
}

func TestResolve_UnknownAdjustmentIsValidationError(t *testing.T) {
	e := New()
	_, err := e.Resolve("sideways")
	if err == nil {
		t.Fatal("expected error for unknown adjustment")
	}
	appErr, ok := errors.IsAppError(err)
	if !ok {
		t.Fatalf("expected *AppError, got %T", err)
	}
	if appErr.Code != errors.ErrValidation {
		t.Errorf("expected VALIDATION_ERROR, got %s", appErr.Code)
	}
}
