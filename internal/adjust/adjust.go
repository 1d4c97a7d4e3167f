// Package adjust implements the Quick-Adjust Engine (C12): a closed set of
// named mood adjustments, each mapping to a fixed query-text suffix and/or
// filter-predicate delta. Grounded on the same closed-set, fixed-table
// dispatch idiom as internal/refine and internal/surprise, generalized here
// from strategy selection to single-lookup delta resolution since a quick
// adjustment, unlike refinement, carries no pattern-detection step.
package adjust

import (
	"github.com/nyx-moment/moment/internal/errors"
	"github.com/nyx-moment/moment/internal/types"
)

const (
	maxRuntimeShorter = 100
	minRuntimeLonger  = 150
)

// Result is the resolved delta for one quick-adjust call.
type Result struct {
	AdjustmentType string
	Delta          types.FilterPredicate
	QuerySuffix    string
}

var adjustmentTable = map[string]Result{
	"lighter": {
		AdjustmentType: "lighter",
		QuerySuffix:    "but lighter and more positive",
	},
	"deeper": {
		AdjustmentType: "deeper",
		QuerySuffix:    "but more profound and meaningful",
	},
	"weirder": {
		AdjustmentType: "weirder",
		QuerySuffix:    "but more unusual and unexpected",
	},
	"safer": {
		AdjustmentType: "safer",
		QuerySuffix:    "but more familiar and comfortable",
	},
	"shorter": {
		AdjustmentType: "shorter",
		Delta:          types.FilterPredicate{MaxRuntimeMinutes: maxRuntimeShorter},
	},
	"longer": {
		AdjustmentType: "longer",
		Delta:          types.FilterPredicate{MinRuntimeMinutes: minRuntimeLonger},
	},
}

// Engine resolves a named adjustment to its fixed delta.
type Engine struct{}

// New returns a stateless Engine.
func New() *Engine {
	return &Engine{}
}

// Resolve looks up adjustmentType in the closed set, returning a typed
// validation error for anything outside it.
func (e *Engine) Resolve(adjustmentType string) (Result, error) {
	result, ok := adjustmentTable[adjustmentType]
	if !ok {
		return Result{}, errors.NewValidationError("unknown adjustment type: " + adjustmentType)
	}
	return result, nil
}

// KnownAdjustments returns the closed set of adjustment names, for request
// validation and documentation surfaces.
func KnownAdjustments() []string {
	return []string{"lighter", "deeper", "weirder", "safer", "shorter", "longer"}
}
