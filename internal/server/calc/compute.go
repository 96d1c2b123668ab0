package calc

import (
	"fmt"
	"math"

	"github.com/dmitrijs2005/calckeeper/internal/common"
)

// MinInputs is the smallest number of operands any operation accepts.
const MinInputs = 2

// Compute folds inputs left to right with op: ((a op b) op c) ...
//
// Inputs are validated first so a rejected request never reaches storage:
// fewer than MinInputs or a non-finite value is a validation error, and a
// zero divisor anywhere after the first operand is common.ErrComputation.
func Compute(op Operation, inputs []float64) (float64, error) {
	if len(inputs) < MinInputs {
		return 0, common.NewValidationError("inputs", fmt.Sprintf("at least %d numbers are required", MinInputs))
	}
	for i, v := range inputs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, common.NewValidationError("inputs", fmt.Sprintf("element %d is not a finite number", i))
		}
	}

	var step func(acc, v float64) float64
	switch op {
	case Addition:
		step = func(acc, v float64) float64 { return acc + v }
	case Subtraction:
		step = func(acc, v float64) float64 { return acc - v }
	case Multiplication:
		step = func(acc, v float64) float64 { return acc * v }
	case Division:
		for _, v := range inputs[1:] {
			if v == 0 {
				return 0, fmt.Errorf("%w: division by zero", common.ErrComputation)
			}
		}
		step = func(acc, v float64) float64 { return acc / v }
	default:
		return 0, common.NewValidationError("type", fmt.Sprintf("unsupported operation %q", string(op)))
	}

	acc := inputs[0]
	for _, v := range inputs[1:] {
		acc = step(acc, v)
	}

	if math.IsInf(acc, 0) || math.IsNaN(acc) {
		return 0, fmt.Errorf("%w: result overflows", common.ErrComputation)
	}
	return acc, nil
}
