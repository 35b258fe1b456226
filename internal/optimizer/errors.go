package optimizer

import (
	"errors"
	"fmt"
)

// InfeasibleFormationError reports a role whose quota exceeds the number of
// players of that role available in the pool. Detected before any
// generation runs.
type InfeasibleFormationError struct {
	Role      Role
	Required  int
	Available int
}

func (e *InfeasibleFormationError) Error() string {
	return fmt.Sprintf("formation requires %d %s players, pool has %d",
		e.Required, e.Role.Label(), e.Available)
}

// InfeasibleBudgetError reports that even the cheapest legal roster costs
// more than the budget. Shortfall is how much budget is missing.
type InfeasibleBudgetError struct {
	Budget      float64
	MinimumCost float64
	Shortfall   float64
}

func (e *InfeasibleBudgetError) Error() string {
	return fmt.Sprintf("cheapest legal roster costs %.1f, budget is %.1f (short by %.1f)",
		e.MinimumCost, e.Budget, e.Shortfall)
}

// errRepairExhausted signals that a single candidate could not be made
// feasible within the repair attempt budget. Callers discard the candidate
// and resample; the error never reaches the public API.
var errRepairExhausted = errors.New("candidate repair attempts exhausted")

// IsInfeasible reports whether err is one of the fatal infeasibility
// diagnoses.
func IsInfeasible(err error) bool {
	var formationErr *InfeasibleFormationError
	var budgetErr *InfeasibleBudgetError
	return errors.As(err, &formationErr) || errors.As(err, &budgetErr)
}
