package workflow

import (
	"fmt"
	"strings"

	"github.com/Onebillie/onebillconvo-sub004/internal/domain"
)

// EvaluateConditions applies every predicate against the context and combines
// the results with the configured logic operator. An empty predicate list
// evaluates to true.
func EvaluateConditions(cfg *ConditionConfig, ctx *Context) (bool, error) {
	logic := strings.ToUpper(cfg.Logic)
	if logic == "" {
		logic = "AND"
	}
	if logic != "AND" && logic != "OR" {
		return false, fmt.Errorf("%w: unknown logic operator %q", domain.ErrInvalidStepConfig, cfg.Logic)
	}

	result := logic == "AND"
	for _, cond := range cfg.Conditions {
		ok, err := evaluateCondition(cond, ctx)
		if err != nil {
			return false, err
		}
		if logic == "AND" {
			result = result && ok
			if !result {
				break
			}
		} else {
			result = result || ok
			if result {
				break
			}
		}
	}
	return result, nil
}

func evaluateCondition(cond Condition, ctx *Context) (bool, error) {
	actual, found := ctx.Lookup(cond.Field)

	switch cond.Operator {
	case "exists":
		return found && !actual.IsNull(), nil
	case "not_exists":
		return !found || actual.IsNull(), nil
	}

	expected := FromAny(cond.Value)

	switch cond.Operator {
	case "equals":
		return found && actual.Equal(expected), nil
	case "not_equals":
		return !found || !actual.Equal(expected), nil
	case "contains":
		return found && strings.Contains(actual.Text(), expected.Text()), nil
	case "not_contains":
		return !found || !strings.Contains(actual.Text(), expected.Text()), nil
	case "greater_than":
		a, okA := actual.Number()
		b, okB := expected.Number()
		return found && okA && okB && a > b, nil
	case "less_than":
		a, okA := actual.Number()
		b, okB := expected.Number()
		return found && okA && okB && a < b, nil
	default:
		return false, fmt.Errorf("%w: unknown condition operator %q", domain.ErrInvalidStepConfig, cond.Operator)
	}
}
