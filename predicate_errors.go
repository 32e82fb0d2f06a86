package autonow

import (
	"errors"
	"fmt"
)

// PredicateError captures the engine and expression of a failed predicate.
type PredicateError struct {
	Engine string
	Expr   string
	Err    error
}

func (e *PredicateError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("autonow: %s predicate %s: %v", e.Engine, describeExpression(e.Expr), e.Err)
}

func (e *PredicateError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func describeExpression(expr string) string {
	if expr == "" {
		return "expr=<empty>"
	}
	return fmt.Sprintf("expr=%q", expr)
}

func wrapPredicateError(engine, expr string, err error) error {
	if err == nil {
		return nil
	}
	var predErr *PredicateError
	if errors.As(err, &predErr) {
		if predErr.Engine == "" {
			predErr.Engine = engine
		}
		if predErr.Expr == "" {
			predErr.Expr = expr
		}
		return predErr
	}
	return &PredicateError{
		Engine: engine,
		Expr:   expr,
		Err:    err,
	}
}

func boolResult(engine, expr string, value any) (bool, error) {
	result, ok := value.(bool)
	if !ok {
		return false, wrapPredicateError(engine, expr, fmt.Errorf("result %v (%T) is not a bool", value, value))
	}
	return result, nil
}
