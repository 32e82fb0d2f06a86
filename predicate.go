package autonow

import (
	"errors"
	"reflect"

	"github.com/goliatone/go-autonow/model"
)

// ErrEmptyExpression indicates a predicate built from a blank expression.
var ErrEmptyExpression = errors.New("autonow: predicate expression must not be empty")

// Decision is the input handed to a Predicate once the built-in rules have
// allowed an override.
type Decision struct {
	Scope      string
	Field      string
	Column     string
	Kind       model.Kind
	AutoNow    bool
	AutoNowAdd bool
	Insert     bool
	Owner      string
}

func newDecision(scope string, field model.Field, owner reflect.Type, insert bool) Decision {
	d := Decision{
		Scope:      scope,
		Field:      field.Name,
		Column:     field.Column,
		Kind:       field.Kind,
		AutoNow:    field.AutoNow,
		AutoNowAdd: field.AutoNowAdd,
		Insert:     insert,
	}
	if owner != nil {
		d.Owner = owner.Name()
	}
	return d
}

// environment is the variable binding shared by the expression engines.
func (d Decision) environment() map[string]any {
	return map[string]any{
		"scope":        d.Scope,
		"field":        d.Field,
		"column":       d.Column,
		"kind":         d.Kind.String(),
		"auto_now":     d.AutoNow,
		"auto_now_add": d.AutoNowAdd,
		"insert":       d.Insert,
		"owner":        d.Owner,
	}
}

// Predicate is a final, caller supplied veto on overrides. It can only narrow
// what the built-in rules allow.
type Predicate interface {
	Allow(Decision) (bool, error)
}

// PredicateFunc adapts a function to Predicate.
type PredicateFunc func(Decision) (bool, error)

// Allow implements Predicate.
func (f PredicateFunc) Allow(d Decision) (bool, error) {
	if f == nil {
		return true, nil
	}
	return f(d)
}
