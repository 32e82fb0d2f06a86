package autonow

import (
	"strings"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

type exprPredicate struct {
	expression string
	program    *exprvm.Program
}

// NewExprPredicate compiles an expr-lang boolean expression, e.g.
//
//	owner == "Article" && !insert
func NewExprPredicate(expression string) (Predicate, error) {
	if strings.TrimSpace(expression) == "" {
		return nil, wrapPredicateError("expr", expression, ErrEmptyExpression)
	}
	program, err := exprlang.Compile(expression,
		exprlang.Env(Decision{}.environment()),
		exprlang.AsBool(),
	)
	if err != nil {
		return nil, wrapPredicateError("expr", expression, err)
	}
	return &exprPredicate{expression: expression, program: program}, nil
}

func (p *exprPredicate) Allow(d Decision) (bool, error) {
	out, err := exprlang.Run(p.program, d.environment())
	if err != nil {
		return false, wrapPredicateError("expr", p.expression, err)
	}
	return boolResult("expr", p.expression, out)
}
