package autonow

import (
	"strings"

	celgo "github.com/google/cel-go/cel"
)

type celPredicate struct {
	expression string
	program    celgo.Program
}

// NewCELPredicate compiles a CEL boolean expression, e.g.
//
//	kind == "datetime" && field.startsWith("Created")
func NewCELPredicate(expression string) (Predicate, error) {
	if strings.TrimSpace(expression) == "" {
		return nil, wrapPredicateError("cel", expression, ErrEmptyExpression)
	}
	env, err := celgo.NewEnv(
		celgo.Variable("scope", celgo.StringType),
		celgo.Variable("field", celgo.StringType),
		celgo.Variable("column", celgo.StringType),
		celgo.Variable("kind", celgo.StringType),
		celgo.Variable("auto_now", celgo.BoolType),
		celgo.Variable("auto_now_add", celgo.BoolType),
		celgo.Variable("insert", celgo.BoolType),
		celgo.Variable("owner", celgo.StringType),
	)
	if err != nil {
		return nil, wrapPredicateError("cel", expression, err)
	}
	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, wrapPredicateError("cel", expression, issues.Err())
	}
	program, err := env.Program(ast)
	if err != nil {
		return nil, wrapPredicateError("cel", expression, err)
	}
	return &celPredicate{expression: expression, program: program}, nil
}

func (p *celPredicate) Allow(d Decision) (bool, error) {
	out, _, err := p.program.Eval(d.environment())
	if err != nil {
		return false, wrapPredicateError("cel", p.expression, err)
	}
	return boolResult("cel", p.expression, out.Value())
}
