//go:build js_eval

package autonow

import (
	"fmt"
	"strings"

	"github.com/dop251/goja"
)

type jsPredicate struct {
	expression string
	program    *goja.Program
}

// NewJSPredicate compiles a JavaScript boolean expression evaluated with goja.
func NewJSPredicate(expression string) (Predicate, error) {
	if strings.TrimSpace(expression) == "" {
		return nil, wrapPredicateError("js", expression, ErrEmptyExpression)
	}
	program, err := goja.Compile("predicate", fmt.Sprintf("(function(){ return (%s); })()", expression), false)
	if err != nil {
		return nil, wrapPredicateError("js", expression, err)
	}
	return &jsPredicate{expression: expression, program: program}, nil
}

func (p *jsPredicate) Allow(d Decision) (bool, error) {
	vm := goja.New()
	for key, value := range d.environment() {
		if err := vm.Set(key, value); err != nil {
			return false, wrapPredicateError("js", p.expression, err)
		}
	}
	value, err := vm.RunProgram(p.program)
	if err != nil {
		return false, wrapPredicateError("js", p.expression, err)
	}
	return boolResult("js", p.expression, value.Export())
}
