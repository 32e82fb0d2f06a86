//go:build !js_eval

package autonow

// NewJSPredicate is unavailable without the js_eval build tag.
func NewJSPredicate(expression string) (Predicate, error) {
	return nil, wrapPredicateError("js", expression, ErrJSUnavailable)
}
