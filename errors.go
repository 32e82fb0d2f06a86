package autonow

import "errors"

// ErrJSUnavailable indicates the binary was built without the js_eval tag.
var ErrJSUnavailable = errors.New("autonow: js predicates require the js_eval build tag")
