package autonow

import (
	"errors"
	"fmt"
	"go/token"
	"reflect"

	"github.com/samber/lo"
)

var (
	// ErrMethodNotWrapped indicates a Call for a name that was never included.
	ErrMethodNotWrapped = errors.New("autonow: method not wrapped")
	// ErrMethodArgs indicates arguments that do not fit the method signature.
	ErrMethodArgs = errors.New("autonow: invalid method arguments")
)

// Methods runs selected methods of a target value inside one or more nested
// scopes. Methods are opted in by name with Include, or all at once with All.
type Methods[T any] struct {
	scopes  []*Scope
	target  T
	value   reflect.Value
	order   []string
	methods map[string]reflect.Value
}

// WrapMethods starts a method wrapper for target. Pointer targets expose
// pointer receiver methods as well.
func WrapMethods[T any](s *Scope, target T) *Methods[T] {
	return &Methods[T]{
		scopes:  []*Scope{s},
		target:  target,
		value:   reflect.ValueOf(any(target)),
		methods: map[string]reflect.Value{},
	}
}

// Include wraps the named methods. Unexported, unknown and already included
// names are skipped.
func (m *Methods[T]) Include(names ...string) *Methods[T] {
	for _, name := range lo.Uniq(names) {
		m.add(name)
	}
	return m
}

// All wraps every exported method in the target's method set, promoted
// methods included, in name order.
func (m *Methods[T]) All() *Methods[T] {
	if !m.value.IsValid() {
		return m
	}
	t := m.value.Type()
	for i := 0; i < t.NumMethod(); i++ {
		m.add(t.Method(i).Name)
	}
	return m
}

func (m *Methods[T]) add(name string) {
	if !token.IsExported(name) || !m.value.IsValid() {
		return
	}
	if _, seen := m.methods[name]; seen {
		return
	}
	method := m.value.MethodByName(name)
	if !method.IsValid() {
		return
	}
	m.methods[name] = method
	m.order = append(m.order, name)
}

// With nests s inside the scopes already applied, like stacking another
// wrapper under the existing ones.
func (m *Methods[T]) With(s *Scope) *Methods[T] {
	if s != nil {
		m.scopes = append(m.scopes, s)
	}
	return m
}

// Target returns the wrapped value.
func (m *Methods[T]) Target() T {
	return m.target
}

// Names lists the wrapped methods in inclusion order.
func (m *Methods[T]) Names() []string {
	return append([]string(nil), m.order...)
}

// Has reports whether name is wrapped.
func (m *Methods[T]) Has(name string) bool {
	_, ok := m.methods[name]
	return ok
}

// Call invokes the named method with every scope active, outermost first, and
// returns its results. Panics raised by the method propagate after the scopes
// are released.
func (m *Methods[T]) Call(name string, args ...any) ([]any, error) {
	method, ok := m.methods[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMethodNotWrapped, name)
	}
	in, err := methodArgs(method.Type(), args)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMethodArgs, name, err)
	}
	var out []reflect.Value
	if err := nest(m.scopes, func() error {
		out = method.Call(in)
		return nil
	}); err != nil {
		return nil, err
	}
	results := make([]any, len(out))
	for i, value := range out {
		results[i] = value.Interface()
	}
	return results, nil
}

// Func returns a closure calling the named method; see Call.
func (m *Methods[T]) Func(name string) func(args ...any) ([]any, error) {
	return func(args ...any) ([]any, error) {
		return m.Call(name, args...)
	}
}

// nest runs fn inside scopes, the first one outermost.
func nest(scopes []*Scope, fn func() error) error {
	if len(scopes) == 0 {
		return fn()
	}
	return scopes[0].Do(func() error {
		return nest(scopes[1:], fn)
	})
}

func methodArgs(ft reflect.Type, args []any) ([]reflect.Value, error) {
	fixed := ft.NumIn()
	if ft.IsVariadic() {
		fixed--
		if len(args) < fixed {
			return nil, fmt.Errorf("want at least %d arguments, got %d", fixed, len(args))
		}
	} else if len(args) != fixed {
		return nil, fmt.Errorf("want %d arguments, got %d", fixed, len(args))
	}

	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		var param reflect.Type
		if i < fixed {
			param = ft.In(i)
		} else {
			param = ft.In(ft.NumIn() - 1).Elem()
		}
		value, err := argValue(param, arg)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		in[i] = value
	}
	return in, nil
}

func argValue(param reflect.Type, arg any) (reflect.Value, error) {
	if arg == nil {
		switch param.Kind() {
		case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			return reflect.Zero(param), nil
		default:
			return reflect.Value{}, fmt.Errorf("nil is not assignable to %s", param)
		}
	}
	value := reflect.ValueOf(arg)
	if !value.Type().AssignableTo(param) {
		return reflect.Value{}, fmt.Errorf("%s is not assignable to %s", value.Type(), param)
	}
	return value, nil
}
