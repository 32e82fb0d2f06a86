package autonow

// Func wraps fn so every call runs with s active. Wrapping an already wrapped
// function with another scope nests the scopes; the outer wrap activates
// first.
func Func(s *Scope, fn func()) func() {
	return func() {
		defer s.Enter()()
		fn()
	}
}

// FuncErr wraps a function returning an error.
func FuncErr(s *Scope, fn func() error) func() error {
	return func() error {
		return s.Do(fn)
	}
}

// Func1 wraps a single argument function.
func Func1[A, R any](s *Scope, fn func(A) R) func(A) R {
	return func(a A) R {
		defer s.Enter()()
		return fn(a)
	}
}

// Func2 wraps a two argument function.
func Func2[A, B, R any](s *Scope, fn func(A, B) R) func(A, B) R {
	return func(a A, b B) R {
		defer s.Enter()()
		return fn(a, b)
	}
}

// Call runs fn once with s active and returns its results unchanged.
func Call[R any](s *Scope, fn func() (R, error)) (R, error) {
	var result R
	err := s.Do(func() error {
		var err error
		result, err = fn()
		return err
	})
	return result, err
}
