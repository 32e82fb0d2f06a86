package autonow

import "errors"

// SuiteHooks ties a scope to the lifetime of a test suite. Embed it in a
// testify suite (or call it from any suite-level setup and teardown):
//
//	type ArticleSuite struct {
//		suite.Suite
//		*autonow.SuiteHooks
//	}
//
// The scope is active for the suite's test methods only. Setup registered
// with WithSuiteSetup runs before activation and teardown registered with
// WithSuiteTearDown runs after release, so neither is overridden.
type SuiteHooks struct {
	scopes   []*Scope
	setup    func()
	teardown func()
}

// SuiteOption configures SuiteHooks.
type SuiteOption func(*SuiteHooks)

// WithSuiteSetup registers the suite's own setup.
func WithSuiteSetup(fn func()) SuiteOption {
	return func(h *SuiteHooks) {
		h.setup = fn
	}
}

// WithSuiteScope nests s inside the scopes already applied to the suite.
func WithSuiteScope(s *Scope) SuiteOption {
	return func(h *SuiteHooks) {
		if s != nil {
			h.scopes = append(h.scopes, s)
		}
	}
}

// WithSuiteTearDown registers the suite's own teardown.
func WithSuiteTearDown(fn func()) SuiteOption {
	return func(h *SuiteHooks) {
		h.teardown = fn
	}
}

// Suite builds lifecycle hooks for s. Further scopes added with
// WithSuiteScope nest inside s.
func (s *Scope) Suite(opts ...SuiteOption) *SuiteHooks {
	hooks := &SuiteHooks{scopes: []*Scope{s}}
	for _, opt := range opts {
		if opt != nil {
			opt(hooks)
		}
	}
	return hooks
}

// Scope returns the outermost scope driven by the hooks.
func (h *SuiteHooks) Scope() *Scope {
	return h.scopes[0]
}

// Scopes returns every scope driven by the hooks, outermost first.
func (h *SuiteHooks) Scopes() []*Scope {
	return append([]*Scope(nil), h.scopes...)
}

// SetupSuite runs the registered setup, then activates the scopes.
func (h *SuiteHooks) SetupSuite() {
	if h.setup != nil {
		h.setup()
	}
	for _, scope := range h.scopes {
		scope.Activate()
	}
}

// TearDownSuite releases the scopes innermost first, then runs the
// registered teardown. A release error panics after the teardown has run.
func (h *SuiteHooks) TearDownSuite() {
	var errs []error
	for i := len(h.scopes) - 1; i >= 0; i-- {
		if err := h.scopes[i].Deactivate(); err != nil {
			errs = append(errs, err)
		}
	}
	if h.teardown != nil {
		h.teardown()
	}
	if err := errors.Join(errs...); err != nil {
		panic(err)
	}
}
