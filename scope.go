// Package autonow suspends automatic timestamp assignment while records are
// saved in tests.
//
// A Scope pushes replacement hooks onto the date and datetime chains of a
// model.Registry. While active, each timestamp write asks the innermost scope
// whether to keep the caller supplied value; when the answer is no, the write
// falls through to the hook that was installed before the scope, so nested
// scopes compose.
//
// Scopes assume a single nested sequence of control. Concurrent, overlapping
// activation against the same registry is not supported; release order
// violations are reported as model.ErrHookOrder.
package autonow

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/goliatone/go-autonow/model"
	"github.com/goliatone/go-autonow/pkg/activity"
	"github.com/google/uuid"
)

// Scope is a reusable override configuration. Its rules are fixed at
// construction; only the activation state changes.
type Scope struct {
	id       string
	cfg      scopeConfig
	registry *model.Registry
	logger   Logger
	emitter  *activity.Emitter

	mu      sync.Mutex
	depth   int
	handles []model.Handle
}

// New builds a Scope. Contradictory rules are not rejected; the evaluation
// order of ShouldOverride resolves them.
func New(opts ...Option) *Scope {
	cfg := applyOptions(opts)
	cfg.excludeFieldNames = copyNames(cfg.excludeFieldNames)
	cfg.overrideFieldNames = copyNames(cfg.overrideFieldNames)
	cfg.excludeOwnerTypes = cfg.excludeOwnerTypes.add()
	if cfg.overrideOwnerTypes != nil {
		cfg.overrideOwnerTypes = append(typeSet{}, cfg.overrideOwnerTypes...)
	}

	s := &Scope{
		id:       uuid.NewString(),
		cfg:      cfg,
		registry: cfg.registry,
		logger:   cfg.logger,
	}
	if s.registry == nil {
		s.registry = model.DefaultRegistry()
	}
	if s.logger == nil {
		s.logger = noopLogger{}
	}
	s.emitter = activity.NewEmitter(cfg.activityHooks, activity.Config{
		Enabled: true,
		Channel: activity.DefaultChannel,
	})
	return s
}

// ID returns the unique identifier assigned at construction.
func (s *Scope) ID() string {
	return s.id
}

// Name returns the configured name, or "" when unnamed.
func (s *Scope) Name() string {
	return s.cfg.name
}

func (s *Scope) label() string {
	if s.cfg.name != "" {
		return s.cfg.name
	}
	return s.id
}

// Kinds returns the field kinds the scope installs hooks for.
func (s *Scope) Kinds() []model.Kind {
	var kinds []model.Kind
	if !s.cfg.excludeDateKind {
		kinds = append(kinds, model.KindDate)
	}
	if !s.cfg.excludeDateTimeKind {
		kinds = append(kinds, model.KindDateTime)
	}
	return kinds
}

// Active reports whether the scope currently holds installed hooks.
func (s *Scope) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.depth > 0 || len(s.handles) > 0
}

// Activate installs the override hook on every non-excluded kind; with both
// kinds excluded it installs, logs and emits nothing. Activating
// an active scope only increments its reentry count, so wrapped methods may
// call one another.
func (s *Scope) Activate() {
	s.mu.Lock()
	s.depth++
	if s.depth > 1 || len(s.handles) > 0 {
		s.mu.Unlock()
		return
	}
	kinds := s.Kinds()
	for _, kind := range kinds {
		s.handles = append(s.handles, s.registry.Push(kind, s.hook))
	}
	s.mu.Unlock()
	if len(kinds) == 0 {
		return
	}

	s.logger.Log(LogEvent{Scope: s.label(), Action: ActionActivate})
	s.emit(activity.BuildScopeActivatedEvent)
}

// Deactivate restores the hooks that were current when the scope activated.
// It is a no-op on an inactive scope. When the registry reports an out of
// order release the offending handles are kept, the scope stays active and
// the error is returned.
func (s *Scope) Deactivate() error {
	s.mu.Lock()
	if s.depth == 0 && len(s.handles) == 0 {
		s.mu.Unlock()
		return nil
	}
	if s.depth > 0 {
		s.depth--
	}
	if s.depth > 0 {
		s.mu.Unlock()
		return nil
	}
	if len(s.handles) == 0 {
		s.mu.Unlock()
		return nil
	}
	var (
		errs []error
		kept []model.Handle
	)
	for i := len(s.handles) - 1; i >= 0; i-- {
		if err := s.registry.Pop(s.handles[i]); err != nil {
			errs = append(errs, err)
			kept = append([]model.Handle{s.handles[i]}, kept...)
		}
	}
	s.handles = kept
	if len(kept) > 0 {
		s.depth = 1
	}
	s.mu.Unlock()

	err := errors.Join(errs...)
	s.logger.Log(LogEvent{Scope: s.label(), Action: ActionDeactivate, Err: err})
	if err == nil {
		s.emit(activity.BuildScopeDeactivatedEvent)
	}
	return err
}

// hook builds the replacement installed over next.
func (s *Scope) hook(next model.PreSaveFunc) model.PreSaveFunc {
	return func(field model.Field, record any, insert bool) *time.Time {
		if s.ShouldOverride(field, record, insert) {
			return model.BaseValue(field, record)
		}
		return next(field, record, insert)
	}
}

// Enter activates the scope and returns the function that releases it. The
// release function is idempotent and panics if the release is out of order.
// When deferred directly it preserves a panic already in flight: an error
// panic is re-raised joined with the release error, any other value is
// re-raised unchanged.
//
//	defer scope.Enter()()
func (s *Scope) Enter() (release func()) {
	s.Activate()
	var once sync.Once
	return func() {
		recovered := recover()
		var err error
		once.Do(func() {
			err = s.Deactivate()
		})
		if recovered == nil {
			if err != nil {
				panic(err)
			}
			return
		}
		if panicErr, ok := recovered.(error); ok && err != nil {
			panic(errors.Join(panicErr, err))
		}
		panic(recovered)
	}
}

// Do runs fn with the scope active. The scope is released on every exit
// path; fn's error is returned joined with any release error and panics
// propagate after the release.
func (s *Scope) Do(fn func() error) (err error) {
	s.Activate()
	defer func() {
		if releaseErr := s.Deactivate(); releaseErr != nil {
			err = errors.Join(err, releaseErr)
		}
	}()
	return fn()
}

// DoContext is Do for functions that take a context.
func (s *Scope) DoContext(ctx context.Context, fn func(context.Context) error) error {
	return s.Do(func() error {
		return fn(ctx)
	})
}

// TB is the subset of testing.TB used by Bind.
type TB interface {
	Helper()
	Cleanup(func())
	Errorf(format string, args ...any)
}

// Bind activates the scope for the remainder of the test and releases it
// during cleanup.
func (s *Scope) Bind(tb TB) {
	tb.Helper()
	s.Activate()
	tb.Cleanup(func() {
		if err := s.Deactivate(); err != nil {
			tb.Errorf("autonow: release scope %s: %v", s.label(), err)
		}
	})
}
