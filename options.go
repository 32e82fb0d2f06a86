package autonow

import (
	"reflect"

	"github.com/goliatone/go-autonow/model"
	"github.com/goliatone/go-autonow/pkg/activity"
	"github.com/samber/lo"
)

// Option configures a Scope at construction.
type Option func(*scopeConfig)

type scopeConfig struct {
	name string

	excludeAutoNow      bool
	excludeAutoNowAdd   bool
	excludeDateKind     bool
	excludeDateTimeKind bool

	excludeFieldNames  map[string]struct{}
	excludeOwnerTypes  typeSet
	overrideFieldNames map[string]struct{} // nil means no restriction
	overrideOwnerTypes typeSet             // nil means no restriction

	predicate     Predicate
	registry      *model.Registry
	logger        Logger
	activityHooks activity.Hooks
}

func applyOptions(opts []Option) scopeConfig {
	cfg := scopeConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithName labels the scope in logs and activity events.
func WithName(name string) Option {
	return func(cfg *scopeConfig) {
		cfg.name = name
	}
}

// ExcludeAutoNow never overrides fields that update on every write.
func ExcludeAutoNow() Option {
	return func(cfg *scopeConfig) {
		cfg.excludeAutoNow = true
	}
}

// ExcludeAutoNowAdd never overrides insert-only fields during the initial insert.
func ExcludeAutoNowAdd() Option {
	return func(cfg *scopeConfig) {
		cfg.excludeAutoNowAdd = true
	}
}

// ExcludeDateKind leaves the date hook chain untouched.
func ExcludeDateKind() Option {
	return func(cfg *scopeConfig) {
		cfg.excludeDateKind = true
	}
}

// ExcludeDateTimeKind leaves the datetime hook chain untouched.
func ExcludeDateTimeKind() Option {
	return func(cfg *scopeConfig) {
		cfg.excludeDateTimeKind = true
	}
}

// ExcludeFields exempts the named attributes regardless of kind or owner.
// Repeated calls accumulate.
func ExcludeFields(names ...string) Option {
	return func(cfg *scopeConfig) {
		cfg.excludeFieldNames = addNames(cfg.excludeFieldNames, names)
	}
}

// OverrideFields restricts overrides to the named attributes. Calling it with
// no names installs an empty allow-list, which matches nothing.
func OverrideFields(names ...string) Option {
	return func(cfg *scopeConfig) {
		cfg.overrideFieldNames = addNames(cfg.overrideFieldNames, names)
	}
}

// ExcludeTypes exempts records whose type matches any of types.
func ExcludeTypes(types ...reflect.Type) Option {
	return func(cfg *scopeConfig) {
		cfg.excludeOwnerTypes = cfg.excludeOwnerTypes.add(types...)
	}
}

// OverrideTypes restricts overrides to records whose type matches types.
func OverrideTypes(types ...reflect.Type) Option {
	return func(cfg *scopeConfig) {
		cfg.overrideOwnerTypes = cfg.overrideOwnerTypes.add(types...)
		if cfg.overrideOwnerTypes == nil {
			cfg.overrideOwnerTypes = typeSet{}
		}
	}
}

// ExcludeType is ExcludeTypes for a single static type.
func ExcludeType[T any]() Option {
	return ExcludeTypes(TypeOf[T]())
}

// OverrideType is OverrideTypes for a single static type.
func OverrideType[T any]() Option {
	return OverrideTypes(TypeOf[T]())
}

// WithPredicate adds a final gate consulted after every built-in rule has
// allowed the override.
func WithPredicate(predicate Predicate) Option {
	return func(cfg *scopeConfig) {
		cfg.predicate = predicate
	}
}

// WithRegistry selects the hook registry the scope installs into. The
// process-wide model.DefaultRegistry is used otherwise.
func WithRegistry(registry *model.Registry) Option {
	return func(cfg *scopeConfig) {
		cfg.registry = registry
	}
}

// WithLogger attaches a logger for lifecycle and decision events.
func WithLogger(logger Logger) Option {
	return func(cfg *scopeConfig) {
		if logger == nil {
			cfg.logger = noopLogger{}
			return
		}
		cfg.logger = logger
	}
}

// WithActivityHooks publishes scope activation and release as activity events.
// Hooks are cloned and nil entries dropped.
func WithActivityHooks(hooks activity.Hooks) Option {
	normalized := cloneActivityHooks(hooks)
	return func(cfg *scopeConfig) {
		cfg.activityHooks = normalized
	}
}

func addNames(set map[string]struct{}, names []string) map[string]struct{} {
	if set == nil {
		set = make(map[string]struct{}, len(names))
	}
	for _, name := range lo.Uniq(names) {
		set[name] = struct{}{}
	}
	return set
}

func cloneActivityHooks(hooks activity.Hooks) activity.Hooks {
	normalized := lo.Filter(hooks, func(hook activity.ActivityHook, _ int) bool {
		return hook != nil
	})
	if len(normalized) == 0 {
		return nil
	}
	return activity.Hooks(normalized)
}

func copyNames(origin map[string]struct{}) map[string]struct{} {
	if origin == nil {
		return nil
	}
	out := make(map[string]struct{}, len(origin))
	for name := range origin {
		out[name] = struct{}{}
	}
	return out
}
