package model

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrHookOrder indicates a Pop whose handle is not the head of its chain,
// i.e. scopes were released out of nesting order.
var ErrHookOrder = errors.New("model: hook released out of order")

// PreSaveFunc computes the value persisted for field when record is written.
// insert reports whether the write is the record's initial insert.
type PreSaveFunc func(field Field, record any, insert bool) *time.Time

// Handle identifies a hook pushed onto a Registry chain.
type Handle struct {
	kind Kind
	id   uint64
}

// Kind returns the chain the handle belongs to.
func (h Handle) Kind() Kind {
	return h.kind
}

// IsZero reports whether h was never issued by a Registry.
func (h Handle) IsZero() bool {
	return h.id == 0
}

type hookEntry struct {
	id   uint64
	hook PreSaveFunc
}

// Registry owns the persistence hook chain for every field kind. The bottom
// of each chain is the framework hook that assigns the current time; scopes
// push replacements on top and pop them when released.
//
// The mutex only prevents data races. Push/Pop still assume a single nested
// sequence of control.
type Registry struct {
	mu     sync.Mutex
	clock  func() time.Time
	seq    uint64
	chains [kindCount][]hookEntry
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithClock overrides the time source used by the framework hooks.
func WithClock(clock func() time.Time) RegistryOption {
	return func(r *Registry) {
		if clock != nil {
			r.clock = clock
		}
	}
}

// NewRegistry builds a Registry with the framework hooks installed.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{clock: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	for _, kind := range Kinds() {
		r.chains[kind] = []hookEntry{{hook: r.autoAssign}}
	}
	return r
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the process-wide registry used when none is injected.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// Current returns the hook at the head of kind's chain.
func (r *Registry) Current(kind Kind) PreSaveFunc {
	mustKind(kind)
	r.mu.Lock()
	defer r.mu.Unlock()
	chain := r.chains[kind]
	return chain[len(chain)-1].hook
}

// Push installs the hook produced by wrap on top of kind's chain. wrap
// receives the previous head so the new hook can delegate to it.
func (r *Registry) Push(kind Kind, wrap func(next PreSaveFunc) PreSaveFunc) Handle {
	mustKind(kind)
	if wrap == nil {
		panic("model: nil hook wrapper")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	chain := r.chains[kind]
	next := chain[len(chain)-1].hook
	r.seq++
	r.chains[kind] = append(chain, hookEntry{id: r.seq, hook: wrap(next)})
	return Handle{kind: kind, id: r.seq}
}

// Pop removes the hook identified by h. It fails with ErrHookOrder, leaving
// the chain untouched, when h is not the current head.
func (r *Registry) Pop(h Handle) error {
	if h.IsZero() {
		return nil
	}
	mustKind(h.kind)
	r.mu.Lock()
	defer r.mu.Unlock()
	chain := r.chains[h.kind]
	head := chain[len(chain)-1]
	if head.id != h.id {
		return fmt.Errorf("%w: %s chain head is %d, released %d", ErrHookOrder, h.kind, head.id, h.id)
	}
	chain[len(chain)-1] = hookEntry{}
	r.chains[h.kind] = chain[:len(chain)-1]
	return nil
}

// Depth returns the number of hooks pushed above the framework hook.
func (r *Registry) Depth(kind Kind) int {
	mustKind(kind)
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.chains[kind]) - 1
}

// Now returns the registry clock reading.
func (r *Registry) Now() time.Time {
	return r.clock()
}

// autoAssign is the framework behaviour: stamp auto_now fields on every write
// and auto_now_add fields on insert, storing the value on the record.
func (r *Registry) autoAssign(field Field, record any, insert bool) *time.Time {
	if !field.AutoNow && !(field.AutoNowAdd && insert) {
		return BaseValue(field, record)
	}
	now := r.clock()
	if field.Kind == KindDate {
		now = truncateDay(now)
	}
	SetValue(field, record, &now)
	return &now
}

func truncateDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

func mustKind(kind Kind) {
	if !kind.valid() {
		panic(fmt.Sprintf("model: unknown field kind %d", int(kind)))
	}
}
