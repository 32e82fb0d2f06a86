package autonow

import (
	"context"

	"github.com/goliatone/go-autonow/pkg/activity"
)

func (s *Scope) emit(build func(activity.ScopeEventInput) activity.Event) {
	if !s.emitter.Enabled() {
		return
	}
	kinds := make([]string, 0, 2)
	for _, kind := range s.Kinds() {
		kinds = append(kinds, kind.String())
	}
	event := build(activity.ScopeEventInput{
		ScopeID:   s.id,
		ScopeName: s.cfg.name,
		Kinds:     kinds,
	})
	if err := s.emitter.Emit(context.Background(), event); err != nil {
		s.logger.Log(LogEvent{Scope: s.label(), Action: ActionEmit, Reason: event.Verb, Err: err})
	}
}
