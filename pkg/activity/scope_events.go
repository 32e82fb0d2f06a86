package activity

import "strings"

// Scope event verbs and object type.
const (
	VerbScopeActivated   = "autonow.scope.activated"
	VerbScopeDeactivated = "autonow.scope.deactivated"
	ObjectTypeScope      = "autonow.scope"
)

// ScopeEventInput describes the scope an event is about.
type ScopeEventInput struct {
	ScopeID   string
	ScopeName string
	Kinds     []string
	ActorID   string
	Channel   string
	Metadata  map[string]any
}

// BuildScopeActivatedEvent reports hooks being installed for a scope.
func BuildScopeActivatedEvent(input ScopeEventInput) Event {
	return buildScopeEvent(VerbScopeActivated, input)
}

// BuildScopeDeactivatedEvent reports a scope's hooks being released.
func BuildScopeDeactivatedEvent(input ScopeEventInput) Event {
	return buildScopeEvent(VerbScopeDeactivated, input)
}

func buildScopeEvent(verb string, input ScopeEventInput) Event {
	metadata := cloneMap(input.Metadata)
	if name := strings.TrimSpace(input.ScopeName); name != "" {
		metadata = ensureMetadata(metadata)
		metadata["scope_name"] = name
	}
	if len(input.Kinds) > 0 {
		metadata = ensureMetadata(metadata)
		metadata["kinds"] = append([]string{}, input.Kinds...)
	}
	return Event{
		Verb:       verb,
		ActorID:    strings.TrimSpace(input.ActorID),
		ObjectType: ObjectTypeScope,
		ObjectID:   strings.TrimSpace(input.ScopeID),
		Channel:    strings.TrimSpace(input.Channel),
		Metadata:   metadata,
	}
}

func ensureMetadata(meta map[string]any) map[string]any {
	if meta == nil {
		return map[string]any{}
	}
	return meta
}
