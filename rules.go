package autonow

import (
	"reflect"

	"github.com/goliatone/go-autonow/model"
)

// TypeOf returns the reflect.Type for T, including interface types.
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// typeSet matches record types. Concrete entries match the record's type with
// pointers stripped; interface entries match any implementing type.
type typeSet []reflect.Type

func (s typeSet) add(types ...reflect.Type) typeSet {
	out := append(typeSet(nil), s...)
	for _, t := range types {
		t = indirectType(t)
		if t == nil || out.contains(t) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func (s typeSet) contains(t reflect.Type) bool {
	for _, candidate := range s {
		if candidate == t {
			return true
		}
	}
	return false
}

func (s typeSet) matches(owner reflect.Type) bool {
	if owner == nil {
		return false
	}
	for _, candidate := range s {
		if candidate == owner {
			return true
		}
		if candidate.Kind() == reflect.Interface &&
			(owner.Implements(candidate) || reflect.PointerTo(owner).Implements(candidate)) {
			return true
		}
	}
	return false
}

func indirectType(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

func ownerType(record any) reflect.Type {
	return indirectType(reflect.TypeOf(record))
}

// ShouldOverride reports whether the write of field on record should keep the
// caller supplied value. The first matching rule wins:
//
//  1. excluded field name
//  2. excluded owner type
//  3. field name outside the override allow-list
//  4. owner type outside the override allow-list
//  5. auto_now field with ExcludeAutoNow
//  6. insert of an auto_now_add field with ExcludeAutoNowAdd
//  7. predicate rejects (when configured)
//
// Any of the above means no override; otherwise the field is overridden.
func (s *Scope) ShouldOverride(field model.Field, record any, insert bool) bool {
	override, reason := s.decide(field, record, insert)
	s.logger.Log(LogEvent{
		Scope:    s.label(),
		Action:   ActionDecide,
		Kind:     field.Kind.String(),
		Field:    field.Name,
		Owner:    typeName(ownerType(record)),
		Insert:   insert,
		Override: override,
		Reason:   reason.message,
		Err:      reason.err,
	})
	return override
}

type decisionReason struct {
	message string
	err     error
}

func (s *Scope) decide(field model.Field, record any, insert bool) (bool, decisionReason) {
	owner := ownerType(record)
	if _, ok := s.cfg.excludeFieldNames[field.Name]; ok {
		return false, decisionReason{message: "excluded field"}
	}
	if s.cfg.excludeOwnerTypes.matches(owner) {
		return false, decisionReason{message: "excluded type"}
	}
	if s.cfg.overrideFieldNames != nil {
		if _, ok := s.cfg.overrideFieldNames[field.Name]; !ok {
			return false, decisionReason{message: "field not in override list"}
		}
	}
	if s.cfg.overrideOwnerTypes != nil && !s.cfg.overrideOwnerTypes.matches(owner) {
		return false, decisionReason{message: "type not in override list"}
	}
	if field.AutoNow && s.cfg.excludeAutoNow {
		return false, decisionReason{message: "auto_now excluded"}
	}
	if insert && field.AutoNowAdd && s.cfg.excludeAutoNowAdd {
		return false, decisionReason{message: "auto_now_add excluded"}
	}
	if s.cfg.predicate != nil {
		allowed, err := s.cfg.predicate.Allow(newDecision(s.label(), field, owner, insert))
		if err != nil {
			return false, decisionReason{message: "predicate failed", err: err}
		}
		if !allowed {
			return false, decisionReason{message: "predicate rejected"}
		}
	}
	return true, decisionReason{message: "override"}
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
