package autonow_test

import (
	"errors"
	"testing"

	"github.com/goliatone/go-autonow"
	"github.com/goliatone/go-autonow/model"
)

var predicateFactories = []struct {
	name string
	new  func(expression string) (autonow.Predicate, error)
}{
	{name: "expr", new: autonow.NewExprPredicate},
	{name: "cel", new: autonow.NewCELPredicate},
}

func TestPredicatesNarrowOverrides(t *testing.T) {
	for _, factory := range predicateFactories {
		t.Run(factory.name, func(t *testing.T) {
			predicate, err := factory.new(`kind == "datetime" && owner == "autoFieldsModel"`)
			if err != nil {
				t.Fatalf("compile: %v", err)
			}
			h := newHarness(t)
			release := h.scope(autonow.WithPredicate(predicate)).Enter()
			obj1, obj2 := h.create(), h.create2()
			release()

			assertOverridden(t, obj1.values(), "DatetimeAutoNow", "DatetimeAutoNowAdd")
			assertOverridden(t, obj2.values())
		})
	}
}

func TestPredicateCannotWidenBuiltInRules(t *testing.T) {
	for _, factory := range predicateFactories {
		t.Run(factory.name, func(t *testing.T) {
			predicate, err := factory.new(`true`)
			if err != nil {
				t.Fatalf("compile: %v", err)
			}
			h := newHarness(t)
			release := h.scope(autonow.WithPredicate(predicate), autonow.ExcludeFields("DateAutoNow")).Enter()
			rec := h.create()
			release()
			assertOverridden(t, rec.values(), "DateAutoNowAdd", "DatetimeAutoNow", "DatetimeAutoNowAdd")
		})
	}
}

func TestPredicateSeesInsertFlag(t *testing.T) {
	predicate, err := autonow.NewExprPredicate(`!insert`)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	h := newHarness(t)
	rec := &autoFieldsModel{}
	scope := h.scope(autonow.WithPredicate(predicate))
	release := scope.Enter()
	h.save(rec)
	inserted := rec.DatetimeAutoNow
	rec.DatetimeAutoNow = nil
	h.save(rec)
	release()

	if inserted == nil {
		t.Fatalf("insert must fall through to the framework hook")
	}
	if rec.DatetimeAutoNow != nil {
		t.Fatalf("update should be overridden, got %v", rec.DatetimeAutoNow)
	}
}

func TestPredicateErrorsBlockOverride(t *testing.T) {
	boom := errors.New("boom")
	var logged []error
	h := newHarness(t)
	scope := h.scope(
		autonow.WithPredicate(autonow.PredicateFunc(func(autonow.Decision) (bool, error) { return false, boom })),
		autonow.WithLogger(autonow.LoggerFunc(func(e autonow.LogEvent) {
			if e.Err != nil {
				logged = append(logged, e.Err)
			}
		})),
	)
	release := scope.Enter()
	rec := h.create()
	release()

	assertOverridden(t, rec.values())
	if len(logged) != len(allFields) || !errors.Is(logged[0], boom) {
		t.Fatalf("expected predicate errors logged, got %v", logged)
	}
}

func TestPredicateDecisionFields(t *testing.T) {
	var seen []autonow.Decision
	h := newHarness(t)
	scope := h.scope(
		autonow.WithName("inspect"),
		autonow.OverrideFields("DateAutoNowAdd"),
		autonow.WithPredicate(autonow.PredicateFunc(func(d autonow.Decision) (bool, error) {
			seen = append(seen, d)
			return true, nil
		})),
	)
	release := scope.Enter()
	h.create()
	release()

	if len(seen) != 1 {
		t.Fatalf("predicate should only see fields that passed the built-in rules, got %d", len(seen))
	}
	want := autonow.Decision{
		Scope:      "inspect",
		Field:      "DateAutoNowAdd",
		Column:     "date_auto_now_add",
		Kind:       model.KindDate,
		AutoNowAdd: true,
		Insert:     true,
		Owner:      "autoFieldsModel",
	}
	if seen[0] != want {
		t.Fatalf("unexpected decision %+v", seen[0])
	}
}

func TestPredicateCompileErrors(t *testing.T) {
	for _, factory := range predicateFactories {
		t.Run(factory.name, func(t *testing.T) {
			_, err := factory.new("   ")
			if !errors.Is(err, autonow.ErrEmptyExpression) {
				t.Fatalf("expected ErrEmptyExpression, got %v", err)
			}
			var predErr *autonow.PredicateError
			if !errors.As(err, &predErr) || predErr.Engine != factory.name {
				t.Fatalf("expected PredicateError for %s, got %v", factory.name, err)
			}

			if _, err := factory.new(`field ==`); err == nil {
				t.Fatalf("expected syntax error")
			}
		})
	}
}
