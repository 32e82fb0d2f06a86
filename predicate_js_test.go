//go:build js_eval

package autonow_test

import (
	"testing"

	"github.com/goliatone/go-autonow"
)

func TestJSPredicateNarrowsOverrides(t *testing.T) {
	predicate, err := autonow.NewJSPredicate(`kind === "date" && owner === "autoFieldsModel2"`)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	h := newHarness(t)
	release := h.scope(autonow.WithPredicate(predicate)).Enter()
	obj1, obj2 := h.create(), h.create2()
	release()

	assertOverridden(t, obj1.values())
	assertOverridden(t, obj2.values(), "DateAutoNow", "DateAutoNowAdd")
}
