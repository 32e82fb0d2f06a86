//go:build !js_eval

package autonow_test

import (
	"errors"
	"testing"

	"github.com/goliatone/go-autonow"
)

func TestJSPredicateRequiresBuildTag(t *testing.T) {
	if _, err := autonow.NewJSPredicate(`insert`); !errors.Is(err, autonow.ErrJSUnavailable) {
		t.Fatalf("expected ErrJSUnavailable, got %v", err)
	}
}
