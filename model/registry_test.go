package model_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-autonow/model"
)

var fixedNow = time.Date(2024, 5, 1, 15, 30, 0, 0, time.UTC)

func newRegistry() *model.Registry {
	return model.NewRegistry(model.WithClock(func() time.Time { return fixedNow }))
}

func TestFrameworkHookAssignsOnInsert(t *testing.T) {
	registry := newRegistry()
	store := model.NewMemoryStore(model.WithRegistry(registry))
	rec := &autoFields{}

	if err := store.Save(context.Background(), rec); err != nil {
		t.Fatalf("save: %v", err)
	}
	if rec.ID != 1 {
		t.Fatalf("expected id 1, got %d", rec.ID)
	}
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	if rec.DateAutoNow == nil || !rec.DateAutoNow.Equal(day) {
		t.Fatalf("date auto_now should be truncated to day, got %v", rec.DateAutoNow)
	}
	if rec.DateAutoNowAdd == nil || !rec.DateAutoNowAdd.Equal(day) {
		t.Fatalf("date auto_now_add not set, got %v", rec.DateAutoNowAdd)
	}
	if rec.DatetimeAutoNow == nil || !rec.DatetimeAutoNow.Equal(fixedNow) {
		t.Fatalf("datetime auto_now not set, got %v", rec.DatetimeAutoNow)
	}
	if rec.DatetimeAutoNowAdd == nil || !rec.DatetimeAutoNowAdd.Equal(fixedNow) {
		t.Fatalf("datetime auto_now_add not set, got %v", rec.DatetimeAutoNowAdd)
	}

	row, ok := store.Get(context.Background(), "auto_fields", rec.ID)
	if !ok {
		t.Fatalf("expected persisted row")
	}
	if v := row.Values["datetime_auto_now"]; v == nil || !v.Equal(fixedNow) {
		t.Fatalf("expected persisted datetime_auto_now, got %v", v)
	}
}

func TestFrameworkHookLeavesAutoNowAddOnUpdate(t *testing.T) {
	registry := newRegistry()
	store := model.NewMemoryStore(model.WithRegistry(registry))
	rec := &autoFields{}
	rec.ID = 7

	if err := store.Save(context.Background(), rec); err != nil {
		t.Fatalf("save: %v", err)
	}
	if rec.DateAutoNowAdd != nil || rec.DatetimeAutoNowAdd != nil {
		t.Fatalf("auto_now_add fields must not change on update: %+v", rec)
	}
	if rec.DatetimeAutoNow == nil {
		t.Fatalf("auto_now field must change on update")
	}
}

func TestRegistryPushDelegatesAndPops(t *testing.T) {
	registry := newRegistry()
	var calls []string
	handle := registry.Push(model.KindDateTime, func(next model.PreSaveFunc) model.PreSaveFunc {
		return func(field model.Field, record any, insert bool) *time.Time {
			calls = append(calls, field.Name)
			return next(field, record, insert)
		}
	})
	if registry.Depth(model.KindDateTime) != 1 || registry.Depth(model.KindDate) != 0 {
		t.Fatalf("unexpected depths %d/%d", registry.Depth(model.KindDateTime), registry.Depth(model.KindDate))
	}

	rec := &autoFields{}
	if _, err := model.PreSave(registry, rec, true); err != nil {
		t.Fatalf("presave: %v", err)
	}
	if len(calls) != 2 {
		t.Fatalf("expected wrapper to see 2 datetime fields, got %v", calls)
	}
	if rec.DatetimeAutoNow == nil {
		t.Fatalf("delegation should reach framework hook")
	}

	if err := registry.Pop(handle); err != nil {
		t.Fatalf("pop: %v", err)
	}
	if registry.Depth(model.KindDateTime) != 0 {
		t.Fatalf("expected chain restored")
	}
}

func TestRegistryPopOutOfOrder(t *testing.T) {
	registry := newRegistry()
	passthrough := func(next model.PreSaveFunc) model.PreSaveFunc { return next }
	outer := registry.Push(model.KindDate, passthrough)
	inner := registry.Push(model.KindDate, passthrough)

	if err := registry.Pop(outer); !errors.Is(err, model.ErrHookOrder) {
		t.Fatalf("expected ErrHookOrder, got %v", err)
	}
	if registry.Depth(model.KindDate) != 2 {
		t.Fatalf("failed pop must leave chain intact, depth=%d", registry.Depth(model.KindDate))
	}
	if err := registry.Pop(inner); err != nil {
		t.Fatalf("pop inner: %v", err)
	}
	if err := registry.Pop(outer); err != nil {
		t.Fatalf("pop outer: %v", err)
	}
	if err := registry.Pop(model.Handle{}); err != nil {
		t.Fatalf("zero handle pop should be a no-op, got %v", err)
	}
}
