package autonow_test

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-autonow"
	"github.com/goliatone/go-autonow/model"
)

var fixedNow = time.Date(2024, 5, 1, 15, 30, 0, 0, time.UTC)

type autoFieldsModel struct {
	model.Base
	DateAutoNow        *time.Time `autonow:"date,auto_now"`
	DateAutoNowAdd     *time.Time `autonow:"date,auto_now_add"`
	DatetimeAutoNow    *time.Time `autonow:"datetime,auto_now"`
	DatetimeAutoNowAdd *time.Time `autonow:"datetime,auto_now_add"`
}

type autoFieldsModel2 struct {
	model.Base
	DateAutoNow        *time.Time `autonow:"date,auto_now"`
	DateAutoNowAdd     *time.Time `autonow:"date,auto_now_add"`
	DatetimeAutoNow    *time.Time `autonow:"datetime,auto_now"`
	DatetimeAutoNowAdd *time.Time `autonow:"datetime,auto_now_add"`
}

func (m *autoFieldsModel) values() map[string]*time.Time {
	return map[string]*time.Time{
		"DateAutoNow":        m.DateAutoNow,
		"DateAutoNowAdd":     m.DateAutoNowAdd,
		"DatetimeAutoNow":    m.DatetimeAutoNow,
		"DatetimeAutoNowAdd": m.DatetimeAutoNowAdd,
	}
}

func (m *autoFieldsModel2) values() map[string]*time.Time {
	return map[string]*time.Time{
		"DateAutoNow":        m.DateAutoNow,
		"DateAutoNowAdd":     m.DateAutoNowAdd,
		"DatetimeAutoNow":    m.DatetimeAutoNow,
		"DatetimeAutoNowAdd": m.DatetimeAutoNowAdd,
	}
}

var allFields = []string{"DateAutoNow", "DateAutoNowAdd", "DatetimeAutoNow", "DatetimeAutoNowAdd"}

// harness isolates every test in its own registry and store.
type harness struct {
	t        *testing.T
	registry *model.Registry
	store    *model.MemoryStore
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	registry := model.NewRegistry(model.WithClock(func() time.Time { return fixedNow }))
	return &harness{
		t:        t,
		registry: registry,
		store:    model.NewMemoryStore(model.WithRegistry(registry)),
	}
}

func (h *harness) scope(opts ...autonow.Option) *autonow.Scope {
	return autonow.New(append([]autonow.Option{autonow.WithRegistry(h.registry)}, opts...)...)
}

func (h *harness) create() *autoFieldsModel {
	h.t.Helper()
	rec := &autoFieldsModel{}
	h.save(rec)
	return rec
}

func (h *harness) create2() *autoFieldsModel2 {
	h.t.Helper()
	rec := &autoFieldsModel2{}
	h.save(rec)
	return rec
}

func (h *harness) save(rec model.Record) {
	h.t.Helper()
	if err := h.store.Save(context.Background(), rec); err != nil {
		h.t.Fatalf("save: %v", err)
	}
}

func (h *harness) assertClean() {
	h.t.Helper()
	for _, kind := range model.Kinds() {
		if depth := h.registry.Depth(kind); depth != 0 {
			h.t.Fatalf("expected %s chain restored, depth=%d", kind, depth)
		}
	}
}

// assertOverridden checks that exactly the listed fields kept their null value.
func assertOverridden(t *testing.T, values map[string]*time.Time, overridden ...string) {
	t.Helper()
	want := map[string]bool{}
	for _, name := range overridden {
		want[name] = true
	}
	for _, name := range allFields {
		value := values[name]
		if want[name] && value != nil {
			t.Fatalf("%s: expected override to keep null, got %v", name, value)
		}
		if !want[name] && value == nil {
			t.Fatalf("%s: expected framework timestamp, got null", name)
		}
	}
}
