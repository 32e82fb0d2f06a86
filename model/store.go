package model

import (
	"context"
	"sync"
)

// Record is a persistable value with an integer primary key. A zero key means
// the record has not been inserted yet.
type Record interface {
	PrimaryKey() int64
	SetPrimaryKey(id int64)
}

// Base supplies the primary key for record structs.
type Base struct {
	ID int64 `db:"id"`
}

// PrimaryKey implements Record.
func (b *Base) PrimaryKey() int64 {
	return b.ID
}

// SetPrimaryKey implements Record.
func (b *Base) SetPrimaryKey(id int64) {
	b.ID = id
}

// Store writes records, running timestamp hooks on each save.
type Store interface {
	Save(ctx context.Context, record Record) error
}

// Row is a persisted snapshot of a record's timestamp columns.
type Row struct {
	Table  string
	ID     int64
	Values Values
}

// StoreOption configures a MemoryStore.
type StoreOption func(*MemoryStore)

// WithRegistry sets the hook registry used during saves.
func WithRegistry(registry *Registry) StoreOption {
	return func(s *MemoryStore) {
		if registry != nil {
			s.registry = registry
		}
	}
}

// MemoryStore is an in-memory Store intended for tests and examples.
type MemoryStore struct {
	mu       sync.RWMutex
	registry *Registry
	nextID   map[string]int64
	rows     map[string]map[int64]Row
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore(opts ...StoreOption) *MemoryStore {
	s := &MemoryStore{
		registry: DefaultRegistry(),
		nextID:   map[string]int64{},
		rows:     map[string]map[int64]Row{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Save inserts record when it has no primary key, otherwise updates it.
func (s *MemoryStore) Save(_ context.Context, record Record) error {
	schema, err := SchemaOf(record)
	if err != nil {
		return err
	}
	insert := record.PrimaryKey() == 0
	values, err := PreSave(s.registry, record, insert)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if insert {
		s.nextID[schema.Table]++
		record.SetPrimaryKey(s.nextID[schema.Table])
	}
	table := s.rows[schema.Table]
	if table == nil {
		table = map[int64]Row{}
		s.rows[schema.Table] = table
	}
	table[record.PrimaryKey()] = Row{
		Table:  schema.Table,
		ID:     record.PrimaryKey(),
		Values: cloneValues(values),
	}
	return nil
}

// Get returns the persisted row for table and id.
func (s *MemoryStore) Get(_ context.Context, table string, id int64) (Row, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.rows[table][id]
	if !ok {
		return Row{}, false
	}
	row.Values = cloneValues(row.Values)
	return row, true
}

func cloneValues(values Values) Values {
	out := make(Values, len(values))
	for column, value := range values {
		if value == nil {
			out[column] = nil
			continue
		}
		copied := *value
		out[column] = &copied
	}
	return out
}

