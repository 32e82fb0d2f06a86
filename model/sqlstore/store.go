// Package sqlstore persists records to SQLite through database/sql, running
// the timestamp hooks of a model.Registry on every save.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-autonow/model"
	_ "modernc.org/sqlite"
)

// DriverName is the database/sql driver registered by modernc.org/sqlite.
const DriverName = "sqlite"

const (
	timeLayout = time.RFC3339Nano
	dateLayout = "2006-01-02"
)

// ErrNotFound indicates Load found no row for the record's primary key.
var ErrNotFound = errors.New("sqlstore: record not found")

// Option configures a Store.
type Option func(*Store)

// WithRegistry sets the hook registry used during saves.
func WithRegistry(registry *model.Registry) Option {
	return func(s *Store) {
		if registry != nil {
			s.registry = registry
		}
	}
}

// Store implements model.Store on top of a SQLite database. Tables are
// created on first use from the record's timestamp schema.
type Store struct {
	db       *sql.DB
	registry *model.Registry

	mu     sync.Mutex
	tables map[string]struct{}
}

// Open connects to dsn (":memory:" for a private in-memory database).
func Open(ctx context.Context, dsn string, opts ...Option) (*Store, error) {
	db, err := sql.Open(DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open: %w", err)
	}
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlstore: ping: %w", err)
	}
	return New(db, opts...), nil
}

// New wraps an existing database handle.
func New(db *sql.DB, opts ...Option) *Store {
	s := &Store{
		db:       db,
		registry: model.DefaultRegistry(),
		tables:   map[string]struct{}{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save inserts record when it has no primary key, otherwise updates it.
func (s *Store) Save(ctx context.Context, record model.Record) error {
	schema, err := model.SchemaOf(record)
	if err != nil {
		return err
	}
	if err := s.ensureTable(ctx, schema); err != nil {
		return err
	}
	insert := record.PrimaryKey() == 0
	values, err := model.PreSave(s.registry, record, insert)
	if err != nil {
		return err
	}

	fields := make(map[string]model.Field, len(schema.Fields))
	for _, field := range schema.Fields {
		fields[field.Column] = field
	}
	columns := sortedColumns(values)
	args := make([]any, 0, len(columns)+1)
	for _, column := range columns {
		args = append(args, encodeTime(fields[column], values[column]))
	}

	if insert {
		query := fmt.Sprintf("INSERT INTO %s DEFAULT VALUES", quote(schema.Table))
		if len(columns) > 0 {
			query = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
				quote(schema.Table), quoteAll(columns), placeholders(len(columns)))
		}
		result, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("sqlstore: insert %s: %w", schema.Table, err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("sqlstore: insert %s: %w", schema.Table, err)
		}
		record.SetPrimaryKey(id)
		return nil
	}

	if len(columns) == 0 {
		return nil
	}
	assignments := make([]string, len(columns))
	for i, column := range columns {
		assignments[i] = quote(column) + " = ?"
	}
	args = append(args, record.PrimaryKey())
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", quote(schema.Table), strings.Join(assignments, ", "))
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("sqlstore: update %s: %w", schema.Table, err)
	}
	return nil
}

// Load refreshes record's timestamp fields from the stored row.
func (s *Store) Load(ctx context.Context, record model.Record) error {
	schema, err := model.SchemaOf(record)
	if err != nil {
		return err
	}
	if err := s.ensureTable(ctx, schema); err != nil {
		return err
	}
	if len(schema.Fields) == 0 {
		return nil
	}
	columns := make([]string, len(schema.Fields))
	for i, field := range schema.Fields {
		columns[i] = field.Column
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", quoteAll(columns), quote(schema.Table))
	raw := make([]sql.NullString, len(columns))
	dest := make([]any, len(columns))
	for i := range raw {
		dest[i] = &raw[i]
	}
	err = s.db.QueryRowContext(ctx, query, record.PrimaryKey()).Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s id=%d", ErrNotFound, schema.Table, record.PrimaryKey())
	}
	if err != nil {
		return fmt.Errorf("sqlstore: load %s: %w", schema.Table, err)
	}
	for i, field := range schema.Fields {
		value, err := decodeTime(field, raw[i])
		if err != nil {
			return fmt.Errorf("sqlstore: load %s.%s: %w", schema.Table, field.Column, err)
		}
		model.SetValue(field, record, value)
	}
	return nil
}

func (s *Store) ensureTable(ctx context.Context, schema *model.Schema) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tables[schema.Table]; ok {
		return nil
	}
	definitions := []string{"id INTEGER PRIMARY KEY AUTOINCREMENT"}
	for _, field := range schema.Fields {
		definitions = append(definitions, quote(field.Column)+" TEXT NULL")
	}
	ddl := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", quote(schema.Table), strings.Join(definitions, ", "))
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("sqlstore: create table %s: %w", schema.Table, err)
	}
	s.tables[schema.Table] = struct{}{}
	return nil
}

// encodeTime stores dates as the calendar day of the value's own zone and
// datetimes with their offset.
func encodeTime(field model.Field, value *time.Time) any {
	if value == nil {
		return nil
	}
	if field.Kind == model.KindDate {
		return value.Format(dateLayout)
	}
	return value.Format(timeLayout)
}

// decodeTime reads dates back as midnight UTC of the stored day.
func decodeTime(field model.Field, raw sql.NullString) (*time.Time, error) {
	if !raw.Valid {
		return nil, nil
	}
	layout := timeLayout
	if field.Kind == model.KindDate {
		layout = dateLayout
	}
	parsed, err := time.Parse(layout, raw.String)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func sortedColumns(values model.Values) []string {
	columns := make([]string, 0, len(values))
	for column := range values {
		columns = append(columns, column)
	}
	sort.Strings(columns)
	return columns
}

func quote(identifier string) string {
	return `"` + strings.ReplaceAll(identifier, `"`, `""`) + `"`
}

func quoteAll(identifiers []string) string {
	quoted := make([]string, len(identifiers))
	for i, identifier := range identifiers {
		quoted[i] = quote(identifier)
	}
	return strings.Join(quoted, ", ")
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
