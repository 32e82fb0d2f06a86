package model

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/stoewer/go-strcase"
)

// TagName is the struct tag used to declare timestamp fields, e.g.
//
//	UpdatedAt *time.Time `autonow:"datetime,auto_now"`
//	CreatedOn time.Time  `autonow:"date,auto_now_add" db:"created_on"`
const TagName = "autonow"

var (
	// ErrUnsupportedField indicates a tagged field that cannot hold a timestamp.
	ErrUnsupportedField = errors.New("model: unsupported timestamp field")
	// ErrInvalidTag indicates a malformed autonow tag.
	ErrInvalidTag = errors.New("model: invalid autonow tag")
	// ErrInvalidRecord indicates a record that is not a non-nil struct pointer.
	ErrInvalidRecord = errors.New("model: record must be a non-nil pointer to struct")
)

var (
	timeType    = reflect.TypeOf(time.Time{})
	timePtrType = reflect.TypeOf((*time.Time)(nil))
)

// Field describes a timestamp attribute on a record type.
type Field struct {
	Name       string
	Column     string
	Kind       Kind
	AutoNow    bool
	AutoNowAdd bool

	index    []int
	nullable bool
}

// Schema lists the timestamp fields declared on a record type.
type Schema struct {
	Type   reflect.Type
	Table  string
	Fields []Field
}

// Tabler lets a record type choose its table name.
type Tabler interface {
	TableName() string
}

var schemaCache sync.Map // reflect.Type -> *Schema

// SchemaOf parses (and caches) the timestamp schema for record's type.
func SchemaOf(record any) (*Schema, error) {
	rt, err := recordType(record)
	if err != nil {
		return nil, err
	}
	if cached, ok := schemaCache.Load(rt); ok {
		return cached.(*Schema), nil
	}
	schema, err := parseSchema(rt)
	if err != nil {
		return nil, err
	}
	if tabler, ok := record.(Tabler); ok {
		schema.Table = tabler.TableName()
	}
	actual, _ := schemaCache.LoadOrStore(rt, schema)
	return actual.(*Schema), nil
}

// MustSchema is SchemaOf for declarations known to be valid.
func MustSchema(record any) *Schema {
	schema, err := SchemaOf(record)
	if err != nil {
		panic(err)
	}
	return schema
}

// Field looks up a field by attribute name.
func (s *Schema) Field(name string) (Field, bool) {
	if s == nil {
		return Field{}, false
	}
	for _, field := range s.Fields {
		if field.Name == name {
			return field, true
		}
	}
	return Field{}, false
}

func recordType(record any) (reflect.Type, error) {
	rv := reflect.ValueOf(record)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: got %T", ErrInvalidRecord, record)
	}
	return rv.Elem().Type(), nil
}

func parseSchema(rt reflect.Type) (*Schema, error) {
	schema := &Schema{
		Type:  rt,
		Table: strcase.SnakeCase(rt.Name()),
	}
	for _, sf := range reflect.VisibleFields(rt) {
		tag, ok := sf.Tag.Lookup(TagName)
		if !ok || tag == "-" {
			continue
		}
		if !sf.IsExported() {
			return nil, fmt.Errorf("%w: %s.%s is unexported", ErrUnsupportedField, rt.Name(), sf.Name)
		}
		if reason := unreachable(rt, sf.Index); reason != "" {
			return nil, fmt.Errorf("%w: %s.%s is promoted through %s", ErrUnsupportedField, rt.Name(), sf.Name, reason)
		}
		field, err := parseField(sf, tag)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", rt.Name(), sf.Name, err)
		}
		schema.Fields = append(schema.Fields, field)
	}
	return schema, nil
}

func parseField(sf reflect.StructField, tag string) (Field, error) {
	field := Field{
		Name:   sf.Name,
		Column: strcase.SnakeCase(sf.Name),
		index:  append([]int(nil), sf.Index...),
	}
	switch sf.Type {
	case timeType:
	case timePtrType:
		field.nullable = true
	default:
		return Field{}, fmt.Errorf("%w: type %s", ErrUnsupportedField, sf.Type)
	}
	if column := strings.TrimSpace(strings.Split(sf.Tag.Get("db"), ",")[0]); column != "" && column != "-" {
		field.Column = column
	}

	parts := strings.Split(tag, ",")
	kind, ok := ParseKind(strings.TrimSpace(parts[0]))
	if !ok {
		return Field{}, fmt.Errorf("%w: unknown kind %q", ErrInvalidTag, parts[0])
	}
	field.Kind = kind
	for _, part := range parts[1:] {
		switch strings.TrimSpace(part) {
		case "auto_now":
			field.AutoNow = true
		case "auto_now_add":
			field.AutoNowAdd = true
		case "":
		default:
			return Field{}, fmt.Errorf("%w: unknown option %q", ErrInvalidTag, part)
		}
	}
	return field, nil
}

// unreachable reports why a promoted field cannot be assigned through
// reflection, or "" when it can.
func unreachable(rt reflect.Type, index []int) string {
	current := rt
	for _, idx := range index[:len(index)-1] {
		sf := current.Field(idx)
		if sf.Type.Kind() == reflect.Pointer {
			return "a pointer"
		}
		if !sf.IsExported() {
			return "an unexported embedded struct"
		}
		current = sf.Type
	}
	return ""
}

// BaseValue returns the record's current value for field without any
// automatic assignment. A nil result means null.
func BaseValue(field Field, record any) *time.Time {
	fv := fieldValue(field, record)
	if field.nullable {
		if fv.IsNil() {
			return nil
		}
		value := fv.Elem().Interface().(time.Time)
		return &value
	}
	value := fv.Interface().(time.Time)
	if value.IsZero() {
		return nil
	}
	return &value
}

// SetValue assigns value (nil for null) to field on record.
func SetValue(field Field, record any, value *time.Time) {
	fv := fieldValue(field, record)
	if field.nullable {
		if value == nil {
			fv.Set(reflect.Zero(timePtrType))
			return
		}
		copied := *value
		fv.Set(reflect.ValueOf(&copied))
		return
	}
	if value == nil {
		fv.Set(reflect.ValueOf(time.Time{}))
		return
	}
	fv.Set(reflect.ValueOf(*value))
}

func fieldValue(field Field, record any) reflect.Value {
	rv := reflect.ValueOf(record)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		panic(fmt.Errorf("%w: got %T", ErrInvalidRecord, record))
	}
	return rv.Elem().FieldByIndex(field.index)
}
