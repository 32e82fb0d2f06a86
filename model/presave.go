package model

import "time"

// Values maps column names to the values to persist (nil for null).
type Values map[string]*time.Time

// PreSave runs the current hook of every timestamp field on record and
// returns the values to persist. insert marks the initial write.
func PreSave(registry *Registry, record any, insert bool) (Values, error) {
	schema, err := SchemaOf(record)
	if err != nil {
		return nil, err
	}
	if registry == nil {
		registry = DefaultRegistry()
	}
	values := make(Values, len(schema.Fields))
	for _, field := range schema.Fields {
		hook := registry.Current(field.Kind)
		values[field.Column] = hook(field, record, insert)
	}
	return values, nil
}
