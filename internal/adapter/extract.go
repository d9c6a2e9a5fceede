package adapter

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Extractor pulls the result out of a successful upstream payload.
type Extractor struct {
	// List marks actions whose result defaults to [] when absent.
	List bool
	fn   func(payload []byte) (json.RawMessage, error)
}

// Extract applies the rule to a payload.
func (e Extractor) Extract(payload []byte) (json.RawMessage, error) {
	if e.fn == nil {
		return nil, fmt.Errorf("extractor not defined")
	}
	return e.fn(payload)
}

var emptyList = json.RawMessage("[]")

// ListField extracts an array stored under field. A missing or null field
// yields []; a field of any other type is an error.
func ListField(field string) Extractor {
	return Extractor{List: true, fn: func(payload []byte) (json.RawMessage, error) {
		value, ok, err := lookupField(payload, field)
		if err != nil {
			return nil, err
		}
		if !ok || isNull(value) {
			return emptyList, nil
		}
		if !isArray(value) {
			return nil, fmt.Errorf("field %q is not an array", field)
		}
		return value, nil
	}}
}

// ObjectField extracts an object stored under field. The field must be present.
func ObjectField(field string) Extractor {
	return Extractor{fn: func(payload []byte) (json.RawMessage, error) {
		value, ok, err := lookupField(payload, field)
		if err != nil {
			return nil, err
		}
		if !ok || isNull(value) {
			return nil, fmt.Errorf("field %q missing from payload", field)
		}
		if !isObject(value) {
			return nil, fmt.Errorf("field %q is not an object", field)
		}
		return value, nil
	}}
}

// Root returns the whole payload, which must be an object.
func Root() Extractor {
	return Extractor{fn: func(payload []byte) (json.RawMessage, error) {
		trimmed := bytes.TrimSpace(payload)
		if !isObject(trimmed) || !json.Valid(trimmed) {
			return nil, fmt.Errorf("payload is not a JSON object")
		}
		return json.RawMessage(trimmed), nil
	}}
}

// ListRoot returns the whole payload, which must be an array. null yields [].
func ListRoot() Extractor {
	return Extractor{List: true, fn: func(payload []byte) (json.RawMessage, error) {
		trimmed := bytes.TrimSpace(payload)
		if isNull(trimmed) {
			return emptyList, nil
		}
		if !isArray(trimmed) || !json.Valid(trimmed) {
			return nil, fmt.Errorf("payload is not a JSON array")
		}
		return json.RawMessage(trimmed), nil
	}}
}

// FirstRow returns the first element of an array payload. An empty array
// returns ErrNoRows.
func FirstRow() Extractor {
	return Extractor{fn: func(payload []byte) (json.RawMessage, error) {
		var rows []json.RawMessage
		if err := json.Unmarshal(payload, &rows); err != nil {
			return nil, fmt.Errorf("decode rows: %w", err)
		}
		if len(rows) == 0 {
			return nil, ErrNoRows
		}
		return rows[0], nil
	}}
}

func lookupField(payload []byte, field string) (json.RawMessage, bool, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(payload, &obj); err != nil {
		return nil, false, fmt.Errorf("decode payload: %w", err)
	}
	if obj == nil {
		return nil, false, fmt.Errorf("payload is not a JSON object")
	}
	value, ok := obj[field]
	return bytes.TrimSpace(value), ok, nil
}

func isNull(b []byte) bool {
	return bytes.Equal(b, []byte("null"))
}

func isArray(b []byte) bool {
	return len(b) > 0 && b[0] == '['
}

func isObject(b []byte) bool {
	return len(b) > 0 && b[0] == '{'
}
