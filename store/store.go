package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/invopop/jsonschema"
	"github.com/sasha-s/go-deadlock"
)

type entry struct {
	typ      reflect.Type
	typeKind reflect.Kind
	value    any
}

// KVStore is a threadsafe, type-aware in-memory store scoped to one pipeline
// run.
type KVStore struct {
	mu   deadlock.RWMutex
	data map[string]entry
}

// NewKVStore constructs an empty store.
func NewKVStore() *KVStore {
	return &KVStore{data: make(map[string]entry)}
}

// FromMap constructs a store pre-populated with the given key-value pairs.
func FromMap(values map[string]any) *KVStore {
	s := NewKVStore()
	for k, v := range values {
		// Empty keys are the only rejection; callers building initial state
		// from a literal map never hit it.
		_ = s.Put(k, v)
	}
	return s
}

// Put stores any Go value under key, capturing its concrete type. Inserting
// over an existing key overwrites it; last writer wins.
func (s *KVStore) Put(key string, value any) error {
	if key == "" {
		return errors.New("key cannot be empty")
	}

	if value == nil {
		s.mu.Lock()
		s.data[key] = entry{typ: nil, typeKind: reflect.Invalid, value: nil}
		s.mu.Unlock()
		return nil
	}

	t := reflect.TypeOf(value)

	s.mu.Lock()
	s.data[key] = entry{typ: t, typeKind: t.Kind(), value: value}
	s.mu.Unlock()
	return nil
}

// Get retrieves a value of type T for the given key.
func Get[T any](s *KVStore, key string) (T, error) {
	var zero T
	if key == "" {
		return zero, errors.New("key cannot be empty")
	}

	s.mu.RLock()
	e, ok := s.data[key]
	s.mu.RUnlock()

	if !ok {
		return zero, ErrNotFound
	}

	want := reflect.TypeOf((*T)(nil)).Elem()
	wantKind := want.Kind()

	// If requesting an interface, check if the stored type implements it.
	if wantKind == reflect.Interface {
		if !canImplementInterface(e.typeKind) {
			return zero, fmt.Errorf("%w: wanted interface %v, but stored value type %v (kind: %v) can't implement interfaces",
				ErrTypeMismatch, want, e.typ, e.typeKind)
		}

		if !e.typ.Implements(want) {
			return zero, fmt.Errorf("%w: wanted interface %v, got %v which doesn't implement it",
				ErrTypeMismatch, want, e.typ)
		}

		result, ok := e.value.(T)
		if !ok {
			return zero, fmt.Errorf("type assertion failed: %T cannot be converted to requested interface", e.value)
		}

		return result, nil
	}

	// For non-interface types, require an exact match.
	if e.typ != want {
		return zero, fmt.Errorf("%w: wanted %v (kind: %v), got %v (kind: %v)",
			ErrTypeMismatch, want, wantKind, e.typ, e.typeKind)
	}

	result, ok := e.value.(T)
	if !ok {
		return zero, fmt.Errorf("type assertion failed: %T cannot be converted to %v", e.value, want)
	}

	return result, nil
}

// GetOrDefault retrieves a value of type T for the given key, returning
// defaultValue when the key is absent.
func GetOrDefault[T any](s *KVStore, key string, defaultValue T) (T, error) {
	value, err := Get[T](s, key)
	if errors.Is(err, ErrNotFound) {
		return defaultValue, nil
	}
	return value, err
}

// canImplementInterface reports whether a value of the given kind can back an
// interface.
func canImplementInterface(kind reflect.Kind) bool {
	switch kind {
	case reflect.Interface, reflect.Ptr, reflect.Struct, reflect.Map, reflect.Array, reflect.Slice:
		return true
	default:
		return false
	}
}

// Has reports whether the key is present in the store.
func (s *KVStore) Has(key string) bool {
	if key == "" {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.data[key]
	return ok
}

// Delete removes a key from the store, reporting whether it existed.
func (s *KVStore) Delete(key string) bool {
	if key == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, exists := s.data[key]
	if exists {
		delete(s.data, key)
	}
	return exists
}

// Clear removes all keys from the store.
func (s *KVStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[string]entry)
}

// ListKeys returns all stored keys in unspecified order.
func (s *KVStore) ListKeys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.data))
	for k := range s.data {
		out = append(out, k)
	}
	return out
}

// Count returns the number of entries in the store.
func (s *KVStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// KeysByType returns all keys whose stored value has type T.
func KeysByType[T any](s *KVStore) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	want := reflect.TypeOf((*T)(nil)).Elem()
	keys := []string{}

	for k, e := range s.data {
		if e.typ == want {
			keys = append(keys, k)
		}
	}
	return keys
}

// Snapshot returns a shallow copy of the store's contents as a plain map.
func (s *KVStore) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]any, len(s.data))
	for k, e := range s.data {
		out[k] = e.value
	}
	return out
}

// GetTypeSchema returns a JSON Schema representation of the stored value's
// type.
func (s *KVStore) GetTypeSchema(key string) (interface{}, error) {
	if key == "" {
		return nil, errors.New("key cannot be empty")
	}

	s.mu.RLock()
	e, ok := s.data[key]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	if e.typ == nil {
		return nil, fmt.Errorf("key '%s' holds a nil value with no type", key)
	}

	return TypeToSchema(e.typ), nil
}

// TypeToSchema converts a reflect.Type to a JSON schema.
func TypeToSchema(t reflect.Type) interface{} {
	instance := reflect.New(t).Interface()
	reflector := jsonschema.Reflector{
		ExpandedStruct:            true,
		DoNotReference:            true,
		AllowAdditionalProperties: false,
	}

	schema := reflector.Reflect(instance)

	data, err := json.Marshal(schema)
	if err != nil {
		return map[string]interface{}{
			"type":       "object",
			"properties": map[string]interface{}{},
		}
	}

	var schemaMap map[string]interface{}
	if err := json.Unmarshal(data, &schemaMap); err != nil {
		return map[string]interface{}{
			"type":       "object",
			"properties": map[string]interface{}{},
		}
	}

	if _, exists := schemaMap["type"]; !exists {
		schemaMap["type"] = "object"
	}
	if _, exists := schemaMap["properties"]; !exists {
		schemaMap["properties"] = map[string]interface{}{}
	}

	return schemaMap
}
