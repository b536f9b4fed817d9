// Package platform is the adapter between speech providers and the
// home-automation host: configuration schemas, lifecycle hooks and the
// provider registry the host dispatches speech requests through.
package platform

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cast"
)

// ErrInvalidConfig is returned when a platform configuration fails its schema.
var ErrInvalidConfig = errors.New("invalid platform configuration")

// Kind is the value type a schema field coerces to.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindPort
	KindBool
	KindEnum
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindPort:
		return "port"
	case KindBool:
		return "bool"
	case KindEnum:
		return "enum"
	default:
		return "unknown"
	}
}

// Field declares one configuration key.
type Field struct {
	Key        string
	Kind       Kind
	IsRequired bool
	Value      any      // default, used when the key is absent
	In         []string // allowed values for KindEnum
}

// String declares a string field.
func String(key string) Field { return Field{Key: key, Kind: KindString} }

// Int declares an integer field.
func Int(key string) Field { return Field{Key: key, Kind: KindInt} }

// Port declares a TCP port field (1-65535).
func Port(key string) Field { return Field{Key: key, Kind: KindPort} }

// Bool declares a boolean field.
func Bool(key string) Field { return Field{Key: key, Kind: KindBool} }

// OneOf declares a string field restricted to values.
func OneOf(key string, values ...string) Field {
	return Field{Key: key, Kind: KindEnum, In: values}
}

// Required marks the field as mandatory.
func (f Field) Required() Field {
	f.IsRequired = true
	return f
}

// Default sets the value used when the key is absent.
func (f Field) Default(v any) Field {
	f.Value = v
	return f
}

// coerce converts v to the field's kind.
func (f Field) coerce(v any) (any, error) {
	switch f.Kind {
	case KindString:
		return cast.ToStringE(v)
	case KindInt:
		return cast.ToIntE(v)
	case KindPort:
		n, err := cast.ToIntE(v)
		if err != nil {
			return nil, err
		}
		if n < 1 || n > 65535 {
			return nil, fmt.Errorf("port must be between 1 and 65535, got %d", n)
		}
		return n, nil
	case KindBool:
		return cast.ToBoolE(v)
	case KindEnum:
		s, err := cast.ToStringE(v)
		if err != nil {
			return nil, err
		}
		for _, allowed := range f.In {
			if s == allowed {
				return s, nil
			}
		}
		return nil, fmt.Errorf("value must be one of %v, got %q", f.In, s)
	default:
		return nil, fmt.Errorf("unknown field kind %d", f.Kind)
	}
}

// Schema is an ordered set of fields.
type Schema struct {
	fields []Field
}

// NewSchema creates a schema from fields.
func NewSchema(fields ...Field) Schema {
	return Schema{}.Extend(fields...)
}

// BaseSchema is the schema every platform entry extends. It only carries the
// key that names the platform.
var BaseSchema = NewSchema(String("platform"))

// Extend returns a new schema with fields added. A field with the same key as
// an existing one replaces it.
func (s Schema) Extend(fields ...Field) Schema {
	out := Schema{fields: make([]Field, 0, len(s.fields)+len(fields))}
	out.fields = append(out.fields, s.fields...)
	for _, f := range fields {
		replaced := false
		for i := range out.fields {
			if out.fields[i].Key == f.Key {
				out.fields[i] = f
				replaced = true
				break
			}
		}
		if !replaced {
			out.fields = append(out.fields, f)
		}
	}
	return out
}

// Fields returns the declared fields in order.
func (s Schema) Fields() []Field {
	return append([]Field(nil), s.fields...)
}

// Field looks up a field by key.
func (s Schema) Field(key string) (Field, bool) {
	for _, f := range s.fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

// Validate checks raw against the schema and returns a new map with values
// coerced and defaults filled in. Unknown keys are rejected. Every problem is
// reported, not just the first.
func (s Schema) Validate(raw map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(s.fields))
	var problems []string

	for _, f := range s.fields {
		v, ok := raw[f.Key]
		if !ok || v == nil {
			switch {
			case f.IsRequired:
				problems = append(problems, fmt.Sprintf("required key not provided: %s", f.Key))
			case f.Value != nil:
				out[f.Key] = f.Value
			}
			continue
		}

		coerced, err := f.coerce(v)
		if err != nil {
			problems = append(problems, fmt.Sprintf("invalid %s %q: %v", f.Kind, f.Key, err))
			continue
		}
		if f.IsRequired && f.Kind == KindString && strings.TrimSpace(coerced.(string)) == "" {
			problems = append(problems, fmt.Sprintf("required key is empty: %s", f.Key))
			continue
		}
		out[f.Key] = coerced
	}

	var unknown []string
	for k := range raw {
		if _, ok := s.Field(k); !ok {
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)
	for _, k := range unknown {
		problems = append(problems, fmt.Sprintf("extra key not allowed: %s", k))
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return out, nil
}
