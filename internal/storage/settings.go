package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
)

// SettingType is the explicit type tag stored alongside every setting value.
// Decoding switches on the tag; the value's shape is never inspected.
type SettingType string

const (
	SettingBool   SettingType = "bool"
	SettingInt    SettingType = "int"
	SettingDouble SettingType = "double"
	SettingString SettingType = "string"
)

// SettingValue is a tagged union over the four supported setting types.
type SettingValue struct {
	Type SettingType

	boolVal   bool
	intVal    int64
	doubleVal float64
	stringVal string
}

func BoolValue(v bool) SettingValue      { return SettingValue{Type: SettingBool, boolVal: v} }
func IntValue(v int64) SettingValue      { return SettingValue{Type: SettingInt, intVal: v} }
func DoubleValue(v float64) SettingValue { return SettingValue{Type: SettingDouble, doubleVal: v} }
func StringValue(v string) SettingValue  { return SettingValue{Type: SettingString, stringVal: v} }

// AsBool returns the boolean value; ok is false when the tag differs.
func (v SettingValue) AsBool() (bool, bool) { return v.boolVal, v.Type == SettingBool }

func (v SettingValue) AsInt() (int64, bool) { return v.intVal, v.Type == SettingInt }

func (v SettingValue) AsDouble() (float64, bool) { return v.doubleVal, v.Type == SettingDouble }

func (v SettingValue) AsString() (string, bool) { return v.stringVal, v.Type == SettingString }

// encode serializes the value for storage. The tag travels in its own column.
func (v SettingValue) encode() string {
	switch v.Type {
	case SettingBool:
		return strconv.FormatBool(v.boolVal)
	case SettingInt:
		return strconv.FormatInt(v.intVal, 10)
	case SettingDouble:
		return strconv.FormatFloat(v.doubleVal, 'g', -1, 64)
	default:
		return v.stringVal
	}
}

// decodeSetting reconstructs a value from its stored tag and encoding.
func decodeSetting(tag SettingType, raw string) (SettingValue, error) {
	switch tag {
	case SettingBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return SettingValue{}, fmt.Errorf("invalid bool setting %q: %w", raw, err)
		}
		return BoolValue(b), nil
	case SettingInt:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return SettingValue{}, fmt.Errorf("invalid int setting %q: %w", raw, err)
		}
		return IntValue(n), nil
	case SettingDouble:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return SettingValue{}, fmt.Errorf("invalid double setting %q: %w", raw, err)
		}
		return DoubleValue(f), nil
	case SettingString:
		return StringValue(raw), nil
	default:
		return SettingValue{}, fmt.Errorf("unknown setting type tag %q", tag)
	}
}

// SetSetting stores a typed setting value, replacing any previous value and
// tag under the same key.
func (s *Store) SetSetting(ctx context.Context, key string, value SettingValue) error {
	if err := s.ready(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO app_settings (key, value, type) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, type = excluded.type`,
		key, value.encode(), string(value.Type))
	if err != nil {
		return &QueryError{Op: "set setting", Table: "app_settings", Err: err}
	}
	return s.persist(ctx)
}

// Setting retrieves a setting; ok is false when the key is absent.
func (s *Store) Setting(ctx context.Context, key string) (SettingValue, bool, error) {
	if err := s.ready(); err != nil {
		return SettingValue{}, false, err
	}
	var raw, tag string
	err := s.db.QueryRowContext(ctx,
		"SELECT value, type FROM app_settings WHERE key = ?", key).Scan(&raw, &tag)
	if err == sql.ErrNoRows {
		return SettingValue{}, false, nil
	}
	if err != nil {
		return SettingValue{}, false, &QueryError{Op: "get setting", Table: "app_settings", Err: err}
	}
	v, err := decodeSetting(SettingType(tag), raw)
	if err != nil {
		return SettingValue{}, false, &QueryError{Op: "get setting", Table: "app_settings", Err: err}
	}
	return v, true, nil
}

// Typed accessors. Absent keys yield the default; a stored value under a
// different tag is an error, not a coercion.

func (s *Store) BoolSetting(ctx context.Context, key string, def bool) (bool, error) {
	v, ok, err := s.Setting(ctx, key)
	if err != nil {
		return def, err
	}
	if !ok {
		return def, nil
	}
	b, ok := v.AsBool()
	if !ok {
		return def, fmt.Errorf("setting %q has type %s, want bool", key, v.Type)
	}
	return b, nil
}

func (s *Store) IntSetting(ctx context.Context, key string, def int64) (int64, error) {
	v, ok, err := s.Setting(ctx, key)
	if err != nil {
		return def, err
	}
	if !ok {
		return def, nil
	}
	n, ok := v.AsInt()
	if !ok {
		return def, fmt.Errorf("setting %q has type %s, want int", key, v.Type)
	}
	return n, nil
}

func (s *Store) DoubleSetting(ctx context.Context, key string, def float64) (float64, error) {
	v, ok, err := s.Setting(ctx, key)
	if err != nil {
		return def, err
	}
	if !ok {
		return def, nil
	}
	f, ok := v.AsDouble()
	if !ok {
		return def, fmt.Errorf("setting %q has type %s, want double", key, v.Type)
	}
	return f, nil
}

func (s *Store) StringSetting(ctx context.Context, key string, def string) (string, error) {
	v, ok, err := s.Setting(ctx, key)
	if err != nil {
		return def, err
	}
	if !ok {
		return def, nil
	}
	str, ok := v.AsString()
	if !ok {
		return def, fmt.Errorf("setting %q has type %s, want string", key, v.Type)
	}
	return str, nil
}
