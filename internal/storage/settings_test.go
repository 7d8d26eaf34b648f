package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetSetting(ctx, "dark_mode", BoolValue(true)))
	require.NoError(t, store.SetSetting(ctx, "font_size", IntValue(14)))
	require.NoError(t, store.SetSetting(ctx, "line_spacing", DoubleValue(1.5)))
	require.NoError(t, store.SetSetting(ctx, "translation", StringValue("WEB")))

	v, ok, err := store.Setting(ctx, "dark_mode")
	require.NoError(t, err)
	require.True(t, ok)
	b, ok := v.AsBool()
	assert.True(t, ok)
	assert.True(t, b)

	v, ok, err = store.Setting(ctx, "font_size")
	require.NoError(t, err)
	require.True(t, ok)
	n, ok := v.AsInt()
	assert.True(t, ok)
	assert.Equal(t, int64(14), n)

	v, ok, err = store.Setting(ctx, "line_spacing")
	require.NoError(t, err)
	require.True(t, ok)
	f, ok := v.AsDouble()
	assert.True(t, ok)
	assert.Equal(t, 1.5, f)

	v, ok, err = store.Setting(ctx, "translation")
	require.NoError(t, err)
	require.True(t, ok)
	s, ok := v.AsString()
	assert.True(t, ok)
	assert.Equal(t, "WEB", s)
}

func TestSetting_Absent(t *testing.T) {
	store := newTestStore(t)

	_, ok, err := store.Setting(context.Background(), "never_set")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSetSetting_OverwriteChangesTypeTag(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetSetting(ctx, "limit", StringValue("10")))
	require.NoError(t, store.SetSetting(ctx, "limit", IntValue(10)))

	v, ok, err := store.Setting(ctx, "limit")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, SettingInt, v.Type)
	n, ok := v.AsInt()
	assert.True(t, ok)
	assert.Equal(t, int64(10), n)
}

func TestSettingValue_TagMismatch(t *testing.T) {
	v := IntValue(7)

	_, ok := v.AsBool()
	assert.False(t, ok)
	_, ok = v.AsString()
	assert.False(t, ok)
	_, ok = v.AsDouble()
	assert.False(t, ok)
}

func TestTypedAccessors_Defaults(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	b, err := store.BoolSetting(ctx, "missing", true)
	require.NoError(t, err)
	assert.True(t, b)

	n, err := store.IntSetting(ctx, "missing", 42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)

	f, err := store.DoubleSetting(ctx, "missing", 2.5)
	require.NoError(t, err)
	assert.Equal(t, 2.5, f)

	s, err := store.StringSetting(ctx, "missing", "fallback")
	require.NoError(t, err)
	assert.Equal(t, "fallback", s)
}

func TestTypedAccessors_WrongTagIsError(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// "true" would parse as a bool; the explicit string tag must win.
	require.NoError(t, store.SetSetting(ctx, "flag", StringValue("true")))

	_, err := store.BoolSetting(ctx, "flag", false)
	assert.Error(t, err)

	s, err := store.StringSetting(ctx, "flag", "")
	require.NoError(t, err)
	assert.Equal(t, "true", s)
}

func TestDoubleSetting_PreservesPrecision(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetSetting(ctx, "ratio", DoubleValue(0.1)))

	f, err := store.DoubleSetting(ctx, "ratio", 0)
	require.NoError(t, err)
	assert.Equal(t, 0.1, f)
}

func TestSetting_NotInitialized(t *testing.T) {
	var store *Store

	_, _, err := store.Setting(context.Background(), "any")
	assert.ErrorIs(t, err, ErrNotInitialized)

	err = store.SetSetting(context.Background(), "any", BoolValue(true))
	assert.ErrorIs(t, err, ErrNotInitialized)
}
