package settings

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/quantafolio/internal/store"
	"github.com/wonny/quantafolio/pkg/logger"
)

func TestProvider_Defaults(t *testing.T) {
	p := NewProvider(context.Background(), store.NewMemorySlot(), logger.Nop())

	assert.Equal(t, Defaults(), p.Get())
	assert.Equal(t, "ko", p.Get().Language)
	assert.True(t, p.Get().Notifications)
	assert.False(t, p.Get().AutoSave)
}

func TestProvider_LoadsStoredScalars(t *testing.T) {
	ctx := context.Background()
	slot := store.NewMemorySlot()
	require.NoError(t, slot.Set(ctx, KeyLanguage, []byte("en")))
	require.NoError(t, slot.Set(ctx, KeyTheme, []byte("dark")))
	require.NoError(t, slot.Set(ctx, KeyAutoSave, []byte("true")))
	require.NoError(t, slot.Set(ctx, KeyNotifications, []byte("garbage")))

	prefs := NewProvider(ctx, slot, logger.Nop()).Get()

	assert.Equal(t, "en", prefs.Language)
	assert.Equal(t, "dark", prefs.Theme)
	assert.True(t, prefs.AutoSave)
	assert.True(t, prefs.Notifications)
}

func TestProvider_InvalidStoredValuesFallBack(t *testing.T) {
	ctx := context.Background()
	slot := store.NewMemorySlot()
	require.NoError(t, slot.Set(ctx, KeyLanguage, []byte("fr")))

	assert.Equal(t, Defaults(), NewProvider(ctx, slot, logger.Nop()).Get())
}

func TestProvider_UpdatePersistsAndNotifies(t *testing.T) {
	ctx := context.Background()
	slot := store.NewMemorySlot()
	p := NewProvider(ctx, slot, logger.Nop())

	var notified []Preferences
	cancel := p.Subscribe(func(prefs Preferences) { notified = append(notified, prefs) })

	updated, err := p.Update(ctx, func(prefs *Preferences) {
		prefs.AutoSave = true
		prefs.Theme = "dark"
	})
	require.NoError(t, err)
	assert.True(t, updated.AutoSave)

	value, found, err := slot.Get(ctx, KeyAutoSave)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "true", string(value))

	_, found, _ = slot.Get(ctx, KeyLanguage)
	assert.False(t, found, "unchanged keys are not written")

	require.Len(t, notified, 1)
	assert.Equal(t, "dark", notified[0].Theme)

	// a new provider over the same slot sees the change
	assert.Equal(t, updated, NewProvider(ctx, slot, logger.Nop()).Get())

	cancel()
	_, err = p.Update(ctx, func(prefs *Preferences) { prefs.Language = "en" })
	require.NoError(t, err)
	assert.Len(t, notified, 1)
}

func TestProvider_UpdateNoChange(t *testing.T) {
	p := NewProvider(context.Background(), store.NewMemorySlot(), logger.Nop())

	called := false
	p.Subscribe(func(Preferences) { called = true })

	_, err := p.Update(context.Background(), func(*Preferences) {})
	require.NoError(t, err)
	assert.False(t, called)
}

func TestProvider_UpdateInvalid(t *testing.T) {
	p := NewProvider(context.Background(), store.NewMemorySlot(), logger.Nop())

	prefs, err := p.Update(context.Background(), func(prefs *Preferences) { prefs.Theme = "neon" })
	assert.Error(t, err)
	assert.Equal(t, "light", prefs.Theme)
	assert.Equal(t, "light", p.Get().Theme)
}

// themeFailSlot rejects writes to the theme key
type themeFailSlot struct {
	*store.MemorySlot
}

func (s themeFailSlot) Set(ctx context.Context, key string, value []byte) error {
	if key == KeyTheme {
		return errors.New("disk full")
	}
	return s.MemorySlot.Set(ctx, key, value)
}

func TestProvider_UpdatePartialFailureRestoresSlot(t *testing.T) {
	ctx := context.Background()
	slot := themeFailSlot{store.NewMemorySlot()}
	require.NoError(t, slot.MemorySlot.Set(ctx, KeyLanguage, []byte("ko")))

	p := NewProvider(ctx, slot, logger.Nop())

	prefs, err := p.Update(ctx, func(prefs *Preferences) {
		prefs.Language = "en"
		prefs.Theme = "dark"
	})
	require.Error(t, err)
	assert.Equal(t, "ko", prefs.Language)
	assert.Equal(t, "ko", p.Get().Language)

	v, found, err := slot.Get(ctx, KeyLanguage)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "ko", string(v))

	// a fresh provider reads the same state back
	assert.Equal(t, Defaults(), NewProvider(ctx, slot, logger.Nop()).Get())
}
