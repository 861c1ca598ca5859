package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/quantafolio/internal/settings"
)

func TestParsePositions(t *testing.T) {
	got, err := parsePositions([]string{"aapl:10", "005930:2.5", " MSFT : 0 "})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "AAPL", got[0].Ticker)
	assert.Equal(t, 10.0, got[0].Shares)
	assert.Equal(t, "005930.KS", got[1].Ticker)
	assert.Equal(t, 2.5, got[1].Shares)
	assert.Equal(t, "MSFT", got[2].Ticker)

	_, err = parsePositions([]string{"AAPL"})
	assert.Error(t, err)
	_, err = parsePositions([]string{"AAPL:ten"})
	assert.Error(t, err)
	_, err = parsePositions([]string{":5"})
	assert.Error(t, err)
}

func TestPreferenceSetter(t *testing.T) {
	p := settings.Defaults()

	set, err := preferenceSetter(settings.KeyLanguage, "EN")
	require.NoError(t, err)
	set(&p)
	assert.Equal(t, "en", p.Language)

	set, err = preferenceSetter(settings.KeyAutoSave, "true")
	require.NoError(t, err)
	set(&p)
	assert.True(t, p.AutoSave)

	set, err = preferenceSetter(settings.KeyNotifications, "false")
	require.NoError(t, err)
	set(&p)
	assert.False(t, p.Notifications)

	_, err = preferenceSetter(settings.KeyAutoSave, "maybe")
	assert.Error(t, err)
	_, err = preferenceSetter("fontSize", "12")
	assert.Error(t, err)
}

func TestCommandsRegistered(t *testing.T) {
	want := []string{"optimize", "probe", "result", "rate", "search", "settings", "portfolio", "serve", "scheduler"}
	for _, name := range want {
		cmd, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
}
