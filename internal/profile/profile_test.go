package profile

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/rere/internal/config"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(t.TempDir(), zaptest.NewLogger(t))
}

func TestStore_SaveGetListDelete(t *testing.T) {
	// 1. Setup
	s := newTestStore(t)
	cfg := config.NewDefaultConfig()
	cfg.SetHumanizationIntensity(3)
	snap := Snapshot(cfg)

	// 2. Execution
	require.NoError(t, s.Save("work", snap))
	require.NoError(t, s.Save("Alpha", Snapshot(config.NewDefaultConfig())))
	require.NoError(t, s.Save("beta", snap))

	// 3. Assertions
	assert.Equal(t, []string{"Alpha", "beta", "work"}, s.List())

	got, err := s.Get("work")
	require.NoError(t, err)
	assert.Equal(t, snap, got)
	assert.Equal(t, 3, got.Humanization.Intensity)

	require.NoError(t, s.Delete("beta"))
	assert.Equal(t, []string{"Alpha", "work"}, s.List())
	assert.ErrorIs(t, s.Delete("beta"), ErrNotFound)
	_, err = s.Get("beta")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_EmptyName(t *testing.T) {
	s := newTestStore(t)
	assert.Error(t, s.Save("  ", Profile{}))
}

func TestStore_MissingOrCorruptFileReadsEmpty(t *testing.T) {
	s := newTestStore(t)
	assert.Empty(t, s.List())

	require.NoError(t, os.WriteFile(s.Path(), []byte("::: not yaml :::\n\t- ["), 0o644))
	assert.Empty(t, s.List())

	// Saving over a corrupt file starts fresh.
	require.NoError(t, s.Save("fresh", Profile{Preset: Safe}))
	assert.Equal(t, []string{"fresh"}, s.List())
}

func TestStore_WireFormat(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Save("p", Snapshot(config.NewDefaultConfig())))

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "randomize_time_ms_min: 5")
	assert.Contains(t, text, "key_interval_ms: 200")
	assert.Contains(t, text, "preset: safe")
}

func TestProfile_Apply(t *testing.T) {
	src := config.NewDefaultConfig()
	src.SetHumanizationIntensity(2)
	src.SetHumanizationVariableKeyHold(true)
	src.SetPlaybackSpeed(2.5)
	src.SetProfile(Aggressive)
	p := Snapshot(src)

	dst := config.NewDefaultConfig()
	require.NoError(t, p.Apply(dst))
	assert.Equal(t, 2, dst.Humanization().Intensity)
	assert.True(t, dst.Humanization().VariableKeyHold)
	assert.Equal(t, 2.5, dst.Playback().Speed)
	assert.Equal(t, Aggressive, dst.Profile())

	bad := p
	bad.Humanization.Intensity = 7
	before := dst.Humanization()
	assert.Error(t, bad.Apply(dst))
	assert.Equal(t, before, dst.Humanization(), "an invalid profile changes nothing")
}

func TestApplyPreset(t *testing.T) {
	tests := []struct {
		name      string
		intensity int
	}{
		{Safe, 0},
		{Aggressive, 2},
		{Stealth, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.NewDefaultConfig()
			cfg.SetHumanizationAdvancedEnabled(false)
			require.NoError(t, ApplyPreset(cfg, tt.name))
			assert.True(t, cfg.Humanization().AdvancedEnabled)
			assert.Equal(t, tt.intensity, cfg.Humanization().Intensity)
			assert.Equal(t, tt.name, cfg.Profile())
		})
	}

	t.Run("custom leaves settings alone", func(t *testing.T) {
		cfg := config.NewDefaultConfig()
		cfg.SetHumanizationIntensity(3)
		require.NoError(t, ApplyPreset(cfg, " Custom "))
		assert.Equal(t, 3, cfg.Humanization().Intensity)
		assert.Equal(t, Custom, cfg.Profile())
	})

	t.Run("unknown preset", func(t *testing.T) {
		cfg := config.NewDefaultConfig()
		err := ApplyPreset(cfg, "turbo")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "aggressive, custom, safe, stealth")
		assert.Equal(t, Safe, cfg.Profile())
	})
}
