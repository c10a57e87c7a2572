package config_test

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cycleranking/config"
)

const settingsPath = "/etc/ranking/settings.json"

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	m := config.NewManagerWithFs(afero.NewMemMapFs(), settingsPath)

	got, err := m.Load()
	require.NoError(t, err)
	assert.Equal(t, config.DefaultSettings(), got)
}

func TestLoadMergesPartialFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, settingsPath, []byte(`{
		"server": {"port": 9000},
		"ranking": {"strictSettings": true, "scheduleIntervalMinutes": 60}
	}`), 0644))

	got, err := config.NewManagerWithFs(fs, settingsPath).Load()
	require.NoError(t, err)

	defaults := config.DefaultSettings()
	assert.Equal(t, 9000, got.Server.Port)
	assert.Equal(t, defaults.Server.Host, got.Server.Host)
	assert.Equal(t, defaults.Database.Path, got.Database.Path)
	assert.True(t, got.Ranking.StrictSettings)
	assert.Equal(t, defaults.Ranking.RunTimeoutSeconds, got.Ranking.RunTimeoutSeconds)
	assert.Equal(t, time.Hour, got.Ranking.ScheduleInterval())
}

func TestLoadRejectsInvalidFiles(t *testing.T) {
	cases := map[string]string{
		"malformed":            `{"server":`,
		"port out of range":    `{"server":{"port":70000}}`,
		"empty database":       `{"database":{"path":"  "}}`,
		"zero timeout":         `{"ranking":{"runTimeoutSeconds":0}}`,
		"negative schedule":    `{"ranking":{"scheduleIntervalMinutes":-5}}`,
		"stale before timeout": `{"ranking":{"runTimeoutSeconds":7200,"staleRunMinutes":1}}`,
		"stale equals timeout": `{"ranking":{"runTimeoutSeconds":600,"staleRunMinutes":10}}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			require.NoError(t, afero.WriteFile(fs, settingsPath, []byte(body), 0644))
			_, err := config.NewManagerWithFs(fs, settingsPath).Load()
			assert.Error(t, err)
		})
	}
}

func TestSaveThenLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	m := config.NewManagerWithFs(fs, settingsPath)

	s := config.DefaultSettings()
	s.Ranking.MaxParallelDisciplines = 2
	s.Log.Path = ""
	require.NoError(t, m.Save(s))

	exists, err := afero.Exists(fs, settingsPath+".tmp")
	require.NoError(t, err)
	assert.False(t, exists, "temporary file is renamed into place")

	got, err := m.Load()
	require.NoError(t, err)
	assert.Equal(t, s, got)

	s.Server.Port = 0
	require.Error(t, m.Save(s))
	got, err = m.Load()
	require.NoError(t, err)
	assert.Equal(t, 7788, got.Server.Port, "an invalid save leaves the file untouched")
}

func TestLoadOrCreateWritesDefaults(t *testing.T) {
	fs := afero.NewMemMapFs()
	m := config.NewManagerWithFs(fs, settingsPath)

	got, err := m.LoadOrCreate()
	require.NoError(t, err)
	assert.Equal(t, config.DefaultSettings(), got)

	exists, err := afero.Exists(fs, settingsPath)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestToRankingOptions(t *testing.T) {
	opts := config.ToRankingOptions(config.RankingSettings{
		RunTimeoutSeconds:      90,
		StaleRunMinutes:        15,
		MaxParallelDisciplines: 2,
		WriteRetryAttempts:     -1,
		StrictSettings:         true,
	})

	assert.Equal(t, 90*time.Second, opts.RunTimeout)
	assert.Equal(t, 15*time.Minute, opts.StaleRunAfter)
	assert.Equal(t, 2, opts.MaxParallelDisciplines)
	assert.Zero(t, opts.WriteRetryAttempts, "negative attempts fall back to the engine default")
	assert.True(t, opts.StrictSettings)
}

func TestRankingAdapterFallsBackToDefaults(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, settingsPath, []byte(`not json`), 0644))

	adapter := config.NewRankingAdapter(config.NewManagerWithFs(fs, settingsPath))
	got := adapter.GetOptionsGetter()()

	assert.Equal(t, config.ToRankingOptions(config.DefaultSettings().Ranking), got)
}
