package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannels_Lookup(t *testing.T) {
	ch := DefaultChannels()

	assert.Equal(t, "PCR 1", ch.LogicalName("9C64992CFF3A4A3FA3C635BB7D9B6071"))
	assert.Equal(t, UnknownIngest, ch.LogicalName("nope"))

	id, ok := ch.SourceID("PCR 4")
	require.True(t, ok)
	assert.Equal(t, 3, id)

	_, ok = ch.SourceID(UnknownIngest)
	assert.False(t, ok)
}

func TestChannels_Validate(t *testing.T) {
	require.NoError(t, DefaultChannels().Validate())

	bad := Channels{
		Ingests: map[string]string{"X": "PCR 9"},
		Sources: map[string]int{"PCR 1": 0},
	}
	err := bad.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PCR 9")

	require.Error(t, Channels{}.Validate())
	require.Error(t, Channels{Sources: map[string]int{"PCR 1": -1}}.Validate())
}

func TestLoadChannelsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "channels.yaml")
	content := `ingests:
  X: PCR 1
  Y: Studio B
sources:
  PCR 1: 0
  Studio B: 7
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	ch, err := LoadChannelsFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Studio B", ch.LogicalName("Y"))
	id, ok := ch.SourceID("Studio B")
	require.True(t, ok)
	assert.Equal(t, 7, id)
}

func TestNewFromEnv_ChannelMapFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "channels.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sources:\n  Studio A: 4\n"), 0o600))
	t.Setenv("CHANNEL_MAP_FILE", path)

	cfg, err := NewFromEnv()
	require.NoError(t, err)
	id, ok := cfg.Channels.SourceID("Studio A")
	require.True(t, ok)
	assert.Equal(t, 4, id)
	assert.Empty(t, cfg.Channels.Ingests)
}

func TestLoadChannelsFile_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "channels.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sources: [1, 2"), 0o600))

	_, err := LoadChannelsFile(path)
	require.Error(t, err)
}
