package fallback

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gamestock/internal/weekly"
)

func writeSnapshot(t *testing.T, lines string) string {
	path := filepath.Join(t.TempDir(), "snapshot.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(lines), 0644))
	return path
}

func TestReaderAvailable(t *testing.T) {
	assert.False(t, NewReader("", zerolog.Nop()).Available())
	assert.False(t, NewReader("/nonexistent/snapshot.jsonl", zerolog.Nop()).Available())

	path := writeSnapshot(t, `{"symbol":"036570"}`)
	assert.True(t, NewReader(path, zerolog.Nop()).Available())
}

func TestReaderAll(t *testing.T) {
	path := writeSnapshot(t, `{"symbol":"036570","marketCap":45000,"currentPrice":1500,"changeRate":7.14}

{"symbol":"7974","marketCap":120000}
not json at all
{"marketCap":999}
`)
	reader := NewReader(path, zerolog.Nop())

	snapshots, err := reader.All()
	require.NoError(t, err)

	// Blank, malformed and symbol-less lines are all skipped.
	require.Len(t, snapshots, 2)
	assert.Equal(t, "036570", snapshots[0].Symbol)
	require.NotNil(t, snapshots[0].ChangeRate)
	assert.Equal(t, 7.14, *snapshots[0].ChangeRate)
	assert.Equal(t, "7974", snapshots[1].Symbol)
	assert.Nil(t, snapshots[1].ChangeRate)
}

func TestReaderBySymbol(t *testing.T) {
	path := writeSnapshot(t, `{"symbol":"036570","currentPrice":1500}`)
	reader := NewReader(path, zerolog.Nop())

	snapshot, err := reader.BySymbol("036570")
	require.NoError(t, err)
	require.NotNil(t, snapshot.CurrentPrice)
	assert.Equal(t, int64(1500), *snapshot.CurrentPrice)

	_, err = reader.BySymbol("0700")
	assert.ErrorIs(t, err, weekly.ErrNotFound)
}

func TestReaderUnconfigured(t *testing.T) {
	reader := NewReader("", zerolog.Nop())
	_, err := reader.All()
	assert.Error(t, err)
}
