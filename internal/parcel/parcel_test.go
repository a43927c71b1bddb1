package parcel

import (
	"strings"
	"testing"

	"ttfs/internal/config"
	"ttfs/internal/filestore"
	"ttfs/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Compression.MinSize = 16

	p, err := New(cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })

	require.NoError(t, p.Store.CreateFile("big.txt"))
	text := strings.Repeat("time travel ", 64)
	require.NoError(t, p.Store.Insert("big.txt", text))

	content, err := p.Store.ReadFile("big.txt")
	require.NoError(t, err)
	assert.Equal(t, text, content)

	stats, err := p.Safe.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Blobs)
	assert.Less(t, stats.StoredBytes, stats.Bytes)
}

func TestNewWithClock(t *testing.T) {
	clock := testutil.FixedClock()

	p, err := New(config.Default(), zap.NewNop(), filestore.WithClock(clock))
	require.NoError(t, err)
	defer p.Close()

	require.NoError(t, p.Store.CreateFile("a"))
	recent := p.Store.TopRecent(1)
	require.Len(t, recent, 1)
	assert.True(t, clock.Now().Equal(recent[0].ModifiedAt))
}

func TestCloseTwice(t *testing.T) {
	p, err := New(config.Default(), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, p.Close())

	p.DB = nil
	assert.NoError(t, p.Close())
}
