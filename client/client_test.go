package client

import (
	"net/http/httptest"
	"testing"
	"time"

	"ttfs/internal/api"
	"ttfs/internal/errors"
	"ttfs/internal/filestore"
	"ttfs/internal/logging"
	"ttfs/internal/testutil"
	"ttfs/internal/version"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T) (*Client, *testutil.StubClock) {
	clock := testutil.FixedClock()
	blobs := testutil.NewSafe(t)
	store := filestore.New(blobs, zap.NewNop(), filestore.WithClock(clock))

	r := chi.NewRouter()
	api.NewHandler(store, blobs, logging.NewNop()).Routes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return New(srv.URL), clock
}

func TestRoundTrip(t *testing.T) {
	c, clock := newTestClient(t)

	require.NoError(t, c.CreateFile("a"))
	err := c.CreateFile("a")
	assert.True(t, errors.Is(err, errors.ErrorTypeAlreadyExists))
	assert.Equal(t, "File 'a' already exists.", err.Error())

	clock.Advance(time.Second)
	require.NoError(t, c.Update("a", "x"))
	require.NoError(t, c.Snapshot("a", "v1"))
	require.NoError(t, c.Insert("a", "y"))

	content, err := c.ReadFile("a")
	require.NoError(t, err)
	assert.Equal(t, "xy", content)

	history, err := c.History("a")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "v1", history[1].Message)

	require.NoError(t, c.Rollback("a", version.At(0)))
	content, err = c.ReadFile("a")
	require.NoError(t, err)
	assert.Equal(t, "", content)

	err = c.Rollback("a", version.Parent())
	assert.True(t, errors.Is(err, errors.ErrorTypeNoParent))

	recent, err := c.TopRecent(5)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "a", recent[0].Name)

	biggest, err := c.TopBySize(5)
	require.NoError(t, err)
	assert.Equal(t, []filestore.SizedFile{{Name: "a", Revisions: 3}}, biggest)

	stats, err := c.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Files)
	assert.Equal(t, 3, stats.Revisions)
}

func TestUnknownFile(t *testing.T) {
	c, _ := newTestClient(t)

	_, err := c.ReadFile("ghost")
	assert.True(t, errors.Is(err, errors.ErrorTypeNotFound))
	assert.Equal(t, "File 'ghost' does not exist.", err.Error())

	_, err = c.History("ghost")
	assert.True(t, errors.Is(err, errors.ErrorTypeNotFound))
}

func TestNestedName(t *testing.T) {
	c, _ := newTestClient(t)

	require.NoError(t, c.CreateFile("docs/readme.md"))
	require.NoError(t, c.Insert("docs/readme.md", "hi"))

	content, err := c.ReadFile("docs/readme.md")
	require.NoError(t, err)
	assert.Equal(t, "hi", content)
}

func TestPercentInName(t *testing.T) {
	c, _ := newTestClient(t)

	require.NoError(t, c.CreateFile("a%41"))
	require.NoError(t, c.CreateFile("aA"))
	require.NoError(t, c.CreateFile("50%off"))

	require.NoError(t, c.Insert("a%41", "secret"))
	require.NoError(t, c.Insert("50%off", "sale"))
	require.NoError(t, c.Snapshot("50%off", "priced"))
	require.NoError(t, c.Rollback("50%off", version.Parent()))

	content, err := c.ReadFile("aA")
	require.NoError(t, err)
	assert.Equal(t, "", content)

	content, err = c.ReadFile("a%41")
	require.NoError(t, err)
	assert.Equal(t, "secret", content)

	content, err = c.ReadFile("50%off")
	require.NoError(t, err)
	assert.Equal(t, "", content)
}
