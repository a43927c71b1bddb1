package filestore

import (
	"testing"
	"time"

	"ttfs/internal/errors"
	"ttfs/internal/testutil"
	"ttfs/internal/version"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) (*Store, *testutil.StubClock) {
	clock := testutil.FixedClock()
	return New(testutil.NewSafe(t), zap.NewNop(), WithClock(clock)), clock
}

func read(t *testing.T, s *Store, name string) string {
	t.Helper()
	content, err := s.ReadFile(name)
	require.NoError(t, err)
	return content
}

func names(files []RecentFile) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Name
	}
	return out
}

func TestCreateFile(t *testing.T) {
	s, clock := newTestStore(t)

	require.NoError(t, s.CreateFile("a"))
	err := s.CreateFile("a")
	assert.True(t, errors.Is(err, errors.ErrorTypeAlreadyExists))

	history, err := s.History("a")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 0, history[0].ID)
	assert.Equal(t, version.RootMessage, history[0].Message)
	assert.True(t, clock.Now().Equal(history[0].SnapshotAt))

	assert.Equal(t, "", read(t, s, "a"))
	assert.Equal(t, []string{"a"}, s.Files())
}

func TestUnknownFile(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.ReadFile("ghost")
	assert.True(t, errors.Is(err, errors.ErrorTypeNotFound))
	assert.True(t, errors.Is(s.Insert("ghost", "x"), errors.ErrorTypeNotFound))
	assert.True(t, errors.Is(s.Update("ghost", "x"), errors.ErrorTypeNotFound))
	assert.True(t, errors.Is(s.Snapshot("ghost", "m"), errors.ErrorTypeNotFound))
	assert.True(t, errors.Is(s.Rollback("ghost", version.Parent()), errors.ErrorTypeNotFound))
	_, err = s.History("ghost")
	assert.True(t, errors.Is(err, errors.ErrorTypeNotFound))
	_, err = s.Active("ghost")
	assert.True(t, errors.Is(err, errors.ErrorTypeNotFound))

	assert.Empty(t, s.TopRecent(5))
	assert.Empty(t, s.TopBySize(5))
}

func TestInsertForksThenEditsInPlace(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.CreateFile("a"))

	require.NoError(t, s.Insert("a", "hello"))
	active, err := s.Active("a")
	require.NoError(t, err)
	assert.Equal(t, 1, active.ID)
	assert.Equal(t, "hello", read(t, s, "a"))

	require.NoError(t, s.Insert("a", " world"))
	active, err = s.Active("a")
	require.NoError(t, err)
	assert.Equal(t, 1, active.ID)
	assert.Equal(t, "hello world", read(t, s, "a"))
	assert.Equal(t, []SizedFile{{Name: "a", Revisions: 2}}, s.TopBySize(1))
}

func TestRollbackToRootScenario(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.CreateFile("a"))

	require.NoError(t, s.Update("a", "x"))
	require.NoError(t, s.Snapshot("a", "v1"))
	require.NoError(t, s.Update("a", "y"))
	require.NoError(t, s.Rollback("a", version.At(0)))

	assert.Equal(t, "", read(t, s, "a"))
}

func TestSnapshotTwiceFails(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.CreateFile("a"))
	require.NoError(t, s.Insert("a", "x"))

	require.NoError(t, s.Snapshot("a", "v1"))
	err := s.Snapshot("a", "v1 again")
	assert.True(t, errors.Is(err, errors.ErrorTypeAlreadyFrozen))

	history, err := s.History("a")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "v1", history[1].Message)
}

func TestRollbackFailures(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.CreateFile("a"))

	err := s.Rollback("a", version.Parent())
	assert.True(t, errors.Is(err, errors.ErrorTypeNoParent))

	err = s.Rollback("a", version.At(4))
	assert.True(t, errors.Is(err, errors.ErrorTypeVersionNotFound))

	require.NoError(t, s.Insert("a", "x"))
	require.NoError(t, s.Rollback("a", version.Parent()))
	active, err := s.Active("a")
	require.NoError(t, err)
	assert.Equal(t, 0, active.ID)
}

func TestFailedOperationsDoNotReport(t *testing.T) {
	s, clock := newTestStore(t)
	require.NoError(t, s.CreateFile("a"))
	before := s.Stats().Observations

	clock.Advance(time.Minute)
	assert.Error(t, s.Snapshot("a", "root is frozen"))
	assert.Error(t, s.Rollback("a", version.Parent()))

	assert.Equal(t, before, s.Stats().Observations)
	recent := s.TopRecent(1)
	require.Len(t, recent, 1)
	assert.True(t, recent[0].ModifiedAt.Equal(testutil.FixedClock().Now()))
}

func TestTopRecent(t *testing.T) {
	s, clock := newTestStore(t)

	require.NoError(t, s.CreateFile("a"))
	clock.Advance(time.Second)
	require.NoError(t, s.CreateFile("b"))
	clock.Advance(time.Second)
	require.NoError(t, s.Insert("b", "x"))

	assert.Equal(t, []string{"b"}, names(s.TopRecent(1)))

	clock.Advance(time.Second)
	require.NoError(t, s.Insert("a", "y"))
	recent := s.TopRecent(10)
	assert.Equal(t, []string{"a", "b"}, names(recent))
	assert.True(t, recent[0].ModifiedAt.Equal(clock.Now()))

	// reads do not count as modifications
	clock.Advance(time.Second)
	read(t, s, "b")
	_, err := s.History("b")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names(s.TopRecent(10)))
}

func TestTopRecentTieBreaksByName(t *testing.T) {
	s, _ := newTestStore(t)

	for _, name := range []string{"c", "a", "b"} {
		require.NoError(t, s.CreateFile(name))
	}
	assert.Equal(t, []string{"a", "b", "c"}, names(s.TopRecent(3)))
}

func TestTopBySize(t *testing.T) {
	s, clock := newTestStore(t)
	require.NoError(t, s.CreateFile("small"))
	require.NoError(t, s.CreateFile("large"))

	for i := 0; i < 3; i++ {
		clock.Advance(time.Second)
		require.NoError(t, s.Insert("large", "x"))
		require.NoError(t, s.Snapshot("large", "v"))
	}

	assert.Equal(t, []SizedFile{
		{Name: "large", Revisions: 4},
		{Name: "small", Revisions: 1},
	}, s.TopBySize(5))
	assert.Equal(t, []SizedFile{{Name: "large", Revisions: 4}}, s.TopBySize(1))
	assert.Empty(t, s.TopBySize(0))

	// rolling back never shrinks the tree
	require.NoError(t, s.Rollback("large", version.At(0)))
	assert.Equal(t, 4, s.TopBySize(1)[0].Revisions)
}

func TestStats(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.CreateFile("a"))
	require.NoError(t, s.CreateFile("b"))
	require.NoError(t, s.Insert("a", "x"))

	assert.Equal(t, Stats{Files: 2, Revisions: 3, Observations: 6}, s.Stats())
}
