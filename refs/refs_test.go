package refs

import (
	"testing"

	"github.com/Niko256/vox/plumbing/hash"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var s1 = hash.MustFromHex("ce013625030ba8dba906f756967f9e9ca394464a")
var s2 = hash.MustFromHex("4b825dc642cb6eb9a060e54bf8d69288fbee4904")

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(memfs.New(), nil)
}

func TestWriteRefAndResolve(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.WriteRef(HeadsDir+"/master", s1))

	got, err := s.Resolve(HeadsDir + "/master")
	require.NoError(t, err)
	assert.Equal(t, s1, got)
}

func TestAttachedHeadResolvesThroughIndirection(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.WriteRef(HeadsDir+"/master", s1))
	require.NoError(t, s.SetHeadToBranch("master"))

	got, err := s.Resolve(HeadPath)
	require.NoError(t, err)
	assert.Equal(t, s1, got)

	name, h, ok, err := s.CurrentBranch()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "master", name)
	assert.Equal(t, s1, h)

	detached, err := s.IsDetached()
	require.NoError(t, err)
	assert.False(t, detached)
}

func TestDetachedHead(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.SetHeadDetached(s1))

	got, err := s.Resolve(HeadPath)
	require.NoError(t, err)
	assert.Equal(t, s1, got)

	_, _, ok, err := s.CurrentBranch()
	require.NoError(t, err)
	assert.False(t, ok)

	detached, err := s.IsDetached()
	require.NoError(t, err)
	assert.True(t, detached)
}

func TestUpdateCurrentAdvancesAttachedBranch(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.WriteRef(HeadsDir+"/master", s1))
	require.NoError(t, s.SetHeadToBranch("master"))

	require.NoError(t, s.UpdateCurrent(s2))

	got, err := s.Resolve(HeadsDir + "/master")
	require.NoError(t, err)
	assert.Equal(t, s2, got)

	// HEAD itself must remain an indirection, not be rewritten to a hash.
	detached, err := s.IsDetached()
	require.NoError(t, err)
	assert.False(t, detached)
}

func TestUpdateCurrentAdvancesDetachedHead(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.SetHeadDetached(s1))
	require.NoError(t, s.UpdateCurrent(s2))

	got, err := s.Resolve(HeadPath)
	require.NoError(t, err)
	assert.Equal(t, s2, got)
}

func TestResolveMissingRefReturnsNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Resolve(HeadsDir + "/nope")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCurrentBranchRejectsHeadOutsideHeadsDir(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.WriteRef(RemotesDir+"/origin/master", s1))
	require.NoError(t, s.writeAtomic(HeadPath, headPrefix+RemotesDir+"/origin/master\n"))

	_, _, _, err := s.CurrentBranch()
	require.ErrorIs(t, err, ErrMalformed)
}
