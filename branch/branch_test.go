package branch

import (
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Niko256/vox/plumbing/hash"
	"github.com/Niko256/vox/refs"
)

var s1 = hash.MustFromHex("ce013625030ba8dba906f756967f9e9ca394464a")
var s2 = hash.MustFromHex("4b825dc642cb6eb9a060e54bf8d69288fbee4904")

func newTestStore(t *testing.T) (*Store, *refs.Store) {
	t.Helper()
	fs := memfs.New()
	refStore := refs.New(fs, nil)
	require.NoError(t, refStore.SetHeadToBranch("master"))
	require.NoError(t, refStore.WriteRef(refs.HeadsDir+"/master", s1))
	return New(fs, refStore), refStore
}

func TestCreateAndList(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.Create("feature", s1))

	names, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"feature", "master"}, names)
}

func TestCreateDuplicateRejected(t *testing.T) {
	s, _ := newTestStore(t)
	err := s.Create("master", s2)
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestDeleteRemovesBranch(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.Create("feature", s1))
	require.NoError(t, s.Delete("feature"))

	names, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"master"}, names)
}

func TestDeleteCurrentBranchRejected(t *testing.T) {
	s, _ := newTestStore(t)
	err := s.Delete("master")
	assert.ErrorIs(t, err, ErrIsCurrent)
}

func TestDeleteMissingBranchRejected(t *testing.T) {
	s, _ := newTestStore(t)
	err := s.Delete("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}
