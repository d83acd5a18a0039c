package repository

import (
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Niko256/vox/index"
	"github.com/Niko256/vox/plumbing/hash"
	"github.com/Niko256/vox/plumbing/object"
)

func writeWork(t *testing.T, r *Repository, path, content string) {
	t.Helper()
	f, err := r.Paths.Work.Create(path)
	require.NoError(t, err)
	_, err = f.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

func readWork(t *testing.T, r *Repository, path string) []byte {
	t.Helper()
	f, err := r.Paths.Work.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var out []byte
	buf := make([]byte, 256)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			out = append(out, buf[:n]...)
		}
		if err != nil {
			break
		}
	}
	return out
}

// addPath stages path: hashes its current working-tree content as a
// blob, writes it to the object store, and inserts a matching index
// entry, mirroring what a real `vox add` command would do.
func addPath(t *testing.T, r *Repository, path string) {
	t.Helper()
	content := readWork(t, r, path)

	h, err := object.Save(r.Objects, object.NewBlob(content))
	require.NoError(t, err)

	fi, err := r.Paths.Work.Stat(path)
	require.NoError(t, err)
	fullPath := r.Paths.Work.Join(r.Paths.Work.Root(), path)
	r.Index.Insert(index.FromFileInfo(path, fullPath, fi, h))
}

func headHash(t *testing.T, r *Repository) hash.Hash {
	t.Helper()
	h, err := r.Refs.Resolve("HEAD")
	require.NoError(t, err)
	return h
}

// TestInitThenCommitThenLog covers scenario S3: two-file commit + log.
func TestInitThenCommitThenLog(t *testing.T) {
	work := memfs.New()
	r, err := Init(work, nil)
	require.NoError(t, err)

	writeWork(t, r, "a.txt", "hello\n")
	writeWork(t, r, "b.txt", "world\n")
	addPath(t, r, "a.txt")
	addPath(t, r, "b.txt")
	require.NoError(t, r.SaveIndex())

	commitHash, err := r.Commit("first commit", "tester")
	require.NoError(t, err)
	assert.False(t, commitHash.IsZero())

	log, err := r.Log(0)
	require.NoError(t, err)
	require.Len(t, log, 1)
	assert.Equal(t, "first commit", log[0].Message)
	assert.Nil(t, log[0].ParentHash)
}

func TestCommitChainsParents(t *testing.T) {
	work := memfs.New()
	r, err := Init(work, nil)
	require.NoError(t, err)

	writeWork(t, r, "a.txt", "v1\n")
	addPath(t, r, "a.txt")
	require.NoError(t, r.SaveIndex())
	first, err := r.Commit("v1", "tester")
	require.NoError(t, err)

	writeWork(t, r, "a.txt", "v2\n")
	addPath(t, r, "a.txt")
	require.NoError(t, r.SaveIndex())
	second, err := r.Commit("v2", "tester")
	require.NoError(t, err)

	log, err := r.Log(0)
	require.NoError(t, err)
	require.Len(t, log, 2)

	secondHash, err := log[0].Hash()
	require.NoError(t, err)
	assert.Equal(t, second, secondHash)
	require.NotNil(t, log[0].ParentHash)
	assert.Equal(t, first, *log[0].ParentHash)
}

// TestCommitRefusesWithNothingStaged covers 4.G commit step 1: calling
// Commit twice with no intervening add must error the second time
// rather than silently create a duplicate commit with an identical
// tree.
func TestCommitRefusesWithNothingStaged(t *testing.T) {
	work := memfs.New()
	r, err := Init(work, nil)
	require.NoError(t, err)

	writeWork(t, r, "a.txt", "v1\n")
	addPath(t, r, "a.txt")
	require.NoError(t, r.SaveIndex())

	first, err := r.Commit("first", "tester")
	require.NoError(t, err)
	assert.False(t, first.IsZero())

	_, err = r.Commit("second", "tester")
	assert.ErrorIs(t, err, ErrNothingStaged)

	log, err := r.Log(0)
	require.NoError(t, err)
	assert.Len(t, log, 1)
}

// TestCommitRefusesOnEmptyRepo covers the same refusal for a
// freshly-initialized repository with nothing ever added.
func TestCommitRefusesOnEmptyRepo(t *testing.T) {
	work := memfs.New()
	r, err := Init(work, nil)
	require.NoError(t, err)

	_, err = r.Commit("nothing", "tester")
	assert.ErrorIs(t, err, ErrNothingStaged)
}

func TestCheckoutRefusesWhenDirty(t *testing.T) {
	work := memfs.New()
	r, err := Init(work, nil)
	require.NoError(t, err)

	writeWork(t, r, "a.txt", "v1\n")
	addPath(t, r, "a.txt")
	require.NoError(t, r.SaveIndex())
	_, err = r.Commit("v1", "tester")
	require.NoError(t, err)

	require.NoError(t, r.Refs.WriteRef("refs/heads/feature", headHash(t, r)))

	// Edit the workdir file without staging it: the index still points
	// at the committed content, so this lands in Modified (checkout's
	// actual refusal gate), not Staged.
	writeWork(t, r, "a.txt", "dirty\n")

	err = r.Checkout("feature", false)
	assert.ErrorIs(t, err, ErrWorkdirDirty)
}

func TestCheckoutSwitchesBranchAndRewritesWorktree(t *testing.T) {
	work := memfs.New()
	r, err := Init(work, nil)
	require.NoError(t, err)

	writeWork(t, r, "a.txt", "v1\n")
	addPath(t, r, "a.txt")
	require.NoError(t, r.SaveIndex())
	base, err := r.Commit("base", "tester")
	require.NoError(t, err)

	require.NoError(t, r.Refs.WriteRef("refs/heads/feature", base))
	require.NoError(t, r.Refs.SetHeadToBranch("feature"))

	writeWork(t, r, "b.txt", "new on feature\n")
	addPath(t, r, "b.txt")
	require.NoError(t, r.SaveIndex())
	_, err = r.Commit("add b", "tester")
	require.NoError(t, err)

	require.NoError(t, r.Checkout("master", true))

	_, err = r.Paths.Work.Stat("b.txt")
	assert.Error(t, err)

	name, _, ok, err := r.Refs.CurrentBranch()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "master", name)
}
