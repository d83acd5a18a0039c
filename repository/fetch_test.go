package repository

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/Niko256/vox/packfile"
	"github.com/Niko256/vox/plumbing/filemode"
	"github.com/Niko256/vox/plumbing/hash"
	"github.com/Niko256/vox/plumbing/object"
	"github.com/Niko256/vox/storage"
	"github.com/Niko256/vox/transport"
)

// fakeFetcher is an in-memory transport.Fetcher standing in for a real
// network remote: ListRefs returns a fixed advertisement, FetchPack
// serves a pre-built VOXPACK byte stream.
type fakeFetcher struct {
	ads  []transport.RefAdvertisement
	head string
	pack []byte
}

func (f *fakeFetcher) ListRefs(ctx context.Context) ([]transport.RefAdvertisement, string, error) {
	return f.ads, f.head, nil
}

func (f *fakeFetcher) FetchPack(ctx context.Context, wants []hash.Hash) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.pack)), nil
}

func (f *fakeFetcher) Close() error { return nil }

// buildRemote creates a one-commit history (single file "hello.txt") in
// its own object store and returns the fetcher a Clone would talk to.
func buildRemote(t *testing.T) *fakeFetcher {
	t.Helper()

	remoteFS := memfs.New()
	store, err := storage.NewObjectStore(remoteFS, logrus.New())
	require.NoError(t, err)

	blobHash, err := object.Save(store, object.NewBlob([]byte("hello from origin\n")))
	require.NoError(t, err)

	tree := object.NewTree([]object.TreeEntry{
		{Name: "hello.txt", Mode: filemode.Regular, Hash: blobHash},
	})
	treeHash, err := object.Save(store, tree)
	require.NoError(t, err)

	commit := &object.Commit{TreeHash: treeHash, Author: object.Signature{Name: "origin"}, Message: "initial"}
	commitHash, err := object.Save(store, commit)
	require.NoError(t, err)

	builder := packfile.NewBuilder(store)
	require.NoError(t, builder.AddObject(blobHash))
	require.NoError(t, builder.AddObject(treeHash))
	require.NoError(t, builder.AddObject(commitHash))

	var buf bytes.Buffer
	require.NoError(t, builder.Serialize(&buf))

	return &fakeFetcher{
		ads:  []transport.RefAdvertisement{{Name: "refs/heads/master", Hash: commitHash}},
		pack: buf.Bytes(),
	}
}

func TestFetchStoresObjectsAndRemoteRefs(t *testing.T) {
	remote := buildRemote(t)

	r, err := Init(memfs.New(), logrus.New())
	require.NoError(t, err)

	result, err := r.Fetch(context.Background(), remote)
	require.NoError(t, err)
	require.Len(t, result.Updated, 1)
	require.Equal(t, "refs/remotes/origin/master", result.Updated[0])

	h, err := r.Refs.Resolve("refs/remotes/origin/master")
	require.NoError(t, err)
	require.Equal(t, remote.ads[0].Hash, h)

	_, _, err = r.Objects.ReadObject(remote.ads[0].Hash)
	require.NoError(t, err)
}

func TestCloneChecksOutRemoteDefaultBranch(t *testing.T) {
	remote := buildRemote(t)

	work := memfs.New()
	r, err := Clone(context.Background(), work, remote, logrus.New())
	require.NoError(t, err)

	name, h, ok, err := r.Refs.CurrentBranch()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "master", name)
	require.Equal(t, remote.ads[0].Hash, h)

	content := readWork(t, r, "hello.txt")
	require.Equal(t, "hello from origin\n", string(content))
}
