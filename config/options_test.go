package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyCommitDefaultsFillsUnsetAuthor(t *testing.T) {
	merged, err := ApplyCommitDefaults(CommitOptions{})
	require.NoError(t, err)
	assert.Equal(t, DefaultCommitOptions.AuthorName, merged.AuthorName)
}

func TestApplyCommitDefaultsKeepsExplicitAuthor(t *testing.T) {
	merged, err := ApplyCommitDefaults(CommitOptions{AuthorName: "tester"})
	require.NoError(t, err)
	assert.Equal(t, "tester", merged.AuthorName)
}

func TestApplyCloneDefaultsFillsRemoteName(t *testing.T) {
	merged, err := ApplyCloneDefaults(CloneOptions{})
	require.NoError(t, err)
	assert.Equal(t, "origin", merged.RemoteName)
}

func TestApplyCloneDefaultsKeepsIdentityFile(t *testing.T) {
	merged, err := ApplyCloneDefaults(CloneOptions{IdentityFile: "/home/tester/.ssh/id_ed25519"})
	require.NoError(t, err)
	assert.Equal(t, "origin", merged.RemoteName)
	assert.Equal(t, "/home/tester/.ssh/id_ed25519", merged.IdentityFile)
}
