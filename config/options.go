package config

import (
	"time"

	"dario.cat/mergo"
)

// CommitOptions controls Repository.Commit. Any zero-valued field is
// filled from DefaultCommitOptions by ApplyCommitDefaults.
type CommitOptions struct {
	AuthorName string
	When       time.Time
}

// DefaultCommitOptions mirrors what an unconfigured repository falls
// back to: an anonymous author, timestamped at call time.
var DefaultCommitOptions = CommitOptions{
	AuthorName: "unknown",
}

// ApplyCommitDefaults merges opts over DefaultCommitOptions, opts
// winning on every field it sets explicitly. Time.Time{} counts as
// unset, same as any other zero value, so an unspecified When is
// timestamped "now" only at the call site, not inside the merge.
func ApplyCommitDefaults(opts CommitOptions) (CommitOptions, error) {
	merged := DefaultCommitOptions
	if err := mergo.Merge(&merged, opts, mergo.WithOverride); err != nil {
		return CommitOptions{}, err
	}
	return merged, nil
}

// CheckoutOptions holds checkout settings. Repository.Checkout does not
// read it; it takes its force flag as a plain bool argument.
type CheckoutOptions struct {
	Force bool
}

// CloneOptions holds clone settings. repository.Clone and "vox clone"
// do not read it; they take the transport and identity file directly.
type CloneOptions struct {
	RemoteName   string
	IdentityFile string
}

// DefaultCloneOptions holds the values ApplyCloneDefaults fills in.
var DefaultCloneOptions = CloneOptions{
	RemoteName: "origin",
}

// ApplyCloneDefaults merges opts over DefaultCloneOptions.
func ApplyCloneDefaults(opts CloneOptions) (CloneOptions, error) {
	merged := DefaultCloneOptions
	if err := mergo.Merge(&merged, opts, mergo.WithOverride); err != nil {
		return CloneOptions{}, err
	}
	return merged, nil
}
