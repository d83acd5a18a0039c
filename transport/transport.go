// Package transport defines the capability repository.Fetch/Clone need
// from a remote: listing its refs and streaming a packfile of the
// objects reachable from a set of wanted commits. Concrete transports
// (transport/ssh) implement Fetcher.
package transport

import (
	"context"
	"io"

	"github.com/Niko256/vox/plumbing/hash"
)

// RefAdvertisement is what a remote reports for one ref during the
// list-refs handshake.
type RefAdvertisement struct {
	Name string
	Hash hash.Hash
}

// Fetcher is implemented by every remote transport this module supports.
type Fetcher interface {
	// ListRefs returns every ref the remote advertises other than HEAD,
	// and a non-empty string if the remote also advertised a HEAD line
	// (transport/ssh returns the literal "HEAD"; the branch HEAD points
	// at is not reported).
	ListRefs(ctx context.Context) ([]RefAdvertisement, string, error)
	// FetchPack requests a VOXPACK stream containing every object
	// reachable from wants. The caller is responsible for closing the
	// returned stream.
	FetchPack(ctx context.Context, wants []hash.Hash) (io.ReadCloser, error)
	// Close releases any underlying connection.
	Close() error
}
