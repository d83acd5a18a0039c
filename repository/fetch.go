package repository

import (
	"context"
	"fmt"
	"io"

	"github.com/go-git/go-billy/v5"
	ctxio "github.com/jbenet/go-context/io"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/Niko256/vox/packfile"
	"github.com/Niko256/vox/plumbing/hash"
	"github.com/Niko256/vox/refs"
	"github.com/Niko256/vox/transport"
)

const remoteName = "origin"

// FetchResult reports what a Fetch call pulled: the remote's advertised
// HEAD and the refs/remotes/origin/* refs it wrote.
type FetchResult struct {
	RemoteHEAD string
	Updated    []string
}

// Fetch lists the remote's refs, requests a pack for whatever hashes
// this repository doesn't already have, unpacks it into the local
// object store, and records the advertised refs under
// refs/remotes/origin/*. It never touches refs/heads or the working
// tree; Clone and a future "vox fetch" CLI command build on top of it.
func (r *Repository) Fetch(ctx context.Context, f transport.Fetcher) (*FetchResult, error) {
	ads, head, err := f.ListRefs(ctx)
	if err != nil {
		return nil, fmt.Errorf("repository: listing remote refs: %w", err)
	}

	var wants []hash.Hash
	for _, ad := range ads {
		have, err := r.Objects.Has(ad.Hash)
		if err != nil {
			return nil, err
		}
		if !have {
			wants = append(wants, ad.Hash)
		}
	}

	if len(wants) > 0 {
		if err := r.fetchAndStore(ctx, f, wants); err != nil {
			return nil, err
		}
	}

	result := &FetchResult{RemoteHEAD: head}
	for _, ad := range ads {
		path := refs.RemotesDir + "/" + remoteName + "/" + ad.Name[len(refs.HeadsDir)+1:]
		if err := r.Refs.WriteRef(path, ad.Hash); err != nil {
			return nil, fmt.Errorf("repository: recording remote ref %s: %w", ad.Name, err)
		}
		result.Updated = append(result.Updated, path)
	}

	r.log.WithFields(logrus.Fields{"op": "fetch", "wants": len(wants), "refs": len(ads)}).Info("fetched from remote")
	return result, nil
}

// fetchAndStore requests the pack stream and overlaps reading it off
// the wire with decoding it: one goroutine copies the (context-bound)
// network reader into a pipe, the other deserializes and reconstructs
// from the pipe's read side, so decoding of early frames doesn't wait
// on the whole transfer to land.
func (r *Repository) fetchAndStore(ctx context.Context, f transport.Fetcher, wants []hash.Hash) error {
	stream, err := f.FetchPack(ctx, wants)
	if err != nil {
		return fmt.Errorf("repository: fetching pack: %w", err)
	}
	defer stream.Close()

	boundReader := ctxio.NewReader(ctx, stream)
	pr, pw := io.Pipe()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := io.Copy(pw, boundReader)
		if err != nil {
			pw.CloseWithError(err)
			return err
		}
		return pw.Close()
	})

	var pack *packfile.Pack
	g.Go(func() error {
		var err error
		pack, err = packfile.Deserialize(pr)
		return err
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("repository: reading pack stream: %w", err)
	}

	types, payloads, err := packfile.Reconstruct(pack)
	if err != nil {
		return fmt.Errorf("repository: reconstructing pack: %w", err)
	}
	if err := packfile.StoreInto(r.Objects, types, payloads); err != nil {
		return fmt.Errorf("repository: storing fetched objects: %w", err)
	}
	return nil
}

// Clone initializes a new repository at work, fetches everything the
// remote advertises, creates a local branch for the first ref fetched
// and points HEAD at it (the remote's own HEAD branch is not
// consulted), and checks out that branch's tree into the working
// directory.
func Clone(ctx context.Context, work billy.Filesystem, f transport.Fetcher, log logrus.FieldLogger) (*Repository, error) {
	r, err := Init(work, log)
	if err != nil {
		return nil, err
	}

	result, err := r.Fetch(ctx, f)
	if err != nil {
		return nil, err
	}
	if len(result.Updated) == 0 {
		return r, nil
	}

	branchName, targetRef, err := defaultBranch(result)
	if err != nil {
		return nil, err
	}

	targetHash, err := r.Refs.Resolve(targetRef)
	if err != nil {
		return nil, fmt.Errorf("repository: resolving cloned ref %s: %w", targetRef, err)
	}
	if err := r.Refs.WriteRef(refs.HeadsDir+"/"+branchName, targetHash); err != nil {
		return nil, fmt.Errorf("repository: creating local branch %s: %w", branchName, err)
	}
	if err := r.Refs.SetHeadToBranch(branchName); err != nil {
		return nil, err
	}

	if err := r.Checkout(branchName, true); err != nil {
		return nil, fmt.Errorf("repository: checking out %s after clone: %w", branchName, err)
	}
	return r, nil
}

// defaultBranch picks the branch Clone should check out. The
// --list-refs wire format (transport/ssh.Client.ListRefs) reports that
// a HEAD line was present but, unlike git's symref capability
// advertisement, doesn't carry which branch it points at; lacking that,
// the first ref fetched is used, stable because Fetch appends
// refs/remotes/origin/* in the order the remote advertised them.
func defaultBranch(result *FetchResult) (name, ref string, err error) {
	if len(result.Updated) == 0 {
		return "", "", fmt.Errorf("repository: remote advertised no refs to clone")
	}
	first := result.Updated[0]
	name = first[len(refs.RemotesDir+"/"+remoteName+"/"):]
	return name, first, nil
}
