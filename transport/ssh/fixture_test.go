package ssh

import (
	"context"
	"net"
	"testing"
	"time"

	gliderssh "github.com/gliderlabs/ssh"
	xssh "golang.org/x/crypto/ssh"

	"github.com/stretchr/testify/require"
)

// startFixtureServer starts a local gliderlabs/ssh server that accepts
// any password and, for any non-empty command (the test sends
// "vox-upload-pack --list-refs test-repo"), writes back one advertised
// ref. It stands in
// for a real vox-aware SSH remote in tests, the same role
// go-git-fixtures' in-process servers play in the teacher's own test
// suite.
func startFixtureServer(t *testing.T) (addr string, stop func()) {
	t.Helper()

	srv := &gliderssh.Server{
		Handler: func(s gliderssh.Session) {
			if len(s.Command()) > 0 {
				s.Write([]byte("ce013625030ba8dba906f756967f9e9ca394464a refs/heads/master\n"))
			}
			s.Exit(0)
		},
		PasswordHandler: func(ctx gliderssh.Context, password string) bool {
			return true
		},
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	go srv.Serve(ln)
	return ln.Addr().String(), func() { ln.Close() }
}

func TestDialAndListRefsAgainstFixtureServer(t *testing.T) {
	addr, stop := startFixtureServer(t)
	defer stop()

	host, port, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	ep := Endpoint{User: "tester", Host: host, Port: port, Path: "test-repo"}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := dial(ctx, ep, []xssh.AuthMethod{xssh.Password("anything")}, xssh.InsecureIgnoreHostKey())
	require.NoError(t, err)
	defer client.Close()

	refs, _, err := client.ListRefs(ctx)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	require.Equal(t, "refs/heads/master", refs[0].Name)
}
