// Package ssh implements transport.Fetcher over an SSH connection,
// shelling out to a "vox-upload-pack" command on the remote the same
// way git shells out to git-upload-pack.
package ssh

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"

	xssh "golang.org/x/crypto/ssh"

	sshagent "github.com/xanzy/ssh-agent"
	sshconfig "github.com/kevinburke/ssh_config"
	"github.com/skeema/knownhosts"

	"github.com/Niko256/vox/plumbing/hash"
	"github.com/Niko256/vox/transport"
)

// Endpoint names an SSH remote: ssh://[user@]host[:port]/path.
type Endpoint struct {
	User string
	Host string
	Port string
	Path string
}

// ParseEndpoint parses a "user@host/path" or "ssh://user@host:port/path"
// style remote URL, applying ~/.ssh/config overrides for any field the
// URL left implicit (Host alias resolution, default User, default Port,
// per the user's ssh client configuration).
func ParseEndpoint(raw string) (Endpoint, error) {
	rest := raw
	rest = strings.TrimPrefix(rest, "ssh://")

	var e Endpoint
	if at := strings.Index(rest, "@"); at >= 0 {
		e.User = rest[:at]
		rest = rest[at+1:]
	}

	slash := strings.Index(rest, "/")
	if slash < 0 {
		return Endpoint{}, fmt.Errorf("ssh: malformed endpoint %q: missing path", raw)
	}
	hostPort := rest[:slash]
	e.Path = rest[slash:]

	if colon := strings.LastIndex(hostPort, ":"); colon >= 0 {
		e.Host, e.Port = hostPort[:colon], hostPort[colon+1:]
	} else {
		e.Host = hostPort
	}

	applyConfigDefaults(&e)
	return e, nil
}

// applyConfigDefaults fills in User/Port/Host from the user's
// ~/.ssh/config, the same resolution order a real ssh client applies:
// explicit URL values win, config values fill gaps, hard defaults are
// last resort.
func applyConfigDefaults(e *Endpoint) {
	alias := e.Host
	if e.Port == "" {
		if p := sshconfig.Get(alias, "Port"); p != "" {
			e.Port = p
		} else {
			e.Port = "22"
		}
	}
	if e.User == "" {
		if u := sshconfig.Get(alias, "User"); u != "" {
			e.User = u
		} else if u, err := currentUsername(); err == nil {
			e.User = u
		}
	}
	if hn := sshconfig.Get(alias, "HostName"); hn != "" {
		e.Host = hn
	}
}

func currentUsername() (string, error) {
	if u := os.Getenv("USER"); u != "" {
		return u, nil
	}
	return "", fmt.Errorf("ssh: cannot determine current user")
}

// Client is a transport.Fetcher backed by a single SSH connection.
type Client struct {
	conn *xssh.Client
	ep   Endpoint
}

var _ transport.Fetcher = (*Client)(nil)

// Dial connects to ep, authenticating via a running ssh-agent first and
// falling back to a private key file if identityFile is non-empty. Host
// keys are checked against the user's known_hosts file; an unknown host
// key is rejected rather than silently trusted.
func Dial(ctx context.Context, ep Endpoint, identityFile string) (*Client, error) {
	auths, agentCloser, err := authMethods(identityFile)
	if err != nil {
		return nil, err
	}
	if agentCloser != nil {
		defer agentCloser.Close()
	}

	hostKeyCallback, err := knownHostsCallback()
	if err != nil {
		return nil, err
	}

	return dial(ctx, ep, auths, hostKeyCallback)
}

// dial is Dial's connection-establishment core, with authentication and
// host-key verification factored out so tests can exercise it against a
// throwaway local server without a real ssh-agent or known_hosts file.
func dial(ctx context.Context, ep Endpoint, auths []xssh.AuthMethod, hostKeyCallback xssh.HostKeyCallback) (*Client, error) {
	cfg := &xssh.ClientConfig{
		User:            ep.User,
		Auth:            auths,
		HostKeyCallback: hostKeyCallback,
	}

	dialer := net.Dialer{}
	rawConn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(ep.Host, ep.Port))
	if err != nil {
		return nil, fmt.Errorf("ssh: dialing %s:%s: %w", ep.Host, ep.Port, err)
	}

	sshConn, chans, reqs, err := xssh.NewClientConn(rawConn, net.JoinHostPort(ep.Host, ep.Port), cfg)
	if err != nil {
		rawConn.Close()
		return nil, fmt.Errorf("ssh: handshake with %s: %w", ep.Host, err)
	}

	return &Client{conn: xssh.NewClient(sshConn, chans, reqs), ep: ep}, nil
}

func authMethods(identityFile string) ([]xssh.AuthMethod, io.Closer, error) {
	var methods []xssh.AuthMethod

	if agentClient, conn, err := sshagent.New(); err == nil {
		if signers, err := agentClient.Signers(); err == nil && len(signers) > 0 {
			methods = append(methods, xssh.PublicKeysCallback(agentClient.Signers))
			return methods, conn, nil
		}
		conn.Close()
	}

	if identityFile != "" {
		key, err := os.ReadFile(identityFile)
		if err != nil {
			return nil, nil, fmt.Errorf("ssh: reading identity file %s: %w", identityFile, err)
		}
		signer, err := xssh.ParsePrivateKey(key)
		if err != nil {
			return nil, nil, fmt.Errorf("ssh: parsing identity file %s: %w", identityFile, err)
		}
		methods = append(methods, xssh.PublicKeys(signer))
	}

	if len(methods) == 0 {
		return nil, nil, fmt.Errorf("ssh: no usable authentication method (no agent, no identity file)")
	}
	return methods, nil, nil
}

func knownHostsCallback() (xssh.HostKeyCallback, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("ssh: resolving home directory: %w", err)
	}
	path := filepath.Join(home, ".ssh", "known_hosts")
	kh, err := knownhosts.NewDB(path)
	if err != nil {
		return nil, fmt.Errorf("ssh: loading known_hosts %s: %w", path, err)
	}
	return kh.HostKeyCallback(), nil
}

// ListRefs runs "vox-upload-pack --list-refs <path>" on the remote and
// parses its "<hash> <name>\n"-per-line output.
func (c *Client) ListRefs(ctx context.Context) ([]transport.RefAdvertisement, string, error) {
	session, err := c.conn.NewSession()
	if err != nil {
		return nil, "", fmt.Errorf("ssh: opening session: %w", err)
	}
	defer session.Close()

	out, err := session.Output(fmt.Sprintf("vox-upload-pack --list-refs %s", c.ep.Path))
	if err != nil {
		return nil, "", fmt.Errorf("ssh: vox-upload-pack --list-refs: %w", err)
	}

	var refs []transport.RefAdvertisement
	head := ""
	sc := bufio.NewScanner(strings.NewReader(string(out)))
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		fields := strings.SplitN(line, " ", 2)
		if len(fields) != 2 {
			continue
		}
		h, err := hash.FromHex(fields[0])
		if err != nil {
			continue
		}
		name := fields[1]
		if name == "HEAD" {
			head = name
			continue
		}
		refs = append(refs, transport.RefAdvertisement{Name: name, Hash: h})
	}
	return refs, head, nil
}

// FetchPack requests a VOXPACK stream for wants from the remote. The
// returned ReadCloser streams the remote command's stdout directly.
func (c *Client) FetchPack(ctx context.Context, wants []hash.Hash) (io.ReadCloser, error) {
	session, err := c.conn.NewSession()
	if err != nil {
		return nil, fmt.Errorf("ssh: opening session: %w", err)
	}

	stdin, err := session.StdinPipe()
	if err != nil {
		session.Close()
		return nil, err
	}
	stdout, err := session.StdoutPipe()
	if err != nil {
		session.Close()
		return nil, err
	}

	if err := session.Start(fmt.Sprintf("vox-upload-pack --fetch %s", c.ep.Path)); err != nil {
		session.Close()
		return nil, fmt.Errorf("ssh: starting vox-upload-pack: %w", err)
	}

	go func() {
		for _, h := range wants {
			fmt.Fprintf(stdin, "want %s\n", h)
		}
		stdin.Close()
	}()

	return &sessionReadCloser{Reader: stdout, session: session}, nil
}

type sessionReadCloser struct {
	io.Reader
	session *xssh.Session
}

func (s *sessionReadCloser) Close() error {
	return s.session.Close()
}

// Close releases the underlying SSH connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
