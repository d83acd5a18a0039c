// Package proxy resolves the proxy a transport dial should go through
// (from an explicit URL or the standard ALL_PROXY/HTTPS_PROXY
// environment variables) and dials through it.
package proxy

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"os"

	"golang.org/x/net/proxy"
)

// DialerFromEnv returns a context-aware dialer honoring ALL_PROXY (or,
// failing that, HTTPS_PROXY) if set, otherwise a direct dialer.
func DialerFromEnv() (Dialer, error) {
	raw := os.Getenv("ALL_PROXY")
	if raw == "" {
		raw = os.Getenv("HTTPS_PROXY")
	}
	if raw == "" {
		return direct{}, nil
	}
	return DialerFromURL(raw)
}

// Dialer is the minimal context-aware dial capability a transport dial
// needs (transport/ssh does not use it; it dials directly with
// net.Dialer); proxy.Dialer satisfies it via a contextDialer adapter, and the
// direct (no proxy) case satisfies it trivially.
type Dialer interface {
	DialContext(ctx context.Context, network, addr string) (net.Conn, error)
}

type direct struct{}

func (direct) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	var d net.Dialer
	return d.DialContext(ctx, network, addr)
}

// DialerFromURL builds a Dialer for an explicit proxy URL
// (socks5://host:port or http://host:port for a CONNECT proxy).
func DialerFromURL(raw string) (Dialer, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("proxy: parsing %q: %w", raw, err)
	}

	base, err := proxy.FromURL(u, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("proxy: building dialer for %q: %w", raw, err)
	}

	if cd, ok := base.(proxy.ContextDialer); ok {
		return contextDialerAdapter{cd}, nil
	}
	// Fallback: the proxy package's built-in dialers all implement
	// ContextDialer, but a custom proxy.RegisterDialerType registration
	// might not; degrade to a context-ignoring dial in that case rather
	// than failing outright.
	return legacyDialerAdapter{base}, nil
}

type contextDialerAdapter struct {
	d proxy.ContextDialer
}

func (a contextDialerAdapter) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	return a.d.DialContext(ctx, network, addr)
}

type legacyDialerAdapter struct {
	d proxy.Dialer
}

func (a legacyDialerAdapter) DialContext(_ context.Context, network, addr string) (net.Conn, error) {
	return a.d.Dial(network, addr)
}
