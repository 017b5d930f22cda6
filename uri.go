package wsclient

import (
	"fmt"
	"net/url"
	"strings"
)

// target is a parsed ws:// endpoint: a host:port pair suitable for
// net.Dial and a request path.
type target struct {
	hostPort string
	path     string
}

// parseURI parses a ws://host[:port]/path URI. wss:// and any other
// scheme is rejected, matching spec section 6's "ws:// only" contract;
// TLS is an external collaborator's concern, not this core's.
func parseURI(raw string) (target, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return target{}, fmt.Errorf("%w", err)
	}
	if !strings.EqualFold(u.Scheme, "ws") {
		return target{}, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return target{}, fmt.Errorf("missing host")
	}

	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "80"
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}

	return target{hostPort: fmt.Sprintf("%s:%s", host, port), path: path}, nil
}
