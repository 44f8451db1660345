package api

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	multiaddr "github.com/multiformats/go-multiaddr"
	manet "github.com/multiformats/go-multiaddr/net"
)

const (
	// Namespace prefixes every JSON-RPC method, e.g. "NearEVM.ViewAccount".
	Namespace = "NearEVM"
	// Version is the RPC path version served by this build.
	Version = "v0"

	AuthorizationHeader = "Authorization"
)

func VerString(ver uint32) string {
	return fmt.Sprintf("v%d", ver)
}

// APIInfo is a node endpoint plus an optional bearer token. Its string form is
// "token:addr" or just "addr", where addr is a multiaddr or a URL.
type APIInfo struct { // nolint
	Addr  string
	Token []byte
}

func NewAPIInfo(addr, token string) APIInfo {
	return APIInfo{
		Addr:  addr,
		Token: []byte(token),
	}
}

func ParseAPIInfo(s string) APIInfo {
	var tok []byte
	if sp := strings.SplitN(s, ":", 2); len(sp) == 2 && isToken(sp[0], sp[1]) {
		tok = []byte(sp[0])
		s = sp[1]
	}

	return APIInfo{
		Addr:  s,
		Token: tok,
	}
}

func isToken(prefix, rest string) bool {
	if prefix == "" || strings.HasPrefix(prefix, "/") {
		return false
	}
	switch strings.ToLower(prefix) {
	case "http", "https", "ws", "wss":
		return false
	}
	// the remainder must itself be an address
	return strings.HasPrefix(rest, "/") || strings.Contains(rest, "://")
}

func (a APIInfo) String() string {
	if len(a.Token) == 0 {
		return a.Addr
	}
	return string(a.Token) + ":" + a.Addr
}

// DialArgs turns the address into a ws/http URL. A /version component in a multiaddr
// overrides version.
func (a APIInfo) DialArgs(version string) (string, error) {
	return DialArgs(a.Addr, version)
}

func (a APIInfo) Host() (string, error) {
	ma, err := multiaddr.NewMultiaddr(a.Addr)
	if err == nil {
		_, addr, err := manet.DialArgs(ma)
		if err != nil {
			return "", err
		}

		return addr, nil
	}

	u, err := url.Parse(a.Addr)
	if err != nil {
		return "", err
	}
	return u.Host, nil
}

func (a APIInfo) AuthHeader() http.Header {
	if len(a.Token) != 0 {
		headers := http.Header{}
		a.SetAuthHeader(headers)
		return headers
	}

	return nil
}

func (a APIInfo) SetAuthHeader(h http.Header) {
	if len(a.Token) != 0 {
		h.Add(AuthorizationHeader, "Bearer "+string(a.Token))
	}
}

func DialArgs(addr, version string) (string, error) {
	ma, err := multiaddr.NewMultiaddr(addr)
	if err == nil {
		_, hostport, err := manet.DialArgs(ma)
		if err != nil {
			return "", fmt.Errorf("parse multiaddr %s: %w", addr, err)
		}

		val, err := ma.ValueForProtocol(ProtoVersion)
		if err == nil {
			version = val
		} else if err != multiaddr.ErrProtocolNotFound {
			return "", err
		}

		for _, p := range []struct {
			code   int
			scheme string
		}{
			{multiaddr.P_WSS, "wss"},
			{multiaddr.P_HTTPS, "https"},
			{multiaddr.P_WS, "ws"},
			{multiaddr.P_HTTP, "http"},
		} {
			_, err = ma.ValueForProtocol(p.code)
			if err == nil {
				return p.scheme + "://" + hostport + "/rpc/" + version, nil
			} else if err != multiaddr.ErrProtocolNotFound {
				return "", err
			}
		}

		return "ws://" + hostport + "/rpc/" + version, nil
	}

	_, err = url.Parse(addr)
	if err != nil {
		return "", fmt.Errorf("parse address %s: %w", addr, err)
	}

	return strings.TrimRight(addr, "/") + "/rpc/" + version, nil
}

// ListenAddr converts a listen multiaddr such as /ip4/127.0.0.1/tcp/3570 into host:port.
func ListenAddr(addr string) (string, error) {
	ma, err := multiaddr.NewMultiaddr(addr)
	if err != nil {
		return "", fmt.Errorf("parse listen address %s: %w", addr, err)
	}
	_, hostport, err := manet.DialArgs(ma)
	if err != nil {
		return "", err
	}
	return hostport, nil
}
