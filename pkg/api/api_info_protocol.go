package api

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/multiformats/go-multiaddr"
)

// ProtoVersion is the code of the /version/vN multiaddr component.
const ProtoVersion = multiaddr.P_WSS + 1

func checkVersion(s string) error {
	if !strings.HasPrefix(s, "v") {
		return fmt.Errorf("version %q does not start with v", s)
	}
	if _, err := strconv.ParseUint(s[1:], 10, 32); err != nil {
		return fmt.Errorf("version %q is not v followed by a number", s)
	}
	return nil
}

// WithVersion appends a /version component to the multiaddr addr, so clients dialing it
// use that RPC version whatever their default.
func WithVersion(addr, version string) (string, error) {
	m, err := multiaddr.NewMultiaddr(addr)
	if err != nil {
		return "", fmt.Errorf("parse multiaddr %s: %w", addr, err)
	}
	if v, err := m.ValueForProtocol(ProtoVersion); err == nil {
		return "", fmt.Errorf("%s already pins version %s", addr, v)
	}
	c, err := multiaddr.NewComponent("version", version)
	if err != nil {
		return "", err
	}
	return m.Encapsulate(c).String(), nil
}

func init() {
	err := multiaddr.AddProtocol(multiaddr.Protocol{
		Name:  "version",
		Code:  ProtoVersion,
		VCode: multiaddr.CodeToVarint(ProtoVersion),
		Size:  multiaddr.LengthPrefixedVarSize,
		Transcoder: multiaddr.NewTranscoderFromFunctions(func(s string) ([]byte, error) {
			if err := checkVersion(s); err != nil {
				return nil, err
			}
			return []byte(s), nil
		}, func(bytes []byte) (string, error) {
			vStr := string(bytes)
			if err := checkVersion(vStr); err != nil {
				return "", err
			}
			return vStr, nil
		}, nil),
	})

	if err != nil {
		panic(fmt.Errorf("add `version` protocol into multiaddr: %w", err))
	}
}
