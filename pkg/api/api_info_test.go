package api

import (
	"testing"

	"github.com/multiformats/go-multiaddr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tf "github.com/L5dxb/near-evm/pkg/testhelpers/testflags"
)

func TestAPIInfo_DialArgs(t *testing.T) {
	tf.UnitTest(t)

	tests := []struct {
		name    string
		addr    string
		want    string
		wantErr bool
	}{
		{"common", "http://192.168.5.61:3570", "http://192.168.5.61:3570/rpc/v0", false},
		{"wss", "/ip4/192.168.5.61/tcp/3570/wss", "wss://192.168.5.61:3570/rpc/v0", false},
		{"ws", "/ip4/192.168.5.61/tcp/3570/ws", "ws://192.168.5.61:3570/rpc/v0", false},
		{"http", "/ip4/192.168.5.61/tcp/35701/http", "http://192.168.5.61:35701/rpc/v0", false},
		{"https", "/ip4/192.168.5.61/tcp/35701/https", "https://192.168.5.61:35701/rpc/v0", false},
		{"default to ws", "/ip4/192.168.5.61/tcp/35702", "ws://192.168.5.61:35702/rpc/v0", false},
		{"version", "/ip4/192.168.5.61/tcp/35702/version/v1", "ws://192.168.5.61:35702/rpc/v1", false},
		// not a multiaddr, treated as a url
		{"error version", "/ip4/192.168.5.61/tcp/35702/version/1v", "/ip4/192.168.5.61/tcp/35702/version/1v/rpc/v0", false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			a := APIInfo{Addr: tt.addr}

			got, err := a.DialArgs("v0")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseAPIInfo(t *testing.T) {
	tf.UnitTest(t)

	info := ParseAPIInfo("secret-token:/ip4/127.0.0.1/tcp/3570")
	assert.Equal(t, "/ip4/127.0.0.1/tcp/3570", info.Addr)
	assert.Equal(t, "secret-token", string(info.Token))
	assert.Equal(t, "Bearer secret-token", info.AuthHeader().Get(AuthorizationHeader))
	assert.Equal(t, "secret-token:/ip4/127.0.0.1/tcp/3570", info.String())

	info = ParseAPIInfo("http://127.0.0.1:3570")
	assert.Equal(t, "http://127.0.0.1:3570", info.Addr)
	assert.Empty(t, info.Token)
	assert.Nil(t, info.AuthHeader())

	info = ParseAPIInfo("tok:ws://127.0.0.1:3570")
	assert.Equal(t, "ws://127.0.0.1:3570", info.Addr)
	assert.Equal(t, "tok", string(info.Token))

	host, err := ParseAPIInfo("/ip4/127.0.0.1/tcp/3570").Host()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:3570", host)
}

func TestListenAddr(t *testing.T) {
	tf.UnitTest(t)

	addr, err := ListenAddr("/ip4/0.0.0.0/tcp/3570")
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:3570", addr)

	_, err = ListenAddr("127.0.0.1:3570")
	assert.Error(t, err)
}

func TestVersionComponent(t *testing.T) {
	tf.UnitTest(t)

	addr, err := WithVersion("/ip4/127.0.0.1/tcp/3570", VerString(1))
	require.NoError(t, err)
	assert.Equal(t, "/ip4/127.0.0.1/tcp/3570/version/v1", addr)

	m, err := multiaddr.NewMultiaddr(addr)
	require.NoError(t, err)
	v, err := m.ValueForProtocol(ProtoVersion)
	require.NoError(t, err)
	assert.Equal(t, "v1", v)

	// binary form decodes to the same address
	back, err := multiaddr.NewMultiaddrBytes(m.Bytes())
	require.NoError(t, err)
	assert.Equal(t, addr, back.String())

	info := ParseAPIInfo("tok:" + addr)
	assert.Equal(t, addr, info.Addr)
	url, err := info.DialArgs(Version)
	require.NoError(t, err)
	assert.Equal(t, "ws://127.0.0.1:3570/rpc/v1", url)

	_, err = WithVersion(addr, "v2")
	assert.Error(t, err)
	for _, bad := range []string{"1", "v", "vx", "v-1"} {
		_, err := WithVersion("/ip4/127.0.0.1/tcp/3570", bad)
		assert.Error(t, err, bad)
		_, err = multiaddr.NewMultiaddr("/ip4/127.0.0.1/tcp/3570/version/" + bad)
		assert.Error(t, err, bad)
	}
}
