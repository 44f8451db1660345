package jwtauth

import (
	"context"
	"crypto/rand"
	"encoding/hex"

	"github.com/filecoin-project/go-jsonrpc/auth"
	jwt3 "github.com/gbrlsnchs/jwt/v3"
	logging "github.com/ipfs/go-log/v2"
	xerrors "github.com/pkg/errors"

	"github.com/L5dxb/near-evm/pkg/api"
)

var jwtLog = logging.Logger("jwt")

// SecretSize is the length in bytes of a generated HMAC secret.
const SecretSize = 32

type APIAlg jwt3.HMACSHA

type JwtPayload struct {
	Allow []auth.Permission
}

// JwtAuth signs and verifies API tokens with a shared HMAC secret. A token carries the
// permissions it grants.
type JwtAuth struct {
	apiSecret *APIAlg
}

// NewSecret returns a fresh hex encoded secret for the api.secret config key.
func NewSecret() (string, error) {
	buf := make([]byte, SecretSize)
	if _, err := rand.Read(buf); err != nil {
		return "", xerrors.Wrap(err, "failed to generate api secret")
	}
	return hex.EncodeToString(buf), nil
}

// NewJwtAuth uses the hex encoded secret. An empty secret generates a temporary one, and
// tokens minted with it stop verifying when the process exits.
func NewJwtAuth(secret string) (*JwtAuth, error) {
	if secret == "" {
		jwtLog.Warn("Generating new API secret, set api.secret to keep tokens valid across restarts")
		var err error
		if secret, err = NewSecret(); err != nil {
			return nil, err
		}
	}
	raw, err := hex.DecodeString(secret)
	if err != nil {
		return nil, xerrors.Wrap(err, "api secret is not hex")
	}
	if len(raw) < SecretSize {
		return nil, xerrors.Errorf("api secret must be at least %d bytes, got %d", SecretSize, len(raw))
	}
	return &JwtAuth{apiSecret: (*APIAlg)(jwt3.NewHS256(raw))}, nil
}

// Verify returns the permissions token grants. It has the signature auth.Handler expects.
func (jwtAuth *JwtAuth) Verify(ctx context.Context, token string) ([]auth.Permission, error) {
	var payload JwtPayload
	if _, err := jwt3.Verify([]byte(token), (*jwt3.HMACSHA)(jwtAuth.apiSecret), &payload); err != nil {
		return nil, xerrors.Errorf("JWT Verification failed: %v", err)
	}

	return payload.Allow, nil
}

// AuthNew mints a token granting perms.
func (jwtAuth *JwtAuth) AuthNew(ctx context.Context, perms []auth.Permission) ([]byte, error) {
	for _, p := range perms {
		if _, err := api.PermissionsFor(string(p)); err != nil {
			return nil, err
		}
	}
	p := JwtPayload{
		Allow: perms,
	}

	return jwt3.Sign(&p, (*jwt3.HMACSHA)(jwtAuth.apiSecret))
}
