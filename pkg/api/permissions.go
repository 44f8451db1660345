package api

import (
	"github.com/filecoin-project/go-jsonrpc/auth"
	"golang.org/x/xerrors"
)

const (
	// PermRead allows the view and lookup methods.
	PermRead auth.Permission = "read"
	// PermWrite also allows broadcasting transactions.
	PermWrite auth.Permission = "write"
	// PermAdmin implies every other permission.
	PermAdmin auth.Permission = "admin"
)

// AllPermissions lists every permission from weakest to strongest. A permission implies
// the ones before it.
var AllPermissions = []auth.Permission{PermRead, PermWrite, PermAdmin}

// PermissionsFor returns perm and the permissions it implies, the list a token for perm
// carries. The empty string yields no permission.
func PermissionsFor(perm string) ([]auth.Permission, error) {
	if perm == "" {
		return nil, nil
	}
	for i, p := range AllPermissions {
		if string(p) == perm {
			return append([]auth.Permission(nil), AllPermissions[:i+1]...), nil
		}
	}
	return nil, xerrors.Errorf("unknown permission %q, expected one of %v", perm, AllPermissions)
}
