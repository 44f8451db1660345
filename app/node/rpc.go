package node

import (
	"net/http"

	"github.com/filecoin-project/go-jsonrpc/auth"
	"github.com/pkg/errors"

	"github.com/L5dxb/near-evm/pkg/api"
	"github.com/L5dxb/near-evm/pkg/metrics"
)

// handler serves the node API behind JWT verification, plus the metrics endpoint. A
// request with a token gets the permissions the token grants, one without gets
// api.defaultPermission. An invalid token is answered with 401.
func (node *Node) handler() (http.Handler, error) {
	defaultPerms, err := api.PermissionsFor(node.cfg.API.DefaultPermission)
	if err != nil {
		return nil, errors.Wrap(err, "api.defaultPermission")
	}
	rpc := api.NewServer(node.local, defaultPerms)

	mux := http.NewServeMux()
	mux.Handle("/rpc/"+api.Version, &auth.Handler{
		Verify: node.jwtAuth.Verify,
		Next:   rpc.ServeHTTP,
	})

	if node.cfg.Metrics.Enabled {
		h, err := metrics.NewPrometheusHandler()
		if err != nil {
			return nil, err
		}
		mux.Handle(node.cfg.Metrics.Path, h)
	}
	return mux, nil
}
