package nodes

import (
	"github.com/loomrun/loom/pkg/config"
	"github.com/loomrun/loom/pkg/registry"
)

// Register wires every node type named in the node library into reg. It is
// the one place that knows how to construct each node's dependencies
// (config for the HTTP/cache nodes, a credential broker for connect, the
// registry itself for the wrapper nodes), so cmd/loomd's boot sequence can
// call it once and otherwise stay ignorant of individual node types.
//
// broker may be nil, in which case "connect" is left unregistered; a host
// that has no credential store configured simply can't route workflows
// through it.
func Register(reg *registry.Registry, cfg *config.Config, broker CredentialBroker) {
	reg.MustRegister(Math{})
	reg.MustRegister(Logic{})
	reg.MustRegister(Transform{})
	reg.MustRegister(Log{})
	reg.MustRegister(Empty{})
	reg.MustRegister(Filter{})
	reg.MustRegister(Sort{})
	reg.MustRegister(ForEach{})
	reg.MustRegister(While{})
	reg.MustRegister(Switch{})
	reg.MustRegister(SchemaValidator{})

	reg.MustRegister(NewFetchAPI(cfg))
	reg.MustRegister(NewAIResponse(cfg))
	reg.MustRegister(NewCache(cfg, NewCacheStore(cfg.MaxCacheSize)))

	// Retry and Timeout resolve their wrapped node lazily through reg at
	// call time, so registering them here ahead of the nodes they might
	// wrap is safe.
	reg.MustRegister(NewRetry(reg))
	reg.MustRegister(NewTimeout(reg))

	if broker != nil {
		reg.MustRegister(NewConnect(broker))
	}
}
