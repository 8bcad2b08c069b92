package nodes

import (
	"fmt"

	"github.com/loomrun/loom/pkg/registry"
)

// CredentialBroker is the external collaborator a Connect node delegates
// to: it never holds a credential itself, only asks the broker for one at
// call time. Hosts implement this against whatever secret store or OAuth
// registry they run. Grounded on the teacher's architecture note that
// credential-bearing nodes are a thin façade over a host-owned broker
// (the teacher itself ships no broker implementation; this interface is
// new, shaped directly from the contract spelled out for "connect" nodes).
type CredentialBroker interface {
	// GetToken returns the current access token for connectionId, or
	// needsReauth=true if the connection requires the user to
	// re-authenticate before it can be used.
	GetToken(connectionID string) (token string, needsReauth bool, err error)
	// GetConnectionInfo returns host-defined metadata about the connection
	// (provider, scopes, display name) for the node to fold into state.
	GetConnectionInfo(connectionID string) (map[string]interface{}, error)
}

// Connect resolves a named connection through a CredentialBroker and
// stashes the resulting token at "connectionToken" in state for downstream
// nodes to read. It never inspects or transforms the token itself.
type Connect struct {
	broker CredentialBroker
}

// NewConnect returns a Connect node backed by broker.
func NewConnect(broker CredentialBroker) *Connect {
	return &Connect{broker: broker}
}

// Metadata implements registry.Node.
func (Connect) Metadata() registry.Metadata {
	return registry.Metadata{
		ID:      "connect",
		Name:    "Connect",
		Version: "1.0.0",
		Inputs:  []string{"connectionId"},
		Outputs: []string{"connectionToken"},
		Tag:     registry.TagServer,
	}
}

// Execute implements registry.Node.
func (n *Connect) Execute(ctx registry.ExecutionContext, config map[string]interface{}) (registry.EdgeMap, error) {
	if n.broker == nil {
		return nil, fmt.Errorf("connect node has no credential broker configured")
	}
	connectionID, err := configString(config, "connectionId")
	if err != nil {
		return nil, err
	}

	token, needsReauth, err := n.broker.GetToken(connectionID)
	if err != nil {
		return nil, fmt.Errorf("resolving connection %s: %w", connectionID, err)
	}
	if needsReauth {
		return registry.EdgeMap{"needsReauth": connectionID}, nil
	}

	info, err := n.broker.GetConnectionInfo(connectionID)
	if err != nil {
		return nil, fmt.Errorf("resolving connection info %s: %w", connectionID, err)
	}

	ctx.Set("connectionToken", token)
	ctx.Set("connectionInfo", info)
	return registry.EdgeMap{"connected": connectionID}, nil
}
