package nodes

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/loomrun/loom/pkg/config"
	"github.com/loomrun/loom/pkg/httpclient"
	"github.com/loomrun/loom/pkg/registry"
	"github.com/loomrun/loom/pkg/security"
)

// FetchAPI performs an outbound HTTP call, writing the status code and the
// raw response body (as a string) to "fetchResult" in state. Grounded on the teacher's HTTPExecutor:
// zero-trust gate on config.AllowHTTP, a request-time SSRF check ahead of
// the call (isAllowedURL in the teacher, validateFetchURL here) with a
// second check on every redirect (handled inside pkg/httpclient.Builder),
// and a response-size cap enforced with io.LimitReader.
type FetchAPI struct {
	cfg     *config.Config
	builder *httpclient.Builder
}

// NewFetchAPI returns a FetchAPI node bound to cfg's HTTP and SSRF
// settings.
func NewFetchAPI(cfg *config.Config) *FetchAPI {
	return &FetchAPI{cfg: cfg, builder: httpclient.NewBuilder(cfg)}
}

// Metadata implements registry.Node.
func (FetchAPI) Metadata() registry.Metadata {
	return registry.Metadata{
		ID:      "fetchApi",
		Name:    "Fetch API",
		Version: "1.0.0",
		Inputs:  []string{"url", "method", "headers", "body"},
		Outputs: []string{"fetchResult"},
		Tag:     registry.TagServer,
	}
}

// Execute implements registry.Node.
func (n *FetchAPI) Execute(ctx registry.ExecutionContext, nodeCfg map[string]interface{}) (registry.EdgeMap, error) {
	if !n.cfg.AllowHTTP {
		return nil, fmt.Errorf("HTTP requests are not allowed (AllowHTTP=false)")
	}

	url, err := configString(nodeCfg, "url")
	if err != nil {
		return nil, err
	}
	method := strings.ToUpper(optionalConfigString(nodeCfg, "method", "GET"))

	if err := n.validateURL(url); err != nil {
		return nil, fmt.Errorf("URL validation failed: %w", err)
	}

	client, err := n.builder.Build(&httpclient.ClientConfig{
		Name:            "fetchApi",
		Timeout:         n.cfg.HTTPTimeout,
		MaxRedirects:    n.cfg.MaxHTTPRedirects,
		MaxResponseSize: n.cfg.MaxResponseSize,
		FollowRedirects: true,
	})
	if err != nil {
		return nil, fmt.Errorf("building HTTP client: %w", err)
	}

	var bodyReader io.Reader
	if raw, ok := nodeCfg["body"]; ok {
		if s, ok := raw.(string); ok {
			bodyReader = strings.NewReader(s)
		}
	}

	req, err := http.NewRequestWithContext(ctx.Context(), method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if headers, ok := nodeCfg["headers"].(map[string]interface{}); ok {
		for k, v := range headers {
			if s, ok := v.(string); ok {
				req.Header.Set(k, s)
			}
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	limited := io.LimitReader(resp.Body, n.cfg.MaxResponseSize)
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	result := map[string]interface{}{
		"status": resp.StatusCode,
		"body":   string(body),
	}
	ctx.Set("fetchResult", result)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return registry.EdgeMap{"error": result}, nil
	}
	return registry.EdgeMap{"success": result}, nil
}

// validateURL runs the same SSRF check the builder applies on redirects,
// ahead of the initial request (the builder only re-validates
// subsequently-followed redirect targets, not the first URL).
func (n *FetchAPI) validateURL(url string) error {
	ssrfConfig := security.SSRFConfig{
		AllowedSchemes:     []string{"http", "https"},
		BlockPrivateIPs:    !n.cfg.AllowPrivateIPs,
		BlockLocalhost:     !n.cfg.AllowLocalhost,
		BlockLinkLocal:     !n.cfg.AllowLinkLocal,
		BlockCloudMetadata: !n.cfg.AllowCloudMetadata,
		AllowedDomains:     n.cfg.AllowedDomains,
		BlockedDomains:     []string{},
	}
	return security.NewSSRFProtectionWithConfig(ssrfConfig).ValidateURL(url)
}
