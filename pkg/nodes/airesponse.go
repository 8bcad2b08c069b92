package nodes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/loomrun/loom/pkg/config"
	"github.com/loomrun/loom/pkg/httpclient"
	"github.com/loomrun/loom/pkg/registry"
	"github.com/loomrun/loom/pkg/security"
)

// AIResponse calls a configured chat-completions endpoint and writes the
// extracted reply text to "aiResponse" in state. The outbound-HTTP plumbing
// (zero-trust AllowHTTP gate, SSRF validation, httpclient.Builder) is
// grounded on this library's own FetchAPI node; the request/response shape
// (a "messages" array, extracting choices[0].message.content) is grounded on
// _examples/khangdcicloud-fluxor's OpenAINodeHandler. It declares
// IsAIResponse so the parser's warning pass can flag a step whose output
// never reaches schema validation.
type AIResponse struct {
	cfg     *config.Config
	builder *httpclient.Builder
}

// NewAIResponse returns an AIResponse node bound to cfg's HTTP and SSRF
// settings.
func NewAIResponse(cfg *config.Config) *AIResponse {
	return &AIResponse{cfg: cfg, builder: httpclient.NewBuilder(cfg)}
}

// Metadata implements registry.Node.
func (AIResponse) Metadata() registry.Metadata {
	return registry.Metadata{
		ID:           "aiResponse",
		Name:         "AI Response",
		Version:      "1.0.0",
		Inputs:       []string{"endpoint", "apiKey", "model", "messages"},
		Outputs:      []string{"aiResponse"},
		Tag:          registry.TagServer,
		IsAIResponse: true,
	}
}

// Execute implements registry.Node.
func (n *AIResponse) Execute(ctx registry.ExecutionContext, nodeCfg map[string]interface{}) (registry.EdgeMap, error) {
	if !n.cfg.AllowHTTP {
		return nil, fmt.Errorf("HTTP requests are not allowed (AllowHTTP=false)")
	}

	endpoint, err := configString(nodeCfg, "endpoint")
	if err != nil {
		return nil, err
	}
	if err := n.validateURL(endpoint); err != nil {
		return nil, fmt.Errorf("URL validation failed: %w", err)
	}
	messages, err := configInterfaceSlice(nodeCfg, "messages")
	if err != nil {
		return nil, err
	}
	model := optionalConfigString(nodeCfg, "model", "gpt-3.5-turbo")
	apiKey := optionalConfigString(nodeCfg, "apiKey", "")

	requestBody := map[string]interface{}{
		"model":    model,
		"messages": messages,
	}
	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("encoding request body: %w", err)
	}

	client, err := n.builder.Build(&httpclient.ClientConfig{
		Name:            "aiResponse",
		Timeout:         n.cfg.HTTPTimeout,
		MaxRedirects:    n.cfg.MaxHTTPRedirects,
		MaxResponseSize: n.cfg.MaxResponseSize,
		FollowRedirects: true,
	})
	if err != nil {
		return nil, fmt.Errorf("building HTTP client: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx.Context(), http.MethodPost, endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("AI request failed: %w", err)
	}
	defer resp.Body.Close()

	limited := io.LimitReader(resp.Body, n.cfg.MaxResponseSize)
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return registry.EdgeMap{"error": map[string]interface{}{
			"status": resp.StatusCode,
			"body":   string(body),
		}}, nil
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("decoding AI response: %w", err)
	}

	result := map[string]interface{}{"text": extractChatText(decoded), "raw": decoded}
	ctx.Set("aiResponse", result)
	return registry.EdgeMap{"success": result}, nil
}

func (n *AIResponse) validateURL(url string) error {
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

// extractChatText pulls choices[0].message.content (falling back to
// choices[0].text) out of a chat-completions style response body.
func extractChatText(decoded map[string]interface{}) string {
	choices, ok := decoded["choices"].([]interface{})
	if !ok || len(choices) == 0 {
		return ""
	}
	choice, ok := choices[0].(map[string]interface{})
	if !ok {
		return ""
	}
	if message, ok := choice["message"].(map[string]interface{}); ok {
		if content, ok := message["content"].(string); ok {
			return content
		}
	}
	if text, ok := choice["text"].(string); ok {
		return text
	}
	return ""
}
