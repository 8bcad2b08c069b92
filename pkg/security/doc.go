// Package security provides the SSRF (server-side request forgery) check
// applied to URLs before outbound HTTP requests, plus a set of sentinel
// errors.
//
// # SSRF Protection
//
// SSRFProtection.ValidateURL rejects a URL when:
//
//   - its scheme is not in the allowed set (http and https by default)
//   - it has no hostname
//   - its hostname is on the blocked-domain list, or an allowed-domain list
//     is configured and the hostname is not on it (exact, case-insensitive
//     match; subdomains are not matched)
//   - its host is, or resolves to, a loopback or 0.0.0.0 address, a private
//     address (10/8, 172.16/12, 192.168/16, IPv6 fc00::/7), a link-local
//     address (169.254/16, fe80::/10) or a cloud metadata address
//     (169.254.169.254, fd00:ec2::254), each check switched by its
//     SSRFConfig flag
//   - its hostname is localhost, metadata.google.internal or
//     metadata.azure.com (with the matching flag set)
//
// A hostname that does not resolve passes once these name checks pass.
//
// # Basic Usage
//
//	p := security.NewSSRFProtection() // DefaultSSRFConfig: every block on
//	if err := p.ValidateURL(rawURL); err != nil {
//	    return fmt.Errorf("URL not allowed: %w", err)
//	}
//
//	p = security.NewSSRFProtectionWithConfig(security.SSRFConfig{
//	    AllowedSchemes:     []string{"https"},
//	    BlockPrivateIPs:    true,
//	    BlockLocalhost:     true,
//	    BlockLinkLocal:     true,
//	    BlockCloudMetadata: true,
//	    AllowedDomains:     []string{"api.example.com"},
//	})
//
// # Errors
//
// errors.go declares sentinel errors such as ErrURLNotAllowed and
// ErrPrivateIPBlocked. ValidateURL does not wrap them; its errors are
// descriptive messages.
//
// # Thread Safety
//
// An SSRFProtection is not modified after construction, so one instance
// can be used concurrently from multiple goroutines.
package security
