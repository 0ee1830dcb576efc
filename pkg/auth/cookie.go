package auth

import "net/url"

// CookieSettings contains cookie security settings derived from base URL.
type CookieSettings struct {
	// Secure indicates whether the cookie should only be sent over HTTPS.
	Secure bool
	// Domain is the cookie domain scope. Empty isolates the cookie to the
	// serving hostname.
	Domain string
}

// DeriveCookieSettings determines cookie security settings from the base
// URL: plain-HTTP deployments (local development) get insecure cookies,
// everything else defaults to Secure with the cookie isolated to the
// serving host. An explicitly configured domain overrides derivation.
func DeriveCookieSettings(baseURL, configCookieDomain string) CookieSettings {
	if configCookieDomain != "" {
		return CookieSettings{Secure: isHTTPS(baseURL), Domain: configCookieDomain}
	}

	parsed, err := url.Parse(baseURL)
	if err != nil || baseURL == "" {
		// Safe defaults for invalid URLs.
		return CookieSettings{Secure: true}
	}

	return CookieSettings{Secure: parsed.Scheme != "http"}
}

// isHTTPS reports whether the base URL uses HTTPS. Empty or invalid URLs
// count as HTTPS (safe default).
func isHTTPS(baseURL string) bool {
	if baseURL == "" {
		return true
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return true
	}
	return parsed.Scheme != "http"
}
