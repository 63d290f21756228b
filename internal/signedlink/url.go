package signedlink

import (
	"net/http"
	"strings"
)

const downloadPath = "/download/"

// BaseURL derives scheme://host for links, preferring the reverse proxy's
// X-Forwarded-Proto and X-Forwarded-Host headers.
func BaseURL(r *http.Request) string {
	scheme := firstHeaderValue(r.Header.Get("X-Forwarded-Proto"))
	if scheme == "" {
		scheme = "http"
		if r.TLS != nil {
			scheme = "https"
		}
	}

	host := firstHeaderValue(r.Header.Get("X-Forwarded-Host"))
	if host == "" {
		host = r.Host
	}
	return scheme + "://" + host
}

// DownloadURL places the token as the last path segment under baseURL.
func DownloadURL(baseURL, token string) string {
	return strings.TrimRight(baseURL, "/") + downloadPath + token
}

// firstHeaderValue takes the client-most entry of a comma separated proxy chain.
func firstHeaderValue(v string) string {
	if i := strings.IndexByte(v, ','); i >= 0 {
		v = v[:i]
	}
	return strings.TrimSpace(v)
}
