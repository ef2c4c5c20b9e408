// Package netx builds relay endpoint URLs.
package netx

import (
	"fmt"
	"net/url"
	"strings"
)

// WebSocketURL turns a relay base URL into the websocket endpoint at path.
// http/https are mapped to ws/wss; ws/wss are kept; anything else is an
// error. When token is non-empty it is added as the "token" query parameter.
func WebSocketURL(base, path, token string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(base))
	if err != nil {
		return "", fmt.Errorf("parse relay url: %w", err)
	}

	switch strings.ToLower(u.Scheme) {
	case "https", "wss":
		u.Scheme = "wss"
	case "http", "ws":
		u.Scheme = "ws"
	default:
		return "", fmt.Errorf("unsupported relay scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("relay url %q has no host", base)
	}

	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(path, "/")
	if token != "" {
		q := u.Query()
		q.Set("token", token)
		u.RawQuery = q.Encode()
	}

	return u.String(), nil
}
