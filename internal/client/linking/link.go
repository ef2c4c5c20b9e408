package linking

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/echosync/internal/common"
	"github.com/dmitrijs2005/echosync/internal/cryptox"
)

const (
	DefaultScheme = "echo"
	linkHost      = "connect"

	paramID     = "id"
	paramKey    = "key"
	paramServer = "server"
)

// LinkRequest is what a link URI carries. Its String form hides the key.
type LinkRequest struct {
	DeviceID      string
	SharedKey     []byte
	RelayEndpoint string
}

func (r LinkRequest) String() string {
	return fmt.Sprintf("LinkRequest{DeviceID: %s, SharedKey: [REDACTED], RelayEndpoint: %s}", r.DeviceID, r.RelayEndpoint)
}

func (r LinkRequest) GoString() string {
	return r.String()
}

// BuildLinkURI renders the link URI with DefaultScheme.
func BuildLinkURI(deviceID string, key []byte, relayEndpoint string) (string, error) {
	return BuildLinkURIWithScheme(DefaultScheme, deviceID, key, relayEndpoint)
}

// BuildLinkURIWithScheme renders the link URI with a custom scheme.
func BuildLinkURIWithScheme(scheme, deviceID string, key []byte, relayEndpoint string) (string, error) {
	if scheme == "" {
		scheme = DefaultScheme
	}
	if deviceID == "" || relayEndpoint == "" {
		return "", fmt.Errorf("device id and relay endpoint are required: %w", common.ErrInvalidLink)
	}
	if len(key) != common.KeySize {
		return "", fmt.Errorf("key is %d bytes: %w", len(key), common.ErrInvalidKey)
	}

	q := url.Values{}
	q.Set(paramID, deviceID)
	q.Set(paramKey, cryptox.EncodeKey(key))
	q.Set(paramServer, relayEndpoint)

	u := url.URL{Scheme: scheme, Host: linkHost, RawQuery: q.Encode()}
	return u.String(), nil
}

// ParseLinkURI validates a link URI produced by BuildLinkURI.
func ParseLinkURI(uri string) (LinkRequest, error) {
	return ParseLinkURIWithScheme(DefaultScheme, uri)
}

// ParseLinkURIWithScheme validates a link URI with a custom scheme. All
// failures wrap common.ErrInvalidLink.
func ParseLinkURIWithScheme(scheme, uri string) (LinkRequest, error) {
	if scheme == "" {
		scheme = DefaultScheme
	}

	u, err := url.Parse(strings.TrimSpace(uri))
	if err != nil {
		return LinkRequest{}, fmt.Errorf("%w: unparsable uri", common.ErrInvalidLink)
	}
	if !strings.EqualFold(u.Scheme, scheme) {
		return LinkRequest{}, fmt.Errorf("%w: scheme %q", common.ErrInvalidLink, u.Scheme)
	}
	if u.Host != linkHost {
		return LinkRequest{}, fmt.Errorf("%w: host %q", common.ErrInvalidLink, u.Host)
	}

	q := u.Query()
	req := LinkRequest{
		DeviceID:      q.Get(paramID),
		RelayEndpoint: q.Get(paramServer),
	}
	encodedKey := q.Get(paramKey)

	switch {
	case req.DeviceID == "":
		return LinkRequest{}, fmt.Errorf("%w: missing %s", common.ErrInvalidLink, paramID)
	case encodedKey == "":
		return LinkRequest{}, fmt.Errorf("%w: missing %s", common.ErrInvalidLink, paramKey)
	case req.RelayEndpoint == "":
		return LinkRequest{}, fmt.Errorf("%w: missing %s", common.ErrInvalidLink, paramServer)
	}

	key, err := cryptox.DecodeKey(encodedKey)
	if err != nil {
		return LinkRequest{}, fmt.Errorf("%w: %w", common.ErrInvalidLink, err)
	}
	req.SharedKey = key

	return req, nil
}
