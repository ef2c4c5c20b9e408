package keys

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/dmitrijs2005/echosync/internal/cryptox"
)

const redacted = "[REDACTED]"

// SharedKey is the 32-byte symmetric key every linked device shares.
// All of its printable forms are redacted.
type SharedKey []byte

func (k SharedKey) String() string { return redacted }

func (k SharedKey) GoString() string { return redacted }

// Format makes every fmt verb print [REDACTED], including %x and %v.
func (k SharedKey) Format(f fmt.State, verb rune) {
	fmt.Fprint(f, redacted)
}

func (k SharedKey) MarshalJSON() ([]byte, error) {
	return json.Marshal(redacted)
}

func (k SharedKey) MarshalText() ([]byte, error) {
	return []byte(redacted), nil
}

func (k SharedKey) LogValue() slog.Value {
	return slog.StringValue(redacted)
}

// Fingerprint is the short, non-secret identifier users compare across devices.
func (k SharedKey) Fingerprint() string {
	return cryptox.Fingerprint(k)
}

// Encode returns the storage and link form of the key.
func (k SharedKey) Encode() string {
	return cryptox.EncodeKey(k)
}
