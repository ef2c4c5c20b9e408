package linking

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// RenderQR renders uri as a QR code made of terminal block characters.
func RenderQR(uri string) (string, error) {
	q, err := qrcode.New(uri, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("failed to encode qr code: %w", err)
	}
	return q.ToSmallString(false), nil
}
