// Package qr renders the code printed on an asset label. Scanning it opens
// the status page for that asset.
package qr

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"
)

// ContentType of the rendered image.
const ContentType = "image/png"

// StatusURL is the status page address encoded for an asset.
func StatusURL(baseURL string, id uuid.UUID) string {
	return strings.TrimRight(baseURL, "/") + "/status/" + url.PathEscape(id.String())
}

// Renderer turns an asset ID into an image.
type Renderer interface {
	Render(id uuid.UUID) ([]byte, error)
}

// PNGRenderer encodes status page URLs as PNG QR codes.
type PNGRenderer struct {
	BaseURL string
	Size    int
}

func NewPNGRenderer(baseURL string, size int) *PNGRenderer {
	return &PNGRenderer{BaseURL: baseURL, Size: size}
}

func (r *PNGRenderer) Render(id uuid.UUID) ([]byte, error) {
	png, err := qrcode.Encode(StatusURL(r.BaseURL, id), qrcode.Medium, r.Size)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR code: %w", err)
	}
	return png, nil
}
