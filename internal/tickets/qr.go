package tickets

import (
	"encoding/base64"
	"fmt"

	"github.com/skip2/go-qrcode"
)

// DataURIEncoder renders a scannable payload as a PNG data URI suitable for
// embedding straight into the ticket email.
type DataURIEncoder struct {
	Size int
}

func NewDataURIEncoder() *DataURIEncoder {
	return &DataURIEncoder{Size: 300}
}

func (e *DataURIEncoder) Encode(payload string) (string, error) {
	png, err := qrcode.Encode(payload, qrcode.Medium, e.Size)
	if err != nil {
		return "", fmt.Errorf("failed to encode QR code: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
