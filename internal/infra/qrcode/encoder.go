package qrcode

import (
	"fmt"

	"tableorder/internal/usecase"

	qr "github.com/skip2/go-qrcode"
)

type Encoder struct{}

func NewEncoder() Encoder { return Encoder{} }

func (Encoder) PNG(content string, size int) ([]byte, error) {
	png, err := qr.Encode(content, qr.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("qrcode: encode: %w", err)
	}
	return png, nil
}

var _ usecase.QREncoder = Encoder{}
