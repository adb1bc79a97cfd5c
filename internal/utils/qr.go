package utils

import (
	"encoding/base64"

	qrcode "github.com/skip2/go-qrcode"
)

// GeneratePaymentQR génère un QR code PNG (base64) pointant vers la page de paiement
func GeneratePaymentQR(checkoutURL string) (string, error) {
	png, err := qrcode.Encode(checkoutURL, qrcode.Medium, 256)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(png), nil
}
