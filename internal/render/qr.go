package render

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"net/url"

	"github.com/yeqown/go-qrcode/v2"
	"github.com/yeqown/go-qrcode/writer/standard"
	"go.uber.org/zap"
)

// VerificationURL derives the public lookup URL embedded in the QR
// code: {base}/verify-certificate/{number}, with the number
// URL-escaped.
func VerificationURL(baseURL, certificateNumber string) string {
	return fmt.Sprintf("%s/verify-certificate/%s", baseURL, url.PathEscape(certificateNumber))
}

// GenerateQR encodes the verification URL at medium error correction
// and returns the raster, or nil if generation fails. QR embedding is
// best-effort: on failure the certificate number is drawn alone.
func GenerateQR(baseURL, certificateNumber string, logger *zap.Logger) image.Image {
	if logger == nil {
		logger = zap.NewNop()
	}
	target := VerificationURL(baseURL, certificateNumber)
	img, err := encodeQR(target)
	if err != nil {
		logger.Warn("qr generation failed, drawing number alone",
			zap.String("certificate_number", certificateNumber),
			zap.Error(err))
		return nil
	}
	return img
}

func encodeQR(content string) (image.Image, error) {
	qrc, err := qrcode.NewWith(content,
		qrcode.WithErrorCorrectionLevel(qrcode.ErrorCorrectionMedium))
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}

	var buf bytes.Buffer
	w := standard.NewWithWriter(nopCloser{&buf},
		standard.WithQRWidth(8),
		standard.WithBorderWidth(2),
	)
	if err := qrc.Save(w); err != nil {
		return nil, fmt.Errorf("write: %w", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return img, nil
}

type nopCloser struct {
	*bytes.Buffer
}

func (nopCloser) Close() error { return nil }
