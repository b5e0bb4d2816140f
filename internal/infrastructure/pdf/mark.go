package pdf

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/jpeg"
	"image/png"
	"math"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/font"

	domainerrors "esign.backend/internal/domain/errors"
)

// Marking stages
const (
	StageLoad      = "load"
	StageEmbed     = "embed"
	StageWatermark = "watermark"
	StageSave      = "save"
)

const (
	typedFont    = "Times-Italic"
	maxTypedSize = 24.0
)

// textWidth measures text in points; replaced in tests
var textWidth = font.TextWidth

type signatureImage struct {
	data   []byte
	format string
	width  int
	height int
}

// decodeImage accepts raw base64 or a data URL and sniffs PNG then JPEG
func decodeImage(encoded string) (*signatureImage, error) {
	payload := strings.TrimSpace(encoded)
	if strings.HasPrefix(payload, "data:") {
		if i := strings.Index(payload, ","); i >= 0 {
			payload = payload[i+1:]
		}
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		if data, err = base64.RawStdEncoding.DecodeString(payload); err != nil {
			return nil, domainerrors.PdfProcessing(StageEmbed, fmt.Errorf("%w: signature image is not base64", domainerrors.ErrUnsupportedFormat))
		}
	}

	if cfg, err := png.DecodeConfig(bytes.NewReader(data)); err == nil {
		return &signatureImage{data: data, format: "png", width: cfg.Width, height: cfg.Height}, nil
	}
	if cfg, err := jpeg.DecodeConfig(bytes.NewReader(data)); err == nil {
		return &signatureImage{data: data, format: "jpeg", width: cfg.Width, height: cfg.Height}, nil
	}
	return nil, domainerrors.PdfProcessing(StageEmbed, fmt.Errorf("%w: signature image is neither PNG nor JPEG", domainerrors.ErrUnsupportedFormat))
}

// fitImage scales the image uniformly into box and centers it. It returns the
// scale factor and the drawn rectangle.
func fitImage(box Box, srcW, srcH int) (float64, Box) {
	if srcW <= 0 || srcH <= 0 {
		return 0, box
	}
	scale := math.Min(box.Width/float64(srcW), box.Height/float64(srcH))
	w := float64(srcW) * scale
	h := float64(srcH) * scale
	return scale, Box{
		X:      box.X + (box.Width-w)/2,
		Y:      box.Y + (box.Height-h)/2,
		Width:  w,
		Height: h,
	}
}

// typedLayout returns the font size and the baseline origin that center text
// in box. The size is min(0.6*h, 24), stepped down only while the measured
// width exceeds the box so the mark never leaves its placement.
func typedLayout(box Box, text string) (int, float64, float64) {
	size := int(math.Min(0.6*box.Height, maxTypedSize) + 1e-9)
	if size < 1 {
		size = 1
	}
	width := textWidth(text, typedFont, size)
	for width > box.Width && size > 1 {
		size--
		width = textWidth(text, typedFont, size)
	}
	x := box.X + math.Max(0, (box.Width-width)/2)
	y := box.Y + (box.Height-float64(size))/2
	return size, x, y
}
